package xapi

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"maps"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/omeyang/xeveapi/pkg/config/xconf"
)

// Version 库版本，出现在 User-Agent 中。
const Version = "2.1.0"

// =============================================================================
// 默认值
// =============================================================================

const (
	// DefaultBaseURL EVE XML API 根地址。
	DefaultBaseURL = "https://api.eveonline.com/"

	// DefaultScope 默认的活动 scope。
	DefaultScope = "account"

	// DefaultTimeout 默认请求超时时间。
	DefaultTimeout = 20 * time.Second

	// DefaultUserAgent 调用方未设置时追加在库标识后的 UA。
	DefaultUserAgent = "( Unknown Go Application )"
)

// =============================================================================
// Config 配置结构
// =============================================================================

// Config 客户端配置，字段标签用于 xconf/koanf 反序列化。
//
// CustomKeys 与 VerifyPeer 为指针，nil 表示未配置，由 ApplyDefaults 置为 true。
type Config struct {
	// BaseURL API 根地址，方法路径直接拼接在其后。
	// ApplyDefaults 在为空时填入 DefaultBaseURL，末尾缺少 "/" 时追加一个，
	// 例如 "http://host/api" 改写为 "http://host/api/"。
	BaseURL string `koanf:"base_url"`

	// CustomKeys 为 true 时凭证以 keyID/vCode 发送，否则以 userid/apikey 发送。
	CustomKeys *bool `koanf:"custom_keys"`

	// KeyID 初始 key ID。
	KeyID string `koanf:"key_id"`

	// VCode 初始验证码。
	VCode string `koanf:"vcode"`

	// Scope 初始活动 scope，默认 "account"。
	Scope string `koanf:"scope"`

	// ExtraParams 合并进每个请求的附加参数，同名时覆盖调用参数。
	ExtraParams map[string]string `koanf:"extra_params"`

	// InterfaceIP 出口网卡地址，为空时由系统选择。
	InterfaceIP string `koanf:"interface_ip"`

	// UserAgent 追加在 "xeveapi/<Version>" 之后。
	UserAgent string `koanf:"user_agent"`

	// HTTPPost 为 true 时以表单 POST 发送，否则 GET。
	HTTPPost bool `koanf:"http_post"`

	// Timeout 单次请求超时，默认 20 秒。
	Timeout time.Duration `koanf:"timeout"`

	// VerifyPeer 是否校验服务端证书。
	VerifyPeer *bool `koanf:"verify_peer"`

	// CAFile 自定义 CA 证书（PEM）。
	CAFile string `koanf:"ca_file"`

	// KeepAlive 连接保持时长，0 表示每次请求后关闭连接。
	KeepAlive time.Duration `koanf:"keepalive"`
}

// Bool 返回 b 的指针，便于填写 Config 中的可选布尔字段。
func Bool(b bool) *bool { return &b }

// DefaultConfig 返回填好默认值的配置。
func DefaultConfig() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// Validate 验证配置有效性。
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidBaseURL
	}
	if c.Timeout < 0 || c.KeepAlive < 0 {
		return ErrInvalidTimeout
	}
	if c.InterfaceIP != "" && net.ParseIP(c.InterfaceIP) == nil {
		return ErrInvalidInterfaceIP
	}
	return nil
}

// ApplyDefaults 应用默认值，并为 BaseURL 补齐末尾的 "/"。
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.CustomKeys == nil {
		c.CustomKeys = Bool(true)
	}
	if c.Scope == "" {
		c.Scope = DefaultScope
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.VerifyPeer == nil {
		c.VerifyPeer = Bool(true)
	}
}

// UseCustomKeys 报告是否使用 keyID/vCode 凭证名。
func (c *Config) UseCustomKeys() bool {
	return c.CustomKeys == nil || *c.CustomKeys
}

// VerifiesPeer 报告是否校验服务端证书。
func (c *Config) VerifiesPeer() bool {
	return c.VerifyPeer == nil || *c.VerifyPeer
}

// Clone 创建配置的深拷贝。
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.CustomKeys != nil {
		clone.CustomKeys = Bool(*c.CustomKeys)
	}
	if c.VerifyPeer != nil {
		clone.VerifyPeer = Bool(*c.VerifyPeer)
	}
	if c.ExtraParams != nil {
		clone.ExtraParams = maps.Clone(c.ExtraParams)
	}
	return &clone
}

// BuildTLSConfig 根据 VerifyPeer 与 CAFile 构建 TLS 配置。
func (c *Config) BuildTLSConfig() (*tls.Config, error) {
	//nolint:gosec // G402: InsecureSkipVerify 由 verify_peer 配置控制
	tlsConfig := &tls.Config{
		InsecureSkipVerify: !c.VerifiesPeer(),
		MinVersion:         tls.VersionTLS12,
	}
	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("xapi: failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("xapi: failed to parse CA certificate")
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

// userAgent 返回完整的 User-Agent 头。
func (c *Config) userAgent() string {
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	return "xeveapi/" + Version + " " + ua
}

// =============================================================================
// 加载
// =============================================================================

// ConfigSection 配置文件中客户端配置所在的节。
const ConfigSection = "eveapi"

// LoadConfig 从 YAML/JSON 文件的 "eveapi" 节加载配置，并应用默认值、校验。
func LoadConfig(path string) (*Config, error) {
	cfg, err := xconf.New(path)
	if err != nil {
		return nil, err
	}
	return decodeConfig(cfg)
}

// LoadConfigBytes 从字节加载配置，语义同 LoadConfig。
func LoadConfigBytes(data []byte, format xconf.Format) (*Config, error) {
	cfg, err := xconf.NewFromBytes(data, format)
	if err != nil {
		return nil, err
	}
	return decodeConfig(cfg)
}

func decodeConfig(src xconf.Config) (*Config, error) {
	c := &Config{}
	if err := src.Unmarshal(ConfigSection, c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
