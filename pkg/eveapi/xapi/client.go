package xapi

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/omeyang/xeveapi/pkg/eveapi/xresult"
)

// 访问探测使用的固定调用。
const (
	keyInfoScope  = "account"
	keyInfoMethod = "APIKeyInfo"
)

// =============================================================================
// Client
// =============================================================================

// Client EVE XML API 客户端。
//
// 会话状态（key ID、vCode、活动 scope、访问状态、最后一次原始响应）由互斥锁保护，
// 每次 Invoke 在入口处取快照，因此可在多个 goroutine 中并发调用。
// 需要互不影响的会话时使用 Clone。
type Client struct {
	cfg     *Config
	opts    *Options
	fetcher Fetcher

	mu      sync.RWMutex
	keyID   string
	vCode   string
	scope   string
	access  AccessState
	lastRaw []byte
}

// session Invoke 使用的会话快照。
type session struct {
	keyID  string
	vCode  string
	access AccessState
}

// NewClient 创建客户端。cfg 会被复制，之后对 cfg 的修改不影响客户端。
func NewClient(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := applyOptions(opts)
	fetcher := options.Fetcher
	if fetcher == nil {
		hf, err := NewHTTPFetcher(cfg)
		if err != nil {
			return nil, err
		}
		fetcher = hf
	}

	return &Client{
		cfg:     cfg,
		opts:    options,
		fetcher: fetcher,
		keyID:   cfg.KeyID,
		vCode:   cfg.VCode,
		scope:   cfg.Scope,
	}, nil
}

// Config 返回客户端配置的副本。
func (c *Client) Config() *Config {
	return c.cfg.Clone()
}

// Clone 返回共享协作者、但会话状态独立的客户端。
func (c *Client) Clone() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Client{
		cfg:     c.cfg,
		opts:    c.opts,
		fetcher: c.fetcher,
		keyID:   c.keyID,
		vCode:   c.vCode,
		scope:   c.scope,
		access:  c.access,
		lastRaw: c.lastRaw,
	}
}

func (c *Client) snapshot() session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return session{keyID: c.keyID, vCode: c.vCode, access: c.access}
}

// =============================================================================
// 会话
// =============================================================================

// SetCredentials 设置 key ID 与 vCode。访问状态不变，需要时调用 DetectAccess。
func (c *Client) SetCredentials(keyID, vCode string) {
	c.mu.Lock()
	c.keyID, c.vCode = keyID, vCode
	c.mu.Unlock()
}

// KeyID 返回当前 key ID。
func (c *Client) KeyID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keyID
}

// SetScope 设置活动 scope，Call 使用它。
func (c *Client) SetScope(scope string) {
	c.mu.Lock()
	c.scope = scope
	c.mu.Unlock()
}

// ActiveScope 返回活动 scope。
func (c *Client) ActiveScope() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scope
}

// SetAccess 设置访问状态。keyType 规范化为已知类型或空，负数掩码置 0。
func (c *Client) SetAccess(keyType string, accessMask int64) {
	st := newAccessState(keyType, accessMask)
	c.mu.Lock()
	c.access = st
	c.mu.Unlock()
}

// SetAccessString 同 SetAccess，掩码以字符串给出，非数字视为 0。
func (c *Client) SetAccessString(keyType, accessMask string) {
	c.SetAccess(keyType, ParseAccessMask(accessMask))
}

// ClearAccess 等价于 SetAccess("", 0)。
func (c *Client) ClearAccess() {
	c.SetAccess("", 0)
}

// Access 返回当前访问状态。
func (c *Client) Access() AccessState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access
}

// LastRaw 返回最近一次取得的原始响应（抓取或缓存命中），解析失败的响应同样保留。
func (c *Client) LastRaw() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRaw
}

func (c *Client) setLastRaw(raw []byte) {
	c.mu.Lock()
	c.lastRaw = raw
	c.mu.Unlock()
}

// DetectAccess 通过 account/APIKeyInfo 探测 key 的类型与掩码并写入访问状态。
//
// 未启用 custom keys 或缺少 key ID、vCode 时返回 ErrDetectSkipped，不发起请求。
// 调用使用显式 scope，活动 scope 不受影响。底层调用的错误原样返回。
func (c *Client) DetectAccess(ctx context.Context) (*xresult.Result, error) {
	sess := c.snapshot()
	if !c.cfg.UseCustomKeys() || sess.keyID == "" || sess.vCode == "" {
		return nil, ErrDetectSkipped
	}
	res, err := c.Invoke(ctx, keyInfoScope, keyInfoMethod, nil)
	if err != nil {
		return nil, err
	}
	key := res.Get("key")
	c.SetAccessString(key.Get("type").String(), key.Get("accessMask").String())
	return res, nil
}

// =============================================================================
// 动态分发
// =============================================================================

// Call 在活动 scope 上调用 method。args 只取第一个，且只接受
// Params、map[string]string 或 url.Values，其余类型按无参数处理。
func (c *Client) Call(ctx context.Context, method string, args ...any) (*xresult.Result, error) {
	return c.Invoke(ctx, c.ActiveScope(), method, paramsFromArgs(args))
}

// Scope 返回绑定到 scope 的视图，不修改活动 scope。
func (c *Client) Scope(scope string) *Scoped {
	return &Scoped{client: c, scope: scope}
}

// Lookup 按属性名选择 scope：形如 "<name>Scope" 时把活动 scope 设为 name
// 并返回对应视图；其余名称返回 (nil, false)。
func (c *Client) Lookup(name string) (*Scoped, bool) {
	scope, ok := strings.CutSuffix(name, "Scope")
	if !ok || scope == "" {
		return nil, false
	}
	c.SetScope(scope)
	return c.Scope(scope), true
}

// Scoped 绑定了 scope 的客户端视图。
type Scoped struct {
	client *Client
	scope  string
}

// Name 返回绑定的 scope。
func (s *Scoped) Name() string { return s.scope }

// Call 在绑定的 scope 上调用 method，args 规则同 Client.Call。
func (s *Scoped) Call(ctx context.Context, method string, args ...any) (*xresult.Result, error) {
	return s.client.Invoke(ctx, s.scope, method, paramsFromArgs(args))
}

// Invoke 在绑定的 scope 上调用 method。
func (s *Scoped) Invoke(ctx context.Context, method string, params Params) (*xresult.Result, error) {
	return s.client.Invoke(ctx, s.scope, method, params)
}

func paramsFromArgs(args []any) Params {
	if len(args) == 0 {
		return nil
	}
	switch v := args[0].(type) {
	case Params:
		return v
	case map[string]string:
		return Params(v)
	case url.Values:
		return ParamsFromValues(v)
	default:
		return nil
	}
}

// ApplicationError 把错误结果转换为 KindApplication 错误值；非错误结果返回 nil。
func ApplicationError(res *xresult.Result) *Error {
	if res == nil || !res.IsError() {
		return nil
	}
	return NewApplicationError(res.ErrorCode(), res.ErrorMessage())
}
