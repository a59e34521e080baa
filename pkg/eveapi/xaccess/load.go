package xaccess

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/omeyang/xeveapi/pkg/config/xconf"
	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/observability/xlog"
)

// ConfigSection 策略文件中的配置节。
const ConfigSection = "access"

// ErrInvalidRule 表示规则中的 key 类型无法识别或掩码为负。
var ErrInvalidRule = errors.New("xaccess: invalid rule")

// PolicyConfig 策略文件结构。
type PolicyConfig struct {
	// Replace 为 true 时只使用 Rules，否则合并到 DefaultTable 之上。
	Replace bool                             `koanf:"replace"`
	Rules   map[string]map[string]RuleConfig `koanf:"rules"`
}

// RuleConfig 文件中的单条规则。KeyType 为空表示不限制类型。
type RuleConfig struct {
	KeyType string `koanf:"key_type"`
	Mask    int64  `koanf:"mask"`
}

// Table 把配置转换为规则表。
func (c PolicyConfig) Table() (Table, error) {
	rules := make(Table)
	for scope, methods := range c.Rules {
		for method, rc := range methods {
			kt := xapi.ParseKeyType(rc.KeyType)
			if rc.KeyType != "" && (kt == xapi.KeyTypeNone || kt == xapi.KeyTypeAccount) {
				return nil, fmt.Errorf("%w: %s/%s key_type %q", ErrInvalidRule, scope, method, rc.KeyType)
			}
			if rc.Mask < 0 {
				return nil, fmt.Errorf("%w: %s/%s mask %d", ErrInvalidRule, scope, method, rc.Mask)
			}
			rules.Set(scope, method, Rule{KeyType: kt, Mask: rc.Mask})
		}
	}
	if c.Replace {
		return rules, nil
	}
	return DefaultTable().Merge(rules), nil
}

// tableFromConfig 读取 ConfigSection 并生成规则表。
func tableFromConfig(cfg xconf.Config) (Table, error) {
	var pc PolicyConfig
	if err := cfg.Unmarshal(ConfigSection, &pc); err != nil {
		return nil, fmt.Errorf("xaccess: decode policy: %w", err)
	}
	return pc.Table()
}

// LoadPolicy 从 YAML/JSON 文件加载策略。
func LoadPolicy(path string) (*StaticCheck, error) {
	cfg, err := xconf.New(path)
	if err != nil {
		return nil, err
	}
	table, err := tableFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewStaticCheck(table), nil
}

// LoadPolicyBytes 从内存中的配置加载策略。
func LoadPolicyBytes(data []byte, format xconf.Format) (*StaticCheck, error) {
	cfg, err := xconf.NewFromBytes(data, format)
	if err != nil {
		return nil, err
	}
	table, err := tableFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewStaticCheck(table), nil
}

// Watch 监视策略文件，变化时替换 policy 的规则表。
// 重载失败时保留原规则并记录 WARN 日志，logger 为 nil 时使用 xlog 全局 Logger。
// 返回的 Watcher 需要调用方 Start/Stop。
func Watch(path string, policy *StaticCheck, logger *slog.Logger, opts ...xconf.WatchOption) (*xconf.Watcher, error) {
	if policy == nil {
		return nil, errors.New("xaccess: nil policy")
	}
	if logger == nil {
		logger = xlog.DefaultSlog()
	}
	cfg, err := xconf.New(path)
	if err != nil {
		return nil, err
	}
	return xconf.Watch(cfg, func(cfg xconf.Config, err error) {
		if err != nil {
			logger.Warn("xaccess: reload policy failed", xlog.Component("xaccess"), xlog.Err(err))
			return
		}
		table, err := tableFromConfig(cfg)
		if err != nil {
			logger.Warn("xaccess: invalid policy ignored", xlog.Component("xaccess"), xlog.Err(err))
			return
		}
		policy.Replace(table)
		logger.Info("xaccess: policy reloaded", xlog.Component("xaccess"), slog.String("path", path))
	}, opts...)
}
