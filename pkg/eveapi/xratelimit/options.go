package xratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/omeyang/xeveapi/pkg/context/xctx"
)

const (
	// DefaultRate 默认每秒请求数。
	DefaultRate = 30

	// DefaultBurst 默认突发容量。
	DefaultBurst = 30

	// DefaultKeyPrefix Redis 限流键前缀。
	DefaultKeyPrefix = "xeveapi:ratelimit:"

	// GlobalKey 未启用 PerKey 或 context 中没有 key_id 时使用的计数键。
	GlobalKey = "global"
)

var (
	// ErrLimitExceeded 表示预计等待时间超过 MaxWait。
	ErrLimitExceeded = errors.New("xratelimit: rate limit exceeded")

	// ErrNilClient 表示传入的客户端为 nil。
	ErrNilClient = errors.New("xratelimit: nil client")

	// ErrInvalidRate 表示速率或突发容量非正。
	ErrInvalidRate = errors.New("xratelimit: rate and burst must be positive")
)

// Options 限流配置。
type Options struct {
	// Rate 每秒允许的请求数。
	Rate float64
	// Burst 突发容量。
	Burst int
	// MaxWait 大于零时，预计等待超过该值直接失败。
	MaxWait time.Duration
	// PerKey 为 true 时按 key_id 分别限流。
	PerKey bool
	// KeyPrefix 仅 Redis 使用。
	KeyPrefix string
}

// Option 配置限流器。
type Option func(*Options)

func applyOptions(opts []Option) (*Options, error) {
	o := &Options{Rate: DefaultRate, Burst: DefaultBurst, KeyPrefix: DefaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.Rate <= 0 || o.Burst <= 0 {
		return nil, ErrInvalidRate
	}
	return o, nil
}

// WithRate 设置每秒请求数与突发容量。
func WithRate(perSecond float64, burst int) Option {
	return func(o *Options) {
		o.Rate = perSecond
		o.Burst = burst
	}
}

// WithMaxWait 设置最长等待时间。
func WithMaxWait(d time.Duration) Option {
	return func(o *Options) {
		o.MaxWait = d
	}
}

// WithPerKey 启用按 key_id 分别限流。
func WithPerKey(enable bool) Option {
	return func(o *Options) {
		o.PerKey = enable
	}
}

// WithKeyPrefix 设置 Redis 键前缀，空字符串被忽略。
func WithKeyPrefix(prefix string) Option {
	return func(o *Options) {
		if prefix != "" {
			o.KeyPrefix = prefix
		}
	}
}

// bucketKey 返回本次调用使用的计数键。
func (o *Options) bucketKey(ctx context.Context) string {
	if o.PerKey {
		if id := xctx.KeyID(ctx); id != "" {
			return id
		}
	}
	return GlobalKey
}
