package xcache

import "time"

// =============================================================================
// 默认值
// =============================================================================

const (
	// DefaultKeyPrefix Redis 键前缀。
	DefaultKeyPrefix = "xeveapi:cache:"

	// DefaultNumCounters ristretto 计数器数量，约为预期条目数的 10 倍。
	DefaultNumCounters int64 = 1e6

	// DefaultMaxCost ristretto 最大成本（字节）。
	DefaultMaxCost int64 = 64 << 20

	// DefaultBufferItems ristretto Get 缓冲区大小。
	DefaultBufferItems int64 = 64

	// MinMemoryMaxCost MaxCost 下限，防止误配导致缓存几乎不可用。
	MinMemoryMaxCost int64 = 1 << 20
)

// =============================================================================
// 选项
// =============================================================================

// Options 缓存后端的公共配置。
type Options struct {
	Policy Policy

	// KeyPrefix 仅 Redis 使用。
	KeyPrefix string

	// ristretto 参数，仅 Memory 使用。
	NumCounters int64
	MaxCost     int64
	BufferItems int64

	// MaxAge 仅 LRU 使用，大于零时启动后台清理过期条目。
	MaxAge time.Duration

	now func() time.Time
}

// Option 配置缓存后端。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		KeyPrefix:   DefaultKeyPrefix,
		NumCounters: DefaultNumCounters,
		MaxCost:     DefaultMaxCost,
		BufferItems: DefaultBufferItems,
		now:         time.Now,
	}
}

func applyOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithPolicy 整体替换缓存时长策略。
func WithPolicy(p Policy) Option {
	return func(o *Options) {
		o.Policy = p
	}
}

// WithTTL 固定缓存时长，忽略响应自带的缓存窗口。
func WithTTL(d time.Duration) Option {
	return func(o *Options) {
		o.Policy.TTL = d
	}
}

// WithDefaultTTL 设置响应缺少缓存窗口时的时长。
func WithDefaultTTL(d time.Duration) Option {
	return func(o *Options) {
		o.Policy.Default = d
	}
}

// WithErrorTTL 设置应用层错误响应的缓存时长，负数表示不缓存错误响应。
func WithErrorTTL(d time.Duration) Option {
	return func(o *Options) {
		o.Policy.ErrorTTL = d
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

// WithMemoryNumCounters 设置 ristretto 计数器数量，非正值被忽略。
func WithMemoryNumCounters(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.NumCounters = n
		}
	}
}

// WithMemoryMaxCost 设置 ristretto 最大成本（字节），低于 MinMemoryMaxCost 时取下限。
func WithMemoryMaxCost(n int64) Option {
	return func(o *Options) {
		if n <= 0 {
			return
		}
		o.MaxCost = max(n, MinMemoryMaxCost)
	}
}

// WithMemoryBufferItems 设置 ristretto Get 缓冲区大小，非正值被忽略。
func WithMemoryBufferItems(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.BufferItems = n
		}
	}
}

// WithMaxAge 设置 LRU 条目的最长存活时间并启用后台清理。
func WithMaxAge(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.MaxAge = d
		}
	}
}

// withClock 测试用时钟。
func withClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.now = now
		}
	}
}
