package xapi

import (
	"log/slog"

	"github.com/omeyang/xeveapi/pkg/observability/xlog"
	"github.com/omeyang/xeveapi/pkg/observability/xmetrics"
)

// =============================================================================
// Options 结构
// =============================================================================

// Options 定义客户端的协作者与可选配置。未设置的协作者使用空实现。
type Options struct {
	// Fetcher 网络请求实现，默认按 Config 构建 HTTPFetcher。
	Fetcher Fetcher

	// Cache 原始响应缓存，默认 NullCache。
	Cache CacheStore

	// Archive 成功响应归档，默认 NullArchive。
	Archive ArchiveStore

	// CallLog 调用审计日志，默认 NullLog。
	CallLog CallLog

	// Access 访问策略，默认 NullAccess。
	Access AccessPolicy

	// RateLimiter 请求限流，默认 NullRateLimiter。
	RateLimiter RateLimiter

	// Logger 库内部诊断日志（如缓存读取失败），默认取 xlog 全局 Logger。
	Logger *slog.Logger

	// Observer 可观测性接口，每次 Invoke 记录一个跨度。
	Observer xmetrics.Observer
}

// Option 定义配置客户端的函数类型。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Cache:       NullCache{},
		Archive:     NullArchive{},
		CallLog:     NullLog{},
		Access:      NullAccess{},
		RateLimiter: NullRateLimiter{},
		Logger:      xlog.DefaultSlog(),
		Observer:    xmetrics.NoopObserver{},
	}
}

func applyOptions(opts []Option) *Options {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

// =============================================================================
// Option 函数
// =============================================================================

// WithFetcher 替换网络请求实现，可用于注入 RetryFetcher/BreakerFetcher 装饰链。
func WithFetcher(f Fetcher) Option {
	return func(o *Options) {
		if f != nil {
			o.Fetcher = f
		}
	}
}

// WithCache 设置缓存。传入 nil 时保持 NullCache。
func WithCache(c CacheStore) Option {
	return func(o *Options) {
		if c != nil {
			o.Cache = c
		}
	}
}

// WithArchive 设置归档。
func WithArchive(a ArchiveStore) Option {
	return func(o *Options) {
		if a != nil {
			o.Archive = a
		}
	}
}

// WithCallLog 设置调用日志。
func WithCallLog(l CallLog) Option {
	return func(o *Options) {
		if l != nil {
			o.CallLog = l
		}
	}
}

// WithAccessPolicy 设置访问策略。
func WithAccessPolicy(p AccessPolicy) Option {
	return func(o *Options) {
		if p != nil {
			o.Access = p
		}
	}
}

// WithRateLimiter 设置限流器。
func WithRateLimiter(r RateLimiter) Option {
	return func(o *Options) {
		if r != nil {
			o.RateLimiter = r
		}
	}
}

// WithLogger 设置库内部日志记录器。
// 传入 nil 时使用 xlog 全局 Logger。
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithObserver 设置可观测性接口。
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *Options) {
		if observer != nil {
			o.Observer = observer
		}
	}
}
