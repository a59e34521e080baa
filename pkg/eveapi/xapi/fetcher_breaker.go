package xapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xeveapi/pkg/observability/xlog"
)

// =============================================================================
// BreakerFetcher
// =============================================================================

// BreakerOption BreakerFetcher 的可选配置。
type BreakerOption func(*breakerOptions)

type breakerOptions struct {
	name        string
	failures    uint32
	timeout     time.Duration
	interval    time.Duration
	maxRequests uint32
	logger      *slog.Logger
}

// WithBreakerName 设置熔断器名称，默认 "xeveapi"。
func WithBreakerName(name string) BreakerOption {
	return func(o *breakerOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithBreakerFailures 设置连续传输失败多少次后打开，默认 5。
func WithBreakerFailures(n uint32) BreakerOption {
	return func(o *breakerOptions) {
		if n > 0 {
			o.failures = n
		}
	}
}

// WithBreakerTimeout 设置打开状态持续时间，默认 30s。
func WithBreakerTimeout(d time.Duration) BreakerOption {
	return func(o *breakerOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithBreakerLogger 设置状态变化日志。
func WithBreakerLogger(logger *slog.Logger) BreakerOption {
	return func(o *breakerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// BreakerFetcher 连续传输失败后熔断的 Fetcher 装饰器。
//
// 只有传输失败（KindConnection/KindHTTPStatus）计入失败；携带负载的错误状态码
// 由下层作为正常响应返回，不影响熔断器。打开期间返回包装了 gobreaker.ErrOpenState 的 KindConnection 错误。
type BreakerFetcher struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[[]byte]
}

// NewBreakerFetcher 包装 next。
func NewBreakerFetcher(next Fetcher, opts ...BreakerOption) *BreakerFetcher {
	o := &breakerOptions{
		name:        "xeveapi",
		failures:    5,
		timeout:     30 * time.Second,
		maxRequests: 1,
		logger:      xlog.DefaultSlog(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	st := gobreaker.Settings{
		Name:        o.name,
		MaxRequests: o.maxRequests,
		Interval:    o.interval,
		Timeout:     o.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransport(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.logger.Warn("xapi: circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}
	return &BreakerFetcher{next: next, cb: gobreaker.NewCircuitBreaker[[]byte](st)}
}

// Fetch 实现 Fetcher。
func (f *BreakerFetcher) Fetch(ctx context.Context, url string, params Params) ([]byte, error) {
	raw, err := f.cb.Execute(func() ([]byte, error) {
		return f.next.Fetch(ctx, url, params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, NewConnectionError(url, err)
	}
	return raw, err
}

// State 返回熔断器当前状态。
func (f *BreakerFetcher) State() gobreaker.State {
	return f.cb.State()
}

var _ Fetcher = (*BreakerFetcher)(nil)
