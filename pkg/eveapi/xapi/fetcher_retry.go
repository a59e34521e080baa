package xapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xeveapi/pkg/observability/xlog"
)

// =============================================================================
// RetryFetcher
// =============================================================================

// RetryOption RetryFetcher 的可选配置。
type RetryOption func(*RetryFetcher)

// WithRetryAttempts 设置总尝试次数（含首次），默认 3。
func WithRetryAttempts(n uint) RetryOption {
	return func(f *RetryFetcher) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithRetryDelay 设置首次退避延迟与最大延迟，默认 200ms / 5s。
func WithRetryDelay(delay, maxDelay time.Duration) RetryOption {
	return func(f *RetryFetcher) {
		if delay > 0 {
			f.delay = delay
		}
		if maxDelay > 0 {
			f.maxDelay = maxDelay
		}
	}
}

// WithRetryLogger 设置重试日志。
func WithRetryLogger(logger *slog.Logger) RetryOption {
	return func(f *RetryFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// RetryFetcher 对瞬时传输失败做指数退避重试的 Fetcher 装饰器。
//
// 只重试 KindConnection 与 502/504 的 KindHTTPStatus；
// 携带负载的状态码（400/403/500/503）由下层作为正常响应返回，不会触发重试。
// 所有尝试失败后原样返回最后一个错误。
type RetryFetcher struct {
	next     Fetcher
	attempts uint
	delay    time.Duration
	maxDelay time.Duration
	logger   *slog.Logger
}

// NewRetryFetcher 包装 next。
func NewRetryFetcher(next Fetcher, opts ...RetryOption) *RetryFetcher {
	f := &RetryFetcher{
		next:     next,
		attempts: 3,
		delay:    200 * time.Millisecond,
		maxDelay: 5 * time.Second,
		logger:   xlog.DefaultSlog(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetch 实现 Fetcher。
func (f *RetryFetcher) Fetch(ctx context.Context, url string, params Params) ([]byte, error) {
	return retry.NewWithData[[]byte](
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(f.delay),
		retry.MaxDelay(f.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			f.logger.DebugContext(ctx, "xapi: retrying fetch",
				slog.String("url", url),
				slog.Uint64("attempt", uint64(n)+1),
				slog.String("error", err.Error()),
			)
		}),
		retry.LastErrorOnly(true),
	).Do(func() ([]byte, error) {
		return f.next.Fetch(ctx, url, params)
	})
}

// IsRetryable 报告 err 是否为值得重试的瞬时失败。
// 取消与熔断打开都不重试。
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, gobreaker.ErrOpenState) {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindConnection:
		return true
	case KindHTTPStatus:
		return e.StatusCode == http.StatusBadGateway || e.StatusCode == http.StatusGatewayTimeout
	default:
		return false
	}
}

var _ Fetcher = (*RetryFetcher)(nil)
