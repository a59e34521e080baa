package xcalllog

import (
	"context"
	"log/slog"
	"time"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/observability/xlog"
)

const (
	// KeyScope 日志中的 scope 字段。
	KeyScope = "scope"
	// KeyMethod 日志中的方法字段。
	KeyMethod = "method"
	// KeyMessage ErrorLog 的错误消息字段。
	KeyMessage = "message"
	// KeyErrorCode ErrorLog 的错误码字段。
	KeyErrorCode = "error_code"

	componentName = "xeveapi.calllog"
)

// Slog 把调用记录写入 slog.Logger。
//
// 成功调用以 Info 级别输出，失败以 Error 级别输出，
// Stop 以 Debug 级别输出请求耗时。
type Slog struct {
	logger *slog.Logger
	timer  *timer
}

// SlogOption 配置 Slog。
type SlogOption func(*slogOptions)

type slogOptions struct {
	now func() time.Time
}

// WithSlogClock 设置计时用的时钟，nil 被忽略。
func WithSlogClock(now func() time.Time) SlogOption {
	return func(o *slogOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewSlog 创建写入 logger 的 CallLog，logger 为 nil 时使用 xlog 全局 Logger。
func NewSlog(logger *slog.Logger, opts ...SlogOption) *Slog {
	if logger == nil {
		logger = xlog.DefaultSlog()
	}
	o := &slogOptions{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return &Slog{logger: logger.With(xlog.Component(componentName)), timer: newTimer(o.now)}
}

// Start 开始计时。
func (s *Slog) Start(ctx context.Context) {
	s.timer.start(ctx)
}

// Stop 结束计时。
func (s *Slog) Stop(ctx context.Context) {
	if d, ok := s.timer.stop(ctx); ok {
		s.logger.DebugContext(ctx, "eveapi request finished", xlog.Duration(d))
	}
}

// Log 记录成功调用。
func (s *Slog) Log(ctx context.Context, scope, method string, params xapi.Params) {
	attrs := []any{slog.String(KeyScope, scope), slog.String(KeyMethod, method), paramsAttr(params)}
	if d, ok := s.timer.take(ctx); ok {
		attrs = append(attrs, xlog.Duration(d))
	}
	s.logger.InfoContext(ctx, "eveapi call", attrs...)
}

// ErrorLog 记录失败调用。
func (s *Slog) ErrorLog(ctx context.Context, scope, method string, params xapi.Params, message string) {
	attrs := []any{
		slog.String(KeyScope, scope),
		slog.String(KeyMethod, method),
		paramsAttr(params),
		slog.String(KeyErrorCode, ErrorCode(message)),
		slog.String(KeyMessage, message),
	}
	if d, ok := s.timer.take(ctx); ok {
		attrs = append(attrs, xlog.Duration(d))
	}
	s.logger.ErrorContext(ctx, "eveapi call failed", attrs...)
}

var _ xapi.CallLog = (*Slog)(nil)
