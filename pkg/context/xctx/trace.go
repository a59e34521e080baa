package xctx

import "context"

// =============================================================================
// Trace Key 常量（W3C Trace Context 字段）
// =============================================================================

const (
	KeyTraceID    = "trace_id"
	KeySpanID     = "span_id"
	KeyTraceFlags = "trace_flags"

	traceFieldCount = 3
)

const (
	keyTraceID    = contextKey("xctx:trace_id")
	keySpanID     = contextKey("xctx:span_id")
	keyTraceFlags = contextKey("xctx:trace_flags")
)

// WithTraceID 将 trace ID 注入 context。
func WithTraceID(ctx context.Context, traceID string) (context.Context, error) {
	return withString(ctx, keyTraceID, traceID)
}

// TraceID 从 context 提取 trace ID，不存在返回空字符串。
func TraceID(ctx context.Context) string { return getString(ctx, keyTraceID) }

// WithSpanID 将 span ID 注入 context。
func WithSpanID(ctx context.Context, spanID string) (context.Context, error) {
	return withString(ctx, keySpanID, spanID)
}

// SpanID 从 context 提取 span ID。
func SpanID(ctx context.Context) string { return getString(ctx, keySpanID) }

// WithTraceFlags 将 trace flags（两位十六进制，如 "01"）注入 context。
func WithTraceFlags(ctx context.Context, flags string) (context.Context, error) {
	return withString(ctx, keyTraceFlags, flags)
}

// TraceFlags 从 context 提取 trace flags。
func TraceFlags(ctx context.Context) string { return getString(ctx, keyTraceFlags) }

// RequireTraceID 从 context 获取 trace ID，不存在则返回 ErrMissingTraceID。
func RequireTraceID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	if v := TraceID(ctx); v != "" {
		return v, nil
	}
	return "", ErrMissingTraceID
}
