package xctx

import (
	"context"
	"log/slog"
)

// =============================================================================
// slog 集成
// =============================================================================

// AppendCallAttrs 将 context 中的调用字段追加到 attrs，只追加非空字段。
func AppendCallAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := CallID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyCallID, v))
	}
	if v := KeyID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyKeyID, v))
	}
	if v := Scope(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyScope, v))
	}
	if v := Method(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyMethod, v))
	}
	return attrs
}

// AppendTraceAttrs 将 context 中的追踪字段追加到 attrs，只追加非空字段。
func AppendTraceAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := TraceID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyTraceID, v))
	}
	if v := SpanID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeySpanID, v))
	}
	if v := TraceFlags(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyTraceFlags, v))
	}
	return attrs
}

// CallAttrs 返回调用字段的 slog 属性，全部为空时返回 nil。
func CallAttrs(ctx context.Context) []slog.Attr {
	attrs := AppendCallAttrs(make([]slog.Attr, 0, callFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// TraceAttrs 返回追踪字段的 slog 属性，全部为空时返回 nil。
func TraceAttrs(ctx context.Context) []slog.Attr {
	attrs := AppendTraceAttrs(make([]slog.Attr, 0, traceFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
