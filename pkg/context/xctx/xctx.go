package xctx

import (
	"context"
	"errors"
)

// =============================================================================
// Context Key 类型定义
// =============================================================================

type contextKey string

// =============================================================================
// 错误定义
// =============================================================================

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")

	// ErrMissingCallID call_id 缺失
	ErrMissingCallID = errors.New("xctx: missing call_id")

	// ErrMissingTraceID trace_id 缺失
	ErrMissingTraceID = errors.New("xctx: missing trace_id")
)

func withString(ctx context.Context, key contextKey, value string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, key, value), nil
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
