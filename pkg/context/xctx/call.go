package xctx

import (
	"context"

	"github.com/google/uuid"
)

// =============================================================================
// 调用字段 Key 常量
// =============================================================================

// 日志属性 Key，下划线分隔。
const (
	KeyCallID = "call_id"
	KeyKeyID  = "key_id"
	KeyScope  = "eve_scope"
	KeyMethod = "eve_method"

	callFieldCount = 4
)

const (
	keyCallID = contextKey("xctx:call_id")
	keyKeyID  = contextKey("xctx:key_id")
	keyScope  = contextKey("xctx:eve_scope")
	keyMethod = contextKey("xctx:eve_method")

	keyInvocationID = contextKey("xctx:invocation_id")
)

// Call 汇总一次 API 调用的上下文字段。
type Call struct {
	CallID string
	KeyID  string
	Scope  string
	Method string
}

// WithCallID 将调用 ID 注入 context。
func WithCallID(ctx context.Context, id string) (context.Context, error) {
	return withString(ctx, keyCallID, id)
}

// CallID 从 context 提取调用 ID，不存在返回空字符串。
func CallID(ctx context.Context) string { return getString(ctx, keyCallID) }

// WithKeyID 将 API key ID 注入 context。
func WithKeyID(ctx context.Context, keyID string) (context.Context, error) {
	return withString(ctx, keyKeyID, keyID)
}

// KeyID 从 context 提取 API key ID。
func KeyID(ctx context.Context) string { return getString(ctx, keyKeyID) }

// WithScope 将调用的 scope 注入 context。
func WithScope(ctx context.Context, scope string) (context.Context, error) {
	return withString(ctx, keyScope, scope)
}

// Scope 从 context 提取调用的 scope。
func Scope(ctx context.Context) string { return getString(ctx, keyScope) }

// WithMethod 将调用的方法名注入 context。
func WithMethod(ctx context.Context, method string) (context.Context, error) {
	return withString(ctx, keyMethod, method)
}

// Method 从 context 提取调用的方法名。
func Method(ctx context.Context) string { return getString(ctx, keyMethod) }

// RequireCallID 从 context 获取调用 ID，不存在则返回 ErrMissingCallID。
func RequireCallID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	if v := CallID(ctx); v != "" {
		return v, nil
	}
	return "", ErrMissingCallID
}

// NewCallID 生成新的调用 ID（UUID v4）。
func NewCallID() string {
	return uuid.NewString()
}

// EnsureCallID 确保 context 中存在调用 ID，已存在时原样返回。
func EnsureCallID(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if CallID(ctx) != "" {
		return ctx, nil
	}
	return WithCallID(ctx, NewCallID())
}

// WithInvocationID 注入新生成的调用实例 ID。
//
// 与 call_id 不同，调用实例 ID 每次都重新生成且不进入日志字段：
// 同一请求 context（同一 call_id）上并发发起的多次调用各自持有一个实例 ID，
// 供 Start/Stop 计时等需要逐次配对的场景使用。
func WithInvocationID(ctx context.Context) (context.Context, error) {
	return withString(ctx, keyInvocationID, uuid.NewString())
}

// InvocationID 从 context 提取调用实例 ID，不存在返回空字符串。
func InvocationID(ctx context.Context) string { return getString(ctx, keyInvocationID) }

// WithCall 批量注入调用字段，空字段跳过。
// CallID 为空时自动生成（已有的 call_id 保留）；调用实例 ID 总是重新生成。
func WithCall(ctx context.Context, c Call) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	var err error
	if c.CallID != "" {
		ctx, err = WithCallID(ctx, c.CallID)
	} else {
		ctx, err = EnsureCallID(ctx)
	}
	if err != nil {
		return nil, err
	}
	if ctx, err = WithInvocationID(ctx); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		key   contextKey
		value string
	}{
		{keyKeyID, c.KeyID},
		{keyScope, c.Scope},
		{keyMethod, c.Method},
	} {
		if f.value == "" {
			continue
		}
		ctx = context.WithValue(ctx, f.key, f.value)
	}
	return ctx, nil
}

// GetCall 从 context 读取全部调用字段。
func GetCall(ctx context.Context) Call {
	return Call{
		CallID: CallID(ctx),
		KeyID:  KeyID(ctx),
		Scope:  Scope(ctx),
		Method: Method(ctx),
	}
}
