package xapi

import "context"

//go:generate mockgen -source=interfaces.go -destination=mock_collaborators_test.go -package=xapi

// =============================================================================
// 协作者接口
// =============================================================================

// Fetcher 执行一次 HTTP 请求并返回响应体。
//
// 状态码 400/403/500/503 视为携带有效负载，返回响应体且 err 为 nil；
// 其余 >= 400 的状态码返回 KindHTTPStatus 错误；无法获得响应时返回 KindConnection 错误。
type Fetcher interface {
	Fetch(ctx context.Context, url string, params Params) ([]byte, error)
}

// CacheStore 原始响应缓存。
//
// Load 未命中返回 (nil, nil) 或 ErrCacheMiss。过期策略由实现决定。
type CacheStore interface {
	Load(ctx context.Context, id Identity) ([]byte, error)
	Save(ctx context.Context, id Identity, raw []byte) error
}

// ArchiveStore 成功响应的归档。只在非错误结果上调用。
type ArchiveStore interface {
	Save(ctx context.Context, id Identity, raw []byte) error
}

// CallLog 调用审计日志。
//
// Start/Stop 包围一次实际的网络请求，用于计时；缓存命中不会调用。
type CallLog interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
	Log(ctx context.Context, scope, method string, params Params)
	ErrorLog(ctx context.Context, scope, method string, params Params, message string)
}

// AccessPolicy 访问检查。返回非 nil 表示拒绝。
type AccessPolicy interface {
	Check(scope, method string, keyType KeyType, accessMask int64) error
}

// RateLimiter 在每次实际请求前调用，可阻塞直到允许发送。
// 返回错误时请求不会发出。
type RateLimiter interface {
	RateLimit(ctx context.Context) error
}

// =============================================================================
// 空实现
// =============================================================================

// NullCache 从不命中，写入丢弃。
type NullCache struct{}

// Load 总是未命中。
func (NullCache) Load(context.Context, Identity) ([]byte, error) { return nil, nil }

// Save 丢弃。
func (NullCache) Save(context.Context, Identity, []byte) error { return nil }

// NullArchive 丢弃所有归档。
type NullArchive struct{}

// Save 丢弃。
func (NullArchive) Save(context.Context, Identity, []byte) error { return nil }

// NullLog 不记录任何内容。
type NullLog struct{}

// Start 空实现。
func (NullLog) Start(context.Context) {}

// Stop 空实现。
func (NullLog) Stop(context.Context) {}

// Log 空实现。
func (NullLog) Log(context.Context, string, string, Params) {}

// ErrorLog 空实现。
func (NullLog) ErrorLog(context.Context, string, string, Params, string) {}

// NullAccess 允许所有调用。
type NullAccess struct{}

// Check 总是允许。
func (NullAccess) Check(string, string, KeyType, int64) error { return nil }

// NullRateLimiter 不做限流。
type NullRateLimiter struct{}

// RateLimit 立即返回，ctx 已取消时返回 ctx 错误。
func (NullRateLimiter) RateLimit(ctx context.Context) error { return ctx.Err() }

var (
	_ CacheStore   = NullCache{}
	_ ArchiveStore = NullArchive{}
	_ CallLog      = NullLog{}
	_ AccessPolicy = NullAccess{}
	_ RateLimiter  = NullRateLimiter{}
)
