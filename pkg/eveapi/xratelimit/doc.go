// Package xratelimit 提供 xapi.RateLimiter 的实现。
//
//   - Local：进程内令牌桶（golang.org/x/time/rate）
//   - Redis：基于 redis_rate 的分布式 GCRA 限流，多个进程共享配额
//
// RateLimit 阻塞直到允许发送请求。配置 MaxWait 后，预计等待超过该时长时
// 立即返回 ErrLimitExceeded；context 取消时返回 context 的错误。
// 启用 PerKey 后按 context 中的 key_id（xctx）分别计数。
package xratelimit
