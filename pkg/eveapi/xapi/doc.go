// Package xapi 是 EVE Online XML API 的客户端核心。
//
// # 调用
//
// 核心操作是显式的 [Client.Invoke]：
//
//	client, err := xapi.NewClient(&xapi.Config{KeyID: "42", VCode: "secret"},
//	    xapi.WithCache(cache),
//	    xapi.WithArchive(archive),
//	)
//	res, err := client.Invoke(ctx, "char", "CharacterSheet", xapi.Params{"characterID": "90000001"})
//
// 便捷形式：[Client.Scope] 返回绑定 scope 的视图，[Client.Call] 使用活动 scope，
// [Client.Lookup] 按 "<name>Scope" 属性名切换活动 scope。
//
// # 流程
//
// 每次调用依次执行：清洗参数（去除 userid/apikey/keyid/vcode）、注入会话凭证、
// 访问检查、查缓存、限流与请求、解析、分类，以及日志、归档、缓存写入。
// 缓存命中时不请求网络，也不产生日志、归档与缓存写入，但响应会重新解析。
//
// 状态码 400/403/500/503 的响应体作为应用负载解析；服务端的 <error> 响应
// 以 Result.IsError() 的形式正常返回，写入缓存但不归档。
//
// # 错误
//
// 失败以 [*Error] 返回，Kind 区分连接失败、HTTP 状态码、访问拒绝、XML 解析失败与通用失败，
// 可用 errors.Is(err, xapi.ErrConnection) 等哨兵匹配。
//
// # 协作者
//
// [Fetcher]、[CacheStore]、[ArchiveStore]、[CallLog]、[AccessPolicy]、[RateLimiter]
// 均可替换，未设置时使用空实现。xcache、xarchive、xcalllog、xratelimit、xaccess
// 提供具体实现；[RetryFetcher] 与 [BreakerFetcher] 可叠加在 [HTTPFetcher] 之上。
//
// # 并发
//
// 会话状态（凭证、活动 scope、访问状态）由 Client 内部加锁保护，Invoke 入口处取快照。
// 需要相互隔离的会话时使用 [Client.Clone]。
package xapi
