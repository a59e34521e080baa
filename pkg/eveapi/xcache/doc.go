// Package xcache 提供 xapi.CacheStore 的多种后端实现。
//
// 可选后端：
//   - Memory：基于 ristretto 的进程内缓存，适合单实例高吞吐
//   - LRU：基于 golang-lru expirable 的容量受限缓存
//   - Redis：基于 go-redis 的共享缓存，多实例共享同一份响应
//   - Tiered：本地 L1 + 远端 L2 的两级组合
//
// 缓存时长由 Policy 决定：默认取响应中 cachedUntil 与 currentTime 的差值，
// 可通过 WithTTL 固定，通过 WithErrorTTL 单独控制应用层错误响应的缓存时长。
// 计算得到的时长小于等于零时不写入。
//
// 所有后端的键都来自 xapi.Identity.Key()，与归档使用同一寻址规则。
package xcache
