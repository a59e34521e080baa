// Package xarchive 提供 xapi.ArchiveStore 的多种后端实现，保存成功调用的原始响应。
//
// 可选后端：
//   - File：按日期、key、scope、方法分层写入本地目录
//   - SQLite：写入单表，便于按调用身份检索历史响应
//   - Mongo：每次调用一份文档
//   - S3：对象键与 File 的相对路径一致，兼容 MinIO 等 S3 协议存储
//   - Multi：同时写入多个后端
//
// 所有后端使用 xapi.Identity 定位记录，与缓存使用同一寻址规则；
// 凭证（vCode）从不写入归档。
package xarchive
