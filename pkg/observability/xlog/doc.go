// Package xlog 基于 log/slog 的结构化日志库。
//
// # 创建 Logger
//
// Builder 模式（first-error-wins）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xevectl.log").
//		Build()
//	defer cleanup()
//
// # Context 注入
//
// 默认启用 EnrichHandler：每条日志自动附加 xctx 中的调用字段
// （call_id、key_id、eve_scope、eve_method）与追踪字段（trace_id、span_id、trace_flags）。
//
// # 凭证脱敏
//
// [RedactCredentials] 作为 ReplaceAttr 使用，遮蔽 vCode/apiKey 等凭证字段的值。
//
// # 全局 Logger
//
// [Default]、[SetDefault] 以及 [Info] 等全局便利函数，适用于 CLI 等简单场景。
package xlog
