// Package xctx 在 context 中携带一次 API 调用的上下文字段。
//
// 字段分两组：
//   - 调用字段：call_id、key_id、eve_scope、eve_method，由 xapi 在每次 Invoke 入口注入
//   - 追踪字段：trace_id、span_id、trace_flags，由 xmetrics 的 OTel 实现同步
//
// 所有 getter 对 nil ctx 安全，缺失时返回空字符串；所有 setter 对 nil ctx
// 返回 [ErrNilContext]。AppendCallAttrs / AppendTraceAttrs 供 xlog 的
// EnrichHandler 在热路径上追加 slog 属性。
//
// 凭证（vCode）永远不会进入 context。
package xctx
