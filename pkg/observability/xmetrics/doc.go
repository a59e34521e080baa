// Package xmetrics 定义统一的观测接口（Observer/Span）。
//
// 调用方只依赖 [Observer]；[NewOTelObserver] 提供基于 OpenTelemetry 的实现，
// 每个 Span 同时产生一条 trace span 与两项指标：
//
//   - xeveapi.operation.total     计数，属性 component/operation/status
//   - xeveapi.operation.duration  耗时直方图（秒），属性同上
//
// Start 会把生成的 trace_id/span_id/trace_flags 同步回 xctx，日志因此可以与 trace 关联。
package xmetrics
