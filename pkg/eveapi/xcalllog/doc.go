// Package xcalllog 提供 xapi.CallLog 的实现：结构化日志、OpenTelemetry 指标、
// Prometheus 指标，以及组合多个实现的 Multi。
//
// Start/Stop 的计时按 context 中的 call_id（xctx）区分，
// 同一实例可以被并发调用共享。Stop 测得的耗时附加到随后的 Log/ErrorLog 上。
//
// 参数中的凭证字段（vCode、apiKey）在写出前被遮蔽。
package xcalllog
