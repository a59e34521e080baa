// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，自动注入调用字段
//   - xmetrics: 统一观测接口（Observer/Span）及 OpenTelemetry 实现
//   - xrotate: 日志文件轮转
package observability
