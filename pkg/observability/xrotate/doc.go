// Package xrotate 提供日志文件轮转。
//
// 当前唯一实现基于 lumberjack：按大小轮转，按数量与天数清理备份，可选 gzip 压缩。
// xlog 的 Builder.SetRotation 与 xevectl 的 --log-file 通过本包写文件。
package xrotate
