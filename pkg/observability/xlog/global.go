package xlog

import (
	"log/slog"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[LoggerWithLevel]

// Default 返回全局 Logger，首次调用时惰性创建（stderr、Info、text）。
func Default() LoggerWithLevel {
	if l := defaultLogger.Load(); l != nil {
		return *l
	}
	logger, _, err := New().Build()
	if err != nil {
		// 默认配置不会出错
		panic(err)
	}
	if defaultLogger.CompareAndSwap(nil, &logger) {
		return logger
	}
	return *defaultLogger.Load()
}

// SetDefault 替换全局 Logger，nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	defaultLogger.Store(&l)
}

// ResetDefault 重置为未初始化状态，仅用于测试。
func ResetDefault() {
	defaultLogger.Store(nil)
}

// DefaultSlog 返回与全局 Logger 共享 handler 的 *slog.Logger，
// 供各组件在调用方未提供 logger 时回退使用。
func DefaultSlog() *slog.Logger {
	return Slog(Default())
}
