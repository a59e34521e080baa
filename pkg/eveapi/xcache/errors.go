package xcache

import "errors"

var (
	// ErrNilClient 表示传入的客户端为 nil。
	ErrNilClient = errors.New("xcache: nil client")

	// ErrInvalidSize 表示 LRU 容量非正。
	ErrInvalidSize = errors.New("xcache: size must be positive")

	// ErrClosed 表示缓存已关闭。
	ErrClosed = errors.New("xcache: cache closed")
)
