package xcache

import (
	"bytes"
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

type lruEntry struct {
	raw     []byte
	expires time.Time
}

// LRU 容量受限的本地缓存。
//
// 每个条目按策略计算的时长过期，读取时检查。
// 配置 WithMaxAge 后，expirable 额外在后台按最长存活时间清理条目。
type LRU struct {
	lru       *expirable.LRU[string, lruEntry]
	policy    Policy
	now       func() time.Time
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewLRU 创建最多保存 size 个响应的 LRU 缓存。
func NewLRU(size int, opts ...Option) (*LRU, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	o := applyOptions(opts)
	return &LRU{
		lru:    expirable.NewLRU[string, lruEntry](size, nil, o.MaxAge),
		policy: o.Policy,
		now:    o.now,
	}, nil
}

// Load 读取缓存，未命中或已过期返回 (nil, nil)。
func (c *LRU) Load(_ context.Context, id xapi.Identity) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	key := id.Key()
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, nil
	}
	if !c.now().Before(e.expires) {
		c.lru.Remove(key)
		return nil, nil
	}
	return bytes.Clone(e.raw), nil
}

// Save 按策略计算的时长写入。
func (c *LRU) Save(_ context.Context, id xapi.Identity, raw []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	ttl := c.policy.For(raw)
	if ttl <= 0 {
		return nil
	}
	c.lru.Add(id.Key(), lruEntry{raw: bytes.Clone(raw), expires: c.now().Add(ttl)})
	return nil
}

// Len 返回当前条目数（含尚未清理的过期条目）。
func (c *LRU) Len() int {
	if c.closed.Load() {
		return 0
	}
	return c.lru.Len()
}

// Purge 清空缓存。
func (c *LRU) Purge() {
	c.lru.Purge()
}

// Close 清空缓存并停止后台清理，可重复调用。
func (c *LRU) Close() error {
	c.closed.Store(true)
	c.closeOnce.Do(func() {
		c.lru.Purge()
		stopCleanupGoroutine(c.lru)
	})
	return nil
}

// stopCleanupGoroutine 关闭 expirable.LRU 内部的 done 通道，使清理 goroutine 退出。
//
// golang-lru/v2@v2.0.7 在 TTL > 0 时启动清理 goroutine，但没有公开的关闭方法。
// 未启用 MaxAge 时 done 为 nil，直接返回 false。
// 上游字段变化或通道已关闭时返回 false。升级 golang-lru 时需复查此函数。
func stopCleanupGoroutine(lru any) (stopped bool) {
	defer func() {
		if r := recover(); r != nil {
			stopped = false
		}
	}()

	v := reflect.ValueOf(lru)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	done := v.Elem().FieldByName("done")
	if !done.IsValid() || done.Type() != reflect.TypeOf(make(chan struct{})) || done.IsNil() {
		return false
	}
	ch := *(*chan struct{})(unsafe.Pointer(done.UnsafeAddr())) //nolint:gosec // 访问上游未导出字段
	close(ch)
	return true
}

var _ xapi.CacheStore = (*LRU)(nil)
