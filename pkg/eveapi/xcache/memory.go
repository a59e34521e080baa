package xcache

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// Memory 基于 ristretto 的进程内缓存。
//
// ristretto 的写入是异步的，Save 返回前调用 Wait 使写入对后续 Load 可见。
// 写入可能被准入策略拒绝，此时视为未缓存，不返回错误。
type Memory struct {
	cache  *ristretto.Cache[string, []byte]
	policy Policy
	closed atomic.Bool
}

// Stats 缓存命中统计。
type Stats struct {
	Hits   uint64
	Misses uint64
	Ratio  float64
}

// NewMemory 创建内存缓存。
func NewMemory(opts ...Option) (*Memory, error) {
	o := applyOptions(opts)
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: o.NumCounters,
		MaxCost:     o.MaxCost,
		BufferItems: o.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("xcache: create memory cache: %w", err)
	}
	return &Memory{cache: cache, policy: o.Policy}, nil
}

// Load 读取缓存，未命中返回 (nil, nil)。
func (m *Memory) Load(_ context.Context, id xapi.Identity) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	raw, ok := m.cache.Get(id.Key())
	if !ok {
		return nil, nil
	}
	return bytes.Clone(raw), nil
}

// Save 按策略计算的时长写入。
func (m *Memory) Save(_ context.Context, id xapi.Identity, raw []byte) error {
	if m.closed.Load() {
		return ErrClosed
	}
	ttl := m.policy.For(raw)
	if ttl <= 0 {
		return nil
	}
	m.cache.SetWithTTL(id.Key(), bytes.Clone(raw), int64(len(raw)), ttl)
	m.cache.Wait()
	return nil
}

// Delete 删除条目。
func (m *Memory) Delete(id xapi.Identity) {
	if m.closed.Load() {
		return
	}
	m.cache.Del(id.Key())
}

// Stats 返回命中统计。
func (m *Memory) Stats() Stats {
	metrics := m.cache.Metrics
	if metrics == nil {
		return Stats{}
	}
	return Stats{Hits: metrics.Hits(), Misses: metrics.Misses(), Ratio: metrics.Ratio()}
}

// Close 关闭缓存并停止后台 goroutine，可重复调用。
func (m *Memory) Close() error {
	if m.closed.CompareAndSwap(false, true) {
		m.cache.Close()
	}
	return nil
}

var _ xapi.CacheStore = (*Memory)(nil)
