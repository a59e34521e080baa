package xcalllog

import (
	"context"
	"sync"
	"time"

	"github.com/omeyang/xeveapi/pkg/context/xctx"
)

// timer 按调用实例记录 Start 时间与 Stop 测得的耗时。
// 键取 xctx.InvocationID，缺失时退回 call_id；两者都没有的调用共用空键。
type timer struct {
	mu      sync.Mutex
	now     func() time.Time
	starts  map[string]time.Time
	elapsed map[string]time.Duration
}

func newTimer(now func() time.Time) *timer {
	if now == nil {
		now = time.Now
	}
	return &timer{
		now:     now,
		starts:  make(map[string]time.Time),
		elapsed: make(map[string]time.Duration),
	}
}

func timingKey(ctx context.Context) string {
	if id := xctx.InvocationID(ctx); id != "" {
		return id
	}
	return xctx.CallID(ctx)
}

func (t *timer) start(ctx context.Context) {
	id := timingKey(ctx)
	t.mu.Lock()
	t.starts[id] = t.now()
	t.mu.Unlock()
}

// stop 返回自 start 起的耗时；没有匹配的 start 时 ok 为 false。
func (t *timer) stop(ctx context.Context) (time.Duration, bool) {
	id := timingKey(ctx)
	t.mu.Lock()
	defer t.mu.Unlock()
	begin, ok := t.starts[id]
	if !ok {
		return 0, false
	}
	delete(t.starts, id)
	d := t.now().Sub(begin)
	t.elapsed[id] = d
	return d, true
}

// take 取出并清除 stop 记录的耗时。
func (t *timer) take(ctx context.Context) (time.Duration, bool) {
	id := timingKey(ctx)
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.elapsed[id]
	delete(t.elapsed, id)
	return d, ok
}
