package xcache

import (
	"context"
	"log/slog"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
	"github.com/omeyang/xeveapi/pkg/observability/xlog"
)

// Tiered 两级缓存：先查本地 L1，未命中再查 L2，L2 命中时回填 L1。
//
// 写入先写 L2 再写 L1，L2 失败时返回错误且不写 L1。
// L1 的读写错误只记录日志，不影响结果。
// L1 按自身策略计算时长，回填时会重新计算完整窗口，建议 L1 配置较短的 WithTTL。
type Tiered struct {
	l1     xapi.CacheStore
	l2     xapi.CacheStore
	logger *slog.Logger
}

// NewTiered 组合两级缓存，logger 为 nil 时使用 xlog 全局 Logger。
func NewTiered(l1, l2 xapi.CacheStore, logger *slog.Logger) (*Tiered, error) {
	if l1 == nil || l2 == nil {
		return nil, ErrNilClient
	}
	if logger == nil {
		logger = xlog.DefaultSlog()
	}
	return &Tiered{l1: l1, l2: l2, logger: logger}, nil
}

// Load 依次查询 L1、L2。
func (t *Tiered) Load(ctx context.Context, id xapi.Identity) ([]byte, error) {
	raw, err := t.l1.Load(ctx, id)
	if err != nil {
		t.logger.WarnContext(ctx, "xcache: l1 load failed", xlog.Component("xcache"), xlog.Err(err))
	} else if len(raw) > 0 {
		return raw, nil
	}

	raw, err = t.l2.Load(ctx, id)
	if err != nil || len(raw) == 0 {
		return raw, err
	}
	if err := t.l1.Save(ctx, id, raw); err != nil {
		t.logger.WarnContext(ctx, "xcache: l1 backfill failed", xlog.Component("xcache"), xlog.Err(err))
	}
	return raw, nil
}

// Save 写入 L2 后写入 L1。
func (t *Tiered) Save(ctx context.Context, id xapi.Identity, raw []byte) error {
	if err := t.l2.Save(ctx, id, raw); err != nil {
		return err
	}
	if err := t.l1.Save(ctx, id, raw); err != nil {
		t.logger.WarnContext(ctx, "xcache: l1 save failed", xlog.Component("xcache"), xlog.Err(err))
	}
	return nil
}

var _ xapi.CacheStore = (*Tiered)(nil)
