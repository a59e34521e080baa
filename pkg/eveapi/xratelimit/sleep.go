package xratelimit

import (
	"context"
	"time"
)

// sleep 等待 d 或 ctx 结束；ctx 先结束时调用 onCancel（可为 nil）并返回 ctx 的错误。
func sleep(ctx context.Context, d time.Duration, onCancel func()) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		return ctx.Err()
	}
}
