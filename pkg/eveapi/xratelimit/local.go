package xratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// Local 进程内令牌桶限流。
type Local struct {
	opts    *Options
	buckets sync.Map // map[string]*rate.Limiter
}

// NewLocal 创建进程内限流器。
func NewLocal(opts ...Option) (*Local, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Local{opts: o}, nil
}

func (l *Local) bucket(key string) *rate.Limiter {
	if v, ok := l.buckets.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.buckets.LoadOrStore(key, rate.NewLimiter(rate.Limit(l.opts.Rate), l.opts.Burst))
	return v.(*rate.Limiter)
}

// RateLimit 等待令牌。
func (l *Local) RateLimit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	limiter := l.bucket(l.opts.bucketKey(ctx))
	if l.opts.MaxWait <= 0 {
		return limiter.Wait(ctx)
	}

	r := limiter.Reserve()
	if !r.OK() {
		return ErrLimitExceeded
	}
	delay := r.Delay()
	if delay > l.opts.MaxWait {
		r.Cancel()
		return fmt.Errorf("%w: need to wait %s", ErrLimitExceeded, delay)
	}
	if delay == 0 {
		return nil
	}
	return sleep(ctx, delay, r.Cancel)
}

var _ xapi.RateLimiter = (*Local)(nil)
