package xratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// minRetryAfter redis_rate 未给出 RetryAfter 时的重试间隔。
const minRetryAfter = 10 * time.Millisecond

// Redis 基于 redis_rate 的分布式限流，客户端的生命周期由调用方管理。
type Redis struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	opts    *Options
}

// NewRedis 创建分布式限流器。
func NewRedis(client redis.UniversalClient, opts ...Option) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Redis{
		limiter: redis_rate.NewLimiter(client),
		limit:   toLimit(o.Rate, o.Burst),
		opts:    o,
	}, nil
}

// toLimit 把每秒速率换算为 redis_rate 的整数速率与周期。
// 小于 1 的速率以更长的周期表示，例如 0.5/s 即每 2 秒 1 次。
func toLimit(perSecond float64, burst int) redis_rate.Limit {
	if perSecond >= 1 {
		return redis_rate.Limit{Rate: int(math.Round(perSecond)), Burst: burst, Period: time.Second}
	}
	return redis_rate.Limit{Rate: 1, Burst: burst, Period: time.Duration(float64(time.Second) / perSecond)}
}

// Key 返回本次调用在 Redis 中的计数键。
func (r *Redis) Key(ctx context.Context) string {
	return r.opts.KeyPrefix + r.opts.bucketKey(ctx)
}

// RateLimit 请求配额，不足时按 RetryAfter 等待后重试。
func (r *Redis) RateLimit(ctx context.Context) error {
	key := r.Key(ctx)
	var waited time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := r.limiter.Allow(ctx, key, r.limit)
		if err != nil {
			return fmt.Errorf("xratelimit: redis allow: %w", err)
		}
		if res.Allowed > 0 {
			return nil
		}
		wait := max(res.RetryAfter, minRetryAfter)
		if r.opts.MaxWait > 0 && waited+wait > r.opts.MaxWait {
			return fmt.Errorf("%w: need to wait %s", ErrLimitExceeded, waited+wait)
		}
		if err := sleep(ctx, wait, nil); err != nil {
			return err
		}
		waited += wait
	}
}

// Reset 清除当前计数键的状态。
func (r *Redis) Reset(ctx context.Context) error {
	return r.limiter.Reset(ctx, r.Key(ctx))
}

var _ xapi.RateLimiter = (*Redis)(nil)
