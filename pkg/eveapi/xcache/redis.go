package xcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xeveapi/pkg/eveapi/xapi"
)

// Redis 基于 go-redis 的共享缓存。
//
// 键为 KeyPrefix + Identity.Key()，值为原始响应，过期由 Redis 负责。
// 客户端的生命周期由调用方管理。
type Redis struct {
	client redis.UniversalClient
	prefix string
	policy Policy
}

// NewRedis 创建 Redis 缓存。
func NewRedis(client redis.UniversalClient, opts ...Option) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o := applyOptions(opts)
	return &Redis{client: client, prefix: o.KeyPrefix, policy: o.Policy}, nil
}

// Key 返回 id 对应的 Redis 键。
func (r *Redis) Key(id xapi.Identity) string {
	return r.prefix + id.Key()
}

// Load 读取缓存，未命中返回 (nil, nil)。
func (r *Redis) Load(ctx context.Context, id xapi.Identity) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xcache: redis get: %w", err)
	}
	return raw, nil
}

// Save 按策略计算的时长写入。
func (r *Redis) Save(ctx context.Context, id xapi.Identity, raw []byte) error {
	ttl := r.policy.For(raw)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.Key(id), raw, ttl).Err(); err != nil {
		return fmt.Errorf("xcache: redis set: %w", err)
	}
	return nil
}

// Client 返回底层客户端。
func (r *Redis) Client() redis.UniversalClient {
	return r.client
}

var _ xapi.CacheStore = (*Redis)(nil)
