package xredis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Idempotency 基于 SETNX 的请求去重。
// key 由调用方决定（我们用 X-Request-Id），TTL 到期后同 key 允许重放。
// rdb 为 nil 时视为关闭：单机开发/测试不依赖 redis。
type Idempotency struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotency(rdb *redis.Client, ttl time.Duration) *Idempotency {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Idempotency{rdb: rdb, ttl: ttl}
}

// FirstSeen 第一次见到该 key 返回 true；重复请求返回 false。
// redis 出错按放行处理：去重是防护，不能变成单点。
func (i *Idempotency) FirstSeen(ctx context.Context, key string) bool {
	if i == nil || i.rdb == nil || key == "" {
		return true
	}
	ok, err := i.rdb.SetNX(ctx, "idem:"+key, 1, i.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}
