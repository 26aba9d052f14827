package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore は複数インスタンス間で共有される固定ウィンドウカウンタ。
// INCRで最初のカウントになったときにEXPIREでウィンドウを設定する。
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore は新しいRedisStoreを生成する。
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "ratelimit:",
	}
}

// Incr はStoreインターフェースを実装する。
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	redisKey := s.prefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit: incr %s: %w", key, err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("ratelimit: expire %s: %w", key, err)
		}
		return int(count), window, nil
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit: ttl %s: %w", key, err)
	}
	if ttl < 0 {
		// EXPIRE設定前にプロセスが落ちた等でTTLが失われたキーを救済する
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("ratelimit: expire %s: %w", key, err)
		}
		ttl = window
	}

	return int(count), ttl, nil
}

var _ Store = (*RedisStore)(nil)
