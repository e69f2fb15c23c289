package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by several kickoff processes through Redis.
// A held key expires after ttl so a crashed holder cannot wedge a process.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
	logger *zap.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		prefix: "kickoff:lock:",
		logger: logger,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := l.prefix + key
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	return func() {
		// Release on a fresh context: the caller's may already be cancelled.
		rctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		n, err := releaseScript.Run(rctx, l.client, []string{k}, token).Int()
		if err != nil {
			l.logger.Warn("release lock failed", zap.String("key", key), zap.Error(err))
			return
		}
		if n == 0 {
			l.logger.Warn("lock expired before release", zap.String("key", key), zap.Duration("ttl", l.ttl))
		}
	}, nil
}
