package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Unlock releases a held lock.
type Unlock func(ctx context.Context) error

// Locker hands out exclusive, expiring locks keyed by name. ok is false when
// another holder owns the key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock Unlock, ok bool, err error)
}

// releaseScript deletes the key only while it still carries our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	redis  *redis.Client
	prefix string
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{redis: client, prefix: "gpstracker:lock:"}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, bool, error) {
	name := l.prefix + key
	token := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, name, token, ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.redis, []string{name}, token).Err()
	}, true, nil
}

// NopLocker always grants the lock. Used when no redis is configured and a
// single process runs the jobs.
type NopLocker struct{}

func (NopLocker) TryLock(context.Context, string, time.Duration) (Unlock, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}

// New returns a redis backed locker, or NopLocker when client is nil.
func New(client *redis.Client) Locker {
	if client == nil {
		return NopLocker{}
	}
	return NewRedisLocker(client)
}
