package lock

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries our token,
// so a lock that expired and was re-acquired by someone else survives.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX) shared by all
// API replicas.  When Redis is unreachable it degrades to the fallback
// locker rather than failing the booking.
type RedisLocker struct {
	rdb      *redis.Client
	ttl      time.Duration
	prefix   string
	retry    time.Duration
	fallback Locker
}

// NewRedisLocker returns a RedisLocker.  ttl bounds how long a crashed
// holder can block others.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		rdb:      rdb,
		ttl:      ttl,
		prefix:   "lock",
		retry:    25 * time.Millisecond,
		fallback: NewLocalLocker(),
	}
}

// Lock polls until the key is set or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	full := l.prefix + ":" + key
	token := uuid.NewString()
	wait := l.retry
	for {
		ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Join(ErrNotAcquired, ctx.Err())
			}
			log.Printf("lock: redis unavailable for %s: %v; using local lock", full, err)
			return l.fallback.Lock(ctx, key)
		}
		if ok {
			return l.releaser(full, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-time.After(wait):
		}
		if wait < 200*time.Millisecond {
			wait *= 2
		}
	}
}

func (l *RedisLocker) releaser(key, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			log.Printf("lock: release %s failed: %v", key, err)
		}
	}
}
