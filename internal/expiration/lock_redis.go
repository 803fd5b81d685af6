package expiration

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanLockKey = "buildsync:expiration-scan:lock"

// RedisLock implements Locker with SET NX EX, so concurrent service
// instances run at most one scan per cycle. The TTL bounds how long a
// crashed holder can block the next cycle.
type RedisLock struct {
	client *redis.Client
	token  string
}

func NewRedisLock(client *redis.Client, token string) *RedisLock {
	return &RedisLock{client: client, token: token}
}

func (l *RedisLock) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, scanLockKey, l.token, ttl).Result()
}

// Release deletes the lock only if this instance still holds it.
func (l *RedisLock) Release(ctx context.Context) error {
	const script = `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`
	return l.client.Eval(ctx, script, []string{scanLockKey}, l.token).Err()
}
