package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKey = "coinvert:catalog:refresh_lock"

// releaseScript deletes the lock only when the caller still owns it, so
// an expired lock taken over by another instance is left alone.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// RefreshLock serializes catalog refreshes across a fleet. The value is
// unique per process, so only the acquiring instance can release it.
type RefreshLock struct {
	client *redis.Client
	value  string
	ttl    time.Duration
}

func NewRefreshLock(client *redis.Client, ttl time.Duration) *RefreshLock {
	return &RefreshLock{client: client, value: uuid.NewString(), ttl: ttl}
}

// TryAcquire takes the lock if it is free. ok=false means another
// instance is refreshing right now; there is no waiting, the caller
// skips its turn and reuses that instance's result.
func (l *RefreshLock) TryAcquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, lockKey, l.value, l.ttl).Result()
}

// Release frees the lock if this instance still holds it.
func (l *RefreshLock) Release(ctx context.Context) error {
	return l.client.Eval(ctx, releaseScript, []string{lockKey}, l.value).Err()
}
