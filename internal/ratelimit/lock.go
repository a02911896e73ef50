package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the lease token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Lease is a held lock. Releasing an expired or stolen lease is a no-op.
type Lease struct {
	key    string
	token  string
	locker *Locker
}

func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.locker == nil {
		return nil
	}
	return l.locker.release.Run(ctx, l.locker.client, []string{l.key}, l.token).Err()
}

// Locker hands out SET NX leases.
type Locker struct {
	client  redis.Cmdable
	release *redis.Script
}

func NewLocker(client redis.Cmdable) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{client: client, release: redis.NewScript(releaseScript)}
}

var errLockNotConfigured = errors.New("lock client not configured")

// Acquire returns nil and no error when another holder owns key.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	switch {
	case l == nil || l.client == nil:
		return nil, errLockNotConfigured
	case key == "" || ttl <= 0:
		return nil, errors.New("lock key and ttl are required")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return nil, err
	}
	return &Lease{key: key, token: token, locker: l}, nil
}
