package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired holder cannot free a lock that has since been re-acquired.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions tunes the retry loop of a Redis locker.
type RedisOptions struct {
	// RetryInterval is the initial wait between attempts. Defaults to 25ms.
	RetryInterval time.Duration
	// MaxRetryInterval caps the exponential backoff. Defaults to 500ms.
	MaxRetryInterval time.Duration
}

// Redis is a Locker shared by every process talking to the same Redis.
type Redis struct {
	client redis.UniversalClient
	opts   RedisOptions
}

// NewRedis returns a Redis-backed locker.
func NewRedis(client redis.UniversalClient, opts RedisOptions) *Redis {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 25 * time.Millisecond
	}
	if opts.MaxRetryInterval < opts.RetryInterval {
		opts.MaxRetryInterval = 500 * time.Millisecond
	}
	return &Redis{client: client, opts: opts}
}

// Acquire implements Locker with SET NX PX and a random token.
func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	wait := r.opts.RetryInterval
	for {
		ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return r.release(key, token), nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		}
		wait *= 2
		if wait > r.opts.MaxRetryInterval {
			wait = r.opts.MaxRetryInterval
		}
	}
}

func (r *Redis) release(key, token string) Release {
	var (
		once sync.Once
		err  error
	)
	return func(ctx context.Context) error {
		once.Do(func() {
			if runErr := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); runErr != nil {
				err = fmt.Errorf("lock: release %s: %w", key, runErr)
			}
		})
		return err
	}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("lock: token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
