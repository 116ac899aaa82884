package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("doctor schedule lock not acquired")
)

// Locker is used by the booking service to serialize writers on one
// doctor's day across api-server replicas.
type Locker interface {
	WithDoctorDayLock(ctx context.Context, doctorID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error
}

const (
	minRetryDelay = 5 * time.Millisecond
	maxRetryDelay = 100 * time.Millisecond
)

type redisDayLocker struct {
	client *redis.Client
	ttl    time.Duration
	// wait bounds how long a caller queues behind the current holder.
	wait time.Duration
}

// NewRedisDayLocker creates a locker that uses a per doctor/day Redis key.
// Contending callers retry until the key frees up, for at most one ttl.
func NewRedisDayLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisDayLocker{
		client: client,
		ttl:    ttl,
		wait:   ttl,
	}
}

func LockKey(doctorID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("lock:doctor:%s:%s", doctorID.String(), day.Format("2006-01-02"))
}

func (l *redisDayLocker) WithDoctorDayLock(ctx context.Context, doctorID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error {
	key := LockKey(doctorID, day)
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}

	defer func() {
		// release on a fresh context so a canceled request still frees the key
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = l.release(releaseCtx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

// acquire polls SETNX with capped exponential backoff. It gives up with
// ErrLockNotAcquired once the wait budget or ctx runs out.
func (l *redisDayLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.wait)
	delay := minRetryDelay

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrLockNotAcquired, ctx.Err())
			}
			return fmt.Errorf("acquire doctor lock: %w", err)
		}
		if ok {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrLockNotAcquired
		}

		timer := time.NewTimer(min(delay, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrLockNotAcquired, ctx.Err())
		case <-timer.C:
		}

		delay = min(delay*2, maxRetryDelay)
	}
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisDayLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release doctor lock: %w", err)
	}
	return nil
}

// NoopLocker runs fn directly. Used when Redis is disabled; the Postgres
// advisory lock still serializes writers.
type NoopLocker struct{}

func (NoopLocker) WithDoctorDayLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
