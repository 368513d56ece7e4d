// Package lease provides a Redis-backed exclusive lease. The registrar holds
// it for as long as it issues numbers, so a second issuer over the same
// tables refuses to start instead of handing out duplicates.
package lease

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"langschool/pkg/logger"
)

// ErrHeld is returned by Acquire when another owner holds the lease.
var ErrHeld = errors.New("lease: held by another owner")

// ErrLost is returned when the lease expired or was taken over.
var ErrLost = errors.New("lease: lost")

const (
	// DefaultKey guards student and employee numbering.
	DefaultKey = "lock:langschool:numbering"

	// DefaultTTL is how long a lease survives without renewal.
	DefaultTTL = 30 * time.Second
)

// Only the owner token may extend or delete the key.
const (
	renewScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`

	releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`
)

// Client is the part of redis.Cmdable the lease needs.
type Client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Lease is one owner's claim on a key.
type Lease struct {
	client Client
	key    string
	token  string
	ttl    time.Duration
	log    *logger.Logger

	mu   sync.Mutex
	held bool
}

// Option configures a Lease.
type Option func(*Lease)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(l *Lease) { l.key = key }
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(l *Lease) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithLogger sets the lease logger.
func WithLogger(log *logger.Logger) Option {
	return func(l *Lease) {
		if log != nil {
			l.log = log
		}
	}
}

// New creates a lease with a fresh owner token. Nothing is sent to Redis
// until Acquire.
func New(client Client, opts ...Option) *Lease {
	l := &Lease{
		client: client,
		key:    DefaultKey,
		token:  uuid.NewString(),
		ttl:    DefaultTTL,
		log:    logger.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.WithComponent("lease")
	return l
}

// Key returns the Redis key of the lease.
func (l *Lease) Key() string { return l.key }

// Token returns the owner token stored under the key.
func (l *Lease) Token() string { return l.token }

// Held reports whether the lease is currently believed held.
func (l *Lease) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Acquire claims the lease or returns ErrHeld.
func (l *Lease) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return ErrHeld
	}

	l.mu.Lock()
	l.held = true
	l.mu.Unlock()

	l.log.WithContext(ctx).Infow("lease acquired", "key", l.key, "ttl", l.ttl)
	return nil
}

// Renew extends the lease by its TTL. ErrLost means another owner has it now.
func (l *Lease) Renew(ctx context.Context) error {
	n, err := l.client.Eval(ctx, renewScript, []string{l.key}, l.token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("renew %s: %w", l.key, err)
	}
	if n == 0 {
		l.mu.Lock()
		l.held = false
		l.mu.Unlock()
		return ErrLost
	}
	return nil
}

// Release gives the lease up if it is still ours.
func (l *Lease) Release(ctx context.Context) error {
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()

	if _, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Int64(); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	l.log.WithContext(ctx).Infow("lease released", "key", l.key)
	return nil
}

// Keep renews the lease every TTL/3 until ctx is done or the lease is lost.
// A transient renewal error is retried on the next tick; the lease is only
// given up once Redis says another owner holds it.
func (l *Lease) Keep(ctx context.Context) error {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := l.Renew(ctx)
			switch {
			case err == nil:
			case errors.Is(err, ErrLost):
				l.log.WithContext(ctx).Errorw("lease lost", "key", l.key)
				return err
			default:
				l.log.WithContext(ctx).Warnw("lease renewal failed", "key", l.key, "error", err)
			}
		}
	}
}

// Hold runs Keep in the background and returns a context derived from ctx
// that is cancelled with cause ErrLost once the lease is lost. Work that must
// stop with the lease runs under the returned context. stop ends the renewal
// and waits for it; it does not release the lease.
func (l *Lease) Hold(ctx context.Context) (held context.Context, stop func()) {
	held, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := l.Keep(held); errors.Is(err, ErrLost) {
			cancel(ErrLost)
		}
	}()
	return held, func() {
		cancel(context.Canceled)
		<-done
	}
}

// NewClient connects to Redis at url (redis://[:password@]host:port/db) and
// pings it.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
