// Package locker provides short lived named locks used to keep two workers from
// invoicing the same account at the same time.
package locker

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/logger"
	"go.uber.org/fx"
)

const defaultTTL = 10 * time.Minute

// Lease is a held lock
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out non-blocking leases. TryLock returns (nil, false, nil) when the key is
// already held elsewhere.
type Locker interface {
	TryLock(ctx context.Context, key string) (Lease, bool, error)
}

// Module provides the Locker selected by configuration
func Module() fx.Option {
	return fx.Provide(NewLocker)
}

// NewLocker returns a redis backed locker when an address is configured, and an
// in-process one otherwise.
func NewLocker(cfg *config.Configuration, log *logger.Logger) (Locker, error) {
	ttl := cfg.Redis.LockTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	if cfg.Redis.Address == "" {
		log.Infow("redis not configured, using in-process generation locks")
		return NewLocalLocker(), nil
	}
	return NewRedisLocker(cfg.Redis, ttl, log)
}

// LocalLocker keeps locks in process memory. Leases never expire.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker creates an empty in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) TryLock(_ context.Context, key string) (Lease, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, false, nil
	}
	l.held[key] = struct{}{}
	return &localLease{locker: l, key: key}, true, nil
}

// IsHeld reports whether key is currently locked
func (l *LocalLocker) IsHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

type localLease struct {
	locker *LocalLocker
	key    string
	once   sync.Once
}

func (l *localLease) Release(_ context.Context) error {
	l.once.Do(func() {
		l.locker.mu.Lock()
		defer l.locker.mu.Unlock()
		delete(l.locker.held, l.key)
	})
	return nil
}
