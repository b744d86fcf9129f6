package locker

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/invoicer/internal/config"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "invoicer:lock:"

// releaseScript deletes the key only while it still holds our token, so a lease that
// outlived its TTL cannot drop somebody else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker takes locks with SET NX PX so they expire if the holder dies
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedisLocker connects to redis, retrying the first ping with backoff
func NewRedisLocker(cfg config.RedisConfig, ttl time.Duration, log *logger.Logger) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ping := func() error {
		return client.Ping(context.Background()).Err()
	}
	if err := backoff.Retry(ping, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)); err != nil {
		_ = client.Close()
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to redis").
			WithReportableDetails(map[string]any{"address": cfg.Address}).
			Mark(ierr.ErrSystem)
	}

	log.Infow("connected to redis for generation locks", "address", cfg.Address, "ttl", ttl)
	return NewRedisLockerFromClient(client, ttl, log), nil
}

// NewRedisLockerFromClient wraps an existing client
func NewRedisLockerFromClient(client redis.UniversalClient, ttl time.Duration, log *logger.Logger) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, logger: log}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string) (Lease, bool, error) {
	fullKey := keyPrefix + key
	token := types.GenerateUUID()

	ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, ierr.WithError(err).
			WithHint("Failed to take generation lock").
			WithReportableDetails(map[string]any{"key": key}).
			Mark(ierr.ErrSystem)
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{client: l.client, key: fullKey, token: token}, true, nil
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (l *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to release generation lock").
			WithReportableDetails(map[string]any{"key": l.key}).
			Mark(ierr.ErrSystem)
	}
	return nil
}
