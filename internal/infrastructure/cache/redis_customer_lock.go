package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/salesledger/backend/internal/domain/invoicing"
	"github.com/salesledger/backend/internal/domain/shared"
)

const (
	lockKeyPrefix = "invoicing:customer-lock:"

	// How long a held lock survives a crashed holder. Kept well above
	// any single write path so a live holder never loses the lock.
	lockTTL = 30 * time.Second

	// Poll interval while waiting for a contended lock
	lockRetryInterval = 50 * time.Millisecond
)

// releaseScript deletes the lock only when the stored token matches,
// so a holder cannot release a lock it no longer owns
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCustomerLocker implements CustomerLocker using Redis SET NX.
// This is suitable for distributed deployments where multiple instances
// write invoices for the same customer.
type RedisCustomerLocker struct {
	client *redis.Client
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisCustomerLocker creates a new Redis-based customer locker
func NewRedisCustomerLocker(cfg RedisConfig) (*RedisCustomerLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCustomerLocker{client: client}, nil
}

// NewRedisCustomerLockerWithClient creates a locker with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisCustomerLockerWithClient(client *redis.Client) *RedisCustomerLocker {
	return &RedisCustomerLocker{client: client}
}

// Acquire takes the customer's exclusive lock, polling until the lock is
// free or the timeout elapses. The returned release function is safe to
// call exactly once.
func (l *RedisCustomerLocker) Acquire(ctx context.Context, customerID uuid.UUID, timeout time.Duration) (func(), error) {
	key := lockKeyPrefix + customerID.String()
	token := uuid.NewString()
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire customer lock: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		if time.Now().After(deadline) {
			return nil, shared.ErrLockTimeout
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// release deletes the lock key if this holder still owns it. The TTL
// covers the case where the release itself fails.
func (l *RedisCustomerLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}

// Close closes the Redis client
func (l *RedisCustomerLocker) Close() error {
	return l.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (l *RedisCustomerLocker) GetClient() *redis.Client {
	return l.client
}

// Ensure RedisCustomerLocker implements CustomerLocker
var _ invoicing.CustomerLocker = (*RedisCustomerLocker)(nil)
