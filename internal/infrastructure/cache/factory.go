package cache

import (
	"fmt"

	"github.com/salesledger/backend/internal/domain/invoicing"
	"github.com/salesledger/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// CustomerLockerFactory creates customer lockers based on configuration
type CustomerLockerFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// CustomerLockerFactoryOption is a functional option for configuring the factory
type CustomerLockerFactoryOption func(*CustomerLockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) CustomerLockerFactoryOption {
	return func(f *CustomerLockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory locker
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) CustomerLockerFactoryOption {
	return func(f *CustomerLockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewCustomerLockerFactory creates a new factory
func NewCustomerLockerFactory(cfg config.RedisConfig, opts ...CustomerLockerFactoryOption) *CustomerLockerFactory {
	f := &CustomerLockerFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLocker creates a Redis-based customer locker
func (f *CustomerLockerFactory) CreateRedisLocker() (invoicing.CustomerLocker, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	locker, err := NewRedisCustomerLocker(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis customer locker: %w", err)
	}

	return locker, nil
}

// CreateInMemoryLocker creates an in-memory customer locker.
// WARNING: in-memory locks do not span process instances, so a
// distributed deployment can exceed the per-customer invoice quota.
func (f *CustomerLockerFactory) CreateInMemoryLocker() invoicing.CustomerLocker {
	return NewInMemoryCustomerLocker()
}

// CreateLocker creates a customer locker based on whether Redis is enabled
// and reachable. When Redis is disabled or unavailable it falls back to the
// in-memory locker if the fallback is allowed.
func (f *CustomerLockerFactory) CreateLocker() (invoicing.CustomerLocker, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory customer locker")
		return f.CreateInMemoryLocker(), nil
	}

	locker, err := f.CreateRedisLocker()
	if err == nil {
		f.logger.Info("using Redis customer locker")
		return locker, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for customer locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory customer locker. "+
		"Quota enforcement is only safe with a single instance.",
		zap.Error(err),
	)
	return f.CreateInMemoryLocker(), nil
}
