package cache

import (
	"fmt"

	notificationapp "github.com/bizconsult/crm/internal/application/notification"
	"github.com/bizconsult/crm/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DedupeStoreFactory creates dedupe stores based on configuration
type DedupeStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DedupeStoreFactoryOption is a functional option for configuring the factory
type DedupeStoreFactoryOption func(*DedupeStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) DedupeStoreFactoryOption {
	return func(f *DedupeStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) DedupeStoreFactoryOption {
	return func(f *DedupeStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDedupeStoreFactory creates a new factory
func NewDedupeStoreFactory(cfg config.RedisConfig, opts ...DedupeStoreFactoryOption) *DedupeStoreFactory {
	f := &DedupeStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore returns a Redis store sharing client when one is given, and an
// in-memory store otherwise. A nil client with Redis enabled in config is an
// error unless fallback is allowed.
func (f *DedupeStoreFactory) CreateStore(client *redis.Client) (notificationapp.DedupeStore, error) {
	if client != nil {
		f.logger.Info("using Redis dedupe store", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisDedupeStore(client, ""), nil
	}

	if f.redisConfig.Enabled && !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for notification dedupe but unavailable")
	}

	if f.redisConfig.Enabled {
		f.logger.Warn("Redis unavailable, falling back to in-memory dedupe store. " +
			"Duplicate notifications are possible across instances.")
	}
	return NewInMemoryDedupeStore(), nil
}
