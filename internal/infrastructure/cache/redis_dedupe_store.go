package cache

import (
	"context"
	"fmt"
	"time"

	notificationapp "github.com/bizconsult/crm/internal/application/notification"
	"github.com/bizconsult/crm/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// RedisDedupeStore implements DedupeStore using Redis.
// Reservations are shared by every server instance.
type RedisDedupeStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisDedupeStore creates a store with an existing Redis client
func NewRedisDedupeStore(client *redis.Client, keyPrefix string) *RedisDedupeStore {
	if keyPrefix == "" {
		keyPrefix = "crm:dedupe:"
	}
	return &RedisDedupeStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Reserve uses SET NX with TTL so check-and-mark is atomic
func (s *RedisDedupeStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve dedupe key: %w", err)
	}
	return ok, nil
}

// Release deletes the reservation
func (s *RedisDedupeStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release dedupe key: %w", err)
	}
	return nil
}

// Client returns the underlying Redis client
func (s *RedisDedupeStore) Client() *redis.Client {
	return s.client
}

var _ notificationapp.DedupeStore = (*RedisDedupeStore)(nil)
