package consent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/privacykit/governance/internal/logger"
)

const redisKeyPrefix = "consent:"

// RedisStore persists consent records in Redis as JSON values keyed
// consent:<userID>:<purpose>.
type RedisStore struct {
	client *redis.Client
	logger *logger.Logger
}

// RedisConfig contains Redis adapter configuration.
type RedisConfig struct {
	RedisURL     string `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConns     int    `yaml:"max_conns" mapstructure:"max_conns"`
	MinIdleConns int    `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(config *RedisConfig, log *logger.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if config.MaxConns > 0 {
		opts.PoolSize = config.MaxConns
	}
	if config.MinIdleConns > 0 {
		opts.MinIdleConns = config.MinIdleConns
	}

	if log == nil {
		log = logger.Nop()
	}
	store := &RedisStore{
		client: redis.NewClient(opts),
		logger: log.WithComponent("consent-redis"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := store.client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store.logger.Info("consent store initialized",
		zap.String("redis_url", maskRedisURL(config.RedisURL)))
	return store, nil
}

// Save writes the record as JSON, superseding any previous value for the key.
func (s *RedisStore) Save(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal consent record: %w", err)
	}
	return s.client.Set(ctx, redisKey(record.UserID, record.Purpose), data, 0).Err()
}

// Get returns the stored record, or (nil, nil) when absent.
func (s *RedisStore) Get(ctx context.Context, userID, purpose string) (*Record, error) {
	data, err := s.client.Get(ctx, redisKey(userID, purpose)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal consent record: %w", err)
	}
	return &record, nil
}

// GetAll scans for every record belonging to a user.
func (s *RedisStore) GetAll(ctx context.Context, userID string) ([]*Record, error) {
	pattern := redisKey(userID, "*")
	records := make([]*Record, 0)

	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var record Record
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			s.logger.Warn("skipping corrupted consent record",
				zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		records = append(records, &record)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a record; deleting a missing record is not an error.
func (s *RedisStore) Delete(ctx context.Context, userID, purpose string) error {
	return s.client.Del(ctx, redisKey(userID, purpose)).Err()
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(userID, purpose string) string {
	return redisKeyPrefix + storeKey(userID, purpose)
}

// maskRedisURL masks credentials in a Redis URL for logging
func maskRedisURL(url string) string {
	if !strings.Contains(url, "@") {
		return url
	}
	parts := strings.SplitN(url, "@", 2)
	userPart := parts[0]
	if idx := strings.LastIndex(userPart, ":"); idx > strings.Index(userPart, "//") {
		userPart = userPart[:idx+1] + "***"
	}
	return userPart + "@" + parts[1]
}
