package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"aldoge_server/config"
	"aldoge_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// CacheService provides Redis caching with connection pooling. It is used
// only for read-side caches (the catalog); ledger state is never cached.
type CacheService struct {
	logger *gecho.Logger
	config *structs.Config
	client *redis.Client
}

func NewCacheService(logger *gecho.Logger, cfg *structs.Config) *CacheService {
	return &CacheService{
		logger: logger,
		config: cfg,
		client: getRedisClient(),
	}
}

// getRedisClient returns a singleton Redis client with proper connection pooling
func getRedisClient() *redis.Client {
	redisOnce.Do(func() {
		cfg := config.GetConfig()
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Address,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,

			PoolSize:     cfg.Cache.PoolSize,
			MinIdleConns: cfg.Cache.MinIdleConns,

			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
		})
	})
	return redisClient
}

// Close closes the Redis connection pool
func (cs *CacheService) Close() error {
	if redisClient != nil {
		return redisClient.Close()
	}
	return nil
}

// Ping checks connectivity to Redis
func (cs *CacheService) Ping(ctx context.Context) error {
	return cs.client.Ping(ctx).Err()
}

// GetJSON fetches a key and unmarshals it into dest. Returns false on a miss.
func (cs *CacheService) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := cs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// Corrupt entry: drop it and treat as a miss
		cs.logger.Warn("Dropping corrupt cache entry", gecho.Field("key", key), gecho.Field("error", err))
		cs.client.Del(ctx, key)
		return false, nil
	}

	return true, nil
}

// SetJSON marshals val and stores it under key with the given TTL.
func (cs *CacheService) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return cs.client.Set(ctx, key, raw, ttl).Err()
}

// Delete removes keys from the cache.
func (cs *CacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return cs.client.Del(ctx, keys...).Err()
}
