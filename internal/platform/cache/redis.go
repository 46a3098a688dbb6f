package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"herblog/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// PostListCache keeps the rendered post listing in Redis so the hot public
// feed does not hit Postgres on every request. A nil *PostListCache is valid
// and disables caching entirely.
type PostListCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func Connect() *PostListCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	fmt.Println("Successfully connected to Redis!")

	return &PostListCache{
		rdb: rdb,
		key: config.AppConfig.PostListCacheKey,
		ttl: config.AppConfig.PostListCacheTTL,
	}
}

func (c *PostListCache) Close() {
	if c != nil && c.rdb != nil {
		c.rdb.Close()
		fmt.Println("Redis connection closed.")
	}
}

// Get returns the cached listing payload, or ok=false on miss, error or when
// the cache is disabled.
func (c *PostListCache) Get(ctx context.Context) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	payload, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *PostListCache) Set(ctx context.Context, payload []byte) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key, payload, c.ttl).Err(); err != nil {
		log.Printf("WARN: failed to cache post listing: %v", err)
	}
}

// Invalidate drops the cached listing after any post mutation.
func (c *PostListCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		log.Printf("WARN: failed to invalidate post listing cache: %v", err)
	}
}
