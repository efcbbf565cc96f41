package database

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/levoseto/zodiac-app/internal/config"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client
var Ctx = context.Background()

// InitRedis connects the optional release cache. The API works without it;
// lookups fall straight through to Postgres when Redis is absent.
func InitRedis() {
	addr := config.AppConfig.RedisURL
	if addr == "" {
		log.Println("REDIS_URL not set, release caching disabled")
		return
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL %q: %v. Caching disabled.", addr, err)
		return
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(Ctx).Result(); err != nil {
		log.Printf("Warning: failed to connect to Redis: %v. Caching disabled.", err)
		return
	}

	Redis = client
	log.Println("Connected to Redis successfully")
}

// CacheSet stores a JSON-encoded value. No-op without Redis.
func CacheSet(key string, value interface{}, expiration time.Duration) error {
	if Redis == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return Redis.Set(Ctx, key, data, expiration).Err()
}

// CacheGet loads a JSON-encoded value into dest. Returns redis.Nil on miss
// and redis.Nil when Redis is not configured, so callers treat both as a miss.
func CacheGet(key string, dest interface{}) error {
	if Redis == nil {
		return redis.Nil
	}
	val, err := Redis.Get(Ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// CacheInvalidate removes the given keys. No-op without Redis.
func CacheInvalidate(keys ...string) error {
	if Redis == nil || len(keys) == 0 {
		return nil
	}
	return Redis.Del(Ctx, keys...).Err()
}
