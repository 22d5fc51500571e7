package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

type RedisClient struct {
	inner *redis.Client
}

const trendingPostsKey = "trending_post_ids"

var ctx = context.Background()

func GetRedisClient() *RedisClient {
	return &RedisClient{
		inner: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
			Password: os.Getenv("REDIS_PASSWD"),
			DB:       0, // use default DB
		})}
}

// GetTrendingPostIds returns the cached trending post ids, or nil on cache
// miss. Any redis failure is returned to the caller who decides whether to
// fall back to the database.
func (r *RedisClient) GetTrendingPostIds() ([]string, error) {
	res, err := r.inner.Get(ctx, trendingPostsKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(res), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetTrendingPostIds caches the trending post ids with the given TTL.
func (r *RedisClient) SetTrendingPostIds(ids []string, ttl time.Duration) error {
	payload, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.inner.Set(ctx, trendingPostsKey, payload, ttl).Err()
}
