package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pawsit/pawsit/config"
	"github.com/pawsit/pawsit/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache caches public review listings per reviewee. Entries are
// invalidated when a pair publishes, so a fresh review shows up for both
// parties at once.
type RedisCache struct {
	client     *redis.Client
	reviewsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, reviewsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		reviewsTTL: reviewsTTL,
	}
}

func (c *RedisCache) GetReviews(ctx context.Context, revieweeID int64) ([]domain.Review, error) {
	data, err := c.client.Get(ctx, reviewsKey(revieweeID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var reviews []domain.Review
	if err := json.Unmarshal(data, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (c *RedisCache) SetReviews(ctx context.Context, revieweeID int64, reviews []domain.Review) error {
	payload, err := json.Marshal(reviews)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, reviewsKey(revieweeID), payload, c.reviewsTTL).Err()
}

func (c *RedisCache) InvalidateReviews(ctx context.Context, revieweeIDs ...int64) error {
	keys := make([]string, 0, len(revieweeIDs))
	for _, id := range revieweeIDs {
		keys = append(keys, reviewsKey(id))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func reviewsKey(revieweeID int64) string {
	return fmt.Sprintf("cache:reviews:%d", revieweeID)
}
