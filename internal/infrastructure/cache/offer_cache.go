package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
)

const (
	activeOffersKey = "offers:active"
	activeOffersTTL = 5 * time.Minute
)

// RedisOfferCache caches the serialized active-offer set. Order pricing reads
// it on every submission; offer writes invalidate it.
type RedisOfferCache struct {
	client *redis.Client
}

// NewRedisOfferCache creates an offer cache backed by the given Redis server
func NewRedisOfferCache(addr, password string, db int) *RedisOfferCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisOfferCache{client: client}
}

// Client exposes the underlying connection so other components can share it
func (c *RedisOfferCache) Client() *redis.Client {
	return c.client
}

func (c *RedisOfferCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisOfferCache) Close() error {
	return c.client.Close()
}

// GetActive returns the cached active offers, or (nil, nil) on a miss
func (c *RedisOfferCache) GetActive(ctx context.Context) ([]entity.Offer, error) {
	val, err := c.client.Get(ctx, activeOffersKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var offers []entity.Offer
	if err := json.Unmarshal([]byte(val), &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// SetActive stores the active offer set with a short TTL
func (c *RedisOfferCache) SetActive(ctx context.Context, offers []entity.Offer) error {
	payload, err := json.Marshal(offers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, activeOffersKey, payload, activeOffersTTL).Err()
}

// Invalidate drops the cached set so the next read hits the database
func (c *RedisOfferCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, activeOffersKey).Err()
}
