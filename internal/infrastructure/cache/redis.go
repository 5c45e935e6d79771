package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/callpulse-hq/callpulse/pkg/config"
)

// NewRedisClient creates a Redis client and verifies connectivity
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// WebhookDeduper short-circuits duplicate provider callbacks with a SETNX
// marker per event. Purely an optimization to skip redundant transcript
// fetches; correctness against duplicates comes from the database
// compare-and-swap.
type WebhookDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWebhookDeduper creates a deduper with the given marker lifetime
func NewWebhookDeduper(client *redis.Client, ttl time.Duration) *WebhookDeduper {
	return &WebhookDeduper{client: client, ttl: ttl}
}

func (d *WebhookDeduper) key(event string) string {
	return "webhook:seen:" + event
}

// MarkProcessed returns false when the event was already marked. Redis
// errors report the event as fresh so a cache outage never drops callbacks.
func (d *WebhookDeduper) MarkProcessed(ctx context.Context, event string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(event), 1, d.ttl).Result()
	if err != nil {
		return true, err
	}
	return ok, nil
}

// Release drops the marker so a redelivery can retry a failed handling
func (d *WebhookDeduper) Release(ctx context.Context, event string) {
	d.client.Del(ctx, d.key(event))
}
