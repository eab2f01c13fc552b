package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kadig/internal/marketdata"
)

// Redis is a PriceCache shared between service instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the Redis server at url (redis://host:port/db) and
// checks it is reachable.
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, provider, key string) (marketdata.Quote, bool, error) {
	raw, err := r.client.Get(ctx, cacheKey(provider, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return marketdata.Quote{}, false, nil
	}
	if err != nil {
		return marketdata.Quote{}, false, err
	}
	var q marketdata.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return marketdata.Quote{}, false, fmt.Errorf("decode cached quote: %w", err)
	}
	return q, true, nil
}

func (r *Redis) Set(ctx context.Context, provider, key string, q marketdata.Quote) error {
	if r.ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cacheKey(provider, key), raw, r.ttl).Err()
}

func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
