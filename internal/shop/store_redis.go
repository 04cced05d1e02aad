package shop

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisSnapshots keeps the two records under the "products" and
// "cart" keys as JSON values, each overwritten in full on save.
type RedisSnapshots struct {
	client *redis.Client
}

func NewRedisSnapshots(client *redis.Client) *RedisSnapshots {
	return &RedisSnapshots{client: client}
}

func (s *RedisSnapshots) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSnapshots) LoadProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := s.load(ctx, productsKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RedisSnapshots) SaveProducts(ctx context.Context, products []Product) error {
	return s.save(ctx, productsKey, products)
}

func (s *RedisSnapshots) LoadCart(ctx context.Context) ([]CartItem, error) {
	var out []CartItem
	if err := s.load(ctx, cartKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RedisSnapshots) SaveCart(ctx context.Context, items []CartItem) error {
	return s.save(ctx, cartKey, items)
}

func (s *RedisSnapshots) load(ctx context.Context, key string, dst any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	// An unparsable record counts as absent, not fatal.
	_ = json.Unmarshal(data, dst)
	return nil
}

func (s *RedisSnapshots) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, 0).Err()
}
