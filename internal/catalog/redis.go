package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const productsKey = "catalog:products"

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = 15 * time.Minute
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) GetProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.get(ctx, productsKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r RedisCache) SetProducts(ctx context.Context, products []domain.Product) error {
	return r.set(ctx, productsKey, products)
}

func (r RedisCache) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.get(ctx, productKey(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r RedisCache) SetProduct(ctx context.Context, product *domain.Product) error {
	return r.set(ctx, productKey(product.ID), product)
}

func (r RedisCache) get(ctx context.Context, key string, dst any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r RedisCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func productKey(id int64) string {
	return fmt.Sprintf("catalog:product:%d", id)
}
