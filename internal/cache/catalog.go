package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Leganyst/vetclinic-booking/internal/model"
)

const (
	defaultCatalogTTL = 5 * time.Minute
	catalogKey        = "vetclinic:catalog:active"
)

// CatalogCache хранит услуги каталога в Redis в виде JSON с TTL.
type CatalogCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if client == nil {
		panic("cache: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &CatalogCache{redis: client, ttl: ttl}
}

func (c *CatalogCache) GetService(ctx context.Context, id uuid.UUID) (*model.Service, bool, error) {
	var svc model.Service
	ok, err := c.get(ctx, serviceKey(id), &svc)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &svc, true, nil
}

func (c *CatalogCache) SetService(ctx context.Context, svc *model.Service) error {
	return c.set(ctx, serviceKey(svc.ID), svc)
}

func (c *CatalogCache) GetCatalog(ctx context.Context) ([]model.Service, bool, error) {
	var services []model.Service
	ok, err := c.get(ctx, catalogKey, &services)
	if err != nil || !ok {
		return nil, ok, err
	}
	return services, true, nil
}

func (c *CatalogCache) SetCatalog(ctx context.Context, services []model.Service) error {
	return c.set(ctx, catalogKey, services)
}

func (c *CatalogCache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("cache: failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (c *CatalogCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: failed to encode %s: %w", key, err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: failed to store %s: %w", key, err)
	}
	return nil
}

func serviceKey(id uuid.UUID) string {
	return fmt.Sprintf("vetclinic:service:%s", id)
}
