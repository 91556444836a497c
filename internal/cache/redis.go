package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisCache caches tenants by slug for the webhook hot path.
type RedisCache struct {
	client    redis.UniversalClient
	tenantTTL time.Duration
}

func NewRedisCache(config utils.RedisConfig) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	}), config.TenantTTL)
}

func NewRedisCacheWithClient(client redis.UniversalClient, tenantTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, tenantTTL: tenantTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) GetTenant(ctx context.Context, slug string) (*entity.Tenant, error) {
	data, err := c.client.Get(ctx, tenantKey(slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var tenant entity.Tenant
	if err := json.Unmarshal(data, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (c *RedisCache) SetTenant(ctx context.Context, tenant *entity.Tenant) error {
	payload, err := json.Marshal(tenant)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tenantKey(tenant.Slug), payload, c.tenantTTL).Err()
}

func (c *RedisCache) DeleteTenant(ctx context.Context, slug string) error {
	return c.client.Del(ctx, tenantKey(slug)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func tenantKey(slug string) string {
	return "cache:tenant:" + slug
}
