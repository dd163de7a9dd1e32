package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	schemaKeyPrefix = "telemetry:schema:" // Key prefix for composed schemas: telemetry:schema:{slug}_schema.json
	defaultTTL      = 24 * time.Hour
)

// SchemaCache stores composed project schemas in Redis
type SchemaCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSchemaCache creates a new SchemaCache. A non-positive ttl selects the default of 24h.
func NewSchemaCache(client *redis.Client, ttl time.Duration) *SchemaCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &SchemaCache{
		client: client,
		ttl:    ttl,
	}
}

// Has reports whether a schema is cached under key
func (c *SchemaCache) Has(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check schema cache: %w", err)
	}
	return n > 0, nil
}

// Get retrieves a cached schema
func (c *SchemaCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached schema: %w", err)
	}
	return data, true, nil
}

// Set stores a schema with the cache TTL
func (c *SchemaCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache schema: %w", err)
	}
	return nil
}

// Delete evicts a cached schema
func (c *SchemaCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to evict cached schema: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (c *SchemaCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *SchemaCache) key(key string) string {
	return schemaKeyPrefix + key
}
