package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	// Test connection
	err = client.Ping(context.Background()).Err()
	require.NoError(t, err)

	return client, mr
}

func TestSchemaCache_SetGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	c := NewSchemaCache(client, time.Hour)

	t.Run("missing key", func(t *testing.T) {
		has, err := c.Has(ctx, "glpi_schema.json")
		require.NoError(t, err)
		assert.False(t, has)

		data, ok, err := c.Get(ctx, "glpi_schema.json")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, data)
	})

	t.Run("stores with prefix and ttl", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "glpi_schema.json", []byte(`{"id":"x"}`)))

		has, err := c.Has(ctx, "glpi_schema.json")
		require.NoError(t, err)
		assert.True(t, has)

		data, ok, err := c.Get(ctx, "glpi_schema.json")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"id":"x"}`, string(data))

		assert.True(t, mr.Exists("telemetry:schema:glpi_schema.json"))
		assert.Equal(t, time.Hour, mr.TTL("telemetry:schema:glpi_schema.json"))
	})

	t.Run("expires", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "kimios_schema.json", []byte(`{}`)))
		mr.FastForward(2 * time.Hour)

		has, err := c.Has(ctx, "kimios_schema.json")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "glpi_schema.json", []byte(`{}`)))
		require.NoError(t, c.Delete(ctx, "glpi_schema.json"))

		_, ok, err := c.Get(ctx, "glpi_schema.json")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSchemaCache_DefaultTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	c := NewSchemaCache(client, 0)
	require.NoError(t, c.Set(context.Background(), "glpi_schema.json", []byte(`{}`)))
	assert.Equal(t, 24*time.Hour, mr.TTL("telemetry:schema:glpi_schema.json"))
}

func TestSchemaCache_Unavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()

	c := NewSchemaCache(client, time.Hour)
	mr.Close()

	ctx := context.Background()
	_, err := c.Has(ctx, "glpi_schema.json")
	assert.Error(t, err)
	_, _, err = c.Get(ctx, "glpi_schema.json")
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, "glpi_schema.json", []byte(`{}`)))
	assert.Error(t, c.Ping(ctx))
}
