package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, StoreMongo, cfg.StoreBackend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "catalog", cfg.MongoDatabase)
	assert.Equal(t, "products", cfg.MongoCollection)
	assert.Equal(t, CacheRedis, cfg.CacheBackend)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, 6379, cfg.RedisPort)
	assert.Equal(t, 3600, cfg.CacheTTLSeconds)
	assert.Equal(t, 1000, cfg.IngestBatchSize)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("CATALOG_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidStoreBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid store backend")
}

func TestLoad_InvalidCacheBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache backend")
}

func TestLoad_InvalidCacheTTL(t *testing.T) {
	t.Setenv("CACHE_TTL_SECONDS", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache TTL")
}

func TestLoad_MemoryBackends(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("CACHE_BACKEND", "memory")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, CacheMemory, cfg.CacheBackend)
}

func TestConfig_Durations(t *testing.T) {
	t.Setenv("CACHE_TTL_SECONDS", "120")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "5")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout())
}
