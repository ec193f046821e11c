package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/catalog-search/pkg/config"
)

// Backend selection values.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	CacheRedis  = "redis"
	CacheMemory = "memory"
)

// Config holds all configuration for the catalog search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CATALOG_HTTP_PORT" envDefault:"8080"`

	// Product store selection (mongo or memory)
	StoreBackend string `env:"STORE_BACKEND" envDefault:"mongo"`

	// MongoDB
	MongoURI        string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"catalog"`
	MongoCollection string `env:"MONGO_COLLECTION" envDefault:"products"`

	// Cache selection (redis or memory)
	CacheBackend string `env:"CACHE_BACKEND" envDefault:"redis"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Cache entry lifetime in seconds
	CacheTTLSeconds int `env:"CACHE_TTL_SECONDS" envDefault:"3600"`

	// Bulk ingestion batch size
	IngestBatchSize int `env:"INGEST_BATCH_SIZE" envDefault:"1000"`

	// Graceful shutdown timeout in seconds
	ShutdownTimeoutSeconds int `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"15"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CacheTTL returns the cache entry lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown window as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StoreBackend != StoreMongo && c.StoreBackend != StoreMemory {
		return fmt.Errorf("invalid store backend: %q", c.StoreBackend)
	}
	if c.CacheBackend != CacheRedis && c.CacheBackend != CacheMemory {
		return fmt.Errorf("invalid cache backend: %q", c.CacheBackend)
	}
	if c.CacheTTLSeconds < 1 {
		return fmt.Errorf("invalid cache TTL: %d", c.CacheTTLSeconds)
	}
	if c.IngestBatchSize < 1 {
		return fmt.Errorf("invalid ingest batch size: %d", c.IngestBatchSize)
	}
	return nil
}
