// Package config loads the collections engine configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-collections/cache"
	"github.com/goliatone/go-collections/lifecycle"
)

// Config holds the collections engine configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Filesystem FilesystemConfig `yaml:"filesystem"`
	System     SystemConfig     `yaml:"system"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres, mysql
	DSN    string `yaml:"dsn"`
	Schema string `yaml:"schema"` // postgres schema or mysql database
}

// CacheConfig holds tagged cache settings.
type CacheConfig struct {
	Backend            string        `yaml:"backend"` // memory, redis
	Capacity           int           `yaml:"capacity"`
	Shards             int           `yaml:"shards"`
	TTL                time.Duration `yaml:"ttl"`
	EvictionPercentage int           `yaml:"eviction_percentage"`
	Redis              RedisConfig   `yaml:"redis"`
}

// RedisConfig holds the redis backend settings.
type RedisConfig struct {
	Addrs     []string `yaml:"addrs"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// FilesystemConfig holds the public urls of stored files.
type FilesystemConfig struct {
	RootURL      string `yaml:"root_url"`
	RootThumbURL string `yaml:"root_thumb_url"`
}

// SystemConfig holds the naming of system collections.
type SystemConfig struct {
	CollectionPrefix string `yaml:"collection_prefix"`
	AdminGroupID     int64  `yaml:"admin_group_id"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Env   string `yaml:"env"`   // prod, local, dev, test
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes configuration from YAML, substituting ${VAR} references,
// then applies defaults and validates the result.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given: an
// in-memory sqlite database with the memory cache.
func Default() Config {
	cfg := Config{Database: DatabaseConfig{Driver: "sqlite", DSN: "file::memory:?cache=shared"}}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	defaults := cache.DefaultConfig()
	if c.Cache.Backend == "" {
		c.Cache.Backend = cache.BackendMemory
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = defaults.Capacity
	}
	if c.Cache.Shards <= 0 {
		c.Cache.Shards = defaults.NumShards
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = defaults.TTL
	}
	if c.Cache.EvictionPercentage <= 0 {
		c.Cache.EvictionPercentage = defaults.EvictionPercentage
	}
	if c.Cache.Redis.KeyPrefix == "" {
		c.Cache.Redis.KeyPrefix = defaults.Redis.KeyPrefix
	}
	if c.System.CollectionPrefix == "" {
		c.System.CollectionPrefix = "directus_"
	}
	if c.System.AdminGroupID <= 0 {
		c.System.AdminGroupID = lifecycle.DefaultConfig().AdminGroupID
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "prod"
	}
}

// Validate checks the configuration for correctness.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Database),
		validation.Field(&c.Cache),
		validation.Field(&c.Logging),
	)
}

// Validate checks the database settings.
func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In("sqlite", "sqlite3", "postgres", "mysql")),
		validation.Field(&d.DSN, validation.Required),
	)
}

// Validate checks the cache settings.
func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.In(cache.BackendMemory, cache.BackendRedis)),
		validation.Field(&c.EvictionPercentage, validation.Min(1), validation.Max(100)),
		validation.Field(&c.Redis, validation.When(c.Backend == cache.BackendRedis, validation.By(requireAddrs))),
	)
}

func requireAddrs(value interface{}) error {
	if r, _ := value.(RedisConfig); len(r.Addrs) == 0 {
		return errors.New("addrs is required for the redis backend")
	}
	return nil
}

// Validate checks the logging settings.
func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Env, validation.In("prod", "local", "dev", "test")),
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
	)
}

// CacheConfig maps the cache section onto the cache package settings.
func (c Config) CacheConfig() cache.Config {
	out := cache.DefaultConfig()
	out.Backend = c.Cache.Backend
	out.Capacity = c.Cache.Capacity
	out.NumShards = c.Cache.Shards
	out.TTL = c.Cache.TTL
	out.EvictionPercentage = c.Cache.EvictionPercentage
	out.Redis = cache.RedisConfig{
		Addrs:     c.Cache.Redis.Addrs,
		Username:  c.Cache.Redis.Username,
		Password:  c.Cache.Redis.Password,
		DB:        c.Cache.Redis.DB,
		KeyPrefix: c.Cache.Redis.KeyPrefix,
	}
	return out
}

// LifecycleConfig maps the filesystem and system sections onto the
// lifecycle handler settings.
func (c Config) LifecycleConfig() lifecycle.Config {
	return lifecycle.Config{
		FilesRootURL: strings.TrimRight(c.Filesystem.RootURL, "/"),
		ThumbRootURL: strings.TrimRight(c.Filesystem.RootThumbURL, "/"),
		AdminGroupID: c.System.AdminGroupID,
	}
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
