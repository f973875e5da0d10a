// Package config loads service settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Avinash9608/Furniture-sub003/pkg/cache"
	"github.com/Avinash9608/Furniture-sub003/pkg/pending"
	"gopkg.in/yaml.v3"
)

// StoreConfig selects and tunes the backing store.
type StoreConfig struct {
	Backend        string        `yaml:"backend"` // postgres | sqlite | memory
	DSN            string        `yaml:"dsn"`
	DataDir        string        `yaml:"data_dir"`
	MaxConns       int           `yaml:"max_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	WaitBudget     time.Duration `yaml:"wait_budget"`
}

// CacheConfig sizes the last-known-good cache.
type CacheConfig struct {
	Capacity         int           `yaml:"capacity"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

// CollectionConfig holds per-collection write rules.
type CollectionConfig struct {
	// SlugFrom names the field a slug is derived from on create.
	SlugFrom string `yaml:"slug_from"`
	// Exclusive names a boolean field that may be true on one document only.
	Exclusive string `yaml:"exclusive"`
}

// Config is the full service configuration.
type Config struct {
	Port           string                      `yaml:"port"`
	APIPrefix      string                      `yaml:"api_prefix"`
	AllowedOrigins []string                    `yaml:"allowed_origins"`
	PolicyFile     string                      `yaml:"policy_file"`
	HealthInterval time.Duration               `yaml:"health_interval"`
	Store          StoreConfig                 `yaml:"store"`
	Cache          CacheConfig                 `yaml:"cache"`
	Collections    map[string]CollectionConfig `yaml:"collections"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:           "8080",
		APIPrefix:      "/api",
		AllowedOrigins: []string{"*"},
		HealthInterval: 15 * time.Second,
		Store: StoreConfig{
			Backend:        "sqlite",
			DataDir:        "./data",
			MaxConns:       10,
			ConnectTimeout: 5 * time.Second,
			WaitBudget:     2 * time.Second,
		},
		Cache: CacheConfig{
			Capacity:         256,
			SnapshotInterval: time.Minute,
		},
		Collections: map[string]CollectionConfig{
			"products":        {SlugFrom: "name"},
			"categories":      {SlugFrom: "name"},
			"orders":          {},
			"payments":        {},
			"contacts":        {},
			"paymentsettings": {Exclusive: "isActive"},
		},
	}
}

// Load reads path (when not empty) over the defaults and then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	env := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	c.Port = env("PORT", c.Port)
	c.APIPrefix = env("API_PREFIX", c.APIPrefix)
	c.PolicyFile = env("FALLBACK_POLICY", c.PolicyFile)
	c.Store.Backend = env("STORE_BACKEND", c.Store.Backend)
	c.Store.DataDir = env("DATA_DIR", c.Store.DataDir)
	if origins := env("ALLOWED_ORIGINS", ""); origins != "" {
		c.AllowedOrigins = strings.Split(origins, ",")
	}

	if dsn := env("DATABASE_URL", ""); dsn != "" {
		c.Store.DSN = dsn
	} else if host := env("DB_HOST", ""); host != "" {
		port := env("DB_PORT", "5432")
		user := env("DB_USER", "postgres")
		pass := env("DB_PASSWORD", "postgres")
		name := env("DB_NAME", "furniture")
		ssl := env("DB_SSLMODE", "disable")
		c.Store.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, name, ssl)
	}

	if v := env("CONNECT_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CONNECT_TIMEOUT %q: %w", v, err)
		}
		c.Store.ConnectTimeout = d
	}
	if v := env("DB_MAX_CONNS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_MAX_CONNS %q: %w", v, err)
		}
		c.Store.MaxConns = n
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if !strings.HasPrefix(c.APIPrefix, "/") || len(c.APIPrefix) < 2 || strings.HasSuffix(c.APIPrefix, "/") {
		return fmt.Errorf("api prefix %q must look like /api", c.APIPrefix)
	}
	switch c.Store.Backend {
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("postgres backend needs DATABASE_URL or DB_HOST")
		}
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.ConnectTimeout <= 0 {
		return errors.New("connect timeout must be positive")
	}
	if len(c.Collections) == 0 {
		return errors.New("at least one collection must be configured")
	}
	return nil
}

// CollectionNames returns the allow-listed collections in sorted order.
func (c Config) CollectionNames() []string {
	names := make([]string, 0, len(c.Collections))
	for name := range c.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SlugSources maps collections to the field their slug is derived from.
func (c Config) SlugSources() map[string]string {
	out := make(map[string]string)
	for name, cc := range c.Collections {
		if cc.SlugFrom != "" {
			out[name] = cc.SlugFrom
		}
	}
	return out
}

// PendingLogPath is where queued writes are kept.
func (c Config) PendingLogPath() string {
	return filepath.Join(c.Store.DataDir, pending.FileName)
}

// SnapshotPath is where the cache snapshot is kept.
func (c Config) SnapshotPath() string {
	return filepath.Join(c.Store.DataDir, "cache"+cache.FileExtension)
}
