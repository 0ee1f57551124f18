package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/muleflow/pkg/cache"
)

// configFileName is the project file looked up in the working directory.
const configFileName = "muleflow.toml"

// Cache backends selectable with cache = "..." or MULEFLOW_CACHE.
const (
	cacheFile   = "file"
	cacheMemory = "memory"
	cacheRedis  = "redis"
	cacheNone   = "none"
)

// Environment variables read by loadConfig.
const (
	envTarget   = "MULEFLOW_TARGET"
	envFormat   = "MULEFLOW_FORMAT"
	envCache    = "MULEFLOW_CACHE"
	envCacheDir = "MULEFLOW_CACHE_DIR"
	envRedisURL = "MULEFLOW_REDIS_URL"
	envWorkers  = "MULEFLOW_WORKERS"
)

// Config holds settings shared by several commands. Zero values mean
// "not set" and leave the pipeline default in place.
type Config struct {
	Target     string `toml:"target"`
	Output     string `toml:"output"`
	Diagram    string `toml:"diagram"`
	Format     string `toml:"format"`
	Title      string `toml:"title"`
	Detailed   bool   `toml:"detailed"`
	Workers    int    `toml:"workers"`
	Components string `toml:"components"`

	Cache    string `toml:"cache"`
	CacheDir string `toml:"cache_dir"`
	RedisURL string `toml:"redis_url"`
}

// loadConfig reads the TOML project file and overlays the environment.
// An empty path looks for muleflow.toml in the working directory and
// tolerates its absence; an explicit path must exist.
func loadConfig(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = configFileName
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotEnv loads .env from the working directory if present. Variables
// already set in the environment win.
func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// applyEnv overrides fields with MULEFLOW_* variables found by lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(envTarget, &c.Target)
	set(envFormat, &c.Format)
	set(envCache, &c.Cache)
	set(envCacheDir, &c.CacheDir)
	set(envRedisURL, &c.RedisURL)

	if v, ok := lookup(envWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Cache {
	case "", cacheFile, cacheMemory, cacheRedis, cacheNone:
	default:
		return fmt.Errorf("invalid cache %q (must be one of: file, memory, redis, none)", c.Cache)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

func (c Config) cacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return cache.DefaultDir()
}
