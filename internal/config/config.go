package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/bnema/addonctl/internal/paths"
)

// Environment variable prefix, ADDONCTL_API_URL overrides api.url
const envPrefix = "ADDONCTL"

const (
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config holds the resolved settings
type Config struct {
	File string // Config file that was read, empty when none

	APIURL     string
	APITimeout time.Duration
	APIRetries int

	ManifestTimeout time.Duration
	MaxResponseSize int64
	AllowPrivate    bool

	HistoryDepth          int
	ClearOnRefreshFailure bool

	CacheBackend string
	RedisURL     string
	RedisPrefix  string
	CacheTTL     time.Duration

	CatalogURL string
	CatalogTTL time.Duration

	Dirs    paths.Dirs
	LogFile string

	Listen         string
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
	BodyLimit      string
}

// Load reads configFile (or the default config.yaml under the config dir),
// then applies ADDONCTL_* environment overrides. A missing file is not an
// error.
func Load(configFile string) (*Config, error) {
	dirs := paths.Default()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, dirs)

	if configFile == "" {
		configFile = filepath.Join(dirs.Config, "config.yaml")
	}
	expanded, err := homedir.Expand(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}
	v.SetConfigFile(expanded)
	v.SetConfigType("yaml")

	cfg := &Config{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		cfg.File = expanded
	}

	cfg.APIURL = strings.TrimRight(v.GetString("api.url"), "/")
	cfg.APITimeout = v.GetDuration("api.timeout")
	cfg.APIRetries = v.GetInt("api.retries")
	cfg.ManifestTimeout = v.GetDuration("manifest.timeout")
	cfg.MaxResponseSize = v.GetInt64("manifest.max_bytes")
	cfg.AllowPrivate = v.GetBool("net.allow_private")
	cfg.HistoryDepth = v.GetInt("history.depth")
	cfg.ClearOnRefreshFailure = v.GetBool("refresh.clear_on_failure")
	cfg.CacheBackend = strings.ToLower(v.GetString("cache.backend"))
	cfg.RedisURL = v.GetString("cache.redis_url")
	cfg.RedisPrefix = v.GetString("cache.redis_prefix")
	cfg.CacheTTL = v.GetDuration("cache.ttl")
	cfg.CatalogURL = v.GetString("catalog.url")
	cfg.CatalogTTL = v.GetDuration("catalog.ttl")
	cfg.Listen = v.GetString("server.listen")
	cfg.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	cfg.RateLimit = v.GetFloat64("server.rate_limit")
	cfg.RateBurst = v.GetInt("server.rate_burst")
	cfg.BodyLimit = v.GetString("server.body_limit")

	cfg.Dirs = paths.Dirs{Config: filepath.Dir(expanded)}
	if cfg.Dirs.Data, err = homedir.Expand(v.GetString("paths.data")); err != nil {
		return nil, fmt.Errorf("expanding data dir: %w", err)
	}
	if cfg.Dirs.Cache, err = homedir.Expand(v.GetString("paths.cache")); err != nil {
		return nil, fmt.Errorf("expanding cache dir: %w", err)
	}
	cfg.LogFile = cfg.Dirs.LogFile()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, dirs paths.Dirs) {
	v.SetDefault("api.url", "https://api.strem.io")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.retries", 2)
	v.SetDefault("manifest.timeout", 10*time.Second)
	v.SetDefault("manifest.max_bytes", 2<<20)
	v.SetDefault("net.allow_private", false)
	v.SetDefault("history.depth", 30)
	v.SetDefault("refresh.clear_on_failure", false)
	v.SetDefault("cache.backend", CacheFile)
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.redis_prefix", "addonctl:")
	v.SetDefault("cache.ttl", 30*24*time.Hour)
	v.SetDefault("catalog.url", "https://api.strem.io/addonscollection.json")
	v.SetDefault("catalog.ttl", 24*time.Hour)
	v.SetDefault("paths.data", dirs.Data)
	v.SetDefault("paths.cache", dirs.Cache)
	v.SetDefault("server.listen", "127.0.0.1:8080")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.body_limit", "2M")
}

// Validate rejects settings the rest of the program cannot work with
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api.url cannot be empty")
	}
	if c.APITimeout <= 0 || c.ManifestTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.HistoryDepth < 1 {
		return fmt.Errorf("history.depth must be at least 1, got %d", c.HistoryDepth)
	}
	switch c.CacheBackend {
	case CacheFile, CacheRedis:
	default:
		return fmt.Errorf("unknown cache.backend %q (want %s or %s)", c.CacheBackend, CacheFile, CacheRedis)
	}
	return nil
}
