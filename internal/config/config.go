package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend identifies where the local cache is persisted
type Backend string

const (
	BackendBolt   Backend = "bolt"
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds backend API configuration
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"` // Fallback when no token is stored locally
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache storage and freshness configuration
type CacheConfig struct {
	Backend      Backend       `mapstructure:"backend"`
	Dir          string        `mapstructure:"dir"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	Redis        RedisConfig   `mapstructure:"redis"`

	Profile   PolicyConfig `mapstructure:"profile"`
	Videos    PolicyConfig `mapstructure:"videos"`
	Followers PolicyConfig `mapstructure:"followers"`
}

// PolicyConfig holds freshness thresholds for one resource kind.
// A zero max_age keeps entries until manually refreshed.
type PolicyConfig struct {
	MaxAge       time.Duration `mapstructure:"max_age"`
	RefreshAfter time.Duration `mapstructure:"refresh_after"`
}

// RedisConfig holds the shared cache connection
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Namespace string `mapstructure:"namespace"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:      BackendBolt,
			Dir:          defaultCachePath(),
			FetchTimeout: 30 * time.Second,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				Namespace: "reel:",
			},
			Profile:   PolicyConfig{MaxAge: 30 * time.Minute, RefreshAfter: 10 * time.Minute},
			Videos:    PolicyConfig{MaxAge: 15 * time.Minute, RefreshAfter: 5 * time.Minute},
			Followers: PolicyConfig{MaxAge: 10 * time.Minute, RefreshAfter: 5 * time.Minute},
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.token", cfg.Server.Token)
	v.SetDefault("server.timeout", cfg.Server.Timeout)

	v.SetDefault("cache.backend", string(cfg.Cache.Backend))
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.fetch_timeout", cfg.Cache.FetchTimeout)
	v.SetDefault("cache.redis.addr", cfg.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", cfg.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", cfg.Cache.Redis.DB)
	v.SetDefault("cache.redis.namespace", cfg.Cache.Redis.Namespace)

	for name, p := range map[string]PolicyConfig{
		"profile":   cfg.Cache.Profile,
		"videos":    cfg.Cache.Videos,
		"followers": cfg.Cache.Followers,
	} {
		v.SetDefault("cache."+name+".max_age", p.MaxAge)
		v.SetDefault("cache."+name+".refresh_after", p.RefreshAfter)
	}

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel", "reel.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel", "reel.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "reel")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "reel", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel", "cache")
	}
}

// DefaultConfigFile returns the path SaveConfig writes to when none is given
func DefaultConfigFile() string {
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

// LoadConfig loads configuration from file and environment.
// An empty path searches the default config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides (REEL_CACHE_BACKEND, REEL_SERVER_URL, ...)
	v.SetEnvPrefix("REEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendBolt, BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown cache backend: %q", c.Cache.Backend)
	}
	for name, p := range map[string]PolicyConfig{
		"profile":   c.Cache.Profile,
		"videos":    c.Cache.Videos,
		"followers": c.Cache.Followers,
	} {
		if p.MaxAge < 0 || p.RefreshAfter < 0 {
			return fmt.Errorf("cache.%s: durations must not be negative", name)
		}
		if p.MaxAge > 0 && p.RefreshAfter >= p.MaxAge {
			return fmt.Errorf("cache.%s: refresh_after must be shorter than max_age", name)
		}
	}
	return nil
}

// SaveConfig saves the configuration to path (DefaultConfigFile when empty)
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.token", cfg.Server.Token)
	v.Set("server.timeout", cfg.Server.Timeout.String())

	v.Set("cache.backend", string(cfg.Cache.Backend))
	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("cache.fetch_timeout", cfg.Cache.FetchTimeout.String())
	v.Set("cache.redis.addr", cfg.Cache.Redis.Addr)
	v.Set("cache.redis.password", cfg.Cache.Redis.Password)
	v.Set("cache.redis.db", cfg.Cache.Redis.DB)
	v.Set("cache.redis.namespace", cfg.Cache.Redis.Namespace)

	v.Set("cache.profile.max_age", cfg.Cache.Profile.MaxAge.String())
	v.Set("cache.profile.refresh_after", cfg.Cache.Profile.RefreshAfter.String())
	v.Set("cache.videos.max_age", cfg.Cache.Videos.MaxAge.String())
	v.Set("cache.videos.refresh_after", cfg.Cache.Videos.RefreshAfter.String())
	v.Set("cache.followers.max_age", cfg.Cache.Followers.MaxAge.String())
	v.Set("cache.followers.refresh_after", cfg.Cache.Followers.RefreshAfter.String())

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL is set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}

// ClearToken removes the fallback token and rewrites the config file at path
func ClearToken(cfg *Config, path string) error {
	if cfg.Server.Token == "" {
		return nil
	}
	cfg.Server.Token = ""
	return SaveConfig(cfg, path)
}
