package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/scopa-go/internal/factory"
	"github.com/mcoot/scopa-go/internal/session"
	redisstorage "github.com/mcoot/scopa-go/internal/storage/redis"
)

const envPrefix = "SCOPA"

// Config holds CLI configuration
type Config struct {
	ServerURL   string `mapstructure:"server"`
	Storage     string `mapstructure:"storage"`
	StoragePath string `mapstructure:"storage_path"`
	RedisURL    string `mapstructure:"redis_url"`
	Profile     string `mapstructure:"profile"`
	Transport   string `mapstructure:"transport"`

	PollInterval         time.Duration `mapstructure:"poll_interval"`
	PushFallbackInterval time.Duration `mapstructure:"push_fallback_interval"`
	SettleDelay          time.Duration `mapstructure:"settle_delay"`
	HandoffDelay         time.Duration `mapstructure:"handoff_delay"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	MaxJoinFallbacks     int           `mapstructure:"max_join_fallbacks"`

	AssetBase    string `mapstructure:"asset_base"`
	CardsCatalog string `mapstructure:"cards_catalog"`

	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	Output      string `mapstructure:"output"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	s := session.DefaultConfig()
	return &Config{
		ServerURL:            "http://localhost:8000",
		Storage:              factory.StorageTypeFile,
		Profile:              redisstorage.DefaultConfig().Profile,
		RedisURL:             redisstorage.DefaultConfig().URL,
		Transport:            factory.TransportPoll,
		PollInterval:         s.PollInterval,
		PushFallbackInterval: s.PushFallbackInterval,
		SettleDelay:          s.SettleDelay,
		HandoffDelay:         s.HandoffDelay,
		RequestTimeout:       10 * time.Second,
		MaxJoinFallbacks:     s.MaxJoinFallbacks,
		LogLevel:             "warn",
		LogFormat:            "text",
		Output:               "text",
	}
}

// flagKeys maps config keys to the cobra flags that override them
var flagKeys = map[string]string{
	"server":             "server",
	"storage":            "storage",
	"storage_path":       "storage-path",
	"redis_url":          "redis-url",
	"profile":            "profile",
	"transport":          "transport",
	"poll_interval":      "poll-interval",
	"request_timeout":    "request-timeout",
	"max_join_fallbacks": "max-join-fallbacks",
	"log_level":          "log-level",
	"log_format":         "log-format",
	"metrics_addr":       "metrics-addr",
	"output":             "output",
}

// LoadConfig loads configuration using Viper.
// Priority order: flags > SCOPA_* environment variables > config file > defaults
func LoadConfig(configPath string, cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigDir())
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("server", def.ServerURL)
	v.SetDefault("storage", def.Storage)
	v.SetDefault("storage_path", def.StoragePath)
	v.SetDefault("redis_url", def.RedisURL)
	v.SetDefault("profile", def.Profile)
	v.SetDefault("transport", def.Transport)
	v.SetDefault("poll_interval", def.PollInterval)
	v.SetDefault("push_fallback_interval", def.PushFallbackInterval)
	v.SetDefault("settle_delay", def.SettleDelay)
	v.SetDefault("handoff_delay", def.HandoffDelay)
	v.SetDefault("request_timeout", def.RequestTimeout)
	v.SetDefault("max_join_fallbacks", def.MaxJoinFallbacks)
	v.SetDefault("asset_base", def.AssetBase)
	v.SetDefault("cards_catalog", def.CardsCatalog)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("metrics_addr", def.MetricsAddr)
	v.SetDefault("output", def.Output)

	if cmd != nil {
		for key, name := range flagKeys {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	// The config file is optional unless one was asked for
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the enumerated settings and the timing policy
func (c *Config) Validate() error {
	switch c.Storage {
	case factory.StorageTypeFile, factory.StorageTypeMemory, factory.StorageTypeRedis:
	default:
		return fmt.Errorf("storage must be file, memory or redis, got %q", c.Storage)
	}
	switch c.Transport {
	case factory.TransportPoll, factory.TransportPush:
	default:
		return fmt.Errorf("transport must be poll or push, got %q", c.Transport)
	}
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("output must be text or json, got %q", c.Output)
	}
	if c.ServerURL == "" {
		return errors.New("server must be set")
	}
	if c.PollInterval <= 0 || c.PushFallbackInterval <= 0 {
		return errors.New("poll_interval and push_fallback_interval must be positive")
	}
	if c.SettleDelay < 0 || c.HandoffDelay < 0 || c.RequestTimeout < 0 {
		return errors.New("delays and timeouts cannot be negative")
	}
	if c.MaxJoinFallbacks < 0 {
		return errors.New("max_join_fallbacks cannot be negative")
	}
	return nil
}

// SessionConfig is the session timing policy described by c
func (c *Config) SessionConfig() session.Config {
	s := session.DefaultConfig()
	s.PollInterval = c.PollInterval
	s.PushFallbackInterval = c.PushFallbackInterval
	s.SettleDelay = c.SettleDelay
	s.HandoffDelay = c.HandoffDelay
	s.MaxJoinFallbacks = c.MaxJoinFallbacks
	return s
}

// FactoryConfig builds the application factory configuration
func (c *Config) FactoryConfig() factory.Config {
	fc := factory.Config{
		ServerURL:      c.ServerURL,
		RequestTimeout: c.RequestTimeout,
		StorageType:    c.Storage,
		StoragePath:    c.StoragePath,
		CatalogPath:    c.CardsCatalog,
		AssetBase:      c.AssetBase,
		Session:        c.SessionConfig(),
		Transport:      c.Transport,
	}
	if c.Storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.Profile = c.Profile
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// YAML renders the effective configuration, durations in their string form
func (c *Config) YAML() ([]byte, error) {
	out := map[string]any{
		"server":                 c.ServerURL,
		"storage":                c.Storage,
		"storage_path":           c.StoragePath,
		"redis_url":              c.RedisURL,
		"profile":                c.Profile,
		"transport":              c.Transport,
		"poll_interval":          c.PollInterval.String(),
		"push_fallback_interval": c.PushFallbackInterval.String(),
		"settle_delay":           c.SettleDelay.String(),
		"handoff_delay":          c.HandoffDelay.String(),
		"request_timeout":        c.RequestTimeout.String(),
		"max_join_fallbacks":     c.MaxJoinFallbacks,
		"asset_base":             c.AssetBase,
		"cards_catalog":          c.CardsCatalog,
		"log_level":              c.LogLevel,
		"log_format":             c.LogFormat,
		"metrics_addr":           c.MetricsAddr,
		"output":                 c.Output,
	}
	return yaml.Marshal(out)
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scopa"
	}
	return filepath.Join(home, ".scopa")
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
