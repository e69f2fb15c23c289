// Package config loads kickoff settings from kickoff.yaml, a .env file and
// KICKOFF_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Email    EmailConfig    `mapstructure:"email"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type NotifyConfig struct {
	Workers     int    `mapstructure:"workers"`
	QueueSize   int    `mapstructure:"queue_size"`
	LinkBaseURL string `mapstructure:"link_base_url"`
}

type EmailConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	From    string `mapstructure:"from"`
}

// MetricsConfig names a textfile-collector file the process rewrites on exit.
// Empty disables the export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// RedisConfig enables the shared process lock when Address is set; without
// it locking stays in-process.
type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// Load reads configuration. file may name an explicit config file; when it is
// empty kickoff.yaml is searched in the working directory and ~/.kickoff.
func Load(file string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KICKOFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("kickoff")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".kickoff"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	dbPath := "kickoff.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".kickoff", "kickoff.db")
	}
	v.SetDefault("database.path", dbPath)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.queue_size", 256)
	v.SetDefault("notify.link_base_url", "")
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.region", "eu-west-1")
	v.SetDefault("email.from", "")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", 30*time.Second)
	v.SetDefault("metrics.textfile", "")
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format %q is not console or json", c.Log.Format)
	}
	if c.Notify.Workers < 1 {
		return errors.New("notify.workers must be at least 1")
	}
	if c.Notify.QueueSize < 1 {
		return errors.New("notify.queue_size must be at least 1")
	}
	if c.Email.Enabled && c.Email.From == "" {
		return errors.New("email.from is required when email is enabled")
	}
	if c.Redis.Address != "" && c.Redis.LockTTL <= 0 {
		return errors.New("redis.lock_ttl must be positive")
	}
	return nil
}
