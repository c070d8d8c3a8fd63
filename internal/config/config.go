package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`

	StorageBackend string `yaml:"storage_backend"`
	DataDir        string `yaml:"data_dir"`
	PostgresDSN    string `yaml:"postgres_dsn"`
	SQLitePath     string `yaml:"sqlite_path"`

	SlackToken    string        `yaml:"slack_token"`
	SlackChannel  string        `yaml:"slack_channel"`
	SlackAPIURL   string        `yaml:"slack_api_url"`
	NotifyTimeout time.Duration `yaml:"notify_timeout"`

	// HistoryDisplayZone groups history by the UTC+9 calendar day instead of
	// the offset each entry was recorded with.
	HistoryDisplayZone bool `yaml:"history_display_zone"`
}

var (
	cfg  *Config
	once sync.Once
)

// Load parses the configuration once per process and panics if it is invalid.
func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		c, err := Parse()
		if err != nil {
			panic("Invalid config: " + err.Error())
		}
		cfg = c
	})
	return cfg
}

func defaults() *Config {
	return &Config{
		Env:            "development",
		LogLevel:       "info",
		HTTPAddr:       ":8080",
		StorageBackend: "file",
		DataDir:        "data",
		SQLitePath:     "data/moodlog.db",
		SlackChannel:   "general",
		SlackAPIURL:    "https://slack.com/api/chat.postMessage",
		NotifyTimeout:  5 * time.Second,
	}
}

// Parse builds a Config from defaults, the YAML file named by CONFIG_FILE and
// the environment, in that order.
func Parse() (*Config, error) {
	c := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.Env = getEnv("APP_ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.StorageBackend = getEnv("STORAGE_BACKEND", c.StorageBackend)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.PostgresDSN = getEnv("POSTGRES_DSN", c.PostgresDSN)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.SlackToken = getEnv("SLACK_TOKEN", c.SlackToken)
	c.SlackChannel = getEnv("SLACK_CHANNEL", c.SlackChannel)
	c.SlackAPIURL = getEnv("SLACK_API_URL", c.SlackAPIURL)

	if v := os.Getenv("NOTIFY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: NOTIFY_TIMEOUT: %w", err)
		}
		c.NotifyTimeout = d
	}
	if v := os.Getenv("HISTORY_DISPLAY_ZONE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config: HISTORY_DISPLAY_ZONE: %w", err)
		}
		c.HistoryDisplayZone = b
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "file":
		if c.DataDir == "" {
			return errors.New("DATA_DIR is required when STORAGE_BACKEND=file")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: file, memory, postgres, sqlite (got %q)", c.StorageBackend)
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.SlackToken != "" && c.SlackChannel == "" {
		return errors.New("SLACK_CHANNEL is required when SLACK_TOKEN is set")
	}
	if c.NotifyTimeout <= 0 {
		return errors.New("NOTIFY_TIMEOUT must be positive")
	}
	return nil
}

// NotificationsEnabled reports whether entry creation should post to Slack.
func (c *Config) NotificationsEnabled() bool {
	return c.SlackToken != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
