package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"talento/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Backend    BackendConfig    `yaml:"backend"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Session    SessionConfig    `yaml:"session"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
	Bot        BotConfig        `yaml:"bot"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Timezone    string `yaml:"timezone"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type BackendConfig struct {
	BaseURL               string `yaml:"base_url"`
	TimeoutSeconds        int    `yaml:"timeout_seconds"`
	ReportCacheTTLSeconds int    `yaml:"report_cache_ttl_seconds"`
}

type RealtimeConfig struct {
	// Driver is one of redis, amqp or none.
	Driver        string `yaml:"driver"`
	Channel       string `yaml:"channel"`
	ChannelPrefix string `yaml:"channel_prefix"`
	AMQPURL       string `yaml:"amqp_url"`
}

type SessionConfig struct {
	// Store is one of redis, sqlite or memory.
	Store      string `yaml:"store"`
	SQLitePath string `yaml:"sqlite_path"`
	TTLHours   int    `yaml:"ttl_hours"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type BotConfig struct {
	PaginationSize    int `yaml:"pagination_size"`
	RateLimitMessages int `yaml:"rate_limit_messages"`
	RateLimitWindow   int `yaml:"rate_limit_window"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend base_url %q is not an absolute URL", c.Backend.BaseURL)
	}

	switch c.Session.Store {
	case "redis", "memory":
	case "sqlite":
		if c.Session.SQLitePath == "" {
			return errors.New("session.store=sqlite requires session.sqlite_path")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}

	switch c.Realtime.Driver {
	case "none", "redis":
	case "amqp":
		if c.Realtime.AMQPURL == "" {
			return errors.New("realtime.driver=amqp requires realtime.amqp_url")
		}
	default:
		return fmt.Errorf("unknown realtime driver %q", c.Realtime.Driver)
	}

	return nil
}

// ValidateBot checks the settings only the Telegram surface needs.
func (c *Config) ValidateBot() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = models.DefaultRequestTimeout
	}
	if c.App.Timezone == "" {
		c.App.Timezone = models.DefaultTimezone
	}

	if c.Realtime.Driver == "" {
		c.Realtime.Driver = "none"
		if c.Redis.Address != "" {
			c.Realtime.Driver = "redis"
		}
	}
	if c.Realtime.Channel == "" {
		c.Realtime.Channel = "bookings"
	}

	if c.Session.Store == "" {
		c.Session.Store = "memory"
		if c.Redis.Address != "" {
			c.Session.Store = "redis"
		}
	}
	if c.Session.TTLHours <= 0 {
		c.Session.TTLHours = models.DefaultSessionTTL / 3600
	}

	if c.API.Port == 0 {
		c.API.Port = 8090
	}
	if c.API.RateLimit.RPS <= 0 {
		c.API.RateLimit.RPS = 10
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}

	if c.Bot.PaginationSize == 0 {
		c.Bot.PaginationSize = models.DefaultPaginationSize
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
}
