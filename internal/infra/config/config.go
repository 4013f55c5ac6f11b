package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Upstream      UpstreamConfig      `yaml:"upstream"`
	Watcher       WatcherConfig       `yaml:"watcher"`
	Notifications NotificationsConfig `yaml:"notifications"`
	History       HistoryConfig       `yaml:"history"`
	Archive       ArchiveConfig       `yaml:"archive"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	AllowOrigins []string        `yaml:"allowOrigins"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// UpstreamConfig points at the third-party stock API.
type UpstreamConfig struct {
	URL          string        `yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	ImageBaseURL string        `yaml:"imageBaseUrl"`
}

// WatcherConfig drives the server-side polling loop.
type WatcherConfig struct {
	Enabled            bool          `yaml:"enabled"`
	Interval           time.Duration `yaml:"interval"`
	Source             string        `yaml:"source"`
	ProxyURL           string        `yaml:"proxyUrl"`
	BaselineFirstCycle bool          `yaml:"baselineFirstCycle"`
}

// NotificationsConfig controls delivery of stock increase notifications.
type NotificationsConfig struct {
	Permission string        `yaml:"permission"`
	Cue        bool          `yaml:"cue"`
	Webhook    WebhookConfig `yaml:"webhook"`
}

// WebhookConfig contains the optional chat webhook target.
type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// HistoryConfig selects the change history backend.
type HistoryConfig struct {
	Backend  string         `yaml:"backend"`
	Limit    int            `yaml:"limit"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// ValkeyConfig contains connection information for the history list.
type ValkeyConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ArchiveConfig enables raw snapshot archiving to S3-compatible storage.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

const (
	SourceUpstream = "upstream"
	SourceProxy    = "proxy"

	BackendMemory   = "memory"
	BackendValkey   = "valkey"
	BackendPostgres = "postgres"
)

// Load reads configuration from a YAML file, a .env file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// loadDotEnv never overrides variables already present in the environment.
func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOW_ORIGINS"); v != "" {
		cfg.HTTP.AllowOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("UPSTREAM_URL"); v != "" {
		cfg.Upstream.URL = v
	}
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.Timeout = parsed
		}
	}
	if v := os.Getenv("UPSTREAM_IMAGE_BASE_URL"); v != "" {
		cfg.Upstream.ImageBaseURL = v
	}
	if v := os.Getenv("WATCHER_ENABLED"); v != "" {
		cfg.Watcher.Enabled = parseBool(v)
	}
	if v := os.Getenv("WATCHER_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Watcher.Interval = parsed
		}
	}
	if v := os.Getenv("WATCHER_SOURCE"); v != "" {
		cfg.Watcher.Source = strings.ToLower(v)
	}
	if v := os.Getenv("WATCHER_PROXY_URL"); v != "" {
		cfg.Watcher.ProxyURL = v
	}
	if v := os.Getenv("WATCHER_BASELINE_FIRST_CYCLE"); v != "" {
		cfg.Watcher.BaselineFirstCycle = parseBool(v)
	}
	if v := os.Getenv("NOTIFICATIONS_PERMISSION"); v != "" {
		cfg.Notifications.Permission = strings.ToLower(v)
	}
	if v := os.Getenv("NOTIFICATIONS_CUE"); v != "" {
		cfg.Notifications.Cue = parseBool(v)
	}
	if v := os.Getenv("NOTIFICATIONS_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Webhook.URL = v
	}
	if v := os.Getenv("HISTORY_BACKEND"); v != "" {
		cfg.History.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Limit = parsed
		}
	}
	if v := os.Getenv("HISTORY_VALKEY_ADDR"); v != "" {
		cfg.History.Valkey.Addr = v
	}
	if v := os.Getenv("HISTORY_POSTGRES_DSN"); v != "" {
		cfg.History.Postgres.DSN = v
	}
	if v := os.Getenv("ARCHIVE_ENABLED"); v != "" {
		cfg.Archive.Enabled = parseBool(v)
	}
	if v := os.Getenv("ARCHIVE_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("ARCHIVE_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("ARCHIVE_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("ARCHIVE_REGION"); v != "" {
		cfg.Archive.Region = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":3000",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             20,
			},
		},
		Upstream: UpstreamConfig{
			URL:          "https://api.joshlei.com/v2/growagarden/stock",
			Timeout:      5 * time.Second,
			ImageBaseURL: "https://api.joshlei.com/v2/growagarden/image",
		},
		Watcher: WatcherConfig{
			Enabled:  true,
			Interval: 15 * time.Second,
			Source:   SourceUpstream,
			ProxyURL: "http://127.0.0.1:3000/api/alldata",
		},
		Notifications: NotificationsConfig{
			Permission: "unrequested",
			Cue:        false,
			Webhook: WebhookConfig{
				Timeout: 5 * time.Second,
			},
		},
		History: HistoryConfig{
			Backend: BackendMemory,
			Limit:   200,
			Valkey: ValkeyConfig{
				Prefix: "stockwatch",
			},
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Archive: ArchiveConfig{
			Bucket: "stockwatch-snapshots",
			Region: "auto",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.Upstream.URL) == "" {
		return errors.New("upstream.url cannot be empty")
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream.timeout must be positive")
	}
	if c.Watcher.Enabled && c.Watcher.Interval <= 0 {
		return errors.New("watcher.interval must be positive")
	}
	switch c.Watcher.Source {
	case SourceUpstream:
	case SourceProxy:
		if strings.TrimSpace(c.Watcher.ProxyURL) == "" {
			return errors.New("watcher.proxyUrl cannot be empty when watcher.source is proxy")
		}
	default:
		return fmt.Errorf("watcher.source must be %q or %q", SourceUpstream, SourceProxy)
	}
	switch c.Notifications.Permission {
	case "", "unrequested", "granted", "denied":
	default:
		return errors.New("notifications.permission must be unrequested, granted or denied")
	}
	switch c.History.Backend {
	case BackendMemory:
	case BackendValkey:
		if strings.TrimSpace(c.History.Valkey.Addr) == "" {
			return errors.New("history.valkey.addr cannot be empty when history backend is valkey")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.History.Postgres.DSN) == "" {
			return errors.New("history.postgres.dsn cannot be empty when history backend is postgres")
		}
	default:
		return errors.New("history.backend must be memory, valkey or postgres")
	}
	if c.History.Limit <= 0 {
		return errors.New("history.limit must be positive")
	}
	if c.Archive.Enabled {
		if strings.TrimSpace(c.Archive.Endpoint) == "" || strings.TrimSpace(c.Archive.Bucket) == "" {
			return errors.New("archive.endpoint and archive.bucket are required when archive is enabled")
		}
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}
