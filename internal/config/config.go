package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server         ServerConfig   `yaml:"server"`
	Upstream       UpstreamConfig `yaml:"upstream"`
	HistoryArchive ArchiveConfig  `yaml:"history_archive"`
	Redis          RedisConfig    `yaml:"redis"`
	Engine         EngineConfig   `yaml:"engine"`
	Logging        LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                   int      `yaml:"port"`
	Host                   string   `yaml:"host"`
	AllowedOrigins         []string `yaml:"allowed_origins"`
	ReadTimeoutSeconds     int      `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int      `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port.
func (c ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", c.GetHost(), c.Port) }

// ReadTimeout returns the server read timeout.
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout.
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns how long in-flight requests get on shutdown.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// UpstreamConfig groups the data sources behind each dashboard screen.
type UpstreamConfig struct {
	Dispatch WebhookConfig `yaml:"dispatch"`
	History  WebhookConfig `yaml:"history"`
	Banking  BankingConfig `yaml:"banking"`
	Graph    GraphConfig   `yaml:"graph"`
}

// WebhookConfig holds an automation webhook endpoint. Method is GET (query
// parameters) or POST (JSON body).
type WebhookConfig struct {
	URL            string `yaml:"url"`
	Method         string `yaml:"method"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Enabled reports whether the webhook is configured.
func (c WebhookConfig) Enabled() bool { return c.URL != "" }

// Timeout returns the request timeout.
func (c WebhookConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BankingConfig holds the benefit lookup API configuration.
type BankingConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Enabled reports whether the banking API is configured.
func (c BankingConfig) Enabled() bool { return c.BaseURL != "" }

// Timeout returns the request timeout.
func (c BankingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GraphConfig holds WhatsApp Business (Graph API) configuration.
type GraphConfig struct {
	BaseURL        string   `yaml:"base_url"`
	Version        string   `yaml:"version"`
	AccessToken    string   `yaml:"access_token"`
	WABAIDs        []string `yaml:"waba_ids"`
	PageLimit      int      `yaml:"page_limit"`
	MaxPages       int      `yaml:"max_pages"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxRetries     int      `yaml:"max_retries"`
}

// Enabled reports whether the Graph API is configured.
func (c GraphConfig) Enabled() bool { return c.AccessToken != "" && len(c.WABAIDs) > 0 }

// Timeout returns the request timeout.
func (c GraphConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ArchiveConfig holds the S3 archive of consultation history dumps.
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	Prefix     string `yaml:"prefix"`
	AWSProfile string `yaml:"aws_profile"`
	MaxObjects int    `yaml:"max_objects"`
}

// GetAWSProfile returns the AWS profile, or "" (default credential chain)
// inside containers.
func (c ArchiveConfig) GetAWSProfile() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// RedisConfig holds the raw payload cache configuration. An empty URL
// disables the cache.
type RedisConfig struct {
	URL            string `yaml:"url"`
	KeyPrefix      string `yaml:"key_prefix"`
	TTLSeconds     int    `yaml:"ttl_seconds"`
	LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
}

// Enabled reports whether Redis is configured.
func (c RedisConfig) Enabled() bool { return c.URL != "" }

// TTL returns how long raw payloads stay cached.
func (c RedisConfig) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }

// LockTTL returns the fetch lock expiry.
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// EngineConfig holds reconciliation settings.
type EngineConfig struct {
	// Timezone applies to upstream dates without an offset.
	Timezone      string `yaml:"timezone"`
	DisplayLayout string `yaml:"display_layout"`
}

// Location loads the configured timezone.
func (c EngineConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "UTC") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("engine timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on; it defaults to true.
func (c LoggingConfig) Redact() bool { return c.RedactPII == nil || *c.RedactPII }

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with only defaults applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 60
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 10
	}

	for _, wh := range []*WebhookConfig{&cfg.Upstream.Dispatch, &cfg.Upstream.History} {
		if wh.Method == "" {
			wh.Method = "GET"
		}
		wh.Method = strings.ToUpper(wh.Method)
		if wh.TimeoutSeconds == 0 {
			wh.TimeoutSeconds = 30
		}
		if wh.MaxRetries == 0 {
			wh.MaxRetries = 2
		}
	}
	if cfg.Upstream.Banking.TimeoutSeconds == 0 {
		cfg.Upstream.Banking.TimeoutSeconds = 30
	}
	if cfg.Upstream.Banking.MaxRetries == 0 {
		cfg.Upstream.Banking.MaxRetries = 2
	}

	g := &cfg.Upstream.Graph
	if g.BaseURL == "" {
		g.BaseURL = "https://graph.facebook.com"
	}
	if g.Version == "" {
		g.Version = "v19.0"
	}
	if g.PageLimit == 0 {
		g.PageLimit = 100
	}
	if g.MaxPages == 0 {
		g.MaxPages = 20
	}
	if g.TimeoutSeconds == 0 {
		g.TimeoutSeconds = 30
	}
	if g.MaxRetries == 0 {
		g.MaxRetries = 3
	}

	if cfg.HistoryArchive.Region == "" {
		cfg.HistoryArchive.Region = "us-east-1"
	}
	if cfg.HistoryArchive.MaxObjects == 0 {
		cfg.HistoryArchive.MaxObjects = 50
	}

	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "recon"
	}
	if cfg.Redis.TTLSeconds == 0 {
		cfg.Redis.TTLSeconds = 60
	}
	if cfg.Redis.LockTTLSeconds == 0 {
		cfg.Redis.LockTTLSeconds = 30
	}

	if cfg.Engine.Timezone == "" {
		cfg.Engine.Timezone = "America/Sao_Paulo"
	}
	if cfg.Engine.DisplayLayout == "" {
		cfg.Engine.DisplayLayout = "02/01/2006 15:04"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in containers.
// A missing config file is not an error here: defaults plus environment
// are enough to run.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	var cfg *Config
	if _, err := os.Stat(path); err == nil {
		c, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = Default()
	}

	// Upstream overrides
	if v := os.Getenv("DISPATCH_WEBHOOK_URL"); v != "" {
		cfg.Upstream.Dispatch.URL = v
	}
	if v := os.Getenv("DISPATCH_WEBHOOK_TOKEN"); v != "" {
		cfg.Upstream.Dispatch.Token = v
	}
	if v := os.Getenv("HISTORY_WEBHOOK_URL"); v != "" {
		cfg.Upstream.History.URL = v
	}
	if v := os.Getenv("HISTORY_WEBHOOK_TOKEN"); v != "" {
		cfg.Upstream.History.Token = v
	}
	if v := os.Getenv("BANKING_BASE_URL"); v != "" {
		cfg.Upstream.Banking.BaseURL = v
	}
	if v := os.Getenv("BANKING_API_KEY"); v != "" {
		cfg.Upstream.Banking.APIKey = v
	}
	if v := os.Getenv("GRAPH_ACCESS_TOKEN"); v != "" {
		cfg.Upstream.Graph.AccessToken = v
	}
	if v := os.Getenv("GRAPH_WABA_IDS"); v != "" {
		cfg.Upstream.Graph.WABAIDs = splitList(v)
	}

	// Archive overrides
	if v := os.Getenv("HISTORY_ARCHIVE_BUCKET"); v != "" {
		cfg.HistoryArchive.Bucket = v
		cfg.HistoryArchive.Enabled = true
	}
	if v := os.Getenv("HISTORY_ARCHIVE_REGION"); v != "" {
		cfg.HistoryArchive.Region = v
	}

	// Redis and server overrides
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("ENGINE_TIMEZONE"); v != "" {
		cfg.Engine.Timezone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
