// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	JWTSecret      string        `yaml:"jwt_secret"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	Language       string        `yaml:"language"` // locale used for user-facing messages
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StorageConfig struct {
	Driver             string        `yaml:"driver"` // memory|sqlite|redis
	SQLitePath         string        `yaml:"sqlite_path"`
	DefaultPrivacyMode string        `yaml:"default_privacy_mode"`
	SweepInterval      time.Duration `yaml:"sweep_interval"`
	IdleEviction       time.Duration `yaml:"idle_eviction"` // drop in-memory controllers unused this long
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // 0 keeps keys until the session layer deletes them
}

type SupabaseConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Table  string `yaml:"table"`
}

type SyncConfig struct {
	Backend string        `yaml:"backend"` // none|postgres|supabase
	Workers int           `yaml:"workers"`
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type AIConfig struct {
	OpenAIKey         string        `yaml:"openai_key"`
	OpenAIBaseURL     string        `yaml:"openai_base_url"` // any OpenAI-compatible gateway
	GeminiKey         string        `yaml:"gemini_key"`
	GeminiURL         string        `yaml:"gemini_url"`
	DefaultModel      string        `yaml:"default_model"`
	ConcurrentLimit   int           `yaml:"concurrent_limit"` // max concurrent AI calls
	MaxFailures       int           `yaml:"max_failures"`     // failures before the circuit breaker trips
	PromptTokenBudget int           `yaml:"prompt_token_budget"`
	MaxOutputTokens   int           `yaml:"max_output_tokens"`
	RateLimit         int           `yaml:"rate_limit"` // generations per session per window
	RateWindow        time.Duration `yaml:"rate_window"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Sync     SyncConfig     `yaml:"sync"`
	AI       AIConfig       `yaml:"ai"`
	Security SecurityConfig `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies defaults and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 15 * time.Second
	}
	if cfg.Server.TokenTTL <= 0 {
		cfg.Server.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.Server.Language == "" {
		cfg.Server.Language = "en"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "act-companion.db"
	}
	if cfg.Storage.DefaultPrivacyMode == "" {
		cfg.Storage.DefaultPrivacyMode = "persist"
	}
	if cfg.Storage.SweepInterval <= 0 {
		cfg.Storage.SweepInterval = 10 * time.Minute
	}
	if cfg.Storage.IdleEviction <= 0 {
		cfg.Storage.IdleEviction = 30 * time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Supabase.Table == "" {
		cfg.Supabase.Table = "act_sessions"
	}
	if cfg.Sync.Backend == "" {
		cfg.Sync.Backend = "none"
	}
	if cfg.Sync.Workers <= 0 {
		cfg.Sync.Workers = 4
	}
	if cfg.Sync.LockTTL <= 0 {
		cfg.Sync.LockTTL = 10 * time.Second
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.MaxFailures <= 0 {
		cfg.AI.MaxFailures = 3
	}
	if cfg.AI.PromptTokenBudget <= 0 {
		cfg.AI.PromptTokenBudget = 2000
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 256
	}
	if cfg.AI.RateLimit <= 0 {
		cfg.AI.RateLimit = 30
	}
	if cfg.AI.RateWindow <= 0 {
		cfg.AI.RateWindow = time.Hour
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "memory", "sqlite":
	case "redis":
		if cfg.Redis.URL == "" {
			return errors.New("redis.url is required for storage.driver=redis")
		}
	default:
		return fmt.Errorf("storage.driver %q not supported", cfg.Storage.Driver)
	}
	switch cfg.Storage.DefaultPrivacyMode {
	case "persist", "session", "private":
	default:
		return fmt.Errorf("storage.default_privacy_mode %q not supported", cfg.Storage.DefaultPrivacyMode)
	}
	switch strings.ToLower(cfg.Sync.Backend) {
	case "none":
	case "postgres":
		if cfg.Database.URL == "" {
			return errors.New("database.url is required for sync.backend=postgres")
		}
	case "supabase":
		if cfg.Supabase.URL == "" || cfg.Supabase.APIKey == "" {
			return errors.New("supabase.url and supabase.api_key are required for sync.backend=supabase")
		}
	default:
		return fmt.Errorf("sync.backend %q not supported", cfg.Sync.Backend)
	}
	if cfg.Server.JWTSecret == "" {
		return errors.New("server.jwt_secret is required")
	}
	if k := len(cfg.Security.EncryptionKey); k != 0 && k != 16 && k != 24 && k != 32 {
		return fmt.Errorf("security.encryption_key must be 16, 24, or 32 bytes; got %d", k)
	}
	return nil
}
