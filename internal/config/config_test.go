//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  jwt_secret: s3cret\n"), false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	checks := []struct {
		name string
		ok   bool
	}{
		{"port", cfg.Server.Port == 8080},
		{"language", cfg.Server.Language == "en"},
		{"token ttl", cfg.Server.TokenTTL == 30*24*time.Hour},
		{"storage driver", cfg.Storage.Driver == "sqlite"},
		{"privacy mode", cfg.Storage.DefaultPrivacyMode == "persist"},
		{"sync backend", cfg.Sync.Backend == "none"},
		{"max failures", cfg.AI.MaxFailures == 3},
		{"rate window", cfg.AI.RateWindow == time.Hour},
		{"supabase table", cfg.Supabase.Table == "act_sessions"},
	}
	for _, c := range checks {
		if !c.ok {
			t.Errorf("default %s not applied: %+v", c.name, cfg)
		}
	}
	if cfg.Runtime.Dev {
		t.Error("dev flag should be off")
	}
}

func TestParse_Validation(t *testing.T) {
	cases := map[string]struct {
		yaml string
		want string
	}{
		"missing jwt secret": {
			yaml: "log:\n  level: debug\n",
			want: "jwt_secret",
		},
		"unknown storage driver": {
			yaml: "server: {jwt_secret: x}\nstorage: {driver: mongo}\n",
			want: "storage.driver",
		},
		"redis without url": {
			yaml: "server: {jwt_secret: x}\nstorage: {driver: redis}\n",
			want: "redis.url",
		},
		"postgres sync without url": {
			yaml: "server: {jwt_secret: x}\nsync: {backend: postgres}\n",
			want: "database.url",
		},
		"supabase sync without key": {
			yaml: "server: {jwt_secret: x}\nsync: {backend: supabase}\nsupabase: {url: http://localhost}\n",
			want: "supabase.url",
		},
		"bad privacy mode": {
			yaml: "server: {jwt_secret: x}\nstorage: {default_privacy_mode: public}\n",
			want: "default_privacy_mode",
		},
		"bad key length": {
			yaml: "server: {jwt_secret: x}\nsecurity: {encryption_key: short}\n",
			want: "encryption_key",
		},
	}
	for name, tc := range cases {
		t.Run("should reject "+name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), false)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("should read a file and keep explicit values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := `
server:
  port: 9090
  jwt_secret: s3cret
  request_timeout: 5s
storage:
  driver: memory
  sweep_interval: 1m
ai:
  openai_key: sk-test
  rate_limit: 5
`
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path, true)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.Server.Port != 9090 || cfg.Server.RequestTimeout != 5*time.Second {
			t.Errorf("server = %+v", cfg.Server)
		}
		if cfg.Storage.Driver != "memory" || cfg.Storage.SweepInterval != time.Minute {
			t.Errorf("storage = %+v", cfg.Storage)
		}
		if cfg.AI.RateLimit != 5 || cfg.AI.OpenAIKey != "sk-test" {
			t.Errorf("ai = %+v", cfg.AI)
		}
		if !cfg.Runtime.Dev {
			t.Error("dev flag lost")
		}
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
			t.Error("expected an error")
		}
	})
}
