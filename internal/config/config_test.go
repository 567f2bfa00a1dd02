package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
admin:
  secret: "hunter2"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Fatalf("sslmode default = %q", cfg.Database.SSLMode)
	}
	if cfg.Database.MaxConnections != 4 {
		t.Fatalf("max_connections default = %d", cfg.Database.MaxConnections)
	}
	if got := cfg.Session.TTL(); got != 10*time.Minute {
		t.Fatalf("session ttl default = %v", got)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "from-file"
admin:
  secret: "from-file"
`)
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("ADMIN_PASS", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Admin.Secret != "env-secret" {
		t.Fatalf("secret = %q, want env override", cfg.Admin.Secret)
	}
}

func TestNormalizeRejectsMissingSecrets(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "no token", cfg: Config{Admin: AdminConfig{Secret: "x"}}},
		{name: "no secret", cfg: Config{Telegram: TelegramConfig{Token: "x"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			if err := Normalize(&cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestNormalizeValidatesRateLimitExclusions(t *testing.T) {
	cfg := Config{
		Telegram:  TelegramConfig{Token: "x"},
		Admin:     AdminConfig{Secret: "y"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Callback ", "message"}},
	}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != "callback" {
		t.Fatalf("exclusion not normalized: %q", cfg.RateLimit.ExcludeUpdates[0])
	}

	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	if err := Normalize(&cfg); err == nil {
		t.Fatal("expected error for unsupported exclusion")
	}
}
