package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeDefaultsToLongpoll(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: "Polling"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]Config{
		"missing token":   {},
		"bad run mode":    {Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}},
		"webhook no url":  {Telegram: TelegramConfig{Token: "t", RunMode: RunModeWebhook}},
		"bad exclude":     {Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"poll"}}},
		"negative poll":   {Telegram: TelegramConfig{Token: "t", LongPollTimeoutSeconds: -1}},
		"webhook no port": {Telegram: TelegramConfig{Token: "t", RunMode: RunModeWebhook}, Webhook: WebhookConfig{URL: "https://x", Listen: ":8443"}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if err := Normalize(&cfg); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNormalizeLowercasesExcludes(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "t"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Inline_Query "}},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateInlineQuery {
		t.Fatalf("exclude = %q", cfg.RateLimit.ExcludeUpdates[0])
	}
}

func TestLoadWithoutFileUsesEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" || cfg.Logging.Level != "debug" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "telegram:\n  token: from-file\n  admin_id: 42\nlogging:\n  format: kv\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOT_TOKEN", "from-env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.AdminID != 42 || cfg.Logging.Format != "kv" {
		t.Fatalf("yaml values lost: %+v", cfg)
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("telegram: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	if err := os.WriteFile(env, []byte("TAGBOT_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TAGBOT_TEST_DOTENV", "")
	os.Unsetenv("TAGBOT_TEST_DOTENV")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), env); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("TAGBOT_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("value = %q", got)
	}
}
