package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/tagbot/core/config"
	tg "github.com/m3rciful/tagbot/core/telegram"
	"github.com/m3rciful/tagbot/internal/sqltest"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "tagbot")
	t.Setenv("DB_NAME", "tagbot")
}

func TestLoadConfigFromEnv(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TELEGRAM_ADMIN_ID", "42")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, DialogStoreMemory, cfg.Dialog.Store)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadConfigYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
telegram:
  token: "from-yaml"
database:
  host: db
  port: "6543"
  user: bot
  name: tags
dialog:
  store: Postgres
sender:
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "6543", cfg.Database.Port)
	assert.Equal(t, DialogStorePostgres, cfg.Dialog.Store)
	assert.Equal(t, 2, cfg.Sender.Workers)
}

func TestLoadConfigRejectsMissingDatabase(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host is required")
	assert.Contains(t, err.Error(), "database.name is required")
}

func TestLoadConfigRejectsUnknownDialogStore(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DIALOG_STORE", "redis")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialog.store must be one of")
}

func TestLoadConfigRequiresToken(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("BOT_TOKEN", "")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func testConfig(store string) *Config {
	cfg := &Config{Dialog: DialogConfig{Store: store}}
	cfg.Telegram.Token = "123:abc"
	cfg.Telegram.AdminID = 7
	return cfg
}

func TestTelegramRunOptions(t *testing.T) {
	for _, store := range []string{DialogStoreMemory, DialogStorePostgres} {
		t.Run(store, func(t *testing.T) {
			a, err := newApp(testConfig(store), sqltest.Open(t))
			require.NoError(t, err)

			opts, err := a.TelegramRunOptions()
			require.NoError(t, err)

			require.NotNil(t, opts.Registry)
			assert.Equal(t, []string{"/add_tag", "/remove_tag", "/edit_tag", "/start", "/stats"}, opts.Registry.Commands())
			assert.NotEmpty(t, opts.Routes)
			assert.NotEmpty(t, opts.Middlewares)
			assert.NotNil(t, opts.OnStart)
			assert.NotNil(t, opts.OnStop)
		})
	}
}

func TestNewAppRejectsUnknownStore(t *testing.T) {
	_, err := newApp(testConfig("redis"), sqltest.Open(t))
	require.Error(t, err)
}

func TestOnStopClosesDatabase(t *testing.T) {
	db := sqltest.Open(t)
	a, err := newApp(testConfig(DialogStoreMemory), db)
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	require.NoError(t, opts.OnStop(context.Background(), tg.Runtime{}))
	assert.Error(t, db.Ping())
}
