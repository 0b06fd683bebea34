package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
telegram:
  token: "123:abc"
  admin_id: 42
database:
  host: localhost
  name: bot
`

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("BOT_TOKEN", "999:zzz")
	t.Setenv("TELEGRAM_CHANNEL", "@jobs")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "999:zzz", cfg.Telegram.Token)
	assert.Equal(t, "@jobs", cfg.Telegram.Channel)
}

func TestNormalizeRejections(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  admin_id: 1
`))
	assert.ErrorContains(t, err, "token")

	_, err = Load(writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 1
  run_mode: webhook
`))
	assert.ErrorContains(t, err, "webhook.url")

	_, err = Load(writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 1
rate_limit:
  exclude_updates: [carrier_pigeon]
`))
	assert.ErrorContains(t, err, "exclude_updates")
}

func TestBuildCatalogOverride(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
catalog:
  tiers:
    - id: starter
      name: Starter
      price: 1000
  addons:
    - id: boost
      name: Boost
      price: 200
`))
	require.NoError(t, err)

	cat, err := cfg.BuildCatalog()
	require.NoError(t, err)
	assert.Equal(t, 1200, cat.Total("starter", []string{"boost"}))

	// Without an override the built-in catalog is used.
	cfg2, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	cat2, err := cfg2.BuildCatalog()
	require.NoError(t, err)
	assert.Equal(t, 2500, cat2.Total("basic", nil))
}
