package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, 3*time.Second, cfg.Trading.MinTradeInterval)
	assert.Equal(t, 60*time.Second, cfg.Trading.MaxExecutionTime)
	assert.Equal(t, 200*time.Millisecond, cfg.Trading.SettleDelay)
	assert.Equal(t, "simple", cfg.Trading.Exit.Type)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: sqlite
  path: /tmp/macros.db
trading:
  leverage: 10
  positions: [50, 30, 20]
  exit:
    type: split
    split_tp: [1, 2, 3]
telegram:
  trigger: BTC
`), 0o600))

	t.Setenv("MACRO_TRADING_STOP_LOSS_PCT", "1.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 10.0, cfg.Trading.Leverage)
	assert.Equal(t, []float64{50, 30, 20}, cfg.Trading.Positions)
	assert.Equal(t, []float64{1, 2, 3}, cfg.Trading.Exit.SplitTp)
	assert.Equal(t, 1.5, cfg.Trading.StopLossPct)
	assert.Equal(t, "BTC", cfg.Telegram.Trigger)
}

func TestValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: redis\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "storage.driver")
}

func TestValidatePriceSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte("price:\n  source: okx_ws\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "price.inst_id")

	require.NoError(t, os.WriteFile(path, []byte("price:\n  source: okx_ws\n  inst_id: BTC-USDT-SWAP\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://www.okx.com", cfg.Price.RestURL)
}

func TestLocalValuesFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "values_local.yaml"))
	require.NoError(t, err)

	assert.False(t, cfg.Trading.FallbackDetection, "element detection without a macro is opt-in")
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "dom", cfg.Price.Source)
	assert.False(t, cfg.Telegram.Enabled)
}
