package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finmcp/internal/errors"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "yahoo", cfg.Data.Provider)
	assert.Equal(t, 15*time.Second, cfg.Data.Yahoo.Timeout)
	assert.Equal(t, 3, cfg.Data.Yahoo.MaxAttempts)
	assert.Equal(t, filepath.Join(dir, "bars.db"), cfg.Data.SQLite.Path)
	assert.Equal(t, "native", cfg.Indicators.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.UI.ColorEnabled)

	_, err = os.Stat(Path(dir))
	assert.True(t, os.IsNotExist(err), "Load must not create files")
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte(`
[server]
transport = "http"
addr = ":9090"

[data]
provider = "csv"

[data.csv]
dir = "/srv/bars"

[indicators]
backend = "talib"
`), 0644))

	t.Setenv("FINMCP_LOGGING_LEVEL", "debug")
	t.Setenv("FINMCP_DATA_YAHOO_BURST", "9")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "csv", cfg.Data.Provider)
	assert.Equal(t, "/srv/bars", cfg.Data.CSV.Dir)
	assert.Equal(t, "talib", cfg.Indicators.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 9, cfg.Data.Yahoo.Burst)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FINMCP_DATA_PROVIDER=sqlite\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("FINMCP_DATA_PROVIDER") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Data.Provider)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte("[data]\nprovider = \"bloomberg\"\n"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
	assert.Contains(t, err.Error(), "bloomberg")
}

func TestValidate(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	bad := *cfg
	bad.Server.Transport = "websocket"
	assert.ErrorIs(t, bad.Validate(), apperrors.ErrConfigInvalid)

	bad = *cfg
	bad.Indicators.Backend = "gpu"
	assert.ErrorContains(t, bad.Validate(), "native, talib")

	bad = *cfg
	bad.Data.Provider = "csv"
	bad.Data.CSV.Dir = ""
	assert.ErrorContains(t, bad.Validate(), "data.csv.dir")

	bad = *cfg
	bad.Data.Yahoo.MaxAttempts = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Logging.Level = "loud"
	assert.Error(t, bad.Validate())
}

func TestWriteTemplate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "finmcp")

	path, err := WriteTemplate(dir, false)
	require.NoError(t, err)
	assert.Equal(t, Path(dir), path)

	_, err = WriteTemplate(dir, false)
	assert.ErrorContains(t, err, "already exists")
	_, err = WriteTemplate(dir, true)
	assert.NoError(t, err)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Data.CSV.Dir)
	assert.Equal(t, 2.0, cfg.Data.Yahoo.RequestsPerSecond)
	assert.Equal(t, 30*time.Second, cfg.Data.Yahoo.BreakerCooldown)
}
