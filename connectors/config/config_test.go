package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
source: dir
data_dir: /srv/painel
top_n: 3
local_files:
  fato_data: datas.xlsx
  fato_hora: horas.xlsx
  fato_local: locais.csv
web:
  addr: ":9000"
  preload: true
`)
	t.Setenv("PORT", "7000")
	t.Setenv("PAINEL_TOP_N", "4")
	t.Setenv("PAINEL_SOURCE", "")
	t.Setenv("LOG_LEVEL", "")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dir", c.Source)
	assert.Equal(t, "/srv/painel", c.DataDir)
	assert.Equal(t, 4, c.TopN)
	assert.Equal(t, ":7000", c.Web.Addr)
	assert.True(t, c.Web.Preload)
	assert.Equal(t, "locais.csv", c.LocalFiles.Location)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, "source: ftp\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)

	path = writeConfig(t, "top_n: [1\n")
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRequireDrive(t *testing.T) {
	c := Defaults()
	c.Drive.Files.Date = "abc"

	err := RequireDrive(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "GOOGLE_SERVICE_ACCOUNT_JSON")
	assert.Contains(t, err.Error(), "FATO_HORA_FILE_ID")
	assert.NotContains(t, err.Error(), "FATO_DATA_FILE_ID")

	c.Drive.ServiceAccountJSON = "{}"
	c.Drive.Files.Hour = "def"
	c.Drive.Files.Location = "ghi"
	assert.NoError(t, RequireDrive(c))
}

func TestLoad_EnvDriveSettings(t *testing.T) {
	path := writeConfig(t, "source: drive\n")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"type":"service_account"}`)
	t.Setenv("FATO_DATA_FILE_ID", "id-data")
	t.Setenv("FATO_HORA_FILE_ID", "id-hora")
	t.Setenv("FATO_LOCAL_FILE_ID", "id-local")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "id-hora", c.Drive.Files.Hour)
	assert.NoError(t, RequireDrive(c))
}

func TestLoad_SetsLogLevel(t *testing.T) {
	t.Cleanup(func() { Level.Set(slog.LevelInfo) })
	path := writeConfig(t, "log_level: debug\n")
	t.Setenv("LOG_LEVEL", "")

	_, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, Level.Level())
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
