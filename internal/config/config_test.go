package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "local")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Client.RequestTimeout)
	assert.Equal(t, 20, cfg.Client.PageSize)
	assert.Equal(t, time.Second, cfg.Client.ReconnectInitial)
	assert.Equal(t, 30*time.Second, cfg.Client.ReconnectMax)
	assert.Equal(t, "ws://localhost:8090/ws", cfg.Client.WSURL)
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("ANGPLE_TOKEN", "from-env")
	t.Setenv("PORT", "9100")

	path := writeConfig(t, `
server:
  port: 8081
client:
  api_url: http://api.example/api/v1
  token: from-file
  request_timeout: 3s
  page_size: 50
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "http://api.example/api/v1", cfg.Client.APIURL)
	assert.Equal(t, "from-env", cfg.Client.Token)
	assert.Equal(t, 3*time.Second, cfg.Client.RequestTimeout)
	assert.Equal(t, 50, cfg.Client.PageSize)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	path := writeConfig(t, `
database:
  driver: postgres
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database.driver")
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "server: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORS: CORSConfig{AllowOrigins: "http://a.test, http://b.test,,"}}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "(unset)", mask(""))
	assert.Equal(t, "****", mask("abc"))
	assert.Equal(t, "se****et", mask("secret"))
}
