package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv_Priority(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ANGPLE_WS_URL=ws://base\nANGPLE_API_URL=http://base\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.staging"), []byte("ANGPLE_WS_URL=ws://staging\n"), 0o600))
	chdir(t, dir)

	t.Setenv("APP_ENV", "staging")
	t.Setenv("ANGPLE_WS_URL", "")
	t.Setenv("ANGPLE_API_URL", "")
	os.Unsetenv("ANGPLE_WS_URL")
	os.Unsetenv("ANGPLE_API_URL")

	loaded := LoadDotEnv()
	assert.Equal(t, []string{".env.staging", ".env"}, loaded)
	assert.Equal(t, "ws://staging", os.Getenv("ANGPLE_WS_URL"))
	assert.Equal(t, "http://base", os.Getenv("ANGPLE_API_URL"))
}

func TestLoadDotEnv_RealEnvWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ANGPLE_TOKEN=from-file\n"), 0o600))
	chdir(t, dir)
	t.Setenv("APP_ENV", "")
	t.Setenv("ANGPLE_TOKEN", "from-env")

	assert.Equal(t, []string{".env"}, LoadDotEnv())
	assert.Equal(t, "from-env", os.Getenv("ANGPLE_TOKEN"))
}

// chdir switches the working directory for the duration of the test,
// restoring it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
