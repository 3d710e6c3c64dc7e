package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://dummyjson.com", cfg.BaseURL)
	assert.Equal(t, "/test", cfg.StatusPath)
	assert.Len(t, cfg.Resources, 0)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.ServiceTimeout)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 1, cfg.RateBurst)
	assert.Equal(t, []string{"password"}, cfg.RedactFields)
	assert.Equal(t, 8111, cfg.Port)
	assert.Equal(t, "", cfg.Mock)
}

func TestEnvFile(t *testing.T) {
	path := writeEnvFile(t, `
CRUD_CONTRACT_BASE_URL=http://localhost:3000
CRUD_CONTRACT_RESOURCES=posts,users
CRUD_CONTRACT_REQUEST_TIMEOUT=2s
UNRELATED=x
`)
	cfg, err := load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, []string{"posts", "users"}, cfg.Resources)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestEnvironmentOverridesEnvFile(t *testing.T) {
	path := writeEnvFile(t, "CRUD_CONTRACT_PORT=9000\nCRUD_CONTRACT_MOCK=loose\n")
	cfg, err := load(path, []string{"CRUD_CONTRACT_PORT=9100", "PORT=1"})
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "loose", cfg.Mock)
}

func TestInvalidValue(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.env"), []string{"CRUD_CONTRACT_RATE_LIMIT=fast"})
	assert.Error(t, err)
}

func TestLoadUsesProcessEnvironment(t *testing.T) {
	t.Setenv("CRUD_CONTRACT_REDIS_URL", "redis://localhost:6379/1")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
}
