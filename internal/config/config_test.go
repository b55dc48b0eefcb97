package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "CHUNK_SIZE", "OLLAMA_TIMEOUT_SECONDS", "DATABASE_URL", "DB_HOST", "DISCOVER_UNKNOWN_FORMATS", "ENV"} {
		t.Setenv(k, "")
	}

	cfg, loaded, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 4000, cfg.ChunkSize)
	assert.Equal(t, 300*time.Second, cfg.OllamaTimeout)
	assert.False(t, cfg.DatabaseEnabled())
	assert.False(t, cfg.DiscoverUnknownFormats)
	assert.Equal(t, "http://localhost:5173", cfg.AllowedOrigin())
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOGLENS_TEST_ONLY=1\n"), 0o600))
	t.Setenv("CHUNK_SIZE", "128")
	t.Setenv("DISCOVER_UNKNOWN_FORMATS", "true")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/loglens")
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ORIGIN", "https://logs.example.com")
	t.Cleanup(func() { os.Unsetenv("LOGLENS_TEST_ONLY") })

	cfg, loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "1", os.Getenv("LOGLENS_TEST_ONLY"))
	assert.Equal(t, 128, cfg.ChunkSize)
	assert.True(t, cfg.DiscoverUnknownFormats)
	assert.True(t, cfg.DatabaseEnabled())
	assert.Equal(t, "postgres://u:p@db:5432/loglens", cfg.DSN())
	assert.Equal(t, "https://logs.example.com", cfg.AllowedOrigin())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "lots")
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "CHUNK_SIZE")

	t.Setenv("CHUNK_SIZE", "0")
	_, _, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "must be positive")
}

func TestDSN_FromParts(t *testing.T) {
	cfg := &Config{DBHost: "localhost", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.True(t, cfg.DatabaseEnabled())
	assert.Equal(t, "host=localhost user=u password=p dbname=n port=5432 sslmode=disable", cfg.DSN())
}
