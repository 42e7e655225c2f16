package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, ":8080", cfg.Server.Addr())
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"storage": {"backend": "baserow", "fallback": true},
		"baserow": {"token": "from-file", "tableId": "42"},
		"server": {"port": 3000},
		"spotify": {"oembedUrl": ""}
	}`), 0644))

	t.Setenv("BASEROW_TOKEN", "from-env")
	t.Setenv("BASEROW_TIMEOUT", "5s")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "baserow", cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Fallback)
	assert.Equal(t, "dedications.json", cfg.Storage.DataFile)
	assert.Equal(t, "42", cfg.Baserow.TableID)
	assert.Equal(t, "from-env", cfg.Baserow.Token)
	assert.Equal(t, 5*time.Second, cfg.Baserow.Timeout)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Empty(t, cfg.Spotify.OEmbedURL)
	assert.Equal(t, 3*time.Second, cfg.Spotify.Timeout)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "firestore")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "unknown storage backend")

	t.Setenv("STORAGE_BACKEND", "sql")
	t.Setenv("SQL_DRIVER", "postgres")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "unknown sql driver")
}

func TestLoadConfigBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": `), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "decode config file")
}
