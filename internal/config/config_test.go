package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
youtube:
  api_key: yt-key
analysis:
  timeout: 2m
auth:
  api_keys: ["k1:alice", "k2:bob"]
  admin_key: root
`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.Equal(t, "yt-key", cfg.YouTube.APIKey)
	assert.Equal(t, 2*time.Minute, cfg.Analysis.Timeout)
	assert.Equal(t, 500, cfg.Analysis.BatchSize, "defaults still apply")
	assert.Equal(t, 30, cfg.Retention.MaxAge)
	assert.Equal(t, "root", cfg.Auth.AdminKey)

	users, err := cfg.Auth.Users()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k1": "alice", "k2": "bob"}, users)
}

func TestAuthUsers(t *testing.T) {
	users, err := Auth{APIKeys: []string{" k1 : alice ", ""}}.Users()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k1": "alice"}, users)

	_, err = Auth{APIKeys: []string{"missing-name"}}.Users()
	assert.Error(t, err)

	_, err = Auth{APIKeys: []string{":alice"}}.Users()
	assert.Error(t, err)
}
