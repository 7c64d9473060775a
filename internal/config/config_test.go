package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NotEmpty(t, cfg.MySQL.DSN)
	assert.Equal(t, 50, cfg.Auth.HashReplicas)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SHOP_MYSQL_DSN", "shop:pw@tcp(db:3306)/shop")
	t.Setenv("SHOP_SERVER_PORT", "9090")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "shop:pw@tcp(db:3306)/shop", cfg.MySQL.DSN)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	body := "server:\n  port: 7070\njwt:\n  secret: from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	// Untouched keys keep their defaults.
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
}
