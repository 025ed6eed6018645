package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaussdb/gaussdb-mcp/internal/sys"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{sys.Host, sys.Port, sys.User, sys.Password, sys.Database, sys.AdminDatabase, sys.SSLMode, sys.ConnectTimeout, sys.LogFile, sys.APIToken, sys.ConfigFile} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "127.0.0.1:8000", cfg.Address())
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("host: db.example.com\nport: 5432\ndatabase: shop\nuser: alice\n"), 0600)
	require.NoError(t, err)

	t.Setenv(sys.Database, "inventory")
	t.Setenv(sys.ConnectTimeout, "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.example.com", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, "inventory", cfg.Database)
	assert.Equal(t, 5, cfg.ConnectTimeout)
	assert.Equal(t, "postgres", cfg.AdminDatabase)
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("port: 26000\n"), 0600)
	require.NoError(t, err)

	t.Setenv(sys.ConfigFile, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 26000, cfg.Port)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "Port is not a number", key: sys.Port, value: "abc"},
		{name: "Port out of range", key: sys.Port, value: "70000"},
		{name: "Empty host", key: sys.Host, value: ""},
		{name: "Malformed host", key: sys.Host, value: "db..example.com"},
		{name: "Negative timeout", key: sys.ConnectTimeout, value: "-1"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(test.key, test.value)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	cfg := Default()
	cfg.Password = `it's a \secret`
	cfg.ConnectTimeout = 10

	dsn := cfg.DSN("shop")
	assert.Equal(t, `host='127.0.0.1' port='8000' user='root' password='it\'s a \\secret' dbname='shop' sslmode='disable' connect_timeout='10'`, dsn)
}

func TestWriteRoundTrip(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	cfg.Host = "10.0.0.5"
	cfg.Database = "orders"

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Write(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
