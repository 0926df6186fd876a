package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()

	cfg, err := LoadConfig(home, "")
	require.NoError(t, err)

	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, filepath.Join(home, "data"), cfg.DataDir)
	assert.Equal(t, filepath.Join(home, "users.json"), cfg.UserFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.DirExists(t, cfg.DataDir)
	assert.DirExists(t, cfg.LogDir)
}

func TestLoadConfigFromEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HEAPSTORE_HOME", home)

	cfg, err := LoadConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, home, cfg.Home)
}

func TestLoadConfigYAML(t *testing.T) {
	home := t.TempDir()
	data := filepath.Join(home, "elsewhere")
	yml := "addr: 0.0.0.0:9000\nlog_level: debug\ndata_dir: " + data + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(yml), 0o644))

	cfg, err := LoadConfig(home, "")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, data, cfg.DataDir)
	assert.DirExists(t, data)
}

func TestLoadConfigErrors(t *testing.T) {
	home := t.TempDir()

	_, err := LoadConfig(home, filepath.Join(home, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(home, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("addr: [unterminated\n"), 0o644))
	_, err = LoadConfig(home, bad)
	assert.Error(t, err)

	tls := filepath.Join(home, "tls.yaml")
	require.NoError(t, os.WriteFile(tls, []byte("enable_tls: true\n"), 0o644))
	_, err = LoadConfig(home, tls)
	assert.Error(t, err)
}
