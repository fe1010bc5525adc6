package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/wipecert/internal/constants"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	assert.Equal(t, constants.DefaultRSAKeyBits, cfg.Keys.Bits)
	assert.Empty(t, cfg.Keys.Path)
	assert.Equal(t, constants.DefaultLockTimeout, cfg.Trail.LockTimeout)
	assert.Equal(t, constants.DefaultPasses, cfg.Erase.Passes)
	assert.Equal(t, constants.DefaultConcurrency, cfg.Erase.Concurrency)
	assert.Equal(t, constants.StandardNIST80088, cfg.Erase.Standards)
	assert.Empty(t, cfg.Identity.OperatorID)
	assert.Empty(t, cfg.Identity.DeviceID)
}

func TestConfig_YAMLTags(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Identity.OperatorID = "alice"

	data, err := Marshal(cfg)
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))

	assert.Contains(t, raw, "keys")
	assert.Contains(t, raw, "trail")
	assert.Contains(t, raw, "erase")
	assert.Contains(t, raw, "identity")
	assert.Equal(t, "alice", raw["identity"]["operator_id"])
	assert.Equal(t, "5s", raw["trail"]["lock_timeout"])
	assert.Equal(t, constants.DefaultPasses, raw["erase"]["passes"])
}

func TestMarshal_Nil(t *testing.T) {
	t.Parallel()

	_, err := Marshal(nil)
	require.ErrorIs(t, err, wcerrors.ErrConfigNil)
}

func TestWrite(t *testing.T) {
	t.Parallel()

	t.Run("creates file and parent directories", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")

		require.NoError(t, Write(path, DefaultConfig(), false))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(constants.FilePerm), info.Mode().Perm())

		data, err := os.ReadFile(path) //nolint:gosec // test path
		require.NoError(t, err)
		assert.Contains(t, string(data), "# wipecert configuration")
		assert.Contains(t, string(data), "passes: 3")
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("keep: me\n"), 0o600))

		err := Write(path, DefaultConfig(), false)
		require.ErrorIs(t, err, wcerrors.ErrConfigExists)

		data, err := os.ReadFile(path) //nolint:gosec // test path
		require.NoError(t, err)
		assert.Equal(t, "keep: me\n", string(data))
	})

	t.Run("overwrites with force", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("keep: me\n"), 0o600))

		require.NoError(t, Write(path, DefaultConfig(), true))

		data, err := os.ReadFile(path) //nolint:gosec // test path
		require.NoError(t, err)
		assert.NotContains(t, string(data), "keep: me")
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.Erase.Passes = 0
		path := filepath.Join(t.TempDir(), "config.yaml")

		err := Write(path, cfg, false)
		require.ErrorIs(t, err, wcerrors.ErrConfigInvalidErase)
		assert.NoFileExists(t, path)
	})
}

func TestWrite_RoundTripsThroughLoad(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Keys.Bits = 3072
	cfg.Trail.LockTimeout = 12 * time.Second
	cfg.Erase.Passes = 7
	cfg.Identity.OperatorID = "alice"
	cfg.Identity.DeviceID = "ws-01"

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Write(path, cfg, false))

	loaded, err := LoadFromPaths(t.Context(), "", path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
