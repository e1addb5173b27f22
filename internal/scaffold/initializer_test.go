package scaffold

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/muster/internal/config"
)

func TestInitialize(t *testing.T) {
	t.Setenv(config.EnvRedisURL, "")
	t.Setenv(config.EnvInstance, "")

	t.Run("writes a loadable config with defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "muster.yml")

		cfg, err := Initialize(Options{Path: path, OwnerEmail: "owner@example.com"}, false)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultInstance, cfg.Instance)

		loaded, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "owner@example.com", loaded.OwnerEmail)
		assert.Equal(t, config.DefaultRole, loaded.Invite.Role)
		assert.Equal(t, config.DefaultRoles, loaded.Roles)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "# Muster configuration.")
	})

	t.Run("keeps explicit settings", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "muster.yml")

		_, err := Initialize(Options{
			Path:       path,
			OwnerEmail: "owner@example.com",
			Instance:   "staging",
			RedisURL:   "redis://redis.internal:6380",
			Role:       "Editor",
		}, false)
		require.NoError(t, err)

		loaded, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "staging", loaded.Instance)
		assert.Equal(t, "redis://redis.internal:6380", loaded.RedisURL)
		assert.Equal(t, "Editor", loaded.Invite.Role)
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "muster.yml")
		require.NoError(t, os.WriteFile(path, []byte("keep me"), 0644))

		_, err := Initialize(Options{Path: path, OwnerEmail: "owner@example.com"}, false)
		var exists *ExistsError
		require.True(t, errors.As(err, &exists))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "keep me", string(content))
	})

	t.Run("overwrites with force", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "muster.yml")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

		_, err := Initialize(Options{Path: path, OwnerEmail: "owner@example.com"}, true)
		require.NoError(t, err)

		_, err = config.Load(path)
		require.NoError(t, err)
	})

	t.Run("requires an owner", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "muster.yml")

		_, err := Initialize(Options{Path: path}, false)
		assert.ErrorContains(t, err, "owner_email is required")

		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestCheckExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "muster.yml")

	assert.NoError(t, CheckExisting(path))

	require.NoError(t, os.WriteFile(path, nil, 0644))
	assert.EqualError(t, CheckExisting(path), path+" already exists")
}
