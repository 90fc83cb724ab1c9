package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mongokit/internal/sample"
	"github.com/dmitrymomot/mongokit/pkg/config"
	"github.com/dmitrymomot/mongokit/pkg/logger"
)

func TestLoadMongoOptions(t *testing.T) {
	t.Cleanup(config.ResetCache)

	t.Run("defaults for development", func(t *testing.T) {
		config.ResetCache()
		opts, err := loadMongoOptions(appConfig{Environment: logger.EnvDevelopment})
		require.NoError(t, err)
		assert.Equal(t, "db1", opts.DatabaseID)
		assert.Equal(t, serviceName, opts.ApplicationName)
		assert.True(t, opts.DebugLog)
	})

	t.Run("configured application name is kept", func(t *testing.T) {
		config.ResetCache()
		t.Setenv("MONGODB_APPLICATION_NAME", "myapp")
		opts, err := loadMongoOptions(appConfig{Environment: logger.EnvProduction})
		require.NoError(t, err)
		assert.Equal(t, "myapp", opts.ApplicationName)
		assert.False(t, opts.DebugLog)
	})

	t.Run("fresh database", func(t *testing.T) {
		config.ResetCache()
		opts, err := loadMongoOptions(appConfig{FreshDatabase: true})
		require.NoError(t, err)
		assert.NotEqual(t, "db1", opts.DatabaseID)
		assert.Regexp(t, `^\d+$`, opts.DatabaseID)
	})

	t.Run("from file", func(t *testing.T) {
		opts, err := loadMongoOptions(appConfig{ConfigFile: "app.example.yaml"})
		require.NoError(t, err)
		assert.Equal(t, "tb1", opts.DatabaseID)
		assert.Equal(t, "myapp", opts.ApplicationName)
		assert.True(t, opts.UseTelemetry)
	})
}

func TestLoadSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample:\n  persons: 12\n"), 0o600))

	var cfg sample.Config
	require.NoError(t, loadSection(path, "sample", &cfg))
	assert.Equal(t, 12, cfg.Persons)
	assert.Equal(t, 10000, cfg.BatchSize)
	assert.Equal(t, 4, cfg.Workers)
}

func TestNewTracerProvider(t *testing.T) {
	tp, shutdown := newTracerProvider(logger.Discard(), false)
	assert.NotNil(t, tp)
	shutdown()
}
