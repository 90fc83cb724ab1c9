package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mongokit/pkg/config"
)

type fileConfig struct {
	DatabaseID      string        `env:"FILE_TEST_DATABASE_ID" envDefault:"db1" yaml:"databaseId"`
	ApplicationName string        `env:"FILE_TEST_APPLICATION_NAME" yaml:"applicationName"`
	ConnectionURL   string        `env:"FILE_TEST_CONNECTION_STRING" envDefault:"mongodb://localhost:27017" yaml:"connectionString"`
	FindBatchSize   *int32        `env:"FILE_TEST_FIND_BATCH_SIZE" yaml:"findBatchSize"`
	FindLimit       *int64        `env:"FILE_TEST_FIND_LIMIT" yaml:"findLimit"`
	RetryInterval   time.Duration `env:"FILE_TEST_RETRY_INTERVAL" envDefault:"5s" yaml:"retryInterval"`
}

func unsetFileTestEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FILE_TEST_DATABASE_ID",
		"FILE_TEST_APPLICATION_NAME",
		"FILE_TEST_CONNECTION_STRING",
		"FILE_TEST_FIND_BATCH_SIZE",
		"FILE_TEST_FIND_LIMIT",
		"FILE_TEST_RETRY_INTERVAL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFile_SectionOverridesDefaults(t *testing.T) {
	unsetFileTestEnv(t)

	var cfg fileConfig
	require.NoError(t, config.LoadFile("testdata/app.yaml", "mongodb", &cfg))

	assert.Equal(t, "tb1", cfg.DatabaseID)
	assert.Equal(t, "from-file", cfg.ApplicationName)
	assert.Equal(t, "mongodb://localhost:27017", cfg.ConnectionURL, "default kept when the file is silent")
	require.NotNil(t, cfg.FindBatchSize)
	assert.Equal(t, int32(250), *cfg.FindBatchSize)
	assert.Nil(t, cfg.FindLimit)
	assert.Equal(t, 2*time.Second, cfg.RetryInterval)
}

func TestLoadFile_EnvironmentWins(t *testing.T) {
	unsetFileTestEnv(t)
	t.Setenv("FILE_TEST_DATABASE_ID", "from-env")
	t.Setenv("FILE_TEST_FIND_LIMIT", "10")

	var cfg fileConfig
	require.NoError(t, config.LoadFile("testdata/app.yaml", "mongodb", &cfg))

	assert.Equal(t, "from-env", cfg.DatabaseID)
	assert.Equal(t, "from-file", cfg.ApplicationName)
	require.NotNil(t, cfg.FindLimit)
	assert.Equal(t, int64(10), *cfg.FindLimit)
}

func TestLoadFile_MissingSection(t *testing.T) {
	unsetFileTestEnv(t)

	var cfg fileConfig
	require.NoError(t, config.LoadFile("testdata/app.yaml", "absent", &cfg))
	assert.Equal(t, "db1", cfg.DatabaseID)
	assert.Equal(t, 5*time.Second, cfg.RetryInterval)
}

func TestLoadFile_Errors(t *testing.T) {
	unsetFileTestEnv(t)

	var cfg fileConfig
	assert.ErrorIs(t, config.LoadFile("testdata/none.yaml", "mongodb", &cfg), config.ErrReadingConfigFile)
	assert.ErrorIs(t, config.LoadFile("testdata/scalar.yaml", "mongodb", &cfg), config.ErrParsingConfigFile)

	var nilCfg *fileConfig
	assert.ErrorIs(t, config.LoadFile("testdata/app.yaml", "mongodb", nilCfg), config.ErrNilPointer)
}
