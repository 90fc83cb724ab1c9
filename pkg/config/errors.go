package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrConfigNotLoaded is returned when a config type could not be stored in the cache.
	ErrConfigNotLoaded = errors.New("configuration has not been loaded")

	// ErrNilPointer is returned when a nil pointer is provided to a loader.
	ErrNilPointer = errors.New("nil pointer provided to config loader")

	// ErrLoadingEnvFile is returned when an explicitly requested .env file cannot be read.
	ErrLoadingEnvFile = errors.New("failed to load env file")

	// ErrReadingConfigFile is returned when a YAML config file cannot be read.
	ErrReadingConfigFile = errors.New("failed to read config file")

	// ErrParsingConfigFile is returned when a YAML config file or section is malformed.
	ErrParsingConfigFile = errors.New("failed to parse config file")
)
