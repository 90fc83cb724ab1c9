// Package config loads typed configuration from environment variables and,
// optionally, a YAML file.
//
// It wraps github.com/joho/godotenv, github.com/caarlos0/env/v11 and
// gopkg.in/yaml.v3:
//
//   - Load parses the environment into a struct annotated with `env` tags and
//     caches the result per type for the life of the process.
//   - LoadEnv loads one or more .env files into the process environment
//     without overriding variables that are already set.
//   - LoadFile reads one top-level section of a YAML file into the struct,
//     layered between `envDefault` values and real environment variables.
//   - ResetCache drops cached values, mainly for tests.
//
// # Usage
//
//	type MongoConfig struct {
//	    DatabaseID string `env:"MONGODB_DATABASE_ID" envDefault:"db1" yaml:"databaseId"`
//	}
//
//	var cfg MongoConfig
//	if err := config.LoadFile("config.yaml", "mongodb", &cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// # Precedence
//
// For LoadFile the order, lowest first, is: envDefault tag, YAML section,
// environment. Load has no file layer.
//
// # Error Handling
//
// Errors are joined with the sentinels in errors.go (ErrParsingConfig,
// ErrParsingConfigFile, ErrReadingConfigFile, ...) and can be tested with
// errors.Is.
package config
