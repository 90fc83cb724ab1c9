// Command mongosample inserts a generated set of persons into MongoDB through
// a mongo.Provider and keeps serving probe endpoints until it is stopped.
//
// Configuration comes from the environment (and a .env file), optionally
// layered over the sections of the YAML file named by CONFIG_FILE:
//
//	mongodb:  mongo.Options        (MONGODB_*)
//	sample:   sample.Config        (SAMPLE_*)
//	probes:   httpserver.Config    (PROBE_*)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dmitrymomot/mongokit/internal/sample"
	"github.com/dmitrymomot/mongokit/internal/tracing"
	"github.com/dmitrymomot/mongokit/pkg/config"
	"github.com/dmitrymomot/mongokit/pkg/hosting"
	"github.com/dmitrymomot/mongokit/pkg/httpserver"
	"github.com/dmitrymomot/mongokit/pkg/logger"
	"github.com/dmitrymomot/mongokit/pkg/mongo"
)

const serviceName = "mongosample"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type appConfig struct {
	Environment     string        `env:"APP_ENV" envDefault:"development"`
	ConfigFile      string        `env:"CONFIG_FILE"`
	FreshDatabase   bool          `env:"SAMPLE_FRESH_DATABASE" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	ProbeTimeout    time.Duration `env:"PROBE_REQUEST_TIMEOUT" envDefault:"5s"`
	ProbeCacheTTL   time.Duration `env:"PROBE_DATABASE_CACHE_TTL" envDefault:"10s"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Environment, serviceName),
		logger.WithContextExtractors(tracing.TraceID, httpserver.RequestIDExtractor),
	)
	logger.SetAsDefault(log)

	opts, err := loadMongoOptions(cfg)
	if err != nil {
		return err
	}
	var sampleCfg sample.Config
	if err := loadSection(cfg.ConfigFile, "sample", &sampleCfg); err != nil {
		return err
	}
	var probeCfg httpserver.Config
	if err := loadSection(cfg.ConfigFile, "probes", &probeCfg); err != nil {
		return err
	}

	tp, shutdownTracing := newTracerProvider(log, opts.UseTelemetry)
	defer shutdownTracing()

	provider, err := mongo.New(opts,
		mongo.WithLogger(log.With(logger.Component("mongo"))),
		mongo.WithTracerProvider(tp),
	)
	if err != nil {
		return err
	}

	runner, err := sample.NewRunner(provider, sampleCfg,
		sample.WithLogger(log),
		sample.WithTracerProvider(tp),
	)
	if err != nil {
		return errors.Join(err, provider.Stop(ctx))
	}

	host := hosting.New(
		hosting.WithLogger(log),
		hosting.WithShutdownTimeout(cfg.ShutdownTimeout),
		hosting.WithService("mongo", provider),
	)
	if !probeCfg.Disabled {
		router := httpserver.ProbeRouter(log, httpserver.CacheDatabase(provider, cfg.ProbeCacheTTL), opts.DatabaseID, cfg.ProbeTimeout)
		host.Add("probes", httpserver.NewFromConfig(probeCfg, router, httpserver.WithLogger(log.With(logger.Component("probes")))))
	}
	host.Add("runner", runner)

	return host.Run(ctx)
}

// loadMongoOptions resolves the provider options and applies the sample's
// post-configuration: an application name and, on request, a fresh database
// per run.
func loadMongoOptions(cfg appConfig) (mongo.Options, error) {
	post := func(o *mongo.Options) {
		if o.ApplicationName == "" {
			o.ApplicationName = serviceName
		}
		if cfg.FreshDatabase {
			o.DatabaseID = strconv.FormatInt(time.Now().UnixNano(), 10)
		}
		if cfg.Environment == logger.EnvDevelopment {
			o.DebugLog = true
		}
	}
	if cfg.ConfigFile != "" {
		return mongo.LoadOptionsFile(cfg.ConfigFile, post)
	}
	return mongo.LoadOptions(post)
}

func loadSection[T any](path, section string, v *T) error {
	if path == "" {
		return config.Load(v)
	}
	return config.LoadFile(path, section, v)
}

// newTracerProvider returns the span-logging provider when telemetry is on
// and a no-op provider otherwise.
func newTracerProvider(log *slog.Logger, enabled bool) (trace.TracerProvider, func()) {
	if !enabled {
		return noop.NewTracerProvider(), func() {}
	}

	tp := tracing.NewProvider(log, serviceName, version)
	otel.SetTracerProvider(tp)
	return tp, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("Tracer provider shutdown failed", logger.Error(err))
		}
	}
}
