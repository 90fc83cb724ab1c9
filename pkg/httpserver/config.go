package httpserver

import (
	"net/http"
	"time"
)

type Config struct {
	Addr            string        `env:"PROBE_ADDR" envDefault:":8080" yaml:"addr"`                     // Addr is the address the probe server listens on.
	ReadTimeout     time.Duration `env:"PROBE_READ_TIMEOUT" envDefault:"5s" yaml:"readTimeout"`         // ReadTimeout is the maximum duration for reading the entire request.
	WriteTimeout    time.Duration `env:"PROBE_WRITE_TIMEOUT" envDefault:"10s" yaml:"writeTimeout"`      // WriteTimeout is the maximum duration before timing out writes of the response.
	IdleTimeout     time.Duration `env:"PROBE_IDLE_TIMEOUT" envDefault:"60s" yaml:"idleTimeout"`        // IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	ShutdownTimeout time.Duration `env:"PROBE_SHUTDOWN_TIMEOUT" envDefault:"5s" yaml:"shutdownTimeout"` // ShutdownTimeout is the time allowed for graceful shutdown.
	Disabled        bool          `env:"PROBE_DISABLED" envDefault:"false" yaml:"disabled"`             // Disabled turns the probe server off.
}

// NewFromConfig creates a new Server from the provided Config.
// Only non-zero values from the config are applied.
func NewFromConfig(cfg Config, handler http.Handler, opts ...Option) *Server {
	configOpts := make([]Option, 0, 5)

	if cfg.Addr != "" {
		configOpts = append(configOpts, WithAddr(cfg.Addr))
	}
	if cfg.ReadTimeout > 0 {
		configOpts = append(configOpts, WithReadTimeout(cfg.ReadTimeout))
	}
	if cfg.WriteTimeout > 0 {
		configOpts = append(configOpts, WithWriteTimeout(cfg.WriteTimeout))
	}
	if cfg.IdleTimeout > 0 {
		configOpts = append(configOpts, WithIdleTimeout(cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout > 0 {
		configOpts = append(configOpts, WithShutdownTimeout(cfg.ShutdownTimeout))
	}

	return New(handler, append(configOpts, opts...)...)
}
