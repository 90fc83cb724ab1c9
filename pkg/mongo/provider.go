package mongo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/mongokit/pkg/logger"
)

// Client roles. Each role becomes the suffix of the handshake app name.
const (
	RoleQuery  = "query"
	RoleInsert = "insert"
	RoleCheck  = "check"
)

// Provider owns the read and write clients of one database and hands out
// collection handles for entity types.
//
// A Provider is safe for concurrent use. It implements the Start/Stop pair
// expected by hosting.Host.
type Provider struct {
	opts     Options
	log      *slog.Logger
	registry *bson.Registry
	lister   DatabaseLister
	tracers  trace.TracerProvider

	read    *mongo.Client
	write   *mongo.Client
	readDB  *mongo.Database
	writeDB *mongo.Database

	keys        sync.Map // reflect.Type -> string
	collections sync.Map // collectionKey -> *mongo.Collection

	started  atomic.Bool
	stopOnce sync.Once
	stopErr  error
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the logger. Without it the provider logs nothing.
func WithLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

// WithRegistry replaces the BSON registry used by every client the provider
// creates. The default is NewRegistry().
func WithRegistry(r *bson.Registry) ProviderOption {
	return func(p *Provider) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithDatabaseLister replaces the listing used by DatabaseExists.
func WithDatabaseLister(l DatabaseLister) ProviderOption {
	return func(p *Provider) {
		if l != nil {
			p.lister = l
		}
	}
}

// WithTracerProvider sets the tracer provider used when Options.UseTelemetry
// is on. The default is the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) ProviderOption {
	return func(p *Provider) {
		if tp != nil {
			p.tracers = tp
		}
	}
}

// New builds the query and insert clients described by opts. No network I/O
// happens here; a malformed connection string fails immediately.
func New(opts Options, with ...ProviderOption) (*Provider, error) {
	if opts.DatabaseID == "" {
		return nil, ErrEmptyDatabaseID
	}

	p := &Provider{opts: opts}
	for _, o := range with {
		o(p)
	}
	if p.log == nil {
		p.log = logger.Discard()
	}
	if p.registry == nil {
		p.registry = NewRegistry()
	}
	if p.tracers == nil {
		p.tracers = otel.GetTracerProvider()
	}
	if p.lister == nil {
		p.lister = clientLister{p: p}
	}

	read, err := p.newClient(RoleQuery)
	if err != nil {
		return nil, err
	}
	write, err := p.newClient(RoleInsert)
	if err != nil {
		_ = read.Disconnect(context.Background())
		return nil, err
	}

	p.read, p.readDB = read, read.Database(opts.DatabaseID)
	p.write, p.writeDB = write, write.Database(opts.DatabaseID)
	return p, nil
}

func (p *Provider) newClient(role string) (*mongo.Client, error) {
	co := p.clientOptions(role)
	if err := co.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidConnectionString, err)
	}

	client, err := mongo.Connect(co)
	if err != nil {
		return nil, errors.Join(ErrFailedToCreateClient, err)
	}

	p.log.Info("Created mongo client",
		logger.ClientRole(role),
		logger.AppName(p.opts.AppName(role)),
		logger.Database(p.opts.DatabaseID),
	)
	return client, nil
}

func (p *Provider) clientOptions(role string) *options.ClientOptions {
	co := options.Client().
		ApplyURI(p.opts.URI()).
		SetAppName(p.opts.AppName(role)).
		SetRegistry(p.registry).
		SetRetryWrites(p.opts.RetryWrites).
		SetRetryReads(p.opts.RetryReads)

	if p.opts.ConnectTimeout > 0 {
		co.SetConnectTimeout(p.opts.ConnectTimeout)
	}
	if p.opts.MaxPoolSize > 0 {
		co.SetMaxPoolSize(p.opts.MaxPoolSize)
	}
	if p.opts.MinPoolSize > 0 {
		co.SetMinPoolSize(p.opts.MinPoolSize)
	}
	if p.opts.MaxConnIdleTime > 0 {
		co.SetMaxConnIdleTime(p.opts.MaxConnIdleTime)
	}

	if p.opts.Configurator != nil {
		p.opts.Configurator(co)
	}

	// Monitors wrap whatever the configurator installed.
	if p.opts.DebugLog {
		co.SetPoolMonitor(NewPoolMonitor(p.log.With(logger.ClientRole(role)), co.PoolMonitor))
	}
	if p.opts.UseTelemetry {
		co.SetMonitor(NewCommandMonitor(p.tracers, role, co.Monitor))
	}
	return co
}

// Options returns a copy of the options the provider was built with.
func (p *Provider) Options() Options { return p.opts }

func (p *Provider) ReadClient() *mongo.Client { return p.read }

func (p *Provider) WriteClient() *mongo.Client { return p.write }

func (p *Provider) ReadDatabase() *mongo.Database { return p.readDB }

func (p *Provider) WriteDatabase() *mongo.Database { return p.writeDB }

// Started reports whether Start has completed successfully.
func (p *Provider) Started() bool { return p.started.Load() }

// Start runs the database existence check, retrying connectivity failures
// with a linear backoff of RetryInterval*attempt. A database that does not
// exist yet is logged and does not fail startup: MongoDB creates it on the
// first write. Start fails when every attempt errors or ctx is canceled.
func (p *Provider) Start(ctx context.Context) error {
	p.log.InfoContext(ctx, "Starting mongo provider")
	p.log.InfoContext(ctx, "Connecting to mongo", slog.Any("options", p.opts))

	exists, err := p.checkWithRetry(ctx)
	if err != nil {
		return errors.Join(ErrStartupCheckFailed, err)
	}
	if exists {
		p.log.InfoContext(ctx, "Database found", logger.Database(p.opts.DatabaseID))
	} else {
		p.log.WarnContext(ctx, "Database not found, it will be created on first write", logger.Database(p.opts.DatabaseID))
	}

	p.started.Store(true)
	p.log.InfoContext(ctx, "Mongo provider started")
	return nil
}

func (p *Provider) checkWithRetry(ctx context.Context) (bool, error) {
	attempts := max(p.opts.RetryAttempts, 1)

	var lastErr error
	for i := range attempts {
		exists, err := p.DatabaseExists(ctx)
		if err == nil {
			return exists, nil
		}
		if errors.Is(err, ErrCheckCanceled) {
			return false, err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		wait := time.Duration(i+1) * p.opts.RetryInterval
		p.log.WarnContext(ctx, "Database check failed, retrying",
			logger.Error(err),
			logger.RetryCount(i+1),
			logger.Duration(wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, errors.Join(ErrCheckCanceled, ctx.Err())
		case <-timer.C:
		}
	}
	return false, lastErr
}

// Stop disconnects both clients. Only the first call does any work; later
// calls return the same result.
func (p *Provider) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		var errs []error
		clients := []struct {
			role   string
			client *mongo.Client
		}{{RoleQuery, p.read}, {RoleInsert, p.write}}
		for _, c := range clients {
			if err := c.client.Disconnect(ctx); err != nil {
				errs = append(errs, errors.Join(ErrDisconnect, err))
				p.log.ErrorContext(ctx, "Disconnecting mongo client failed", logger.ClientRole(c.role), logger.Error(err))
			}
		}
		p.stopErr = errors.Join(errs...)
		p.log.InfoContext(ctx, "Mongo provider stopped")
	})
	return p.stopErr
}
