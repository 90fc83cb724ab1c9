package sample

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/mongokit/pkg/logger"
	"github.com/dmitrymomot/mongokit/pkg/mongo"
)

const tracerName = "github.com/dmitrymomot/mongokit/internal/sample"

var (
	ErrInsertPersons = errors.New("failed to insert persons")
	ErrCountPersons  = errors.New("failed to count persons")
)

// PersonWriter is the write side the runner inserts through.
type PersonWriter interface {
	InsertMany(ctx context.Context, docs []Person, opts ...options.Lister[options.InsertManyOptions]) (int, error)
}

// PersonCounter is the read side the runner verifies the insert with.
type PersonCounter interface {
	CountDocuments(ctx context.Context, filter any, opts ...options.Lister[options.CountOptions]) (int64, error)
}

// Runner inserts a generated set of persons when it starts.
type Runner struct {
	cfg    Config
	write  PersonWriter
	read   PersonCounter
	log    *slog.Logger
	tracer trace.Tracer

	inserted atomic.Int64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithTracerProvider sets the tracer provider for the runner's spans. The
// default is the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) RunnerOption {
	return func(r *Runner) {
		if tp != nil {
			r.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewRunner returns a Runner writing to the provider's Person collection.
func NewRunner(p *mongo.Provider, cfg Config, opts ...RunnerOption) (*Runner, error) {
	write, err := mongo.WriteCollection[Person](p)
	if err != nil {
		return nil, err
	}
	read, err := mongo.ReadCollection[Person](p)
	if err != nil {
		return nil, err
	}
	return NewRunnerWith(write, read, cfg, opts...), nil
}

// NewRunnerWith returns a Runner over explicit collections.
func NewRunnerWith(write PersonWriter, read PersonCounter, cfg Config, opts ...RunnerOption) *Runner {
	r := &Runner{cfg: cfg, write: write, read: read}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Discard()
	}
	if r.tracer == nil {
		r.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	r.log = r.log.With(logger.Component("runner"))
	return r
}

// Inserted returns the number of persons inserted so far.
func (r *Runner) Inserted() int64 { return r.inserted.Load() }

// Start generates and inserts the configured number of persons, then logs the
// collection's document count. It returns when the insert is done.
func (r *Runner) Start(ctx context.Context) error {
	r.log.InfoContext(ctx, "Runner starting", slog.Int("persons", r.cfg.Persons))
	if err := r.InsertPersons(ctx); err != nil {
		return err
	}

	count, err := r.read.CountDocuments(ctx, bson.D{})
	if err != nil {
		return errors.Join(ErrCountPersons, err)
	}
	r.log.InfoContext(ctx, "Persons in collection", slog.Int64("count", count))
	return nil
}

// Stop is a no-op; Start does not leave work running.
func (r *Runner) Stop(context.Context) error { return nil }

// InsertPersons generates persons and inserts them in batches of
// Config.BatchSize with at most Config.Workers inserts in flight.
func (r *Runner) InsertPersons(ctx context.Context) (err error) {
	ctx, span := r.tracer.Start(ctx, "InsertPersons",
		trace.WithAttributes(attribute.Int("persons.count", r.cfg.Persons)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	persons := r.generate(ctx)
	if len(persons) == 0 {
		r.log.InfoContext(ctx, "Nothing to insert")
		return nil
	}

	started := time.Now()
	r.log.InfoContext(ctx, "Starting insert", slog.Int("persons", len(persons)), slog.Int("batch_size", r.cfg.BatchSize))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.Workers, 1))
	for i, batch := range batches(persons, r.cfg.BatchSize) {
		g.Go(func() error {
			return r.insertBatch(gctx, i, batch)
		})
	}
	if err := g.Wait(); err != nil {
		r.log.ErrorContext(ctx, "Insert failed", logger.Error(err), slog.Int64("inserted", r.Inserted()))
		return errors.Join(ErrInsertPersons, err)
	}

	r.log.InfoContext(ctx, "Insert finished",
		slog.Int64("inserted", r.Inserted()),
		logger.Duration(time.Since(started)),
	)
	return nil
}

func (r *Runner) generate(ctx context.Context) []Person {
	_, span := r.tracer.Start(ctx, "GeneratePersons")
	defer span.End()

	r.log.DebugContext(ctx, "Generating persons", slog.Int("persons", r.cfg.Persons))
	return GeneratePersons(r.cfg.Persons)
}

func (r *Runner) insertBatch(ctx context.Context, index int, batch []Person) error {
	ctx, span := r.tracer.Start(ctx, "InsertBatch",
		trace.WithAttributes(
			attribute.Int("batch.index", index),
			attribute.Int("batch.size", len(batch)),
		),
	)
	defer span.End()

	n, err := r.write.InsertMany(ctx, batch)
	r.inserted.Add(int64(n))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
