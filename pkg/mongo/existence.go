package mongo

import (
	"context"
	"errors"
	"slices"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/mongokit/pkg/logger"
)

// DatabaseLister enumerates the databases visible to a cluster.
type DatabaseLister interface {
	ListDatabases(ctx context.Context) (DatabaseCursor, error)
}

// DatabaseCursor iterates database names one page at a time. Close releases
// whatever the listing holds open and is called exactly once.
type DatabaseCursor interface {
	Next(ctx context.Context) bool
	Names() []string
	Err() error
	Close(ctx context.Context) error
}

// DatabaseExists reports whether the configured database appears in the
// cluster's database listing. The listing runs on a dedicated "check" client
// that is disconnected before returning. ctx is checked before every page; a
// canceled check returns false with ErrCheckCanceled, never a result based on
// a partial scan.
func (p *Provider) DatabaseExists(ctx context.Context) (bool, error) {
	p.log.DebugContext(ctx, "Checking database exists", logger.Database(p.opts.DatabaseID))

	cur, err := p.lister.ListDatabases(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, errors.Join(ErrCheckCanceled, ctxErr)
		}
		return false, errors.Join(ErrListDatabases, err)
	}
	defer func() {
		if err := cur.Close(context.WithoutCancel(ctx)); err != nil {
			p.log.WarnContext(ctx, "Closing database listing failed", logger.Error(err))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return false, errors.Join(ErrCheckCanceled, err)
		}
		if !cur.Next(ctx) {
			break
		}
		if slices.Contains(cur.Names(), p.opts.DatabaseID) {
			return true, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return false, errors.Join(ErrCheckCanceled, err)
	}
	if err := cur.Err(); err != nil {
		return false, errors.Join(ErrListDatabases, err)
	}
	return false, nil
}

// clientLister lists databases through a throwaway client created per call.
type clientLister struct {
	p *Provider
}

func (l clientLister) ListDatabases(ctx context.Context) (DatabaseCursor, error) {
	client, err := l.p.newClient(RoleCheck)
	if err != nil {
		return nil, err
	}

	res, err := client.ListDatabases(ctx, bson.D{}, options.ListDatabases().SetNameOnly(true))
	if err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}

	names := make([]string, 0, len(res.Databases))
	for _, db := range res.Databases {
		names = append(names, db.Name)
	}
	return &pagedNames{pages: [][]string{names}, client: client}, nil
}

// pagedNames serves pre-fetched pages of database names.
type pagedNames struct {
	pages   [][]string
	current []string
	client  *mongo.Client
}

func (c *pagedNames) Next(ctx context.Context) bool {
	if ctx.Err() != nil || len(c.pages) == 0 {
		return false
	}
	c.current, c.pages = c.pages[0], c.pages[1:]
	return true
}

func (c *pagedNames) Names() []string { return c.current }

func (c *pagedNames) Err() error { return nil }

func (c *pagedNames) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	return err
}

// NamePages returns a DatabaseCursor over fixed pages of names. It backs
// custom DatabaseLister implementations and tests.
func NamePages(pages ...[]string) DatabaseCursor {
	return &pagedNames{pages: pages}
}
