package mongo

import (
	"context"
	"reflect"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/mongokit/pkg/logger"
)

type side string

const (
	sideRead  side = "read"
	sideWrite side = "write"
)

type collectionKey struct {
	side side
	name string
}

// Collection is a collection handle typed to the entity stored in it.
// The embedded *mongo.Collection exposes the full driver API.
type Collection[T any] struct {
	*mongo.Collection

	batchSize *int32
	limit     *int64
}

// WriteCollection returns the collection for T on the write client. The
// collection name is T's collection name (see Named); repeated calls resolve
// to the same name. Handle identity is not guaranteed.
func WriteCollection[T any](p *Provider) (*Collection[T], error) {
	return collectionFor[T](p, sideWrite)
}

// ReadCollection returns the collection for T on the read client.
func ReadCollection[T any](p *Provider) (*Collection[T], error) {
	return collectionFor[T](p, sideRead)
}

func collectionFor[T any](p *Provider, s side) (*Collection[T], error) {
	name, err := p.typeKey(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}

	coll := p.collection(s, name)
	return &Collection[T]{
		Collection: coll,
		batchSize:  p.opts.FindBatchSize,
		limit:      p.opts.FindLimit,
	}, nil
}

// collection returns the cached handle for (side, name), creating it on first use.
func (p *Provider) collection(s side, name string) *mongo.Collection {
	key := collectionKey{side: s, name: name}
	if cached, ok := p.collections.Load(key); ok {
		return cached.(*mongo.Collection)
	}

	db := p.readDB
	if s == sideWrite {
		db = p.writeDB
	}

	actual, loaded := p.collections.LoadOrStore(key, db.Collection(name))
	if !loaded {
		p.log.Info("Creating new "+string(s)+" collection",
			logger.Collection(name),
			logger.Database(p.opts.DatabaseID),
		)
	}
	return actual.(*mongo.Collection)
}

// InsertOne inserts a single document.
func (c *Collection[T]) InsertOne(ctx context.Context, doc T) (any, error) {
	res, err := c.Collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	return res.InsertedID, nil
}

// InsertMany inserts docs and returns how many were inserted. An empty slice
// is a no-op.
func (c *Collection[T]) InsertMany(ctx context.Context, docs []T, opts ...options.Lister[options.InsertManyOptions]) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	res, err := c.Collection.InsertMany(ctx, docs, opts...)
	if err != nil {
		if res != nil {
			return len(res.InsertedIDs), err
		}
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

// Find decodes every document matching filter. The provider's FindBatchSize
// and FindLimit apply unless opts override them.
func (c *Collection[T]) Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) ([]T, error) {
	if filter == nil {
		filter = bson.D{}
	}

	cur, err := c.Collection.Find(ctx, filter, append([]options.Lister[options.FindOptions]{c.findDefaults()}, opts...)...)
	if err != nil {
		return nil, err
	}

	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Collection[T]) findDefaults() *options.FindOptionsBuilder {
	fo := options.Find()
	if c.batchSize != nil {
		fo.SetBatchSize(*c.batchSize)
	}
	if c.limit != nil {
		fo.SetLimit(*c.limit)
	}
	return fo
}
