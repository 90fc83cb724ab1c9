// Package mongo manages the MongoDB connections of a process: one client for
// queries, one for inserts, typed collection handles and a startup check that
// the configured database is visible.
//
// # Clients
//
// New builds two clients from the same Options. Each gets its own handshake
// app name, "<ApplicationName> - query" and "<ApplicationName> - insert" (or
// just "query" / "insert"), so server-side logs and currentOp can tell the
// traffic apart. Clients are created once and closed by Stop.
//
// Every client uses an instance-scoped BSON registry (NewRegistry, or one
// injected with WithRegistry) that stores time.Time in UTC as a
// {DateTime, Ticks} document. The driver's global registry is left alone, so
// several providers can live in one process.
//
// # Collections
//
// WriteCollection and ReadCollection return a Collection[T] named after the
// entity type. A type implementing Named picks its own name; any other type
// uses its Go type name:
//
//	type Person struct {
//	    ID   uuid.UUID `bson:"_id"`
//	    Name string    `bson:"name"`
//	}
//
//	people, err := mongo.WriteCollection[Person](provider) // collection "Person"
//
// Names are memoized per type and handles are cached per client, so repeated
// calls are cheap and safe from any goroutine.
//
// # Startup
//
// Start lists the cluster's databases on a throwaway "check" client and logs
// whether Options.DatabaseID is present. A missing database is not an error.
// Listing failures are retried RetryAttempts times and then fail Start.
//
// # Diagnostics
//
// With Options.DebugLog the pool monitor logs opened, added and removed
// connections at debug level. With Options.UseTelemetry every command is
// traced through OpenTelemetry. Both wrap any monitor set by
// Options.Configurator instead of replacing it.
//
// # Error Handling
//
// Errors are joined with the sentinels in errors.go; use errors.Is:
//
//	if errors.Is(err, mongo.ErrStartupCheckFailed) { ... }
//
// # See Also
//
// Documentation for the official driver: https://pkg.go.dev/go.mongodb.org/mongo-driver/v2.
package mongo
