package mongo

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/mongokit/pkg/config"
)

const (
	DefaultDatabaseID       = "db1"
	DefaultConnectionString = "mongodb://localhost:27017"

	// OptionsSection is the YAML section LoadOptionsFile reads.
	OptionsSection = "mongodb"
)

// Options configures a Provider. Values are captured when the Provider is
// built; later changes to an Options value are not observed.
type Options struct {
	DatabaseID              string `env:"MONGODB_DATABASE_ID" envDefault:"db1" yaml:"databaseId"`                                   // DatabaseID is the database both clients work against.
	ConnectionString        string `env:"MONGODB_CONNECTION_STRING" envDefault:"mongodb://localhost:27017" yaml:"connectionString"` // ConnectionString is the base connection URI.
	ConnectionStringOptions string `env:"MONGODB_CONNECTION_STRING_OPTIONS" yaml:"connectionStringOptions"`                         // ConnectionStringOptions is appended verbatim to ConnectionString, e.g. "/?replicaSet=rs0".
	ApplicationName         string `env:"MONGODB_APPLICATION_NAME" yaml:"applicationName"`                                          // ApplicationName prefixes the per-client app name sent in the handshake.
	DebugLog                bool   `env:"MONGODB_DEBUG_LOG" envDefault:"false" yaml:"debugLog"`                                     // DebugLog logs connection pool events at debug level.
	FindBatchSize           *int32 `env:"MONGODB_FIND_BATCH_SIZE" yaml:"findBatchSize"`                                             // FindBatchSize is applied to Collection.Find when set.
	FindLimit               *int64 `env:"MONGODB_FIND_LIMIT" yaml:"findLimit"`                                                      // FindLimit is applied to Collection.Find when set.
	UseTelemetry            bool   `env:"MONGODB_USE_TELEMETRY" envDefault:"false" yaml:"useTelemetry"`                             // UseTelemetry traces every command with OpenTelemetry.

	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s" yaml:"connectTimeout"`      // ConnectTimeout is the timeout for establishing a connection.
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100" yaml:"maxPoolSize"`           // MaxPoolSize is the maximum number of connections per client pool.
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1" yaml:"minPoolSize"`             // MinPoolSize is the minimum number of connections per client pool.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s" yaml:"maxConnIdleTime"` // MaxConnIdleTime is how long an idle connection stays in the pool.
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true" yaml:"retryWrites"`           // RetryWrites enables retryable writes.
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true" yaml:"retryReads"`             // RetryReads enables retryable reads.
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3" yaml:"retryAttempts"`          // RetryAttempts bounds the startup existence check.
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s" yaml:"retryInterval"`         // RetryInterval is multiplied by the attempt number between checks.

	// Configurator adjusts the driver options of every client after the
	// provider has applied its own settings.
	Configurator func(*options.ClientOptions) `env:"-" yaml:"-"`
}

// DefaultOptions returns the values LoadOptions uses when nothing is configured.
func DefaultOptions() Options {
	return Options{
		DatabaseID:       DefaultDatabaseID,
		ConnectionString: DefaultConnectionString,
		ConnectTimeout:   10 * time.Second,
		MaxPoolSize:      100,
		MinPoolSize:      1,
		MaxConnIdleTime:  300 * time.Second,
		RetryWrites:      true,
		RetryReads:       true,
		RetryAttempts:    3,
		RetryInterval:    5 * time.Second,
	}
}

// LoadOptions reads Options from the environment (and a .env file, if any)
// and then applies post-configure callbacks in order.
func LoadOptions(post ...func(*Options)) (Options, error) {
	var opts Options
	if err := config.Load(&opts); err != nil {
		return Options{}, errors.Join(ErrLoadOptions, err)
	}
	return postConfigure(opts, post), nil
}

// LoadOptionsFile works like LoadOptions with the "mongodb" section of a YAML
// file layered under the environment.
func LoadOptionsFile(path string, post ...func(*Options)) (Options, error) {
	var opts Options
	if err := config.LoadFile(path, OptionsSection, &opts); err != nil {
		return Options{}, errors.Join(ErrLoadOptions, err)
	}
	return postConfigure(opts, post), nil
}

func postConfigure(opts Options, post []func(*Options)) Options {
	for _, fn := range post {
		if fn != nil {
			fn(&opts)
		}
	}
	return opts
}

// URI is the connection string with its options suffix.
func (o Options) URI() string {
	return o.ConnectionString + o.ConnectionStringOptions
}

// AppName returns the handshake application name for a client role:
// "<ApplicationName> - <role>", or the bare role without an application name.
func (o Options) AppName(role string) string {
	if o.ApplicationName == "" {
		return role
	}
	return o.ApplicationName + " - " + role
}

// LogValue renders the options for logs with credentials removed from the
// connection string.
func (o Options) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("database_id", o.DatabaseID),
		slog.String("connection_string", redactURI(o.URI())),
		slog.String("application_name", o.ApplicationName),
		slog.Bool("debug_log", o.DebugLog),
		slog.Bool("use_telemetry", o.UseTelemetry),
	}
	if o.FindBatchSize != nil {
		attrs = append(attrs, slog.Int("find_batch_size", int(*o.FindBatchSize)))
	}
	if o.FindLimit != nil {
		attrs = append(attrs, slog.Int64("find_limit", *o.FindLimit))
	}
	return slog.GroupValue(attrs...)
}

func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		if i := strings.LastIndex(uri, "@"); i >= 0 {
			if j := strings.Index(uri, "://"); j >= 0 && j+3 <= i {
				return uri[:j+3] + "REDACTED" + uri[i:]
			}
		}
		return uri
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "REDACTED")
	}
	return u.String()
}
