package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// RetryCount records the attempt number under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Database records the database name under the key "database".
func Database(name string) slog.Attr {
	return slog.String("database", name)
}

// Collection records the collection name under the key "collection".
func Collection(name string) slog.Attr {
	return slog.String("collection", name)
}

// ClientRole records which client (query, insert, check) produced the record.
func ClientRole(role string) slog.Attr {
	return slog.String("client", role)
}

// AppName records the application name sent in the connection handshake.
func AppName(name string) slog.Attr {
	return slog.String("app_name", name)
}

// Address records a server address under the key "address".
func Address(addr string) slog.Attr {
	return slog.String("address", addr)
}

// ConnectionID records a pool connection id. Zero ids are omitted.
func ConnectionID(id int64) slog.Attr {
	if id == 0 {
		return slog.Attr{}
	}
	return slog.Int64("connection_id", id)
}

// Reason records why a connection was closed. Empty reasons are omitted.
func Reason(reason string) slog.Attr {
	if reason == "" {
		return slog.Attr{}
	}
	return slog.String("reason", reason)
}
