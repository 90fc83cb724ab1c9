package mongo

import "errors"

var (
	ErrInvalidConnectionString = errors.New("invalid mongo connection string")
	ErrEmptyDatabaseID         = errors.New("mongo database id is empty")
	ErrFailedToCreateClient    = errors.New("failed to create mongo client")
	ErrUnresolvableTypeKey     = errors.New("cannot derive collection name from entity type")
	ErrListDatabases           = errors.New("failed to list mongo databases")
	ErrCheckCanceled           = errors.New("database existence check canceled")
	ErrStartupCheckFailed      = errors.New("mongo startup check failed")
	ErrDisconnect              = errors.New("failed to disconnect mongo client")
	ErrHealthcheckFailed       = errors.New("mongo healthcheck failed")
	ErrLoadOptions             = errors.New("failed to load mongo options")
)
