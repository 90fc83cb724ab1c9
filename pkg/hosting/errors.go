package hosting

import "errors"

var (
	// ErrStart indicates that a service failed to start.
	ErrStart = errors.New("failed to start service")
	// ErrStop indicates that one or more services failed to stop.
	ErrStop = errors.New("failed to stop service")
	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("host is already running")
)
