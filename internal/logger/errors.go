package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("config Log.AppName can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("config Log.ServiceName can not be empty")

	// ErrLogDirectory is returned when file logging is enabled but Log.File.Path is unusable.
	ErrLogDirectory = errors.New("config Log.File.Path is not a usable directory")
)

// ErrorHandler reports events zerolog failed to write. Stderr is the last
// resort since the configured writers are the ones failing.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "govcl logger: dropped event: %v\n", err)
}
