// Package stdlogger adapts the global zerolog logger to printf style
// interfaces and to the standard library *log.Logger.
package stdlogger

import (
	stdlog "log"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger writes printf style messages to the global zerolog logger.
type Logger struct {
	component string
}

// New returns a Logger writing to the global zerolog logger.
func New() *Logger {
	return &Logger{}
}

// NewComponent returns a Logger tagging every line with component.
func NewComponent(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) event(e *zerolog.Event) *zerolog.Event {
	if l.component != "" {
		return e.Str("component", l.component)
	}

	return e
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.event(log.Debug()).Msgf(format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.event(log.Info()).Msgf(format, args...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, args ...any) {
	l.event(log.Warn()).Msgf(format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.event(log.Error()).Msgf(format, args...)
}

// Write implements io.Writer so the Logger can back a *log.Logger.
// Every line is logged at debug level.
func (l *Logger) Write(p []byte) (int, error) {
	l.event(log.Debug()).Msg(strings.TrimRight(string(p), "\n"))

	return len(p), nil
}

// Std returns a standard library logger writing through l.
func (l *Logger) Std() *stdlog.Logger {
	return stdlog.New(l, "", 0)
}

// Printf logs at info level. It satisfies gorm's logger.Writer.
func (l *Logger) Printf(format string, args ...any) {
	l.Infof(format, args...)
}
