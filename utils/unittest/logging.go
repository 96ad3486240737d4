package unittest

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

var verbose = flag.Bool("vv", false, "print debugging logs")

func LogVerbose() {
	*verbose = true
}

// Logger returns a zerolog
// use -vv flag to print debugging logs for tests
func Logger() zerolog.Logger {
	writer := io.Discard

	if *verbose {
		writer = os.Stderr
	}
	return LoggerWithWriterAndLevel(writer, zerolog.DebugLevel)
}

func LoggerWithWriterAndLevel(writer io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return log
}

// HookedLogger returns a logger which counts the messages logged at each level.
func HookedLogger() (zerolog.Logger, *LoggerHook) {
	hook := NewLoggerHook()
	return Logger().Hook(hook), hook
}

// LoggerHook is a zerolog hook counting log events by level.
type LoggerHook struct {
	debug *atomic.Int64
	warn  *atomic.Int64
	err   *atomic.Int64
}

func NewLoggerHook() *LoggerHook {
	return &LoggerHook{
		debug: atomic.NewInt64(0),
		warn:  atomic.NewInt64(0),
		err:   atomic.NewInt64(0),
	}
}

func (h *LoggerHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	switch level {
	case zerolog.DebugLevel:
		h.debug.Inc()
	case zerolog.WarnLevel:
		h.warn.Inc()
	case zerolog.ErrorLevel:
		h.err.Inc()
	}
}

// Debugs returns the number of debug messages logged.
func (h *LoggerHook) Debugs() int64 {
	return h.debug.Load()
}

// Warns returns the number of warn messages logged.
func (h *LoggerHook) Warns() int64 {
	return h.warn.Load()
}

// Errors returns the number of error messages logged.
func (h *LoggerHook) Errors() int64 {
	return h.err.Load()
}
