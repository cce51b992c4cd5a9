// Package logging owns the process-wide zerolog logger and the progress and
// completion events the sort phases emit through it.
package logging

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	current    atomic.Pointer[zerolog.Logger]
	prettyMode atomic.Bool
)

func init() {
	SetLogger(New(os.Stderr, false, false))
}

// New builds a logger writing to w. Output is JSON lines unless human is
// set, in which case a console layout is used. The level is info, or debug
// when debug is set; it belongs to this logger, not to zerolog globally.
func New(w io.Writer, debug, human bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if human {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Init installs a stderr logger for the --debug and --human flags. In human
// mode completion events also carry "_h" companion fields.
func Init(debug, human bool) {
	prettyMode.Store(human)
	SetLogger(New(os.Stderr, debug, human))
}

// IsPrettyMode reports whether human-readable output was requested.
func IsPrettyMode() bool {
	return prettyMode.Load()
}

// SetPrettyMode toggles the "_h" companion fields.
func SetPrettyMode(on bool) {
	prettyMode.Store(on)
}

// L returns the process logger.
func L() *zerolog.Logger {
	return current.Load()
}

// WithPhase returns a child of the process logger tagged with phase.
func WithPhase(phase string) zerolog.Logger {
	return L().With().Str("phase", phase).Logger()
}

// SetLogger replaces the process logger.
func SetLogger(l zerolog.Logger) {
	current.Store(&l)
}
