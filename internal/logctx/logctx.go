// Package logctx carries a zerolog.Logger through context.Context so the
// sort engine can log with the fields its caller attached (input path,
// chunk index, merge fan-in) without threading a logger argument.
//
//	ctx := logctx.WithLogger(ctx, base)
//	ctx = logctx.WithInt(ctx, "chunk_index", i)
//	logctx.FromContext(ctx).Debug().Msg("chunk sorted")
package logctx

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eunmann/linesort/pkg/logging"
)

type loggerKey struct{}

var (
	defaultMu     sync.RWMutex
	defaultLogger = logging.New(os.Stderr, false, false)
)

// DefaultLogger returns the logger used when a context carries none.
func DefaultLogger() zerolog.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger replaces the fallback logger.
func SetDefaultLogger(l zerolog.Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// WithLogger attaches logger to ctx. A nil ctx is treated as Background.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger attached to ctx, or DefaultLogger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
			return logger
		}
	}
	return DefaultLogger()
}

// WithStr returns ctx with a logger carrying an extra string field.
func WithStr(ctx context.Context, key, value string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With().Str(key, value).Logger())
}

// WithInt returns ctx with a logger carrying an extra int field.
func WithInt(ctx context.Context, key string, value int) context.Context {
	return WithLogger(ctx, FromContext(ctx).With().Int(key, value).Logger())
}
