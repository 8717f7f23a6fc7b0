package render

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-imej/pkg/prelude"
)

// Option configures a Registry before construction.
type Option func(*Registry)

// WithLayoutMap sets the alias table used by Resolve. Entries are copied as
// given; an empty alias is skipped.
func WithLayoutMap(layouts map[string]string) Option {
	return func(r *Registry) {
		for alias, name := range layouts {
			if alias == "" {
				continue
			}
			r.layouts[alias] = name
		}
	}
}

// WithPrelude sets the value injected into every RenderContext.
func WithPrelude(p prelude.Prelude) Option {
	return func(r *Registry) {
		r.prelude = p
	}
}

// WithLogger routes registry diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
