package render

import (
	"github.com/goliatone/go-imej/pkg/prelude"
)

// Template is a compiled render function. Engines adapt their own compiled
// representation into this shape so the registry stays engine-agnostic.
type Template func(ctx RenderContext) (string, error)

// RenderContext is the value handed to a Template on every render call. Engines
// expose it to template source as `prelude` and `slots`.
type RenderContext struct {
	// Prelude carries the shared stylesheet URLs. It is the same value for
	// every render served by a registry.
	Prelude prelude.Prelude `json:"prelude"`
	// Slots is caller supplied data, passed through untouched.
	Slots map[string]any `json:"slots"`
}
