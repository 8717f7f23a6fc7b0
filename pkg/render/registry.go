package render

import (
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-imej/pkg/prelude"
)

// Registry stores compiled templates by name and resolves caller facing layout
// names to them. The layout map and prelude are fixed at construction; only
// the template map changes afterwards, and only through Define.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template

	layouts map[string]string
	prelude prelude.Prelude
	logger  *slog.Logger
}

// NewRegistry creates an empty registry instance.
func NewRegistry(options ...Option) *Registry {
	r := &Registry{
		templates: make(map[string]Template),
		layouts:   make(map[string]string),
		prelude:   prelude.Prelude{},
		logger:    discardLogger(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Define registers fn under name, replacing any template already stored there.
func (r *Registry) Define(name string, fn Template) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if fn == nil {
		return fmt.Errorf("%w: template %q has no render function", ErrInvalidTemplate, name)
	}

	r.mu.Lock()
	r.templates[name] = fn
	r.mu.Unlock()

	r.logger.Info("load template", slog.String("template", name))
	return nil
}

// MustDefine panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustDefine(name string, fn Template) {
	if err := r.Define(name, fn); err != nil {
		panic(err)
	}
}

// Resolve maps a layout name to a template name. Aliases are looked up once;
// an unknown layout is returned as is.
func (r *Registry) Resolve(layout string) string {
	if name, ok := r.layouts[layout]; ok {
		return name
	}
	return layout
}

// Render resolves layout, looks up the template and executes it with a copy
// of the registry prelude and the supplied slots.
func (r *Registry) Render(layout string, slots map[string]any) (string, error) {
	name := r.Resolve(layout)

	r.mu.RLock()
	fn, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok || fn == nil {
		return "", &TemplateNotFoundError{Layout: layout, Template: name}
	}

	out, err := fn(RenderContext{Prelude: r.prelude.Clone(), Slots: slots})
	if err != nil {
		return "", fmt.Errorf("render: execute template %q: %w", name, err)
	}
	return out, nil
}

// Has reports whether a template is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.templates[name]
	return ok
}

// List returns a sorted list of template names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Layouts returns a copy of the alias table.
func (r *Registry) Layouts() map[string]string {
	return maps.Clone(r.layouts)
}

// Prelude returns the value injected into every render.
func (r *Registry) Prelude() prelude.Prelude {
	return r.prelude
}
