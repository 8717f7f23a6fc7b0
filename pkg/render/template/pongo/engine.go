package pongo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-imej/pkg/render"
	"github.com/goliatone/go-imej/pkg/render/template"
)

// Option configures the pongo2 engine before construction.
type Option func(*config)

type config struct {
	baseDir string
	files   fs.FS
	funcs   map[string]any
	globals map[string]any
}

// WithBaseDir resolves {% include %} paths against a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS resolves {% include %} paths inside files.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.files = files
	}
}

// WithTemplateFunc exposes helpers to every template. Values with the pongo2
// filter signature become filters, other functions become callable globals.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		cfg.funcs = mergeNamed(cfg.funcs, funcs)
	}
}

// WithGlobalData seeds values every template can read by name.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		cfg.globals = mergeNamed(cfg.globals, data)
	}
}

func mergeNamed(dst, src map[string]any) map[string]any {
	for name, value := range src {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if dst == nil {
			dst = make(map[string]any, len(src))
		}
		dst[name] = value
	}
	return dst
}

// Engine compiles pongo2 (Django syntax) template source into render.Template
// values. Compiled templates share one template set, so globals and include
// loaders apply to all of them.
type Engine struct {
	mu  sync.RWMutex
	set *pongo2.TemplateSet
}

var _ template.Compiler = (*Engine)(nil)

// New builds an Engine. A base dir or an fs.FS is required so includes have
// somewhere to load from; when both are given the directory is searched first.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: template dir %s: %w", cfg.baseDir, err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.files))
	}
	if len(loaders) == 0 {
		return nil, errors.New("pongo: need to provide either base dir or fs.FS")
	}

	registerDefaultFilters()

	e := &Engine{set: pongo2.NewSet("imej", loaders...)}
	if err := e.GlobalContext(cfg.globals); err != nil {
		return nil, err
	}
	for name, fn := range cfg.funcs {
		if err := e.addFunc(name, fn); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Compile parses source and returns a render function bound to this engine.
// Parse failures are reported as *render.TemplateCompileError.
func (e *Engine) Compile(name, source string) (render.Template, error) {
	if e == nil || e.set == nil {
		return nil, errors.New("pongo: engine is nil")
	}

	tmpl, err := e.set.FromString(source)
	if err != nil {
		return nil, &render.TemplateCompileError{Name: name, Err: err}
	}

	return func(rc render.RenderContext) (string, error) {
		view, err := viewContext(rc)
		if err != nil {
			return "", fmt.Errorf("pongo: convert slots: %w", err)
		}

		var buf bytes.Buffer
		e.mu.RLock()
		err = tmpl.ExecuteWriter(view, &buf)
		e.mu.RUnlock()
		if err != nil {
			return "", fmt.Errorf("pongo: execute template %q: %w", name, err)
		}
		return buf.String(), nil
	}, nil
}

// RegisterFilter registers a template filter. Filters are process wide in
// pongo2, so registering an existing name fails.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already exists", name)
	}

	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		out, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(out), nil
	})
}

// GlobalContext merges data into the values every template can read.
func (e *Engine) GlobalContext(data map[string]any) error {
	if e == nil || e.set == nil {
		return errors.New("pongo: engine is nil")
	}
	if len(data) == 0 {
		return nil
	}

	values, err := plainMap(data)
	if err != nil {
		return fmt.Errorf("pongo: global data: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set.Globals == nil {
		e.set.Globals = pongo2.Context{}
	}
	for key, value := range values {
		e.set.Globals[key] = value
	}
	return nil
}

// addFunc installs fn as a filter when it has the pongo2 filter signature and
// as a callable global otherwise. Filters already registered by another engine
// are kept.
func (e *Engine) addFunc(name string, fn any) error {
	var filter pongo2.FilterFunction
	switch f := fn.(type) {
	case pongo2.FilterFunction:
		filter = f
	case func(*pongo2.Value, *pongo2.Value) (*pongo2.Value, *pongo2.Error):
		filter = f
	}
	if filter != nil {
		if pongo2.FilterExists(name) {
			return nil
		}
		if err := pongo2.RegisterFilter(name, filter); err != nil {
			return fmt.Errorf("pongo: filter %q: %w", name, err)
		}
		return nil
	}

	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return fmt.Errorf("pongo: template func %q is %T, not a function", name, fn)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set.Globals == nil {
		e.set.Globals = pongo2.Context{}
	}
	e.set.Globals[name] = fn
	return nil
}

// viewContext exposes the prelude and slots under their template names.
func viewContext(rc render.RenderContext) (pongo2.Context, error) {
	preludeValues := make(map[string]any, len(rc.Prelude))
	for key, value := range rc.Prelude {
		preludeValues[key] = value
	}

	slots, err := plainMap(rc.Slots)
	if err != nil {
		return nil, err
	}
	return pongo2.Context{"prelude": preludeValues, "slots": slots}, nil
}

func plainMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		v, err := plainValue(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

// plainValue reduces v to maps, slices and scalars so struct fields read by
// their JSON names. Functions pass through so templates can call them.
func plainValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, int, int64, float64:
		return val, nil
	case map[string]any:
		return plainMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			p, err := plainValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	}

	if reflect.TypeOf(v).Kind() == reflect.Func {
		return v, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return plainValue(decoded)
}
