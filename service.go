package imej

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-imej/pkg/config"
	"github.com/goliatone/go-imej/pkg/prelude"
	"github.com/goliatone/go-imej/pkg/render"
	"github.com/goliatone/go-imej/pkg/render/template"
	"github.com/goliatone/go-imej/pkg/render/template/pongo"
)

// Name identifies the service in logs and host registries.
const Name = "imej"

// ErrNotReady is returned by Render until Start has completed successfully.
var ErrNotReady = errors.New("imej: service not started")

// Template aliases render.Template for callers defining their own templates.
type Template = render.Template

// RenderContext aliases render.RenderContext.
type RenderContext = render.RenderContext

// Option configures a Service.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	compiler     template.Compiler
	templates    fs.FS
	styles       fs.FS
	selector     theme.ThemeSelector
	themeName    string
	themeVariant string
	funcs        map[string]any
	globals      map[string]any
}

// WithLogger routes service and registry logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCompiler replaces the pongo2 compiler used for templates loaded by Start.
func WithCompiler(compiler template.Compiler) Option {
	return func(o *options) {
		o.compiler = compiler
	}
}

// WithTemplateFuncs exposes helpers to templates compiled by the default
// pongo2 compiler. Functions with the pongo2 filter signature become filters.
func WithTemplateFuncs(funcs map[string]any) Option {
	return func(o *options) {
		o.funcs = funcs
	}
}

// WithTemplateGlobals seeds values every template compiled by the default
// pongo2 compiler can read by name.
func WithTemplateGlobals(globals map[string]any) Option {
	return func(o *options) {
		o.globals = globals
	}
}

// WithTemplatesFS loads templates from fsys instead of the bundle. It takes
// precedence over Config.TemplatesDir.
func WithTemplatesFS(fsys fs.FS) Option {
	return func(o *options) {
		o.templates = fsys
	}
}

// WithStylesFS materializes stylesheets from fsys instead of the bundle. It is
// ignored when Config.StylesDir is set.
func WithStylesFS(fsys fs.FS) Option {
	return func(o *options) {
		o.styles = fsys
	}
}

// WithThemeSelector resolves the prelude through a go-theme selector instead
// of the built-in manifest.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(o *options) {
		o.selector = selector
		o.themeName = strings.TrimSpace(name)
		o.themeVariant = strings.TrimSpace(variant)
	}
}

// Service owns the template registry for one host instance. Collaborators
// define templates and render layouts through it; the prelude and layout map
// are fixed when the service is built.
type Service struct {
	cfg       config.Config
	logger    *slog.Logger
	compiler  template.Compiler
	templates fs.FS
	registry  *render.Registry
	ready     atomic.Bool
}

// New validates cfg, resolves the prelude and prepares an empty registry.
// Templates are loaded by Start.
func New(cfg config.Config, opts ...Option) (*Service, error) {
	o := &options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		styles: StylesFS(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}

	cfg = cfg.Clone()
	if cfg.LayoutMap == nil {
		cfg.LayoutMap = config.DefaultLayoutMap()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger.With(slog.String("service", Name))

	p, err := resolvePrelude(cfg, o)
	if err != nil {
		return nil, err
	}

	var (
		templates fs.FS
		loader    pongo.Option
	)
	switch {
	case o.templates != nil:
		templates = o.templates
		loader = pongo.WithFS(templates)
	case cfg.TemplatesDir != "":
		templates = os.DirFS(cfg.TemplatesDir)
		loader = pongo.WithBaseDir(cfg.TemplatesDir)
	default:
		templates = EmbeddedTemplates()
		loader = pongo.WithFS(templates)
	}

	compiler := o.compiler
	if compiler == nil {
		engine, err := pongo.New(
			loader,
			pongo.WithTemplateFunc(o.funcs),
			pongo.WithGlobalData(o.globals),
		)
		if err != nil {
			return nil, fmt.Errorf("imej: create template engine: %w", err)
		}
		compiler = engine
	}

	registry := render.NewRegistry(
		render.WithLayoutMap(cfg.LayoutMap),
		render.WithPrelude(p),
		render.WithLogger(logger),
	)

	return &Service{
		cfg:       cfg,
		logger:    logger,
		compiler:  compiler,
		templates: templates,
		registry:  registry,
	}, nil
}

func resolvePrelude(cfg config.Config, o *options) (prelude.Prelude, error) {
	if o.selector != nil {
		p, err := prelude.FromSelector(o.selector, o.themeName, o.themeVariant)
		if err != nil {
			return nil, fmt.Errorf("imej: resolve prelude: %w", err)
		}
		return p, nil
	}

	dir := cfg.StylesDir
	if dir == "" {
		dir = prelude.DefaultDir()
		if err := prelude.Materialize(o.styles, dir); err != nil {
			var pathErr *prelude.PathError
			if errors.As(err, &pathErr) {
				return nil, &render.FileAccessError{Path: pathErr.Path, Err: pathErr.Err}
			}
			return nil, &render.FileAccessError{Path: dir, Err: err}
		}
	}

	manifest := prelude.Manifest(dir)
	if err := prelude.Validate(manifest); err != nil {
		return nil, fmt.Errorf("imej: %w", err)
	}
	for _, file := range manifest.Assets.Files {
		target := filepath.Join(dir, file)
		if _, err := os.Stat(target); err != nil {
			return nil, &render.FileAccessError{Path: target, Err: err}
		}
	}
	p, err := prelude.FromManifest(manifest, cfg.ThemeVariant)
	if err != nil {
		return nil, fmt.Errorf("imej: resolve prelude: %w", err)
	}
	return p, nil
}

// Start loads and compiles every template in the templates filesystem and
// marks the service ready. Builtin templates must be present. On error the
// service stays not ready and Start may be retried.
func (s *Service) Start(ctx context.Context) error {
	names, err := s.templateNames()
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		file := name + TemplateExt
		source, err := fs.ReadFile(s.templates, file)
		if err != nil {
			return &render.FileAccessError{Path: file, Err: err}
		}

		if err := s.DefineSource(name, string(source)); err != nil {
			return err
		}
	}

	s.ready.Store(true)
	s.logger.Info("service started", slog.Int("templates", len(names)))
	return nil
}

// templateNames returns the builtins first, then every other template file
// found at the root of the templates filesystem, sorted.
func (s *Service) templateNames() ([]string, error) {
	entries, err := fs.ReadDir(s.templates, ".")
	if err != nil {
		return nil, &render.FileAccessError{Path: ".", Err: err}
	}

	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, name := range BuiltinTemplates {
		seen[name] = struct{}{}
		names = append(names, name)
	}

	var extra []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != TemplateExt {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), TemplateExt)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		extra = append(extra, name)
	}
	sort.Strings(extra)
	return append(names, extra...), nil
}

// Config returns a copy of the configuration the service was built with.
func (s *Service) Config() config.Config {
	return s.cfg.Clone()
}

// Ready reports whether Start has completed.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// Define registers fn under name, replacing any previous template.
func (s *Service) Define(name string, fn Template) error {
	return s.registry.Define(name, fn)
}

// DefineSource compiles source with the service compiler, so includes resolve
// against the configured templates and globals apply, then defines it as name.
func (s *Service) DefineSource(name, source string) error {
	fn, err := s.compiler.Compile(name, source)
	if err != nil {
		if errors.Is(err, render.ErrTemplateCompile) {
			return err
		}
		return &render.TemplateCompileError{Name: name, Err: err}
	}
	return s.Define(name, fn)
}

// Compiler returns the compiler Start uses, for callers that want to compile
// templates themselves before calling Define.
func (s *Service) Compiler() template.Compiler {
	return s.compiler
}

// Render resolves layout through the layout map and renders the matching
// template with the prelude and slots.
func (s *Service) Render(layout string, slots map[string]any) (string, error) {
	if !s.Ready() {
		return "", ErrNotReady
	}
	return s.registry.Render(layout, slots)
}

// RenderTo renders layout and writes the result to w.
func (s *Service) RenderTo(w io.Writer, layout string, slots map[string]any) error {
	out, err := s.Render(layout, slots)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Prelude returns a copy of the stylesheet references injected into renders.
func (s *Service) Prelude() prelude.Prelude {
	return s.registry.Prelude().Clone()
}

// Layouts returns a copy of the layout map.
func (s *Service) Layouts() map[string]string {
	return s.registry.Layouts()
}

// Templates returns the sorted names of registered templates.
func (s *Service) Templates() []string {
	return s.registry.List()
}

// Resolve returns the template name layout renders with.
func (s *Service) Resolve(layout string) string {
	return s.registry.Resolve(layout)
}
