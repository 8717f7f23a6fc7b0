package render_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-imej/pkg/prelude"
	"github.com/goliatone/go-imej/pkg/render"
)

func testPrelude() prelude.Prelude {
	return prelude.Prelude{
		prelude.ResetCSS:     "file:///opt/imej/styles/reset.css",
		prelude.NormalizeCSS: "file:///opt/imej/styles/normalize.css",
	}
}

func staticTemplate(out string) render.Template {
	return func(render.RenderContext) (string, error) {
		return out, nil
	}
}

func TestRegistry_DefinePassesPreludeAndSlots(t *testing.T) {
	p := testPrelude()
	registry := render.NewRegistry(render.WithPrelude(p))

	var captured render.RenderContext
	registry.MustDefine("card", func(ctx render.RenderContext) (string, error) {
		captured = ctx
		return "ok", nil
	})

	slots := map[string]any{
		"title": "Hello",
		"items": []any{"a", "b"},
		"meta":  map[string]any{"count": 2},
	}
	out, err := registry.Render("card", slots)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected output %q", out)
	}

	if diff := cmp.Diff(p, captured.Prelude); diff != "" {
		t.Fatalf("prelude mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(slots, captured.Slots); diff != "" {
		t.Fatalf("slots mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_AliasResolution(t *testing.T) {
	registry := render.NewRegistry(render.WithLayoutMap(map[string]string{"default": "blank"}))
	registry.MustDefine("blank", staticTemplate("<html></html>"))

	out, err := registry.Render("default", map[string]any{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<html></html>" {
		t.Fatalf("expected blank output, got %q", out)
	}
}

func TestRegistry_IdentityFallback(t *testing.T) {
	registry := render.NewRegistry(render.WithLayoutMap(map[string]string{"default": "blank"}))
	registry.MustDefine("blank", staticTemplate("blank"))
	registry.MustDefine("receipt", staticTemplate("receipt"))

	out, err := registry.Render("receipt", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "receipt" {
		t.Fatalf("expected direct template, got %q", out)
	}
}

func TestRegistry_AliasIsSingleLevel(t *testing.T) {
	registry := render.NewRegistry(render.WithLayoutMap(map[string]string{
		"default": "fancy",
		"fancy":   "blank",
	}))
	registry.MustDefine("blank", staticTemplate("blank"))
	registry.MustDefine("fancy", staticTemplate("fancy"))

	out, err := registry.Render("default", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "fancy" {
		t.Fatalf("expected one level of alias lookup, got %q", out)
	}
}

func TestRegistry_MissingTemplate(t *testing.T) {
	registry := render.NewRegistry(render.WithLayoutMap(map[string]string{"default": "blank"}))

	tests := []struct {
		layout   string
		template string
	}{
		{layout: "nope", template: "nope"},
		{layout: "default", template: "blank"},
	}

	for _, tc := range tests {
		t.Run(tc.layout, func(t *testing.T) {
			out, err := registry.Render(tc.layout, nil)
			if err == nil {
				t.Fatalf("expected error, got output %q", out)
			}
			if !errors.Is(err, render.ErrTemplateNotFound) {
				t.Fatalf("expected ErrTemplateNotFound, got %v", err)
			}
			var notFound *render.TemplateNotFoundError
			if !errors.As(err, &notFound) {
				t.Fatalf("expected *TemplateNotFoundError, got %T", err)
			}
			want := &render.TemplateNotFoundError{Layout: tc.layout, Template: tc.template}
			if diff := cmp.Diff(want, notFound); diff != "" {
				t.Fatalf("error mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegistry_RenderIsIdempotent(t *testing.T) {
	registry := render.NewRegistry(render.WithPrelude(testPrelude()))
	registry.MustDefine("echo", func(ctx render.RenderContext) (string, error) {
		return ctx.Prelude[prelude.ResetCSS] + "|" + ctx.Slots["name"].(string), nil
	})

	slots := map[string]any{"name": "Ada"}
	first, err := registry.Render("echo", slots)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := registry.Render("echo", slots)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical output, got %q and %q", first, second)
	}
}

func TestRegistry_DefineOverwrites(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustDefine("x", staticTemplate("first"))
	registry.MustDefine("x", staticTemplate("second"))

	out, err := registry.Render("x", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "second" {
		t.Fatalf("expected last define to win, got %q", out)
	}
	if diff := cmp.Diff([]string{"x"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_DefineRejectsInvalidInput(t *testing.T) {
	registry := render.NewRegistry()

	if err := registry.Define("  ", staticTemplate("x")); !errors.Is(err, render.ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate for empty name, got %v", err)
	}
	if err := registry.Define("x", nil); !errors.Is(err, render.ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate for nil template, got %v", err)
	}
	if registry.Has("x") {
		t.Fatalf("rejected template must not be stored")
	}
}

func TestRegistry_DefineLogsTemplateName(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	registry := render.NewRegistry(render.WithLogger(logger))

	registry.MustDefine("blank", staticTemplate(""))

	line := buf.String()
	if !strings.Contains(line, "load template") || !strings.Contains(line, "template=blank") {
		t.Fatalf("unexpected log output %q", line)
	}
}

func TestRegistry_ExecutionErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	registry := render.NewRegistry()
	registry.MustDefine("bad", func(render.RenderContext) (string, error) {
		return "", boom
	})

	_, err := registry.Render("bad", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped execution error, got %v", err)
	}
	if errors.Is(err, render.ErrTemplateNotFound) {
		t.Fatalf("execution error must not look like a missing template")
	}
}

func TestRegistry_LayoutsAreImmutable(t *testing.T) {
	layouts := map[string]string{"default": "blank"}
	registry := render.NewRegistry(render.WithLayoutMap(layouts))

	layouts["default"] = "other"
	got := registry.Layouts()
	got["extra"] = "blank"

	if diff := cmp.Diff(map[string]string{"default": "blank"}, registry.Layouts()); diff != "" {
		t.Fatalf("layouts mismatch (-want +got):\n%s", diff)
	}
	if registry.Resolve("default") != "blank" {
		t.Fatalf("expected alias to survive caller mutation")
	}
}

func TestRegistry_TemplatesCannotMutatePrelude(t *testing.T) {
	registry := render.NewRegistry(render.WithPrelude(testPrelude()))
	registry.MustDefine("tamper", func(ctx render.RenderContext) (string, error) {
		ctx.Prelude[prelude.ResetCSS] = "x"
		return "", nil
	})
	registry.MustDefine("read", func(ctx render.RenderContext) (string, error) {
		return ctx.Prelude[prelude.ResetCSS], nil
	})

	if _, err := registry.Render("tamper", nil); err != nil {
		t.Fatalf("render tamper: %v", err)
	}
	got, err := registry.Render("read", nil)
	if err != nil {
		t.Fatalf("render read: %v", err)
	}
	if want := testPrelude()[prelude.ResetCSS]; got != want {
		t.Fatalf("prelude changed between renders: want %q, got %q", want, got)
	}
	if diff := cmp.Diff(testPrelude(), registry.Prelude()); diff != "" {
		t.Fatalf("registry prelude mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_LayoutKeysAreKeptVerbatim(t *testing.T) {
	registry := render.NewRegistry(render.WithLayoutMap(map[string]string{
		"default ": "blank",
		"":         "ignored",
	}))
	registry.MustDefine("blank", staticTemplate("blank"))

	out, err := registry.Render("default ", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "blank" {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := registry.Render("default", nil); !errors.Is(err, render.ErrTemplateNotFound) {
		t.Fatalf("expected trimmed alias to be unknown, got %v", err)
	}
	if diff := cmp.Diff(map[string]string{"default ": "blank"}, registry.Layouts()); diff != "" {
		t.Fatalf("layouts mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_ConcurrentDefineAndRender(t *testing.T) {
	registry := render.NewRegistry(
		render.WithLayoutMap(map[string]string{"default": "blank"}),
		render.WithPrelude(testPrelude()),
	)
	registry.MustDefine("blank", staticTemplate("blank"))

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers*100)

	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				name := fmt.Sprintf("t%d", i)
				if err := registry.Define(name, staticTemplate(name)); err != nil {
					errs <- err
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				out, err := registry.Render("default", map[string]any{"j": j})
				if err != nil {
					errs <- err
					continue
				}
				if out != "blank" {
					errs <- fmt.Errorf("unexpected output %q", out)
				}
				_ = registry.List()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent access: %v", err)
	}
	if got := len(registry.List()); got != workers+1 {
		t.Fatalf("expected %d templates, got %d", workers+1, got)
	}
}
