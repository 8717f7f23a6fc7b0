package imej

import (
	"io/fs"
	"strings"
	"testing"
)

func TestStylesFSContainsPreludeStylesheets(t *testing.T) {
	for _, name := range []string{"reset.css", "normalize.css"} {
		data, err := fs.ReadFile(StylesFS(), name)
		if err != nil {
			t.Fatalf("expected %s to be readable: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("expected %s to have content", name)
		}
	}
}

func TestEmbeddedTemplatesIncludeBuiltins(t *testing.T) {
	for _, name := range BuiltinTemplates {
		data, err := fs.ReadFile(EmbeddedTemplates(), name+TemplateExt)
		if err != nil {
			t.Fatalf("expected builtin %s to be readable: %v", name, err)
		}
		if !strings.Contains(string(data), "prelude.resetCss") {
			t.Fatalf("expected builtin %s to link the reset stylesheet", name)
		}
	}
}
