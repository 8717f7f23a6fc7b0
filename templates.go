package imej

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplateExt is the file extension Start looks for when loading templates.
const TemplateExt = ".tpl"

// BuiltinTemplates lists the templates every service registers on Start. A
// templates directory that overrides the bundle must still provide them.
var BuiltinTemplates = []string{"blank"}

// EmbeddedTemplates exposes the built-in templates so callers can reuse or
// extend them, e.g. as the base of a custom templates directory.
func EmbeddedTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}
