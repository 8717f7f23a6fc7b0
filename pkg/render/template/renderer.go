package template

import (
	"github.com/goliatone/go-imej/pkg/render"
)

// Compiler turns template source into a render.Template. Name is used for
// diagnostics only; it does not register anything.
type Compiler interface {
	Compile(name, source string) (render.Template, error)
}

// CompilerFunc adapts a plain function into a Compiler.
type CompilerFunc func(name, source string) (render.Template, error)

// Compile calls f.
func (f CompilerFunc) Compile(name, source string) (render.Template, error) {
	return f(name, source)
}
