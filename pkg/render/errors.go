package render

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound is matched by TemplateNotFoundError.
	ErrTemplateNotFound = errors.New("render: template not found")
	// ErrTemplateCompile is matched by TemplateCompileError.
	ErrTemplateCompile = errors.New("render: template compile failed")
	// ErrFileAccess is matched by FileAccessError.
	ErrFileAccess = errors.New("render: file access failed")
	// ErrInvalidTemplate is returned by Define for an empty name or nil function.
	ErrInvalidTemplate = errors.New("render: invalid template")
)

// TemplateNotFoundError reports a render request whose resolved template name
// has no registered template. Layout is the name the caller asked for and
// Template is what it resolved to through the layout map.
type TemplateNotFoundError struct {
	Layout   string
	Template string
}

func (e *TemplateNotFoundError) Error() string {
	if e.Layout != "" && e.Layout != e.Template {
		return fmt.Sprintf("render: template %q (layout %q) not found", e.Template, e.Layout)
	}
	return fmt.Sprintf("render: template %q not found", e.Template)
}

// Is lets errors.Is match ErrTemplateNotFound.
func (e *TemplateNotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// TemplateCompileError wraps an engine failure while compiling template source.
type TemplateCompileError struct {
	Name string
	Err  error
}

func (e *TemplateCompileError) Error() string {
	return fmt.Sprintf("render: compile template %q: %v", e.Name, e.Err)
}

func (e *TemplateCompileError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrTemplateCompile.
func (e *TemplateCompileError) Is(target error) bool {
	return target == ErrTemplateCompile
}

// FileAccessError wraps a failure reading or writing a bundled asset.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("render: access %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrFileAccess.
func (e *FileAccessError) Is(target error) bool {
	return target == ErrFileAccess
}
