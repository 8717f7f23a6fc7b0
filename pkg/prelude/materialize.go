package prelude

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// PathError reports which asset could not be read or written while
// materializing a stylesheet bundle.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("prelude: %s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Materialize copies every regular file of src into dir, creating dir when
// needed. Files are replaced atomically so a browser reading a stylesheet
// never sees a partial write. Files whose content already matches are left
// alone.
func Materialize(src fs.FS, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PathError{Path: dir, Err: err}
	}

	return fs.WalkDir(src, ".", func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return &PathError{Path: name, Err: walkErr}
		}
		if entry.IsDir() {
			if name == "." {
				return nil
			}
			if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(name)), 0o755); err != nil {
				return &PathError{Path: name, Err: err}
			}
			return nil
		}

		data, err := fs.ReadFile(src, name)
		if err != nil {
			return &PathError{Path: name, Err: err}
		}

		target := filepath.Join(dir, filepath.FromSlash(name))
		if current, err := os.ReadFile(target); err == nil && bytes.Equal(current, data) {
			return nil
		}
		if err := atomic.WriteFile(target, bytes.NewReader(data)); err != nil {
			return &PathError{Path: target, Err: err}
		}
		return nil
	})
}

// DefaultDir is where embedded stylesheets are materialized when no styles
// directory is configured.
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "imej", "styles")
}
