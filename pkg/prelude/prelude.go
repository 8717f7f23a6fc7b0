// Package prelude computes the shared stylesheet references injected into
// every render. Stylesheets are described by a go-theme manifest: the manifest
// asset prefix is either a local directory, in which case each asset becomes a
// file:// URL a headless browser can load, or a URL prefix that is joined as
// is.
package prelude

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Asset keys of the built-in manifest. Templates read them as
// `prelude.resetCss` and `prelude.normalizeCss`.
const (
	ResetCSS     = "resetCss"
	NormalizeCSS = "normalizeCss"
)

const (
	ThemeName    = "imej"
	ThemeVersion = "1.0.0"
)

// Prelude maps an asset key to the URL of the resource.
type Prelude map[string]string

// Keys returns the asset keys in sorted order.
func (p Prelude) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy callers can modify freely.
func (p Prelude) Clone() Prelude {
	if p == nil {
		return Prelude{}
	}
	return maps.Clone(p)
}

// Manifest returns the built-in theme manifest for stylesheets stored in dir.
func Manifest(dir string) *theme.Manifest {
	return &theme.Manifest{
		Name:    ThemeName,
		Version: ThemeVersion,
		Assets: theme.Assets{
			Prefix: dir,
			Files: map[string]string{
				ResetCSS:     "reset.css",
				NormalizeCSS: "normalize.css",
			},
		},
	}
}

// Validate registers manifest with a scratch go-theme registry so malformed
// manifests fail before any render.
func Validate(manifest *theme.Manifest) error {
	if manifest == nil {
		return errors.New("prelude: manifest is required")
	}
	if err := theme.NewRegistry().Register(manifest); err != nil {
		return fmt.Errorf("prelude: invalid manifest %q: %w", manifest.Name, err)
	}
	return nil
}

// FromManifest resolves every asset of manifest into a URL. Variant assets
// override base assets with the same key; an unknown variant is an error.
func FromManifest(manifest *theme.Manifest, variant string) (Prelude, error) {
	if manifest == nil {
		return nil, errors.New("prelude: manifest is required")
	}

	prefix := manifest.Assets.Prefix
	files := maps.Clone(manifest.Assets.Files)
	if files == nil {
		files = map[string]string{}
	}

	if variant = strings.TrimSpace(variant); variant != "" {
		v, ok := manifest.Variants[variant]
		if !ok {
			return nil, fmt.Errorf("prelude: theme %q has no variant %q", manifest.Name, variant)
		}
		if v.Assets.Prefix != "" {
			prefix = v.Assets.Prefix
		}
		maps.Copy(files, v.Assets.Files)
	}

	out := make(Prelude, len(files))
	for key, file := range files {
		resolved, err := resolveAsset(prefix, file)
		if err != nil {
			return nil, fmt.Errorf("prelude: asset %q: %w", key, err)
		}
		out[key] = resolved
	}
	return out, nil
}

// FromSelector asks selector for a theme and resolves its assets.
func FromSelector(selector theme.ThemeSelector, name, variant string) (Prelude, error) {
	if selector == nil {
		return nil, errors.New("prelude: theme selector is required")
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("prelude: select theme %q: %w", name, err)
	}
	if selection == nil || selection.Manifest == nil {
		return nil, fmt.Errorf("prelude: theme %q resolved to an empty selection", name)
	}
	return FromManifest(selection.Manifest, selection.Variant)
}

// FileURL converts a filesystem path into an absolute file:// URL.
func FileURL(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	slashed := filepath.ToSlash(abs)
	if runtime.GOOS == "windows" || !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	u := url.URL{Scheme: "file", Path: slashed}
	return u.String(), nil
}

func resolveAsset(prefix, file string) (string, error) {
	file = strings.TrimSpace(file)
	if file == "" {
		return "", errors.New("empty file name")
	}
	if hasScheme(file) {
		return file, nil
	}
	if hasScheme(prefix) {
		base, err := url.Parse(prefix)
		if err != nil {
			return "", err
		}
		base.Path = path.Join(base.Path, file)
		return base.String(), nil
	}
	return FileURL(filepath.Join(prefix, filepath.FromSlash(file)))
}

func hasScheme(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	// single letter schemes are windows drive letters
	return len(u.Scheme) > 1
}
