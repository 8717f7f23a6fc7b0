package imej

import (
	"embed"
	"io/fs"
)

//go:embed styles/*.css
var embeddedStyles embed.FS

// StylesFS exposes the bundled stylesheets referenced by the prelude. When no
// styles directory is configured they are written to the user cache directory
// so a headless browser can load them through file:// URLs.
func StylesFS() fs.FS {
	sub, err := fs.Sub(embeddedStyles, "styles")
	if err != nil {
		return embeddedStyles
	}
	return sub
}
