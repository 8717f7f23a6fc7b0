// Package pongo compiles Django-syntax templates with pongo2 into
// render.Template values. Render contexts are exposed to templates as
// `prelude` and `slots`; output is autoescaped, and the `sanitize` filter
// passes caller supplied HTML through a bluemonday policy instead.
package pongo
