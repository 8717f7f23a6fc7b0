// Package template defines the engine-agnostic compile seam used to turn
// template source into render.Template values. Engines live in subpackages.
package template
