// Package config loads the service configuration. Values come from an
// optional YAML file, then IMEJ_* environment variables, then defaults for
// anything still unset.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// DefaultLayout is the alias callers use when they do not care which template
// renders their slots.
const DefaultLayout = "default"

// Config is the resolved service configuration.
type Config struct {
	// LayoutMap maps a caller facing layout name to a template name.
	LayoutMap map[string]string `yaml:"layoutMap" json:"layoutMap" env:"IMEJ_LAYOUT_MAP" validate:"dive,keys,required,endkeys,required" jsonschema:"title=Layout map,description=Maps layout aliases to template names"`
	// StylesDir holds reset.css and normalize.css. Empty means the bundled
	// stylesheets are written to the user cache directory.
	StylesDir string `yaml:"stylesDir" json:"stylesDir,omitempty" env:"IMEJ_STYLES_DIR" jsonschema:"description=Directory holding the prelude stylesheets"`
	// TemplatesDir replaces the bundled templates. It must contain every
	// builtin template.
	TemplatesDir string `yaml:"templatesDir" json:"templatesDir,omitempty" env:"IMEJ_TEMPLATES_DIR" jsonschema:"description=Directory of .tpl templates replacing the bundled ones"`
	// ThemeVariant selects a variant of the stylesheet manifest.
	ThemeVariant string `yaml:"themeVariant" json:"themeVariant,omitempty" env:"IMEJ_THEME_VARIANT" jsonschema:"description=Variant of the stylesheet theme"`
}

var validate = validator.New()

// Default returns the configuration used when nothing is supplied.
func Default() Config {
	return Config{
		LayoutMap: DefaultLayoutMap(),
	}
}

// DefaultLayoutMap routes the default layout to the blank template.
func DefaultLayoutMap() map[string]string {
	return map[string]string{DefaultLayout: "blank"}
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides and defaults, and validates the result.
func Load(path string) (Config, error) {
	var data []byte
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		data = raw
	}
	return Parse(data)
}

// Parse is Load for an in-memory YAML document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every layout alias and target is non-empty.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			return fmt.Errorf("config: invalid configuration: %w", invalid)
		}
		return fmt.Errorf("config: validate: %w", err)
	}
	return nil
}

// Clone returns a copy that shares no maps with c.
func (c Config) Clone() Config {
	out := c
	out.LayoutMap = maps.Clone(c.LayoutMap)
	return out
}

func (c *Config) applyDefaults() {
	if c.LayoutMap == nil {
		c.LayoutMap = DefaultLayoutMap()
	}
	c.StylesDir = strings.TrimSpace(c.StylesDir)
	c.TemplatesDir = strings.TrimSpace(c.TemplatesDir)
	c.ThemeVariant = strings.TrimSpace(c.ThemeVariant)
}

// Schema returns the JSON schema describing Config, for hosts that validate
// plugin configuration before it reaches the service.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("config: marshal schema: %w", err)
	}
	return data, nil
}
