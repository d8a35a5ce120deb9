// Package config loads sofer settings from YAML.
//
// Example .sofer.yaml:
//
//	from: sofer
//	to: lua
//	text: evaled
//	script:
//	  shared_context: false
//	  libraries: [base, table, string, math]
//	  call_stack_size: 120
//	store:
//	  path: sofer.db
//
// Omitted fields keep their defaults. Command line flags override the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sofer/internal/interchange"
	"github.com/roach88/sofer/internal/node"
	"github.com/roach88/sofer/internal/script"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = ".sofer.yaml"

// Config holds every setting the command line reads from a file.
type Config struct {
	// From is the default import format.
	From string `yaml:"from"`

	// To is the default export format.
	To string `yaml:"to"`

	// Text selects "raw" or "evaled" text for sofer export.
	Text string `yaml:"text"`

	Script ScriptConfig `yaml:"script"`
	Store  StoreConfig  `yaml:"store"`
}

// ScriptConfig configures formula evaluation.
type ScriptConfig struct {
	// SharedContext runs a whole evaluation pass in one Lua state.
	SharedContext bool `yaml:"shared_context"`

	// Libraries lists the Lua libraries opened for formulas.
	Libraries []string `yaml:"libraries"`

	// CallStackSize bounds nested Lua calls. Zero keeps the interpreter
	// default.
	CallStackSize int `yaml:"call_stack_size"`
}

// StoreConfig configures the snapshot database.
type StoreConfig struct {
	// Path of the SQLite database file.
	Path string `yaml:"path"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		From: interchange.Sofer,
		To:   interchange.Sofer,
		Text: node.EvaledText.String(),
		Script: ScriptConfig{
			Libraries: slices.Clone(script.DefaultLibraries),
		},
		Store: StoreConfig{
			Path: "sofer.db",
		},
	}
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks format names, the text mode and script settings.
func (c *Config) Validate() error {
	if err := interchange.ValidateImport(c.From); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	if err := interchange.ValidateExport(c.To); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	if _, err := node.ParseTextMode(c.Text); err != nil {
		return fmt.Errorf("text: %w", err)
	}
	if err := script.ValidateLibraries(c.Script.Libraries); err != nil {
		return fmt.Errorf("script.libraries: %w", err)
	}
	if c.Script.CallStackSize < 0 {
		return fmt.Errorf("script.call_stack_size: must not be negative, got %d", c.Script.CallStackSize)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path: must not be empty")
	}
	return nil
}

// TextMode returns the configured text mode. Validate must have passed.
func (c *Config) TextMode() node.TextMode {
	mode, _ := node.ParseTextMode(c.Text)
	return mode
}

// LuaOptions returns the interpreter settings.
func (c *Config) LuaOptions() script.LuaOptions {
	return script.LuaOptions{
		Libraries:     slices.Clone(c.Script.Libraries),
		CallStackSize: c.Script.CallStackSize,
	}
}
