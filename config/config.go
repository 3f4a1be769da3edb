package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file looked up by the CLI when --config is not given
const FileName = "typeguard.toml"

type Source string

const (
	// SourceYard reads annotations from doc comments
	SourceYard Source = "yard"
	// SourceRBS reads annotations from YAML signature files
	SourceRBS Source = "rbs"
)

var SupportedSources = []Source{SourceYard, SourceRBS}

var sourceAliases = map[string]Source{
	"doc": SourceYard,
	"sig": SourceRBS,
}

type Config struct {
	Enabled bool `toml:"enabled"`
	// Reparse forces the definition builder to rebuild instead of reusing a previous build
	Reparse      bool     `toml:"reparse"`
	AtExitReport bool     `toml:"at_exit_report"`
	Target       []string `toml:"target"`
	Source       Source   `toml:"source"`

	Resolution Resolution `toml:"resolution"`
	Wrapping   Wrapping   `toml:"wrapping"`
	Validation Validation `toml:"validation"`
	Report     Report     `toml:"report"`
}

type Resolution struct {
	// RaiseOnNameError selects strict resolution. Otherwise unresolvable definitions are pruned.
	RaiseOnNameError bool `toml:"raise_on_name_error"`
}

type Wrapping struct {
	RaiseOnUnexpectedArity      bool `toml:"raise_on_unexpected_arity"`
	RaiseOnUnexpectedVisibility bool `toml:"raise_on_unexpected_visibility"`
}

type Validation struct {
	RaiseOnUnexpectedArgument bool `toml:"raise_on_unexpected_argument"`
	RaiseOnUnexpectedReturn   bool `toml:"raise_on_unexpected_return"`
}

type Report struct {
	// Path is the file the at-exit report is appended to; stderr when empty
	Path string `toml:"path"`
}

func Default() Config {
	return Config{Source: SourceYard}
}

// Load reads a TOML configuration file on top of Default
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate normalises source aliases and rejects unsupported sources
func (c *Config) Validate() error {
	if alias, ok := sourceAliases[string(c.Source)]; ok {
		c.Source = alias
	}
	if c.Source == "" {
		c.Source = SourceYard
	}
	if !slices.Contains(SupportedSources, c.Source) {
		return fmt.Errorf("config source must be one of %v, got '%s'", SupportedSources, c.Source)
	}
	return nil
}

// Encode renders the configuration as TOML
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
