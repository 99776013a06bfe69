// Package config holds the conversion settings. Values come from an optional
// YAML file; command-line flags given explicitly override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatMermaid = "mermaid"
	FormatDrawIO  = "drawio"
	FormatBoth    = "both"
)

// Config is the complete set of conversion settings.
type Config struct {
	Format string `yaml:"format"`
	OutDir string `yaml:"out"`
	Flat   bool   `yaml:"flat"`

	// Hierarchical nests the charts of called components as sub-graphs.
	Hierarchical bool `yaml:"hierarchical"`
	MaxDepth     int  `yaml:"max_depth"`
	ExpandLoops  bool `yaml:"expand_loops"`
	// Interface also writes a class diagram of each component's variables.
	Interface bool `yaml:"interface"`

	Labels Labels `yaml:"labels"`

	// Kinds limits conversion to these component kinds (program,
	// functionBlock, function, action, method); empty means all.
	Kinds []string `yaml:"kinds,omitempty"`
	// Names limits conversion to these component names; empty means all.
	Names []string `yaml:"names,omitempty"`

	// LogLevel is debug, info, warn or error; empty defers to LOG_LEVEL.
	LogLevel string `yaml:"log_level,omitempty"`
}

// Labels caps label lengths and sets the call-node style.
type Labels struct {
	NodeMax   int    `yaml:"node_max"`
	EdgeMax   int    `yaml:"edge_max"`
	CallStyle string `yaml:"call_style,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Format:   FormatMermaid,
		OutDir:   "flowcharts",
		MaxDepth: 3,
		Labels: Labels{
			NodeMax: 150,
			EdgeMax: 30,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var validKinds = map[string]bool{
	"program": true, "functionBlock": true, "function": true, "action": true, "method": true,
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Format {
	case FormatMermaid, FormatDrawIO, FormatBoth:
	default:
		errs = append(errs, fmt.Errorf("format %q: want mermaid, drawio or both", c.Format))
	}
	if c.OutDir == "" {
		errs = append(errs, errors.New("out: empty output directory"))
	}
	if c.Hierarchical && c.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max_depth %d: must be at least 1", c.MaxDepth))
	}
	if c.Labels.NodeMax <= 3 {
		errs = append(errs, fmt.Errorf("labels.node_max %d: must be greater than 3", c.Labels.NodeMax))
	}
	if c.Labels.EdgeMax <= 3 {
		errs = append(errs, fmt.Errorf("labels.edge_max %d: must be greater than 3", c.Labels.EdgeMax))
	}
	for _, k := range c.Kinds {
		if !validKinds[k] {
			errs = append(errs, fmt.Errorf("kinds: unknown kind %q", k))
		}
	}
	return errors.Join(errs...)
}

// Mermaid reports whether Mermaid files are written.
func (c Config) Mermaid() bool { return c.Format == FormatMermaid || c.Format == FormatBoth }

// DrawIO reports whether Draw.io files are written.
func (c Config) DrawIO() bool { return c.Format == FormatDrawIO || c.Format == FormatBoth }

// Selects reports whether a component passes the kind and name filters.
func (c Config) Selects(name, kind string) bool {
	if len(c.Kinds) > 0 && !contains(c.Kinds, kind, false) {
		return false
	}
	if len(c.Names) > 0 && !contains(c.Names, name, true) {
		return false
	}
	return true
}

func contains(list []string, s string, fold bool) bool {
	for _, v := range list {
		if v == s || fold && strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Write saves c as YAML, the counterpart of Load.
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
