// Package config loads tracer settings from a YAML file.
//
// Example:
//
//	extra-patterns:
//	  - "RDMSR"
//	log-level: debug
//	format: dot
//	focus: "fuzzy:rtc"
//	packages:
//	  - ./drivers/...
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/picatz/iotaint"
	"github.com/picatz/iotaint/traceutil"
)

// Formats accepted by the Format field.
const (
	FormatText = "text"
	FormatDOT  = "dot"
	FormatCSV  = "csv"
)

// Config holds the settings of a tracer run.
type Config struct {
	// Patterns replaces the default pattern set when not empty.
	Patterns []string `yaml:"patterns"`

	// ExtraPatterns are appended to the pattern set.
	ExtraPatterns []string `yaml:"extra-patterns"`

	// LogLevel is one of silent, info, debug or trace.
	LogLevel string `yaml:"log-level"`

	// Format of the trace output: text, dot or csv.
	Format string `yaml:"format"`

	// Focus restricts the scan to matching functions, using the
	// exact:, fuzzy:, glob: and regex: prefixes.
	Focus string `yaml:"focus"`

	// Packages are the package patterns to load.
	Packages []string `yaml:"packages"`

	sourceFile string
}

// NewDefault returns the configuration used when no file is given.
func NewDefault() *Config {
	return &Config{
		LogLevel: traceutil.LogLevelInfo.String(),
		Format:   FormatText,
		Packages: []string{"./..."},
	}
}

// Load reads and validates the YAML configuration file at filename.
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	cfg.sourceFile = filename

	return cfg, nil
}

// Parse decodes and validates a YAML configuration. Fields left out keep
// their default value.
func Parse(b []byte) (*Config, error) {
	cfg := NewDefault()

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if len(cfg.Packages) == 0 {
		cfg.Packages = []string{"./..."}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that can be wrong. The format is
// case-insensitive and is lowered in place, an empty one meaning text.
func (c *Config) Validate() error {
	c.Format = strings.ToLower(c.Format)
	if c.Format == "" {
		c.Format = FormatText
	}

	if _, err := traceutil.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.Format {
	case FormatText, FormatDOT, FormatCSV:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}

	if _, err := c.Matcher(); err != nil {
		return err
	}

	for _, p := range append(c.Patterns, c.ExtraPatterns...) {
		if p == "" {
			return fmt.Errorf("empty pattern")
		}
	}

	return nil
}

// SourceFile returns the file the configuration was loaded from, if any.
func (c *Config) SourceFile() string {
	return c.sourceFile
}

// PatternSet returns the pattern set the configuration describes.
func (c *Config) PatternSet() iotaint.PatternSet {
	ps := iotaint.DefaultPatterns
	if len(c.Patterns) > 0 {
		ps = iotaint.NewPatternSet(c.Patterns...)
	}
	if len(c.ExtraPatterns) > 0 {
		ps = ps.With(c.ExtraPatterns...)
	}
	return ps
}

// Level returns the log level, info if it cannot be parsed.
func (c *Config) Level() traceutil.LogLevel {
	level, _ := traceutil.ParseLogLevel(c.LogLevel)
	return level
}

// Matcher returns the focus matcher, or nil when no focus is set.
func (c *Config) Matcher() (*traceutil.FunctionMatcher, error) {
	if c.Focus == "" {
		return nil, nil
	}
	m, err := traceutil.NewFunctionMatcherFromString(c.Focus)
	if err != nil {
		return nil, fmt.Errorf("invalid focus: %w", err)
	}
	return m, nil
}
