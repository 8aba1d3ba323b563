package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/picatz/iotaint"
	"github.com/picatz/iotaint/traceutil"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
extra-patterns:
  - RDMSR
log-level: debug
format: DOT
focus: "fuzzy:rtc"
packages:
  - ./drivers/...
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Format != FormatDOT {
		t.Errorf("Format = %q, want %q", cfg.Format, FormatDOT)
	}
	if cfg.Level() != traceutil.LogLevelDebug {
		t.Errorf("Level = %v, want debug", cfg.Level())
	}
	if !reflect.DeepEqual(cfg.Packages, []string{"./drivers/..."}) {
		t.Errorf("Packages = %v", cfg.Packages)
	}

	ps := cfg.PatternSet()
	if ps.Len() != iotaint.DefaultPatterns.Len()+1 {
		t.Errorf("pattern set has %d patterns, want defaults plus one", ps.Len())
	}
	if !ps.IsInputRead("MOVL reg+0(FP), CX\nRDMSR") {
		t.Error("extra pattern not used")
	}

	m, err := cfg.Matcher()
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || !m.Match("example.com/rtc.read") {
		t.Errorf("focus matcher %v does not match", m)
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(cfg, NewDefault()) {
		t.Errorf("Parse(nil) = %+v, want defaults %+v", cfg, NewDefault())
	}
	if m, err := cfg.Matcher(); m != nil || err != nil {
		t.Errorf("Matcher() = %v, %v, want nil, nil", m, err)
	}
	if !reflect.DeepEqual(cfg.PatternSet().Patterns(), iotaint.DefaultPatterns.Patterns()) {
		t.Error("default config should use the default patterns")
	}
}

func TestParsePatternsReplaceDefaults(t *testing.T) {
	cfg, err := Parse([]byte("patterns: [INB, INW]\n"))
	if err != nil {
		t.Fatal(err)
	}

	if got := cfg.PatternSet().Patterns(); !reflect.DeepEqual(got, []string{"INB", "INW"}) {
		t.Errorf("patterns = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "format: [", "could not unmarshal config"},
		{"bad format", "format: json", `unknown format "json"`},
		{"bad level", "log-level: loud", `unknown log level "loud"`},
		{"bad focus", `focus: "regex:["`, "invalid focus"},
		{"empty pattern", `extra-patterns: [""]`, "empty pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestValidateFormatCase(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"DOT", FormatDOT},
		{"Csv", FormatCSV},
		{"text", FormatText},
		{"", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cfg := NewDefault()
			cfg.Format = tt.format
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if cfg.Format != tt.want {
				t.Errorf("Format = %q, want %q", cfg.Format, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iotaint.yaml")
	if err := os.WriteFile(path, []byte("format: csv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Format != FormatCSV || cfg.SourceFile() != path {
		t.Errorf("Load = %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
