// Command iotrace loads Go packages, finds every call into assembly that
// reads hardware input, and prints where each value read flows.
//
// Usage:
//
//	iotrace [-config file] [-format text|dot|csv] [-focus pattern] [-v] [-dir dir] [packages]
//
// The trace is written to stdout and diagnostics to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/picatz/iotaint"
	"github.com/picatz/iotaint/config"
	"github.com/picatz/iotaint/ssaunit"
	"github.com/picatz/iotaint/traceutil"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("iotrace", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configFile = fs.String("config", "", "YAML configuration `file`")
		format     = fs.String("format", "", "trace output format: text, dot or csv")
		focus      = fs.String("focus", "", "only scan functions matching `pattern` (exact:, fuzzy:, glob:, regex:)")
		verbose    = fs.Bool("v", false, "log debug output")
		dir        = fs.String("dir", ".", "`directory` to load packages from")
	)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: iotrace [flags] [packages]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.NewDefault()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			return err
		}
	}

	if *format != "" {
		cfg.Format = *format
	}
	if *focus != "" {
		cfg.Focus = *focus
	}
	if *verbose {
		cfg.LogLevel = traceutil.LogLevelDebug.String()
	}
	if fs.NArg() > 0 {
		cfg.Packages = fs.Args()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := traceutil.NewLogger(cfg.Level(), stderr)
	ctx = traceutil.WithLogger(ctx, logger)

	if cfg.SourceFile() != "" {
		logger.Debug("using configuration from %s", cfg.SourceFile())
	}

	unit, _, err := ssaunit.Load(ctx, *dir, cfg.Packages...)
	if err != nil {
		return err
	}

	opts := iotaint.Options{
		Patterns: cfg.PatternSet(),
	}

	matcher, err := cfg.Matcher()
	if err != nil {
		return err
	}
	if matcher != nil {
		opts.Focus = matcher
	}

	if cfg.Format == config.FormatText {
		opts.Output = stdout
	}

	result := iotaint.Analyze(ctx, unit, opts)

	switch cfg.Format {
	case config.FormatDOT:
		return iotaint.WriteDOT(stdout, result.Trace())
	case config.FormatCSV:
		return iotaint.WriteCSV(stdout, result.Seeds)
	}
	return nil
}
