// Command iotaint is an interactive shell to explore where values read
// from hardware flow in a Go program.
//
//	> load ./drivers/...
//	> seeds
//	> trace 1
//	> callers fuzzy:readReg
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-git/go-git/v5"
	"golang.org/x/term"
	"golang.org/x/tools/go/packages"

	"github.com/picatz/iotaint"
	"github.com/picatz/iotaint/config"
	"github.com/picatz/iotaint/ssaunit"
	"github.com/picatz/iotaint/traceutil"
)

// Pastel / adaptive lipgloss styles. Users may disable color with NO_COLOR or
// IOTAINT_THEME=plain. Initialized via initStyles() in main.
var (
	styleBold     lipgloss.Style
	styleFaint    lipgloss.Style
	styleNumber   lipgloss.Style
	styleArgument lipgloss.Style
	styleCommand  lipgloss.Style
	styleHeader   lipgloss.Style
	styleInfo     lipgloss.Style
	styleSuccess  lipgloss.Style
	styleWarning  lipgloss.Style
	styleSubtle   lipgloss.Style
	styleArrow    lipgloss.Style
	stylePkg      lipgloss.Style
	styleRecv     lipgloss.Style
	styleMethod   lipgloss.Style
	stylePointer  lipgloss.Style
	styleAsm      lipgloss.Style
)

func initStyles() {
	plain := os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("IOTAINT_THEME"), "plain")
	if plain {
		reset := lipgloss.NewStyle()
		styleBold = lipgloss.NewStyle().Bold(true)
		styleFaint = reset
		styleNumber = reset
		styleArgument = reset
		styleCommand = lipgloss.NewStyle().Bold(true)
		styleHeader = lipgloss.NewStyle().Bold(true)
		styleInfo = reset
		styleSuccess = reset
		styleWarning = reset
		styleSubtle = reset
		styleArrow = reset
		stylePkg = reset
		styleRecv = reset
		styleMethod = reset
		stylePointer = reset
		styleAsm = reset
		return
	}

	pastelBlue := lipgloss.AdaptiveColor{Light: "#3366cc", Dark: "#8fb3ff"}
	pastelTeal := lipgloss.AdaptiveColor{Light: "#2b7a78", Dark: "#7ad1c4"}
	pastelRose := lipgloss.AdaptiveColor{Light: "#ad5d7d", Dark: "#ffb3c9"}
	pastelGold := lipgloss.AdaptiveColor{Light: "#b58b00", Dark: "#ffd666"}
	pastelGreen := lipgloss.AdaptiveColor{Light: "#2f7d32", Dark: "#9ada9f"}
	pastelGray := lipgloss.AdaptiveColor{Light: "#6b6f76", Dark: "#9aa0aa"}
	pastelEdge := lipgloss.AdaptiveColor{Light: "#7a7f88", Dark: "#aab2bd"}
	pastelPkg := lipgloss.AdaptiveColor{Light: "#4a6892", Dark: "#87a7d9"}
	pastelRecv := lipgloss.AdaptiveColor{Light: "#7b5d8e", Dark: "#bfa3d6"}
	pastelPtr := lipgloss.AdaptiveColor{Light: "#9d7a00", Dark: "#d8b74a"}

	styleBold = lipgloss.NewStyle().Bold(true)
	styleFaint = lipgloss.NewStyle().Foreground(pastelGray)
	styleSubtle = lipgloss.NewStyle().Foreground(pastelGray)
	styleNumber = lipgloss.NewStyle().Foreground(pastelGold).Bold(true)
	styleArgument = lipgloss.NewStyle().Foreground(pastelTeal)
	styleCommand = lipgloss.NewStyle().Foreground(pastelBlue).Bold(true)
	styleHeader = lipgloss.NewStyle().Foreground(pastelBlue).Bold(true)
	styleInfo = lipgloss.NewStyle().Foreground(pastelTeal)
	styleSuccess = lipgloss.NewStyle().Foreground(pastelGreen)
	styleWarning = lipgloss.NewStyle().Foreground(pastelGold).Bold(true)
	styleArrow = lipgloss.NewStyle().Foreground(pastelEdge)
	stylePkg = lipgloss.NewStyle().Foreground(pastelPkg)
	styleRecv = lipgloss.NewStyle().Foreground(pastelRecv)
	styleMethod = lipgloss.NewStyle().Foreground(pastelTeal).Bold(true)
	stylePointer = lipgloss.NewStyle().Foreground(pastelPtr)
	styleAsm = lipgloss.NewStyle().Foreground(pastelRose)
}

// semanticColorFunc colors a function string semantically (pkg, receiver, method).
func semanticColorFunc(full string) string {
	if full == "" {
		return full
	}
	lastDot := strings.LastIndex(full, ".")
	if lastDot == -1 {
		return styleMethod.Render(full)
	}
	pkgPath := full[:lastDot]
	rest := full[lastDot+1:]
	if strings.HasPrefix(full, "(") {
		if end := strings.Index(full, ")"); end > 0 && end < lastDot {
			return colorReceiver(full[:end+1]) + "." + styleMethod.Render(rest)
		}
	}
	return stylePkg.Render(pkgPath) + "." + styleMethod.Render(rest)
}

func colorReceiver(recv string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(recv, "("), ")")
	ptr := false
	if strings.HasPrefix(inner, "*") {
		ptr = true
		inner = strings.TrimPrefix(inner, "*")
	}
	var colored string
	if lastDot := strings.LastIndex(inner, "."); lastDot >= 0 {
		colored = stylePkg.Render(inner[:lastDot]) + "." + styleRecv.Render(inner[lastDot+1:])
	} else {
		colored = styleRecv.Render(inner)
	}
	if ptr {
		return "(" + stylePointer.Render("*") + colored + ")"
	}
	return "(" + colored + ")"
}

// Shell state. The result is computed on demand and reset whenever the
// unit, the patterns or the focus change.
var (
	pkgs     []*packages.Package
	unit     *ssaunit.Unit
	result   *iotaint.Result
	patterns = iotaint.DefaultPatterns
	focus    iotaint.Matcher
)

func resetResult() {
	result = nil
}

// shellContext returns ctx carrying a logger that writes to the terminal.
func shellContext(ctx context.Context, bt *bufio.Writer) context.Context {
	return traceutil.WithLogger(ctx, traceutil.NewLogger(traceutil.LogLevelInfo, bt))
}

// analyze returns the result for the loaded unit, computing it if needed.
func analyze(ctx context.Context, bt *bufio.Writer) *iotaint.Result {
	if unit == nil {
		return nil
	}
	if result == nil {
		result = iotaint.Analyze(shellContext(ctx, bt), unit, iotaint.Options{
			Patterns: patterns,
			Focus:    focus,
		})
	}
	return result
}

func writeNotLoaded(bt *bufio.Writer) {
	bt.WriteString("no program is loaded\n")
	bt.Flush()
}

// makeRawTerminal returns a raw terminal and a function to restore the
// terminal to its previous state, which should be called when the terminal
// is no longer needed (typically in a defer).
func makeRawTerminal() (*term.Terminal, func(), error) {
	oldState, err := term.MakeRaw(0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w", err)
	}

	termWidth, termHeight, err := term.GetSize(0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w", err)
	}

	termReadWriter := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}

	t := term.NewTerminal(termReadWriter, "") // Will set the prompt later.

	err = t.SetSize(termWidth, termHeight)
	if err != nil {
		return nil, nil, fmt.Errorf("%w", err)
	}

	return t, func() { term.Restore(0, oldState) }, nil
}

func clearScreen(bt *bufio.Writer) error {
	// Clear the screen, then move to the top left.
	if _, err := bt.WriteString("\033[2J\033[H"); err != nil {
		return fmt.Errorf("%w", err)
	}
	if err := bt.Flush(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

type commandArg struct {
	name     string
	desc     string
	optional bool
}

type command struct {
	name string
	desc string
	args []*commandArg
	fn   commandFn
}

func (c *command) nRequiredArgs() int {
	var n int
	for _, arg := range c.args {
		if arg.optional {
			continue
		}
		n++
	}
	return n
}

func (c *command) help() string {
	var help strings.Builder

	help.WriteString(styleCommand.Render(c.name) + " ")

	for _, arg := range c.args {
		if arg.optional {
			help.WriteString(styleArgument.Render("[") + styleFaint.Render(fmt.Sprintf("<%s>", arg.name)) + styleArgument.Render("] "))
			continue
		}
		help.WriteString(styleArgument.Render(fmt.Sprintf("<%s> ", arg.name)))
	}

	help.WriteString(styleFaint.Render(c.desc) + "\n")

	return help.String()
}

type commandFn func(
	ctx context.Context,
	bt *bufio.Writer,
	args []string,
	flags map[string]string,
) error

func errorCommandFn(err error) commandFn {
	return func(
		_ context.Context,
		_ *bufio.Writer,
		_ []string,
		_ map[string]string,
	) error {
		return err
	}
}

func terminalWriteFn(fn func(bt *bufio.Writer) error) commandFn {
	return func(
		_ context.Context,
		bt *bufio.Writer,
		_ []string,
		_ map[string]string,
	) error {
		return fn(bt)
	}
}

type commands []*command

func (c commands) help() string {
	var help strings.Builder
	for _, cmd := range c {
		help.WriteString(styleFaint.Render("- ") + styleCommand.Render(cmd.name) + " ")

		for _, arg := range cmd.args {
			if arg.optional {
				help.WriteString(styleArgument.Render("[") + styleFaint.Render(arg.name) + styleArgument.Render("] "))
				continue
			}
			help.WriteString(styleArgument.Render(fmt.Sprintf("<%s> ", arg.name)))
		}

		help.WriteString(styleFaint.Render(cmd.desc) + "\n")
	}

	help.WriteString("\n")

	return help.String()
}

func (c commands) eval(ctx context.Context, bt *bufio.Writer, input string) error {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}

	cmdName := fields[0]

	flagSet := flag.NewFlagSet(cmdName, flag.ContinueOnError)
	flagSet.SetOutput(bt)
	flagSet.Usage = func() {
		bt.WriteString(c.help())
		bt.Flush()
	}

	// The flag set already reported the error, the shell goes on.
	if err := flagSet.Parse(fields[1:]); err != nil {
		bt.Flush()
		return nil
	}

	flags := make(map[string]string)
	flagSet.Visit(func(f *flag.Flag) {
		flags[f.Name] = f.Value.String()
	})

	for _, cmd := range c {
		if cmd.name == cmdName {
			if len(flagSet.Args()) < cmd.nRequiredArgs() {
				bt.WriteString("not enough arguments, expected " + styleNumber.Render(fmt.Sprintf("%d", cmd.nRequiredArgs())) + " but got " + styleNumber.Render(fmt.Sprintf("%d", len(flagSet.Args()))) + "\n")
				bt.WriteString("usage: " + cmd.help())
				bt.Flush()
				return nil
			}

			return cmd.fn(ctx, bt, flagSet.Args(), flags)
		}
	}

	bt.WriteString("unknown command: " + cmdName + "\n")
	bt.Flush()

	return nil
}

var builtinCommandExit = &command{
	name: "exit",
	desc: "exit the shell",
	fn:   errorCommandFn(io.EOF),
}

var builtinCommandClear = &command{
	name: "clear",
	desc: "clear the screen",
	fn: terminalWriteFn(func(bt *bufio.Writer) error {
		return clearScreen(bt)
	}),
}

var builtinCommandLoad = &command{
	name: "load",
	desc: "load a program",
	args: []*commandArg{
		{
			name: "target",
			desc: "the target to load (directory or GitHub repository; repository URLs may include a subdirectory path)",
		},
		{
			name:     "pattern",
			desc:     "the pattern(s) to load. Accepts comma-separated list. Default: ./... (local) or '.' (bare GitHub repo). Use --full to force ./... for GitHub.",
			optional: true,
		},
	},
	fn: func(ctx context.Context, bt *bufio.Writer, args []string, flags map[string]string) error {
		var (
			pattern             = "./..."
			userPatternSupplied bool
			forceFull           bool
			dir                 string
		)

		var cleanedArgs []string
		for _, a := range args {
			if a == "--full" || a == "-full" || a == "--all" {
				forceFull = true
				continue
			}
			cleanedArgs = append(cleanedArgs, a)
		}
		args = cleanedArgs

		target := args[0]
		if len(args) > 1 {
			pattern = args[1]
			userPatternSupplied = true
		}

		if strings.HasPrefix(target, "https://github.com/") {
			u, err := url.Parse(target)
			if err != nil {
				bt.WriteString(err.Error() + "\n")
				bt.Flush()
				return nil
			}
			segments := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
			if len(segments) < 2 {
				bt.WriteString("invalid GitHub URL: " + target + "\n")
				bt.Flush()
				return nil
			}

			var subpath string
			if len(segments) > 2 {
				// Handle tree/<branch>/ and blob/<branch>/ style paths.
				if (segments[2] == "tree" || segments[2] == "blob") && len(segments) >= 5 {
					subpath = filepath.Join(segments[4:]...)
				} else {
					subpath = filepath.Join(segments[2:]...)
				}
			}

			cloneURL := "https://github.com/" + segments[0] + "/" + segments[1]
			cloned, head, err := cloneRepository(ctx, cloneURL)
			if err != nil {
				bt.WriteString(err.Error() + "\n")
				bt.Flush()
				return nil
			}
			dir = filepath.Join(cloned, subpath)
			if strings.HasSuffix(dir, ".go") || strings.HasSuffix(dir, ".s") {
				dir = filepath.Dir(dir)
			}

			if forceFull && !userPatternSupplied {
				pattern = "./..."
			} else if !userPatternSupplied {
				pattern = "."
			}

			bt.WriteString("cloned " + styleNumber.Render(cloneURL) + " to " + styleNumber.Render(dir) + " at " + styleNumber.Render(head) + "\n")
			bt.Flush()
		} else {
			dir = target
		}

		if _, err := os.Stat(dir); os.IsNotExist(err) {
			fmt.Fprintf(bt, "directory %q does not exist\n", dir)
			bt.Flush()
			return nil
		}

		var loadPatterns []string
		for _, p := range strings.Split(pattern, ",") {
			if p = strings.TrimSpace(p); p != "" {
				loadPatterns = append(loadPatterns, p)
			}
		}

		loaded, loadedPkgs, err := ssaunit.Load(shellContext(ctx, bt), dir, loadPatterns...)
		if err != nil {
			bt.WriteString("✗ " + styleWarning.Render("failed to load: ") + err.Error() + "\n")
			bt.Flush()
			return nil
		}

		unit, pkgs = loaded, loadedPkgs
		resetResult()

		var asmFiles int
		for _, p := range pkgs {
			for _, f := range p.OtherFiles {
				if strings.HasSuffix(f, ".s") {
					asmFiles++
				}
			}
		}

		bt.WriteString("✓ " + styleSuccess.Render("loaded ") + styleNumber.Render(fmt.Sprintf("%d", len(pkgs))) + styleSuccess.Render(" packages") + styleSubtle.Render(" with ") + styleNumber.Render(fmt.Sprintf("%d", asmFiles)) + styleSubtle.Render(" assembly files") + "\n")
		bt.Flush()
		return nil
	},
}

var builtinCommandPkgs = &command{
	name: "pkgs",
	desc: "list loaded packages",
	fn: func(ctx context.Context, bt *bufio.Writer, args []string, flags map[string]string) error {
		if len(pkgs) == 0 {
			bt.WriteString("no packages are loaded\n")
			bt.Flush()
			return nil
		}

		for _, pkg := range pkgs {
			var asm []string
			for _, f := range pkg.OtherFiles {
				if strings.HasSuffix(f, ".s") {
					asm = append(asm, filepath.Base(f))
				}
			}
			line := pkg.PkgPath + " " + styleFaint.Render(fmt.Sprintf("%d files", len(pkg.GoFiles)))
			if len(asm) > 0 {
				line += " " + styleAsm.Render(strings.Join(asm, " "))
			}
			bt.WriteString(line + "\n")
		}

		bt.Flush()
		return nil
	},
}

var builtinCommandFuncs = &command{
	name: "funcs",
	desc: "list the functions of the program",
	args: []*commandArg{
		{
			name:     "function",
			desc:     "only list matching functions (supports fuzzy, glob, and regex matching)",
			optional: true,
		},
	},
	fn: func(ctx context.Context, bt *bufio.Writer, args []string, flags map[string]string) error {
		if unit == nil {
			writeNotLoaded(bt)
			return nil
		}

		var matcher *traceutil.FunctionMatcher
		if len(args) > 0 {
			m, err := traceutil.NewFunctionMatcherFromString(args[0])
			if err != nil {
				bt.WriteString("invalid pattern: " + err.Error() + "\n")
				bt.Flush()
				return nil
			}
			matcher = m
		}

		var n int
		for _, fn := range unit.Functions() {
			if matcher != nil && !matcher.Match(fn.Name()) {
				continue
			}
			n++
			line := semanticColorFunc(fn.Name())
			if blocks := len(fn.Blocks()); blocks == 0 {
				line += " " + styleAsm.Render("(no body)")
			} else {
				line += " " + styleFaint.Render(fmt.Sprintf("%d blocks", blocks))
			}
			bt.WriteString(line + "\n")
		}

		if n == 0 {
			bt.WriteString("no functions found\n")
		}
		bt.Flush()
		return nil
	},
}

var builtinCommandSeeds = &command{
	name: "seeds",
	desc: "list the calls that read hardware input",
	fn: func(ctx context.Context, bt *bufio.Writer, args []string, flags map[string]string) error {
		r := analyze(ctx, bt)
		if r == nil {
			writeNotLoaded(bt)
			return nil
		}

		if len(r.Seeds) == 0 {
			bt.WriteString("✗ " + styleWarning.Render("no hardware input reads found") + styleSubtle.Render(" using ") + styleNumber.Render(fmt.Sprintf("%d", patterns.Len())) + styleSubtle.Render(" patterns") + "\n")
			bt.Flush()
			return nil
		}

		for i, s := range r.Seeds {
			line := styleNumber.Render(fmt.Sprintf("%d", i+1)) + ": " + semanticColorFunc(s.Function.Name()) + styleArrow.Render(" → ") + s.Instruction.String()
			line += styleSubtle.Render(" matched ") + styleAsm.Render(s.Pattern)
			line += styleSubtle.Render(fmt.Sprintf(", reaches %d", s.Trace.Reached()))
			if loops := s.Trace.Loops(); loops > 0 {
				line += styleSubtle.Render(fmt.Sprintf(", %d loops", loops))
			}
			bt.WriteString(line + "\n")
			if len(s.Trace) > 0 && s.Trace[0].HasLocation {
				bt.WriteString("   " + styleFaint.Render(s.Trace[0].Location.String()) + "\n")
			}
		}
		bt.Flush()
		return nil
	},
}

var builtinCommandTrace = &command{
	name: "trace",
	desc: "print the propagation trace of a seed, or of all seeds",
	args: []*commandArg{
		{
			name:     "seed",
			desc:     "the seed number, as listed by seeds",
			optional: true,
		},
		{
			name:     "format",
			desc:     "text, dot or csv",
			optional: true,
		},
	},
	fn: func(ctx context.Context, bt *bufio.Writer, args []string, flags map[string]string) error {
		r := analyze(ctx, bt)
		if r == nil {
			writeNotLoaded(bt)
			return nil
		}

		seeds := r.Seeds
		format := config.FormatText

		for _, arg := range args {
			switch arg {
			case config.FormatText, config.FormatDOT, config.FormatCSV:
				format = arg
				continue
			}
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 || n > len(r.Seeds) {
				bt.WriteString("invalid seed " + styleArgument.Render(arg) + ", expected 1 to " + styleNumber.Render(fmt.Sprintf("%d", len(r.Seeds))) + "\n")
				bt.Flush()
				return nil
			}
			seeds = r.Seeds[n-1 : n]
		}

		var err error
		switch format {
		case config.FormatDOT:
			var t iotaint.Trace
			for _, s := range seeds {
				t = append(t, s.Trace...)
			}
			err = iotaint.WriteDOT(bt, t)
		case config.FormatCSV:
			err = iotaint.WriteCSV(bt, seeds)
		default:
			rep := iotaint.NewReporter(bt)
			for _, s := range seeds {
				_ = rep.WriteTrace(s.Trace)
				rep.Separator()
			}
			err = rep.Err()
		}
		if err != nil {
			bt.WriteString("✗ " + styleWarning.Render("failed to write trace: ") + err.Error() + "\n")
		}
		bt.Flush()
		return nil
	},
}

var builtinCommandCallers = &command{
	name: "callers",
	desc: "list the call sites of a function",
	args: []*commandArg{
		{
			name: "function",
			desc: "the function to find call sites of (supports fuzzy, glob, and regex matching)",
		},
	},
	fn: func(ctx context.Context, bt *bufio.Writer, args []string, flags map[string]string) error {
		if unit == nil {
			writeNotLoaded(bt)
			return nil
		}

		matcher, err := traceutil.NewFunctionMatcherFromString(args[0])
		if err != nil {
			bt.WriteString("invalid pattern: " + err.Error() + "\n")
			bt.Flush()
			return nil
		}

		var found bool
		for _, fn := range unit.Functions() {
			if !matcher.Match(fn.Name()) {
				continue
			}
			found = true

			sites := iotaint.ResolveCallSites(ctx, fn)
			bt.WriteString(semanticColorFunc(fn.Name()) + styleSubtle.Render(fmt.Sprintf(" (%d call sites)", len(sites))) + "\n")
			for _, cs := range sites {
				line := "  " + styleArrow.Render("← ") + semanticColorFunc(cs.Caller.Name()) + ": " + cs.Call.String()
				if loc, ok := unit.Location(cs.Call); ok {
					line += " " + styleFaint.Render(loc.String())
				}
				bt.WriteString(line + "\n")
			}
		}

		if !found {
			bt.WriteString("✗ " + styleWarning.Render("no functions found") + styleSubtle.Render(" using ") + styleInfo.Render(matcher.Strategy().String()) + styleSubtle.Render(" matching for: ") + styleArgument.Render(matcher.Pattern()) + "\n")
		}
		bt.Flush()
		return nil
	},
}

var builtinCommandSSA = &command{
	name: "ssa",
	desc: "print the SSA form of matching functions",
	args: []*commandArg{
		{
			name: "function",
			desc: "the function to print (supports fuzzy, glob, and regex matching)",
		},
	},
	fn: func(ctx context.Context, bt *bufio.Writer, args []string, flags map[string]string) error {
		if unit == nil {
			writeNotLoaded(bt)
			return nil
		}

		matcher, err := traceutil.NewFunctionMatcherFromString(args[0])
		if err != nil {
			bt.WriteString("invalid pattern: " + err.Error() + "\n")
			bt.Flush()
			return nil
		}

		var n int
		for _, fn := range unit.Functions() {
			if !matcher.Match(fn.Name()) {
				continue
			}
			if f := unit.SSAFunction(fn); f != nil {
				f.WriteTo(bt)
				n++
			}
		}

		if n == 0 {
			bt.WriteString("no functions found\n")
		}
		bt.Flush()
		return nil
	},
}

var builtinCommandPatterns = &command{
	name: "patterns",
	desc: "list the input read patterns, or add patterns",
	args: []*commandArg{
		{
			name:     "pattern",
			desc:     "patterns to add; 'reset' restores the defaults",
			optional: true,
		},
	},
	fn: func(ctx context.Context, bt *bufio.Writer, args []string, flags map[string]string) error {
		switch {
		case len(args) == 1 && args[0] == "reset":
			patterns = iotaint.DefaultPatterns
			resetResult()
		case len(args) > 0:
			patterns = patterns.With(args...)
			resetResult()
		}

		for _, p := range patterns.Patterns() {
			bt.WriteString(styleFaint.Render("- ") + styleAsm.Render(strconv.Quote(p)) + "\n")
		}
		bt.Flush()
		return nil
	},
}

var builtinCommandConfig = &command{
	name: "config",
	desc: "apply the patterns and focus of a YAML configuration file",
	args: []*commandArg{
		{
			name: "file",
			desc: "the configuration file",
		},
	},
	fn: func(ctx context.Context, bt *bufio.Writer, args []string, flags map[string]string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			bt.WriteString("✗ " + styleWarning.Render(err.Error()) + "\n")
			bt.Flush()
			return nil
		}

		m, err := cfg.Matcher()
		if err != nil {
			bt.WriteString("✗ " + styleWarning.Render(err.Error()) + "\n")
			bt.Flush()
			return nil
		}

		patterns = cfg.PatternSet()
		focus = nil
		if m != nil {
			focus = m
		}
		resetResult()

		msg := "✓ " + styleSuccess.Render("using ") + styleNumber.Render(fmt.Sprintf("%d", patterns.Len())) + styleSuccess.Render(" patterns")
		if m != nil {
			msg += styleSubtle.Render(", focus ") + styleArgument.Render(m.String())
		}
		bt.WriteString(msg + "\n")
		bt.Flush()
		return nil
	},
}

var builtinCommands = commands{
	builtinCommandExit,
	builtinCommandClear,
	builtinCommandLoad,
	builtinCommandPkgs,
	builtinCommandFuncs,
	builtinCommandSeeds,
	builtinCommandTrace,
	builtinCommandCallers,
	builtinCommandSSA,
	builtinCommandPatterns,
	builtinCommandConfig,
}

// complete implements tab completion of command names and of the
// directory argument of load.
func complete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' {
		return line, pos, false
	}

	if dir, ok := strings.CutPrefix(line, "load "); ok {
		if _, err := os.Stat(dir); err == nil {
			return line, len(line), true
		}

		parentDir := filepath.Dir(strings.TrimSuffix(dir, "/"))
		prefix := filepath.Base(strings.TrimSuffix(dir, "/"))

		entries, err := os.ReadDir(parentDir)
		if err != nil {
			return line, pos, false
		}

		var names []string
		for _, entry := range entries {
			if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
				names = append(names, entry.Name())
			}
		}
		if len(names) == 0 {
			return line, pos, false
		}
		sort.Strings(names)

		loadCmd := "load " + filepath.Join(parentDir, names[0])
		return loadCmd, len(loadCmd), true
	}

	for _, cmd := range builtinCommands {
		if strings.HasPrefix(cmd.name, line) {
			return cmd.name, len(cmd.name), true
		}
	}
	return line, pos, false
}

func startShell(ctx context.Context) error {
	t, restore, err := makeRawTerminal()
	if err != nil {
		return err
	}
	defer restore()

	bt := bufio.NewWriter(t)

	t.AutoCompleteCallback = complete

	bt.WriteString(styleHeader.Render("Commands") + styleSubtle.Render(" (tab complete)") + "\n\n")
	bt.WriteString(builtinCommands.help())
	bt.Flush()

	for {
		// Move to left edge.
		bt.WriteString("\033[0G")
		bt.WriteString(styleBold.Render("> "))
		bt.Flush()

		input, err := t.ReadLine()
		if err != nil {
			return err
		}

		err = builtinCommands.eval(ctx, bt, input)
		if err != nil {
			return err
		}

		bt.Flush()
	}
}

func main() {
	initStyles()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := startShell(ctx); err != nil {
		if err == io.EOF {
			os.Exit(0)
		}

		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cloneRepository clones a repository and returns the directory it was cloned
// to using go-git under the hood, which is a pure Go implementation of Git.
func cloneRepository(ctx context.Context, repoURL string) (string, string, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("%w", err)
	}

	pathSegments := strings.Split(u.Path, "/")
	if len(pathSegments) < 3 {
		return "", "", fmt.Errorf("invalid GitHub URL: %s", repoURL)
	}

	ownerAndRepo := pathSegments[1] + "/" + pathSegments[2]

	dir := filepath.Join(os.TempDir(), "iotaint", "github", ownerAndRepo)

	// A previous clone is reused as is.
	if _, err := os.Stat(dir); err == nil {
		repo, err := git.PlainOpen(dir)
		if err != nil {
			return dir, "", fmt.Errorf("%w", err)
		}

		head, err := repo.Head()
		if err != nil {
			return dir, "", fmt.Errorf("%w", err)
		}

		return dir, head.Hash().String(), nil
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          repoURL,
		Depth:        1,
		Tags:         git.NoTags,
		SingleBranch: true,
	})
	if err != nil {
		return dir, "", fmt.Errorf("%w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return dir, "", fmt.Errorf("%w", err)
	}

	return dir, head.Hash().String(), nil
}
