// Package ioread provides an analyzer reporting every hardware input
// read and how far its value propagates.
package ioread

import (
	"context"
	"go/types"
	"io"
	"os"
	"reflect"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"

	"github.com/picatz/iotaint"
	"github.com/picatz/iotaint/ssaunit"
	"github.com/picatz/iotaint/traceutil"
)

// Analyzer finds calls into assembly reading I/O ports or
// segment-relative memory, and traces where the value read flows.
var Analyzer = &analysis.Analyzer{
	Name:       "ioread",
	Doc:        "reports hardware input reads and traces the values they produce",
	Run:        run,
	Requires:   []*analysis.Analyzer{buildssa.Analyzer},
	ResultType: reflect.TypeOf((*iotaint.Result)(nil)),
	FactTypes:  []analysis.Fact{new(AsmRead)},
}

// AsmRead is exported on an exported function implemented in assembly
// whose body reads hardware input, so that calls from importing packages
// are seeds too.
type AsmRead struct {
	Text string
}

func (*AsmRead) AFact() {}

func (*AsmRead) String() string { return "reads hardware input" }

var (
	traceFlag bool
	debugFlag bool
)

func init() {
	Analyzer.Flags.BoolVar(&traceFlag, "trace", false, "write the propagation trace to stderr")
	Analyzer.Flags.BoolVar(&debugFlag, "debug", false, "write diagnostic messages to stderr")
}

func run(pass *analysis.Pass) (any, error) {
	ssaInput := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)

	level := traceutil.LogLevelSilent
	if debugFlag {
		level = traceutil.LogLevelDebug
	}
	logger := traceutil.NewLogger(level, os.Stderr).WithPrefix(pass.Pkg.Path())
	ctx := traceutil.WithLogger(context.Background(), logger)

	bodies, err := ssaunit.ParseAsmFiles(pass.OtherFiles...)
	if err != nil {
		// Without assembly there are no seeds; the pass itself is fine.
		logger.Error("%v", err)
		return &iotaint.Result{Unit: pass.Pkg.Path()}, nil
	}

	exportAsmReads(pass, bodies)

	asm := importAsmReads(pass, ssaInput.SrcFuncs)
	asm[pass.Pkg.Path()] = bodies

	unit, err := ssaunit.New(ctx, ssaInput.SrcFuncs, ssaunit.Config{
		Name: pass.Pkg.Path(),
		Asm:  asm,
	})
	if err != nil {
		logger.Error("%v", err)
		return &iotaint.Result{Unit: pass.Pkg.Path()}, nil
	}

	var out io.Writer
	if traceFlag {
		out = os.Stderr
	}

	result := iotaint.Analyze(ctx, unit, iotaint.Options{Output: out})

	for _, seed := range result.Seeds {
		in := unit.SSA(seed.Instruction)
		if in == nil {
			continue
		}
		pass.Reportf(in.Pos(), "hardware input read (%s) reaches %d instruction(s)", seed.Pattern, seed.Trace.Reached())
	}

	return result, nil
}

// exportAsmReads attaches an AsmRead fact to every exported package-level
// function whose TEXT body matches the default patterns.
func exportAsmReads(pass *analysis.Pass, bodies map[string]string) {
	scope := pass.Pkg.Scope()
	for name, text := range bodies {
		fn, ok := scope.Lookup(name).(*types.Func)
		if !ok || !fn.Exported() {
			continue
		}
		if iotaint.DefaultPatterns.IsInputRead(text) {
			pass.ExportObjectFact(fn, &AsmRead{Text: text})
		}
	}
}

// importAsmReads collects the assembly bodies of functions from other
// packages that are called statically and carry an AsmRead fact, keyed
// the way ssaunit.Config.Asm expects.
func importAsmReads(pass *analysis.Pass, fns []*ssa.Function) map[string]map[string]string {
	asm := make(map[string]map[string]string)

	for _, fn := range fns {
		for _, b := range fn.Blocks {
			for _, in := range b.Instrs {
				call, ok := in.(*ssa.Call)
				if !ok {
					continue
				}
				callee := call.Call.StaticCallee()
				if callee == nil || callee.Blocks != nil || callee.Pkg == nil || callee.Pkg.Pkg == pass.Pkg {
					continue
				}
				obj, ok := callee.Object().(*types.Func)
				if !ok {
					continue
				}
				var fact AsmRead
				if !pass.ImportObjectFact(obj, &fact) {
					continue
				}
				path := callee.Pkg.Pkg.Path()
				if asm[path] == nil {
					asm[path] = make(map[string]string)
				}
				asm[path][callee.Name()] = fact.Text
			}
		}
	}

	return asm
}
