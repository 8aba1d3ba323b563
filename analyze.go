package iotaint

import (
	"context"
	"fmt"
	"io"

	"github.com/picatz/iotaint/traceutil"
)

// Matcher selects functions by name.
type Matcher interface {
	Match(name string) bool
}

// Options configure Analyze. The zero value is usable.
type Options struct {
	// Patterns identify assembly that reads hardware input. An empty set
	// means DefaultPatterns.
	Patterns PatternSet

	// Output receives the human readable trace. Nil discards it.
	Output io.Writer

	// Focus, if set, restricts the scan to the functions it matches.
	// Propagation still follows values into any function.
	Focus Matcher
}

// Analyze scans every instruction of every function in unit for calls
// into assembly that reads hardware input, and traces each such seed.
//
// The trace is written to opts.Output as it is produced, while function
// names, call-site echoes and counts go to the logger carried by ctx.
// Analyze never fails: anomalies are logged and the scan goes on.
func Analyze(ctx context.Context, unit Unit, opts Options) *Result {
	logger := traceutil.FromContext(ctx)

	patterns := opts.Patterns
	if patterns.Len() == 0 {
		patterns = DefaultPatterns
	}

	s := &scanner{
		ctx:      ctx,
		unit:     unit,
		patterns: patterns,
		report:   NewReporter(opts.Output),
		logger:   logger,
		result:   &Result{Unit: unit.Name()},
	}

	logger.Info("in unit called: %s", unit.Name())

	for _, fn := range unit.Functions() {
		s.result.Functions++
		logger.Debug("function name: %s", fn.Name())

		if opts.Focus != nil && !opts.Focus.Match(fn.Name()) {
			continue
		}

		for _, block := range fn.Blocks() {
			for _, inst := range block.Instructions() {
				s.consider(inst, fn)
			}
			s.result.Blocks++
		}
	}

	if err := s.report.Err(); err != nil {
		logger.Error("writing trace: %v", err)
	}

	logger.Step("analyzed "+unit.Name(),
		fmt.Sprintf("%d functions", s.result.Functions),
		fmt.Sprintf("%d basic blocks", s.result.Blocks),
		fmt.Sprintf("%d seeds", len(s.result.Seeds)),
		modifiedSummary(s.result.Modified),
	)

	return s.result
}

func modifiedSummary(modified bool) string {
	if modified {
		return "unit modified"
	}
	return "unit unmodified"
}

type scanner struct {
	ctx      context.Context
	unit     Unit
	patterns PatternSet
	report   *Reporter
	logger   *traceutil.Logger
	result   *Result
}

// consider traces inst if it is a used call into assembly that reads
// hardware input.
func (s *scanner) consider(inst Instruction, fn Function) {
	asm, ok := s.unit.AsmText(inst)
	if !ok {
		return
	}
	if len(inst.Users()) == 0 {
		return
	}
	pattern, ok := s.patterns.Match(asm)
	if !ok {
		return
	}

	s.logger.Debug("seed in %s matched %q: %s", fn.Name(), pattern, inst)

	seed := Seed{
		Instruction: inst,
		Function:    fn,
		Pattern:     pattern,
	}
	s.trace(&seed)
	s.result.Seeds = append(s.result.Seeds, seed)
}

func (s *scanner) trace(seed *Seed) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("propagation from %s stopped: %v", seed.Instruction, r)
		}
		s.report.Separator()
	}()

	emit := func(e Event) error {
		seed.Trace = append(seed.Trace, e)
		s.report.Report(e)
		return nil
	}

	p := &propagator{unit: s.unit}
	_ = emit(p.event(EventSeed, 1, seed.Instruction, seed.Function))
	_ = Propagate(s.ctx, s.unit, seed.Instruction, NewChain(), 1, seed.Function, emit)
}
