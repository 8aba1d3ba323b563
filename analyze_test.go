package iotaint

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/picatz/iotaint/traceutil"
)

// keyboard builds a unit with one hardware read whose value is returned
// to a caller, plus a port write and an unused read.
func keyboard() (*fakeUnit, *fakeInst) {
	read := newFunc("kbd.status")
	seed := read.asmCall("t0 = inb(100:uint16)", "MOVW port+0(FP), DX\nINB\nMOVB AL, ret+8(FP)").at("/src/kbd", "kbd.go", 10)
	ret := read.inst("return t0", OpReturn).at("/src/kbd", "kbd.go", 10)
	use(seed, ret)

	write := newFunc("kbd.reset")
	write.asmCall("outb(100:uint16, 254:uint8)", "MOVB v+2(FP), AL\nOUTB")
	write.asmCall("t1 = inb(96:uint16)", "INB") // result dropped

	poll := newFunc("kbd.ready").block()
	call := poll.inst("t0 = kbd.status()", OpCall).at("/src/kbd", "kbd.go", 20)
	and := poll.inst("t1 = t0 & 1:uint8", OpOther).at("/src/kbd", "kbd.go", 20)
	poll.block()
	poll.inst("return t2", OpReturn)
	use(call, and)
	read.calledFrom(call)

	return &fakeUnit{name: "kbd", fns: []*fakeFunc{read, write, poll}}, seed
}

func TestAnalyze(t *testing.T) {
	unit, seed := keyboard()

	var out bytes.Buffer
	result := Analyze(context.Background(), unit, Options{Output: &out})

	if result.Unit != "kbd" {
		t.Errorf("Unit = %q, want kbd", result.Unit)
	}
	if result.Modified {
		t.Errorf("Modified = true, want false")
	}
	if result.Functions != 3 {
		t.Errorf("Functions = %d, want 3", result.Functions)
	}
	if result.Blocks != 4 {
		t.Errorf("Blocks = %d, want 4", result.Blocks)
	}
	if len(result.Seeds) != 1 {
		t.Fatalf("got %d seeds, want 1", len(result.Seeds))
	}

	s := result.Seeds[0]
	if s.Instruction != Instruction(seed) {
		t.Errorf("seed = %s, want %s", s.Instruction, seed)
	}
	if s.Pattern != "INB" {
		t.Errorf("Pattern = %q, want INB", s.Pattern)
	}
	if got := s.Trace.Reached(); got != 3 {
		t.Errorf("Reached = %d, want 3", got)
	}

	want := []string{
		"Function name: kbd.status",
		"  ###1 kbd.status: t0 = inb(100:uint16)",
		"  ### SOURCE INFO: /src/kbd/kbd.go: line 10",
		"    ###2 kbd.status: return t0",
		"    ### SOURCE INFO: /src/kbd/kbd.go: line 10",
		"    value returns to call site",
		"      ###3 kbd.ready: t0 = kbd.status()",
		"      ### SOURCE INFO: /src/kbd/kbd.go: line 20",
		"        ###4 kbd.ready: t1 = t0 & 1:uint8",
		"        ### SOURCE INFO: /src/kbd/kbd.go: line 20",
		"",
		separator,
		"",
		"",
	}
	if got := out.String(); got != strings.Join(want, "\n") {
		t.Errorf("output mismatch\n got:\n%s\nwant:\n%s", got, strings.Join(want, "\n"))
	}
}

func TestAnalyzeCustomPatterns(t *testing.T) {
	unit, _ := keyboard()

	result := Analyze(context.Background(), unit, Options{Patterns: NewPatternSet("OUTB")})
	if len(result.Seeds) != 0 {
		t.Fatalf("got %d seeds, want 0: the only OUTB call has no users", len(result.Seeds))
	}

	result = Analyze(context.Background(), unit, Options{Patterns: NewPatternSet("AL")})
	if len(result.Seeds) != 1 || result.Seeds[0].Pattern != "AL" {
		t.Fatalf("got seeds %+v, want one matching AL", result.Seeds)
	}
}

func TestAnalyzeFocus(t *testing.T) {
	unit, _ := keyboard()

	focus, err := traceutil.NewFunctionMatcher("kbd.ready", traceutil.MatchExact)
	if err != nil {
		t.Fatal(err)
	}

	result := Analyze(context.Background(), unit, Options{Focus: focus})

	if result.Functions != 3 {
		t.Errorf("Functions = %d, want 3", result.Functions)
	}
	if result.Blocks != 2 {
		t.Errorf("Blocks = %d, want 2", result.Blocks)
	}
	if len(result.Seeds) != 0 {
		t.Errorf("got %d seeds, want 0", len(result.Seeds))
	}
}

func TestAnalyzeRecoversFromPanics(t *testing.T) {
	f := newFunc("F")
	bad := f.asmCall("t0 = inb(96:uint16)", "INB")
	broken := f.inst("t1 = broken t0", OpOther)
	broken.panics = true
	use(bad, broken)

	good := f.asmCall("t2 = inw(97:uint16)", "INW")
	ret := f.inst("return t2", OpReturn)
	use(good, ret)

	var out bytes.Buffer
	result := Analyze(context.Background(), &fakeUnit{fns: []*fakeFunc{f}}, Options{Output: &out})

	if len(result.Seeds) != 2 {
		t.Fatalf("got %d seeds, want 2", len(result.Seeds))
	}
	if got := result.Seeds[1].Trace.Reached(); got != 1 {
		t.Errorf("second seed reached %d, want 1", got)
	}
	if got := strings.Count(out.String(), separator); got != 2 {
		t.Errorf("got %d separators, want 2", got)
	}
}

func TestAnalyzeMissingLocations(t *testing.T) {
	f := newFunc("F")
	seed := f.asmCall("t0 = inb(96:uint16)", "INB")
	a := f.inst("t1 = t0 + 1:uint8", OpOther)
	b := f.inst("t2 = t1 + 1:uint8", OpOther)
	use(seed, a)
	use(a, b)

	var out bytes.Buffer
	Analyze(context.Background(), &fakeUnit{fns: []*fakeFunc{f}}, Options{Output: &out})

	if got := strings.Count(out.String(), "### WARNING: NO MATCHED SOURCE INFO"); got != 3 {
		t.Errorf("got %d missing location warnings, want 3\n%s", got, out.String())
	}
}

func TestAnalyzeLogs(t *testing.T) {
	unit, _ := keyboard()

	var logs bytes.Buffer
	logger := traceutil.NewLogger(traceutil.LogLevelDebug, &logs)
	Analyze(traceutil.WithLogger(context.Background(), logger), unit, Options{})

	for _, want := range []string{
		"in unit called: kbd",
		"function name: kbd.status",
		"function name: kbd.reset",
		"call site of kbd.status: t0 = kbd.status()",
		"analyzed kbd: ",
		"seeds, unit unmodified",
	} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log output missing %q\n%s", want, logs.String())
		}
	}
}

func TestChain(t *testing.T) {
	var nilChain *Chain
	if nilChain.Includes(&fakeInst{}) || nilChain.Len() != 0 {
		t.Fatalf("nil chain should be empty")
	}

	a, b := &fakeInst{name: "a"}, &fakeInst{name: "b"}
	c := NewChain()
	c.Add(a)
	c.Add(b)
	c.Add(a)

	if !c.Includes(a) || !c.Includes(b) {
		t.Fatalf("chain should include a and b")
	}
	if c.Includes(&fakeInst{name: "a"}) {
		t.Fatalf("chain should compare by identity")
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
}
