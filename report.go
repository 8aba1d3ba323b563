package iotaint

import (
	"fmt"
	"io"
	"strings"
)

const separator = "-------------------------------------------------------------------------------------------"

// Reporter writes the human readable trace, one event at a time.
//
// Every line of an event at depth d is indented by d two-space units.
// Lines about an instruction start with "###d".
type Reporter struct {
	w   io.Writer
	err error
}

// NewReporter returns a reporter writing to w. A nil writer discards.
func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = io.Discard
	}
	return &Reporter{w: w}
}

// Err returns the first write error, if any.
func (r *Reporter) Err() error {
	return r.err
}

func (r *Reporter) printf(depth int, format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, indent(depth)+format+"\n", args...)
}

// Report writes the lines of a single event.
func (r *Reporter) Report(e Event) {
	switch e.Kind {
	case EventSeed:
		r.printf(0, "Function name: %s", functionName(e.Function))
		r.instruction(e)
	case EventVisit, EventCallSite, EventAlias:
		r.instruction(e)
	case EventReturn:
		r.printf(e.Depth, "value returns to call site")
	case EventLoop:
		r.printf(e.Depth, "### WARNING: LOOP/REPLICATION DETECTED! STOP PROPAGATION")
	}
}

func (r *Reporter) instruction(e Event) {
	r.printf(e.Depth, "###%d %s: %s", e.Depth, functionName(e.Function), instructionText(e.Instruction))
	if e.HasLocation {
		r.printf(e.Depth, "### SOURCE INFO: %s", e.Location)
	} else {
		r.printf(e.Depth, "### WARNING: NO MATCHED SOURCE INFO")
	}
}

// Separator ends the trace of one seed.
func (r *Reporter) Separator() {
	r.printf(0, "\n%s\n", separator)
}

// WriteTrace writes every event of the trace.
func (r *Reporter) WriteTrace(t Trace) error {
	for _, e := range t {
		r.Report(e)
	}
	return r.err
}

func indent(depth int) string {
	if depth <= 0 {
		return ""
	}
	return strings.Repeat("  ", depth)
}

func functionName(fn Function) string {
	if fn == nil {
		return "?"
	}
	return fn.Name()
}

func instructionText(inst Instruction) string {
	if inst == nil {
		return "?"
	}
	return inst.String()
}
