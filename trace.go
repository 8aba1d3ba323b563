package iotaint

// EventKind identifies a line of the propagation trace.
type EventKind int

const (
	// EventSeed is the hardware input read a traversal starts from.
	EventSeed EventKind = iota
	// EventVisit is an instruction reached through a def-use edge.
	EventVisit
	// EventReturn marks a value leaving its function through a return.
	EventReturn
	// EventCallSite is a call site the returned value lands at.
	EventCallSite
	// EventAlias is another access of an address the value was stored to.
	EventAlias
	// EventLoop marks an instruction already on the chain; that edge stops.
	EventLoop
)

// String returns the name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventSeed:
		return "seed"
	case EventVisit:
		return "visit"
	case EventReturn:
		return "return"
	case EventCallSite:
		return "callsite"
	case EventAlias:
		return "alias"
	case EventLoop:
		return "loop"
	default:
		return "unknown"
	}
}

// Event is one step of a traversal.
type Event struct {
	Kind  EventKind
	Depth int

	// Instruction is the instruction the event is about. For EventReturn
	// it is the return instruction.
	Instruction Instruction

	// Function is the function reported alongside the instruction.
	Function Function

	Location    Location
	HasLocation bool
}

// reached reports whether the event adds an instruction to the trace.
func (e Event) reached() bool {
	switch e.Kind {
	case EventSeed, EventVisit, EventCallSite, EventAlias:
		return true
	default:
		return false
	}
}

// Trace is an ordered list of events, in depth-first visit order.
type Trace []Event

// Reached returns the number of instructions the value reached, the
// seed excluded. Revisits stopped by the loop guard are not counted.
func (t Trace) Reached() int {
	var n int
	for i, e := range t {
		if !e.reached() || e.Kind == EventSeed {
			continue
		}
		if i+1 < len(t) && t[i+1].Kind == EventLoop {
			continue
		}
		n++
	}
	return n
}

// Loops returns the number of edges stopped by the loop guard.
func (t Trace) Loops() int {
	var n int
	for _, e := range t {
		if e.Kind == EventLoop {
			n++
		}
	}
	return n
}

// Kinds returns the kind of every event, which is handy in tests and
// for quick summaries.
func (t Trace) Kinds() []EventKind {
	kinds := make([]EventKind, len(t))
	for i, e := range t {
		kinds[i] = e.Kind
	}
	return kinds
}

// Seed is one hardware input read and the trace rooted at it.
type Seed struct {
	Instruction Instruction
	Function    Function

	// Pattern is the first pattern that matched the assembly text.
	Pattern string

	Trace Trace
}

// Result is the outcome of analyzing a unit.
type Result struct {
	Unit string

	Seeds []Seed

	// Functions and Blocks count what the scanner visited.
	Functions int
	Blocks    int

	// Modified is always false: the analysis never changes the unit.
	Modified bool
}

// Trace returns the traces of all seeds, concatenated in seed order.
func (r *Result) Trace() Trace {
	var t Trace
	for _, s := range r.Seeds {
		t = append(t, s.Trace...)
	}
	return t
}
