package iotaint

import (
	"fmt"
	"path/filepath"
)

// Value is a node of the program graph that other instructions may use.
type Value interface {
	// String returns the textual form of the value.
	String() string

	// Users returns the values that consume this value, in the graph's
	// natural order. Users that are not an Instruction are ignored by
	// the analysis.
	Users() []Value
}

// Op classifies an instruction for propagation purposes.
type Op int

const (
	OpOther Op = iota
	OpReturn
	OpStore
	OpCall
)

// String returns the name of the op.
func (o Op) String() string {
	switch o {
	case OpReturn:
		return "return"
	case OpStore:
		return "store"
	case OpCall:
		return "call"
	default:
		return "other"
	}
}

// Instruction is a single instruction of a Function.
//
// Implementations must be comparable, since the propagation chain
// tracks instructions by identity.
type Instruction interface {
	Value

	// Op returns the kind of the instruction.
	Op() Op

	// Parent returns the function enclosing the instruction.
	Parent() Function

	// Pointer returns the address operand of a store, or nil for any
	// other instruction.
	Pointer() Value
}

// Block is a basic block, an ordered run of instructions.
type Block interface {
	Instructions() []Instruction
}

// Function is a named, ordered collection of blocks. Its users are
// all the instructions that reference it, calls included.
type Function interface {
	Value

	Name() string
	Blocks() []Block
}

// Unit is a read-only handle to one unit of compilation.
type Unit interface {
	// Name identifies the unit in diagnostics.
	Name() string

	// Functions returns every function of the unit in natural order.
	Functions() []Function

	// Location returns the debug location of the instruction, if any.
	Location(inst Instruction) (Location, bool)

	// AsmText returns the assembly text of the routine called by inst,
	// if inst is a call into assembly.
	AsmText(inst Instruction) (string, bool)
}

// Location is a source position taken from debug metadata.
type Location struct {
	Dir  string
	File string
	Line int
}

// Path joins the directory and file name.
func (l Location) Path() string {
	return filepath.Join(l.Dir, l.File)
}

// String returns the location as "dir/file: line n".
func (l Location) String() string {
	return fmt.Sprintf("%s/%s: line %d", l.Dir, l.File, l.Line)
}
