package ssaunit

import (
	"context"
	"fmt"
	"go/token"
	"path/filepath"

	"golang.org/x/tools/go/ssa"

	"github.com/picatz/iotaint"
)

// Config configures New.
type Config struct {
	// Name identifies the unit, e.g. the package path.
	Name string

	// Asm maps a package path to the TEXT blocks of its assembly files,
	// as returned by ParseAsmFiles.
	Asm map[string]map[string]string

	// Concurrency bounds the goroutines indexing functions. Zero means 10.
	Concurrency int64
}

// Unit is an iotaint.Unit over SSA functions.
//
// Wrappers are created on demand and cached, so every ssa.Instruction is
// represented by exactly one iotaint.Instruction. A Unit is not safe for
// concurrent use.
type Unit struct {
	name  string
	fset  *token.FileSet
	fns   []*ssa.Function
	asm   map[string]map[string]string
	users map[ssa.Value][]ssa.Instruction

	instrs map[ssa.Instruction]*instruction
	funcs  map[*ssa.Function]*function
	values map[ssa.Value]*value
}

var _ iotaint.Unit = (*Unit)(nil)

// New returns a unit made of the given functions, in the given order.
func New(ctx context.Context, fns []*ssa.Function, cfg Config) (*Unit, error) {
	u := &Unit{
		name:   cfg.Name,
		fns:    fns,
		asm:    cfg.Asm,
		instrs: make(map[ssa.Instruction]*instruction),
		funcs:  make(map[*ssa.Function]*function),
		values: make(map[ssa.Value]*value),
	}

	for _, fn := range fns {
		if fn != nil && fn.Prog != nil {
			u.fset = fn.Prog.Fset
			break
		}
	}

	users, err := indexUsers(ctx, fns, cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to index users: %w", err)
	}
	u.users = users

	return u, nil
}

// Name returns the name of the unit.
func (u *Unit) Name() string {
	return u.name
}

// Fset returns the file set positions of the unit refer to.
func (u *Unit) Fset() *token.FileSet {
	return u.fset
}

// Functions returns the functions of the unit in order.
func (u *Unit) Functions() []iotaint.Function {
	fns := make([]iotaint.Function, 0, len(u.fns))
	for _, fn := range u.fns {
		if fn == nil {
			continue
		}
		fns = append(fns, u.function(fn))
	}
	return fns
}

// Location returns the position of the instruction, split into its
// directory, file name and line.
func (u *Unit) Location(inst iotaint.Instruction) (iotaint.Location, bool) {
	in := u.SSA(inst)
	if in == nil || u.fset == nil {
		return iotaint.Location{}, false
	}

	pos := in.Pos()
	if !pos.IsValid() {
		return iotaint.Location{}, false
	}

	p := u.fset.Position(pos)
	if p.Filename == "" {
		return iotaint.Location{}, false
	}

	return iotaint.Location{
		Dir:  filepath.Dir(p.Filename),
		File: filepath.Base(p.Filename),
		Line: p.Line,
	}, true
}

// AsmText returns the assembly body of the routine inst calls, if inst
// is a static call to a function implemented in assembly.
func (u *Unit) AsmText(inst iotaint.Instruction) (string, bool) {
	call, ok := u.SSA(inst).(*ssa.Call)
	if !ok {
		return "", false
	}
	return u.asmText(call.Call.StaticCallee())
}

func (u *Unit) asmText(fn *ssa.Function) (string, bool) {
	if fn == nil || fn.Blocks != nil || fn.Pkg == nil || fn.Pkg.Pkg == nil {
		return "", false
	}
	bodies, ok := u.asm[fn.Pkg.Pkg.Path()]
	if !ok {
		return "", false
	}
	text, ok := bodies[fn.Name()]
	return text, ok
}

// SSA returns the SSA instruction behind inst, or nil if inst does not
// belong to a Unit.
func (u *Unit) SSA(inst iotaint.Instruction) ssa.Instruction {
	in, ok := inst.(*instruction)
	if !ok || in == nil {
		return nil
	}
	return in.in
}

// SSAFunction returns the SSA function behind fn, or nil if fn does not
// belong to a Unit.
func (u *Unit) SSAFunction(fn iotaint.Function) *ssa.Function {
	f, ok := fn.(*function)
	if !ok || f == nil {
		return nil
	}
	return f.fn
}

// Function returns the wrapper of fn.
func (u *Unit) Function(fn *ssa.Function) iotaint.Function {
	return u.function(fn)
}

func (u *Unit) function(fn *ssa.Function) *function {
	if f, ok := u.funcs[fn]; ok {
		return f
	}
	f := &function{u: u, fn: fn}
	u.funcs[fn] = f
	return f
}

func (u *Unit) instruction(in ssa.Instruction) *instruction {
	if i, ok := u.instrs[in]; ok {
		return i
	}
	i := &instruction{u: u, in: in}
	u.instrs[in] = i
	return i
}

// value wraps an operand, which may itself be an instruction.
func (u *Unit) value(v ssa.Value) iotaint.Value {
	switch v := v.(type) {
	case nil:
		return nil
	case ssa.Instruction:
		return u.instruction(v)
	case *ssa.Function:
		return u.function(v)
	}

	if w, ok := u.values[v]; ok {
		return w
	}
	w := &value{u: u, v: v}
	u.values[v] = w
	return w
}

// usersOf returns the instructions using v: its referrers when SSA
// tracks them, the unit-wide index otherwise.
func (u *Unit) usersOf(v ssa.Value) []iotaint.Value {
	var instrs []ssa.Instruction
	if _, isFunc := v.(*ssa.Function); !isFunc {
		if refs := v.Referrers(); refs != nil {
			instrs = *refs
		}
	}
	if instrs == nil {
		instrs = u.users[v]
	}

	users := make([]iotaint.Value, 0, len(instrs))
	for _, in := range instrs {
		users = append(users, u.instruction(in))
	}
	return users
}

type instruction struct {
	u  *Unit
	in ssa.Instruction
}

func (i *instruction) String() string {
	if v, ok := i.in.(ssa.Value); ok {
		return fmt.Sprintf("%s = %s", v.Name(), v.String())
	}
	return i.in.String()
}

func (i *instruction) Users() []iotaint.Value {
	v, ok := i.in.(ssa.Value)
	if !ok {
		return nil
	}
	return i.u.usersOf(v)
}

func (i *instruction) Op() iotaint.Op {
	switch i.in.(type) {
	case *ssa.Return:
		return iotaint.OpReturn
	case *ssa.Store:
		return iotaint.OpStore
	case *ssa.Call, *ssa.Go, *ssa.Defer:
		return iotaint.OpCall
	default:
		return iotaint.OpOther
	}
}

func (i *instruction) Parent() iotaint.Function {
	fn := i.in.Parent()
	if fn == nil {
		return nil
	}
	return i.u.function(fn)
}

func (i *instruction) Pointer() iotaint.Value {
	store, ok := i.in.(*ssa.Store)
	if !ok {
		return nil
	}
	return i.u.value(store.Addr)
}

type function struct {
	u  *Unit
	fn *ssa.Function
}

func (f *function) String() string {
	return f.fn.String()
}

func (f *function) Name() string {
	return f.fn.String()
}

func (f *function) Users() []iotaint.Value {
	return f.u.usersOf(f.fn)
}

func (f *function) Blocks() []iotaint.Block {
	blocks := make([]iotaint.Block, 0, len(f.fn.Blocks))
	for _, b := range f.fn.Blocks {
		blocks = append(blocks, &block{u: f.u, b: b})
	}
	return blocks
}

type block struct {
	u *Unit
	b *ssa.BasicBlock
}

func (b *block) Instructions() []iotaint.Instruction {
	instrs := make([]iotaint.Instruction, 0, len(b.b.Instrs))
	for _, in := range b.b.Instrs {
		instrs = append(instrs, b.u.instruction(in))
	}
	return instrs
}

// value is an operand that is not an instruction: a parameter, free
// variable, global or constant.
type value struct {
	u *Unit
	v ssa.Value
}

func (v *value) String() string {
	return v.v.String()
}

func (v *value) Users() []iotaint.Value {
	return v.u.usersOf(v.v)
}
