package iotaint

// An in-memory program graph for tests.

type fakeUnit struct {
	name string
	fns  []*fakeFunc
}

func (u *fakeUnit) Name() string { return u.name }

func (u *fakeUnit) Functions() []Function {
	fns := make([]Function, 0, len(u.fns))
	for _, fn := range u.fns {
		fns = append(fns, fn)
	}
	return fns
}

func (u *fakeUnit) Location(inst Instruction) (Location, bool) {
	fi, ok := inst.(*fakeInst)
	if !ok || fi.loc == nil {
		return Location{}, false
	}
	return *fi.loc, true
}

func (u *fakeUnit) AsmText(inst Instruction) (string, bool) {
	fi, ok := inst.(*fakeInst)
	if !ok || !fi.hasAsm {
		return "", false
	}
	return fi.asm, true
}

type fakeFunc struct {
	name   string
	users  []Value
	blocks []*fakeBlock
}

func newFunc(name string) *fakeFunc {
	return &fakeFunc{name: name}
}

func (f *fakeFunc) String() string { return f.name }
func (f *fakeFunc) Name() string   { return f.name }
func (f *fakeFunc) Users() []Value { return f.users }

func (f *fakeFunc) Blocks() []Block {
	blocks := make([]Block, 0, len(f.blocks))
	for _, b := range f.blocks {
		blocks = append(blocks, b)
	}
	return blocks
}

// block starts a new basic block.
func (f *fakeFunc) block() *fakeFunc {
	f.blocks = append(f.blocks, &fakeBlock{})
	return f
}

// inst appends an instruction to the last block.
func (f *fakeFunc) inst(name string, op Op) *fakeInst {
	if len(f.blocks) == 0 {
		f.block()
	}
	i := &fakeInst{name: name, op: op, fn: f}
	b := f.blocks[len(f.blocks)-1]
	b.instrs = append(b.instrs, i)
	return i
}

// asmCall appends a call into assembly with the given text.
func (f *fakeFunc) asmCall(name, asm string) *fakeInst {
	i := f.inst(name, OpCall)
	i.asm, i.hasAsm = asm, true
	return i
}

// calledFrom records call as a user of f.
func (f *fakeFunc) calledFrom(calls ...*fakeInst) {
	for _, c := range calls {
		f.users = append(f.users, c)
	}
}

type fakeBlock struct {
	instrs []*fakeInst
}

func (b *fakeBlock) Instructions() []Instruction {
	instrs := make([]Instruction, 0, len(b.instrs))
	for _, i := range b.instrs {
		instrs = append(instrs, i)
	}
	return instrs
}

type fakeInst struct {
	name   string
	op     Op
	fn     *fakeFunc
	users  []Value
	ptr    Value
	loc    *Location
	asm    string
	hasAsm bool
	panics bool
}

func (i *fakeInst) String() string { return i.name }
func (i *fakeInst) Op() Op         { return i.op }
func (i *fakeInst) Pointer() Value { return i.ptr }

func (i *fakeInst) Users() []Value {
	if i.panics {
		panic("broken instruction " + i.name)
	}
	return i.users
}

func (i *fakeInst) Parent() Function {
	if i.fn == nil {
		return nil
	}
	return i.fn
}

func (i *fakeInst) at(dir, file string, line int) *fakeInst {
	i.loc = &Location{Dir: dir, File: file, Line: line}
	return i
}

// fakeValue is a value that is not an instruction, e.g. a global.
type fakeValue struct {
	name  string
	users []Value
}

func (v *fakeValue) String() string { return v.name }
func (v *fakeValue) Users() []Value { return v.users }

// use records users as users of def, in order.
func use(def interface{ addUser(Value) }, users ...Value) {
	for _, u := range users {
		def.addUser(u)
	}
}

func (i *fakeInst) addUser(u Value)  { i.users = append(i.users, u) }
func (v *fakeValue) addUser(u Value) { v.users = append(v.users, u) }

// step is the part of an event tests compare.
type step struct {
	kind  EventKind
	depth int
	inst  string
	fn    string
}

func steps(t Trace) []step {
	out := make([]step, 0, len(t))
	for _, e := range t {
		s := step{kind: e.Kind, depth: e.Depth}
		if e.Instruction != nil {
			s.inst = e.Instruction.String()
		}
		if e.Function != nil {
			s.fn = e.Function.Name()
		}
		out = append(out, s)
	}
	return out
}
