package iotaint

// Chain is the propagation chain of a single seed: every instruction
// visited so far, in visit order.
//
// Instructions are never removed. The chain is shared by every branch of
// the traversal, so when two branches converge on the same instruction
// the second one is reported as a loop and stops there.
type Chain struct {
	order []Instruction
	set   map[Instruction]struct{}
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{set: make(map[Instruction]struct{})}
}

// Includes returns true if the instruction is already on the chain.
func (c *Chain) Includes(inst Instruction) bool {
	if c == nil || c.set == nil {
		return false
	}
	_, ok := c.set[inst]
	return ok
}

// Add appends the instruction to the chain.
func (c *Chain) Add(inst Instruction) {
	if c.set == nil {
		c.set = make(map[Instruction]struct{})
	}
	c.order = append(c.order, inst)
	c.set[inst] = struct{}{}
}

// Len returns the number of appends made to the chain. An instruction
// reached as a call site more than once counts once per append.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Instructions returns the chain in visit order.
func (c *Chain) Instructions() []Instruction {
	if c == nil {
		return nil
	}
	return append([]Instruction(nil), c.order...)
}
