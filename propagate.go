package iotaint

import (
	"context"
	"errors"

	"github.com/picatz/iotaint/traceutil"
)

// ErrStopWalk can be returned by a visitor to end a Walk early.
var ErrStopWalk = errors.New("iotaint: stop walk")

// Propagate follows every user of inst, depth first, and emits an event
// for each step. depth is the depth of inst itself and fn is the
// function inst belongs to. chain is appended to and is used to stop at
// instructions reached before.
//
// Three edge kinds are followed:
//
//   - a plain def-use edge, one level deeper
//   - a return, to every call site of fn, two levels deeper
//   - a store, to every other user of the same address operand, two
//     levels deeper
//
// Propagate uses an explicit stack and emits events in the order a
// recursive walk would. It stops and returns the error of emit, if any.
func Propagate(ctx context.Context, unit Unit, inst Instruction, chain *Chain, depth int, fn Function, emit func(Event) error) error {
	if inst == nil {
		return nil
	}
	if chain == nil {
		chain = NewChain()
	}
	if emit == nil {
		emit = func(Event) error { return nil }
	}

	p := &propagator{
		ctx:    ctx,
		unit:   unit,
		chain:  chain,
		emit:   emit,
		logger: traceutil.FromContext(ctx),
	}

	return p.run(inst, depth, fn)
}

// Walk emits the seed event for inst and then propagates from it with a
// fresh chain at depth 1. A visitor returning ErrStopWalk ends the walk
// without error.
func Walk(ctx context.Context, unit Unit, inst Instruction, visit func(Event) error) error {
	if inst == nil {
		return nil
	}

	p := &propagator{unit: unit}
	err := visit(p.event(EventSeed, 1, inst, inst.Parent()))
	if err == nil {
		err = Propagate(ctx, unit, inst, NewChain(), 1, inst.Parent(), visit)
	}
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

// hop is a pending two-level jump, to a call site or to an aliasing
// access, taken after the user that caused it.
type hop struct {
	kind EventKind
	inst Instruction
	fn   Function

	// ret is the return instruction behind a call site hop.
	ret Instruction
}

// frame stands for one level of the recursive walk: the users of an
// instruction still to visit, and the hops of the last visited user.
type frame struct {
	depth int
	fn    Function
	users []Value
	hops  []hop
}

type propagator struct {
	ctx    context.Context
	unit   Unit
	chain  *Chain
	emit   func(Event) error
	logger *traceutil.Logger
}

func (p *propagator) event(kind EventKind, depth int, inst Instruction, fn Function) Event {
	e := Event{
		Kind:        kind,
		Depth:       depth,
		Instruction: inst,
		Function:    fn,
	}
	if p.unit != nil && inst != nil && kind != EventReturn && kind != EventLoop {
		e.Location, e.HasLocation = p.unit.Location(inst)
	}
	return e
}

func (p *propagator) run(inst Instruction, depth int, fn Function) error {
	stack := []*frame{{depth: depth, fn: fn, users: inst.Users()}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if len(top.hops) > 0 {
			h := top.hops[0]
			top.hops = top.hops[1:]

			if h.kind == EventCallSite {
				if err := p.emit(p.event(EventReturn, top.depth+1, h.ret, top.fn)); err != nil {
					return err
				}
			}
			if err := p.emit(p.event(h.kind, top.depth+2, h.inst, h.fn)); err != nil {
				return err
			}
			p.chain.Add(h.inst)

			stack = append(stack, &frame{depth: top.depth + 2, fn: h.fn, users: h.inst.Users()})
			continue
		}

		if len(top.users) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		u, ok := top.users[0].(Instruction)
		top.users = top.users[1:]
		if !ok {
			continue
		}

		d := top.depth + 1

		if err := p.emit(p.event(EventVisit, d, u, top.fn)); err != nil {
			return err
		}

		if p.chain.Includes(u) {
			p.logger.Trace("already on chain: %s", u)
			if err := p.emit(p.event(EventLoop, d, u, top.fn)); err != nil {
				return err
			}
			continue
		}

		p.chain.Add(u)

		switch u.Op() {
		case OpReturn:
			for _, cs := range ResolveCallSites(p.ctx, top.fn) {
				top.hops = append(top.hops, hop{kind: EventCallSite, inst: cs.Call, fn: cs.Caller, ret: u})
			}
		case OpStore:
			ptr := u.Pointer()
			if ptr == nil {
				p.logger.Warning("store without address operand in %s: %s", functionName(top.fn), u)
				continue
			}
			for _, other := range ptr.Users() {
				q, ok := other.(Instruction)
				if !ok || q == u {
					continue
				}
				top.hops = append(top.hops, hop{kind: EventAlias, inst: q, fn: top.fn})
			}
		default:
			stack = append(stack, &frame{depth: d, fn: top.fn, users: u.Users()})
		}
	}

	return nil
}
