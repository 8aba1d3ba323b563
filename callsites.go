package iotaint

import (
	"context"

	"github.com/picatz/iotaint/traceutil"
)

// CallSite is a calling instruction paired with the function it is in.
type CallSite struct {
	Call   Instruction
	Caller Function
}

// CallSites is a list of call sites in resolution order.
type CallSites []CallSite

// ResolveCallSites returns every instruction that uses fn, in the
// graph's natural order. Users that are not instructions, such as a
// reference from a global initializer, are skipped. Indirect calls are
// not resolved: a function only reached through a function value has no
// call sites.
func ResolveCallSites(ctx context.Context, fn Function) CallSites {
	if fn == nil {
		return nil
	}

	logger := traceutil.FromContext(ctx)

	var sites CallSites
	for _, u := range fn.Users() {
		inst, ok := u.(Instruction)
		if !ok {
			continue
		}
		sites = append(sites, CallSite{Call: inst, Caller: inst.Parent()})
		logger.Debug("call site of %s: %s", fn.Name(), inst)
	}
	return sites
}
