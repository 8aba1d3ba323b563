package ssaunit

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/tools/go/ssa"

	"github.com/picatz/iotaint/traceutil"
)

// use is one operand reference found while indexing.
type use struct {
	v  ssa.Value
	in ssa.Instruction
}

// indexUsers records, for every function and global referenced as an
// operand, the instructions referencing it. SSA does not track referrers
// for these values, and call sites are found through them.
//
// Functions are scanned concurrently; results are merged in function
// order so the index does not depend on scheduling.
func indexUsers(ctx context.Context, fns []*ssa.Function, concurrency int64) (map[ssa.Value][]ssa.Instruction, error) {
	if concurrency <= 0 {
		concurrency = 10
	}

	var total int
	for _, fn := range fns {
		if fn != nil {
			total++
		}
	}
	progress := traceutil.NewProgressTracker(ctx, "indexing functions", total)

	var (
		perFn = make([][]use, len(fns))
		sem   = semaphore.NewWeighted(concurrency)
	)

	eg, egCtx := errgroup.WithContext(ctx)

	for i, fn := range fns {
		if fn == nil {
			continue
		}
		if err := sem.Acquire(egCtx, 1); err != nil {
			_ = eg.Wait()
			return nil, fmt.Errorf("failed to acquire semaphore: %w", err)
		}
		eg.Go(func() error {
			defer sem.Release(1)
			perFn[i] = scanUses(fn)
			progress.Update(fn.String())
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("error from errgroup: %w", err)
	}
	progress.Complete()

	users := make(map[ssa.Value][]ssa.Instruction)
	for _, uses := range perFn {
		for _, u := range uses {
			users[u.v] = append(users[u.v], u.in)
		}
	}
	return users, nil
}

func scanUses(fn *ssa.Function) []use {
	var (
		uses  []use
		rands []*ssa.Value
	)
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			rands = in.Operands(rands[:0])
			for _, rand := range rands {
				if rand == nil || *rand == nil {
					continue
				}
				switch v := (*rand).(type) {
				case *ssa.Function, *ssa.Global:
					uses = append(uses, use{v: v, in: in})
				}
			}
		}
	}
	return uses
}
