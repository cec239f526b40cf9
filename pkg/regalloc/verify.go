package regalloc

import (
	"fmt"

	"github.com/raymyers/minicc/pkg/diag"
	"github.com/raymyers/minicc/pkg/rtl"
)

// Verify checks an allocated function: no temporary is left in the body,
// every node of the graph has a machine register, and no interference
// edge joins two temporaries given the same register. graph may be nil
// for the naive strategy.
func Verify(fn *rtl.Function, graph *InterferenceGraph, result *Result) error {
	for idx, instr := range fn.Code {
		for _, r := range append(rtl.Defs(instr), rtl.Uses(instr)...) {
			if r.IsTemp() {
				return fmt.Errorf("%w: %s: instruction %d still refers to %s",
					diag.ErrInternal, fn.Name, idx, r)
			}
		}
	}
	if graph == nil {
		return nil
	}

	for _, r := range graph.Nodes.Slice() {
		c, ok := result.Assign[r]
		if !ok {
			return fmt.Errorf("%w: %s: %s has no register", diag.ErrInternal, fn.Name, r)
		}
		if c.IsTemp() {
			return fmt.Errorf("%w: %s: %s assigned to temporary %s", diag.ErrInternal, fn.Name, r, c)
		}
		for _, n := range graph.Edges[r].Slice() {
			if n > r && result.Assign[n] == c {
				return fmt.Errorf("%w: %s: interfering %s and %s share %s",
					diag.ErrInternal, fn.Name, r, n, c)
			}
		}
	}
	return nil
}
