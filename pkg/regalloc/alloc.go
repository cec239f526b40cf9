package regalloc

import (
	"fmt"

	"github.com/raymyers/minicc/pkg/diag"
	"github.com/raymyers/minicc/pkg/rtl"
)

// Result holds the outcome of register allocation for one function
type Result struct {
	// Assign maps each temporary of the final round to its register
	Assign map[rtl.Reg]rtl.Reg
	// Slots maps each spilled temporary to its $fp-relative frame slot
	Slots map[rtl.Reg]int32
	// Rounds is the number of color/spill rounds that ran
	Rounds int
	// Spills counts the temporaries sent to memory over all rounds
	Spills int
	// Temps is the number of temporaries before allocation
	Temps int
	// Graph is the interference graph of the final round (graph strategy only)
	Graph *InterferenceGraph
}

// AllocateFunction allocates registers for fn and rewrites it in place so
// that only machine registers remain
func AllocateFunction(fn *rtl.Function, opts Options) (*Result, error) {
	if opts.Strategy == StrategyNaive {
		return allocateNaive(fn), nil
	}

	res := &Result{
		Slots: make(map[rtl.Reg]int32),
		Temps: fn.Temps(),
	}
	late := NewRegSet()
	for round := 1; round <= MaxRounds; round++ {
		liveness := AnalyzeLiveness(fn)
		graph := BuildInterferenceGraph(fn, liveness)
		colors, spilled := NewAllocator(graph, liveness, opts, late).Allocate()
		res.Rounds = round

		if len(spilled) == 0 {
			res.Assign = colors
			res.Graph = graph
			applyColors(fn, colors)
			return res, nil
		}
		res.Spills += len(spilled)
		late = late.Union(rewriteSpills(fn, spilled, res.Slots))
	}
	return nil, fmt.Errorf("%w: register allocation of %s did not converge after %d rounds",
		diag.ErrInternal, fn.Name, MaxRounds)
}

// applyColors replaces every temporary with its register
func applyColors(fn *rtl.Function, colors map[rtl.Reg]rtl.Reg) {
	mapReg := func(r rtl.Reg) rtl.Reg {
		if c, ok := colors[r]; ok {
			return c
		}
		return r
	}
	for idx, instr := range fn.Code {
		fn.Code[idx] = rtl.MapRegs(instr, mapReg, mapReg)
	}
}
