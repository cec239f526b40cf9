package regalloc

import (
	"github.com/raymyers/minicc/pkg/rtl"
)

// Allocator colors one interference graph with Chaitin's simplify/select
// scheme. No moves are coalesced; move partners only bias the choice of
// register.
type Allocator struct {
	graph     *InterferenceGraph // simplified in place
	orig      *InterferenceGraph // left untouched for select
	regs      []rtl.Reg          // K = len(regs)
	heuristic SpillHeuristic
	occur     map[rtl.Reg]int // uses+defs per temporary
	late      RegSet          // temporaries introduced by spill rewriting

	selectStack []rtl.Reg
	potential   RegSet
	colors      map[rtl.Reg]rtl.Reg
	spilled     RegSet
}

// NewAllocator creates an allocator for graph. late holds the temporaries
// that earlier rounds introduced for spill code; they are spilled last.
func NewAllocator(graph *InterferenceGraph, liveness *LivenessInfo, opts Options, late RegSet) *Allocator {
	if late == nil {
		late = NewRegSet()
	}
	a := &Allocator{
		graph:     graph.Copy(),
		orig:      graph,
		regs:      opts.registers(),
		heuristic: opts.Spill,
		occur:     make(map[rtl.Reg]int),
		late:      late,
		potential: NewRegSet(),
		colors:    make(map[rtl.Reg]rtl.Reg),
		spilled:   NewRegSet(),
	}
	for idx := range liveness.Def {
		for r := range liveness.Def[idx] {
			a.occur[r]++
		}
		for r := range liveness.Use[idx] {
			a.occur[r]++
		}
	}
	return a
}

// Allocate runs simplify then select. It returns the register of every
// colored temporary and the set of temporaries that must be spilled.
func (a *Allocator) Allocate() (map[rtl.Reg]rtl.Reg, RegSet) {
	for len(a.graph.Nodes) > 0 {
		if r, ok := a.simplifyCandidate(); ok {
			a.push(r)
			continue
		}
		r := a.selectSpill()
		a.potential.Add(r)
		a.push(r)
	}
	a.assignColors()
	return a.colors, a.spilled
}

func (a *Allocator) push(r rtl.Reg) {
	a.selectStack = append(a.selectStack, r)
	a.graph.RemoveNode(r)
}

// simplifyCandidate returns the lowest-numbered node of degree < K
func (a *Allocator) simplifyCandidate() (rtl.Reg, bool) {
	for _, r := range a.graph.Nodes.Slice() {
		if a.graph.Degree(r) < len(a.regs) {
			return r, true
		}
	}
	return 0, false
}

// selectSpill picks the potential spill according to the heuristic. Ties
// go to the lowest temporary and spill-code temporaries come last.
func (a *Allocator) selectSpill() rtl.Reg {
	var best rtl.Reg
	found := false
	for _, r := range a.graph.Nodes.Slice() {
		if !found || a.better(r, best) {
			best = r
			found = true
		}
	}
	return best
}

// better reports whether r is a strictly better spill candidate than cur
func (a *Allocator) better(r, cur rtl.Reg) bool {
	if rl, cl := a.late.Contains(r), a.late.Contains(cur); rl != cl {
		return cl
	}
	rd, cd := a.graph.Degree(r), a.graph.Degree(cur)
	if a.heuristic == SpillCost {
		// occur(r)/rd < occur(cur)/cd, degrees are at least K
		return a.occur[r]*cd < a.occur[cur]*rd
	}
	return rd > cd
}

// assignColors pops the select stack, giving each node the register of a
// colored move partner when possible and the lowest free one otherwise
func (a *Allocator) assignColors() {
	for i := len(a.selectStack) - 1; i >= 0; i-- {
		r := a.selectStack[i]

		used := make(map[rtl.Reg]bool)
		for n := range a.orig.Edges[r] {
			if c, ok := a.colors[n]; ok {
				used[c] = true
			}
		}

		color, ok := rtl.Reg(0), false
		for _, p := range a.orig.Preferences[r].Slice() {
			if c, colored := a.colors[p]; colored && !used[c] {
				color, ok = c, true
				break
			}
		}
		if !ok {
			for _, c := range a.regs {
				if !used[c] {
					color, ok = c, true
					break
				}
			}
		}

		if !ok {
			a.spilled.Add(r)
			continue
		}
		a.colors[r] = color
	}
}

// Potential returns the nodes pushed as potential spills
func (a *Allocator) Potential() RegSet {
	return a.potential.Copy()
}
