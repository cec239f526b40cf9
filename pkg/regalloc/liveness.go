// Package regalloc assigns machine registers to the virtual temporaries of
// RTL functions. The graph strategy colors an interference graph with
// Chaitin's simplify/select scheme and spills to the frame when it runs out
// of registers; the naive strategy keeps every temporary in memory.
package regalloc

import (
	"sort"

	"github.com/raymyers/minicc/pkg/rtl"
)

// RegSet is a set of registers
type RegSet map[rtl.Reg]struct{}

// NewRegSet creates an empty set
func NewRegSet(regs ...rtl.Reg) RegSet {
	s := make(RegSet, len(regs))
	for _, r := range regs {
		s.Add(r)
	}
	return s
}

func (s RegSet) Add(r rtl.Reg)           { s[r] = struct{}{} }
func (s RegSet) Remove(r rtl.Reg)        { delete(s, r) }
func (s RegSet) Contains(r rtl.Reg) bool { _, ok := s[r]; return ok }

// Copy returns an independent copy of s
func (s RegSet) Copy() RegSet {
	c := make(RegSet, len(s))
	for r := range s {
		c[r] = struct{}{}
	}
	return c
}

// Union returns s ∪ other
func (s RegSet) Union(other RegSet) RegSet {
	u := s.Copy()
	for r := range other {
		u[r] = struct{}{}
	}
	return u
}

// Minus returns s \ other
func (s RegSet) Minus(other RegSet) RegSet {
	d := make(RegSet, len(s))
	for r := range s {
		if !other.Contains(r) {
			d[r] = struct{}{}
		}
	}
	return d
}

// Equal reports whether both sets hold the same registers
func (s RegSet) Equal(other RegSet) bool {
	if len(s) != len(other) {
		return false
	}
	for r := range s {
		if !other.Contains(r) {
			return false
		}
	}
	return true
}

// Slice returns the registers in ascending order
func (s RegSet) Slice() []rtl.Reg {
	out := make([]rtl.Reg, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LivenessInfo holds per-instruction liveness, indexed like fn.Code
type LivenessInfo struct {
	Def     []RegSet
	Use     []RegSet
	LiveIn  []RegSet
	LiveOut []RegSet
}

// ComputeDefUse returns the temporaries defined and used by each
// instruction. Machine registers are not tracked.
func ComputeDefUse(fn *rtl.Function) (def, use []RegSet) {
	def = make([]RegSet, len(fn.Code))
	use = make([]RegSet, len(fn.Code))
	for idx, instr := range fn.Code {
		def[idx] = temps(rtl.Defs(instr))
		use[idx] = temps(rtl.Uses(instr))
	}
	return def, use
}

func temps(regs []rtl.Reg) RegSet {
	s := NewRegSet()
	for _, r := range regs {
		if r.IsTemp() {
			s.Add(r)
		}
	}
	return s
}

// AnalyzeLiveness computes live-in and live-out sets by backward dataflow
// driven by a work list, until no set changes:
//
//	LiveOut(n) = ∪ LiveIn(s) for s in succ(n)
//	LiveIn(n)  = Use(n) ∪ (LiveOut(n) \ Def(n))
func AnalyzeLiveness(fn *rtl.Function) *LivenessInfo {
	n := len(fn.Code)
	def, use := ComputeDefUse(fn)
	info := &LivenessInfo{
		Def:     def,
		Use:     use,
		LiveIn:  make([]RegSet, n),
		LiveOut: make([]RegSet, n),
	}

	succs := rtl.Successors(fn)
	preds := make([][]int, n)
	for idx, ss := range succs {
		for _, s := range ss {
			preds[s] = append(preds[s], idx)
		}
	}

	queued := make([]bool, n)
	work := make([]int, 0, n)
	for idx := 0; idx < n; idx++ {
		info.LiveIn[idx] = NewRegSet()
		info.LiveOut[idx] = NewRegSet()
		work = append(work, idx)
		queued[idx] = true
	}

	for len(work) > 0 {
		idx := work[len(work)-1]
		work = work[:len(work)-1]
		queued[idx] = false

		out := NewRegSet()
		for _, s := range succs[idx] {
			for r := range info.LiveIn[s] {
				out.Add(r)
			}
		}
		in := use[idx].Union(out.Minus(def[idx]))
		info.LiveOut[idx] = out

		if in.Equal(info.LiveIn[idx]) {
			continue
		}
		info.LiveIn[idx] = in
		for _, p := range preds[idx] {
			if !queued[p] {
				queued[p] = true
				work = append(work, p)
			}
		}
	}
	return info
}
