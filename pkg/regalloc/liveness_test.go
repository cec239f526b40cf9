package regalloc

import (
	"testing"

	"github.com/raymyers/minicc/pkg/rtl"
)

const (
	x32 = rtl.FirstTemp + iota
	x33
	x34
	x35
	x36
	x37
	x38
)

func op(o rtl.Operation, dest rtl.Reg, args ...rtl.Reg) rtl.Iop {
	return rtl.Iop{Op: o, Args: args, Dest: dest}
}

func newFunc(name string, next rtl.Reg, code ...rtl.Instruction) *rtl.Function {
	fn := rtl.NewFunction(name)
	fn.NextTemp = next
	fn.Emit(code...)
	return fn
}

// straightLine computes (1+2) and returns it
func straightLine() *rtl.Function {
	return newFunc("f", x35,
		op(rtl.Ointconst{Value: 1}, x32),
		op(rtl.Ointconst{Value: 2}, x33),
		op(rtl.Oadd{}, x34, x32, x33),
		op(rtl.Omove{}, rtl.V0, x34),
		rtl.Ireturn{},
	)
}

// countdown decrements x32 until it reaches zero
func countdown() *rtl.Function {
	return newFunc("g", x33,
		op(rtl.Ointconst{Value: 3}, x32),
		rtl.Ilabel{Name: "g.L0"},
		rtl.Icond{Cond: rtl.Ceq, Left: x32, Right: rtl.Zero, IfSo: "g.L1"},
		op(rtl.Oaddimm{N: -1}, x32, x32),
		rtl.Igoto{Target: "g.L0"},
		rtl.Ilabel{Name: "g.L1"},
		rtl.Ireturn{},
	)
}

func TestRegSet(t *testing.T) {
	s := NewRegSet(x34, x32)
	s.Add(x33)
	if !s.Contains(x33) || s.Contains(x35) {
		t.Fatalf("unexpected membership in %v", s.Slice())
	}

	u := s.Union(NewRegSet(x35))
	if len(u) != 4 || len(s) != 3 {
		t.Errorf("Union modified its receiver or lost elements: %v %v", s.Slice(), u.Slice())
	}
	d := u.Minus(NewRegSet(x32, x33))
	if !d.Equal(NewRegSet(x34, x35)) {
		t.Errorf("Minus = %v", d.Slice())
	}

	got := u.Slice()
	want := []rtl.Reg{x32, x33, x34, x35}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Slice() = %v, want %v", got, want)
		}
	}

	c := s.Copy()
	c.Remove(x32)
	if !s.Contains(x32) {
		t.Error("Copy shares storage with the original")
	}
}

func TestComputeDefUseIgnoresMachineRegisters(t *testing.T) {
	fn := newFunc("f", x34,
		op(rtl.Oaddimm{N: -8}, rtl.SP, rtl.SP),
		rtl.Istore{Chunk: rtl.Mint32, Base: rtl.SP, Ofs: 0, Src: x32},
		rtl.Icall{Fn: "h"},
		op(rtl.Omove{}, x33, rtl.V0),
	)
	def, use := ComputeDefUse(fn)

	tests := []struct {
		idx int
		def RegSet
		use RegSet
	}{
		{0, NewRegSet(), NewRegSet()},
		{1, NewRegSet(), NewRegSet(x32)},
		{2, NewRegSet(), NewRegSet()},
		{3, NewRegSet(x33), NewRegSet()},
	}
	for _, tc := range tests {
		if !def[tc.idx].Equal(tc.def) {
			t.Errorf("def[%d] = %v, want %v", tc.idx, def[tc.idx].Slice(), tc.def.Slice())
		}
		if !use[tc.idx].Equal(tc.use) {
			t.Errorf("use[%d] = %v, want %v", tc.idx, use[tc.idx].Slice(), tc.use.Slice())
		}
	}
}

func TestAnalyzeLiveness(t *testing.T) {
	tests := []struct {
		name    string
		fn      *rtl.Function
		liveIn  []RegSet
		liveOut []RegSet
	}{
		{
			name: "straight line",
			fn:   straightLine(),
			liveIn: []RegSet{
				NewRegSet(), NewRegSet(x32), NewRegSet(x32, x33), NewRegSet(x34), NewRegSet(),
			},
			liveOut: []RegSet{
				NewRegSet(x32), NewRegSet(x32, x33), NewRegSet(x34), NewRegSet(), NewRegSet(),
			},
		},
		{
			name: "loop",
			fn:   countdown(),
			liveIn: []RegSet{
				NewRegSet(), NewRegSet(x32), NewRegSet(x32), NewRegSet(x32),
				NewRegSet(x32), NewRegSet(), NewRegSet(),
			},
			liveOut: []RegSet{
				NewRegSet(x32), NewRegSet(x32), NewRegSet(x32), NewRegSet(x32),
				NewRegSet(x32), NewRegSet(), NewRegSet(),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := AnalyzeLiveness(tc.fn)
			for idx := range tc.fn.Code {
				if !info.LiveIn[idx].Equal(tc.liveIn[idx]) {
					t.Errorf("LiveIn[%d] = %v, want %v", idx, info.LiveIn[idx].Slice(), tc.liveIn[idx].Slice())
				}
				if !info.LiveOut[idx].Equal(tc.liveOut[idx]) {
					t.Errorf("LiveOut[%d] = %v, want %v", idx, info.LiveOut[idx].Slice(), tc.liveOut[idx].Slice())
				}
			}
		})
	}
}

func TestBuildInterferenceGraph(t *testing.T) {
	fn := newFunc("f", x37,
		op(rtl.Ointconst{Value: 1}, x32),
		op(rtl.Ointconst{Value: 2}, x33),
		op(rtl.Omove{}, x34, x32),
		op(rtl.Oadd{}, x35, x33, x34),
		op(rtl.Oadd{}, x36, x32, x35),
		op(rtl.Omove{}, rtl.V0, x36),
		rtl.Ireturn{},
	)
	g := BuildInterferenceGraph(fn, AnalyzeLiveness(fn))

	if len(g.Nodes) != 5 {
		t.Errorf("graph has %d nodes, want 5", len(g.Nodes))
	}
	edges := []struct {
		a, b rtl.Reg
		want bool
	}{
		{x32, x33, true},
		{x33, x34, true},
		{x32, x35, true},
		{x32, x34, false}, // move source
		{x34, x35, false},
		{x36, x32, false},
	}
	for _, e := range edges {
		if g.HasEdge(e.a, e.b) != e.want || g.HasEdge(e.b, e.a) != e.want {
			t.Errorf("HasEdge(%s, %s) = %v, want %v", e.a, e.b, g.HasEdge(e.a, e.b), e.want)
		}
	}
	if !g.Preferences[x34].Contains(x32) || !g.MoveRelated(x32) {
		t.Error("move x34 = x32 not recorded as a preference")
	}
	if g.MoveRelated(x36) {
		t.Error("x36 moves to a machine register and must not be move related")
	}
	if g.Degree(x32) != 2 {
		t.Errorf("Degree(x32) = %d, want 2", g.Degree(x32))
	}
}

func TestInterferenceGraphRemoveNode(t *testing.T) {
	g := NewInterferenceGraph()
	g.AddEdge(x32, x33)
	g.AddEdge(x32, x34)
	g.AddPreference(x33, x34)

	c := g.Copy()
	c.RemoveNode(x32)
	if c.Degree(x33) != 0 || c.Nodes.Contains(x32) {
		t.Error("RemoveNode left edges behind")
	}
	if g.Degree(x32) != 2 || !g.HasEdge(x33, x32) {
		t.Error("removing from a copy changed the original")
	}
	g.AddEdge(x35, x35)
	if g.Nodes.Contains(x35) {
		t.Error("self edge added a node")
	}
}
