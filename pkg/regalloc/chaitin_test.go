package regalloc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/raymyers/minicc/pkg/diag"
	"github.com/raymyers/minicc/pkg/rtl"
)

// interpret runs a call-free function and returns $v0. Temporaries and
// machine registers share one register file, so the same function can be
// run before and after allocation.
func interpret(t *testing.T, fn *rtl.Function) int32 {
	t.Helper()
	regs := map[rtl.Reg]int32{rtl.FP: 4096, rtl.SP: 4000}
	mem := map[int32]int32{}
	labels := rtl.Labels(fn)

	for pc, steps := 0, 0; pc < len(fn.Code); steps++ {
		if steps > 10000 {
			t.Fatalf("%s does not terminate", fn.Name)
		}
		next := pc + 1
		switch i := fn.Code[pc].(type) {
		case rtl.Iop:
			var v int32
			args := make([]int32, len(i.Args))
			for k, a := range i.Args {
				args[k] = regs[a]
			}
			switch o := i.Op.(type) {
			case rtl.Omove:
				v = args[0]
			case rtl.Ointconst:
				v = o.Value
			case rtl.Oadd:
				v = args[0] + args[1]
			case rtl.Oaddimm:
				v = args[0] + o.N
			case rtl.Osub:
				v = args[0] - args[1]
			case rtl.Omul:
				v = args[0] * args[1]
			case rtl.Oaddrstack:
				v = regs[rtl.FP] + o.Offset
			default:
				t.Fatalf("interpret: unsupported operation %T", o)
			}
			if i.Dest != rtl.Zero {
				regs[i.Dest] = v
			}
		case rtl.Iload:
			regs[i.Dest] = mem[regs[i.Base]+i.Ofs]
		case rtl.Istore:
			mem[regs[i.Base]+i.Ofs] = regs[i.Src]
		case rtl.Icond:
			eq := regs[i.Left] == regs[i.Right]
			if eq == (i.Cond == rtl.Ceq) {
				next = labels[i.IfSo]
			}
		case rtl.Igoto:
			next = labels[i.Target]
		case rtl.Ireturn:
			return regs[rtl.V0]
		case rtl.Ilabel:
		default:
			t.Fatalf("interpret: unsupported instruction %T", i)
		}
		pc = next
	}
	return regs[rtl.V0]
}

// pressure keeps four values live at once: (1+2)+(3+4)
func pressure() *rtl.Function {
	return newFunc("p", x38+1,
		op(rtl.Ointconst{Value: 1}, x32),
		op(rtl.Ointconst{Value: 2}, x33),
		op(rtl.Ointconst{Value: 3}, x34),
		op(rtl.Ointconst{Value: 4}, x35),
		op(rtl.Oadd{}, x36, x32, x33),
		op(rtl.Oadd{}, x37, x34, x35),
		op(rtl.Oadd{}, x38, x36, x37),
		op(rtl.Omove{}, rtl.V0, x38),
		rtl.Ireturn{},
	)
}

// sumLoop adds 5+4+3+2+1 with a counter, an accumulator and a constant
// live around the loop
func sumLoop() *rtl.Function {
	return newFunc("s", x36,
		op(rtl.Ointconst{Value: 5}, x32),
		op(rtl.Ointconst{Value: 0}, x33),
		op(rtl.Ointconst{Value: 1}, x34),
		rtl.Ilabel{Name: "s.L0"},
		rtl.Icond{Cond: rtl.Ceq, Left: x32, Right: rtl.Zero, IfSo: "s.L1"},
		op(rtl.Oadd{}, x33, x33, x32),
		op(rtl.Osub{}, x32, x32, x34),
		rtl.Igoto{Target: "s.L0"},
		rtl.Ilabel{Name: "s.L1"},
		op(rtl.Omove{}, x35, x33),
		op(rtl.Omove{}, rtl.V0, x35),
		rtl.Ireturn{},
	)
}

func TestAllocateFunction(t *testing.T) {
	tests := []struct {
		name       string
		fn         func() *rtl.Function
		registers  []rtl.Reg
		spill      SpillHeuristic
		want       int32
		wantSpills bool
	}{
		{"straight line", straightLine, nil, SpillDegree, 3, false},
		{"loop", sumLoop, nil, SpillDegree, 15, false},
		{"pressure K=18", pressure, nil, SpillDegree, 10, false},
		{"pressure K=3 degree", pressure, []rtl.Reg{rtl.T0, rtl.T1, rtl.T2}, SpillDegree, 10, true},
		{"pressure K=3 cost", pressure, []rtl.Reg{rtl.T0, rtl.T1, rtl.T2}, SpillCost, 10, true},
		{"loop K=2", sumLoop, []rtl.Reg{rtl.S0, rtl.S1}, SpillDegree, 15, true},
		{"loop K=2 cost", sumLoop, []rtl.Reg{rtl.S0, rtl.S1}, SpillCost, 15, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			want := interpret(t, tc.fn())
			if want != tc.want {
				t.Fatalf("unallocated function computes %d, want %d", want, tc.want)
			}

			fn := tc.fn()
			opts := Options{Strategy: StrategyGraph, Registers: tc.registers, Spill: tc.spill}
			res, err := AllocateFunction(fn, opts)
			if err != nil {
				t.Fatalf("AllocateFunction: %v", err)
			}
			if err := Verify(fn, res.Graph, res); err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if got := interpret(t, fn); got != tc.want {
				t.Errorf("allocated function computes %d, want %d", got, tc.want)
			}

			if (res.Spills > 0) != tc.wantSpills {
				t.Errorf("Spills = %d, want spills: %v", res.Spills, tc.wantSpills)
			}
			if tc.wantSpills {
				if res.Rounds < 2 || res.Rounds > MaxRounds {
					t.Errorf("Rounds = %d, want 2..%d", res.Rounds, MaxRounds)
				}
				if fn.FrameSize != int32(4*len(res.Slots)) {
					t.Errorf("FrameSize = %d for %d slots", fn.FrameSize, len(res.Slots))
				}
			} else if res.Rounds != 1 || len(res.Slots) != 0 {
				t.Errorf("Rounds = %d, slots = %d, want one round and no slots", res.Rounds, len(res.Slots))
			}

			allowed := NewRegSet(opts.registers()...)
			for _, c := range res.Assign {
				if !allowed.Contains(c) {
					t.Errorf("%s is not an allocatable register", c)
				}
			}
		})
	}
}

func TestMovePartnersShareRegister(t *testing.T) {
	fn := newFunc("m", x36,
		op(rtl.Ointconst{Value: 5}, x32),
		op(rtl.Omove{}, x33, x32),
		op(rtl.Ointconst{Value: 1}, x34),
		op(rtl.Oadd{}, x35, x33, x34),
		op(rtl.Omove{}, rtl.V0, x35),
		rtl.Ireturn{},
	)
	res, err := AllocateFunction(fn, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Assign[x32] != res.Assign[x33] {
		t.Errorf("move partners got %s and %s", res.Assign[x32], res.Assign[x33])
	}
	if res.Assign[x33] == res.Assign[x34] {
		t.Errorf("interfering x33 and x34 share %s", res.Assign[x33])
	}
	if got := rtl.InstrString(fn.Code[1]); got != "$t1 = $t1" {
		t.Errorf("move after allocation = %q", got)
	}
}

func TestSelectSpill(t *testing.T) {
	// degrees: x32=3 x33=2 x34=3 x35=2, nothing simplifies with K=2
	g := NewInterferenceGraph()
	g.AddEdge(x32, x33)
	g.AddEdge(x32, x34)
	g.AddEdge(x32, x35)
	g.AddEdge(x33, x34)
	g.AddEdge(x34, x35)
	occur := map[rtl.Reg]int{x32: 10, x33: 1, x34: 6, x35: 4}

	tests := []struct {
		name      string
		heuristic SpillHeuristic
		late      RegSet
		want      rtl.Reg
	}{
		{"degree picks lowest of the highest", SpillDegree, nil, x32},
		{"degree skips spill temporaries", SpillDegree, NewRegSet(x32), x34},
		{"cost picks cheapest per neighbor", SpillCost, nil, x33},
		{"cost skips spill temporaries", SpillCost, NewRegSet(x33), x34},
		{"all late falls back to heuristic", SpillDegree, NewRegSet(x32, x33, x34, x35), x32},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := Options{Registers: []rtl.Reg{rtl.T0, rtl.T1}, Spill: tc.heuristic}
			a := NewAllocator(g, &LivenessInfo{}, opts, tc.late)
			a.occur = occur
			if _, ok := a.simplifyCandidate(); ok {
				t.Fatal("graph unexpectedly simplifies")
			}
			if got := a.selectSpill(); got != tc.want {
				t.Errorf("selectSpill() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAllocateFunctionRoundLimit(t *testing.T) {
	fn := pressure()
	_, err := AllocateFunction(fn, Options{Registers: []rtl.Reg{rtl.T0}})
	if !errors.Is(err, diag.ErrInternal) {
		t.Fatalf("err = %v, want ErrInternal", err)
	}
	if !strings.Contains(err.Error(), "did not converge") {
		t.Errorf("unexpected message %q", err)
	}
}

func TestNaive(t *testing.T) {
	for _, mk := range []func() *rtl.Function{straightLine, sumLoop, pressure} {
		want := interpret(t, mk())
		fn := mk()
		temps := fn.Temps()
		res, err := AllocateFunction(fn, Options{Strategy: StrategyNaive})
		if err != nil {
			t.Fatal(err)
		}
		if err := Verify(fn, res.Graph, res); err != nil {
			t.Fatalf("%s: %v", fn.Name, err)
		}
		if got := interpret(t, fn); got != want {
			t.Errorf("%s: naive allocation computes %d, want %d", fn.Name, got, want)
		}
		if len(res.Slots) != temps || fn.FrameSize != int32(4*temps) {
			t.Errorf("%s: %d slots, frame %d for %d temporaries", fn.Name, len(res.Slots), fn.FrameSize, temps)
		}

		scratch := NewRegSet(NaiveScratch[:]...)
		for _, instr := range fn.Code {
			for _, r := range rtl.Defs(instr) {
				if r != rtl.V0 && !scratch.Contains(r) {
					t.Errorf("%s: %q defines %s", fn.Name, rtl.InstrString(instr), r)
				}
			}
		}
	}
}

func TestNaiveRewrite(t *testing.T) {
	fn := straightLine()
	if _, err := AllocateFunction(fn, Options{Strategy: StrategyNaive}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	for _, instr := range fn.Code {
		buf.WriteString(rtl.InstrString(instr) + "\n")
	}
	want := strings.Join([]string{
		"$t0 = int 1",
		"int32[$fp + -8] = $t0",
		"$t0 = int 2",
		"int32[$fp + -12] = $t0",
		"$t1 = int32[$fp + -8]",
		"$t2 = int32[$fp + -12]",
		"$t0 = add($t1, $t2)",
		"int32[$fp + -16] = $t0",
		"$t1 = int32[$fp + -16]",
		"$v0 = $t1",
		"return",
	}, "\n") + "\n"
	if buf.String() != want {
		t.Errorf("naive rewrite:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRun(t *testing.T) {
	prog := &rtl.Program{Functions: []*rtl.Function{straightLine(), sumLoop(), pressure()}}
	opts := DefaultOptions()
	opts.Registers = []rtl.Reg{rtl.T0, rtl.T1, rtl.T2}
	opts.Jobs = 2

	results, err := Run(context.Background(), prog, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, fn := range prog.Functions {
		if results[i] == nil {
			t.Fatalf("no result for %s", fn.Name)
		}
		if err := Verify(fn, results[i].Graph, results[i]); err != nil {
			t.Error(err)
		}
	}
	if got := interpret(t, prog.Functions[2]); got != 10 {
		t.Errorf("p computes %d after Run", got)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	prog := &rtl.Program{Functions: []*rtl.Function{straightLine()}}
	if _, err := Run(ctx, prog, DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestVerifyRejectsConflicts(t *testing.T) {
	fn := straightLine()
	g := BuildInterferenceGraph(fn, AnalyzeLiveness(fn))
	res := &Result{Assign: map[rtl.Reg]rtl.Reg{x32: rtl.T0, x33: rtl.T0, x34: rtl.T1}}
	applyColors(fn, res.Assign)

	err := Verify(fn, g, res)
	if !errors.Is(err, diag.ErrInternal) || !strings.Contains(err.Error(), "share $t0") {
		t.Errorf("Verify = %v, want a shared register error", err)
	}

	fn = straightLine()
	if err := Verify(fn, nil, &Result{}); err == nil || !strings.Contains(err.Error(), "still refers to x32") {
		t.Errorf("Verify on unallocated code = %v", err)
	}
}

func TestWriteDot(t *testing.T) {
	fn := pressure()
	res, err := AllocateFunction(fn, Options{Registers: []rtl.Reg{rtl.T0, rtl.T1, rtl.T2}})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteDot(&buf, fn, res.Graph, res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`graph "p" {`, " -- ", `shape=box`, "($fp)", "}\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
}
