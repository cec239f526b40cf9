package regalloc

import (
	"github.com/raymyers/minicc/pkg/rtl"
)

// allocateNaive keeps every temporary in its own frame slot. Operands are
// loaded into the scratch registers right before each instruction and a
// result is stored back right after it, so no register carries a value from
// one instruction to the next.
func allocateNaive(fn *rtl.Function) *Result {
	res := &Result{
		Assign: make(map[rtl.Reg]rtl.Reg),
		Slots:  make(map[rtl.Reg]int32),
		Rounds: 1,
		Temps:  fn.Temps(),
	}

	def, use := ComputeDefUse(fn)
	all := NewRegSet()
	for idx := range fn.Code {
		all = all.Union(def[idx]).Union(use[idx])
	}
	for _, r := range all.Slice() {
		res.Slots[r] = fn.AllocSlot(4)
	}
	res.Spills = len(res.Slots)

	code := make([]rtl.Instruction, 0, 3*len(fn.Code))
	for _, instr := range fn.Code {
		scratch := make(map[rtl.Reg]rtl.Reg)
		var loads, stores []rtl.Instruction
		useFn := func(r rtl.Reg) rtl.Reg {
			if !r.IsTemp() {
				return r
			}
			if s, ok := scratch[r]; ok {
				return s
			}
			s := NaiveScratch[1+len(scratch)]
			scratch[r] = s
			loads = append(loads, rtl.Iload{Chunk: rtl.Mint32, Base: rtl.FP, Ofs: res.Slots[r], Dest: s})
			return s
		}
		defFn := func(r rtl.Reg) rtl.Reg {
			if !r.IsTemp() {
				return r
			}
			stores = append(stores, rtl.Istore{Chunk: rtl.Mint32, Base: rtl.FP, Ofs: res.Slots[r], Src: NaiveScratch[0]})
			return NaiveScratch[0]
		}

		rewritten := rtl.MapRegs(instr, useFn, defFn)
		code = append(code, loads...)
		code = append(code, rewritten)
		code = append(code, stores...)
	}
	fn.Code = code
	return res
}
