package regalloc

import (
	"github.com/raymyers/minicc/pkg/rtl"
)

// rewriteSpills gives every spilled temporary its frame slot and rewrites
// the body so that each instruction touching one works on a fresh
// temporary: loaded from the slot before a use, stored back after a def.
// It returns the temporaries it introduced.
func rewriteSpills(fn *rtl.Function, spilled RegSet, slots map[rtl.Reg]int32) RegSet {
	for _, r := range spilled.Slice() {
		if _, ok := slots[r]; !ok {
			slots[r] = fn.AllocSlot(4)
		}
	}

	fresh := NewRegSet()
	code := make([]rtl.Instruction, 0, len(fn.Code))
	for _, instr := range fn.Code {
		local := make(map[rtl.Reg]rtl.Reg)
		temp := func(r rtl.Reg) rtl.Reg {
			t, ok := local[r]
			if !ok {
				t = fn.NewTemp()
				local[r] = t
				fresh.Add(t)
			}
			return t
		}

		var loads, stores []rtl.Instruction
		use := func(r rtl.Reg) rtl.Reg {
			if !spilled.Contains(r) {
				return r
			}
			_, seen := local[r]
			t := temp(r)
			if !seen {
				loads = append(loads, rtl.Iload{Chunk: rtl.Mint32, Base: rtl.FP, Ofs: slots[r], Dest: t})
			}
			return t
		}
		def := func(r rtl.Reg) rtl.Reg {
			if !spilled.Contains(r) {
				return r
			}
			t := temp(r)
			stores = append(stores, rtl.Istore{Chunk: rtl.Mint32, Base: rtl.FP, Ofs: slots[r], Src: t})
			return t
		}

		// MapRegs visits the uses before the def
		rewritten := rtl.MapRegs(instr, use, def)
		code = append(code, loads...)
		code = append(code, rewritten)
		code = append(code, stores...)
	}
	fn.Code = code
	return fresh
}
