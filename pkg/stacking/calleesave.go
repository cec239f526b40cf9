package stacking

import (
	"slices"

	"github.com/raymyers/minicc/pkg/regalloc"
	"github.com/raymyers/minicc/pkg/rtl"
)

// Every register the allocator hands out survives calls: the callee saves
// the ones it writes. $v0, $a0 and $ra are not preserved.

// IsCalleeSaved returns true if the register is callee-saved
func IsCalleeSaved(reg rtl.Reg) bool {
	return slices.Contains(regalloc.DefaultRegisters, reg)
}

// FindUsedCalleeSaveRegs returns the callee-saved registers written by fn,
// in register order
func FindUsedCalleeSaveRegs(fn *rtl.Function) []rtl.Reg {
	used := make(map[rtl.Reg]bool)
	for _, instr := range fn.Code {
		for _, r := range rtl.Defs(instr) {
			if IsCalleeSaved(r) {
				used[r] = true
			}
		}
	}

	var result []rtl.Reg
	for reg := range used {
		result = append(result, reg)
	}
	slices.Sort(result)
	return result
}

// CalleeSaveInfo holds information about callee-save register handling
type CalleeSaveInfo struct {
	Regs        []rtl.Reg // registers to save
	SaveOffsets []int32   // offset from FP for each saved reg
}

// ComputeCalleeSaveInfo assigns each saved register a word of the save
// area, going down from CalleeSaveOffset
func ComputeCalleeSaveInfo(layout *FrameLayout, usedRegs []rtl.Reg) *CalleeSaveInfo {
	info := &CalleeSaveInfo{
		Regs:        usedRegs,
		SaveOffsets: make([]int32, len(usedRegs)),
	}
	offset := layout.CalleeSaveOffset
	for i := range usedRegs {
		info.SaveOffsets[i] = offset
		offset -= wordSize
	}
	return info
}
