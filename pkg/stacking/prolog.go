package stacking

import (
	"github.com/raymyers/minicc/pkg/rtl"
)

func addimm(dest, src rtl.Reg, n int32) rtl.Instruction {
	return rtl.Iop{Op: rtl.Oaddimm{N: n}, Args: []rtl.Reg{src}, Dest: dest}
}

// GeneratePrologue generates the function prologue:
//  1. Push the caller's FP and point FP at it
//  2. Save RA below FP
//  3. Allocate the frame
//  4. Save callee-saved registers
func GeneratePrologue(layout *FrameLayout, calleeSave *CalleeSaveInfo) []rtl.Instruction {
	prologue := []rtl.Instruction{
		addimm(rtl.SP, rtl.SP, -wordSize),
		rtl.Istore{Chunk: rtl.Mint32, Base: rtl.SP, Ofs: 0, Src: rtl.FP},
		rtl.Iop{Op: rtl.Omove{}, Args: []rtl.Reg{rtl.SP}, Dest: rtl.FP},
		rtl.Istore{Chunk: rtl.Mint32, Base: rtl.FP, Ofs: -wordSize, Src: rtl.RA},
		addimm(rtl.SP, rtl.FP, -layout.TotalSize),
	}
	for i, r := range calleeSave.Regs {
		prologue = append(prologue, rtl.Istore{Chunk: rtl.Mint32, Base: rtl.FP, Ofs: calleeSave.SaveOffsets[i], Src: r})
	}
	return prologue
}

// GenerateEpilogue generates the function epilogue:
//  1. Restore callee-saved registers
//  2. Restore RA
//  3. Pop the frame and the saved FP slot
//  4. Restore the caller's FP and return
func GenerateEpilogue(layout *FrameLayout, calleeSave *CalleeSaveInfo) []rtl.Instruction {
	var epilogue []rtl.Instruction
	for i, r := range calleeSave.Regs {
		epilogue = append(epilogue, rtl.Iload{Chunk: rtl.Mint32, Base: rtl.FP, Ofs: calleeSave.SaveOffsets[i], Dest: r})
	}
	return append(epilogue,
		rtl.Iload{Chunk: rtl.Mint32, Base: rtl.FP, Ofs: -wordSize, Dest: rtl.RA},
		addimm(rtl.SP, rtl.FP, wordSize),
		rtl.Iload{Chunk: rtl.Mint32, Base: rtl.FP, Ofs: 0, Dest: rtl.FP},
		rtl.Ireturn{},
	)
}
