// Package stacking finalizes the activation record of allocated RTL
// functions: it reserves the callee-save area below the locals and spill
// slots, and brackets the body with a prologue and a single epilogue.
package stacking

import "github.com/raymyers/minicc/pkg/rtl"

const wordSize = 4

// MIPS frame layout (called function's view):
//
//	+---------------------------+
//	| incoming arguments        |  +4 and up from FP
//	+---------------------------+  <- caller's SP
//	| old FP                    |  0(FP)
//	+---------------------------+  <- FP
//	| RA                        |  -4(FP)
//	| locals and spill slots    |  -8(FP) and down
//	| callee-saved registers    |
//	+---------------------------+  <- SP
//	| outgoing arguments        |  pushed around each call
//
// Frame slots are allocated by rtlgen and regalloc before stacking runs,
// so their offsets are already final.

// FrameLayout describes the concrete stack frame layout
type FrameLayout struct {
	LocalSize        int32 // locals and spill slots
	CalleeSaveSize   int32 // space for callee-saved registers
	CalleeSaveOffset int32 // FP offset of the first saved register
	TotalSize        int32 // distance from FP down to SP
}

// ComputeLayout computes the frame layout for an allocated function
func ComputeLayout(fn *rtl.Function, calleeSaveRegs int) *FrameLayout {
	layout := &FrameLayout{
		LocalSize:      alignUp(fn.FrameSize, wordSize),
		CalleeSaveSize: int32(calleeSaveRegs) * wordSize,
	}
	// RA sits at -4, locals occupy the LocalSize bytes below it
	layout.CalleeSaveOffset = -(wordSize + layout.LocalSize + wordSize)
	layout.TotalSize = wordSize + layout.LocalSize + layout.CalleeSaveSize
	return layout
}

// alignUp rounds n up to the nearest multiple of align
func alignUp(n, align int32) int32 {
	if align == 0 {
		return n
	}
	return ((n + align - 1) / align) * align
}
