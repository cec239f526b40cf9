package stacking

import (
	"github.com/raymyers/minicc/pkg/rtl"
)

// EpilogueLabel returns the label of the shared epilogue of a function
func EpilogueLabel(fn *rtl.Function) string {
	return fn.Name + ".ret"
}

// Function adds the prologue and epilogue to an allocated function in
// place. Every return in the body becomes a jump to the single epilogue; a
// return at the very end falls through into it.
func Function(fn *rtl.Function) *FrameLayout {
	usedCalleeSave := FindUsedCalleeSaveRegs(fn)
	layout := ComputeLayout(fn, len(usedCalleeSave))
	calleeSave := ComputeCalleeSaveInfo(layout, usedCalleeSave)

	exit := EpilogueLabel(fn)
	body := fn.Code
	if n := len(body); n > 0 {
		if _, ok := body[n-1].(rtl.Ireturn); ok {
			body = body[:n-1]
		}
	}

	code := GeneratePrologue(layout, calleeSave)
	for _, instr := range body {
		if _, ok := instr.(rtl.Ireturn); ok {
			instr = rtl.Igoto{Target: exit}
		}
		code = append(code, instr)
	}
	code = append(code, rtl.Ilabel{Name: exit})
	code = append(code, GenerateEpilogue(layout, calleeSave)...)

	fn.Code = code
	return layout
}

// Program finalizes the frames of all functions of prog
func Program(prog *rtl.Program) []*FrameLayout {
	layouts := make([]*FrameLayout, len(prog.Functions))
	for i, fn := range prog.Functions {
		layouts[i] = Function(fn)
	}
	return layouts
}
