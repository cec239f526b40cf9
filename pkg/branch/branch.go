// Package branch cleans up control flow in finished RTL: it shortcuts jumps
// to jumps, drops jumps to the very next instruction and removes labels
// that nothing branches to.
package branch

import "github.com/raymyers/minicc/pkg/rtl"

// Optimize runs every cleanup on fn in place. Labels listed in keep survive
// even when unreferenced.
func Optimize(fn *rtl.Function, keep ...string) {
	Tunnel(fn)
	RemoveFallthroughGotos(fn)
	CleanupLabels(fn, keep...)
}

// Program optimizes every function of prog, keeping each function's label
// given by keep
func Program(prog *rtl.Program, keep func(*rtl.Function) string) {
	for _, fn := range prog.Functions {
		Optimize(fn, keep(fn))
	}
}

// Tunnel shortcuts chains of unconditional jumps: a branch to L where L is
// immediately followed by "goto M" becomes a branch to M.
func Tunnel(fn *rtl.Function) {
	if len(fn.Code) == 0 {
		return
	}
	resolved := resolveChains(buildJumpTargetMap(fn))
	if len(resolved) == 0 {
		return
	}
	for i, instr := range fn.Code {
		fn.Code[i] = tunnelInstruction(instr, resolved)
	}
}

// buildJumpTargetMap finds labels whose next instruction is a goto.
// Consecutive labels share the goto that follows them.
func buildJumpTargetMap(fn *rtl.Function) map[string]string {
	result := make(map[string]string)
	var pending []string
	for _, instr := range fn.Code {
		switch i := instr.(type) {
		case rtl.Ilabel:
			pending = append(pending, i.Name)
			continue
		case rtl.Igoto:
			for _, lbl := range pending {
				result[lbl] = i.Target
			}
		}
		pending = pending[:0]
	}
	return result
}

func resolveChains(jumpTargets map[string]string) map[string]string {
	result := make(map[string]string, len(jumpTargets))
	for lbl := range jumpTargets {
		result[lbl] = resolveLabel(lbl, jumpTargets)
	}
	return result
}

// resolveLabel follows a jump chain to its final target. On a cycle it
// stops at the label where the cycle closes.
func resolveLabel(lbl string, jumpTargets map[string]string) string {
	visited := make(map[string]bool)
	current := lbl
	for {
		if visited[current] {
			return current
		}
		visited[current] = true

		target, ok := jumpTargets[current]
		if !ok {
			return current
		}
		current = target
	}
}

func tunnelInstruction(instr rtl.Instruction, resolved map[string]string) rtl.Instruction {
	switch i := instr.(type) {
	case rtl.Igoto:
		if target, ok := resolved[i.Target]; ok {
			return rtl.Igoto{Target: target}
		}
	case rtl.Icond:
		if target, ok := resolved[i.IfSo]; ok {
			i.IfSo = target
			return i
		}
	}
	return instr
}

// RemoveFallthroughGotos deletes "goto L" when L labels the next
// instruction anyway
func RemoveFallthroughGotos(fn *rtl.Function) {
	code := make([]rtl.Instruction, 0, len(fn.Code))
	for i, instr := range fn.Code {
		if gt, ok := instr.(rtl.Igoto); ok && labelsAhead(fn.Code[i+1:], gt.Target) {
			continue
		}
		code = append(code, instr)
	}
	fn.Code = code
}

// labelsAhead reports whether name is among the labels at the start of code
func labelsAhead(code []rtl.Instruction, name string) bool {
	for _, instr := range code {
		lbl, ok := instr.(rtl.Ilabel)
		if !ok {
			return false
		}
		if lbl.Name == name {
			return true
		}
	}
	return false
}

// CleanupLabels removes labels that are not the target of any branch
func CleanupLabels(fn *rtl.Function, keep ...string) {
	used := collectUsedLabels(fn)
	for _, name := range keep {
		used[name] = true
	}

	code := make([]rtl.Instruction, 0, len(fn.Code))
	for _, instr := range fn.Code {
		if lbl, ok := instr.(rtl.Ilabel); ok && !used[lbl.Name] {
			continue
		}
		code = append(code, instr)
	}
	fn.Code = code
}

func collectUsedLabels(fn *rtl.Function) map[string]bool {
	used := make(map[string]bool)
	for _, instr := range fn.Code {
		switch i := instr.(type) {
		case rtl.Igoto:
			used[i.Target] = true
		case rtl.Icond:
			used[i.IfSo] = true
		}
	}
	return used
}
