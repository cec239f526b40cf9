package rtl

// Defs returns the registers written by an instruction. Calls clobber
// $v0 and $ra; the registers a callee saves are not reported.
func Defs(instr Instruction) []Reg {
	switch i := instr.(type) {
	case Iop:
		return []Reg{i.Dest}
	case Iload:
		return []Reg{i.Dest}
	case Icall:
		return []Reg{V0, RA}
	}
	return nil
}

// Uses returns the registers read by an instruction
func Uses(instr Instruction) []Reg {
	switch i := instr.(type) {
	case Iop:
		return i.Args
	case Iload:
		return []Reg{i.Base}
	case Istore:
		return []Reg{i.Base, i.Src}
	case Icond:
		return []Reg{i.Left, i.Right}
	}
	return nil
}

// MapRegs returns a copy of instr with every used register passed through
// use and every defined register passed through def
func MapRegs(instr Instruction, use, def func(Reg) Reg) Instruction {
	switch i := instr.(type) {
	case Iop:
		args := make([]Reg, len(i.Args))
		for k, a := range i.Args {
			args[k] = use(a)
		}
		return Iop{Op: i.Op, Args: args, Dest: def(i.Dest)}
	case Iload:
		return Iload{Chunk: i.Chunk, Base: use(i.Base), Ofs: i.Ofs, Dest: def(i.Dest)}
	case Istore:
		return Istore{Chunk: i.Chunk, Base: use(i.Base), Ofs: i.Ofs, Src: use(i.Src)}
	case Icond:
		return Icond{Cond: i.Cond, Left: use(i.Left), Right: use(i.Right), IfSo: i.IfSo}
	}
	return instr
}

// IsMove reports whether instr is a register copy and returns its operands
func IsMove(instr Instruction) (dst, src Reg, ok bool) {
	if op, isOp := instr.(Iop); isOp {
		if _, isMove := op.Op.(Omove); isMove && len(op.Args) == 1 {
			return op.Dest, op.Args[0], true
		}
	}
	return 0, 0, false
}

// Labels maps each label of fn to the index of its Ilabel instruction
func Labels(fn *Function) map[string]int {
	labels := make(map[string]int)
	for idx, instr := range fn.Code {
		if l, ok := instr.(Ilabel); ok {
			labels[l.Name] = idx
		}
	}
	return labels
}

// Successors returns the control-flow successors of every instruction of
// fn, by index. Falling off the end of the body has no successor.
func Successors(fn *Function) [][]int {
	labels := Labels(fn)
	succs := make([][]int, len(fn.Code))
	next := func(idx int) []int {
		if idx+1 < len(fn.Code) {
			return []int{idx + 1}
		}
		return nil
	}
	for idx, instr := range fn.Code {
		switch i := instr.(type) {
		case Igoto:
			if target, ok := labels[i.Target]; ok {
				succs[idx] = []int{target}
			}
		case Icond:
			succs[idx] = next(idx)
			if target, ok := labels[i.IfSo]; ok {
				succs[idx] = append(succs[idx], target)
			}
		case Ireturn:
		default:
			succs[idx] = next(idx)
		}
	}
	return succs
}
