// Package rtl defines the RTL (Register Transfer Language) intermediate representation.
// RTL is a linear list of 3-address instructions over an unbounded supply of
// virtual temporaries plus the fixed MIPS machine registers. Control flow is
// expressed with labels, conditional branches and jumps.
package rtl

import "fmt"

// Reg is either a MIPS machine register (0..31) or a virtual temporary
// (FirstTemp and up)
type Reg int

// MIPS machine registers
const (
	Zero Reg = iota
	AT
	V0
	V1
	A0
	A1
	A2
	A3
	T0
	T1
	T2
	T3
	T4
	T5
	T6
	T7
	S0
	S1
	S2
	S3
	S4
	S5
	S6
	S7
	T8
	T9
	K0
	K1
	GP
	SP
	FP
	RA
)

// FirstTemp is the first virtual temporary
const FirstTemp Reg = 32

var regNames = [...]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// IsTemp reports whether r is a virtual temporary
func (r Reg) IsTemp() bool { return r >= FirstTemp }

func (r Reg) String() string {
	if r.IsTemp() {
		return fmt.Sprintf("x%d", r)
	}
	if r >= 0 && int(r) < len(regNames) {
		return "$" + regNames[r]
	}
	return fmt.Sprintf("?%d", int(r))
}

// ParseReg maps a register name such as "$t0" or "s3" to its Reg
func ParseReg(name string) (Reg, bool) {
	if len(name) > 0 && name[0] == '$' {
		name = name[1:]
	}
	for i, n := range regNames {
		if n == name {
			return Reg(i), true
		}
	}
	return 0, false
}

// Chunk is the size of a memory access
type Chunk int

const (
	Mint8signed Chunk = iota // lb / sb
	Mint32                   // lw / sw
)

func (c Chunk) String() string {
	if c == Mint8signed {
		return "int8s"
	}
	return "int32"
}

// Size returns the number of bytes accessed
func (c Chunk) Size() int32 {
	if c == Mint8signed {
		return 1
	}
	return 4
}

// --- Operation Types ---

// Operation is the computation performed by an Iop
type Operation interface {
	implOperation()
}

// Omove copies a register value
type Omove struct{}

// Ointconst loads an integer constant
type Ointconst struct {
	Value int32
}

// Oaddrsymbol loads the address of a data label plus offset
type Oaddrsymbol struct {
	Symbol string
	Offset int32
}

// Oaddrstack loads $fp + Offset
type Oaddrstack struct {
	Offset int32
}

// Integer arithmetic operations
type Oadd struct{}             // rd = rs1 + rs2
type Oaddimm struct{ N int32 } // rd = rs + n
type Osub struct{}             // rd = rs1 - rs2
type Omul struct{}             // rd = rs1 * rs2
type Odiv struct{}             // rd = rs1 / rs2 (signed)
type Omod struct{}             // rd = rs1 % rs2 (signed)

// Bitwise operations
type Oand struct{}             // rd = rs1 & rs2
type Oor struct{}              // rd = rs1 | rs2
type Oxor struct{}             // rd = rs1 ^ rs2
type Oxorimm struct{ N int32 } // rd = rs ^ n
type Oshlimm struct{ N int32 } // rd = rs << n
type Oshrimm struct{ N int32 } // rd = rs >> n (signed)
type Ocast8signed struct{}     // sign-extend the low byte

// Comparisons producing 0 or 1
type Oslt struct{}              // rd = rs1 < rs2 (signed)
type Osltu struct{}             // rd = rs1 < rs2 (unsigned)
type Osltimm struct{ N int32 }  // rd = rs < n (signed)
type Osltuimm struct{ N int32 } // rd = rs < n (unsigned)

// Marker methods for Operation interface
func (Omove) implOperation()        {}
func (Ointconst) implOperation()    {}
func (Oaddrsymbol) implOperation()  {}
func (Oaddrstack) implOperation()   {}
func (Oadd) implOperation()         {}
func (Oaddimm) implOperation()      {}
func (Osub) implOperation()         {}
func (Omul) implOperation()         {}
func (Odiv) implOperation()         {}
func (Omod) implOperation()         {}
func (Oand) implOperation()         {}
func (Oor) implOperation()          {}
func (Oxor) implOperation()         {}
func (Oxorimm) implOperation()      {}
func (Oshlimm) implOperation()      {}
func (Oshrimm) implOperation()      {}
func (Ocast8signed) implOperation() {}
func (Oslt) implOperation()         {}
func (Osltu) implOperation()        {}
func (Osltimm) implOperation()      {}
func (Osltuimm) implOperation()     {}

// --- Condition Codes ---

// Condition is the comparison tested by an Icond
type Condition int

const (
	Ceq Condition = iota // equal
	Cne                  // not equal
)

func (c Condition) String() string {
	if c == Ceq {
		return "=="
	}
	return "!="
}

// Negate returns the negated condition
func (c Condition) Negate() Condition {
	if c == Ceq {
		return Cne
	}
	return Ceq
}

// --- Instruction Types ---

// Instruction is the interface for RTL instructions
type Instruction interface {
	implInstruction()
}

// Ilabel marks a branch target
type Ilabel struct {
	Name string
}

// Iop performs an operation: dest = op(args...)
type Iop struct {
	Op   Operation
	Args []Reg
	Dest Reg
}

// Iload loads from memory: dest = Mem[base + ofs]
type Iload struct {
	Chunk Chunk
	Base  Reg
	Ofs   int32
	Dest  Reg
}

// Istore stores to memory: Mem[base + ofs] = src
type Istore struct {
	Chunk Chunk
	Base  Reg
	Ofs   int32
	Src   Reg
}

// Icond branches to IfSo when Left cond Right holds and falls through
// otherwise
type Icond struct {
	Cond        Condition
	Left, Right Reg
	IfSo        string
}

// Igoto jumps unconditionally
type Igoto struct {
	Target string
}

// Icall calls a function by label. Arguments have already been placed
// in the argument area or in $a0; a scalar result is left in $v0.
type Icall struct {
	Fn string
}

// Ireturn returns from the function
type Ireturn struct{}

// Marker methods for Instruction interface
func (Ilabel) implInstruction()  {}
func (Iop) implInstruction()     {}
func (Iload) implInstruction()   {}
func (Istore) implInstruction()  {}
func (Icond) implInstruction()   {}
func (Igoto) implInstruction()   {}
func (Icall) implInstruction()   {}
func (Ireturn) implInstruction() {}

// --- Function and Program ---

// Function represents an RTL function
type Function struct {
	Name      string        // assembly label
	Code      []Instruction // body in program order
	NextTemp  Reg           // next unused virtual temporary
	FrameSize int32         // bytes of locals and spill slots below the saved $ra
}

// DataKind distinguishes the contents of a data item
type DataKind int

const (
	DataSpace DataKind = iota // zero-filled storage
	DataAsciiz                // NUL-terminated string
)

// Data is a labelled item of the .data section
type Data struct {
	Label string
	Kind  DataKind
	Size  int32  // DataSpace only
	Align int32  // DataSpace only: 1 or 4
	Str   string // DataAsciiz only
}

// Program represents a complete RTL program
type Program struct {
	Data      []Data
	Functions []*Function
}

// NewFunction creates an empty RTL function
func NewFunction(name string) *Function {
	return &Function{Name: name, NextTemp: FirstTemp}
}

// NewTemp returns a fresh virtual temporary
func (f *Function) NewTemp() Reg {
	r := f.NextTemp
	f.NextTemp++
	return r
}

// Emit appends instructions to the body
func (f *Function) Emit(instrs ...Instruction) {
	f.Code = append(f.Code, instrs...)
}

// AllocSlot reserves a frame slot of the given size, rounded up to a word,
// and returns its $fp-relative offset
func (f *Function) AllocSlot(size int32) int32 {
	if size < 4 {
		size = 4
	}
	f.FrameSize += (size + 3) &^ 3
	return -(4 + f.FrameSize)
}

// Temps returns the number of virtual temporaries allocated so far
func (f *Function) Temps() int {
	return int(f.NextTemp - FirstTemp)
}
