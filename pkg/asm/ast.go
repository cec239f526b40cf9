// Package asm defines the MIPS32 assembly representation.
// This is the final output of the compiler, printed in the syntax accepted
// by the MARS and SPIM simulators.
package asm

import "github.com/raymyers/minicc/pkg/rtl"

// Re-export types
type Reg = rtl.Reg

// Re-export register constants
const (
	Zero = rtl.Zero
	AT   = rtl.AT // assembler temporary for out-of-range immediates
	V0   = rtl.V0
	A0   = rtl.A0
	T0   = rtl.T0
	SP   = rtl.SP
	FP   = rtl.FP
	RA   = rtl.RA
)

// Label represents a branch target or data label
type Label string

// --- Instruction Interface ---

// Instruction is the interface for MIPS instructions
type Instruction interface {
	implInstruction()
}

// --- Arithmetic and Logic ---

// ADDU - Add without overflow trap
type ADDU struct {
	Rd, Rs, Rt Reg
}

// ADDIU - Add immediate without overflow trap
type ADDIU struct {
	Rt, Rs Reg
	Imm    int32 // signed 16-bit
}

// SUBU - Subtract without overflow trap
type SUBU struct {
	Rd, Rs, Rt Reg
}

// MUL - Multiply, low 32 bits
type MUL struct {
	Rd, Rs, Rt Reg
}

// DIV - Signed divide into LO (quotient) and HI (remainder)
type DIV struct {
	Rs, Rt Reg
}

// MFLO - Move from LO
type MFLO struct {
	Rd Reg
}

// MFHI - Move from HI
type MFHI struct {
	Rd Reg
}

// AND - Bitwise AND
type AND struct {
	Rd, Rs, Rt Reg
}

// OR - Bitwise OR
type OR struct {
	Rd, Rs, Rt Reg
}

// XOR - Bitwise exclusive OR
type XOR struct {
	Rd, Rs, Rt Reg
}

// XORI - Exclusive OR with a zero-extended immediate
type XORI struct {
	Rt, Rs Reg
	Imm    int32 // unsigned 16-bit
}

// SLL - Shift left logical
type SLL struct {
	Rd, Rt Reg
	Shamt  int32
}

// SRA - Shift right arithmetic
type SRA struct {
	Rd, Rt Reg
	Shamt  int32
}

// --- Comparison ---

// SLT - Set on less than (signed)
type SLT struct {
	Rd, Rs, Rt Reg
}

// SLTU - Set on less than (unsigned)
type SLTU struct {
	Rd, Rs, Rt Reg
}

// SLTI - Set on less than immediate (signed)
type SLTI struct {
	Rt, Rs Reg
	Imm    int32
}

// SLTIU - Set on less than immediate (unsigned comparison, sign-extended immediate)
type SLTIU struct {
	Rt, Rs Reg
	Imm    int32
}

// --- Load/Store ---

// LW - Load word
type LW struct {
	Rt   Reg
	Base Reg
	Ofs  int32
}

// LB - Load byte, sign-extended
type LB struct {
	Rt   Reg
	Base Reg
	Ofs  int32
}

// SW - Store word
type SW struct {
	Rt   Reg
	Base Reg
	Ofs  int32
}

// SB - Store byte
type SB struct {
	Rt   Reg
	Base Reg
	Ofs  int32
}

// --- Branch ---

// BEQ - Branch if equal
type BEQ struct {
	Rs, Rt Reg
	Target Label
}

// BNE - Branch if not equal
type BNE struct {
	Rs, Rt Reg
	Target Label
}

// J - Jump
type J struct {
	Target Label
}

// JAL - Jump and link
type JAL struct {
	Target Label
}

// JR - Jump register
type JR struct {
	Rs Reg
}

// SYSCALL - System call selected by $v0
type SYSCALL struct{}

// --- Pseudo-instructions ---

// LI - Load a 32-bit immediate
type LI struct {
	Rd  Reg
	Imm int32
}

// LA - Load the address of a data label plus an offset
type LA struct {
	Rd     Reg
	Label  Label
	Offset int32
}

// MOVE - Register copy
type MOVE struct {
	Rd, Rs Reg
}

// --- Labels ---

// LabelDef defines a label
type LabelDef struct {
	Name Label
}

// --- Marker methods for Instruction interface ---

func (ADDU) implInstruction()     {}
func (ADDIU) implInstruction()    {}
func (SUBU) implInstruction()     {}
func (MUL) implInstruction()      {}
func (DIV) implInstruction()      {}
func (MFLO) implInstruction()     {}
func (MFHI) implInstruction()     {}
func (AND) implInstruction()      {}
func (OR) implInstruction()       {}
func (XOR) implInstruction()      {}
func (XORI) implInstruction()     {}
func (SLL) implInstruction()      {}
func (SRA) implInstruction()      {}
func (SLT) implInstruction()      {}
func (SLTU) implInstruction()     {}
func (SLTI) implInstruction()     {}
func (SLTIU) implInstruction()    {}
func (LW) implInstruction()       {}
func (LB) implInstruction()       {}
func (SW) implInstruction()       {}
func (SB) implInstruction()       {}
func (BEQ) implInstruction()      {}
func (BNE) implInstruction()      {}
func (J) implInstruction()        {}
func (JAL) implInstruction()      {}
func (JR) implInstruction()       {}
func (SYSCALL) implInstruction()  {}
func (LI) implInstruction()       {}
func (LA) implInstruction()       {}
func (MOVE) implInstruction()     {}
func (LabelDef) implInstruction() {}

// --- Function and Program ---

// Function represents an assembly function
type Function struct {
	Name string
	Code []Instruction
}

// GlobVar represents a data-section item: zeroed space or a string
type GlobVar struct {
	Name     string
	Size     int32 // .space bytes, when not a string
	Align    int32
	Str      string
	IsString bool // .asciiz
}

// Program represents a complete assembly program
type Program struct {
	Globals   []GlobVar
	Functions []Function
}

// NewFunction creates a new assembly function
func NewFunction(name string) *Function {
	return &Function{
		Name: name,
		Code: make([]Instruction, 0),
	}
}

// Append adds instructions to the function
func (f *Function) Append(insts ...Instruction) {
	f.Code = append(f.Code, insts...)
}

// AppendLabel adds a label definition
func (f *Function) AppendLabel(name Label) {
	f.Code = append(f.Code, LabelDef{Name: name})
}

// FitsImm16 reports whether n is a valid signed 16-bit immediate
func FitsImm16(n int32) bool {
	return n >= -32768 && n <= 32767
}
