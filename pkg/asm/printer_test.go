package asm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/raymyers/minicc/pkg/rtl"
)

func TestPrintArithmeticInstructions(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{"ADDU", ADDU{Rd: rtl.T0, Rs: rtl.T1, Rt: rtl.T2}, "\taddu\t$t0, $t1, $t2\n"},
		{"ADDIU", ADDIU{Rt: SP, Rs: SP, Imm: -8}, "\taddiu\t$sp, $sp, -8\n"},
		{"SUBU", SUBU{Rd: rtl.S0, Rs: rtl.S1, Rt: rtl.S2}, "\tsubu\t$s0, $s1, $s2\n"},
		{"MUL", MUL{Rd: rtl.T0, Rs: rtl.T1, Rt: rtl.T2}, "\tmul\t$t0, $t1, $t2\n"},
		{"DIV", DIV{Rs: rtl.T1, Rt: rtl.T2}, "\tdiv\t$t1, $t2\n"},
		{"MFLO", MFLO{Rd: rtl.T0}, "\tmflo\t$t0\n"},
		{"MFHI", MFHI{Rd: rtl.T0}, "\tmfhi\t$t0\n"},
		{"AND", AND{Rd: rtl.T0, Rs: rtl.T1, Rt: rtl.T2}, "\tand\t$t0, $t1, $t2\n"},
		{"OR", OR{Rd: rtl.T0, Rs: rtl.T1, Rt: rtl.T2}, "\tor\t$t0, $t1, $t2\n"},
		{"XOR", XOR{Rd: rtl.T0, Rs: rtl.T1, Rt: rtl.T2}, "\txor\t$t0, $t1, $t2\n"},
		{"XORI", XORI{Rt: rtl.T0, Rs: rtl.T1, Imm: 1}, "\txori\t$t0, $t1, 1\n"},
		{"SLL", SLL{Rd: rtl.T0, Rt: rtl.T1, Shamt: 24}, "\tsll\t$t0, $t1, 24\n"},
		{"SRA", SRA{Rd: rtl.T0, Rt: rtl.T0, Shamt: 24}, "\tsra\t$t0, $t0, 24\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := NewPrinter(&buf)
			p.printInstruction(tt.inst)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintCompareInstructions(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{"SLT", SLT{Rd: rtl.T0, Rs: rtl.T1, Rt: rtl.T2}, "\tslt\t$t0, $t1, $t2\n"},
		{"SLTU", SLTU{Rd: rtl.T0, Rs: Zero, Rt: rtl.T2}, "\tsltu\t$t0, $zero, $t2\n"},
		{"SLTI", SLTI{Rt: rtl.T0, Rs: rtl.T1, Imm: -3}, "\tslti\t$t0, $t1, -3\n"},
		{"SLTIU", SLTIU{Rt: rtl.T0, Rs: rtl.T1, Imm: 1}, "\tsltiu\t$t0, $t1, 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := NewPrinter(&buf)
			p.printInstruction(tt.inst)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintMemoryInstructions(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{"LW", LW{Rt: rtl.T0, Base: FP, Ofs: -12}, "\tlw\t$t0, -12($fp)\n"},
		{"LB", LB{Rt: rtl.T0, Base: rtl.T1, Ofs: 0}, "\tlb\t$t0, 0($t1)\n"},
		{"SW", SW{Rt: RA, Base: FP, Ofs: -4}, "\tsw\t$ra, -4($fp)\n"},
		{"SB", SB{Rt: rtl.T2, Base: rtl.T3, Ofs: 3}, "\tsb\t$t2, 3($t3)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := NewPrinter(&buf)
			p.printInstruction(tt.inst)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintControlAndPseudoInstructions(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want string
	}{
		{"label", LabelDef{Name: "main.L3"}, "main.L3:\n"},
		{"BEQ", BEQ{Rs: rtl.T0, Rt: Zero, Target: "f.L1"}, "\tbeq\t$t0, $zero, f.L1\n"},
		{"BNE", BNE{Rs: rtl.T0, Rt: rtl.T1, Target: "f.L2"}, "\tbne\t$t0, $t1, f.L2\n"},
		{"J", J{Target: "f.ret"}, "\tj\tf.ret\n"},
		{"JAL", JAL{Target: "print_i"}, "\tjal\tprint_i\n"},
		{"JR", JR{Rs: RA}, "\tjr\t$ra\n"},
		{"SYSCALL", SYSCALL{}, "\tsyscall\n"},
		{"LI", LI{Rd: V0, Imm: 100000}, "\tli\t$v0, 100000\n"},
		{"LA", LA{Rd: rtl.T0, Label: "gv_g"}, "\tla\t$t0, gv_g\n"},
		{"LA offset", LA{Rd: rtl.T0, Label: "gv_a", Offset: 8}, "\tla\t$t0, gv_a+8\n"},
		{"MOVE", MOVE{Rd: A0, Rs: rtl.S0}, "\tmove\t$a0, $s0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := NewPrinter(&buf)
			p.printInstruction(tt.inst)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstrString(t *testing.T) {
	if got := InstrString(LW{Rt: rtl.T0, Base: FP, Ofs: 4}); got != "lw $t0, 4($fp)" {
		t.Errorf("InstrString = %q", got)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hi", `"hi"`},
		{"a\nb", `"a\nb"`},
		{"tab\there", `"tab\there"`},
		{`say "x"`, `"say \"x\""`},
		{`back\slash`, `"back\\slash"`},
		{"nul\x00", `"nul\0"`},
		{"cr\r", `"cr\r"`},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPrintProgram(t *testing.T) {
	prog := &Program{
		Globals: []GlobVar{
			{Name: "gv_n", Size: 4, Align: 4},
			{Name: "gv_buf", Size: 10, Align: 1},
			{Name: "str_0", Str: "ok\n", IsString: true},
		},
	}
	prog.Functions = append(prog.Functions, Start())
	main := NewFunction("main")
	main.Append(LI{Rd: V0, Imm: 0}, JR{Rs: RA})
	prog.Functions = append(prog.Functions, *main)

	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(prog)

	want := "\t.data\n" +
		"\t.align\t2\n" +
		"gv_n:\n\t.space\t4\n" +
		"gv_buf:\n\t.space\t10\n" +
		"str_0:\n\t.asciiz\t\"ok\\n\"\n" +
		"\n" +
		"\t.text\n" +
		"\t.globl\t_start\n" +
		"_start:\n" +
		"\tjal\tmain\n" +
		"\tli\t$v0, 10\n" +
		"\tsyscall\n" +
		"\n" +
		"main:\n" +
		"\tli\t$v0, 0\n" +
		"\tjr\t$ra\n" +
		"\n"
	if got := buf.String(); got != want {
		t.Errorf("PrintProgram mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintProgramWithoutData(t *testing.T) {
	prog := &Program{Functions: []Function{Start()}}
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(prog)
	if strings.Contains(buf.String(), ".data") {
		t.Errorf("unexpected .data section:\n%s", buf.String())
	}
}
