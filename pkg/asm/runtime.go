package asm

// Syscall numbers understood by MARS and SPIM
const (
	SysPrintInt    = 1
	SysPrintString = 4
	SysReadInt     = 5
	SysExit        = 10
	SysPrintChar   = 11
	SysReadChar    = 12
)

// EntryLabel is where execution starts
const EntryLabel = "_start"

// Start returns the entry stub: call main, then exit
func Start() Function {
	f := NewFunction(EntryLabel)
	f.Append(
		JAL{Target: "main"},
		LI{Rd: V0, Imm: SysExit},
		SYSCALL{},
	)
	return *f
}

// syscallStub returns a leaf function that performs one system call. The
// argument, if any, is already in $a0 and a result comes back in $v0.
func syscallStub(name string, code int32) Function {
	f := NewFunction(name)
	f.Append(
		LI{Rd: V0, Imm: code},
		SYSCALL{},
		JR{Rs: RA},
	)
	return *f
}

// Runtime returns the runtime library stubs
func Runtime() []Function {
	return []Function{
		syscallStub("print_i", SysPrintInt),
		syscallStub("print_c", SysPrintChar),
		syscallStub("print_s", SysPrintString),
		syscallStub("read_i", SysReadInt),
		syscallStub("read_c", SysReadChar),
	}
}
