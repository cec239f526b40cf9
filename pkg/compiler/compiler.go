// Package compiler runs the MiniC pipeline: parsing, layout and semantic
// analysis, RTL generation, register allocation, frame finalisation, branch
// cleanup and MIPS code emission.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/raymyers/minicc/pkg/asm"
	"github.com/raymyers/minicc/pkg/asmgen"
	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/branch"
	"github.com/raymyers/minicc/pkg/layout"
	"github.com/raymyers/minicc/pkg/logger"
	"github.com/raymyers/minicc/pkg/mipsim"
	"github.com/raymyers/minicc/pkg/parser"
	"github.com/raymyers/minicc/pkg/regalloc"
	"github.com/raymyers/minicc/pkg/rtl"
	"github.com/raymyers/minicc/pkg/rtlgen"
	"github.com/raymyers/minicc/pkg/sem"
	"github.com/raymyers/minicc/pkg/stacking"
)

// Options control a compilation
type Options struct {
	Alloc regalloc.Options

	// Snapshots of intermediate forms, kept in Result when set
	KeepRTL       bool // RTL before register allocation
	KeepAllocated bool // RTL after allocation, before prologues are added
}

// DefaultOptions returns graph coloring allocation without snapshots
func DefaultOptions() Options {
	return Options{Alloc: regalloc.DefaultOptions()}
}

// Result holds every product of a successful compilation
type Result struct {
	AST    *ast.Program
	Table  *layout.Table
	RTL    *rtl.Program // allocated and stacked
	Alloc  []*regalloc.Result
	Frames []*stacking.FrameLayout
	Asm    *asm.Program

	RTLText       string
	AllocatedText string
}

// Parse parses src. Syntax errors are returned as a diag.List.
func Parse(src string) (*ast.Program, error) {
	defer logger.LogPhase("parse", time.Now())
	prog, errs := parser.Parse(src)
	if len(errs) > 0 {
		errs.Sort()
		return nil, errs
	}
	return prog, nil
}

// Compile translates MiniC source to MIPS assembly. Syntax and semantic
// errors are returned together as a diag.List; anything else is an
// internal error or a cancellation.
func Compile(ctx context.Context, src string, opts Options) (*Result, error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return CompileAST(ctx, prog, opts)
}

// CompileAST runs every phase after parsing
func CompileAST(ctx context.Context, prog *ast.Program, opts Options) (*Result, error) {
	res := &Result{AST: prog}

	start := time.Now()
	table, errs := sem.Check(prog)
	logger.LogPhase("semantic analysis", start)
	if len(errs) > 0 {
		errs.Sort()
		return nil, errs
	}
	res.Table = table
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	rtlProg, err := rtlgen.Program(prog, table)
	if err != nil {
		return nil, err
	}
	logger.LogPhase("rtlgen", start)
	if opts.KeepRTL {
		res.RTLText = printRTL(rtlProg)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	res.Alloc, err = regalloc.Run(ctx, rtlProg, opts.Alloc)
	if err != nil {
		return nil, fmt.Errorf("register allocation: %w", err)
	}
	logger.LogPhase("regalloc", start)
	if opts.KeepAllocated {
		res.AllocatedText = printRTL(rtlProg)
	}

	start = time.Now()
	res.Frames = stacking.Program(rtlProg)
	branch.Program(rtlProg, stacking.EpilogueLabel)
	logger.LogPhase("stacking", start)
	res.RTL = rtlProg

	start = time.Now()
	res.Asm, err = asmgen.Program(rtlProg)
	if err != nil {
		return nil, err
	}
	logger.LogPhase("asmgen", start)

	return res, nil
}

func printRTL(prog *rtl.Program) string {
	var buf bytes.Buffer
	rtl.NewPrinter(&buf).PrintProgram(prog)
	return buf.String()
}

// WriteAsm prints the assembly of a compiled program
func (r *Result) WriteAsm(w io.Writer) {
	asm.NewPrinter(w).PrintProgram(r.Asm)
}

// WriteGraphs writes the interference graph of every function in Graphviz
// format, one graph after another
func (r *Result) WriteGraphs(w io.Writer) error {
	for i, fn := range r.RTL.Functions {
		alloc := r.Alloc[i]
		if err := regalloc.WriteDot(w, fn, alloc.Graph, alloc); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the compiled program in the simulator
func (r *Result) Execute(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	defer logger.LogPhase("execute", time.Now())
	m, err := mipsim.New(r.Asm, stdin, stdout)
	if err != nil {
		return err
	}
	return m.Run(ctx)
}
