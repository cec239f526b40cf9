package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raymyers/minicc/pkg/ast"
	"github.com/raymyers/minicc/pkg/compiler"
	"github.com/raymyers/minicc/pkg/config"
	"github.com/raymyers/minicc/pkg/diag"
	"github.com/raymyers/minicc/pkg/logger"
)

var version = "0.1.0"

// Exit codes
const (
	exitOK       = 0
	exitUser     = 1 // syntax, semantic, usage or I/O errors
	exitInternal = 2 // compiler bugs
)

// flagValues holds the command line flags of one command tree
type flagValues struct {
	output     string
	configPath string
	strategy   string
	spill      string
	registers  int
	jobs       int
	logLevel   string
	logFormat  string

	dParse bool
	dRTL   bool
	dAlloc bool
	dIG    bool
}

// reportedError marks an error whose message was already written to errOut
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	rootCmd := newRootCmd(in, out, errOut)
	// Accept CompCert-style single-dash dump flags
	rootCmd.SetArgs(normalizeFlags(args))
	err := rootCmd.Execute()
	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(errOut, "minicc: %v\n", err)
		}
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, diag.ErrInternal):
		return exitInternal
	default:
		return exitUser
	}
}

// debugFlagNames lists the dump flags that also accept a single dash
var debugFlagNames = []string{"dparse", "drtl", "dalloc", "dig"}

// normalizeFlags converts single-dash flags like -drtl to --drtl
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	fv := &flagValues{}
	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:   "minicc [flags] input.c",
		Short: "minicc compiles MiniC to MIPS assembly",
		Long: `minicc compiles MiniC, a C subset with value-semantics structs and
single-inheritance classes, to MIPS32 assembly for the MARS and SPIM
simulators. Register allocation uses graph coloring with spilling, or a
naive stack-slot strategy for comparison.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			filename := args[0]

			res, err := compileFile(cmd, fv, filename, errOut)
			if err != nil {
				return err
			}

			outputFilename := fv.output
			if outputFilename == "" {
				outputFilename = outputName(filename, ".asm")
			}
			var buf bytes.Buffer
			res.WriteAsm(&buf)
			if err := os.WriteFile(outputFilename, buf.Bytes(), 0o644); err != nil {
				fmt.Fprintf(errOut, "minicc: error creating %s: %v\n", outputFilename, err)
				return reportedError{err}
			}
			logger.Info("wrote assembly", "file", outputFilename)
			return nil
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	pf := rootCmd.PersistentFlags()
	fv.strategy = defaults.Strategy
	fv.spill = defaults.Spill
	pf.Var(config.NewStrategyFlag(&fv.strategy), "regalloc", "register allocation strategy")
	pf.Var(config.NewSpillFlag(&fv.spill), "spill", "spill heuristic for graph coloring")
	pf.IntVar(&fv.registers, "registers", 0, "number of allocatable registers (3-18)")
	pf.IntVar(&fv.jobs, "jobs", defaults.Jobs, "functions allocated concurrently")
	pf.StringVar(&fv.configPath, "config", "", "YAML options file")
	pf.StringVar(&fv.logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&fv.logFormat, "log-format", defaults.LogFormat, "log format (text, json)")
	pf.BoolVar(&fv.dParse, "dparse", false, "Dump the AST to <input>.parse")
	pf.BoolVar(&fv.dRTL, "drtl", false, "Dump RTL before allocation to <input>.rtl")
	pf.BoolVar(&fv.dAlloc, "dalloc", false, "Dump allocated RTL to <input>.alloc.rtl")
	pf.BoolVar(&fv.dIG, "dig", false, "Dump interference graphs to <input>.dot")

	rootCmd.Flags().StringVarP(&fv.output, "output", "o", "", "output file (default <input>.asm)")

	rootCmd.AddCommand(newRunCmd(fv, errOut))
	return rootCmd
}

func newRunCmd(fv *flagValues, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "run [flags] input.c",
		Short: "Compile and execute a program in the built-in MIPS simulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := compileFile(cmd, fv, args[0], errOut)
			if err != nil {
				return err
			}
			if err := res.Execute(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				fmt.Fprintf(errOut, "minicc: runtime error: %v\n", err)
				return reportedError{err}
			}
			return nil
		},
	}
}

// buildOptions layers the config file, if any, and the flags the user set
// on top of the defaults
func buildOptions(cmd *cobra.Command, fv *flagValues) (config.Options, error) {
	opts := config.Default()
	if fv.configPath != "" {
		var err error
		if opts, err = config.Load(fv.configPath); err != nil {
			return opts, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("regalloc") {
		opts.Strategy = fv.strategy
	}
	if flags.Changed("spill") {
		opts.Spill = fv.spill
	}
	if flags.Changed("registers") {
		if fv.registers < 3 || fv.registers > 18 {
			return opts, fmt.Errorf("--registers must be between 3 and 18, got %d", fv.registers)
		}
		opts.Registers = config.FirstRegisters(fv.registers)
	}
	if flags.Changed("jobs") {
		opts.Jobs = fv.jobs
	}
	if flags.Changed("log-level") {
		opts.LogLevel = fv.logLevel
	}
	if flags.Changed("log-format") {
		opts.LogFormat = fv.logFormat
	}
	return opts, opts.Validate()
}

// compileFile reads, compiles and dumps filename as the flags request.
// Diagnostics are printed as file:line:col: Kind: message.
func compileFile(cmd *cobra.Command, fv *flagValues, filename string, errOut io.Writer) (*compiler.Result, error) {
	opts, err := buildOptions(cmd, fv)
	if err != nil {
		fmt.Fprintf(errOut, "minicc: %v\n", err)
		return nil, reportedError{err}
	}
	logCfg, err := opts.Logger()
	if err != nil {
		fmt.Fprintf(errOut, "minicc: %v\n", err)
		return nil, reportedError{err}
	}
	logCfg.Output = errOut
	logger.Init(logCfg)

	allocOpts, err := opts.Allocator()
	if err != nil {
		fmt.Fprintf(errOut, "minicc: %v\n", err)
		return nil, reportedError{err}
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "minicc: error reading %s: %v\n", filename, err)
		return nil, reportedError{err}
	}

	prog, err := compiler.Parse(string(content))
	if err != nil {
		return nil, reportDiagnostics(filename, err, errOut)
	}
	if fv.dParse {
		var buf bytes.Buffer
		ast.NewPrinter(&buf).PrintProgram(prog)
		if err := writeDump(filename, ".parse", buf.Bytes(), errOut); err != nil {
			return nil, err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := compiler.CompileAST(ctx, prog, compiler.Options{
		Alloc:         allocOpts,
		KeepRTL:       fv.dRTL,
		KeepAllocated: fv.dAlloc,
	})
	if err != nil {
		return nil, reportDiagnostics(filename, err, errOut)
	}

	if fv.dRTL {
		if err := writeDump(filename, ".rtl", []byte(res.RTLText), errOut); err != nil {
			return nil, err
		}
	}
	if fv.dAlloc {
		if err := writeDump(filename, ".alloc.rtl", []byte(res.AllocatedText), errOut); err != nil {
			return nil, err
		}
	}
	if fv.dIG {
		var buf bytes.Buffer
		if err := res.WriteGraphs(&buf); err != nil {
			return nil, err
		}
		if err := writeDump(filename, ".dot", buf.Bytes(), errOut); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// reportDiagnostics prints compile errors and marks them reported
func reportDiagnostics(filename string, err error, errOut io.Writer) error {
	var list diag.List
	if errors.As(err, &list) {
		for _, e := range list {
			fmt.Fprintf(errOut, "%s:%s\n", filename, e)
		}
		fmt.Fprintf(errOut, "minicc: %d error(s), no assembly written\n", len(list))
		return reportedError{err}
	}
	fmt.Fprintf(errOut, "minicc: %v\n", err)
	return reportedError{err}
}

// writeDump writes an intermediate form next to the input file
func writeDump(filename, ext string, data []byte, errOut io.Writer) error {
	dumpFilename := outputName(filename, ext)
	if err := os.WriteFile(dumpFilename, data, 0o644); err != nil {
		fmt.Fprintf(errOut, "minicc: error creating %s: %v\n", dumpFilename, err)
		return reportedError{err}
	}
	return nil
}

// outputName replaces a trailing .c with ext: input.c -> input.asm
func outputName(filename, ext string) string {
	return strings.TrimSuffix(filename, ".c") + ext
}
