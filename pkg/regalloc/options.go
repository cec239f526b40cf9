package regalloc

import (
	"fmt"
	"runtime"

	"github.com/raymyers/minicc/pkg/rtl"
)

// Strategy selects the allocation algorithm
type Strategy int

const (
	StrategyGraph Strategy = iota // graph coloring with spilling
	StrategyNaive                 // every temporary in a frame slot
)

func (s Strategy) String() string {
	if s == StrategyNaive {
		return "naive"
	}
	return "graph"
}

// ParseStrategy maps "graph" or "naive" to a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "graph":
		return StrategyGraph, nil
	case "naive":
		return StrategyNaive, nil
	}
	return StrategyGraph, fmt.Errorf("unknown allocation strategy %q", s)
}

// SpillHeuristic chooses the temporary to give up when simplify is stuck
type SpillHeuristic int

const (
	SpillDegree SpillHeuristic = iota // highest current degree
	SpillCost                         // lowest (uses+defs)/degree
)

func (h SpillHeuristic) String() string {
	if h == SpillCost {
		return "cost"
	}
	return "degree"
}

// ParseSpillHeuristic maps "degree" or "cost" to a SpillHeuristic
func ParseSpillHeuristic(s string) (SpillHeuristic, error) {
	switch s {
	case "degree":
		return SpillDegree, nil
	case "cost":
		return SpillCost, nil
	}
	return SpillDegree, fmt.Errorf("unknown spill heuristic %q", s)
}

// DefaultRegisters are the allocatable registers, in preference order
var DefaultRegisters = []rtl.Reg{
	rtl.T0, rtl.T1, rtl.T2, rtl.T3, rtl.T4, rtl.T5, rtl.T6, rtl.T7, rtl.T8, rtl.T9,
	rtl.S0, rtl.S1, rtl.S2, rtl.S3, rtl.S4, rtl.S5, rtl.S6, rtl.S7,
}

// NaiveScratch are the registers the naive strategy loads operands into.
// The result of an instruction is always computed in the first one.
var NaiveScratch = [3]rtl.Reg{rtl.T0, rtl.T1, rtl.T2}

// MaxRounds bounds the number of color/spill rounds per function
const MaxRounds = 64

// Options configure the allocator
type Options struct {
	Strategy  Strategy
	Registers []rtl.Reg
	Spill     SpillHeuristic
	Jobs      int // functions allocated concurrently
}

// DefaultOptions returns graph coloring over all 18 registers
func DefaultOptions() Options {
	return Options{
		Strategy:  StrategyGraph,
		Registers: DefaultRegisters,
		Spill:     SpillDegree,
		Jobs:      runtime.GOMAXPROCS(0),
	}
}

func (o Options) registers() []rtl.Reg {
	if len(o.Registers) == 0 {
		return DefaultRegisters
	}
	return o.Registers
}

