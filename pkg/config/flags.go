package config

import (
	"github.com/spf13/pflag"

	"github.com/raymyers/minicc/pkg/regalloc"
)

var (
	_ pflag.Value = (*StrategyFlag)(nil)
	_ pflag.Value = (*SpillFlag)(nil)
)

// StrategyFlag is a pflag.Value accepting "naive" or "graph"
type StrategyFlag struct {
	target *string
}

// NewStrategyFlag binds the flag to an Options field
func NewStrategyFlag(p *string) *StrategyFlag {
	return &StrategyFlag{target: p}
}

func (f *StrategyFlag) String() string {
	if f.target == nil {
		return ""
	}
	return *f.target
}

func (f *StrategyFlag) Set(s string) error {
	st, err := regalloc.ParseStrategy(s)
	if err != nil {
		return err
	}
	*f.target = st.String()
	return nil
}

func (f *StrategyFlag) Type() string { return "naive|graph" }

// SpillFlag is a pflag.Value accepting "degree" or "cost"
type SpillFlag struct {
	target *string
}

// NewSpillFlag binds the flag to an Options field
func NewSpillFlag(p *string) *SpillFlag {
	return &SpillFlag{target: p}
}

func (f *SpillFlag) String() string {
	if f.target == nil {
		return ""
	}
	return *f.target
}

func (f *SpillFlag) Set(s string) error {
	h, err := regalloc.ParseSpillHeuristic(s)
	if err != nil {
		return err
	}
	*f.target = h.String()
	return nil
}

func (f *SpillFlag) Type() string { return "degree|cost" }
