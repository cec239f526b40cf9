package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/raymyers/minicc/pkg/logger"
	"github.com/raymyers/minicc/pkg/regalloc"
	"github.com/raymyers/minicc/pkg/rtl"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "minicc.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `strategy: naive
registers: [$t0, t1, s0]
spill: cost
jobs: 2
log_level: debug
log_format: json
`)
	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Options{
		Strategy:  "naive",
		Registers: []string{"t0", "t1", "s0"},
		Spill:     "cost",
		Jobs:      2,
		LogLevel:  "debug",
		LogFormat: "json",
	}
	if opts.Strategy != want.Strategy || opts.Spill != want.Spill || opts.Jobs != want.Jobs ||
		opts.LogLevel != want.LogLevel || opts.LogFormat != want.LogFormat {
		t.Errorf("opts = %+v, want %+v", opts, want)
	}
	if strings.Join(opts.Registers, ",") != "t0,t1,s0" {
		t.Errorf("registers = %v", opts.Registers)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	opts, err := Load(writeConfig(t, "spill: cost\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Strategy != "graph" || opts.LogLevel != "warn" || opts.Spill != "cost" {
		t.Errorf("opts = %+v", opts)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	opts, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Strategy != "graph" {
		t.Errorf("opts = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "unknown key",
			content: "strategy: graph\ncolors: 4\n",
			want:    []string{"field colors not found"},
		},
		{
			name:    "bad strategy",
			content: "strategy: linear\n",
			want:    []string{"strategy: must be one of: naive graph"},
		},
		{
			name:    "too few registers",
			content: "registers: [t0, t1]\n",
			want:    []string{"registers: must list at least 3 entries"},
		},
		{
			name:    "reserved register",
			content: "registers: [t0, t1, sp]\n",
			want:    []string{"registers[2]: must be one of:"},
		},
		{
			name:    "repeated register",
			content: "registers: [t0, t1, t1]\n",
			want:    []string{"registers: must not repeat entries"},
		},
		{
			name:    "several problems",
			content: "jobs: 0\nlog_format: xml\n",
			want:    []string{"jobs: must be at least 1", "log_format: must be one of: text json"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			for _, w := range tc.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %q", err, w)
				}
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestAllocator(t *testing.T) {
	opts := Default()
	opts.Strategy = "naive"
	opts.Spill = "cost"
	opts.Jobs = 3
	opts.Registers = []string{"s0", "t9", "t0"}

	ra, err := opts.Allocator()
	if err != nil {
		t.Fatal(err)
	}
	if ra.Strategy != regalloc.StrategyNaive || ra.Spill != regalloc.SpillCost || ra.Jobs != 3 {
		t.Errorf("ra = %+v", ra)
	}
	want := []rtl.Reg{rtl.S0, rtl.T9, rtl.T0}
	if len(ra.Registers) != len(want) {
		t.Fatalf("registers = %v", ra.Registers)
	}
	for i := range want {
		if ra.Registers[i] != want[i] {
			t.Errorf("registers[%d] = %s, want %s", i, ra.Registers[i], want[i])
		}
	}
}

func TestAllocatorDefaultRegisters(t *testing.T) {
	ra, err := Default().Allocator()
	if err != nil {
		t.Fatal(err)
	}
	if len(ra.Registers) != len(regalloc.DefaultRegisters) {
		t.Errorf("got %d registers", len(ra.Registers))
	}
}

func TestLogger(t *testing.T) {
	opts := Default()
	opts.LogLevel = "error"
	opts.LogFormat = "json"
	cfg, err := opts.Logger()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Level != logger.LevelError || cfg.Format != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestFirstRegisters(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{3, "t0 t1 t2"},
		{12, "t0 t1 t2 t3 t4 t5 t6 t7 t8 t9 s0 s1"},
		{40, registerNames},
	}
	for _, tt := range tests {
		if got := strings.Join(FirstRegisters(tt.n), " "); got != tt.want {
			t.Errorf("FirstRegisters(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFlags(t *testing.T) {
	opts := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(NewStrategyFlag(&opts.Strategy), "regalloc", "")
	fs.Var(NewSpillFlag(&opts.Spill), "spill", "")

	if err := fs.Parse([]string{"--regalloc", "naive", "--spill=cost"}); err != nil {
		t.Fatal(err)
	}
	if opts.Strategy != "naive" || opts.Spill != "cost" {
		t.Errorf("opts = %+v", opts)
	}

	fs = pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(&strings.Builder{})
	fs.Var(NewStrategyFlag(&opts.Strategy), "regalloc", "")
	if err := fs.Parse([]string{"--regalloc", "linear"}); err == nil {
		t.Error("expected an error for an unknown strategy")
	}
	if opts.Strategy != "naive" {
		t.Errorf("strategy changed to %q", opts.Strategy)
	}
}
