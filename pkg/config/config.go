// Package config loads and validates compiler options. Options come from
// an optional YAML file and are then overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/raymyers/minicc/pkg/logger"
	"github.com/raymyers/minicc/pkg/regalloc"
	"github.com/raymyers/minicc/pkg/rtl"
)

// registerNames lists the allocatable registers in allocation order
const registerNames = "t0 t1 t2 t3 t4 t5 t6 t7 t8 t9 s0 s1 s2 s3 s4 s5 s6 s7"

// Options is the user-facing configuration of a compilation
type Options struct {
	Strategy  string   `yaml:"strategy" validate:"oneof=naive graph"`
	Registers []string `yaml:"registers" validate:"omitempty,min=3,max=18,unique,dive,oneof=t0 t1 t2 t3 t4 t5 t6 t7 t8 t9 s0 s1 s2 s3 s4 s5 s6 s7"`
	Spill     string   `yaml:"spill" validate:"oneof=degree cost"`
	Jobs      int      `yaml:"jobs" validate:"min=1"`
	LogLevel  string   `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string   `yaml:"log_format" validate:"oneof=text json"`
}

// Default returns the options used when neither a file nor flags say
// otherwise
func Default() Options {
	return Options{
		Strategy:  "graph",
		Spill:     "degree",
		Jobs:      runtime.GOMAXPROCS(0),
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

var validate = validator.New()

// Load reads a YAML options file on top of the defaults and validates the
// result
func Load(path string) (Options, error) {
	opts := Default()
	f, err := os.Open(path)
	if err != nil {
		return opts, fmt.Errorf("reading config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return opts, fmt.Errorf("parsing config %s: %w", path, err)
	}
	opts.Normalize()
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("config %s: %w", path, err)
	}
	return opts, nil
}

// Normalize strips the '$' prefix from register names
func (o *Options) Normalize() {
	for i, r := range o.Registers {
		o.Registers[i] = strings.TrimPrefix(strings.TrimSpace(r), "$")
	}
}

// Validate checks every field and reports all problems at once
func (o Options) Validate() error {
	err := validate.Struct(o)
	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			messages = append(messages, fieldName(ve)+": "+formatValidationError(ve))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// fieldName returns the yaml key of the failing field, with its index for
// slice elements
func fieldName(ve validator.FieldError) string {
	name := ve.Field()
	idx := ""
	if i := strings.IndexByte(name, '['); i >= 0 {
		name, idx = name[:i], name[i:]
	}
	switch name {
	case "LogLevel":
		name = "log_level"
	case "LogFormat":
		name = "log_format"
	default:
		name = strings.ToLower(name)
	}
	return name + idx
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		if ve.Kind() == reflect.Slice {
			return fmt.Sprintf("must list at least %s entries", ve.Param())
		}
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		if ve.Kind() == reflect.Slice {
			return fmt.Sprintf("must list at most %s entries", ve.Param())
		}
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "unique":
		return "must not repeat entries"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

// Allocator converts the options into register allocator settings. The
// options must already be valid.
func (o Options) Allocator() (regalloc.Options, error) {
	ra := regalloc.DefaultOptions()
	var err error
	if ra.Strategy, err = regalloc.ParseStrategy(o.Strategy); err != nil {
		return ra, err
	}
	if ra.Spill, err = regalloc.ParseSpillHeuristic(o.Spill); err != nil {
		return ra, err
	}
	ra.Jobs = o.Jobs
	if len(o.Registers) > 0 {
		ra.Registers = make([]rtl.Reg, len(o.Registers))
		for i, name := range o.Registers {
			r, ok := rtl.ParseReg(name)
			if !ok {
				return ra, fmt.Errorf("unknown register %q", name)
			}
			ra.Registers[i] = r
		}
	}
	return ra, nil
}

// Logger converts the options into logger settings
func (o Options) Logger() (logger.Config, error) {
	cfg := logger.DefaultConfig()
	level, err := logger.ParseLevel(o.LogLevel)
	if err != nil {
		return cfg, err
	}
	cfg.Level = level
	cfg.Format = o.LogFormat
	return cfg, nil
}

// FirstRegisters returns the names of the first n allocatable registers
func FirstRegisters(n int) []string {
	names := strings.Fields(registerNames)
	if n < 0 {
		n = 0
	}
	if n > len(names) {
		n = len(names)
	}
	return names[:n]
}
