package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// E2EAsmTestSpec represents a single end-to-end ASM test case
type E2EAsmTestSpec struct {
	Name         string   `yaml:"name"`
	Input        string   `yaml:"input"`
	Args         []string `yaml:"args"`          // Extra command line flags
	Expect       []string `yaml:"expect"`        // Strings that must appear in output
	ExpectOrder  []string `yaml:"expect_order"`  // Strings that must appear in this order
	ExpectUnique []string `yaml:"expect_unique"` // Strings that must appear exactly once
	ExpectNot    []string `yaml:"expect_not"`    // Strings that must NOT appear in output
	Error        string   `yaml:"error"`         // Diagnostic kind expected instead of output
	Skip         string   `yaml:"skip,omitempty"`
}

// E2EAsmTestFile represents the e2e_asm.yaml file structure
type E2EAsmTestFile struct {
	Tests []E2EAsmTestSpec `yaml:"tests"`
}

func TestE2EAsmYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/e2e_asm.yaml")
	if err != nil {
		t.Fatalf("e2e_asm.yaml not found: %v", err)
	}

	var testFile E2EAsmTestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse e2e_asm.yaml: %v", err)
	}

	for _, tc := range testFile.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}

			tmpDir := t.TempDir()
			testCFile := filepath.Join(tmpDir, "test.c")
			if err := os.WriteFile(testCFile, []byte(tc.Input), 0o644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}
			asmFile := filepath.Join(tmpDir, "test.asm")

			var out, errOut bytes.Buffer
			args := append(append([]string{}, tc.Args...), testCFile)
			code := run(args, strings.NewReader(""), &out, &errOut)

			if tc.Error != "" {
				if code != exitUser {
					t.Fatalf("exit code = %d, want %d\nstderr: %s", code, exitUser, errOut.String())
				}
				if !strings.Contains(errOut.String(), testCFile+":") || !strings.Contains(errOut.String(), tc.Error) {
					t.Errorf("stderr does not report %s at %s:\n%s", tc.Error, testCFile, errOut.String())
				}
				if _, err := os.Stat(asmFile); !os.IsNotExist(err) {
					t.Error("assembly written despite errors")
				}
				return
			}

			if code != exitOK {
				t.Fatalf("exit code = %d\nstderr: %s", code, errOut.String())
			}
			asmBytes, err := os.ReadFile(asmFile)
			if err != nil {
				t.Fatalf("failed to read output: %v", err)
			}
			output := string(asmBytes)

			for _, exp := range tc.Expect {
				if !strings.Contains(output, exp) {
					t.Errorf("expected output to contain %q\nGot:\n%s", exp, output)
				}
			}

			lastIdx := -1
			for _, exp := range tc.ExpectOrder {
				idx := strings.Index(output[lastIdx+1:], exp)
				if idx == -1 {
					t.Errorf("expected %q after position %d\nGot:\n%s", exp, lastIdx, output)
					break
				}
				lastIdx += idx + 1
			}

			for _, exp := range tc.ExpectUnique {
				if n := strings.Count(output, exp); n != 1 {
					t.Errorf("expected %q exactly once, found %d times\nGot:\n%s", exp, n, output)
				}
			}

			for _, notExp := range tc.ExpectNot {
				if strings.Contains(output, notExp) {
					t.Errorf("expected output NOT to contain %q\nGot:\n%s", notExp, output)
				}
			}
		})
	}
}

func TestRunSubcommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		input    string
		stdin    string
		wantOut  string
		wantCode int
		wantErr  string
	}{
		{
			name: "echo sum",
			input: `int main() {
  int a;
  a = read_i();
  print_i(a + read_i());
  print_c('\n');
  return 0;
}`,
			stdin:    "2\n40\n",
			wantOut:  "42\n",
			wantCode: exitOK,
		},
		{
			name:     "naive allocation",
			args:     []string{"--regalloc", "naive"},
			input:    `int main() { print_s((char*) "ok\n"); return 0; }`,
			wantOut:  "ok\n",
			wantCode: exitOK,
		},
		{
			name: "division by zero",
			input: `int main() {
  int z;
  z = read_i();
  print_i(1 / z);
  return 0;
}`,
			wantCode: exitUser,
			wantErr:  "runtime error",
		},
		{
			name:     "semantic error",
			input:    `int main() { return missing; }`,
			wantCode: exitUser,
			wantErr:  "UndeclaredIdentifierError",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			testCFile := filepath.Join(t.TempDir(), "prog.c")
			if err := os.WriteFile(testCFile, []byte(tc.input), 0o644); err != nil {
				t.Fatal(err)
			}

			var out, errOut bytes.Buffer
			args := append([]string{"run"}, tc.args...)
			args = append(args, testCFile)
			code := run(args, strings.NewReader(tc.stdin), &out, &errOut)

			if code != tc.wantCode {
				t.Fatalf("exit code = %d, want %d\nstderr: %s", code, tc.wantCode, errOut.String())
			}
			if tc.wantOut != "" && out.String() != tc.wantOut {
				t.Errorf("stdout = %q, want %q", out.String(), tc.wantOut)
			}
			if tc.wantErr != "" && !strings.Contains(errOut.String(), tc.wantErr) {
				t.Errorf("stderr %q does not mention %q", errOut.String(), tc.wantErr)
			}
		})
	}
}

func TestDumpFlags(t *testing.T) {
	tmpDir := t.TempDir()
	testCFile := filepath.Join(tmpDir, "dump.c")
	src := `int twice(int n) { return n + n; }
int main() { print_i(twice(4)); return 0; }`
	if err := os.WriteFile(testCFile, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	code := run([]string{"-dparse", "-drtl", "-dalloc", "-dig", testCFile}, strings.NewReader(""), &out, &errOut)
	if code != exitOK {
		t.Fatalf("exit code = %d\nstderr: %s", code, errOut.String())
	}

	readDump := func(ext string) string {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(tmpDir, "dump"+ext))
		if err != nil {
			t.Fatalf("missing %s dump: %v", ext, err)
		}
		return string(data)
	}

	if parse := readDump(".parse"); !strings.Contains(parse, "twice") {
		t.Errorf(".parse lacks the function:\n%s", parse)
	}
	if rtlText := readDump(".rtl"); !strings.Contains(rtlText, "x32") {
		t.Errorf(".rtl should mention temporaries:\n%s", rtlText)
	}
	if alloc := readDump(".alloc.rtl"); strings.Contains(alloc, "x32") {
		t.Errorf(".alloc.rtl still mentions temporaries:\n%s", alloc)
	}
	dot := readDump(".dot")
	for _, want := range []string{`graph "twice" {`, `graph "main" {`} {
		if !strings.Contains(dot, want) {
			t.Errorf(".dot lacks %q:\n%s", want, dot)
		}
	}
	readDump(".asm")
}
