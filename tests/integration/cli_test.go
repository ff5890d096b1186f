package integration_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// binaryPath is set up by TestMain, which builds simplc once for the whole
// package rather than once per test -- mirroring the teacher's convention of
// exec.Command-ing a prebuilt binary rather than shelling out to `go run`.
var binaryPath string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "simplc-cli-test")
	if err != nil {
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	binaryPath = filepath.Join(dir, "simplc")
	build := exec.Command("go", "build", "-o", binaryPath, "github.com/whkbester/simplc/cmd/simplc")
	build.Dir = filepath.Join("..", "..")
	if out, err := build.CombinedOutput(); err != nil {
		os.Stderr.Write(out)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// createTestProgram writes code to a temp .simpl file and returns its path.
func createTestProgram(t *testing.T, code string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "test_*.simpl")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(code); err != nil {
		tmpFile.Close()
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

// runSimplcWithFlags runs the built simplc binary against progPath with the
// given flags, always passing -no-assemble so the test never needs a Jasmin
// jar on PATH.
func runSimplcWithFlags(t *testing.T, progPath string, flags ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	args := append(append([]string{}, flags...), "-no-assemble", progPath)
	cmd := exec.Command(binaryPath, args...)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run simplc: %v", err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

const sampleProgram = `
program Greeter
begin
	integer n;
	n <- 41;
	write "answer is " & (n + 1)
end
`

func TestDumpSymbolsFlagWritesToStdout(t *testing.T) {
	progPath := createTestProgram(t, sampleProgram)

	stdout, stderr, exitCode := runSimplcWithFlags(t, progPath, "-dump-symbols")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "n: integer") {
		t.Errorf("expected symbol dump to list 'n: integer', got:\n%s", stdout)
	}
}

func TestDumpSymbolsFlagWritesToSymbolsFile(t *testing.T) {
	progPath := createTestProgram(t, sampleProgram)
	symbolsPath := filepath.Join(t.TempDir(), "symbols.txt")

	_, stderr, exitCode := runSimplcWithFlags(t, progPath, "-dump-symbols", "-symbols-file", symbolsPath)
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}

	data, err := os.ReadFile(symbolsPath)
	if err != nil {
		t.Fatalf("failed to read symbols file: %v", err)
	}
	if !strings.Contains(string(data), "n: integer") {
		t.Errorf("expected symbols file to list 'n: integer', got:\n%s", data)
	}
}

func TestTraceParseFlagLogsGrammarRuleEntryExit(t *testing.T) {
	progPath := createTestProgram(t, sampleProgram)

	_, stderr, exitCode := runSimplcWithFlags(t, progPath, "-trace-parse")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr: %s", exitCode, stderr)
	}
	if !strings.Contains(stderr, "program") {
		t.Errorf("expected trace output to mention the 'program' rule, got:\n%s", stderr)
	}
}

func TestInvalidProgramReportsPositionedDiagnosticAndNonzeroExit(t *testing.T) {
	progPath := createTestProgram(t, "program Broken begin write end")

	_, stderr, exitCode := runSimplcWithFlags(t, progPath)
	if exitCode == 0 {
		t.Fatalf("expected nonzero exit code for invalid program")
	}
	if !strings.Contains(stderr, progPath+":") {
		t.Errorf("expected diagnostic to be prefixed with the source filename, got:\n%s", stderr)
	}
}

func TestConfigFlagOverridesMaxIdentifierLength(t *testing.T) {
	progPath := createTestProgram(t, "program LongName begin integer thisIdentifierIsWayTooLongForTheConfiguredLimit; end")

	configPath := filepath.Join(t.TempDir(), "simplc.toml")
	if err := os.WriteFile(configPath, []byte("[limits]\nmax_id_length = 8\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, stderr, exitCode := runSimplcWithFlags(t, progPath, "-config", configPath)
	if exitCode == 0 {
		t.Fatalf("expected nonzero exit code with a tightened max_id_length")
	}
	if !strings.Contains(stderr, "identifier too long") {
		t.Errorf("expected 'identifier too long' diagnostic, got:\n%s", stderr)
	}
}
