package integration_test

import (
	"strings"
	"testing"

	"github.com/whkbester/simplc/parser"
)

// compile runs a SIMPL source string through the full parser/codegen
// pipeline and returns the generated Jasmin source.
func compile(t *testing.T, name, src string) string {
	t.Helper()
	emit, _, err := parser.Compile(strings.NewReader(src), name, nil)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return emit.Source()
}

func TestExampleProgram_FactorialRecursion(t *testing.T) {
	src := `
program Factorial
define fact(integer n) -> integer
begin
	if n <= 1 then
		exit 1
	else
		exit n * fact(n - 1)
	end
end
begin
	integer result;
	result <- fact(5);
	write "5! = " & result
end
`
	out := compile(t, "factorial.simpl", src)
	if !strings.Contains(out, "invokestatic Factorial/fact(I)I") {
		t.Errorf("expected recursive call to fact, got:\n%s", out)
	}
	if !strings.Contains(out, ".method public static fact(I)I") {
		t.Errorf("expected fact method descriptor, got:\n%s", out)
	}
}

func TestExampleProgram_ArraySumLoop(t *testing.T) {
	src := `
program ArraySum
begin
	integer array nums;
	integer i, total;
	nums <- array 5;
	i <- 0;
	total <- 0;
	while i < 5 do
		nums[i] <- i * 2;
		total <- total + nums[i];
		i <- i + 1
	end;
	write "total is " & total
end
`
	out := compile(t, "arraysum.simpl", src)
	for _, want := range []string{"newarray int", "iastore", "iaload", "ifeq", "goto"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected generated code to contain %q, got:\n%s", want, out)
		}
	}
}

func TestExampleProgram_BooleanLogicAndRead(t *testing.T) {
	src := `
program Parity
begin
	integer n;
	boolean isEven;
	read n;
	isEven <- (n - (n / 2) * 2) = 0;
	if isEven then
		write "even"
	else
		write "odd"
	end
end
`
	out := compile(t, "parity.simpl", src)
	for _, want := range []string{"readInt", "if_icmpeq", "printString"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected generated code to contain %q, got:\n%s", want, out)
		}
	}
}
