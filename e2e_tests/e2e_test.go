package main

import (
	"testing"

	"minpile/pkg/asm"
	"minpile/pkg/compiler"
	"minpile/pkg/cpu"
	"minpile/pkg/peripherals"
)

// compileAndRun compiles source, assembles the listing and runs it with the
// named message blocks mounted.
func compileAndRun(t *testing.T, source string, messages ...string) (*cpu.CPU, []*peripherals.MessageBlock) {
	t.Helper()

	res, err := compiler.Compile(source, compiler.Options{})
	if err != nil {
		t.Fatalf("Compilation failed: %v", err)
	}
	t.Logf("Generated listing:\n%s", res.Text())

	prog, err := asm.AssembleLines(res.Instructions)
	if err != nil {
		t.Fatalf("Assembly failed: %v", err)
	}

	vm := cpu.NewCPU(prog, cpu.WithMaxSteps(100_000))
	blocks := peripherals.Mount(vm, messages...)
	if err := vm.RunUntilDone(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return vm, blocks
}

func TestFibonacci(t *testing.T) {
	source := `
a = 0
b = 1
n = 10
while n > 0 {
    t = a + b
    a = b
    b = t
    n -= 1
}
print(a)
flush(message1)
`
	vm, blocks := compileAndRun(t, source, "message1")

	// The 10th Fibonacci number: 0, 1, 1, 2, 3, 5, 8, 13, 21, 34, 55
	if got := vm.Variable("a"); got != cpu.Number(55) {
		t.Errorf("Expected a to be 55, got %v", got)
	}
	if blocks[0].Text() != "55" {
		t.Errorf("Expected message1 to show 55, got %q", blocks[0].Text())
	}
	if vm.Variable("n") != cpu.Number(0) {
		t.Errorf("Expected n to be 0, got %v", vm.Variable("n"))
	}
}

func TestCountdownMessages(t *testing.T) {
	source := `
x = 3
while x > 0 {
    print(x)
    print(" ")
    x -= 1
}
print("liftoff")
flush(message1)
`
	_, blocks := compileAndRun(t, source, "message1")
	if got := blocks[0].Text(); got != "3 2 1 liftoff" {
		t.Errorf("Expected %q, got %q", "3 2 1 liftoff", got)
	}
}

func TestNestedLoops(t *testing.T) {
	source := `
total = 0
i = 0
while i < 4 {
    j = 0
    while j < 3 {
        total += 1
        j += 1
    }
    i += 1
}
`
	vm, _ := compileAndRun(t, source)
	if got := vm.Variable("total"); got != cpu.Number(12) {
		t.Errorf("Expected total to be 12, got %v", got)
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	source := `
x = 2 + 3 * 4
y = (2 + 3) * 4
z = 20 / 4 - -1
w = 7
w *= 2
w /= 4
`
	vm, _ := compileAndRun(t, source)
	tests := map[string]float64{"x": 14, "y": 20, "z": 6, "w": 3.5}
	for name, want := range tests {
		if got := vm.Variable(name); got != cpu.Number(want) {
			t.Errorf("Expected %s to be %v, got %v", name, want, got)
		}
	}
}

// A loop condition is evaluated once before the body, and its jump tests the
// values computed then. Conditions over temporaries therefore see the state
// from before the body ran.
func TestConditionSampledBeforeBody(t *testing.T) {
	vm, _ := compileAndRun(t, "i = 0\nwhile i * 2 < 20 {\n i += 1\n}")
	if got := vm.Variable("i"); got != cpu.Number(11) {
		t.Errorf("Expected i to be 11, got %v", got)
	}

	vm, _ = compileAndRun(t, "i = 0\nwhile i < 10 {\n i += 1\n}")
	if got := vm.Variable("i"); got != cpu.Number(10) {
		t.Errorf("Expected i to be 10, got %v", got)
	}
}

func TestTestProbes(t *testing.T) {
	vm, _ := compileAndRun(t, "x = 4\ntest(x, x * x)")
	if len(vm.Probes) != 1 {
		t.Fatalf("Expected 1 probe, got %d", len(vm.Probes))
	}
	vals := vm.Probes[0].Values
	if len(vals) != 2 || vals[0] != cpu.Number(4) || vals[1] != cpu.Number(16) {
		t.Errorf("Unexpected probe values %v", vals)
	}
}

func TestUnmountedFlush(t *testing.T) {
	vm, _ := compileAndRun(t, "print(\"hi\")\nflush(display)")
	if len(vm.Flushed) != 1 || vm.Flushed[0] != (cpu.Flush{Target: "display", Text: "hi"}) {
		t.Errorf("Unexpected flushes %+v", vm.Flushed)
	}
}

func TestNumberLikeVariableNames(t *testing.T) {
	for _, name := range []string{"inf", "nan", "Infinity", "x"} {
		vm, _ := compileAndRun(t, name+" = 3\ny = "+name+" + 1")
		if got := vm.Variable("y"); got != cpu.Number(4) {
			t.Errorf("%s: expected y to be 4, got %v", name, got)
		}
	}
}
