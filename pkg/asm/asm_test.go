package asm

import (
	"reflect"
	"strings"
	"testing"
)

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"abc1", true},
		{"tempopvar0", true},
		{"@counter", true},
		{"1abc", false},
		{"", false},
		{"ab-c", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}

	if got := stripComments(`print "a # b" # note`); got != `print "a # b" ` {
		t.Errorf("stripComments kept %q", got)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    parsedLine
		wantErr bool
	}{
		{
			"set x 5",
			parsedLine{lineNo: 1, mnemonic: "set", operands: []string{"x", "5"}},
			false,
		},
		{
			"  op add tempopvar0   x 2  # comment",
			parsedLine{lineNo: 1, mnemonic: "op", operands: []string{"add", "tempopvar0", "x", "2"}},
			false,
		},
		{
			`print "hello world"`,
			parsedLine{lineNo: 1, mnemonic: "print", operands: []string{`"hello world"`}},
			false,
		},
		{
			"loop:",
			parsedLine{lineNo: 1, labels: []string{"loop"}},
			false,
		},
		{
			"   # only a comment",
			parsedLine{lineNo: 1},
			false,
		},
		{
			`print "oops`,
			parsedLine{},
			true,
		},
		{
			"9bad:",
			parsedLine{},
			true,
		},
	}

	for _, tc := range tests {
		got, err := parseLine(tc.line, 1)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseLine(%q) error = %v, wantErr %v", tc.line, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseLine(%q) = %+v, want %+v", tc.line, got, tc.want)
		}
	}
}

func TestAssemble(t *testing.T) {
	src := strings.Join([]string{
		"set x 3",
		"op sub x x 1",
		"print x",
		"jump 1 greaterThan x 0",
		"printflush message1",
		"test x",
		"end",
	}, "\n")

	prog, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if prog.Len() != 7 {
		t.Fatalf("expected 7 instructions, got %d", prog.Len())
	}
	if prog.String() != src {
		t.Errorf("round trip mismatch:\n%s\nwant:\n%s", prog.String(), src)
	}
	if target, ok := prog.Instructions[3].Target(); !ok || target != 1 {
		t.Errorf("jump target = %d, %v", target, ok)
	}
	if _, ok := prog.Instructions[0].Target(); ok {
		t.Errorf("set has no jump target")
	}
}

func TestAssembleLabels(t *testing.T) {
	src := `
set i 0
loop:
op add i i 1    # count
jump loop lessThan i 10
jump done always
print "unreachable"
done:
end
`
	prog, err := Assemble(src)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	want := []string{
		"set i 0",
		"op add i i 1",
		"jump 1 lessThan i 10",
		"jump 5 always",
		`print "unreachable"`,
		"end",
	}
	for i, w := range want {
		if got := prog.Instructions[i].String(); got != w {
			t.Errorf("instruction %d = %q, want %q", i, got, w)
		}
	}
	if prog.Labels["loop"] != 1 || prog.Labels["done"] != 5 {
		t.Errorf("unexpected labels %v", prog.Labels)
	}
}

func TestAssembleSourceMap(t *testing.T) {
	code := `
# Line 2: comment
set a 1

loop:
op add a a 1
jump loop lessThan a 4
`
	prog, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	tests := []struct {
		pc   int
		line int
	}{
		{0, 3},
		{1, 6},
		{2, 7},
		{3, 0},
	}
	for _, tc := range tests {
		if got := prog.SourceLine(tc.pc); got != tc.line {
			t.Errorf("SourceLine(%d) = %d; want %d", tc.pc, got, tc.line)
		}
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown instruction", "sensor x y z"},
		{"set arity", "set x"},
		{"op arity", "op add x 1"},
		{"op kind", "op xor x 1 2"},
		{"set destination", "set 5 x"},
		{"print arity", "print a b"},
		{"end arity", "end now"},
		{"jump arity", "jump 0 lessThan x"},
		{"jump condition", "jump 0 sometimes x 1"},
		{"jump needs operands", "jump 0 equal"},
		{"jump target range", "set x 1\njump 3 always"},
		{"negative target", "jump -1 always"},
		{"undefined label", "jump nowhere always"},
		{"bad target", "jump 1.5 always"},
		{"duplicate label", "a:\nset x 1\na:\nend"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Assemble(tc.src); err == nil {
				t.Errorf("expected an error for %q", tc.src)
			}
		})
	}
}

func TestAssembleErrorReportsLine(t *testing.T) {
	_, err := Assemble("set x 1\n\nop nope x 1 2")
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected error on line 3, got %v", err)
	}
}

// A jump to the instruction after the last one ends the program.
func TestAssembleJumpPastEnd(t *testing.T) {
	prog, err := AssembleLines([]string{"jump 2 always", "print 1"})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if target, _ := prog.Instructions[0].Target(); target != 2 {
		t.Errorf("expected target 2, got %d", target)
	}
}

func TestAssembleEmpty(t *testing.T) {
	prog, err := Assemble("")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if prog.Len() != 0 || prog.String() != "" {
		t.Errorf("expected an empty program, got %q", prog.String())
	}
}
