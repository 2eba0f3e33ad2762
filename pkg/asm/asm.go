package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Mnemonics understood by the logic processor.
const (
	OpSet        = "set"
	OpOp         = "op"
	OpJump       = "jump"
	OpPrint      = "print"
	OpPrintFlush = "printflush"
	OpTest       = "test"
	OpEnd        = "end"
	OpNoop       = "noop"
)

// fixedArityOps maps each mnemonic with a fixed operand count to that count.
var fixedArityOps = map[string]int{
	OpSet:        2,
	OpOp:         4,
	OpPrint:      1,
	OpPrintFlush: 1,
	OpEnd:        0,
	OpNoop:       0,
}

// OpKinds are the arithmetic operations accepted as the first operand of op.
var OpKinds = map[string]bool{
	"add":  true,
	"sub":  true,
	"mul":  true,
	"div":  true,
	"idiv": true,
	"mod":  true,
	"pow":  true,
	"max":  true,
	"min":  true,
}

// Conditions are the comparisons accepted by jump.
var Conditions = map[string]bool{
	"equal":         true,
	"notEqual":      true,
	"lessThan":      true,
	"lessThanEq":    true,
	"greaterThan":   true,
	"greaterThanEq": true,
	"strictEqual":   true,
	"always":        true,
}

// Instruction is one validated line of a program. Jump targets are always
// numeric once assembled.
type Instruction struct {
	Op   string
	Args []string
	Line int // 1-based source line
}

func (i Instruction) String() string {
	if len(i.Args) == 0 {
		return i.Op
	}
	return i.Op + " " + strings.Join(i.Args, " ")
}

// Target returns the destination of a jump.
func (i Instruction) Target() (int, bool) {
	if i.Op != OpJump || len(i.Args) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(i.Args[0])
	return n, err == nil
}

// Program is an assembled instruction listing.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int
}

func (p *Program) Len() int { return len(p.Instructions) }

// SourceLine maps an instruction index back to the line it came from.
func (p *Program) SourceLine(pc int) int {
	if pc < 0 || pc >= len(p.Instructions) {
		return 0
	}
	return p.Instructions[pc].Line
}

// String renders the program one instruction per line, with labels resolved.
func (p *Program) String() string {
	lines := make([]string, len(p.Instructions))
	for i, in := range p.Instructions {
		lines[i] = in.String()
	}
	return strings.Join(lines, "\n")
}

type Assembler struct {
	labels map[string]int
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]int),
	}
}

func Assemble(code string) (*Program, error) {
	return NewAssembler().Assemble(code)
}

// AssembleLines assembles a listing that is already split into lines, such
// as the output of the compiler.
func AssembleLines(lines []string) (*Program, error) {
	return Assemble(strings.Join(lines, "\n"))
}

func (a *Assembler) Assemble(code string) (*Program, error) {
	lines := strings.Split(code, "\n")

	count, err := a.pass1(lines)
	if err != nil {
		return nil, err
	}

	return a.pass2(lines, count)
}

// pass1 records the instruction index of every label and counts instructions.
func (a *Assembler) pass1(lines []string) (int, error) {
	index := 0

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return 0, err
		}

		for _, lbl := range p.labels {
			if _, exists := a.labels[lbl]; exists {
				return 0, fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[lbl] = index
		}

		if p.mnemonic != "" {
			index++
		}
	}

	return index, nil
}

func (a *Assembler) pass2(lines []string, count int) (*Program, error) {
	prog := &Program{
		Instructions: make([]Instruction, 0, count),
		Labels:       a.labels,
	}

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}

		if p.mnemonic == "" {
			continue
		}

		mnemonic := p.mnemonic
		ops := p.operands

		if want, ok := fixedArityOps[mnemonic]; ok {
			if len(ops) != want {
				return nil, fmt.Errorf("%s expects %d operands on line %d, got %d", mnemonic, want, lineNo, len(ops))
			}
			if mnemonic == OpOp && !OpKinds[ops[0]] {
				return nil, fmt.Errorf("unknown op kind '%s' on line %d", ops[0], lineNo)
			}
			if mnemonic == OpSet && !isIdentifier(ops[0]) {
				return nil, fmt.Errorf("invalid destination '%s' on line %d", ops[0], lineNo)
			}
			if mnemonic == OpOp && !isIdentifier(ops[1]) {
				return nil, fmt.Errorf("invalid destination '%s' on line %d", ops[1], lineNo)
			}
			prog.Instructions = append(prog.Instructions, Instruction{Op: mnemonic, Args: ops, Line: lineNo})
			continue
		}

		switch mnemonic {
		case OpJump:
			if len(ops) != 2 && len(ops) != 4 {
				return nil, fmt.Errorf("jump expects 2 or 4 operands on line %d, got %d", lineNo, len(ops))
			}
			target, err := a.parseTarget(ops[0], lineNo, count)
			if err != nil {
				return nil, err
			}
			if !Conditions[ops[1]] {
				return nil, fmt.Errorf("unknown jump condition '%s' on line %d", ops[1], lineNo)
			}
			if len(ops) == 2 && ops[1] != "always" {
				return nil, fmt.Errorf("jump %s needs two operands on line %d", ops[1], lineNo)
			}
			args := append([]string{strconv.Itoa(target)}, ops[1:]...)
			prog.Instructions = append(prog.Instructions, Instruction{Op: OpJump, Args: args, Line: lineNo})
			continue

		case OpTest:
			prog.Instructions = append(prog.Instructions, Instruction{Op: OpTest, Args: ops, Line: lineNo})
			continue
		}

		return nil, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
	}

	return prog, nil
}

// parseTarget resolves a jump destination. Landing one past the last
// instruction is allowed: it ends the program.
func (a *Assembler) parseTarget(token string, lineNo, count int) (int, error) {
	if n, err := strconv.Atoi(token); err == nil {
		if n < 0 || n > count {
			return 0, fmt.Errorf("jump target %d out of range on line %d (program has %d instructions)", n, lineNo, count)
		}
		return n, nil
	}

	if idx, ok := a.labels[token]; ok {
		return idx, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid jump target '%s' on line %d", token, lineNo)
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	fields, err := splitFields(line)
	if err != nil {
		return p, fmt.Errorf("%v on line %d", err, lineNo)
	}

	// A line holding a single "name:" field declares a label.
	if len(fields) == 1 && strings.HasSuffix(fields[0], ":") {
		label := strings.TrimSuffix(fields[0], ":")
		if !isIdentifier(label) {
			return p, fmt.Errorf("invalid label '%s' on line %d", label, lineNo)
		}
		p.labels = append(p.labels, label)
		return p, nil
	}

	p.mnemonic = fields[0]
	if len(fields) > 1 {
		p.operands = fields[1:]
	}
	return p, nil
}

// stripComments drops everything after a '#' that is not inside a string.
func stripComments(line string) string {
	inQuote := false
	for i, r := range line {
		switch r {
		case '"':
			inQuote = !inQuote
		case '#':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

// splitFields splits on blanks, keeping double-quoted strings whole.
func splitFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t' || r == '\r'):
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated string")
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' && r != '@' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}
