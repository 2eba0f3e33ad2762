package cpu

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"minpile/pkg/asm"
)

// ErrStepLimit is returned by Run when MaxSteps instructions have executed
// and the program has not halted.
var ErrStepLimit = errors.New("step limit reached")

// DefaultMaxSteps bounds runaway loops when no limit is configured.
const DefaultMaxSteps = 1_000_000

// ctxCheckInterval is how many steps Run executes between context checks.
const ctxCheckInterval = 1024

// CPU executes an assembled program. Variables are created on first write and
// read as null before that.
type CPU struct {
	Program *asm.Program

	PC     int
	Steps  int
	Halted bool

	// MaxSteps caps Run; zero or less means no cap.
	MaxSteps int
	// Wrap restarts the program at instruction 0 after the last one instead
	// of halting, as an in-game processor does.
	Wrap bool

	// Flushed collects printflush output for names with no mounted sink.
	Flushed []Flush
	// Probes collects the operands of executed test instructions.
	Probes []Probe

	vars   map[string]Value
	buffer strings.Builder
	sinks  map[string]MessageSink
	log    zerolog.Logger
}

// Option configures a CPU.
type Option func(*CPU)

func WithMaxSteps(n int) Option { return func(c *CPU) { c.MaxSteps = n } }

func WithWrap(wrap bool) Option { return func(c *CPU) { c.Wrap = wrap } }

// WithLogger traces every executed instruction at trace level.
func WithLogger(log zerolog.Logger) Option { return func(c *CPU) { c.log = log } }

// WithSink mounts sink under name.
func WithSink(name string, sink MessageSink) Option {
	return func(c *CPU) { c.MountSink(name, sink) }
}

// NewCPU creates a processor loaded with prog.
func NewCPU(prog *asm.Program, opts ...Option) *CPU {
	if prog == nil {
		prog = &asm.Program{}
	}
	c := &CPU{
		Program:  prog,
		MaxSteps: DefaultMaxSteps,
		vars:     make(map[string]Value),
		sinks:    make(map[string]MessageSink),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Halted = prog.Len() == 0
	return c
}

// MountSink links a message sink to the name printflush refers to it by.
func (c *CPU) MountSink(name string, sink MessageSink) {
	c.sinks[name] = sink
}

// Reset clears variables, output and the program counter.
func (c *CPU) Reset() {
	c.PC = 0
	c.Steps = 0
	c.Halted = c.Program.Len() == 0
	c.Flushed = nil
	c.Probes = nil
	c.vars = make(map[string]Value)
	c.buffer.Reset()
}

// Variable returns the current value of name, null if it was never set.
func (c *CPU) Variable(name string) Value {
	return c.vars[name]
}

// SetVariable presets a variable before running.
func (c *CPU) SetVariable(name string, v Value) {
	c.vars[name] = v
}

// Variable is one entry of a Variables snapshot.
type Variable struct {
	Name  string
	Value Value
}

// Variables returns every variable sorted by name.
func (c *CPU) Variables() []Variable {
	out := make([]Variable, 0, len(c.vars))
	for name, v := range c.vars {
		out = append(out, Variable{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Buffer returns the text printed since the last printflush.
func (c *CPU) Buffer() string { return c.buffer.String() }

// read evaluates an operand: a literal or a variable.
func (c *CPU) read(tok string) Value {
	if v, ok := literal(tok); ok {
		return v
	}
	if tok == "@counter" {
		return Number(float64(c.PC))
	}
	return c.vars[tok]
}

// Step executes one instruction.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}
	if c.PC < 0 || c.PC >= c.Program.Len() {
		c.Halted = true
		return fmt.Errorf("program counter %d out of range", c.PC)
	}

	in := c.Program.Instructions[c.PC]
	c.log.Trace().Int("pc", c.PC).Str("instr", in.String()).Msg("step")
	next := c.PC + 1
	c.Steps++

	switch in.Op {
	case asm.OpSet:
		c.vars[in.Args[0]] = c.read(in.Args[1])

	case asm.OpOp:
		a, b := c.read(in.Args[2]), c.read(in.Args[3])
		c.vars[in.Args[1]] = arith(in.Args[0], a, b)

	case asm.OpJump:
		target, err := strconv.Atoi(in.Args[0])
		if err != nil {
			c.Halted = true
			return fmt.Errorf("line %d: invalid jump target %q", in.Line, in.Args[0])
		}
		var a, b Value
		if len(in.Args) == 4 {
			a, b = c.read(in.Args[2]), c.read(in.Args[3])
		}
		ok, err := compare(in.Args[1], a, b)
		if err != nil {
			c.Halted = true
			return fmt.Errorf("line %d: %w", in.Line, err)
		}
		if ok {
			next = target
		}

	case asm.OpPrint:
		c.buffer.WriteString(c.read(in.Args[0]).String())

	case asm.OpPrintFlush:
		c.flush(in.Args[0])

	case asm.OpTest:
		p := Probe{PC: c.PC, Args: in.Args, Values: make([]Value, len(in.Args))}
		for i, arg := range in.Args {
			p.Values[i] = c.read(arg)
		}
		c.Probes = append(c.Probes, p)

	case asm.OpEnd:
		c.Halted = true
		return nil

	case asm.OpNoop:

	default:
		c.Halted = true
		return fmt.Errorf("line %d: unknown instruction %q", in.Line, in.Op)
	}

	if next >= c.Program.Len() {
		if !c.Wrap {
			c.Halted = true
			return nil
		}
		next = 0
	}
	c.PC = next
	return nil
}

func (c *CPU) flush(target string) {
	text := c.buffer.String()
	c.buffer.Reset()
	if sink, ok := c.sinks[target]; ok {
		sink.Flush(text)
		return
	}
	c.Flushed = append(c.Flushed, Flush{Target: target, Text: text})
}

// Run executes until the program halts, the step limit is hit or ctx is done.
func (c *CPU) Run(ctx context.Context) error {
	for !c.Halted {
		if c.MaxSteps > 0 && c.Steps >= c.MaxSteps {
			return fmt.Errorf("after %d steps at pc %d: %w", c.Steps, c.PC, ErrStepLimit)
		}
		if c.Steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (c *CPU) RunUntilDone() error {
	return c.Run(context.Background())
}

// arith applies an op kind. Operations without a defined result, such as
// division by zero, produce null.
func arith(kind string, a, b Value) Value {
	x, y := a.Float(), b.Float()
	var r float64
	switch kind {
	case "add":
		r = x + y
	case "sub":
		r = x - y
	case "mul":
		r = x * y
	case "div":
		if y == 0 {
			return Null
		}
		r = x / y
	case "idiv":
		if y == 0 {
			return Null
		}
		r = math.Floor(x / y)
	case "mod":
		if y == 0 {
			return Null
		}
		r = math.Mod(x, y)
	case "pow":
		r = math.Pow(x, y)
	case "max":
		r = math.Max(x, y)
	case "min":
		r = math.Min(x, y)
	default:
		return Null
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Null
	}
	return Number(r)
}

func compare(cond string, a, b Value) (bool, error) {
	switch cond {
	case "always":
		return true, nil
	case "equal":
		return equal(a, b), nil
	case "notEqual":
		return !equal(a, b), nil
	case "strictEqual":
		return strictEqual(a, b), nil
	case "lessThan":
		return a.Float() < b.Float(), nil
	case "lessThanEq":
		return a.Float() <= b.Float(), nil
	case "greaterThan":
		return a.Float() > b.Float(), nil
	case "greaterThanEq":
		return a.Float() >= b.Float(), nil
	}
	return false, fmt.Errorf("unknown condition %q", cond)
}
