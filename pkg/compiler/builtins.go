package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// UnknownCallPolicy decides what happens to a call whose name is not a
// builtin.
type UnknownCallPolicy int

const (
	// UnknownCallError reports an UnresolvedFunctionError.
	UnknownCallError UnknownCallPolicy = iota
	// UnknownCallIgnore drops the call without emitting anything.
	UnknownCallIgnore
)

func (p UnknownCallPolicy) String() string {
	switch p {
	case UnknownCallError:
		return "error"
	case UnknownCallIgnore:
		return "ignore"
	}
	return fmt.Sprintf("UnknownCallPolicy(%d)", int(p))
}

// ParseUnknownCallPolicy accepts the names returned by String.
func ParseUnknownCallPolicy(s string) (UnknownCallPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return UnknownCallError, nil
	case "ignore":
		return UnknownCallIgnore, nil
	}
	return 0, fmt.Errorf("unknown call policy %q (want error or ignore)", s)
}

// BuiltinFunc renders the instruction for one call from its already
// flattened argument texts.
type BuiltinFunc func(args []string) (string, error)

// Builtins maps call names to the instruction they emit.
type Builtins struct {
	table map[string]BuiltinFunc
}

// NewBuiltins returns the table holding print, flush and test.
func NewBuiltins() *Builtins {
	b := &Builtins{table: make(map[string]BuiltinFunc)}
	b.Register("print", func(args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("print expects 1 argument, got %d", len(args))
		}
		return "print " + args[0], nil
	})
	b.Register("flush", func(args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("flush expects 1 argument, got %d", len(args))
		}
		return "printflush " + args[0], nil
	})
	b.Register("test", func(args []string) (string, error) {
		if len(args) == 0 {
			return "test", nil
		}
		return "test " + strings.Join(args, " "), nil
	})
	return b
}

func (b *Builtins) Register(name string, fn BuiltinFunc) {
	b.table[name] = fn
}

// RegisterTemplate adds a builtin whose instruction is produced by expanding
// tmpl: $0..$9 stand for positional arguments, $@ for all arguments joined
// by spaces and $$ for a literal dollar sign. A call must supply at least as
// many arguments as the highest positional reference needs.
func (b *Builtins) RegisterTemplate(name, tmpl string) error {
	if !isValidName(name) {
		return fmt.Errorf("builtin %q: invalid name", name)
	}
	need, err := templateArity(tmpl)
	if err != nil {
		return fmt.Errorf("builtin %q: %w", name, err)
	}
	b.Register(name, func(args []string) (string, error) {
		if len(args) < need {
			return "", fmt.Errorf("%s expects at least %d arguments, got %d", name, need, len(args))
		}
		return expandTemplate(tmpl, args), nil
	})
	return nil
}

func (b *Builtins) Has(name string) bool {
	_, ok := b.table[name]
	return ok
}

// Names returns the registered builtin names, sorted.
func (b *Builtins) Names() []string {
	names := make([]string, 0, len(b.table))
	for name := range b.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch renders the instruction for a call. ok is false when name is not
// a builtin.
func (b *Builtins) Dispatch(name string, args []string) (instr string, ok bool, err error) {
	fn, ok := b.table[name]
	if !ok {
		return "", false, nil
	}
	instr, err = fn(args)
	return instr, true, err
}

// DispatchText splits a space-joined argument text back into arguments and
// dispatches the call.
func (b *Builtins) DispatchText(name, argsText string) (string, bool, error) {
	return b.Dispatch(name, SplitArgs(argsText))
}

// SplitArgs splits text on whitespace. Double-quoted runs are kept whole so a
// string literal containing spaces remains a single argument.
func SplitArgs(text string) []string {
	var args []string
	var cur strings.Builder
	inQuote := false
	for _, r := range text {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if cur.Len() > 0 {
				args = append(args, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		args = append(args, cur.String())
	}
	return args
}

func templateArity(tmpl string) (int, error) {
	need := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '$' {
			continue
		}
		if i+1 >= len(tmpl) {
			return 0, fmt.Errorf("template %q ends with a bare $", tmpl)
		}
		next := tmpl[i+1]
		switch {
		case next == '$' || next == '@':
			i++
		case next >= '0' && next <= '9':
			idx, _ := strconv.Atoi(string(next))
			if idx+1 > need {
				need = idx + 1
			}
			i++
		default:
			return 0, fmt.Errorf("template %q: unknown placeholder $%c", tmpl, next)
		}
	}
	return need, nil
}

func expandTemplate(tmpl string, args []string) string {
	var sb strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '$' || i+1 >= len(tmpl) {
			sb.WriteByte(c)
			continue
		}
		next := tmpl[i+1]
		i++
		switch {
		case next == '$':
			sb.WriteByte('$')
		case next == '@':
			sb.WriteString(strings.Join(args, " "))
		default:
			sb.WriteString(args[next-'0'])
		}
	}
	return strings.TrimSpace(sb.String())
}

func isValidName(s string) bool {
	if s == "" || isDigit(rune(s[0])) {
		return false
	}
	for _, r := range s {
		if !isNameRune(r) && !isDigit(r) {
			return false
		}
	}
	return true
}

// Address is where a user function lives in the listing. The zero value is
// unresolved; nothing in the compiler resolves addresses yet.
type Address struct {
	line     int
	resolved bool
}

func Unresolved() Address { return Address{} }

// ResolvedAt returns an address pointing at instruction index line.
func ResolvedAt(line int) Address { return Address{line: line, resolved: true} }

// Line returns the instruction index and whether the address is resolved.
func (a Address) Line() (int, bool) { return a.line, a.resolved }

func (a Address) String() string {
	if !a.resolved {
		return "unresolved"
	}
	return strconv.Itoa(a.line)
}

// FunctionEntry is one declared user function.
type FunctionEntry struct {
	Name    string
	Params  []string
	Address Address
}

// FunctionTable records user function declarations in declaration order.
type FunctionTable struct {
	entries []FunctionEntry
}

func NewFunctionTable() *FunctionTable {
	return &FunctionTable{}
}

// Declare appends an unresolved entry for name.
func (f *FunctionTable) Declare(name string, params []string) {
	p := make([]string, len(params))
	copy(p, params)
	f.entries = append(f.entries, FunctionEntry{Name: name, Params: p, Address: Unresolved()})
}

// Lookup returns the most recent declaration of name.
func (f *FunctionTable) Lookup(name string) (FunctionEntry, bool) {
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].Name == name {
			return f.entries[i], true
		}
	}
	return FunctionEntry{}, false
}

func (f *FunctionTable) Entries() []FunctionEntry {
	out := make([]FunctionEntry, len(f.entries))
	copy(out, f.entries)
	return out
}
