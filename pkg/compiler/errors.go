package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyScope is returned when an instruction is emitted while no block is
// active. It always aborts the compilation.
var ErrEmptyScope = errors.New("empty scope")

// ErrLoopUnderflow is returned when a loop is closed that was never opened.
var ErrLoopUnderflow = errors.New("jump target stack underflow")

// LexicalError reports a character the lexer could not classify. The lexer
// skips the character and keeps going.
type LexicalError struct {
	Line int
	Char rune
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("line %d: illegal character %q", e.Line, e.Char)
}

// SyntaxError reports a token sequence that matches no production.
type SyntaxError struct {
	Line  int
	Token Token
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token.Type == EOF {
		return fmt.Sprintf("line %d: %s at end of input", e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s at %q", e.Line, e.Msg, e.Token.Lexeme)
}

// UnresolvedFunctionError reports a call to a name that is not a builtin.
// Declared is set when the name exists in the function table, whose entries
// never receive an address.
type UnresolvedFunctionError struct {
	Line     int
	Name     string
	Declared bool
}

func (e *UnresolvedFunctionError) Error() string {
	if e.Declared {
		return fmt.Sprintf("line %d: function %q is declared but has no resolved address", e.Line, e.Name)
	}
	return fmt.Sprintf("line %d: unknown function %q", e.Line, e.Name)
}

// EmptyScopeError wraps ErrEmptyScope with the instruction that was rejected.
type EmptyScopeError struct {
	Instr string
}

func (e *EmptyScopeError) Error() string {
	return fmt.Sprintf("cannot emit %q: %v", e.Instr, ErrEmptyScope)
}

func (e *EmptyScopeError) Unwrap() error { return ErrEmptyScope }

// Diagnostics collects the non-fatal errors of one compilation in the order
// they were found.
type Diagnostics []error

func (d Diagnostics) Error() string {
	switch len(d) {
	case 0:
		return "no errors"
	case 1:
		return d[0].Error()
	}
	var sb strings.Builder
	for i, err := range d {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func (d Diagnostics) Unwrap() []error { return d }

// Err returns nil when there is nothing to report.
func (d Diagnostics) Err() error {
	if len(d) == 0 {
		return nil
	}
	return d
}

// CompileError reports a well-formed statement the translator cannot
// compile, such as a builtin called with the wrong number of arguments.
type CompileError struct {
	Line int
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// IsIncomplete reports whether err only says that the input ended early, so
// more input could still make it valid.
func IsIncomplete(err error) bool {
	var diags Diagnostics
	if errors.As(err, &diags) {
		if len(diags) == 0 {
			return false
		}
		err = diags[len(diags)-1]
	}
	var syn *SyntaxError
	return errors.As(err, &syn) && syn.Token.Type == EOF
}
