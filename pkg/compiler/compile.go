package compiler

import (
	"errors"
	"strings"
)

// Result is the output of one compilation.
type Result struct {
	Instructions []string
	Functions    []FunctionEntry
	Bindings     []Binding
}

// Text returns the program in its textual form, one instruction per line.
func (r *Result) Text() string {
	return strings.Join(r.Instructions, "\n")
}

// Compile translates src into processor instructions using a fresh
// translator. When the returned error is a Diagnostics list the partial
// result is returned with it; a fatal error returns a nil result.
func Compile(src string, opts Options) (*Result, error) {
	tr, err := NewTranslator(opts)
	if err != nil {
		return nil, err
	}

	p := NewParser(NewLexer(src), tr)
	if err := p.ParseProgram(); err != nil {
		return nil, err
	}

	// Loops abandoned on error are already popped, so Finish only fails on a
	// translator defect.
	instrs, err := tr.Finish()
	if err != nil {
		return nil, errors.Join(err, p.Diagnostics().Err())
	}

	res := &Result{
		Instructions: instrs,
		Functions:    tr.Functions().Entries(),
		Bindings:     tr.Symbols().Bindings(),
	}
	return res, p.Diagnostics().Err()
}
