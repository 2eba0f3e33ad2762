package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"minpile/pkg/compiler"
)

const sample = `x = 10
y = x * 2 + 1
while y > x {
    y -= 1
}
print(y)
flush(message1)
`

type tokenEntry struct {
	Type   string `json:"type"`
	Lexeme string `json:"lexeme"`
	Line   int    `json:"line"`
}

type functionEntry struct {
	Name    string   `json:"name"`
	Params  []string `json:"params"`
	Address string   `json:"address"`
}

type bindingEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Line  int    `json:"line"`
}

// report is everything the compiler knows about one source.
type report struct {
	Tokens       []tokenEntry    `json:"tokens"`
	Instructions []string        `json:"instructions"`
	Functions    []functionEntry `json:"functions"`
	Bindings     []bindingEntry  `json:"bindings"`
	Errors       []string        `json:"errors,omitempty"`
}

func collect(src string) (*report, error) {
	r := &report{}

	// Lexical errors are reported again by Compile, inside its Diagnostics.
	tokens, _ := compiler.Lex(src)
	for _, tok := range tokens {
		r.Tokens = append(r.Tokens, tokenEntry{Type: tok.Type.String(), Lexeme: tok.Lexeme, Line: tok.Line})
	}

	res, err := compiler.Compile(src, compiler.Options{})
	if res == nil {
		return nil, err
	}
	var diags compiler.Diagnostics
	if errors.As(err, &diags) {
		for _, d := range diags {
			r.Errors = append(r.Errors, d.Error())
		}
	}

	r.Instructions = res.Instructions
	for _, f := range res.Functions {
		r.Functions = append(r.Functions, functionEntry{Name: f.Name, Params: f.Params, Address: f.Address.String()})
	}
	for _, b := range res.Bindings {
		r.Bindings = append(r.Bindings, bindingEntry{Name: b.Name, Value: b.Value, Line: b.Line})
	}
	return r, nil
}

func writeText(w io.Writer, r *report) {
	fmt.Fprintf(w, "Tokens (%d)\n", len(r.Tokens))
	for _, tok := range r.Tokens {
		fmt.Fprintf(w, "  %-12s %-14q  line %d\n", tok.Type, tok.Lexeme, tok.Line)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Instructions")
	for i, instr := range r.Instructions {
		fmt.Fprintf(w, "%4d  %s\n", i, instr)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Functions")
	if len(r.Functions) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, f := range r.Functions {
		fmt.Fprintf(w, "  %s(%v) @ %s\n", f.Name, f.Params, f.Address)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Bindings")
	for _, b := range r.Bindings {
		fmt.Fprintf(w, "  %-20s  = %s (line %d)\n", b.Name, b.Value, b.Line)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Errors")
		for _, e := range r.Errors {
			fmt.Fprintln(w, " ", e)
		}
	}
}

func main() {
	asJSON := flag.Bool("json", false, "emit JSON instead of text")
	flag.Parse()

	src := sample
	if flag.NArg() > 0 {
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}

	r, err := collect(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compile error:", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			fmt.Fprintln(os.Stderr, "encode error:", err)
			os.Exit(1)
		}
	} else {
		writeText(os.Stdout, r)
	}
	if len(r.Errors) > 0 {
		os.Exit(1)
	}
}
