package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Binding records that a variable was assigned. The value is the synthesized
// expression text at the time of the assignment.
type Binding struct {
	Name  string
	Value string
	Line  int
}

// SymbolTable keeps the assignment history of each scope. It is
// informational: the translator never consults it to accept or reject a
// program, since the target has no declarations or types.
type SymbolTable struct {
	// Stack of binding contexts; index 0 is the program's root context.
	scopes [][]Binding
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{scopes: [][]Binding{nil}}
}

func (s *SymbolTable) EnterScope() {
	s.scopes = append(s.scopes, nil)
}

// ExitScope drops the innermost context. The root context is never dropped.
func (s *SymbolTable) ExitScope() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// Bind appends a binding to the innermost context.
func (s *SymbolTable) Bind(name, value string, line int) {
	top := len(s.scopes) - 1
	s.scopes[top] = append(s.scopes[top], Binding{Name: name, Value: value, Line: line})
}

// Lookup returns the most recent binding of name, searching from the
// innermost context outward.
func (s *SymbolTable) Lookup(name string) (Binding, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		scope := s.scopes[i]
		for j := len(scope) - 1; j >= 0; j-- {
			if scope[j].Name == name {
				return scope[j], true
			}
		}
	}
	return Binding{}, false
}

// Bindings returns every binding of every live context, outermost first.
func (s *SymbolTable) Bindings() []Binding {
	var out []Binding
	for _, scope := range s.scopes {
		out = append(out, scope...)
	}
	return out
}

// Names returns the distinct bound names, sorted.
func (s *SymbolTable) Names() []string {
	seen := make(map[string]struct{})
	for _, b := range s.Bindings() {
		seen[b.Name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns a deterministically ordered dump of the table.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	for i, scope := range s.scopes {
		if len(scope) == 0 {
			fmt.Fprintf(&sb, "Scope %d: (empty)\n", i)
			continue
		}
		fmt.Fprintf(&sb, "Scope %d:\n", i)
		for _, b := range scope {
			fmt.Fprintf(&sb, "  %-20s  = %s (line %d)\n", b.Name, b.Value, b.Line)
		}
	}
	return sb.String()
}
