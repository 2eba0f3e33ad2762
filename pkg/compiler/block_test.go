package compiler

import (
	"errors"
	"reflect"
	"testing"
)

func TestBlock(t *testing.T) {
	b := NewBlock()
	if b.Size() != 0 {
		t.Fatalf("new block should be empty, size %d", b.Size())
	}
	b.Append("set x 1")
	b.Append("set y 2")
	if b.Size() != 2 {
		t.Fatalf("expected size 2, got %d", b.Size())
	}

	if err := b.Overwrite(1, "set x 9"); err != nil {
		t.Fatalf("overwrite line 1: %v", err)
	}
	want := []string{"set x 9", "set y 2"}
	if got := b.Instructions(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	for _, line := range []int{0, 3, -1} {
		if err := b.Overwrite(line, "end"); err == nil {
			t.Errorf("overwrite line %d should fail", line)
		}
	}
	if got := b.Instructions(); !reflect.DeepEqual(got, want) {
		t.Errorf("failed overwrite changed the block: %v", got)
	}

	// Instructions returns a copy.
	b.Instructions()[0] = "end"
	if b.Instructions()[0] != "set x 9" {
		t.Errorf("Instructions leaked internal storage")
	}
}

func TestBlockTruncate(t *testing.T) {
	b := NewBlock()
	b.Append("set x 1")
	b.Append("set y 2")
	b.Append("set z 3")

	for _, size := range []int{-1, 4} {
		b.Truncate(size)
		if b.Size() != 3 {
			t.Errorf("truncate to %d changed the block: size %d", size, b.Size())
		}
	}

	b.Truncate(1)
	if want := []string{"set x 1"}; !reflect.DeepEqual(b.Instructions(), want) {
		t.Errorf("expected %v, got %v", want, b.Instructions())
	}
	b.Append("end")
	if b.Size() != 2 {
		t.Errorf("expected append after truncate at index 1, size %d", b.Size())
	}
}

func TestScopeStack(t *testing.T) {
	s := NewScopeStack()
	if s.Depth() != 1 {
		t.Fatalf("expected root block, depth %d", s.Depth())
	}
	root, _ := s.Current()
	root.Append("set a 1")

	inner := s.Enter()
	inner.Append("set b 2")
	cur, _ := s.Current()
	if cur != inner {
		t.Fatalf("Enter did not make the new block current")
	}
	root.Append("set c 3")

	if b, err := s.Leave(); err != nil || b != inner {
		t.Fatalf("Leave returned %v, %v", b, err)
	}

	want := []string{"set a 1", "set c 3", "set b 2"}
	if got := s.Flatten(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected creation-order flatten %v, got %v", want, got)
	}

	if _, err := s.Leave(); err != nil {
		t.Fatalf("leaving root: %v", err)
	}
	if _, err := s.Current(); !errors.Is(err, ErrEmptyScope) {
		t.Errorf("expected ErrEmptyScope, got %v", err)
	}
	if _, err := s.Leave(); !errors.Is(err, ErrEmptyScope) {
		t.Errorf("expected ErrEmptyScope on empty Leave, got %v", err)
	}
	if got := s.Flatten(); len(got) != 3 {
		t.Errorf("flatten after leaving everything should keep instructions, got %v", got)
	}
}

func TestJumpTracker(t *testing.T) {
	j := NewJumpTracker()
	j.Open(0)
	j.Open(4)
	if top, ok := j.Peek(); !ok || top != 4 {
		t.Errorf("Peek = %d, %v", top, ok)
	}
	if j.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", j.Depth())
	}
	if got, _ := j.Close(); got != 4 {
		t.Errorf("expected innermost target 4, got %d", got)
	}
	if got, _ := j.Close(); got != 0 {
		t.Errorf("expected outer target 0, got %d", got)
	}
	if _, err := j.Close(); !errors.Is(err, ErrLoopUnderflow) {
		t.Errorf("expected ErrLoopUnderflow, got %v", err)
	}
}

func TestSymbolTable(t *testing.T) {
	s := NewSymbolTable()
	s.Bind("x", "1", 1)
	s.EnterScope()
	s.Bind("x", "tempopvar0", 2)
	s.Bind("y", "x", 3)

	if b, ok := s.Lookup("x"); !ok || b.Value != "tempopvar0" || b.Line != 2 {
		t.Errorf("expected inner binding of x, got %+v", b)
	}
	if names := s.Names(); !reflect.DeepEqual(names, []string{"x", "y"}) {
		t.Errorf("unexpected names %v", names)
	}

	s.ExitScope()
	if b, _ := s.Lookup("x"); b.Value != "1" {
		t.Errorf("expected outer binding after ExitScope, got %+v", b)
	}
	if _, ok := s.Lookup("y"); ok {
		t.Errorf("y should be gone with its scope")
	}

	s.ExitScope()
	if _, ok := s.Lookup("x"); !ok {
		t.Errorf("root scope must never be dropped")
	}
}
