package compiler

// ScopeStack is the stack of blocks that receive emitted instructions. Only
// the top block is writable. Every block ever pushed is remembered in
// creation order so the final listing can be flattened after scopes are left.
type ScopeStack struct {
	active  []*Block
	created []*Block
}

// NewScopeStack returns a stack holding the root block.
func NewScopeStack() *ScopeStack {
	s := &ScopeStack{}
	s.Enter()
	return s
}

// Enter pushes a new empty block and makes it current.
func (s *ScopeStack) Enter() *Block {
	b := NewBlock()
	s.active = append(s.active, b)
	s.created = append(s.created, b)
	return b
}

// Leave pops the current block and returns it. What happens to its contents
// is up to the caller; they remain part of the flattened listing.
func (s *ScopeStack) Leave() (*Block, error) {
	if len(s.active) == 0 {
		return nil, ErrEmptyScope
	}
	b := s.active[len(s.active)-1]
	s.active = s.active[:len(s.active)-1]
	return b, nil
}

// Current returns the writable block.
func (s *ScopeStack) Current() (*Block, error) {
	if len(s.active) == 0 {
		return nil, ErrEmptyScope
	}
	return s.active[len(s.active)-1], nil
}

func (s *ScopeStack) Depth() int { return len(s.active) }

// Flatten concatenates all blocks in the order they were created.
func (s *ScopeStack) Flatten() []string {
	var out []string
	for _, b := range s.created {
		out = append(out, b.instrs...)
	}
	return out
}
