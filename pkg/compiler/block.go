package compiler

import "fmt"

// Block is an ordered run of emitted instructions. Indices never move once
// assigned: instructions can be overwritten in place, and only the tail left
// by a statement that failed to compile is ever removed.
type Block struct {
	instrs []string
}

func NewBlock() *Block {
	return &Block{}
}

func (b *Block) Append(instr string) {
	b.instrs = append(b.instrs, instr)
}

// Size is the number of instructions emitted so far, which is also the index
// the next Append will occupy.
func (b *Block) Size() int { return len(b.instrs) }

// Overwrite replaces the instruction on a 1-based line. A line past the end of
// the block is a caller bug; it is reported and the block is left unchanged.
func (b *Block) Overwrite(line int, instr string) error {
	if line < 1 || line > len(b.instrs) {
		return fmt.Errorf("overwrite line %d: block has %d instructions", line, len(b.instrs))
	}
	b.instrs[line-1] = instr
	return nil
}

// Truncate drops every instruction from index size on. Sizes outside the
// block leave it unchanged.
func (b *Block) Truncate(size int) {
	if size < 0 || size > len(b.instrs) {
		return
	}
	b.instrs = b.instrs[:size]
}

// Instructions returns a copy of the block's instructions in order.
func (b *Block) Instructions() []string {
	out := make([]string, len(b.instrs))
	copy(out, b.instrs)
	return out
}
