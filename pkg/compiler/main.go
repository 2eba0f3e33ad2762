// Package compiler translates a small scripting language into the textual
// instruction set of a jump-addressed logic processor.
//
// Pipeline: source → Lexer → Parser → Translator actions → flattened blocks
//
// Translation is single pass and syntax directed. Each grammar production
// calls one Translator action, which appends to the active Block; loops are
// compiled to a backward jump whose target is taken from the JumpTracker,
// and intermediate results live in temporaries handed out by the
// TempAllocator.
package compiler
