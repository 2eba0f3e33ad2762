package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF     TokenType = iota // sentinel: end of input
	NEWLINE                  // one or more consecutive '\n'

	// Literals
	NUMBER // decimal integer literal
	NAME   // variable / function name
	STRING // "..." including its quotes
	QUOTE  // a lone '"' that does not open a string

	// Reserved words (matched case-insensitively)
	IF
	THEN
	ELSE
	WHILE

	// Arithmetic operators
	PLUS   // +
	MINUS  // -
	TIMES  // *
	DIVIDE // /

	// Assignment
	EQUALS       // =
	PLUSEQUALS   // +=
	MINUSEQUALS  // -=
	TIMESEQUALS  // *=
	DIVIDEEQUALS // /=

	// Comparison
	GREATER // >
	LESS    // <

	// Structure
	LPAREN // (
	RPAREN // )
	LCURLY // {
	RCURLY // }
	COMMA  // ,
)

var tokenNames = [...]string{
	EOF:          "EOF",
	NEWLINE:      "NEWLINE",
	NUMBER:       "NUMBER",
	NAME:         "NAME",
	STRING:       "STRING",
	QUOTE:        "QUOTE",
	IF:           "IF",
	THEN:         "THEN",
	ELSE:         "ELSE",
	WHILE:        "WHILE",
	PLUS:         "PLUS",
	MINUS:        "MINUS",
	TIMES:        "TIMES",
	DIVIDE:       "DIVIDE",
	EQUALS:       "EQUALS",
	PLUSEQUALS:   "PLUSEQUALS",
	MINUSEQUALS:  "MINUSEQUALS",
	TIMESEQUALS:  "TIMESEQUALS",
	DIVIDEEQUALS: "DIVIDEEQUALS",
	GREATER:      "GREATER",
	LESS:         "LESS",
	LPAREN:       "LPAREN",
	RPAREN:       "RPAREN",
	LCURLY:       "LCURLY",
	RCURLY:       "RCURLY",
	COMMA:        "COMMA",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-12s %-14q  line %d", t.Type, t.Lexeme, t.Line)
}
