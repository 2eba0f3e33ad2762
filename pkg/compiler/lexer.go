package compiler

import (
	"errors"
	"strings"
	"unicode"
)

// keywords maps lower-cased source text to its reserved TokenType.
var keywords = map[string]TokenType{
	"if":    IF,
	"then":  THEN,
	"else":  ELSE,
	"while": WHILE,
}

// Lexer holds all mutable state for a single scanning pass over src.
// Tokens are produced on demand by Next; Reset restarts from the beginning.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1}
}

// Reset rewinds the lexer to the start of its source.
func (l *Lexer) Reset() {
	l.pos = 0
	l.line = 1
}

// Line returns the line the lexer is currently positioned on.
func (l *Lexer) Line() int { return l.line }

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *Lexer) skipBlanks() {
	for l.pos < len(l.src) {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

// scanNewlines collapses a run of newlines (and stray carriage returns between
// them) into a single NEWLINE token. The line counter advances once per '\n'.
func (l *Lexer) scanNewlines() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && (l.peek() == '\n' || l.peek() == '\r') {
		l.advance()
	}
	return Token{Type: NEWLINE, Lexeme: string(l.src[start:l.pos]), Line: line}
}

// scanName collects an identifier and reclassifies reserved words.
func (l *Lexer) scanName() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !isNameRune(r) && !isDigit(r) {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := NAME
	if kw, ok := keywords[strings.ToLower(lexeme)]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line}
}

func (l *Lexer) scanNumber() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	return Token{Type: NUMBER, Lexeme: string(l.src[start:l.pos]), Line: line}
}

// scanString tries to match a quoted string whose body is at least one rune
// of the string class. When that fails only the opening quote is consumed and
// a QUOTE token is produced.
func (l *Lexer) scanString() Token {
	line := l.line
	start := l.pos

	end := start + 1
	for end < len(l.src) && isStringRune(l.src[end]) {
		end++
	}
	if end == start+1 || end >= len(l.src) || l.src[end] != '"' {
		l.advance()
		return Token{Type: QUOTE, Lexeme: `"`, Line: line}
	}

	for l.pos <= end {
		l.advance()
	}
	return Token{Type: STRING, Lexeme: string(l.src[start:l.pos]), Line: line}
}

// Next returns the next token. When it meets a character it cannot classify
// it consumes that character and returns a *LexicalError instead; calling Next
// again resumes after it. At the end of input EOF is returned on every call.
func (l *Lexer) Next() (Token, error) {
	l.skipBlanks()
	if l.pos >= len(l.src) {
		return Token{Type: EOF, Lexeme: "", Line: l.line}, nil
	}

	ch := l.peek()
	line := l.line

	switch {
	case ch == '\n':
		return l.scanNewlines(), nil
	case isNameRune(ch):
		return l.scanName(), nil
	case isDigit(ch):
		return l.scanNumber(), nil
	case ch == '"':
		return l.scanString(), nil
	}

	l.advance()
	switch ch {
	case '(':
		return Token{LPAREN, "(", line}, nil
	case ')':
		return Token{RPAREN, ")", line}, nil
	case '{':
		return Token{LCURLY, "{", line}, nil
	case '}':
		return Token{RCURLY, "}", line}, nil
	case ',':
		return Token{COMMA, ",", line}, nil
	case '>':
		return Token{GREATER, ">", line}, nil
	case '<':
		return Token{LESS, "<", line}, nil
	case '=':
		return Token{EQUALS, "=", line}, nil
	case '+':
		if l.peek() == '=' {
			l.advance()
			return Token{PLUSEQUALS, "+=", line}, nil
		}
		return Token{PLUS, "+", line}, nil
	case '-':
		if l.peek() == '=' {
			l.advance()
			return Token{MINUSEQUALS, "-=", line}, nil
		}
		return Token{MINUS, "-", line}, nil
	case '*':
		if l.peek() == '=' {
			l.advance()
			return Token{TIMESEQUALS, "*=", line}, nil
		}
		return Token{TIMES, "*", line}, nil
	case '/':
		if l.peek() == '=' {
			l.advance()
			return Token{DIVIDEEQUALS, "/=", line}, nil
		}
		return Token{DIVIDE, "/", line}, nil
	}
	return Token{}, &LexicalError{Line: line, Char: ch}
}

// Lex tokenises src and returns all tokens including the final EOF token.
// Illegal characters do not stop the scan: they are skipped and reported
// together in the returned error.
func Lex(src string) ([]Token, error) {
	l := NewLexer(src)
	var tokens []Token
	var errs []error
	for {
		tok, err := l.Next()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, errors.Join(errs...)
		}
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameRune(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && unicode.IsLetter(r))
}

// isStringRune reports whether r may appear in a string literal body.
func isStringRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
		return true
	}
	return strings.ContainsRune(`()+,-./*#@|^&%=!><$\`, r)
}
