package compiler

import (
	"errors"
	"fmt"
)

// Parser pulls tokens from a Lexer and drives a Translator. There is no
// syntax tree: every production calls its translator action as soon as its
// children have been parsed, so instructions are emitted in reduction order.
//
// Grammar (lowest precedence first):
//
//	program    = (statement | NEWLINE)* EOF
//	statement  = NAME "=" expr
//	           | NAME ("+=" | "-=" | "*=" | "/=") expr
//	           | NAME "(" (expr ("," expr)*)? ")"
//	           | "while" expr NEWLINE* "{" (statement | NEWLINE)* "}"
//	           | expr
//	expr       = additive (("<" | ">") "="? additive)*
//	additive   = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = unary (("*" | "/") unary)*
//	unary      = "-" unary | primary
//	primary    = NUMBER | STRING | QUOTE STRING QUOTE | NAME | "(" expr ")"
//
// Syntax errors are collected and parsing resumes at the next statement
// boundary. Only errors that leave the translator unusable stop the parse.
type Parser struct {
	lex   *Lexer
	tr    *Translator
	tok   Token
	ahead []Token
	diags Diagnostics
	depth int // while bodies currently open
}

func NewParser(lex *Lexer, tr *Translator) *Parser {
	p := &Parser{lex: lex, tr: tr}
	p.tok = p.fetch()
	return p
}

// Diagnostics returns the lexical, syntax and compile errors found so far.
func (p *Parser) Diagnostics() Diagnostics { return p.diags }

// fetch returns the next token from the lexer, recording and skipping
// illegal characters.
func (p *Parser) fetch() Token {
	for {
		tok, err := p.lex.Next()
		if err == nil {
			return tok
		}
		p.diags = append(p.diags, err)
	}
}

// peek returns the token after the current one without consuming anything.
func (p *Parser) peek() Token {
	if len(p.ahead) == 0 {
		p.ahead = append(p.ahead, p.fetch())
	}
	return p.ahead[0]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.tok
	if tok.Type == EOF {
		return tok
	}
	if len(p.ahead) > 0 {
		p.tok = p.ahead[0]
		p.ahead = p.ahead[1:]
	} else {
		p.tok = p.fetch()
	}
	p.tr.SetLine(tok.Line)
	return tok
}

func (p *Parser) syntaxError(tok Token, format string, args ...any) error {
	return &SyntaxError{Line: tok.Line, Token: tok, Msg: fmt.Sprintf(format, args...)}
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType, what string) (Token, error) {
	if p.tok.Type != tt {
		return p.tok, p.syntaxError(p.tok, "expected %s", what)
	}
	return p.advance(), nil
}

func (p *Parser) skipNewlines() {
	for p.tok.Type == NEWLINE {
		p.advance()
	}
}

// fatal reports whether err leaves the translator in a state that cannot be
// recovered from.
func fatal(err error) bool {
	return errors.Is(err, ErrEmptyScope) || errors.Is(err, ErrLoopUnderflow)
}

// ParseProgram parses until EOF. The returned error is non-nil only for a
// fatal error; everything else is available from Diagnostics.
func (p *Parser) ParseProgram() error {
	for p.tok.Type != EOF {
		switch p.tok.Type {
		case NEWLINE:
			p.advance()
		case RCURLY:
			p.diags = append(p.diags, p.syntaxError(p.tok, "unexpected '}'"))
			p.advance()
		default:
			if err := p.statement(); err != nil {
				return err
			}
		}
	}
	return nil
}

// statement parses one statement and recovers from its errors. A failed
// statement leaves nothing behind: its instructions and temporaries are
// dropped.
func (p *Parser) statement() error {
	snap := p.tr.Temps().Snapshot()
	mark := p.tr.Checkpoint()
	err := p.parseStatement()
	if err == nil {
		return nil
	}
	if fatal(err) {
		return err
	}
	p.diags = append(p.diags, err)
	p.tr.Temps().ReleaseExcept(snap)
	p.tr.Rewind(mark)
	p.sync()
	return nil
}

// sync skips to the next NEWLINE or '}' outside any braces skipped along the
// way, so the body of a loop whose header failed is skipped whole. A '}' that
// closes an open loop body is left for the body to consume; at top level it
// is swallowed so the loop that failed to open does not produce a second
// error.
func (p *Parser) sync() {
	open := 0
	for {
		switch p.tok.Type {
		case EOF:
			return
		case NEWLINE:
			if open == 0 {
				return
			}
		case LCURLY:
			open++
		case RCURLY:
			if open > 0 {
				open--
				break
			}
			if p.depth == 0 {
				p.advance()
			}
			return
		}
		p.advance()
	}
}

func (p *Parser) parseStatement() error {
	switch p.tok.Type {
	case WHILE:
		return p.parseWhile()
	case IF, THEN, ELSE:
		return p.syntaxError(p.tok, "%q is reserved but not supported", p.tok.Lexeme)
	case NAME:
		switch next := p.peek().Type; next {
		case EQUALS:
			name := p.advance().Lexeme
			p.advance()
			v, err := p.parseExpr()
			if err != nil {
				return err
			}
			return p.tr.Assign(name, v)
		case PLUSEQUALS, MINUSEQUALS, TIMESEQUALS, DIVIDEEQUALS:
			name := p.advance().Lexeme
			p.advance()
			v, err := p.parseExpr()
			if err != nil {
				return err
			}
			return p.tr.CompoundAssign(next, name, v)
		case LPAREN:
			return p.parseCall()
		}
	}

	v, err := p.parseExpr()
	if err != nil {
		return err
	}
	p.tr.ExprStatement(v)
	return nil
}

func (p *Parser) parseCall() error {
	name := p.advance().Lexeme
	p.advance() // (

	var args []Value
	if p.tok.Type != RPAREN {
		for {
			v, err := p.parseExpr()
			if err != nil {
				return err
			}
			args = append(args, v)
			if p.tok.Type != COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(RPAREN, "')' after arguments"); err != nil {
		return err
	}
	return p.tr.Call(name, args)
}

// parseWhile opens the loop before the keyword is consumed, so the loop's
// target is the index of the first instruction of its condition.
func (p *Parser) parseWhile() error {
	if err := p.tr.OpenLoop(); err != nil {
		return err
	}
	p.advance()
	p.depth++
	defer func() { p.depth-- }()

	cond, err := p.parseExpr()
	if err != nil {
		p.tr.AbandonLoop()
		return err
	}
	p.skipNewlines()
	if _, err := p.expect(LCURLY, "'{' after loop condition"); err != nil {
		p.tr.AbandonLoop()
		return err
	}

	for {
		switch p.tok.Type {
		case RCURLY:
			p.advance()
			return p.tr.CloseLoop(cond)
		case NEWLINE:
			p.advance()
		case EOF:
			p.tr.AbandonLoop()
			return p.syntaxError(p.tok, "expected '}' to close loop")
		default:
			if err := p.statement(); err != nil {
				return err
			}
		}
	}
}

func (p *Parser) parseExpr() (Value, error) {
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Value, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return Value{}, err
	}
	for p.tok.Type == GREATER || p.tok.Type == LESS {
		op := p.advance().Type
		orEqual := false
		if p.tok.Type == EQUALS {
			p.advance()
			orEqual = true
		}
		right, err := p.parseAdditive()
		if err != nil {
			return Value{}, err
		}
		if left, err = p.tr.Compare(op, orEqual, left, right); err != nil {
			return Value{}, err
		}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Value, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return Value{}, err
	}
	for p.tok.Type == PLUS || p.tok.Type == MINUS {
		op := p.advance().Type
		right, err := p.parseMultiplicative()
		if err != nil {
			return Value{}, err
		}
		if left, err = p.tr.Binary(op, left, right); err != nil {
			return Value{}, err
		}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Value{}, err
	}
	for p.tok.Type == TIMES || p.tok.Type == DIVIDE {
		op := p.advance().Type
		right, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		if left, err = p.tr.Binary(op, left, right); err != nil {
			return Value{}, err
		}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Value, error) {
	if p.tok.Type == MINUS {
		p.advance()
		v, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		return p.tr.Negate(v)
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Value, error) {
	tok := p.tok
	switch tok.Type {
	case NUMBER:
		p.advance()
		return p.tr.Number(tok.Lexeme), nil
	case STRING:
		p.advance()
		return p.tr.StringLit(tok.Lexeme), nil
	case QUOTE:
		p.advance()
		str, err := p.expect(STRING, "string after '\"'")
		if err != nil {
			return Value{}, err
		}
		closing, err := p.expect(QUOTE, "closing '\"'")
		if err != nil {
			return Value{}, err
		}
		return p.tr.Quoted(tok.Lexeme, str.Lexeme, closing.Lexeme), nil
	case NAME:
		if p.peek().Type == LPAREN {
			return Value{}, p.syntaxError(tok, "call to %q cannot be used as a value", tok.Lexeme)
		}
		p.advance()
		return p.tr.Name(tok.Lexeme), nil
	case LPAREN:
		p.advance()
		v, err := p.parseExpr()
		if err != nil {
			return Value{}, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return Value{}, err
		}
		return p.tr.Group(v), nil
	}
	return Value{}, p.syntaxError(tok, "expected expression")
}
