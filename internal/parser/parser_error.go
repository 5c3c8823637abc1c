package parser

import (
	"fmt"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/diag"
	"github.com/sunholo/zion/internal/errors"
	"github.com/sunholo/zion/internal/lexer"
)

// ParseError is the sentinel panicked by the parser on the first syntax
// error. There is no error recovery: Parse catches this at the top level,
// records it in the diagnostic bag, and returns.
type ParseError struct {
	Code    string
	Message string
	Pos     ast.Pos
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Pos, e.Message)
}

func posOf(tok lexer.Token) ast.Pos {
	return ast.Pos{File: tok.File, Line: tok.Line, Column: tok.Column, Offset: tok.Offset}
}

// fail records a PAR### diagnostic and aborts parsing via panic. Caught by
// Parse's top-level recover.
func (p *Parser) fail(code string, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	pos := posOf(p.curToken)
	if p.bag != nil {
		p.bag.Errorf(code, "parse", diag.Pos{File: pos.File, Line: pos.Line, Column: pos.Column, Offset: pos.Offset}, "%s", msg)
	}
	panic(&ParseError{Code: code, Message: msg, Pos: pos})
}

// expect consumes curToken if it matches t, otherwise fails with PAR001
// quoting the unexpected token's text and kind.
func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	if !p.curTokenIs(t) {
		p.fail(errors.PAR001, "unexpected token %q (%s); expected %s",
			p.curToken.Literal, p.curToken.Type, t)
	}
	tok := p.curToken
	p.nextToken()
	return tok
}
