package parser

import (
	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/lexer"
)

// parseTypeRef parses a type_ref: a dotted type name, optionally followed
// by a curried application argument list and/or a trailing `?` (MaybeType).
//
// The parser never distinguishes TypeId from TypeVariable at this level —
// a bare identifier always yields a TypeId. Resolving it against a known
// generic binder (and rewriting it to a TypeVariable) is the checker's job
// once scopes exist; the parser has no notion of which names are bound.
func (p *Parser) parseTypeRef() ast.TypeExpr {
	nameTok := p.expect(lexer.IDENT)
	name := nameTok.Literal
	for p.curTokenIs(lexer.DOT) {
		p.nextToken()
		next := p.expect(lexer.IDENT)
		name += "." + next.Literal
	}

	var t ast.TypeExpr = &ast.TypeId{Name: name, Pos: posOf(nameTok)}

	if p.curTokenIs(lexer.LPAREN) {
		p.nextToken()
		for {
			arg := p.parseTypeRef()
			t = &ast.TypeOperator{Head: t, Arg: arg, Pos: posOf(nameTok)}
			if p.curTokenIs(lexer.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
		p.expect(lexer.RPAREN)
	}

	for p.curTokenIs(lexer.QUESTION) {
		qTok := p.curToken
		p.nextToken()
		t = &ast.MaybeType{Just: t, Pos: posOf(qTok)}
	}

	return t
}

// parseTypeParamList parses `[ ident {, ident} ]`, the generic parameter
// list attached to a type_def or fn_decl name.
func (p *Parser) parseTypeParamList() []string {
	p.expect(lexer.LBRACKET)
	var params []string
	for !p.curTokenIs(lexer.RBRACKET) {
		tok := p.expect(lexer.IDENT)
		params = append(params, tok.Literal)
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	p.expect(lexer.RBRACKET)
	return params
}

// parseParamList parses `param {, param}` where `param ::= ident [: type_ref]`.
func (p *Parser) parseParamList() []*ast.Param {
	var params []*ast.Param
	for !p.curTokenIs(lexer.RPAREN) {
		tok := p.expect(lexer.IDENT)
		param := &ast.Param{Name: tok.Literal, Pos: posOf(tok)}
		if p.curTokenIs(lexer.COLON) {
			p.nextToken()
			param.Type = p.parseTypeRef()
		}
		params = append(params, param)
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return params
}
