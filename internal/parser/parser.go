// Package parser implements Zion's hand-written recursive-descent parser
// with explicit precedence climbing for binary operators.
package parser

import (
	"strconv"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/diag"
	"github.com/sunholo/zion/internal/errors"
	"github.com/sunholo/zion/internal/lexer"
)

// Precedence levels, lowest to highest:
// or < and < eq/ineq <= plus/minus < times/divide/mod < prefix < postfix(., [], call) < atom
const (
	LOWEST  int = iota
	TERNARY     // then_expr if cond else else_expr
	LOGOR
	LOGAND
	EQUALITY
	RELATIONAL
	ADDITIVE
	MULTIPLICATIVE
	PREFIX
	POSTFIX
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// Parser parses Zion source into an AST. There is no error recovery: the
// first syntax error panics a *ParseError, caught by Parse.
//
// Every parse method, whatever its shape, observes one invariant: when it
// returns, curToken is already sitting on the first token it did not
// consume. Prefix and infix parse functions are no exception — they
// advance past their own last token before returning, rather than leaving
// it for the caller to skip. This keeps token bookkeeping uniform across
// the Pratt expression core and the plain recursive-descent statement and
// type grammar, instead of mixing two different lookahead conventions.
type Parser struct {
	l         *lexer.Lexer
	bag       *diag.Bag
	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn

	typeMacros map[string][]lexer.Token // module-level type-alias macros (spec §4.2 "Macros")
}

// New creates a Parser reading from l. bag may be nil for callers that only
// want a best-effort AST without diagnostic plumbing (tests).
func New(l *lexer.Lexer, bag *diag.Bag) *Parser {
	p := &Parser{l: l, bag: bag, typeMacros: make(map[string][]lexer.Token)}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.CHAR, p.parseCharLiteral)
	p.registerPrefix(lexer.ATOM, p.parseAtomLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.NIL, p.parseNilLiteral)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedOrTuple)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpr)
	p.registerPrefix(lexer.PLUS, p.parsePrefixExpr)
	p.registerPrefix(lexer.NOT, p.parsePrefixExpr)
	p.registerPrefix(lexer.SIZEOF, p.parseSizeofExpr)
	p.registerPrefix(lexer.GET_TYPEID, p.parseTypeidExpr)
	p.registerPrefix(lexer.DEF, p.parseFuncDefExpr)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	p.registerInfix(lexer.PLUS, p.parsePlusExpr)
	p.registerInfix(lexer.MINUS, p.parsePlusExpr)
	p.registerInfix(lexer.STAR, p.parseTimesExpr)
	p.registerInfix(lexer.SLASH, p.parseTimesExpr)
	p.registerInfix(lexer.PERCENT, p.parseTimesExpr)
	p.registerInfix(lexer.EQ, p.parseEqExpr)
	p.registerInfix(lexer.NEQ, p.parseEqExpr)
	p.registerInfix(lexer.IS, p.parseEqExpr)
	p.registerInfix(lexer.IN, p.parseEqExpr)
	p.registerInfix(lexer.HAS, p.parseEqExpr)
	p.registerInfix(lexer.MATCHES, p.parseEqExpr)
	p.registerInfix(lexer.LT, p.parseIneqExpr)
	p.registerInfix(lexer.GT, p.parseIneqExpr)
	p.registerInfix(lexer.LTE, p.parseIneqExpr)
	p.registerInfix(lexer.GTE, p.parseIneqExpr)
	p.registerInfix(lexer.AND, p.parseAndExpr)
	p.registerInfix(lexer.OR, p.parseOrExpr)
	p.registerInfix(lexer.DOT, p.parseDotAccess)
	p.registerInfix(lexer.LBRACKET, p.parseArrayIndex)
	p.registerInfix(lexer.LPAREN, p.parseCallsite)
	p.registerInfix(lexer.AS, p.parseCastExpr)

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t lexer.TokenType, fn prefixParseFn) { p.prefixParseFns[t] = fn }
func (p *Parser) registerInfix(t lexer.TokenType, fn infixParseFn)   { p.infixParseFns[t] = fn }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	// Module-level type macros substitute at the token level during
	// type_ref parsing (spec §4.2 "Macros"): a bare IDENT matching an
	// installed macro is rewritten in place before the parser ever sees it.
	if p.curToken.Type == lexer.IDENT {
		if expansion, ok := p.typeMacros[p.curToken.Literal]; ok && len(expansion) > 0 {
			p.curToken = expansion[0]
		}
	}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) curPos() ast.Pos { return posOf(p.curToken) }

// skipNewlines consumes zero or more NEWLINE/SEMI statement separators.
func (p *Parser) skipNewlines() {
	for p.curTokenIs(lexer.NEWLINE) || p.curTokenIs(lexer.SEMI) {
		p.nextToken()
	}
}

// InstallTypeMacro registers a module-level type-alias macro (spec §4.2):
// subsequent appearances of name in type position are rewritten to expand
// to the given token (e.g. "vector" -> "vector.vector").
func (p *Parser) InstallTypeMacro(name string, expansion []lexer.Token) {
	p.typeMacros[name] = expansion
}

// Parse parses an entire source file into a Module. The module name comes
// from the leading module_decl.
func (p *Parser) Parse() (mod *ast.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*ParseError); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()
	return p.parseModule(), nil
}

func (p *Parser) parseModule() *ast.Module {
	p.skipNewlines()
	startPos := p.curPos()

	p.expect(lexer.MODULE)
	nameTok := p.expect(lexer.IDENT)
	mod := &ast.Module{Name: nameTok.Literal, Pos: startPos}

	if p.curTokenIs(lexer.VERSION) {
		mod.Version = p.curToken.Literal
		p.nextToken()
	}
	p.skipNewlines()

	for !p.curTokenIs(lexer.EOF) {
		decl := p.parseModuleDecl()
		if decl != nil {
			mod.Decls = append(mod.Decls, decl)
		}
		p.skipNewlines()
	}
	return mod
}

// parseModuleDecl parses one of: link | type_def | fn_defn | var_decl.
func (p *Parser) parseModuleDecl() ast.Stmt {
	switch p.curToken.Type {
	case lexer.LINK:
		return p.parseLinkDecl()
	case lexer.TYPE:
		return p.parseTypeDef()
	case lexer.TAG:
		return p.parseTagDecl()
	case lexer.DEF:
		return p.parseFuncDefStmt(false)
	default:
		return p.parseStatement()
	}
}

// parseExpression implements precedence climbing over the prefix/infix
// function tables, then checks for a trailing ternary suffix. Every
// prefix/infix function consumes its own tokens and leaves curToken on
// the first token it did not use, so the loop below reads curToken
// directly rather than peeking ahead of it.
func (p *Parser) parseExpression(precedence int) ast.Expr {
	prefix, ok := p.prefixParseFns[p.curToken.Type]
	if !ok {
		p.fail(errors.PAR001, "unexpected token %q (%s) in expression", p.curToken.Literal, p.curToken.Type)
	}
	left := prefix()

	for precedence < tokenPrecedence(p.curToken.Type) {
		infix, ok := p.infixParseFns[p.curToken.Type]
		if !ok {
			break
		}
		left = infix(left)
	}

	if precedence < TERNARY && p.curTokenIs(lexer.IF) {
		pos := p.curPos()
		p.nextToken() // consume 'if'
		cond := p.parseExpression(TERNARY)
		p.expect(lexer.ELSE)
		elseExpr := p.parseExpression(TERNARY)
		left = &ast.TernaryExpr{Cond: cond, Then: left, Else: elseExpr, Pos: pos}
	}

	return left
}

func (p *Parser) curPrecedence() int { return tokenPrecedence(p.curToken.Type) }

// tokenPrecedence maps a token directly to this parser's precedence
// ladder; kept separate from lexer.Token.Precedence() because the ternary
// and postfix tiers are parser-level concerns, not lexical ones. Every
// token not named here (NEWLINE, SEMI, EOF, closing delimiters, COMMA,
// COLON, keywords that start other constructs) sorts to LOWEST, which
// stops the precedence-climbing loop without special-casing them.
func tokenPrecedence(t lexer.TokenType) int {
	switch t {
	case lexer.OR:
		return LOGOR
	case lexer.AND:
		return LOGAND
	case lexer.EQ, lexer.NEQ, lexer.IS, lexer.IN, lexer.HAS, lexer.MATCHES:
		return EQUALITY
	case lexer.LT, lexer.GT, lexer.LTE, lexer.GTE:
		return RELATIONAL
	case lexer.PLUS, lexer.MINUS:
		return ADDITIVE
	case lexer.STAR, lexer.SLASH, lexer.PERCENT:
		return MULTIPLICATIVE
	case lexer.DOT, lexer.LBRACKET, lexer.LPAREN, lexer.AS:
		return POSTFIX
	default:
		return LOWEST
	}
}

// ---------------------------------------------------------------------
// Prefix parse functions
// ---------------------------------------------------------------------

func (p *Parser) parseIdentifier() ast.Expr {
	tok := p.curToken
	p.nextToken()
	return &ast.Reference{Name: tok.Literal, Pos: posOf(tok)}
}

func (p *Parser) parseIntLiteral() ast.Expr {
	tok := p.curToken
	v, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.fail(errors.PAR001, "invalid integer literal %q", tok.Literal)
	}
	p.nextToken()
	return &ast.Literal{Kind: ast.IntLit, Value: v, Pos: posOf(tok)}
}

func (p *Parser) parseFloatLiteral() ast.Expr {
	tok := p.curToken
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.fail(errors.PAR001, "invalid float literal %q", tok.Literal)
	}
	p.nextToken()
	return &ast.Literal{Kind: ast.FloatLit, Value: v, Pos: posOf(tok)}
}

func (p *Parser) parseStringLiteral() ast.Expr {
	tok := p.curToken
	p.nextToken()
	return &ast.Literal{Kind: ast.StringLit, Value: tok.Literal, Pos: posOf(tok)}
}

func (p *Parser) parseCharLiteral() ast.Expr {
	tok := p.curToken
	r := []rune(tok.Literal)
	var v rune
	if len(r) > 0 {
		v = r[0]
	}
	p.nextToken()
	return &ast.Literal{Kind: ast.CharLit, Value: v, Pos: posOf(tok)}
}

func (p *Parser) parseAtomLiteral() ast.Expr {
	tok := p.curToken
	p.nextToken()
	return &ast.Literal{Kind: ast.AtomLit, Value: tok.Literal, Pos: posOf(tok)}
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	tok := p.curToken
	isTrue := p.curTokenIs(lexer.TRUE)
	p.nextToken()
	return &ast.Literal{Kind: ast.BoolLit, Value: isTrue, Pos: posOf(tok)}
}

func (p *Parser) parseNilLiteral() ast.Expr {
	tok := p.curToken
	p.nextToken()
	return &ast.Literal{Kind: ast.NilLit, Value: nil, Pos: posOf(tok)}
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	tok := p.curToken
	op := tok.Literal
	if p.curTokenIs(lexer.NOT) {
		op = "not"
	}
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	return &ast.PrefixExpr{Op: op, Operand: operand, Pos: posOf(tok)}
}

// parseGroupedOrTuple disambiguates `(expr)` grouping from `(a, b, ...)`
// tuple construction by the presence of a comma after the first element.
func (p *Parser) parseGroupedOrTuple() ast.Expr {
	pos := p.curPos()
	p.nextToken() // consume '('

	if p.curTokenIs(lexer.RPAREN) {
		p.nextToken()
		return &ast.TupleExpr{Pos: pos}
	}

	first := p.parseExpression(LOWEST)
	if p.curTokenIs(lexer.COMMA) {
		elems := []ast.Expr{first}
		for p.curTokenIs(lexer.COMMA) {
			p.nextToken() // consume ','
			elems = append(elems, p.parseExpression(LOWEST))
		}
		p.expect(lexer.RPAREN)
		return &ast.TupleExpr{Elements: elems, Pos: pos}
	}

	p.expect(lexer.RPAREN)
	return first
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	pos := p.curPos()
	arr := &ast.ArrayLiteral{Pos: pos}
	p.nextToken() // consume '['

	for !p.curTokenIs(lexer.RBRACKET) {
		arr.Elements = append(arr.Elements, p.parseExpression(LOWEST))
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	p.expect(lexer.RBRACKET)
	return arr
}

func (p *Parser) parseSizeofExpr() ast.Expr {
	pos := p.curPos()
	p.expect(lexer.SIZEOF)
	p.expect(lexer.LPAREN)
	target := p.parseTypeRef()
	p.expect(lexer.RPAREN)
	return &ast.SizeofExpr{Target: target, Pos: pos}
}

func (p *Parser) parseTypeidExpr() ast.Expr {
	pos := p.curPos()
	p.expect(lexer.GET_TYPEID)
	p.expect(lexer.LPAREN)
	operand := p.parseExpression(LOWEST)
	p.expect(lexer.RPAREN)
	return &ast.TypeidExpr{Operand: operand, Pos: pos}
}

// parseFuncDefExpr parses a `def (params) [type_ref]: block` used as an
// expression (a lambda value), distinguished from a FuncDefStmt by the
// absence of a name.
func (p *Parser) parseFuncDefExpr() ast.Expr {
	pos := p.curPos()
	p.expect(lexer.DEF)
	p.expect(lexer.LPAREN)
	params := p.parseParamList()
	p.expect(lexer.RPAREN)

	var retType ast.TypeExpr
	if !p.curTokenIs(lexer.COLON) {
		retType = p.parseTypeRef()
	}
	p.expect(lexer.COLON)
	body := p.parseBlock()
	return &ast.FuncDefExpr{Params: params, ReturnType: retType, Body: body, Pos: pos}
}

// ---------------------------------------------------------------------
// Infix parse functions. Each is invoked with curToken on the operator
// itself (the precedence loop never advances past it first).
// ---------------------------------------------------------------------

func (p *Parser) parsePlusExpr(left ast.Expr) ast.Expr {
	tok := p.curToken
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.PlusExpr{Left: left, Op: tok.Literal, Right: right, Pos: posOf(tok)}
}

func (p *Parser) parseTimesExpr(left ast.Expr) ast.Expr {
	tok := p.curToken
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.TimesExpr{Left: left, Op: tok.Literal, Right: right, Pos: posOf(tok)}
}

func (p *Parser) parseEqExpr(left ast.Expr) ast.Expr {
	tok := p.curToken
	prec := p.curPrecedence()
	op := tok.Literal
	if op == "" {
		op = tok.Type.String()
	}
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.EqExpr{Left: left, Op: op, Right: right, Pos: posOf(tok)}
}

func (p *Parser) parseIneqExpr(left ast.Expr) ast.Expr {
	tok := p.curToken
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.IneqExpr{Left: left, Op: tok.Literal, Right: right, Pos: posOf(tok)}
}

func (p *Parser) parseAndExpr(left ast.Expr) ast.Expr {
	tok := p.curToken
	p.nextToken()
	right := p.parseExpression(LOGAND)
	return &ast.AndExpr{Left: left, Right: right, Pos: posOf(tok)}
}

func (p *Parser) parseOrExpr(left ast.Expr) ast.Expr {
	tok := p.curToken
	p.nextToken()
	right := p.parseExpression(LOGOR)
	return &ast.OrExpr{Left: left, Right: right, Pos: posOf(tok)}
}

func (p *Parser) parseDotAccess(left ast.Expr) ast.Expr {
	pos := p.curPos()
	p.expect(lexer.DOT)
	field := p.expect(lexer.IDENT)
	return &ast.DotAccess{Target: left, Field: field.Literal, Pos: pos}
}

func (p *Parser) parseArrayIndex(left ast.Expr) ast.Expr {
	pos := p.curPos()
	p.expect(lexer.LBRACKET)
	idx := p.parseExpression(LOWEST)
	p.expect(lexer.RBRACKET)
	return &ast.ArrayIndex{Target: left, Index: idx, Pos: pos}
}

func (p *Parser) parseCallsite(left ast.Expr) ast.Expr {
	pos := p.curPos()
	p.expect(lexer.LPAREN)
	var args []ast.Expr
	for !p.curTokenIs(lexer.RPAREN) {
		args = append(args, p.parseExpression(LOWEST))
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN)
	return &ast.Callsite{Callee: left, Args: args, Pos: pos}
}

func (p *Parser) parseCastExpr(left ast.Expr) ast.Expr {
	pos := p.curPos()
	p.expect(lexer.AS)
	target := p.parseTypeRef()
	return &ast.CastExpr{Operand: left, Target: target, Pos: pos}
}
