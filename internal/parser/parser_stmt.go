package parser

import (
	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/errors"
	"github.com/sunholo/zion/internal/lexer"
)

// parseBlock consumes `NEWLINE INDENT statement+ OUTDENT`: the body of any
// construct that ends its header with a colon.
func (p *Parser) parseBlock() []ast.Stmt {
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)

	var stmts []ast.Stmt
	for !p.curTokenIs(lexer.OUTDENT) && !p.curTokenIs(lexer.EOF) {
		if p.curTokenIs(lexer.NEWLINE) || p.curTokenIs(lexer.SEMI) {
			p.nextToken()
			continue
		}
		stmts = append(stmts, p.parseStatement())
	}
	p.expect(lexer.OUTDENT)
	return stmts
}

// parseStatement dispatches on the leading token of the statement
// alternation: var_decl | if | while | for | when | return | pass | break
// | continue | fn_defn | type_def | assignment | expression.
func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case lexer.VAR:
		return p.parseVarDeclStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.WHEN:
		return p.parseWhenStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.PASS:
		tok := p.curToken
		p.nextToken()
		return &ast.PassStmt{Pos: posOf(tok)}
	case lexer.BREAK:
		tok := p.curToken
		p.nextToken()
		return &ast.BreakStmt{Pos: posOf(tok)}
	case lexer.CONTINUE:
		tok := p.curToken
		p.nextToken()
		return &ast.ContinueStmt{Pos: posOf(tok)}
	case lexer.DEF:
		return p.parseFuncDefStmt(false)
	case lexer.TYPE:
		return p.parseTypeDef()
	case lexer.IDENT:
		if p.peekTokenIs(lexer.WALRUS) {
			return p.parseNameAssignDecl()
		}
		return p.parseAssignmentOrExprStmt()
	default:
		return p.parseAssignmentOrExprStmt()
	}
}

// parseNameAssignDecl parses the `ident := expr` sugar (spec §4.2
// "Name-assignment sugar") as a VarDecl with an inferred type.
func (p *Parser) parseNameAssignDecl() ast.Stmt {
	nameTok := p.curToken
	p.nextToken() // consume WALRUS's left ident, curToken now WALRUS
	p.nextToken() // consume WALRUS, curToken now start of expr
	init := p.parseExpression(LOWEST)
	return &ast.VarDecl{Name: nameTok.Literal, Init: init, Pos: posOf(nameTok)}
}

// parseVarDeclStmt parses `var ident [: Type] [= expr]`.
func (p *Parser) parseVarDeclStmt() ast.Stmt {
	tok := p.curToken
	p.expect(lexer.VAR)
	nameTok := p.expect(lexer.IDENT)
	decl := &ast.VarDecl{Name: nameTok.Literal, Pos: posOf(tok)}

	if p.curTokenIs(lexer.COLON) {
		p.nextToken()
		decl.Type = p.parseTypeRef()
	}
	if p.curTokenIs(lexer.ASSIGN) || p.curTokenIs(lexer.WALRUS) {
		p.nextToken()
		decl.Init = p.parseExpression(LOWEST)
	}
	return decl
}

// parseConditionDecl parses the optional var_decl permitted in if/while/
// when header position (condition-position var_decl, spec §4.2): either
// the full `var ident ...` form or the bare `ident := expr` sugar. The
// resulting VarDecl is marked ScopedToThen, scoping it to the construct's
// then/body block.
func (p *Parser) parseConditionDecl() *ast.VarDecl {
	var decl *ast.VarDecl
	switch {
	case p.curTokenIs(lexer.VAR):
		decl = p.parseVarDeclStmt().(*ast.VarDecl)
	case p.curTokenIs(lexer.IDENT) && p.peekTokenIs(lexer.WALRUS):
		decl = p.parseNameAssignDecl().(*ast.VarDecl)
	default:
		return nil
	}
	decl.ScopedToThen = true
	return decl
}

// parseAssignmentOrExprStmt parses an expression, then checks for a
// trailing assignment operator to build an AssignStmt instead.
func (p *Parser) parseAssignmentOrExprStmt() ast.Stmt {
	pos := p.curPos()
	target := p.parseExpression(LOWEST)

	if op, ok := assignOp(p.curToken.Type); ok {
		opTok := p.curToken
		p.nextToken()
		value := p.parseExpression(LOWEST)
		return &ast.AssignStmt{Target: target, Op: op, Value: value, Pos: posOf(opTok)}
	}

	return &ast.ExprStmt{X: target, Pos: pos}
}

func assignOp(t lexer.TokenType) (string, bool) {
	switch t {
	case lexer.ASSIGN:
		return "=", true
	case lexer.PLUS_ASSIGN:
		return "+=", true
	case lexer.MINUS_ASSIGN:
		return "-=", true
	case lexer.STAR_ASSIGN:
		return "*=", true
	case lexer.SLASH_ASSIGN:
		return "/=", true
	case lexer.PCT_ASSIGN:
		return "%=", true
	default:
		return "", false
	}
}

// parseHeaderCond resolves the condition expression of an if/elif/while
// header. When a condition-position var_decl was present, the decl itself
// is the condition (spec §4.2 "Name-assignment sugar"): the header's
// value is a reference to the declared name. Otherwise the header is a
// plain expression.
func (p *Parser) parseHeaderCond(decl *ast.VarDecl) ast.Expr {
	if decl != nil {
		return &ast.Reference{Name: decl.Name, Pos: decl.Pos}
	}
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseIfStmt() ast.Stmt {
	tok := p.curToken
	p.expect(lexer.IF)
	decl := p.parseConditionDecl()
	cond := p.parseHeaderCond(decl)
	p.expect(lexer.COLON)
	then := p.parseBlock()

	stmt := &ast.IfStmt{Cond: cond, Decl: decl, Then: then, Pos: posOf(tok)}

	if p.curTokenIs(lexer.ELIF) {
		stmt.Else = []ast.Stmt{p.parseElifChain()}
	} else if p.curTokenIs(lexer.ELSE) {
		p.nextToken()
		p.expect(lexer.COLON)
		stmt.Else = p.parseBlock()
	}
	return stmt
}

// parseElifChain turns `elif cond: body ...` into a nested IfStmt, the
// same representation parseIfStmt already uses for its Else field.
func (p *Parser) parseElifChain() ast.Stmt {
	tok := p.curToken
	p.expect(lexer.ELIF)
	decl := p.parseConditionDecl()
	cond := p.parseHeaderCond(decl)
	p.expect(lexer.COLON)
	then := p.parseBlock()

	stmt := &ast.IfStmt{Cond: cond, Decl: decl, Then: then, Pos: posOf(tok)}
	if p.curTokenIs(lexer.ELIF) {
		stmt.Else = []ast.Stmt{p.parseElifChain()}
	} else if p.curTokenIs(lexer.ELSE) {
		p.nextToken()
		p.expect(lexer.COLON)
		stmt.Else = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	tok := p.curToken
	p.expect(lexer.WHILE)
	decl := p.parseConditionDecl()
	cond := p.parseHeaderCond(decl)
	p.expect(lexer.COLON)
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Decl: decl, Body: body, Pos: posOf(tok)}
}

func (p *Parser) parseForStmt() ast.Stmt {
	tok := p.curToken
	p.expect(lexer.FOR)
	varTok := p.expect(lexer.IDENT)
	p.expect(lexer.IN)
	iterable := p.parseExpression(LOWEST)
	p.expect(lexer.COLON)
	body := p.parseBlock()
	return &ast.ForStmt{Var: varTok.Literal, Iterable: iterable, Body: body, Pos: posOf(tok)}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	tok := p.curToken
	p.expect(lexer.RETURN)
	if p.curTokenIs(lexer.NEWLINE) || p.curTokenIs(lexer.SEMI) || p.curTokenIs(lexer.OUTDENT) || p.curTokenIs(lexer.EOF) {
		return &ast.ReturnStmt{Pos: posOf(tok)}
	}
	value := p.parseExpression(LOWEST)
	return &ast.ReturnStmt{Value: value, Pos: posOf(tok)}
}

// parseWhenStmt parses `when scrutinee: (is TypeExpr: block)+ [else: block]`
// (spec §4.2 "Pattern-match parsing"): one or more type-keyed arms plus an
// optional fallback, each arm introducing a new scope that re-types the
// scrutinee to its matched arm.
func (p *Parser) parseWhenStmt() ast.Stmt {
	tok := p.curToken
	p.expect(lexer.WHEN)
	decl := p.parseConditionDecl()
	scrutinee := p.parseHeaderCond(decl)
	p.expect(lexer.COLON)

	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)

	stmt := &ast.WhenStmt{Scrutinee: scrutinee, Decl: decl, Pos: posOf(tok)}
	for p.curTokenIs(lexer.NEWLINE) || p.curTokenIs(lexer.SEMI) {
		p.nextToken()
	}

	sawCase := false
	for p.curTokenIs(lexer.IS) {
		caseTok := p.curToken
		p.expect(lexer.IS)
		pattern := p.parseTypeRef()
		p.expect(lexer.COLON)
		body := p.parseBlock()
		stmt.Cases = append(stmt.Cases, &ast.WhenCase{Pattern: pattern, Body: body, Pos: posOf(caseTok)})
		sawCase = true
		for p.curTokenIs(lexer.NEWLINE) || p.curTokenIs(lexer.SEMI) {
			p.nextToken()
		}
	}
	if !sawCase {
		p.fail(errors.PAR007, "when block requires at least one 'is' arm")
	}

	if p.curTokenIs(lexer.ELSE) {
		p.nextToken()
		p.expect(lexer.COLON)
		stmt.Else = p.parseBlock()
		for p.curTokenIs(lexer.NEWLINE) || p.curTokenIs(lexer.SEMI) {
			p.nextToken()
		}
	}

	p.expect(lexer.OUTDENT)
	return stmt
}

// parseFuncDefStmt parses `def ident(params) [type_ref]: block`.
func (p *Parser) parseFuncDefStmt(isExported bool) ast.Stmt {
	tok := p.curToken
	p.expect(lexer.DEF)
	nameTok := p.expect(lexer.IDENT)

	fn := &ast.FuncDefStmt{Name: nameTok.Literal, IsExported: isExported, Pos: posOf(tok)}

	if p.curTokenIs(lexer.LBRACKET) {
		fn.TypeParams = p.parseTypeParamList()
	}

	p.expect(lexer.LPAREN)
	fn.Params = p.parseParamList()
	p.expect(lexer.RPAREN)

	if !p.curTokenIs(lexer.COLON) {
		fn.ReturnType = p.parseTypeRef()
	}
	p.expect(lexer.COLON)
	fn.Body = p.parseBlock()
	return fn
}

// parseTypeDef parses `type Name [TypeParams] (is sum_ctors | has
// struct_dims | matches type_ref)`.
func (p *Parser) parseTypeDef() ast.Stmt {
	tok := p.curToken
	p.expect(lexer.TYPE)
	nameTok := p.expect(lexer.IDENT)

	def := &ast.TypeDefStmt{Name: nameTok.Literal, Pos: posOf(tok)}
	if p.curTokenIs(lexer.LBRACKET) {
		def.TypeParams = p.parseTypeParamList()
	}

	switch p.curToken.Type {
	case lexer.IS:
		def.Algebra = p.parseSumAlgebra()
	case lexer.HAS:
		def.Algebra = p.parseStructAlgebra()
	case lexer.MATCHES:
		matchTok := p.curToken
		p.expect(lexer.MATCHES)
		target := p.parseTypeRef()
		def.Algebra = &ast.MatchesAlgebra{Target: target, Pos: posOf(matchTok)}
	default:
		p.fail(errors.PAR006, "expected 'is', 'has' or 'matches' after type name %q", nameTok.Literal)
	}
	return def
}

// parseSumAlgebra parses `is` NEWLINE INDENT (ctor_name ['(' type_ref {','
// type_ref} ')'] NEWLINE)+ OUTDENT — one constructor per line.
func (p *Parser) parseSumAlgebra() *ast.SumAlgebra {
	tok := p.curToken
	p.expect(lexer.IS)
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)

	alg := &ast.SumAlgebra{Pos: posOf(tok)}
	for !p.curTokenIs(lexer.OUTDENT) {
		if p.curTokenIs(lexer.NEWLINE) || p.curTokenIs(lexer.SEMI) {
			p.nextToken()
			continue
		}
		ctorTok := p.expect(lexer.IDENT)
		ctor := &ast.SumConstructor{Name: ctorTok.Literal, Pos: posOf(ctorTok)}
		if p.curTokenIs(lexer.LPAREN) {
			p.nextToken()
			for !p.curTokenIs(lexer.RPAREN) {
				ctor.Fields = append(ctor.Fields, p.parseTypeRef())
				if p.curTokenIs(lexer.COMMA) {
					p.nextToken()
					continue
				}
				break
			}
			p.expect(lexer.RPAREN)
		}
		alg.Constructors = append(alg.Constructors, ctor)
	}
	p.expect(lexer.OUTDENT)
	return alg
}

// parseStructAlgebra parses `has` NEWLINE INDENT (ident ':' type_ref
// NEWLINE)+ OUTDENT.
func (p *Parser) parseStructAlgebra() *ast.StructAlgebra {
	tok := p.curToken
	p.expect(lexer.HAS)
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)

	alg := &ast.StructAlgebra{Pos: posOf(tok)}
	for !p.curTokenIs(lexer.OUTDENT) {
		if p.curTokenIs(lexer.NEWLINE) || p.curTokenIs(lexer.SEMI) {
			p.nextToken()
			continue
		}
		dimTok := p.expect(lexer.IDENT)
		p.expect(lexer.COLON)
		dimType := p.parseTypeRef()
		alg.Dims = append(alg.Dims, &ast.StructDim{Name: dimTok.Literal, Type: dimType, Pos: posOf(dimTok)})
	}
	p.expect(lexer.OUTDENT)
	return alg
}

func (p *Parser) parseTagDecl() ast.Stmt {
	tok := p.curToken
	p.expect(lexer.TAG)
	nameTok := p.expect(lexer.IDENT)
	return &ast.TagDeclStmt{Name: nameTok.Literal, Pos: posOf(tok)}
}

// parseLinkDecl parses the three link forms (spec §4.2 "link"):
//
//	link module path.like.this [as alias]
//	link ident to module_decl.ident
//	link ident(params) [type_ref]     (bare fn_decl, no body)
func (p *Parser) parseLinkDecl() ast.Stmt {
	tok := p.curToken
	p.expect(lexer.LINK)

	if p.curTokenIs(lexer.MODULE) {
		p.nextToken()
		path := p.parseModulePath()
		stmt := &ast.LinkModuleStmt{Path: path, Pos: posOf(tok)}
		if p.curTokenIs(lexer.AS) {
			p.nextToken()
			aliasTok := p.expect(lexer.IDENT)
			stmt.Alias = aliasTok.Literal
		}
		return stmt
	}

	nameTok := p.expect(lexer.IDENT)

	if p.curTokenIs(lexer.TO) {
		p.nextToken()
		segments := []string{p.expect(lexer.IDENT).Literal}
		for p.curTokenIs(lexer.DOT) {
			p.nextToken()
			segments = append(segments, p.expect(lexer.IDENT).Literal)
		}
		externalIdent := segments[len(segments)-1]
		modPath := joinDotted(segments[:len(segments)-1])
		return &ast.LinkFunctionStmt{
			Name:          nameTok.Literal,
			ModulePath:    modPath,
			ExternalIdent: externalIdent,
			Pos:           posOf(tok),
		}
	}

	link := &ast.LinkNameStmt{Name: nameTok.Literal, Pos: posOf(tok)}
	p.expect(lexer.LPAREN)
	link.Params = p.parseParamList()
	p.expect(lexer.RPAREN)
	if !p.curTokenIs(lexer.NEWLINE) && !p.curTokenIs(lexer.SEMI) && !p.curTokenIs(lexer.EOF) {
		link.ReturnType = p.parseTypeRef()
	}
	return link
}

// parseModulePath parses a dotted module path: a.b.c.
func (p *Parser) parseModulePath() string {
	first := p.expect(lexer.IDENT)
	path := first.Literal
	for p.curTokenIs(lexer.DOT) {
		p.nextToken()
		next := p.expect(lexer.IDENT)
		path += "." + next.Literal
	}
	return path
}

func joinDotted(segments []string) string {
	path := ""
	for i, s := range segments {
		if i > 0 {
			path += "."
		}
		path += s
	}
	return path
}
