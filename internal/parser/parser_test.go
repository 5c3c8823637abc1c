package parser

import (
	"testing"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/diag"
	"github.com/sunholo/zion/internal/lexer"
)

func parseModule(t *testing.T, src string) *ast.Module {
	t.Helper()
	bag := diag.NewBag()
	l := lexer.New(src, "test.zion", bag)
	p := New(l, bag)
	mod, err := p.Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return mod
}

func parseModuleErr(t *testing.T, src string) error {
	t.Helper()
	bag := diag.NewBag()
	l := lexer.New(src, "test.zion", bag)
	p := New(l, bag)
	_, err := p.Parse()
	if err == nil {
		t.Fatalf("expected parse error, got none")
	}
	return err
}

func firstFn(t *testing.T, mod *ast.Module) *ast.FuncDefStmt {
	t.Helper()
	for _, d := range mod.Decls {
		if fn, ok := d.(*ast.FuncDefStmt); ok {
			return fn
		}
	}
	t.Fatalf("no function declaration found in module %s", mod.Name)
	return nil
}

func TestParseModuleDecl(t *testing.T) {
	mod := parseModule(t, "module geometry\n")
	if mod.Name != "geometry" {
		t.Errorf("got module name %q, want geometry", mod.Name)
	}
}

func TestParseFuncDefStmt(t *testing.T) {
	src := `module m
def add(a: int, b: int) int:
    return a + b
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	if fn.Name != "add" {
		t.Fatalf("got fn name %q, want add", fn.Name)
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Name != "b" {
		t.Fatalf("unexpected params: %+v", fn.Params)
	}
	rt, ok := fn.ReturnType.(*ast.TypeId)
	if !ok || rt.Name != "int" {
		t.Fatalf("unexpected return type: %+v", fn.ReturnType)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("got %d body statements, want 1", len(fn.Body))
	}
	ret, ok := fn.Body[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("body[0] is %T, want *ast.ReturnStmt", fn.Body[0])
	}
	sum, ok := ret.Value.(*ast.PlusExpr)
	if !ok || sum.Op != "+" {
		t.Fatalf("unexpected return value: %+v", ret.Value)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	src := `module m
def f() int:
    return 1 + 2 * 3
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	ret := fn.Body[0].(*ast.ReturnStmt)
	plus, ok := ret.Value.(*ast.PlusExpr)
	if !ok {
		t.Fatalf("top-level node is %T, want *ast.PlusExpr", ret.Value)
	}
	if _, ok := plus.Left.(*ast.Literal); !ok {
		t.Fatalf("left operand is %T, want *ast.Literal (1)", plus.Left)
	}
	times, ok := plus.Right.(*ast.TimesExpr)
	if !ok {
		t.Fatalf("right operand is %T, want *ast.TimesExpr (2 * 3 binds tighter)", plus.Right)
	}
	if times.Op != "*" {
		t.Fatalf("got op %q, want *", times.Op)
	}
}

func TestParseComparisonAndLogic(t *testing.T) {
	src := `module m
def f() bool:
    return a < b and c == d or not e
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	ret := fn.Body[0].(*ast.ReturnStmt)
	or, ok := ret.Value.(*ast.OrExpr)
	if !ok {
		t.Fatalf("top-level node is %T, want *ast.OrExpr (lowest precedence)", ret.Value)
	}
	if _, ok := or.Left.(*ast.AndExpr); !ok {
		t.Fatalf("or.Left is %T, want *ast.AndExpr", or.Left)
	}
	if _, ok := or.Right.(*ast.PrefixExpr); !ok {
		t.Fatalf("or.Right is %T, want *ast.PrefixExpr (not e)", or.Right)
	}
}

func TestParseTernary(t *testing.T) {
	src := `module m
def f() int:
    return 1 if cond else 2
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	ret := fn.Body[0].(*ast.ReturnStmt)
	tern, ok := ret.Value.(*ast.TernaryExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.TernaryExpr", ret.Value)
	}
	if _, ok := tern.Cond.(*ast.Reference); !ok {
		t.Fatalf("ternary cond is %T, want *ast.Reference", tern.Cond)
	}
}

func TestParsePostfixChain(t *testing.T) {
	src := `module m
def f() int:
    return a.b[0](c, d)
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	ret := fn.Body[0].(*ast.ReturnStmt)
	call, ok := ret.Value.(*ast.Callsite)
	if !ok {
		t.Fatalf("got %T, want *ast.Callsite", ret.Value)
	}
	if len(call.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(call.Args))
	}
	idx, ok := call.Callee.(*ast.ArrayIndex)
	if !ok {
		t.Fatalf("callee is %T, want *ast.ArrayIndex", call.Callee)
	}
	if _, ok := idx.Target.(*ast.DotAccess); !ok {
		t.Fatalf("index target is %T, want *ast.DotAccess", idx.Target)
	}
}

func TestParseNameAssignSugar(t *testing.T) {
	src := `module m
def f() int:
    x := 5
    return x
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	decl, ok := fn.Body[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("got %T, want *ast.VarDecl", fn.Body[0])
	}
	if decl.Name != "x" || decl.Type != nil {
		t.Fatalf("unexpected decl: %+v", decl)
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := `module m
def f() int:
    if a:
        return 1
    elif b:
        return 2
    else:
        return 3
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	ifStmt, ok := fn.Body[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.IfStmt", fn.Body[0])
	}
	if len(ifStmt.Else) != 1 {
		t.Fatalf("got %d else stmts, want 1 (nested elif)", len(ifStmt.Else))
	}
	elif, ok := ifStmt.Else[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("else[0] is %T, want *ast.IfStmt", ifStmt.Else[0])
	}
	if len(elif.Else) != 1 {
		t.Fatalf("elif has %d else stmts, want 1", len(elif.Else))
	}
}

func TestParseConditionPositionVarDecl(t *testing.T) {
	src := `module m
def f() int:
    if x := maybeGet():
        return x
    return 0
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	ifStmt := fn.Body[0].(*ast.IfStmt)
	if ifStmt.Decl == nil || ifStmt.Decl.Name != "x" {
		t.Fatalf("expected condition-position decl for x, got %+v", ifStmt.Decl)
	}
	if !ifStmt.Decl.ScopedToThen {
		t.Fatalf("expected ScopedToThen to be set")
	}
}

func TestParseWhileAndFor(t *testing.T) {
	src := `module m
def f():
    while cond:
        pass
    for item in items:
        continue
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	if _, ok := fn.Body[0].(*ast.WhileStmt); !ok {
		t.Fatalf("body[0] is %T, want *ast.WhileStmt", fn.Body[0])
	}
	forStmt, ok := fn.Body[1].(*ast.ForStmt)
	if !ok {
		t.Fatalf("body[1] is %T, want *ast.ForStmt", fn.Body[1])
	}
	if forStmt.Var != "item" {
		t.Fatalf("got loop var %q, want item", forStmt.Var)
	}
}

func TestParseWhenStmt(t *testing.T) {
	src := `module m
def f() int:
    when x:
        is Int:
            return 1
        is String:
            return 2
        else:
            return 0
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	when, ok := fn.Body[0].(*ast.WhenStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.WhenStmt", fn.Body[0])
	}
	if len(when.Cases) != 2 {
		t.Fatalf("got %d cases, want 2", len(when.Cases))
	}
	if when.Cases[0].Pattern.(*ast.TypeId).Name != "Int" {
		t.Fatalf("unexpected first case pattern: %+v", when.Cases[0].Pattern)
	}
	if when.Else == nil {
		t.Fatalf("expected an else block")
	}
}

func TestParseWhenRequiresAtLeastOneCase(t *testing.T) {
	src := `module m
def f() int:
    when x:
        else:
            return 0
`
	err := parseModuleErr(t, src)
	if err == nil {
		t.Fatalf("expected error for when-block with no 'is' arms")
	}
}

func TestParseSumTypeDef(t *testing.T) {
	src := `module m
type Option[a] is
    Some(a)
    None
`
	mod := parseModule(t, src)
	var def *ast.TypeDefStmt
	for _, d := range mod.Decls {
		if td, ok := d.(*ast.TypeDefStmt); ok {
			def = td
		}
	}
	if def == nil {
		t.Fatalf("no type definition found")
	}
	sum, ok := def.Algebra.(*ast.SumAlgebra)
	if !ok {
		t.Fatalf("got %T, want *ast.SumAlgebra", def.Algebra)
	}
	if len(sum.Constructors) != 2 {
		t.Fatalf("got %d constructors, want 2", len(sum.Constructors))
	}
	if sum.Constructors[0].Name != "Some" || len(sum.Constructors[0].Fields) != 1 {
		t.Fatalf("unexpected first constructor: %+v", sum.Constructors[0])
	}
	if sum.Constructors[1].Name != "None" || len(sum.Constructors[1].Fields) != 0 {
		t.Fatalf("unexpected second constructor: %+v", sum.Constructors[1])
	}
}

func TestParseStructTypeDef(t *testing.T) {
	src := `module m
type Point has
    x: int
    y: int
`
	mod := parseModule(t, src)
	def := mod.Decls[0].(*ast.TypeDefStmt)
	st, ok := def.Algebra.(*ast.StructAlgebra)
	if !ok {
		t.Fatalf("got %T, want *ast.StructAlgebra", def.Algebra)
	}
	if len(st.Dims) != 2 || st.Dims[0].Name != "x" || st.Dims[1].Name != "y" {
		t.Fatalf("unexpected dims: %+v", st.Dims)
	}
}

func TestParseMatchesTypeDef(t *testing.T) {
	mod := parseModule(t, "module m\ntype Celsius matches float\n")
	def := mod.Decls[0].(*ast.TypeDefStmt)
	alg, ok := def.Algebra.(*ast.MatchesAlgebra)
	if !ok {
		t.Fatalf("got %T, want *ast.MatchesAlgebra", def.Algebra)
	}
	if alg.Target.(*ast.TypeId).Name != "float" {
		t.Fatalf("unexpected target: %+v", alg.Target)
	}
}

func TestParseTypeApplicationAndMaybe(t *testing.T) {
	src := `module m
def f(x: vector.vector(int)?) int:
    return 0
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	maybe, ok := fn.Params[0].Type.(*ast.MaybeType)
	if !ok {
		t.Fatalf("got %T, want *ast.MaybeType", fn.Params[0].Type)
	}
	op, ok := maybe.Just.(*ast.TypeOperator)
	if !ok {
		t.Fatalf("got %T, want *ast.TypeOperator", maybe.Just)
	}
	if op.Head.(*ast.TypeId).Name != "vector.vector" {
		t.Fatalf("unexpected head: %+v", op.Head)
	}
}

func TestParseLinkModule(t *testing.T) {
	mod := parseModule(t, "module m\nlink module vector.vector as vec\n")
	link, ok := mod.Decls[0].(*ast.LinkModuleStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.LinkModuleStmt", mod.Decls[0])
	}
	if link.Path != "vector.vector" || link.Alias != "vec" {
		t.Fatalf("unexpected link: %+v", link)
	}
}

func TestParseLinkFunction(t *testing.T) {
	mod := parseModule(t, "module m\nlink sqrt to libm.sqrt\n")
	link, ok := mod.Decls[0].(*ast.LinkFunctionStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.LinkFunctionStmt", mod.Decls[0])
	}
	if link.Name != "sqrt" || link.ModulePath != "libm" || link.ExternalIdent != "sqrt" {
		t.Fatalf("unexpected link: %+v", link)
	}
}

func TestParseLinkName(t *testing.T) {
	mod := parseModule(t, "module m\nlink malloc(size: int) int\n")
	link, ok := mod.Decls[0].(*ast.LinkNameStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.LinkNameStmt", mod.Decls[0])
	}
	if link.Name != "malloc" || len(link.Params) != 1 {
		t.Fatalf("unexpected link: %+v", link)
	}
	if link.ReturnType.(*ast.TypeId).Name != "int" {
		t.Fatalf("unexpected return type: %+v", link.ReturnType)
	}
}

func TestParseTagDecl(t *testing.T) {
	mod := parseModule(t, "module m\ntag Red\n")
	tag, ok := mod.Decls[0].(*ast.TagDeclStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.TagDeclStmt", mod.Decls[0])
	}
	if tag.Name != "Red" {
		t.Fatalf("got tag name %q, want Red", tag.Name)
	}
}

func TestParseAssignStmt(t *testing.T) {
	src := `module m
def f():
    x += 1
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	assign, ok := fn.Body[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.AssignStmt", fn.Body[0])
	}
	if assign.Op != "+=" {
		t.Fatalf("got op %q, want +=", assign.Op)
	}
}

func TestParseTupleAndArrayLiterals(t *testing.T) {
	src := `module m
def f():
    t := (1, 2, 3)
    a := [1, 2, 3]
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	tDecl := fn.Body[0].(*ast.VarDecl)
	tuple, ok := tDecl.Init.(*ast.TupleExpr)
	if !ok || len(tuple.Elements) != 3 {
		t.Fatalf("unexpected tuple: %+v", tDecl.Init)
	}
	aDecl := fn.Body[1].(*ast.VarDecl)
	arr, ok := aDecl.Init.(*ast.ArrayLiteral)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("unexpected array: %+v", aDecl.Init)
	}
}

func TestParseSizeofAndTypeid(t *testing.T) {
	src := `module m
def f() int:
    return sizeof(int) + __get_typeid__(x)
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	ret := fn.Body[0].(*ast.ReturnStmt)
	plus := ret.Value.(*ast.PlusExpr)
	if _, ok := plus.Left.(*ast.SizeofExpr); !ok {
		t.Fatalf("left operand is %T, want *ast.SizeofExpr", plus.Left)
	}
	if _, ok := plus.Right.(*ast.TypeidExpr); !ok {
		t.Fatalf("right operand is %T, want *ast.TypeidExpr", plus.Right)
	}
}

func TestParseCastExpr(t *testing.T) {
	src := `module m
def f() int:
    return x as int
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	ret := fn.Body[0].(*ast.ReturnStmt)
	cast, ok := ret.Value.(*ast.CastExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.CastExpr", ret.Value)
	}
	if cast.Target.(*ast.TypeId).Name != "int" {
		t.Fatalf("unexpected cast target: %+v", cast.Target)
	}
}

func TestParseFuncDefExprLambda(t *testing.T) {
	src := `module m
def f():
    g := def(a: int) int:
        return a
`
	mod := parseModule(t, src)
	fn := firstFn(t, mod)
	decl := fn.Body[0].(*ast.VarDecl)
	lambda, ok := decl.Init.(*ast.FuncDefExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.FuncDefExpr", decl.Init)
	}
	if len(lambda.Params) != 1 || lambda.Params[0].Name != "a" {
		t.Fatalf("unexpected params: %+v", lambda.Params)
	}
}

func TestParseFailFastUnexpectedToken(t *testing.T) {
	err := parseModuleErr(t, "module m\ndef f(\n")
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("got %T, want *ParseError", err)
	}
}

func TestParseMissingTypeDefAlgebra(t *testing.T) {
	err := parseModuleErr(t, "module m\ntype Foo\n")
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("got %T, want *ParseError", err)
	}
}
