package check

import (
	"fmt"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/ir"
	"github.com/sunholo/zion/internal/life"
	"github.com/sunholo/zion/internal/scope"
	"github.com/sunholo/zion/internal/types"
)

// checkBlock elaborates a statement sequence sharing one lifetime extent
// (internal/life.Block). It reports whether control cannot fall off the
// end of the block without having already executed a return (spec
// §4.6.8's "every path returns" check).
func (c *Checker) checkBlock(body []ast.Stmt, sc *scope.Scope, lf *life.Life) ([]ir.Stmt, bool, error) {
	var out []ir.Stmt
	returns := false
	for _, s := range body {
		stmt, term, err := c.checkStmt(s, sc, lf)
		if err != nil {
			return nil, false, err
		}
		if stmt != nil {
			out = append(out, stmt)
		}
		returns = term
	}
	return out, returns, nil
}

func (c *Checker) checkStmt(s ast.Stmt, sc *scope.Scope, lf *life.Life) (ir.Stmt, bool, error) {
	switch n := s.(type) {
	case *ast.VarDecl:
		return c.checkVarDeclStmt(n, sc, lf)

	case *ast.AssignStmt:
		value, vt, err := c.checkExpr(n.Value, sc, lf)
		if err != nil {
			return nil, false, err
		}
		ref, ok := n.Target.(*ast.Reference)
		if !ok {
			return nil, false, fmt.Errorf("TYP018: %s: assignment target must be a simple name", n.Pos)
		}
		bvs := sc.GetBoundVariables(ref.Name)
		if len(bvs) != 1 {
			return nil, false, fmt.Errorf("TYP011: %s: unbound assignment target %q", n.Pos, ref.Name)
		}
		if n.Op != "=" {
			op := n.Op[:len(n.Op)-1]
			combined, ct, err := c.resolveCall(dunderOp[op], n.Pos, []ir.Expr{&ir.Var{Name: ref.Name, Typ: bvs[0].Type}, value}, []types.Type{bvs[0].Type, vt}, sc)
			if err != nil {
				return nil, false, err
			}
			value, vt = combined, ct
		}
		coerced, err := coerce(value, vt, bvs[0].Type, n.Pos.String())
		if err != nil {
			return nil, false, err
		}
		return &ir.ExprStmt{X: &ir.AssignExpr{Name: ref.Name, Value: coerced, Typ: bvs[0].Type}}, false, nil

	case *ast.ExprStmt:
		x, _, err := c.checkExpr(n.X, sc, lf)
		if err != nil {
			return nil, false, err
		}
		return &ir.ExprStmt{X: x}, false, nil

	case *ast.IfStmt:
		return c.checkIfStmt(n, sc, lf)

	case *ast.WhileStmt:
		return c.checkWhileStmt(n, sc, lf)

	case *ast.ForStmt:
		return c.checkForStmt(n, sc, lf)

	case *ast.BreakStmt:
		plan, err := lf.ReleaseTo(life.Loop)
		if err != nil {
			return nil, false, fmt.Errorf("TYP021: %s: break outside a loop", n.Pos)
		}
		return &ir.Break{Releases: flattenReleases(plan)}, true, nil

	case *ast.ContinueStmt:
		plan, err := lf.ReleaseTo(life.Loop)
		if err != nil {
			return nil, false, fmt.Errorf("TYP022: %s: continue outside a loop", n.Pos)
		}
		return &ir.Continue{Releases: flattenReleases(plan)}, true, nil

	case *ast.PassStmt:
		return nil, false, nil

	case *ast.ReturnStmt:
		return c.checkReturnStmt(n, sc, lf)

	case *ast.WhenStmt:
		return c.checkWhenStmt(n, sc, lf)

	case *ast.BlockStmt:
		inner := lf.NewLife(life.Block)
		stmts, term, err := c.checkBlock(n.Stmts, sc.NewLocalScope("block"), inner)
		if err != nil {
			return nil, false, err
		}
		return &ir.Block{Stmts: stmts}, term, nil

	case *ast.FuncDefStmt:
		return c.checkLocalFuncDef(n, sc)

	case *ast.TypeDefStmt:
		c.elaborateTypeDef(n, sc)
		return nil, false, nil

	default:
		return nil, false, fmt.Errorf("TYP023: %s: unsupported statement %T", s.Position(), s)
	}
}

func (c *Checker) checkVarDeclStmt(n *ast.VarDecl, sc *scope.Scope, lf *life.Life) (ir.Stmt, bool, error) {
	var declared types.Type
	if n.Type != nil {
		t, err := c.elaborateTypeExpr(n.Type, sc)
		if err != nil {
			return nil, false, err
		}
		declared = t
	}

	var initExpr ir.Expr
	var exprType types.Type
	if n.Init != nil {
		e, t, err := c.checkExpr(n.Init, sc, lf)
		if err != nil {
			return nil, false, err
		}
		initExpr, exprType = e, t
	}

	finalType := declared
	if finalType == nil {
		finalType = exprType
	}
	if finalType == nil {
		return nil, false, fmt.Errorf("TYP007: %s: %q has neither a declared type nor an initializer", n.Pos, n.Name)
	}
	if initExpr != nil && declared != nil {
		coerced, err := coerce(initExpr, exprType, declared, n.Pos.String())
		if err != nil {
			return nil, false, err
		}
		initExpr = coerced
	}

	if err := sc.PutBoundVariable(&scope.BoundVariable{Name: n.Name, Type: finalType, Node: n}); err != nil {
		return nil, false, err
	}
	if isManaged(finalType) {
		lf.Track(life.TrackedValue{Name: n.Name, Type: finalType}, life.Block)
	}

	if initExpr == nil {
		return nil, false, nil
	}
	return &ir.Let{Name: n.Name, Value: initExpr}, false, nil
}

// checkLocalFuncDef elaborates a nested `def` statement. Unlike a
// module-level function, it is bound directly into the enclosing scope
// as an ordinary BoundVariable rather than going through the
// unchecked-declaration machinery, since that machinery assumes a
// Module-kind owning scope.
func (c *Checker) checkLocalFuncDef(n *ast.FuncDefStmt, sc *scope.Scope) (ir.Stmt, bool, error) {
	fn := c.elaborateFuncDef(n, sc)
	c.recordFunction(sc, fn)
	if err := sc.PutBoundVariable(&scope.BoundVariable{Name: n.Name, Type: &types.TFunction{Args: argsOf(fn), Return: fn.ReturnType}, Node: n}); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}

func argsOf(fn *ir.Function) *types.TArgs {
	dims := make([]types.Dim, len(fn.Params))
	for i, p := range fn.Params {
		dims[i] = types.Dim{Name: p.Name, Type: p.Typ}
	}
	return types.NewTArgs(dims)
}

func isManaged(t types.Type) bool {
	p, ok := t.(*types.TPtr)
	if !ok {
		return false
	}
	_, ok = p.Elem.(*types.TManaged)
	return ok
}

func flattenReleases(plan *life.ReleasePlan) []ir.ReleaseVar {
	var out []ir.ReleaseVar
	for _, lives := range plan.Lives {
		for _, v := range lives {
			typ, _ := v.Type.(types.Type)
			out = append(out, ir.ReleaseVar{Name: v.Name, Typ: typ})
		}
	}
	return out
}

// checkIfStmt elaborates if/elif/else. A condition-position var_decl
// (spec §4.6.6, e.g. `if x := maybe_call(): ...`) is bound in a scope
// wrapping the Then branch only when ScopedToThen is set; Else sees the
// outer scope, matching the surface grammar's "then-only" narrowing.
func (c *Checker) checkIfStmt(n *ast.IfStmt, sc *scope.Scope, lf *life.Life) (ir.Stmt, bool, error) {
	thenScope := sc
	var declStmt ir.Stmt
	if n.Decl != nil {
		thenScope = sc.NewLocalScope("if.decl")
		ds, _, err := c.checkVarDeclStmt(n.Decl, thenScope, lf)
		if err != nil {
			return nil, false, err
		}
		declStmt = ds
		if !n.Decl.ScopedToThen {
			if err := sc.PutBoundVariable(&scope.BoundVariable{Name: n.Decl.Name, Type: mustBoundType(thenScope, n.Decl.Name), Node: n.Decl}); err != nil {
				return nil, false, err
			}
		}
	}

	cond, _, err := c.checkExpr(n.Cond, thenScope, lf)
	if err != nil {
		return nil, false, err
	}

	thenLife := lf.NewLife(life.Block)
	thenStmts, thenTerm, err := c.checkBlock(n.Then, thenScope.NewLocalScope("if.then"), thenLife)
	if err != nil {
		return nil, false, err
	}
	if declStmt != nil {
		thenStmts = append([]ir.Stmt{declStmt}, thenStmts...)
	}

	var elseBlock *ir.Block
	elseTerm := false
	if n.Else != nil {
		elseLife := lf.NewLife(life.Block)
		elseStmts, term, err := c.checkBlock(n.Else, sc.NewLocalScope("if.else"), elseLife)
		if err != nil {
			return nil, false, err
		}
		elseBlock = &ir.Block{Stmts: elseStmts}
		elseTerm = term
	}

	return &ir.If{Cond: cond, Then: &ir.Block{Stmts: thenStmts}, Else: elseBlock}, thenTerm && elseBlock != nil && elseTerm, nil
}

func mustBoundType(sc *scope.Scope, name string) types.Type {
	if bvs := sc.GetBoundVariables(name); len(bvs) == 1 {
		return bvs[0].Type
	}
	return types.TNothing
}

func (c *Checker) checkWhileStmt(n *ast.WhileStmt, sc *scope.Scope, lf *life.Life) (ir.Stmt, bool, error) {
	condScope := sc
	var declStmt ir.Stmt
	loopLife := lf.NewLife(life.Loop)
	if n.Decl != nil {
		condScope = sc.NewLocalScope("while.decl")
		ds, _, err := c.checkVarDeclStmt(n.Decl, condScope, lf)
		if err != nil {
			return nil, false, err
		}
		declStmt = ds
	}
	cond, _, err := c.checkExpr(n.Cond, condScope, lf)
	if err != nil {
		return nil, false, err
	}
	bodyLife := loopLife.NewLife(life.Block)
	stmts, _, err := c.checkBlock(n.Body, condScope.NewLocalScope("while.body"), bodyLife)
	if err != nil {
		return nil, false, err
	}
	body := &ir.Block{Stmts: stmts}
	if declStmt != nil {
		return &ir.Block{Stmts: []ir.Stmt{declStmt, &ir.Loop{Cond: cond, Body: body}}}, false, nil
	}
	return &ir.Loop{Cond: cond, Body: body}, false, nil
}

// checkForStmt desugars `for v in iterable: body` into the equivalent
// while-loop form over the iterable's __next__ protocol, matching the
// reference compiler's approach of lowering for-loops before codegen.
func (c *Checker) checkForStmt(n *ast.ForStmt, sc *scope.Scope, lf *life.Life) (ir.Stmt, bool, error) {
	iterable, it, err := c.checkExpr(n.Iterable, sc, lf)
	if err != nil {
		return nil, false, err
	}
	iterScope := sc.NewLocalScope("for.iter")
	iterName := "__iter_" + n.Var
	iterCall, iterType, err := c.resolveCall("__iter__", n.Pos, []ir.Expr{iterable}, []types.Type{it}, iterScope)
	if err != nil {
		return nil, false, err
	}
	if err := iterScope.PutBoundVariable(&scope.BoundVariable{Name: iterName, Type: iterType, Node: n}); err != nil {
		return nil, false, err
	}
	iterLet := &ir.Let{Name: iterName, Value: iterCall}

	loopLife := lf.NewLife(life.Loop)
	condCall, _, err := c.resolveCall("__has_next__", n.Pos, []ir.Expr{&ir.Var{Name: iterName, Typ: iterType}}, []types.Type{iterType}, iterScope)
	if err != nil {
		return nil, false, err
	}

	bodyScope := iterScope.NewLocalScope("for.body")
	elemCall, elemType, err := c.resolveCall("__next__", n.Pos, []ir.Expr{&ir.Var{Name: iterName, Typ: iterType}}, []types.Type{iterType}, bodyScope)
	if err != nil {
		return nil, false, err
	}
	if err := bodyScope.PutBoundVariable(&scope.BoundVariable{Name: n.Var, Type: elemType, Node: n}); err != nil {
		return nil, false, err
	}
	elemLet := &ir.Let{Name: n.Var, Value: elemCall}

	bodyLife := loopLife.NewLife(life.Block)
	stmts, _, err := c.checkBlock(n.Body, bodyScope, bodyLife)
	if err != nil {
		return nil, false, err
	}
	body := &ir.Block{Stmts: append([]ir.Stmt{elemLet}, stmts...)}

	return &ir.Block{Stmts: []ir.Stmt{iterLet, &ir.Loop{Cond: condCall, Body: body}}}, false, nil
}

func (c *Checker) checkReturnStmt(n *ast.ReturnStmt, sc *scope.Scope, lf *life.Life) (ir.Stmt, bool, error) {
	rtc := sc.GetReturnTypeConstraint()
	var value ir.Expr
	var valType types.Type
	if n.Value != nil {
		v, t, err := c.checkExpr(n.Value, sc, lf)
		if err != nil {
			return nil, false, err
		}
		value, valType = v, t
	} else {
		valType = types.TNothing
	}

	if rtc.HasConstraint() {
		coerced, err := coerce(value, valType, rtc.Type, n.Pos.String())
		if err == nil {
			value = coerced
		} else if !types.Equals(valType, rtc.Type) {
			return nil, false, fmt.Errorf("TYP024: %s: return type %s does not match function's constrained return type %s", n.Pos, valType, rtc.Type)
		}
	} else {
		rtc.Set(valType, n.Pos.String())
	}

	plan, err := lf.ReleaseTo(life.Function)
	if err != nil {
		return nil, false, fmt.Errorf("TYP025: %s: %v", n.Pos, err)
	}
	return &ir.Return{Value: value, Releases: flattenReleases(plan)}, true, nil
}

// checkWhenStmt desugars pattern matching (spec §4.6.5) into a cascade
// of TypeIDEq-guarded ifs, binding the scrutinee narrowed to each arm's
// candidate type for the duration of that arm's body.
func (c *Checker) checkWhenStmt(n *ast.WhenStmt, sc *scope.Scope, lf *life.Life) (ir.Stmt, bool, error) {
	matchScope := sc
	var declStmt ir.Stmt
	if n.Decl != nil {
		matchScope = sc.NewLocalScope("when.decl")
		ds, _, err := c.checkVarDeclStmt(n.Decl, matchScope, lf)
		if err != nil {
			return nil, false, err
		}
		declStmt = ds
	}

	scrutinee, scrutType, err := c.checkExpr(n.Scrutinee, matchScope, lf)
	if err != nil {
		return nil, false, err
	}

	var buildCascade func(idx int) (*ir.If, bool, error)
	buildCascade = func(idx int) (*ir.If, bool, error) {
		if idx >= len(n.Cases) {
			return nil, false, nil
		}
		kase := n.Cases[idx]
		candidate, err := c.elaborateTypeExpr(kase.Pattern, matchScope)
		if err != nil {
			return nil, false, err
		}
		guard := &ir.TypeIDEq{Scrutinee: scrutinee, Candidate: candidate}

		armScope := matchScope.NewLocalScope(fmt.Sprintf("when.arm%d", idx))
		if ref, ok := n.Scrutinee.(*ast.Reference); ok {
			if err := armScope.PutBoundVariable(&scope.BoundVariable{Name: ref.Name, Type: candidate, Node: n}); err != nil {
				return nil, false, err
			}
		}
		armLife := lf.NewLife(life.Block)
		armStmts, armTerm, err := c.checkBlock(kase.Body, armScope, armLife)
		if err != nil {
			return nil, false, err
		}

		var elseBlock *ir.Block
		elseTerm := false
		if idx == len(n.Cases)-1 {
			if n.Else != nil {
				elseLife := lf.NewLife(life.Block)
				elseStmts, term, err := c.checkBlock(n.Else, matchScope.NewLocalScope("when.else"), elseLife)
				if err != nil {
					return nil, false, err
				}
				elseBlock = &ir.Block{Stmts: elseStmts}
				elseTerm = term
			}
		} else {
			rest, term, err := buildCascade(idx + 1)
			if err != nil {
				return nil, false, err
			}
			if rest != nil {
				elseBlock = &ir.Block{Stmts: []ir.Stmt{rest}}
				elseTerm = term
			}
		}

		return &ir.If{Cond: guard, Then: &ir.Block{Stmts: armStmts}, Else: elseBlock}, armTerm && elseBlock != nil && elseTerm, nil
	}

	cascade, term, err := buildCascade(0)
	if err != nil {
		return nil, false, err
	}
	if declStmt != nil {
		return &ir.Block{Stmts: []ir.Stmt{declStmt, cascade}}, term, nil
	}
	return cascade, term, nil
}
