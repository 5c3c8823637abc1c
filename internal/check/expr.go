package check

import (
	"fmt"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/ir"
	"github.com/sunholo/zion/internal/life"
	"github.com/sunholo/zion/internal/scope"
	"github.com/sunholo/zion/internal/types"
)

// dunderOp maps a binary operator token to the dunder method name used
// for its callsite resolution (spec §4.6.4 "operators desugar to
// ordinary calls before overload resolution runs").
var dunderOp = map[string]string{
	"+": "__plus__", "-": "__minus__", "*": "__times__", "/": "__divide__", "%": "__mod__",
	"==": "__eq__", "!=": "__neq__",
	"<": "__lt__", "<=": "__lte__", ">": "__gt__", ">=": "__gte__",
}

// checkExpr elaborates an expression into typed IR, resolving any
// callsites it contains against the scope's overload sets. fnLife
// tracks managed values introduced within the expression (closures
// created by a FuncDefExpr, principally).
func (c *Checker) checkExpr(e ast.Expr, sc *scope.Scope, fnLife *life.Life) (ir.Expr, types.Type, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return c.checkLiteral(n)

	case *ast.Reference:
		if bvs := sc.GetBoundVariables(n.Name); len(bvs) == 1 {
			return &ir.Var{Name: n.Name, Typ: bvs[0].Type}, bvs[0].Type, nil
		}
		return nil, nil, fmt.Errorf("TYP011: %s: unbound reference %q", n.Pos, n.Name)

	case *ast.PrefixExpr:
		return c.checkPrefix(n, sc, fnLife)

	case *ast.PlusExpr:
		return c.checkBinaryDunder(n.Left, n.Op, n.Right, n.Pos, sc, fnLife)
	case *ast.TimesExpr:
		return c.checkBinaryDunder(n.Left, n.Op, n.Right, n.Pos, sc, fnLife)
	case *ast.EqExpr:
		return c.checkEq(n, sc, fnLife)
	case *ast.IneqExpr:
		return c.checkBinaryDunder(n.Left, n.Op, n.Right, n.Pos, sc, fnLife)

	case *ast.AndExpr:
		return c.checkShortCircuit(n.Left, n.Right, n.Pos, sc, fnLife, true)
	case *ast.OrExpr:
		return c.checkShortCircuit(n.Left, n.Right, n.Pos, sc, fnLife, false)

	case *ast.TernaryExpr:
		return c.checkTernary(n, sc, fnLife)

	case *ast.AssignmentExpr:
		return c.checkAssignmentExpr(n, sc, fnLife)

	case *ast.DotAccess:
		return c.checkDotAccess(n, sc, fnLife)

	case *ast.ArrayIndex:
		target, tt, err := c.checkExpr(n.Target, sc, fnLife)
		if err != nil {
			return nil, nil, err
		}
		idx, _, err := c.checkExpr(n.Index, sc, fnLife)
		if err != nil {
			return nil, nil, err
		}
		elem, err := elementTypeOf(tt)
		if err != nil {
			return nil, nil, fmt.Errorf("TYP012: %s: %v", n.Pos, err)
		}
		return &ir.IndexGet{Target: target, Index: idx, Typ: elem}, elem, nil

	case *ast.Callsite:
		return c.checkCallsite(n, sc, fnLife)

	case *ast.TupleExpr:
		elems := make([]ir.Expr, len(n.Elements))
		dims := make([]types.Dim, len(n.Elements))
		for i, el := range n.Elements {
			ee, et, err := c.checkExpr(el, sc, fnLife)
			if err != nil {
				return nil, nil, err
			}
			elems[i] = ee
			dims[i] = types.Dim{Name: fmt.Sprintf("t%d", i), Type: et}
		}
		typ := types.NewTStruct(dims)
		return &ir.TupleLit{Elements: elems, Typ: typ}, typ, nil

	case *ast.ArrayLiteral:
		elems := make([]ir.Expr, len(n.Elements))
		var elemType types.Type = types.TNothing
		for i, el := range n.Elements {
			ee, et, err := c.checkExpr(el, sc, fnLife)
			if err != nil {
				return nil, nil, err
			}
			elems[i] = ee
			elemType = et
		}
		typ := &types.TPtr{Elem: &types.TManaged{Elem: elemType}}
		return &ir.ArrayLit{Elements: elems, Typ: typ}, typ, nil

	case *ast.CastExpr:
		operand, ot, err := c.checkExpr(n.Operand, sc, fnLife)
		if err != nil {
			return nil, nil, err
		}
		target, err := c.elaborateTypeExpr(n.Target, sc)
		if err != nil {
			return nil, nil, err
		}
		_ = ot
		return &ir.Coerce{Value: operand, Kind: ir.CoerceExplicit, Typ: target}, target, nil

	case *ast.SizeofExpr:
		target, err := c.elaborateTypeExpr(n.Target, sc)
		if err != nil {
			return nil, nil, err
		}
		return &ir.Sizeof{Target: target}, types.TIntType, nil

	case *ast.TypeidExpr:
		operand, _, err := c.checkExpr(n.Operand, sc, fnLife)
		if err != nil {
			return nil, nil, err
		}
		return &ir.TypeidOf{Value: operand}, types.TIntType, nil

	case *ast.FuncDefExpr:
		return c.checkFuncDefExpr(n, sc, fnLife)

	default:
		return nil, nil, fmt.Errorf("TYP013: %s: unsupported expression %T", e.Position(), e)
	}
}

func (c *Checker) checkLiteral(n *ast.Literal) (ir.Expr, types.Type, error) {
	var typ types.Type
	switch n.Kind {
	case ast.IntLit:
		typ = types.TIntType
	case ast.FloatLit:
		typ = types.TFloatType
	case ast.StringLit:
		typ = types.TStringType
	case ast.CharLit:
		typ = types.TCharType
	case ast.AtomLit:
		typ = types.TAtomType
	case ast.BoolLit:
		typ = types.TBoolType
	case ast.NilLit:
		typ = types.NewTMaybe(types.TNothing)
	default:
		return nil, nil, fmt.Errorf("TYP014: %s: unrecognized literal kind", n.Pos)
	}
	return &ir.Lit{Value: n.Value, Typ: typ}, typ, nil
}

func (c *Checker) checkPrefix(n *ast.PrefixExpr, sc *scope.Scope, fnLife *life.Life) (ir.Expr, types.Type, error) {
	operand, ot, err := c.checkExpr(n.Operand, sc, fnLife)
	if err != nil {
		return nil, nil, err
	}
	name, ok := map[string]string{"not": "__not__", "-": "__negate__", "+": "__positive__"}[n.Op]
	if !ok {
		return nil, nil, fmt.Errorf("TYP015: %s: unrecognized prefix operator %q", n.Pos, n.Op)
	}
	return c.resolveCall(name, n.Pos, []ir.Expr{operand}, []types.Type{ot}, sc)
}

func (c *Checker) checkBinaryDunder(l ast.Expr, op string, r ast.Expr, pos ast.Pos, sc *scope.Scope, fnLife *life.Life) (ir.Expr, types.Type, error) {
	le, lt, err := c.checkExpr(l, sc, fnLife)
	if err != nil {
		return nil, nil, err
	}
	re, rt, err := c.checkExpr(r, sc, fnLife)
	if err != nil {
		return nil, nil, err
	}
	name, ok := dunderOp[op]
	if !ok {
		return nil, nil, fmt.Errorf("TYP016: %s: unrecognized operator %q", pos, op)
	}
	return c.resolveCall(name, pos, []ir.Expr{le, re}, []types.Type{lt, rt}, sc)
}

// checkEq dispatches == / != through their dunder overloads. The
// type-test keywords (is, in, has, matches) are rejected here with a
// TYP017 error, since they are only valid inside a when pattern.
func (c *Checker) checkEq(n *ast.EqExpr, sc *scope.Scope, fnLife *life.Life) (ir.Expr, types.Type, error) {
	if n.Op == "==" || n.Op == "!=" {
		return c.checkBinaryDunder(n.Left, n.Op, n.Right, n.Pos, sc, fnLife)
	}
	return nil, nil, fmt.Errorf("TYP017: %s: %q is only valid inside a when pattern", n.Pos, n.Op)
}

func (c *Checker) checkShortCircuit(l, r ast.Expr, pos ast.Pos, sc *scope.Scope, fnLife *life.Life, isAnd bool) (ir.Expr, types.Type, error) {
	le, _, err := c.checkExpr(l, sc, fnLife)
	if err != nil {
		return nil, nil, err
	}
	re, _, err := c.checkExpr(r, sc, fnLife)
	if err != nil {
		return nil, nil, err
	}
	if isAnd {
		return &ir.IfExpr{Cond: le, Then: re, Else: &ir.Lit{Value: false, Typ: types.TBoolType}, Typ: types.TBoolType}, types.TBoolType, nil
	}
	return &ir.IfExpr{Cond: le, Then: &ir.Lit{Value: true, Typ: types.TBoolType}, Else: re, Typ: types.TBoolType}, types.TBoolType, nil
}

func (c *Checker) checkTernary(n *ast.TernaryExpr, sc *scope.Scope, fnLife *life.Life) (ir.Expr, types.Type, error) {
	cond, _, err := c.checkExpr(n.Cond, sc, fnLife)
	if err != nil {
		return nil, nil, err
	}
	then, tt, err := c.checkExpr(n.Then, sc, fnLife)
	if err != nil {
		return nil, nil, err
	}
	els, _, err := c.checkExpr(n.Else, sc, fnLife)
	if err != nil {
		return nil, nil, err
	}
	return &ir.IfExpr{Cond: cond, Then: then, Else: els, Typ: tt}, tt, nil
}

func (c *Checker) checkAssignmentExpr(n *ast.AssignmentExpr, sc *scope.Scope, fnLife *life.Life) (ir.Expr, types.Type, error) {
	value, vt, err := c.checkExpr(n.Value, sc, fnLife)
	if err != nil {
		return nil, nil, err
	}
	ref, ok := n.Target.(*ast.Reference)
	if !ok {
		return nil, nil, fmt.Errorf("TYP018: %s: assignment target must be a simple name", n.Pos)
	}
	bvs := sc.GetBoundVariables(ref.Name)
	if len(bvs) != 1 {
		return nil, nil, fmt.Errorf("TYP011: %s: unbound assignment target %q", n.Pos, ref.Name)
	}
	if n.Op != "=" {
		op := n.Op[:len(n.Op)-1]
		combined, ct, err := c.resolveCall(dunderOp[op], n.Pos, []ir.Expr{&ir.Var{Name: ref.Name, Typ: bvs[0].Type}, value}, []types.Type{bvs[0].Type, vt}, sc)
		if err != nil {
			return nil, nil, err
		}
		value, vt = combined, ct
	}
	coerced, err := coerce(value, vt, bvs[0].Type, n.Pos.String())
	if err != nil {
		return nil, nil, err
	}
	return &ir.AssignExpr{Name: ref.Name, Value: coerced, Typ: bvs[0].Type}, bvs[0].Type, nil
}

func (c *Checker) checkDotAccess(n *ast.DotAccess, sc *scope.Scope, fnLife *life.Life) (ir.Expr, types.Type, error) {
	if ref, ok := n.Target.(*ast.Reference); ok {
		if mod, found := c.Program.LookupModule(ref.Name); found {
			if bvs := mod.GetBoundVariables(n.Field); len(bvs) == 1 {
				return &ir.Var{Name: ref.Name + "." + n.Field, Typ: bvs[0].Type}, bvs[0].Type, nil
			}
		}
	}
	target, tt, err := c.checkExpr(n.Target, sc, fnLife)
	if err != nil {
		return nil, nil, err
	}
	fieldType, err := fieldTypeOf(tt, n.Field)
	if err != nil {
		return nil, nil, fmt.Errorf("TYP019: %s: %v", n.Pos, err)
	}
	return &ir.FieldGet{Target: target, Field: n.Field, Typ: fieldType}, fieldType, nil
}

func elementTypeOf(t types.Type) (types.Type, error) {
	switch v := t.(type) {
	case *types.TPtr:
		if m, ok := v.Elem.(*types.TManaged); ok {
			return m.Elem, nil
		}
		return v.Elem, nil
	case *types.TManaged:
		return v.Elem, nil
	}
	return nil, fmt.Errorf("type %s is not indexable", t)
}

func fieldTypeOf(t types.Type, field string) (types.Type, error) {
	st, err := structOf(t)
	if err != nil {
		return nil, err
	}
	idx, ok := st.NameIndex[field]
	if !ok {
		return nil, fmt.Errorf("type %s has no field %q", t, field)
	}
	return st.Dims[idx].Type, nil
}

func structOf(t types.Type) (*types.TStruct, error) {
	switch v := t.(type) {
	case *types.TStruct:
		return v, nil
	case *types.TPtr:
		return structOf(v.Elem)
	case *types.TManaged:
		return structOf(v.Elem)
	case *types.TRef:
		return structOf(v.Elem)
	}
	return nil, fmt.Errorf("type %s is not a struct", t)
}

func (c *Checker) checkCallsite(n *ast.Callsite, sc *scope.Scope, fnLife *life.Life) (ir.Expr, types.Type, error) {
	argExprs := make([]ir.Expr, len(n.Args))
	argTypes := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		ae, at, err := c.checkExpr(a, sc, fnLife)
		if err != nil {
			return nil, nil, err
		}
		argExprs[i] = ae
		argTypes[i] = at
	}

	if ref, ok := n.Callee.(*ast.Reference); ok {
		return c.resolveCall(ref.Name, n.Pos, argExprs, argTypes, sc)
	}

	callee, ct, err := c.checkExpr(n.Callee, sc, fnLife)
	if err != nil {
		return nil, nil, err
	}
	fnType, ok := ct.(*types.TFunction)
	if !ok {
		return nil, nil, fmt.Errorf("TYP020: %s: cannot call a value of type %s", n.Pos, ct)
	}
	return &ir.Call{Callee: callee, Args: argExprs, Typ: fnType.Return}, fnType.Return, nil
}

// checkFuncDefExpr elaborates a function literal. It is treated as an
// ordinary nested function with a generated name; the enclosing life
// tracks it as a managed value since closures are heap-allocated (spec
// §4.6.9 "closures are always TPtr(TManaged(...))").
func (c *Checker) checkFuncDefExpr(n *ast.FuncDefExpr, sc *scope.Scope, fnLife *life.Life) (ir.Expr, types.Type, error) {
	name := fmt.Sprintf("__closure_%d", c.ids.Next())
	fnScope := scope.NewFunctionScope(name, sc)
	params := make([]ir.Param, len(n.Params))
	dims := make([]types.Dim, len(n.Params))
	for i, p := range n.Params {
		pt, err := c.elaborateTypeExpr(p.Type, sc)
		if err != nil {
			return nil, nil, err
		}
		params[i] = ir.Param{Name: p.Name, Typ: pt}
		dims[i] = types.Dim{Name: p.Name, Type: pt}
		if err := fnScope.PutBoundVariable(&scope.BoundVariable{Name: p.Name, Type: pt, Node: p}); err != nil {
			return nil, nil, err
		}
	}
	var retType types.Type = types.TNothing
	if n.ReturnType != nil {
		rt, err := c.elaborateTypeExpr(n.ReturnType, sc)
		if err != nil {
			return nil, nil, err
		}
		retType = rt
		fnScope.GetReturnTypeConstraint().Set(rt, n.Pos.String())
	}

	closureLife := life.New(life.Function)
	bodyScope := fnScope.NewLocalScope(name + ".body")
	blockLife := closureLife.NewLife(life.Block)
	stmts, returns, err := c.checkBlock(n.Body, bodyScope, blockLife)
	if err != nil {
		return nil, nil, err
	}
	rtc := fnScope.GetReturnTypeConstraint()
	if rtc.HasConstraint() {
		retType = rtc.Type
	}
	if !returns && !types.Equals(retType, types.TNothing) {
		return nil, nil, fmt.Errorf("TYP006: %s: closure %q does not return a value on all paths", n.Pos, name)
	}

	fnType := &types.TFunction{Args: types.NewTArgs(dims), Return: retType}
	fn := &ir.Function{ID: c.ids.Next(), Name: name, Params: params, ReturnType: retType, Body: &ir.Block{Stmts: stmts}, Pos: n.Pos}
	c.recordFunction(sc, fn)

	ptrType := &types.TPtr{Elem: &types.TManaged{Elem: fnType}}
	fnLife.Track(life.TrackedValue{Name: name, Type: ptrType}, life.Function)
	return &ir.FuncRef{Name: name, Typ: fnType}, ptrType, nil
}
