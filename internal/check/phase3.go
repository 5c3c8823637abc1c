package check

import (
	"fmt"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/ir"
	"github.com/sunholo/zion/internal/life"
	"github.com/sunholo/zion/internal/scope"
	"github.com/sunholo/zion/internal/types"
	"github.com/sunholo/zion/internal/unify"
)

// phase3 elaborates every non-generic unchecked module-level function in
// source order, plus any extern `link` declarations. Functions reached
// early by a callsite from elsewhere are elaborated on first use and
// memoized (c.builtFunctions), so the source-order loop here simply
// skips anything already built.
func (c *Checker) phase3(mod *ast.Module, sc *scope.Scope) []*ir.Function {
	for _, uv := range sc.UncheckedVariablesOrdered() {
		c.elaborateUnchecked(uv, sc)
	}
	return c.moduleFuncs[sc.Name]
}

func (c *Checker) elaborateUnchecked(uv *scope.UncheckedVariable, sc *scope.Scope) *ir.Function {
	if fn, ok := c.builtFunctions[uv.Node]; ok {
		return fn
	}
	switch n := uv.Node.(type) {
	case *ast.FuncDefStmt:
		if len(n.TypeParams) > 0 {
			return nil // elaborated lazily, once per instantiation signature
		}
		fn := c.elaborateFuncDef(n, sc)
		c.builtFunctions[n] = fn
		c.recordFunction(sc, fn)
		return fn
	case *ast.LinkFunctionStmt:
		fn := c.elaborateExternFunc(n, sc)
		c.builtFunctions[n] = fn
		c.recordFunction(sc, fn)
		return fn
	case *ast.LinkNameStmt:
		fn := c.elaborateLinkName(n, sc)
		c.builtFunctions[n] = fn
		c.recordFunction(sc, fn)
		return fn
	}
	return nil
}

// recordFunction files fn under its owning module's function list,
// regardless of how deeply nested the scope that triggered elaboration
// is (a nested def inside an if-branch still belongs to its enclosing
// module, not whatever local scope happened to request it).
func (c *Checker) recordFunction(sc *scope.Scope, fn *ir.Function) {
	name := sc.Name
	if ms := sc.ModuleScope(); ms != nil {
		name = ms.Name
	}
	c.moduleFuncs[name] = append(c.moduleFuncs[name], fn)
}

func (c *Checker) declaredSignature(fd *ast.FuncDefStmt, sc *scope.Scope) (*types.TFunction, error) {
	return c.signatureOf(fd.Params, fd.ReturnType, sc)
}

func (c *Checker) signatureOf(params []*ast.Param, retType ast.TypeExpr, sc *scope.Scope) (*types.TFunction, error) {
	dims := make([]types.Dim, len(params))
	for i, p := range params {
		pt, err := c.elaborateTypeExpr(p.Type, sc)
		if err != nil {
			return nil, err
		}
		dims[i] = types.Dim{Name: p.Name, Type: pt}
	}
	ret := types.Type(types.TNothing)
	if retType != nil {
		rt, err := c.elaborateTypeExpr(retType, sc)
		if err != nil {
			return nil, err
		}
		ret = rt
	}
	return &types.TFunction{Args: types.NewTArgs(dims), Return: ret}, nil
}

func (c *Checker) elaborateFuncDef(fd *ast.FuncDefStmt, sc *scope.Scope) *ir.Function {
	fnScope := scope.NewFunctionScope(fd.Name, sc)
	params := make([]ir.Param, len(fd.Params))
	for i, p := range fd.Params {
		pt, err := c.elaborateTypeExpr(p.Type, sc)
		if err != nil {
			c.Diags.Errorf("TYP003", "type", toDiagPos(p.Pos), "%v", err)
			pt = types.TNothing
		}
		params[i] = ir.Param{Name: p.Name, Typ: pt}
		if err := fnScope.PutBoundVariable(&scope.BoundVariable{Name: p.Name, Type: pt, Node: p}); err != nil {
			c.Diags.Errorf("TYP004", "type", toDiagPos(p.Pos), "%v", err)
		}
	}
	if fd.ReturnType != nil {
		rt, err := c.elaborateTypeExpr(fd.ReturnType, sc)
		if err != nil {
			c.Diags.Errorf("TYP003", "type", toDiagPos(fd.Pos), "%v", err)
		} else {
			fnScope.GetReturnTypeConstraint().Set(rt, fd.Pos.String())
		}
	}

	fnLife := life.New(life.Function)
	bodyScope := fnScope.NewLocalScope(fd.Name + ".body")
	blockLife := fnLife.NewLife(life.Block)
	stmts, returns, err := c.checkBlock(fd.Body, bodyScope, blockLife)
	if err != nil {
		c.Diags.Errorf("TYP006", "type", toDiagPos(fd.Pos), "%v", err)
	}

	rtc := fnScope.GetReturnTypeConstraint()
	retType := types.Type(types.TNothing)
	if rtc.HasConstraint() {
		retType = rtc.Type
	}
	if !returns && !types.Equals(retType, types.TNothing) {
		c.Diags.Errorf("SEM004", "semantic", toDiagPos(fd.Pos), "function %q does not return a value on all paths", fd.Name)
	}

	return &ir.Function{
		ID:         c.ids.Next(),
		Name:       fd.Name,
		Params:     params,
		ReturnType: retType,
		Body:       &ir.Block{Stmts: stmts},
		Pos:        fd.Pos,
	}
}

func (c *Checker) elaborateExternFunc(ln *ast.LinkFunctionStmt, sc *scope.Scope) *ir.Function {
	return &ir.Function{
		ID:   c.ids.Next(),
		Name: ln.Name,
		Pos:  ln.Pos,
	}
}

func (c *Checker) elaborateLinkName(ln *ast.LinkNameStmt, sc *scope.Scope) *ir.Function {
	params := make([]ir.Param, len(ln.Params))
	for i, p := range ln.Params {
		pt, err := c.elaborateTypeExpr(p.Type, sc)
		if err != nil {
			c.Diags.Errorf("TYP003", "type", toDiagPos(p.Pos), "%v", err)
			pt = types.TNothing
		}
		params[i] = ir.Param{Name: p.Name, Typ: pt}
	}
	ret := types.Type(types.TNothing)
	if ln.ReturnType != nil {
		if rt, err := c.elaborateTypeExpr(ln.ReturnType, sc); err == nil {
			ret = rt
		}
	}
	return &ir.Function{ID: c.ids.Next(), Name: ln.Name, Params: params, ReturnType: ret, Pos: ln.Pos}
}

// resolveCall implements spec §4.6's callsite elaboration: gather
// candidates via get_callables, unify each candidate's declared
// parameter-tuple against the callsite argument tuple, skipping
// failures; exactly one success emits a call, zero is a diagnostic
// listing tried overloads, more than one is ambiguity.
func (c *Checker) resolveCall(name string, pos ast.Pos, argExprs []ir.Expr, argTypes []types.Type, sc *scope.Scope) (ir.Expr, types.Type, error) {
	argDims := make([]types.Dim, len(argTypes))
	for i, t := range argTypes {
		argDims[i] = types.Dim{Name: fmt.Sprintf("a%d", i), Type: t}
	}
	calleeArgs := types.NewTArgs(argDims)

	type match struct {
		callee ir.Expr
		ret    types.Type
		tried  string
	}
	var matches []match
	var tried []string

	for _, bv := range sc.GetBoundVariables(name) {
		fnType, ok := bv.Type.(*types.TFunction)
		if !ok {
			continue
		}
		tried = append(tried, fnType.Signature())
		if _, err := unify.Unify(fnType.Args, calleeArgs, sc, nil); err == nil {
			matches = append(matches, match{
				callee: &ir.FuncRef{Name: name, Typ: fnType},
				ret:    fnType.Return,
			})
		}
	}

	for _, uc := range sc.GetUncheckedCallables(name) {
		switch fd := uc.Var.Node.(type) {
		case *ast.FuncDefStmt:
			declSig, err := c.declaredSignature(fd, uc.Owner)
			if err != nil {
				continue
			}
			tried = append(tried, declSig.Signature())
			u, err := unify.Unify(declSig.Args, calleeArgs, uc.Owner, nil)
			if err != nil {
				continue
			}
			if len(fd.TypeParams) == 0 {
				fn := c.elaborateUnchecked(uc.Var, uc.Owner)
				matches = append(matches, match{
					callee: &ir.FuncRef{Name: name, Typ: declSig},
					ret:    fn.ReturnType,
				})
				continue
			}
			fn := c.instantiateGeneric(fd, uc.Owner, declSig, u.Bindings)
			matches = append(matches, match{
				callee: &ir.FuncRef{Name: fn.Name, Typ: &types.TFunction{Args: calleeArgs, Return: fn.ReturnType}},
				ret:    fn.ReturnType,
			})

		case *ast.LinkNameStmt:
			declSig, err := c.signatureOf(fd.Params, fd.ReturnType, uc.Owner)
			if err != nil {
				continue
			}
			tried = append(tried, declSig.Signature())
			if _, err := unify.Unify(declSig.Args, calleeArgs, uc.Owner, nil); err != nil {
				continue
			}
			fn := c.elaborateUnchecked(uc.Var, uc.Owner)
			matches = append(matches, match{
				callee: &ir.FuncRef{Name: name, Typ: declSig},
				ret:    fn.ReturnType,
			})
		}
	}

	switch len(matches) {
	case 0:
		return nil, nil, fmt.Errorf("TYP009: %s: no overload of %q matches argument types %s (tried: %v)", pos, name, calleeArgs.Signature(), tried)
	case 1:
		return &ir.Call{Callee: matches[0].callee, Args: argExprs, Typ: matches[0].ret}, matches[0].ret, nil
	default:
		return nil, nil, fmt.Errorf("TYP010: %s: call to %q is ambiguous between %d overloads", pos, name, len(matches))
	}
}

// instantiateGeneric elaborates a generic function body once per
// distinct instantiation signature, memoized in c.instantiations (spec
// §5 "instantiation memoization makes repeated instantiation
// idempotent").
func (c *Checker) instantiateGeneric(fd *ast.FuncDefStmt, owner *scope.Scope, declSig *types.TFunction, bindings map[string]types.Type) *ir.Function {
	instantiated := declSig.Substitute(bindings).(*types.TFunction)
	key := fd.Name + "#" + instantiated.Signature()
	if fn, ok := c.instantiations[key]; ok {
		return fn
	}

	subScope := scope.NewGenericSubstitutionScope(key, owner, declSig, bindings)
	fnScope := scope.NewFunctionScope(fd.Name, subScope)
	params := make([]ir.Param, len(fd.Params))
	for i, dim := range instantiated.Args.Dims {
		params[i] = ir.Param{Name: dim.Name, Typ: dim.Type}
		if err := fnScope.PutBoundVariable(&scope.BoundVariable{Name: dim.Name, Type: dim.Type, Node: fd.Params[i]}); err != nil {
			c.Diags.Errorf("TYP004", "type", toDiagPos(fd.Pos), "%v", err)
		}
	}
	fnScope.GetReturnTypeConstraint().Set(instantiated.Return, fd.Pos.String())

	fnLife := life.New(life.Function)
	bodyScope := fnScope.NewLocalScope(fd.Name + ".body")
	blockLife := fnLife.NewLife(life.Block)
	stmts, returns, err := c.checkBlock(fd.Body, bodyScope, blockLife)
	if err != nil {
		c.Diags.Errorf("TYP006", "type", toDiagPos(fd.Pos), "%v", err)
	}

	rtc := fnScope.GetReturnTypeConstraint()
	retType := rtc.Type
	if !returns && !types.Equals(retType, types.TNothing) {
		c.Diags.Errorf("SEM004", "semantic", toDiagPos(fd.Pos), "function %q does not return a value on all paths", fd.Name)
	}

	fn := &ir.Function{
		ID:         c.ids.Next(),
		Name:       key,
		Params:     params,
		ReturnType: retType,
		Body:       &ir.Block{Stmts: stmts},
		Pos:        fd.Pos,
	}
	c.instantiations[key] = fn
	c.moduleFuncs[owner.Name] = append(c.moduleFuncs[owner.Name], fn)
	return fn
}
