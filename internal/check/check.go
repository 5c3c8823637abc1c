// Package check implements Zion's type checker and lowerer (spec §4.6,
// Component H): the phases that turn a parsed module set into typed IR.
// Phase 0 registers every module-level declaration as unchecked; Phase 1
// elaborates type definitions; Phase 2 folds module-level var_decls into
// a synthetic initializer; Phase 3 elaborates function bodies and
// resolves callsites against the accumulated overload sets, unifying
// argument types through internal/unify and instantiating generics
// lazily, memoized by instantiation signature.
package check

import (
	"fmt"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/diag"
	"github.com/sunholo/zion/internal/ir"
	"github.com/sunholo/zion/internal/life"
	"github.com/sunholo/zion/internal/scope"
	"github.com/sunholo/zion/internal/types"
)

// Checker carries all state threaded through the phases for one
// compilation: the program scope tree, the shared fresh-variable
// generator, the diagnostic sink, and the generic-instantiation memo
// table (spec §5, "instantiation memoization makes repeated
// instantiation idempotent").
type Checker struct {
	Program *scope.Scope
	VarGen  *types.VarGen
	Diags   *diag.Bag
	ids     *ir.IDGen

	instantiations map[string]*ir.Function
	builtFunctions map[ast.Node]*ir.Function
	moduleFuncs    map[string][]*ir.Function
}

// New creates a checker over an already-populated program scope (the
// driver owns module-scope creation during loading).
func New(program *scope.Scope, varGen *types.VarGen, diags *diag.Bag) *Checker {
	installBuiltinOperators(program)
	return &Checker{
		Program:        program,
		VarGen:         varGen,
		Diags:          diags,
		ids:            ir.NewIDGen(),
		instantiations: map[string]*ir.Function{},
		builtFunctions: map[ast.Node]*ir.Function{},
		moduleFuncs:    map[string][]*ir.Function{},
	}
}

func toDiagPos(p ast.Pos) diag.Pos {
	return diag.Pos{File: p.File, Line: p.Line, Column: p.Column, Offset: p.Offset}
}

// CheckProgram runs phases 0 through 3 over mods in order (spec §5:
// deterministic module processing order, the transitive closure of
// `link module` in encounter order from the entry module). The caller
// is responsible for having already created each module's scope (the
// driver does this while loading, since module scopes must exist before
// cross-module `link module` visibility can be resolved).
func (c *Checker) CheckProgram(mods []*ast.Module) (*ir.Program, error) {
	modScopes := make(map[*ast.Module]*scope.Scope, len(mods))
	for _, mod := range mods {
		modScopes[mod] = c.Program.NewModuleScope(mod.Name)
	}

	for _, mod := range mods {
		c.phase0(mod, modScopes[mod])
		if c.Diags.CheckLatch() {
			return nil, fmt.Errorf("TYP000: phase 0 failed for module %q", mod.Name)
		}
	}

	for _, mod := range mods {
		c.phase1(mod, modScopes[mod])
	}
	if c.Diags.CheckLatch() {
		return nil, fmt.Errorf("TYP000: phase 1 failed")
	}

	var globals []*ir.Global
	var initStmts []ir.Stmt
	for _, mod := range mods {
		gs, stmts := c.phase2(mod, modScopes[mod])
		globals = append(globals, gs...)
		initStmts = append(initStmts, stmts...)
	}
	if c.Diags.CheckLatch() {
		return nil, fmt.Errorf("TYP000: phase 2 failed")
	}

	irModules := make([]*ir.Module, 0, len(mods))
	for _, mod := range mods {
		fns := c.phase3(mod, modScopes[mod])
		irModules = append(irModules, &ir.Module{
			Name:      mod.Name,
			Functions: fns,
			Globals:   globalsForModule(globals, mod.Name),
		})
	}

	prog := &ir.Program{
		Modules: irModules,
		InitFunction: &ir.Function{
			ID:         c.ids.Next(),
			Name:       "__init_module_vars",
			ReturnType: types.TNothing,
			Body:       &ir.Block{Stmts: initStmts},
		},
	}

	if c.Diags.CheckLatch() {
		return prog, fmt.Errorf("TYP000: checking failed with diagnostics")
	}
	return prog, nil
}

func globalsForModule(all []*ir.Global, modName string) []*ir.Global {
	// Globals are recorded with a module-qualified name ("mod.name"); this
	// filters phase2's flat accumulation back out per module for ir.Module.
	var out []*ir.Global
	prefix := modName + "."
	for _, g := range all {
		if len(g.Name) > len(prefix) && g.Name[:len(prefix)] == prefix {
			out = append(out, g)
		}
	}
	return out
}

// phase0 registers every module-level declaration as unchecked,
// building the name -> AST-node map Phase 3 drains. No type checking
// happens here.
func (c *Checker) phase0(mod *ast.Module, sc *scope.Scope) {
	for _, decl := range mod.Decls {
		switch d := decl.(type) {
		case *ast.FuncDefStmt:
			sc.PutUncheckedVariable(d.Name, d)
		case *ast.TypeDefStmt:
			sc.PutUncheckedType(d.Name, d)
		case *ast.TagDeclStmt:
			sc.PutUncheckedType(d.Name, d)
		case *ast.VarDecl:
			sc.PutUncheckedVariable(d.Name, d)
		case *ast.LinkFunctionStmt:
			sc.PutUncheckedVariable(d.Name, d)
		case *ast.LinkNameStmt:
			sc.PutUncheckedVariable(d.Name, d)
		case *ast.LinkModuleStmt:
			// handled by the driver during module loading.
		default:
			c.Diags.Errorf("TYP002", "type", toDiagPos(decl.Position()), "unsupported top-level declaration %T", decl)
		}
	}
}

// phase1 visits unchecked types in source order, elaborating each
// `type X is/has/matches` right-hand side into a bound type and
// installing it into the module's type alias environment.
func (c *Checker) phase1(mod *ast.Module, sc *scope.Scope) {
	for _, ut := range sc.UncheckedTypesOrdered() {
		td, ok := ut.Node.(*ast.TypeDefStmt)
		if !ok {
			// A bare tag decl: install a singleton nominal type.
			sc.PutTypeAlias(ut.Name, &types.TId{Name: ut.Name})
			continue
		}
		c.elaborateTypeDef(td, sc)
	}
}

func (c *Checker) elaborateTypeDef(td *ast.TypeDefStmt, sc *scope.Scope) {
	switch alg := td.Algebra.(type) {
	case *ast.StructAlgebra:
		dims, err := c.elaborateDims(alg.Dims, sc)
		if err != nil {
			c.Diags.Errorf("TYP003", "type", toDiagPos(td.Pos), "%v", err)
			return
		}
		structType := types.NewTStruct(dims)
		sc.PutTypeAlias(td.Name, structType)

		ctorType := &types.TFunction{
			Args:   types.NewTArgs(dims),
			Return: &types.TPtr{Elem: &types.TManaged{Elem: structType}},
		}
		if err := sc.PutBoundVariable(&scope.BoundVariable{Name: td.Name, Type: ctorType, Node: td}); err != nil {
			c.Diags.Errorf("TYP004", "type", toDiagPos(td.Pos), "%v", err)
		}

	case *ast.SumAlgebra:
		var options []types.Type
		for _, ctor := range alg.Constructors {
			if len(ctor.Fields) == 0 {
				tag := &types.TId{Name: ctor.Name}
				options = append(options, tag)
				sc.PutTypeAlias(ctor.Name, tag)
				continue
			}
			dims := make([]types.Dim, len(ctor.Fields))
			for i, f := range ctor.Fields {
				ft, err := c.elaborateTypeExpr(f, sc)
				if err != nil {
					c.Diags.Errorf("TYP003", "type", toDiagPos(td.Pos), "%v", err)
					continue
				}
				dims[i] = types.Dim{Name: fmt.Sprintf("f%d", i), Type: ft}
			}
			shape := &types.TPtr{Elem: &types.TManaged{Elem: types.NewTStruct(dims)}}
			options = append(options, shape)

			ctorType := &types.TFunction{Args: types.NewTArgs(dims), Return: shape}
			if err := sc.PutBoundVariable(&scope.BoundVariable{Name: ctor.Name, Type: ctorType, Node: td}); err != nil {
				c.Diags.Errorf("TYP004", "type", toDiagPos(td.Pos), "%v", err)
			}
		}
		loc := types.Location{File: td.Pos.File, Line: td.Pos.Line, Column: td.Pos.Column}
		sc.PutTypeAlias(td.Name, types.NewTSum(options, loc))

	case *ast.MatchesAlgebra:
		target, err := c.elaborateTypeExpr(alg.Target, sc)
		if err != nil {
			c.Diags.Errorf("TYP003", "type", toDiagPos(td.Pos), "%v", err)
			return
		}
		sc.PutTypeAlias(td.Name, target)

	default:
		c.Diags.Errorf("TYP005", "type", toDiagPos(td.Pos), "unrecognized type algebra for %q", td.Name)
	}
}

// phase2 folds every module-level var_decl initializer into a global
// allocation plus a Store statement appended to the synthetic
// __init_module_vars body (spec §4.6 Phase 2).
func (c *Checker) phase2(mod *ast.Module, sc *scope.Scope) ([]*ir.Global, []ir.Stmt) {
	var globals []*ir.Global
	var stmts []ir.Stmt

	for _, decl := range mod.Decls {
		vd, ok := decl.(*ast.VarDecl)
		if !ok {
			continue
		}
		qualified := mod.Name + "." + vd.Name

		var declared types.Type
		if vd.Type != nil {
			t, err := c.elaborateTypeExpr(vd.Type, sc)
			if err != nil {
				c.Diags.Errorf("TYP003", "type", toDiagPos(vd.Pos), "%v", err)
				continue
			}
			declared = t
		}

		var initExpr ir.Expr
		var exprType types.Type
		if vd.Init != nil {
			fnLife := life.New(life.Function)
			e, t, err := c.checkExpr(vd.Init, sc, fnLife)
			if err != nil {
				c.Diags.Errorf("TYP006", "type", toDiagPos(vd.Pos), "%v", err)
				continue
			}
			initExpr, exprType = e, t
		}

		finalType := declared
		if finalType == nil {
			finalType = exprType
		}
		if finalType == nil {
			c.Diags.Errorf("TYP007", "type", toDiagPos(vd.Pos), "module variable %q has neither a declared type nor an initializer", vd.Name)
			continue
		}

		globals = append(globals, &ir.Global{Name: qualified, Typ: finalType, Pos: vd.Pos})
		if err := sc.PutBoundVariable(&scope.BoundVariable{Name: vd.Name, Type: finalType, Node: vd}); err != nil {
			c.Diags.Errorf("TYP004", "type", toDiagPos(vd.Pos), "%v", err)
		}

		if initExpr != nil {
			stmts = append(stmts, &ir.Store{Global: qualified, Value: initExpr})
		}
	}

	return globals, stmts
}
