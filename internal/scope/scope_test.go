package scope

import (
	"testing"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/types"
)

func TestModuleScopeIdempotentCreate(t *testing.T) {
	prog := NewProgram()
	m1 := prog.NewModuleScope("main")
	m2 := prog.NewModuleScope("main")
	if m1 != m2 {
		t.Fatalf("expected NewModuleScope to return the same scope for repeated calls")
	}
}

func TestPutBoundVariableIdempotentSameSignature(t *testing.T) {
	prog := NewProgram()
	m := prog.NewModuleScope("main")
	v := &BoundVariable{Name: "x", Type: types.TIntType}
	if err := m.PutBoundVariable(v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.PutBoundVariable(&BoundVariable{Name: "x", Type: types.TIntType}); err != nil {
		t.Fatalf("re-inserting identical signature should be a no-op, got error: %v", err)
	}
	if len(m.GetBoundVariables("x")) != 1 {
		t.Fatalf("expected exactly one binding for x, got %d", len(m.GetBoundVariables("x")))
	}
}

func TestPutBoundVariableConflictingSignatureErrors(t *testing.T) {
	prog := NewProgram()
	m := prog.NewModuleScope("main")
	if err := m.PutBoundVariable(&BoundVariable{Name: "x", Type: types.TIntType}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.PutBoundVariable(&BoundVariable{Name: "x", Type: types.TStringType}); err == nil {
		t.Fatalf("expected an error rebinding x to an incompatible non-function type")
	}
}

func TestPutBoundVariableOverloadedFunctions(t *testing.T) {
	prog := NewProgram()
	m := prog.NewModuleScope("main")
	fn1 := &types.TFunction{Args: types.NewTArgs([]types.Dim{{Name: "a", Type: types.TIntType}}), Return: types.TIntType}
	fn2 := &types.TFunction{Args: types.NewTArgs([]types.Dim{{Name: "a", Type: types.TStringType}}), Return: types.TIntType}
	if err := m.PutBoundVariable(&BoundVariable{Name: "f", Type: fn1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.PutBoundVariable(&BoundVariable{Name: "f", Type: fn2}); err != nil {
		t.Fatalf("expected distinct function signatures to form an overload set, got: %v", err)
	}
	if len(m.GetBoundVariables("f")) != 2 {
		t.Fatalf("expected 2 overloads, got %d", len(m.GetBoundVariables("f")))
	}
}

func TestGetBoundVariablesSearchesAncestors(t *testing.T) {
	prog := NewProgram()
	m := prog.NewModuleScope("main")
	if err := m.PutBoundVariable(&BoundVariable{Name: "g", Type: types.TIntType}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn := NewFunctionScope("f", m)
	local := fn.NewLocalScope("block")
	if !local.HasBoundVariable("g", false) {
		t.Fatalf("expected module-level binding to be visible from a nested local scope")
	}
	if local.HasBoundVariable("g", true) {
		t.Fatalf("local-only lookup should not see the module-level binding")
	}
}

func TestReturnTypeConstraintSharedAcrossLocalScopes(t *testing.T) {
	prog := NewProgram()
	m := prog.NewModuleScope("main")
	fn := NewFunctionScope("f", m)
	block := fn.NewLocalScope("block")
	nested := block.NewLocalScope("nested-block")

	prior, had := nested.GetReturnTypeConstraint().Set(types.TIntType, "f.zion:1:1")
	if had {
		t.Fatalf("expected no prior constraint, got %v", prior)
	}
	if !fn.GetReturnTypeConstraint().HasConstraint() {
		t.Fatalf("expected setting the constraint from a nested local scope to be visible at the function scope")
	}
}

func TestLookupTypeAliasPrefersGenericSubstitution(t *testing.T) {
	prog := NewProgram()
	m := prog.NewModuleScope("main")
	m.PutTypeAlias("a", types.TIntType)

	sub := NewGenericSubstitutionScope("id<string>", m, nil, map[string]types.Type{"a": types.TStringType})
	got, ok := sub.LookupTypeAlias("a")
	if !ok || !types.Equals(got, types.TStringType) {
		t.Fatalf("expected generic substitution binding to shadow the module alias, got %v", got)
	}
}

func TestHasCheckedMarkChecked(t *testing.T) {
	prog := NewProgram()
	m := prog.NewModuleScope("main")
	node := &ast.ExprStmt{Pos: ast.Pos{File: "main.zion", Line: 3, Column: 1}}
	if m.HasChecked(node) {
		t.Fatalf("node should not be checked yet")
	}
	m.MarkChecked(node)
	if !m.HasChecked(node) {
		t.Fatalf("expected node to be marked checked")
	}
}

func TestPutBoundTypeInterning(t *testing.T) {
	prog := NewProgram()
	if err := prog.PutBoundType(types.TIntType); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := prog.PutBoundType(types.TIntType); err != nil {
		t.Fatalf("re-interning the same signature should be a no-op, got: %v", err)
	}
	got, ok := prog.GetBoundType(types.TIntType.Signature())
	if !ok || !types.Equals(got, types.TIntType) {
		t.Fatalf("expected to retrieve interned int type, got %v", got)
	}
}
