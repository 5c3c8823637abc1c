package ir

import (
	"testing"

	"github.com/sunholo/zion/internal/types"
)

func TestCallString(t *testing.T) {
	callee := &FuncRef{Name: "plus", Typ: &types.TFunction{
		Args:   types.NewTArgs([]types.Dim{{Name: "a", Type: types.TIntType}, {Name: "b", Type: types.TIntType}}),
		Return: types.TIntType,
	}}
	call := &Call{
		Callee: callee,
		Args:   []Expr{&Lit{Value: 1, Typ: types.TIntType}, &Lit{Value: 2, Typ: types.TIntType}},
		Typ:    types.TIntType,
	}
	want := "plus:(int,int)->int(1, 2)"
	if got := call.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFunctionSignature(t *testing.T) {
	fn := &Function{
		Name:       "plus",
		Params:     []Param{{Name: "a", Typ: types.TIntType}, {Name: "b", Typ: types.TIntType}},
		ReturnType: types.TIntType,
	}
	want := "(int,int)->int"
	if got := fn.Signature(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestIDGenMonotonic(t *testing.T) {
	g := NewIDGen()
	a := g.Next()
	b := g.Next()
	if b != a+1 {
		t.Fatalf("expected monotonically increasing ids, got %d then %d", a, b)
	}
}

func TestIfStringWithAndWithoutElse(t *testing.T) {
	cond := &Lit{Value: true, Typ: types.TBoolType}
	then := &Block{}
	ifNoElse := &If{Cond: cond, Then: then}
	if got := ifNoElse.String(); got == "" {
		t.Fatalf("expected non-empty rendering")
	}
	ifWithElse := &If{Cond: cond, Then: then, Else: &Block{}}
	if ifNoElse.String() == ifWithElse.String() {
		t.Fatalf("expected if/else rendering to differ from if-only rendering")
	}
}
