package ir

import (
	"strings"
	"testing"

	"github.com/sunholo/zion/internal/types"
)

func sampleProgram() *Program {
	fn := &Function{
		Name:       "add",
		Params:     []Param{{Name: "a", Typ: types.TIntType}, {Name: "b", Typ: types.TIntType}},
		ReturnType: types.TIntType,
		Body: &Block{Stmts: []Stmt{
			&Return{Value: &Lit{Value: 1, Typ: types.TIntType}},
		}},
	}
	mod := &Module{
		Name:      "m",
		Functions: []*Function{fn},
		Globals:   []*Global{{Name: "m.counter", Typ: types.TIntType}},
	}
	return &Program{Modules: []*Module{mod}}
}

func TestSprintContainsModuleAndFunctionHeaders(t *testing.T) {
	out := Sprint(sampleProgram())
	for _, want := range []string{"module m", "global m.counter: int", "func add(a: int, b: int) -> int", "return 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSprintBalancesModuleAndFuncEnds(t *testing.T) {
	out := Sprint(sampleProgram())
	if err := ValidateText(strings.NewReader(out)); err != nil {
		t.Fatalf("round-tripped Sprint output failed validation: %v", err)
	}
}

func TestSprintIncludesInitFunction(t *testing.T) {
	prog := sampleProgram()
	prog.InitFunction = &Function{Name: "__init_module_vars", ReturnType: types.TNothing}
	out := Sprint(prog)
	if !strings.Contains(out, "func __init_module_vars()") {
		t.Fatalf("expected init function to be printed, got:\n%s", out)
	}
}
