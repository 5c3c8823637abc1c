package ast

import "testing"

// TestTypeDefStmt_Sum tests that sum type definitions serialize correctly.
func TestTypeDefStmt_Sum(t *testing.T) {
	// type Option[a] is Some(a) | None
	typeDef := &TypeDefStmt{
		Name:       "Option",
		TypeParams: []string{"a"},
		Algebra: &SumAlgebra{
			Constructors: []*SumConstructor{
				{Name: "Some", Fields: []TypeExpr{&TypeVariable{Name: "a"}}, Pos: Pos{Line: 1, Column: 10}},
				{Name: "None", Fields: nil, Pos: Pos{Line: 1, Column: 20}},
			},
			Pos: Pos{Line: 1, Column: 1},
		},
		Pos: Pos{Line: 1, Column: 1},
	}

	output := Print(typeDef)
	if output == "" {
		t.Fatal("Print returned empty string")
	}
	for _, want := range []string{"TypeDefStmt", "Option", "SumAlgebra", "Some", "None"} {
		if !contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

// TestTypeDefStmt_Struct tests that struct type definitions serialize correctly.
func TestTypeDefStmt_Struct(t *testing.T) {
	// type Point has (x: int, y: int)
	typeDef := &TypeDefStmt{
		Name: "Point",
		Algebra: &StructAlgebra{
			Dims: []*StructDim{
				{Name: "x", Type: &TypeId{Name: "int"}, Pos: Pos{Line: 1, Column: 10}},
				{Name: "y", Type: &TypeId{Name: "int"}, Pos: Pos{Line: 1, Column: 20}},
			},
			Pos: Pos{Line: 1, Column: 1},
		},
		Pos: Pos{Line: 1, Column: 1},
	}

	output := Print(typeDef)
	if output == "" {
		t.Fatal("Print returned empty string")
	}
	for _, want := range []string{"TypeDefStmt", "StructAlgebra", "Point", "\"x\"", "\"y\""} {
		if !contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

// TestTupleExpr_Print tests that tuple expressions serialize correctly.
func TestTupleExpr_Print(t *testing.T) {
	tuple := &TupleExpr{
		Elements: []Expr{
			&Literal{Kind: IntLit, Value: int64(1)},
			&Literal{Kind: IntLit, Value: int64(2)},
			&Literal{Kind: IntLit, Value: int64(3)},
		},
		Pos: Pos{Line: 1, Column: 1},
	}

	output := Print(tuple)
	if output == "" {
		t.Fatal("Print returned empty string")
	}
	if !contains(output, "TupleExpr") {
		t.Errorf("output missing TupleExpr: %s", output)
	}
	if !contains(output, "elements") {
		t.Errorf("output missing elements: %s", output)
	}
}

// TestWhenStmt_Print tests that when statements serialize with their
// type-keyed cases.
func TestWhenStmt_Print(t *testing.T) {
	when := &WhenStmt{
		Scrutinee: &Reference{Name: "x"},
		Cases: []*WhenCase{
			{
				Pattern: &TypeId{Name: "Int"},
				Body:    []Stmt{&PassStmt{}},
			},
		},
		Else: []Stmt{&PassStmt{}},
		Pos:  Pos{Line: 1, Column: 1},
	}

	output := Print(when)
	if output == "" {
		t.Fatal("Print returned empty string")
	}
	for _, want := range []string{"WhenStmt", "TypeId", "Int", "cases", "else"} {
		if !contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

// TestFuncDefStmt_Print tests that function definitions serialize their
// params and return type.
func TestFuncDefStmt_Print(t *testing.T) {
	fn := &FuncDefStmt{
		Name: "add",
		Params: []*Param{
			{Name: "a", Type: &TypeId{Name: "int"}},
			{Name: "b", Type: &TypeId{Name: "int"}},
		},
		ReturnType: &TypeId{Name: "int"},
		Body: []Stmt{
			&ReturnStmt{Value: &PlusExpr{Left: &Reference{Name: "a"}, Op: "+", Right: &Reference{Name: "b"}}},
		},
		Pos: Pos{Line: 1, Column: 1},
	}

	output := Print(fn)
	if output == "" {
		t.Fatal("Print returned empty string")
	}
	for _, want := range []string{"FuncDefStmt", "add", "params", "returnType", "PlusExpr"} {
		if !contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

// TestDeterministicMarshaling tests that serialization is deterministic.
func TestDeterministicMarshaling(t *testing.T) {
	typeDef := &TypeDefStmt{
		Name:       "Result",
		TypeParams: []string{"a", "e"},
		Algebra: &SumAlgebra{
			Constructors: []*SumConstructor{
				{Name: "Ok", Fields: []TypeExpr{&TypeVariable{Name: "a"}}},
				{Name: "Err", Fields: []TypeExpr{&TypeVariable{Name: "e"}}},
			},
		},
	}

	var outputs []string
	for i := 0; i < 100; i++ {
		outputs = append(outputs, Print(typeDef))
	}

	baseline := outputs[0]
	for i, output := range outputs[1:] {
		if output != baseline {
			t.Errorf("iteration %d produced different output", i+1)
			break
		}
	}
}

// TestPrintProgram_Print tests that a Program serializes its modules keyed
// by name.
func TestPrintProgram_Print(t *testing.T) {
	prog := &Program{
		EntryModule: "main",
		Modules: map[string]*Module{
			"main": {
				Name: "main",
				Decls: []Stmt{
					&ExprStmt{X: &Literal{Kind: IntLit, Value: int64(1)}},
				},
			},
		},
	}

	output := PrintProgram(prog)
	if output == "" {
		t.Fatal("PrintProgram returned empty string")
	}
	for _, want := range []string{"Program", "main", "modules", "decls"} {
		if !contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && hasSubstring(s, substr)
}

func hasSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
