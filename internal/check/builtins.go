package check

import (
	"github.com/sunholo/zion/internal/scope"
	"github.com/sunholo/zion/internal/types"
)

// installBuiltinOperators registers the dunder overloads the runtime
// provides for every primitive type (spec §4.6.1, "the compiler assumes
// the runtime provides ... arithmetic/comparison overloads per
// integer/float/str"). They are bound on Program scope, once, so every
// module's operator desugaring (dunderOp in expr.go) resolves through the
// ordinary bound-variable path in resolveCall exactly like a user-defined
// overload would.
func installBuiltinOperators(program *scope.Scope) {
	arith := []string{"__plus__", "__minus__", "__times__", "__divide__", "__mod__"}
	numeric := []types.Type{types.TIntType, types.TFloatType}
	for _, name := range arith {
		for _, t := range numeric {
			bindBinaryOp(program, name, t, t, t)
		}
	}
	bindBinaryOp(program, "__plus__", types.TStringType, types.TStringType, types.TStringType)

	compare := []string{"__lt__", "__lte__", "__gt__", "__gte__"}
	for _, name := range compare {
		for _, t := range numeric {
			bindBinaryOp(program, name, t, t, types.TBoolType)
		}
	}

	eq := []types.Type{types.TIntType, types.TFloatType, types.TStringType, types.TBoolType, types.TCharType, types.TAtomType}
	for _, t := range eq {
		bindBinaryOp(program, "__eq__", t, t, types.TBoolType)
		bindBinaryOp(program, "__neq__", t, t, types.TBoolType)
	}

	for _, t := range numeric {
		bindUnaryOp(program, "__negate__", t, t)
		bindUnaryOp(program, "__positive__", t, t)
	}
	bindUnaryOp(program, "__not__", types.TBoolType, types.TBoolType)
}

func bindBinaryOp(program *scope.Scope, name string, lhs, rhs, ret types.Type) {
	fn := &types.TFunction{
		Args: types.NewTArgs([]types.Dim{
			{Name: "a", Type: lhs},
			{Name: "b", Type: rhs},
		}),
		Return: ret,
	}
	_ = program.PutBoundVariable(&scope.BoundVariable{Name: name, Type: fn})
}

func bindUnaryOp(program *scope.Scope, name string, operand, ret types.Type) {
	fn := &types.TFunction{
		Args:   types.NewTArgs([]types.Dim{{Name: "a", Type: operand}}),
		Return: ret,
	}
	_ = program.PutBoundVariable(&scope.BoundVariable{Name: name, Type: fn})
}
