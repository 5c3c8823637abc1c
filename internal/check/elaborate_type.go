package check

import (
	"fmt"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/scope"
	"github.com/sunholo/zion/internal/types"
)

// elaborateTypeExpr converts a parsed type descriptor into a types.Type.
// A bare name that denotes a user type is never structurally expanded
// here — it resolves to the nominal *types.TId for that name, and the
// name's structural definition is reachable separately through
// sc.LookupTypeAlias (installed by elaborateTypeDef). This is what lets
// a recursive type definition (`type list is nil | cons(head, tail:
// list)`) elaborate without infinite recursion: internal/unify expands
// the alias lazily, one step at a time, bounded by its own depth limit.
func (c *Checker) elaborateTypeExpr(te ast.TypeExpr, sc *scope.Scope) (types.Type, error) {
	switch t := te.(type) {
	case nil:
		return types.TNothing, nil

	case *ast.TypeId:
		return c.resolveTypeName(t.Name, sc), nil

	case *ast.TypeVariable:
		name := t.Name
		if name == "" {
			name = c.VarGen.Fresh(types.Location{File: t.Pos.File, Line: t.Pos.Line, Column: t.Pos.Column}).Name
		}
		return &types.TVar{Name: name, Loc: types.Location{File: t.Pos.File, Line: t.Pos.Line, Column: t.Pos.Column}}, nil

	case *ast.TypeOperator:
		head, err := c.elaborateTypeExpr(t.Head, sc)
		if err != nil {
			return nil, err
		}
		arg, err := c.elaborateTypeExpr(t.Arg, sc)
		if err != nil {
			return nil, err
		}
		return &types.TOperator{Head: head, Arg: arg}, nil

	case *ast.SumType:
		opts := make([]types.Type, len(t.Options))
		for i, o := range t.Options {
			ot, err := c.elaborateTypeExpr(o, sc)
			if err != nil {
				return nil, err
			}
			opts[i] = ot
		}
		loc := types.Location{File: t.Pos.File, Line: t.Pos.Line, Column: t.Pos.Column}
		return types.NewTSum(opts, loc), nil

	case *ast.ProductType:
		dims, err := c.elaborateDims(t.Dims, sc)
		if err != nil {
			return nil, err
		}
		return types.NewTStruct(dims), nil

	case *ast.FunctionType:
		dims := make([]types.Dim, len(t.Args))
		for i, a := range t.Args {
			at, err := c.elaborateTypeExpr(a, sc)
			if err != nil {
				return nil, err
			}
			dims[i] = types.Dim{Name: fmt.Sprintf("arg%d", i), Type: at}
		}
		ret, err := c.elaborateTypeExpr(t.Return, sc)
		if err != nil {
			return nil, err
		}
		return &types.TFunction{Args: types.NewTArgs(dims), Return: ret}, nil

	case *ast.MaybeType:
		just, err := c.elaborateTypeExpr(t.Just, sc)
		if err != nil {
			return nil, err
		}
		return types.NewTMaybe(just), nil

	case *ast.PointerType:
		elem, err := c.elaborateTypeExpr(t.Elem, sc)
		if err != nil {
			return nil, err
		}
		return &types.TPtr{Elem: elem}, nil

	case *ast.RefType:
		elem, err := c.elaborateTypeExpr(t.Elem, sc)
		if err != nil {
			return nil, err
		}
		return types.NewTRef(elem), nil

	case *ast.LambdaType:
		body, err := c.elaborateTypeExpr(t.Body, sc)
		if err != nil {
			return nil, err
		}
		return &types.TLambda{Bound: t.Bound, Body: body}, nil

	case *ast.ManagedType:
		elem, err := c.elaborateTypeExpr(t.Elem, sc)
		if err != nil {
			return nil, err
		}
		return &types.TManaged{Elem: elem}, nil
	}

	return nil, fmt.Errorf("TYP001: unrecognized type expression %T at %s", te, te.Position())
}

func (c *Checker) elaborateDims(structDims []*ast.StructDim, sc *scope.Scope) ([]types.Dim, error) {
	dims := make([]types.Dim, len(structDims))
	for i, d := range structDims {
		dt, err := c.elaborateTypeExpr(d.Type, sc)
		if err != nil {
			return nil, err
		}
		dims[i] = types.Dim{Name: d.Name, Type: dt}
	}
	return dims, nil
}

// resolveTypeName maps a primitive keyword to its built-in type, and any
// other name to the nominal TId the rest of the checker treats
// opaquely until unification needs to expand it via the scope's type
// alias table.
func (c *Checker) resolveTypeName(name string, sc *scope.Scope) types.Type {
	switch name {
	case "int":
		return types.TIntType
	case "float":
		return types.TFloatType
	case "string":
		return types.TStringType
	case "bool":
		return types.TBoolType
	case "char":
		return types.TCharType
	case "atom":
		return types.TAtomType
	case "nothing", "void":
		return types.TNothing
	default:
		return &types.TId{Name: name}
	}
}
