package ast

import (
	"encoding/json"
	"fmt"
)

// PrintProgram produces a deterministic JSON representation of a Program,
// used for golden snapshot testing.
func PrintProgram(prog *Program) string {
	if prog == nil {
		return "null"
	}
	m := map[string]interface{}{"type": "Program", "entry": prog.EntryModule}
	mods := make(map[string]interface{}, len(prog.Modules))
	for name, mod := range prog.Modules {
		mods[name] = simplify(mod)
	}
	m["modules"] = mods
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

// Print produces a deterministic JSON representation of an AST node.
//
// Design decisions:
//   - Omits instance-specific metadata: SIDs, byte offsets, detailed positions
//   - Includes a "type" field for each node to identify node kind
//   - Uses a hand-written simplify() switch rather than struct tags, so the
//     shape stays stable as fields are added
func Print(node Node) string {
	if node == nil {
		return "null"
	}
	data, err := json.MarshalIndent(simplify(node), "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

// Compact returns a compact single-line JSON representation.
func Compact(node Node) string {
	data, err := json.Marshal(simplify(node))
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

func simplify(node interface{}) interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Module:
		m := map[string]interface{}{"type": "Module", "name": n.Name}
		if n.Version != "" {
			m["version"] = n.Version
		}
		if len(n.Decls) > 0 {
			m["decls"] = simplifyStmtSlice(n.Decls)
		}
		return m

	case *Literal:
		m := map[string]interface{}{"type": "Literal", "kind": literalKindString(n.Kind)}
		if n.Value != nil {
			m["value"] = n.Value
		}
		return m

	case *Reference:
		return map[string]interface{}{"type": "Reference", "name": n.Name}

	case *PrefixExpr:
		return map[string]interface{}{"type": "PrefixExpr", "op": n.Op, "operand": simplify(n.Operand)}

	case *PlusExpr:
		return binOp("PlusExpr", n.Op, n.Left, n.Right)
	case *TimesExpr:
		return binOp("TimesExpr", n.Op, n.Left, n.Right)
	case *EqExpr:
		return binOp("EqExpr", n.Op, n.Left, n.Right)
	case *IneqExpr:
		return binOp("IneqExpr", n.Op, n.Left, n.Right)
	case *AndExpr:
		return map[string]interface{}{"type": "AndExpr", "left": simplify(n.Left), "right": simplify(n.Right)}
	case *OrExpr:
		return map[string]interface{}{"type": "OrExpr", "left": simplify(n.Left), "right": simplify(n.Right)}

	case *TernaryExpr:
		return map[string]interface{}{
			"type": "TernaryExpr", "cond": simplify(n.Cond), "then": simplify(n.Then), "else": simplify(n.Else),
		}

	case *AssignmentExpr:
		return map[string]interface{}{
			"type": "AssignmentExpr", "op": n.Op, "target": simplify(n.Target), "value": simplify(n.Value),
		}

	case *DotAccess:
		return map[string]interface{}{"type": "DotAccess", "target": simplify(n.Target), "field": n.Field}

	case *ArrayIndex:
		return map[string]interface{}{"type": "ArrayIndex", "target": simplify(n.Target), "index": simplify(n.Index)}

	case *Callsite:
		m := map[string]interface{}{"type": "Callsite", "callee": simplify(n.Callee)}
		if len(n.Args) > 0 {
			m["args"] = simplifyExprSlice(n.Args)
		}
		return m

	case *TupleExpr:
		m := map[string]interface{}{"type": "TupleExpr"}
		if len(n.Elements) > 0 {
			m["elements"] = simplifyExprSlice(n.Elements)
		}
		return m

	case *ArrayLiteral:
		m := map[string]interface{}{"type": "ArrayLiteral"}
		if len(n.Elements) > 0 {
			m["elements"] = simplifyExprSlice(n.Elements)
		}
		return m

	case *CastExpr:
		return map[string]interface{}{"type": "CastExpr", "operand": simplify(n.Operand), "target": simplify(n.Target)}

	case *SizeofExpr:
		return map[string]interface{}{"type": "SizeofExpr", "target": simplify(n.Target)}

	case *TypeidExpr:
		return map[string]interface{}{"type": "TypeidExpr", "operand": simplify(n.Operand)}

	case *FuncDefExpr:
		m := map[string]interface{}{"type": "FuncDefExpr", "body": simplifyStmtSlice(n.Body)}
		if len(n.Params) > 0 {
			m["params"] = simplifyParamSlice(n.Params)
		}
		if n.ReturnType != nil {
			m["returnType"] = simplify(n.ReturnType)
		}
		return m

	case *Param:
		m := map[string]interface{}{"type": "Param", "name": n.Name}
		if n.Type != nil {
			m["typeAnnotation"] = simplify(n.Type)
		}
		return m

	// Statements
	case *VarDecl:
		m := map[string]interface{}{"type": "VarDecl", "name": n.Name}
		if n.Type != nil {
			m["typeAnnotation"] = simplify(n.Type)
		}
		if n.Init != nil {
			m["init"] = simplify(n.Init)
		}
		return m

	case *AssignStmt:
		return map[string]interface{}{
			"type": "AssignStmt", "op": n.Op, "target": simplify(n.Target), "value": simplify(n.Value),
		}

	case *IfStmt:
		m := map[string]interface{}{"type": "IfStmt", "cond": simplify(n.Cond), "then": simplifyStmtSlice(n.Then)}
		if len(n.Else) > 0 {
			m["else"] = simplifyStmtSlice(n.Else)
		}
		return m

	case *WhileStmt:
		return map[string]interface{}{"type": "WhileStmt", "cond": simplify(n.Cond), "body": simplifyStmtSlice(n.Body)}

	case *ForStmt:
		return map[string]interface{}{
			"type": "ForStmt", "var": n.Var, "iterable": simplify(n.Iterable), "body": simplifyStmtSlice(n.Body),
		}

	case *BreakStmt:
		return map[string]interface{}{"type": "BreakStmt"}
	case *ContinueStmt:
		return map[string]interface{}{"type": "ContinueStmt"}
	case *PassStmt:
		return map[string]interface{}{"type": "PassStmt"}

	case *ReturnStmt:
		m := map[string]interface{}{"type": "ReturnStmt"}
		if n.Value != nil {
			m["value"] = simplify(n.Value)
		}
		return m

	case *WhenStmt:
		m := map[string]interface{}{"type": "WhenStmt", "scrutinee": simplify(n.Scrutinee)}
		cases := make([]interface{}, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = map[string]interface{}{"pattern": simplify(c.Pattern), "body": simplifyStmtSlice(c.Body)}
		}
		m["cases"] = cases
		if len(n.Else) > 0 {
			m["else"] = simplifyStmtSlice(n.Else)
		}
		return m

	case *BlockStmt:
		return map[string]interface{}{"type": "BlockStmt", "stmts": simplifyStmtSlice(n.Stmts)}

	case *FuncDefStmt:
		m := map[string]interface{}{"type": "FuncDefStmt", "name": n.Name, "body": simplifyStmtSlice(n.Body)}
		if len(n.Params) > 0 {
			m["params"] = simplifyParamSlice(n.Params)
		}
		if n.ReturnType != nil {
			m["returnType"] = simplify(n.ReturnType)
		}
		if len(n.TypeParams) > 0 {
			m["typeParams"] = n.TypeParams
		}
		if n.IsExported {
			m["exported"] = true
		}
		return m

	case *TypeDefStmt:
		m := map[string]interface{}{"type": "TypeDefStmt", "name": n.Name}
		if len(n.TypeParams) > 0 {
			m["typeParams"] = n.TypeParams
		}
		if n.Algebra != nil {
			m["algebra"] = simplifyAlgebra(n.Algebra)
		}
		return m

	case *TagDeclStmt:
		return map[string]interface{}{"type": "TagDeclStmt", "name": n.Name}

	case *LinkModuleStmt:
		m := map[string]interface{}{"type": "LinkModuleStmt", "path": n.Path}
		if n.Alias != "" {
			m["alias"] = n.Alias
		}
		return m

	case *LinkFunctionStmt:
		return map[string]interface{}{
			"type": "LinkFunctionStmt", "name": n.Name, "modulePath": n.ModulePath, "externalIdent": n.ExternalIdent,
		}

	case *LinkNameStmt:
		m := map[string]interface{}{"type": "LinkNameStmt", "name": n.Name}
		if len(n.Params) > 0 {
			m["params"] = simplifyParamSlice(n.Params)
		}
		return m

	case *ExprStmt:
		return map[string]interface{}{"type": "ExprStmt", "expr": simplify(n.X)}

	// Type descriptors
	case *TypeId:
		return map[string]interface{}{"type": "TypeId", "name": n.Name}
	case *TypeVariable:
		return map[string]interface{}{"type": "TypeVariable", "name": n.Name}
	case *TypeOperator:
		return map[string]interface{}{"type": "TypeOperator", "head": simplify(n.Head), "arg": simplify(n.Arg)}
	case *SumType:
		return map[string]interface{}{"type": "SumType", "options": simplifyTypeExprSlice(n.Options)}
	case *ProductType:
		dims := make([]interface{}, len(n.Dims))
		for i, d := range n.Dims {
			dims[i] = map[string]interface{}{"name": d.Name, "type": simplify(d.Type)}
		}
		return map[string]interface{}{"type": "ProductType", "dims": dims}
	case *FunctionType:
		return map[string]interface{}{
			"type": "FunctionType", "args": simplifyTypeExprSlice(n.Args), "return": simplify(n.Return),
		}
	case *MaybeType:
		return map[string]interface{}{"type": "MaybeType", "just": simplify(n.Just)}
	case *PointerType:
		return map[string]interface{}{"type": "PointerType", "elem": simplify(n.Elem)}
	case *RefType:
		return map[string]interface{}{"type": "RefType", "elem": simplify(n.Elem)}
	case *LambdaType:
		return map[string]interface{}{"type": "LambdaType", "bound": n.Bound, "body": simplify(n.Body)}
	case *ManagedType:
		return map[string]interface{}{"type": "ManagedType", "elem": simplify(n.Elem)}

	default:
		return map[string]interface{}{"type": fmt.Sprintf("%T", node), "_note": "not yet handled by printer"}
	}
}

func binOp(kind, op string, left, right Expr) map[string]interface{} {
	return map[string]interface{}{"type": kind, "op": op, "left": simplify(left), "right": simplify(right)}
}

func simplifyAlgebra(a TypeAlgebra) interface{} {
	switch alg := a.(type) {
	case *SumAlgebra:
		ctors := make([]interface{}, len(alg.Constructors))
		for i, c := range alg.Constructors {
			ctors[i] = map[string]interface{}{"name": c.Name, "fields": simplifyTypeExprSlice(c.Fields)}
		}
		return map[string]interface{}{"type": "SumAlgebra", "kind": "is", "constructors": ctors}
	case *StructAlgebra:
		dims := make([]interface{}, len(alg.Dims))
		for i, d := range alg.Dims {
			dims[i] = map[string]interface{}{"name": d.Name, "type": simplify(d.Type)}
		}
		return map[string]interface{}{"type": "StructAlgebra", "kind": "has", "dims": dims}
	case *MatchesAlgebra:
		return map[string]interface{}{"type": "MatchesAlgebra", "kind": "matches", "target": simplify(alg.Target)}
	default:
		return nil
	}
}

func simplifyStmtSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = simplify(s)
	}
	return result
}

func simplifyExprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = simplify(e)
	}
	return result
}

func simplifyTypeExprSlice(types []TypeExpr) []interface{} {
	result := make([]interface{}, len(types))
	for i, t := range types {
		result[i] = simplify(t)
	}
	return result
}

func simplifyParamSlice(params []*Param) []interface{} {
	result := make([]interface{}, len(params))
	for i, p := range params {
		result[i] = simplify(p)
	}
	return result
}

func literalKindString(kind LiteralKind) string {
	switch kind {
	case IntLit:
		return "Int"
	case FloatLit:
		return "Float"
	case StringLit:
		return "String"
	case CharLit:
		return "Char"
	case AtomLit:
		return "Atom"
	case BoolLit:
		return "Bool"
	case NilLit:
		return "Nil"
	default:
		return "Unknown"
	}
}
