// Package ir defines Zion's typed intermediate representation: the
// output of the checker/lowerer (spec §4.6) and the input handed to the
// external backend (spec §6.7 — GC lowering, object emission, and
// linking all live outside this repo's scope). Every node carries its
// resolved types.Type, so nothing downstream of this package needs to
// re-run type inference. Shaped after the teacher's ANF core IR
// (internal/core/core.go: CoreNode/CoreExpr, one struct per node kind,
// an interface with a private marker method) but is not itself ANF —
// Zion's checker lowers directly from structured statements/expressions,
// it does not flatten into administrative let-bindings.
package ir

import (
	"fmt"
	"strings"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/types"
)

// Node is embedded by every IR node: a stable elaboration-assigned id,
// the original surface position for diagnostics, and (for expressions)
// a resolved type.
type Node struct {
	NodeID uint64
	Pos    ast.Pos
}

func (n Node) ID() uint64    { return n.NodeID }
func (n Node) Position() ast.Pos { return n.Pos }

// Expr is any value-producing IR node.
type Expr interface {
	ID() uint64
	Position() ast.Pos
	Type() types.Type
	String() string
	irExpr()
}

// Stmt is any IR node executed for effect.
type Stmt interface {
	ID() uint64
	Position() ast.Pos
	String() string
	irStmt()
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

// Var references a bound variable already resolved to a concrete,
// fully-bound type.
type Var struct {
	Node
	Name string
	Typ  types.Type
}

func (v *Var) irExpr()          {}
func (v *Var) Type() types.Type { return v.Typ }
func (v *Var) String() string   { return v.Name }

// Lit is a literal value of a primitive type.
type Lit struct {
	Node
	Value interface{}
	Typ   types.Type
}

func (l *Lit) irExpr()          {}
func (l *Lit) Type() types.Type { return l.Typ }
func (l *Lit) String() string   { return fmt.Sprintf("%v", l.Value) }

// FuncRef names one elaborated function overload by its fully-bound
// signature, the result of Phase 3's callsite overload resolution.
type FuncRef struct {
	Node
	Name string
	Typ  *types.TFunction
}

func (f *FuncRef) irExpr()          {}
func (f *FuncRef) Type() types.Type { return f.Typ }
func (f *FuncRef) String() string   { return fmt.Sprintf("%s:%s", f.Name, f.Typ.Signature()) }

// Call applies a resolved callee to already-elaborated, type-checked
// arguments.
type Call struct {
	Node
	Callee Expr
	Args   []Expr
	Typ    types.Type
}

func (c *Call) irExpr()          {}
func (c *Call) Type() types.Type { return c.Typ }
func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(parts, ", "))
}

// TypeIDEq lowers a `when` pattern-match arm's guard (spec §4.6.5): a
// runtime comparison of the scrutinee's dynamic type id against a
// candidate pattern type's id, generated as a call to
// __type_id_eq_type_id.
type TypeIDEq struct {
	Node
	Scrutinee Expr
	Candidate types.Type
}

func (t *TypeIDEq) irExpr()          {}
func (t *TypeIDEq) Type() types.Type { return types.TBoolType }
func (t *TypeIDEq) String() string {
	return fmt.Sprintf("__type_id_eq_type_id(%s, %s)", t.Scrutinee, t.Candidate.Signature())
}

// Coerce wraps Value in one of the five implicit-conversion forms of
// spec §4.6.9: int-width change, nil->pointer, pointer bit-cast,
// TRef(T)->T load, or identity (the checker never emits an identity
// Coerce — identical signatures skip wrapping entirely).
type Coerce struct {
	Node
	Value Expr
	Kind  CoerceKind
	Typ   types.Type
}

// CoerceKind names which of spec §4.6.9's coercion forms to apply.
type CoerceKind int

const (
	CoerceIntWiden CoerceKind = iota
	CoerceIntTruncate
	CoerceNilToPtr
	CoercePtrBitcast
	CoerceRefLoad
	// CoerceExplicit is a user-written `as` cast: a bit-cast the checker
	// does not itself validate beyond matching pointer-sized shapes,
	// since an explicit cast is the program asking to bypass §4.6.9's
	// implicit-conversion rules.
	CoerceExplicit
)

func (c *Coerce) irExpr()          {}
func (c *Coerce) Type() types.Type { return c.Typ }
func (c *Coerce) String() string   { return fmt.Sprintf("coerce<%s>(%s)", c.Typ.Signature(), c.Value) }

// IfExpr is the lowering target for the ternary `then if cond else
// else_expr` form (spec grammar's ternary_expr), distinct from the If
// statement since it always yields a value.
type IfExpr struct {
	Node
	Cond, Then, Else Expr
	Typ              types.Type
}

func (i *IfExpr) irExpr()          {}
func (i *IfExpr) Type() types.Type { return i.Typ }
func (i *IfExpr) String() string   { return fmt.Sprintf("(%s if %s else %s)", i.Then, i.Cond, i.Else) }

// AssignExpr reassigns an existing local binding and yields the
// assigned value, matching assignment-as-expression in the surface
// grammar.
type AssignExpr struct {
	Node
	Name  string
	Value Expr
	Typ   types.Type
}

func (a *AssignExpr) irExpr()          {}
func (a *AssignExpr) Type() types.Type { return a.Typ }
func (a *AssignExpr) String() string   { return fmt.Sprintf("%s = %s", a.Name, a.Value) }

// FieldGet reads one named dimension of a struct-typed value.
type FieldGet struct {
	Node
	Target Expr
	Field  string
	Typ    types.Type
}

func (f *FieldGet) irExpr()          {}
func (f *FieldGet) Type() types.Type { return f.Typ }
func (f *FieldGet) String() string   { return fmt.Sprintf("%s.%s", f.Target, f.Field) }

// IndexGet reads one positional element of an array- or tuple-typed
// value.
type IndexGet struct {
	Node
	Target Expr
	Index  Expr
	Typ    types.Type
}

func (g *IndexGet) irExpr()          {}
func (g *IndexGet) Type() types.Type { return g.Typ }
func (g *IndexGet) String() string   { return fmt.Sprintf("%s[%s]", g.Target, g.Index) }

// ArrayLit and TupleLit are literal aggregate constructors.
type ArrayLit struct {
	Node
	Elements []Expr
	Typ      types.Type
}

func (a *ArrayLit) irExpr()          {}
func (a *ArrayLit) Type() types.Type { return a.Typ }
func (a *ArrayLit) String() string   { return fmt.Sprintf("array%v", a.Elements) }

type TupleLit struct {
	Node
	Elements []Expr
	Typ      types.Type
}

func (t *TupleLit) irExpr()          {}
func (t *TupleLit) Type() types.Type { return t.Typ }
func (t *TupleLit) String() string   { return fmt.Sprintf("tuple%v", t.Elements) }

// Sizeof and TypeidOf lower `sizeof(T)` and `__get_typeid__(e)`, both
// deferred to the external backend's runtime support.
type Sizeof struct {
	Node
	Target types.Type
}

func (s *Sizeof) irExpr()          {}
func (s *Sizeof) Type() types.Type { return types.TIntType }
func (s *Sizeof) String() string   { return fmt.Sprintf("sizeof(%s)", s.Target.Signature()) }

type TypeidOf struct {
	Node
	Value Expr
}

func (t *TypeidOf) irExpr()          {}
func (t *TypeidOf) Type() types.Type { return types.TIntType }
func (t *TypeidOf) String() string   { return fmt.Sprintf("__get_typeid__(%s)", t.Value) }

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

// Block is a sequence of statements sharing one lifetime-extent scope
// (internal/life.Block).
type Block struct {
	Node
	Stmts []Stmt
}

func (b *Block) irStmt() {}
func (b *Block) String() string {
	parts := make([]string, len(b.Stmts))
	for i, s := range b.Stmts {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n")
}

// Let binds Value to Name for the remainder of the enclosing block.
type Let struct {
	Node
	Name  string
	Value Expr
}

func (l *Let) irStmt()        {}
func (l *Let) String() string { return fmt.Sprintf("let %s = %s", l.Name, l.Value) }

// Store writes Value into a program-scope-owned global (spec §4.6 Phase
// 2: every module-level var_decl initializer becomes a store into a
// global allocation).
type Store struct {
	Node
	Global string
	Value  Expr
}

func (s *Store) irStmt()        {}
func (s *Store) String() string { return fmt.Sprintf("%s = %s", s.Global, s.Value) }

// ExprStmt evaluates X for effect, discarding its value.
type ExprStmt struct {
	Node
	X Expr
}

func (e *ExprStmt) irStmt()        {}
func (e *ExprStmt) String() string { return e.X.String() }

// If is a lowered conditional. It carries no Maybe-narrowing metadata,
// and the checker inserts no narrowed Let into Then.
type If struct {
	Node
	Cond Expr
	Then *Block
	Else *Block // nil if there was no else branch
}

func (i *If) irStmt() {}
func (i *If) String() string {
	if i.Else == nil {
		return fmt.Sprintf("if %s { %s }", i.Cond, i.Then)
	}
	return fmt.Sprintf("if %s { %s } else { %s }", i.Cond, i.Then, i.Else)
}

// Loop is the lowering target for both `while` and `for` (desugared to
// while by the checker over an iterator protocol call).
type Loop struct {
	Node
	Cond Expr
	Body *Block
}

func (l *Loop) irStmt()        {}
func (l *Loop) String() string { return fmt.Sprintf("while %s { %s }", l.Cond, l.Body) }

// Break and Continue carry the lifetime forms they must unwind through
// (internal/life.ReleasePlan), computed once by the checker so the
// backend never needs to recompute release order.
type Break struct {
	Node
	Releases []ReleaseVar
}

func (b *Break) irStmt()        {}
func (b *Break) String() string { return "break" }

type Continue struct {
	Node
	Releases []ReleaseVar
}

func (c *Continue) irStmt()        {}
func (c *Continue) String() string { return "continue" }

// Return yields Value (nil for a void function) and carries the
// lifetime releases that must run first.
type Return struct {
	Node
	Value    Expr // nil for void return
	Releases []ReleaseVar
}

func (r *Return) irStmt() {}
func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return fmt.Sprintf("return %s", r.Value)
}

// ReleaseVar is one __release_var call emitted at a life boundary
// (internal/life). AddrefVar is its capture-time counterpart, emitted
// where the checker inserts a fresh binding for a captured value.
type ReleaseVar struct {
	Name string
	Typ  types.Type
}

type AddrefVar struct {
	Node
	Name string
	Typ  types.Type
}

func (a *AddrefVar) irStmt()        {}
func (a *AddrefVar) String() string { return fmt.Sprintf("__addref_var(%s)", a.Name) }

// ---------------------------------------------------------------------
// Top level
// ---------------------------------------------------------------------

// Param is one elaborated function parameter.
type Param struct {
	Name string
	Typ  types.Type
}

// Function is one fully elaborated function instantiation: for a
// generic function, one Function exists per distinct instantiation
// signature (spec §4.6, Phase 3's instantiation memoization).
type Function struct {
	ID         uint64
	Name       string
	Params     []Param
	ReturnType types.Type
	Body       *Block
	Pos        ast.Pos
}

func (f *Function) Signature() string {
	dims := make([]types.Dim, len(f.Params))
	for i, p := range f.Params {
		dims[i] = types.Dim{Name: p.Name, Type: p.Typ}
	}
	return (&types.TFunction{Args: types.NewTArgs(dims), Return: f.ReturnType}).Signature()
}

// Global is one module-level variable, owned by program scope and
// initialized from within the synthetic __init_module_vars function
// (spec §4.6, Phase 2).
type Global struct {
	Name string
	Typ  types.Type
	Pos  ast.Pos
}

// Module is one source module's lowered output: its functions plus the
// globals it declared. One Module exists per parsed .zion file.
type Module struct {
	Name      string
	Functions []*Function
	Globals   []*Global
}

// Program is the whole-compilation IR unit handed to the backend: every
// module plus one synthesized __init_module_vars function whose body
// holds the module-level variable stores of all modules, in module order
// (spec §4.7 step 5, §6.7).
type Program struct {
	Modules      []*Module
	InitFunction *Function
}

// IDGen assigns monotonically increasing node ids during lowering, kept
// separate from internal/atom's interning table.
type IDGen struct{ n uint64 }

func NewIDGen() *IDGen { return &IDGen{} }

func (g *IDGen) Next() uint64 {
	g.n++
	return g.n
}
