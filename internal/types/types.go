// Package types implements Zion's type value: an immutable tree with a fixed set of variants and a canonical textual
// signature used as the sole authoritative equality check between types.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is any node of the type value tree.
type Type interface {
	// String renders a human-readable form, used in diagnostics.
	String() string
	// Signature renders the canonical textual form used for structural
	// equality: it ignores source locations and treats two freshly
	// generated anonymous variables at the same tree position as
	// interchangeable unless bound explicitly.
	Signature() string
	// FreeTypeVars returns the set of unbound type-variable names
	// reachable from this node.
	FreeTypeVars() map[string]bool
	// Substitute applies a binding map, returning a new tree with bound
	// variables replaced.
	Substitute(bindings map[string]Type) Type
}

// Equals is structural equality: the only authoritative equality check
// between two type values (spec §3.3 "Signature").
func Equals(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Signature() == b.Signature()
}

// Location is a source position carried by variants that need one for
// diagnostics (TVar, TSum); it is never part of a type's Signature.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ---------------------------------------------------------------------
// TId — a named, fully-resolved type (int, string, a user type name).
// ---------------------------------------------------------------------

type TId struct {
	Name string
}

func (t *TId) String() string                       { return t.Name }
func (t *TId) Signature() string                     { return t.Name }
func (t *TId) FreeTypeVars() map[string]bool         { return map[string]bool{} }
func (t *TId) Substitute(_ map[string]Type) Type     { return t }

// ---------------------------------------------------------------------
// TVar — an unbound type variable.
// ---------------------------------------------------------------------

type TVar struct {
	Name string
	Loc  Location
}

func (t *TVar) String() string { return t.Name }
func (t *TVar) Signature() string {
	return "'" + t.Name
}
func (t *TVar) FreeTypeVars() map[string]bool {
	return map[string]bool{t.Name: true}
}
func (t *TVar) Substitute(bindings map[string]Type) Type {
	if sub, ok := bindings[t.Name]; ok {
		return sub
	}
	return t
}

// ---------------------------------------------------------------------
// TOperator — left-associative type application: Head(Arg).
// ---------------------------------------------------------------------

type TOperator struct {
	Head Type
	Arg  Type
}

func (t *TOperator) String() string { return fmt.Sprintf("%s(%s)", t.Head, t.Arg) }
func (t *TOperator) Signature() string {
	return fmt.Sprintf("%s(%s)", t.Head.Signature(), t.Arg.Signature())
}
func (t *TOperator) FreeTypeVars() map[string]bool {
	return union(t.Head.FreeTypeVars(), t.Arg.FreeTypeVars())
}
func (t *TOperator) Substitute(bindings map[string]Type) Type {
	return &TOperator{Head: t.Head.Substitute(bindings), Arg: t.Arg.Substitute(bindings)}
}

// ---------------------------------------------------------------------
// TLambda — type-level abstraction used by generic type definitions.
// ---------------------------------------------------------------------

type TLambda struct {
	Bound string
	Body  Type
}

func (t *TLambda) String() string { return fmt.Sprintf("\\%s. %s", t.Bound, t.Body) }
func (t *TLambda) Signature() string {
	return fmt.Sprintf("\\%s.%s", t.Bound, t.Body.Signature())
}

// FreeTypeVars removes the bound name from the body's set (spec §4.3
// "Free-type-variable set"): "TLambda(b, body) removes b from body's FTVs".
func (t *TLambda) FreeTypeVars() map[string]bool {
	ftv := t.Body.FreeTypeVars()
	delete(ftv, t.Bound)
	return ftv
}
func (t *TLambda) Substitute(bindings map[string]Type) Type {
	if _, shadowed := bindings[t.Bound]; shadowed {
		inner := make(map[string]Type, len(bindings))
		for k, v := range bindings {
			if k != t.Bound {
				inner[k] = v
			}
		}
		return &TLambda{Bound: t.Bound, Body: t.Body.Substitute(inner)}
	}
	return &TLambda{Bound: t.Bound, Body: t.Body.Substitute(bindings)}
}

// ---------------------------------------------------------------------
// TStruct / TArgs — named-dimension products. TStruct is a user struct
// type; TArgs is the analogous shape for a function's parameter list, so
// both carry a name->index map for fast field/param lookup.
// ---------------------------------------------------------------------

// Dim is one named, typed dimension of a TStruct or TArgs.
type Dim struct {
	Name string
	Type Type
}

type TStruct struct {
	Dims      []Dim
	NameIndex map[string]int
}

// NewTStruct builds a TStruct and derives its NameIndex from Dims order.
func NewTStruct(dims []Dim) *TStruct {
	idx := make(map[string]int, len(dims))
	for i, d := range dims {
		idx[d.Name] = i
	}
	return &TStruct{Dims: dims, NameIndex: idx}
}

func (t *TStruct) String() string {
	parts := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		parts[i] = fmt.Sprintf("%s: %s", d.Name, d.Type)
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}
func (t *TStruct) Signature() string {
	parts := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		parts[i] = fmt.Sprintf("%s:%s", d.Name, d.Type.Signature())
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ","))
}
func (t *TStruct) FreeTypeVars() map[string]bool {
	out := map[string]bool{}
	for _, d := range t.Dims {
		out = union(out, d.Type.FreeTypeVars())
	}
	return out
}
func (t *TStruct) Substitute(bindings map[string]Type) Type {
	dims := make([]Dim, len(t.Dims))
	for i, d := range t.Dims {
		dims[i] = Dim{Name: d.Name, Type: d.Type.Substitute(bindings)}
	}
	return NewTStruct(dims)
}

type TArgs struct {
	Dims      []Dim
	NameIndex map[string]int
}

func NewTArgs(dims []Dim) *TArgs {
	idx := make(map[string]int, len(dims))
	for i, d := range dims {
		idx[d.Name] = i
	}
	return &TArgs{Dims: dims, NameIndex: idx}
}

func (t *TArgs) String() string {
	parts := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		parts[i] = fmt.Sprintf("%s: %s", d.Name, d.Type)
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}
func (t *TArgs) Signature() string {
	parts := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		parts[i] = d.Type.Signature()
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ","))
}
func (t *TArgs) FreeTypeVars() map[string]bool {
	out := map[string]bool{}
	for _, d := range t.Dims {
		out = union(out, d.Type.FreeTypeVars())
	}
	return out
}
func (t *TArgs) Substitute(bindings map[string]Type) Type {
	dims := make([]Dim, len(t.Dims))
	for i, d := range t.Dims {
		dims[i] = Dim{Name: d.Name, Type: d.Type.Substitute(bindings)}
	}
	return NewTArgs(dims)
}

// ---------------------------------------------------------------------
// TFunction
// ---------------------------------------------------------------------

type TFunction struct {
	Args   *TArgs
	Return Type
}

func (t *TFunction) String() string { return fmt.Sprintf("%s %s", t.Args, t.Return) }
func (t *TFunction) Signature() string {
	return fmt.Sprintf("%s->%s", t.Args.Signature(), t.Return.Signature())
}
func (t *TFunction) FreeTypeVars() map[string]bool {
	return union(t.Args.FreeTypeVars(), t.Return.FreeTypeVars())
}
func (t *TFunction) Substitute(bindings map[string]Type) Type {
	return &TFunction{
		Args:   t.Args.Substitute(bindings).(*TArgs),
		Return: t.Return.Substitute(bindings),
	}
}

// ---------------------------------------------------------------------
// TSum — a normalized sum type. Construct only via NewTSum /
// type_sum_safe, never by literal struct construction, so the
// invariants in spec §3.3 always hold.
// ---------------------------------------------------------------------

type TSum struct {
	Options []Type
	Loc     Location
}

func (t *TSum) String() string {
	parts := make([]string, len(t.Options))
	for i, o := range t.Options {
		parts[i] = o.String()
	}
	return strings.Join(parts, " | ")
}
func (t *TSum) Signature() string {
	sigs := make([]string, len(t.Options))
	for i, o := range t.Options {
		sigs[i] = o.Signature()
	}
	sort.Strings(sigs)
	return fmt.Sprintf("(%s)", strings.Join(sigs, "|"))
}
func (t *TSum) FreeTypeVars() map[string]bool {
	out := map[string]bool{}
	for _, o := range t.Options {
		out = union(out, o.FreeTypeVars())
	}
	return out
}
func (t *TSum) Substitute(bindings map[string]Type) Type {
	opts := make([]Type, len(t.Options))
	for i, o := range t.Options {
		opts[i] = o.Substitute(bindings)
	}
	return NewTSum(opts, t.Loc)
}

// NewTSum is the canonical sum builder (spec §4.3 "type_sum_safe"): it
// flattens nested sums, lifts a nil option into an outer TMaybe,
// deduplicates by signature, and returns a bare option directly when
// only one remains.
func NewTSum(options []Type, loc Location) Type {
	var flat []Type
	hasNil := false
	for _, o := range options {
		switch v := o.(type) {
		case *TSum:
			flat = append(flat, v.Options...)
		case nil:
			hasNil = true
		case *TId:
			if v.Name == "nil" {
				hasNil = true
				continue
			}
			flat = append(flat, v)
		default:
			flat = append(flat, v)
		}
	}

	seen := map[string]bool{}
	var deduped []Type
	for _, o := range flat {
		sig := o.Signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true
		deduped = append(deduped, o)
	}

	var result Type
	switch len(deduped) {
	case 0:
		result = nil
	case 1:
		result = deduped[0]
	default:
		result = &TSum{Options: deduped, Loc: loc}
	}

	if hasNil {
		if result == nil {
			return &TMaybe{Just: &TId{Name: "nothing"}}
		}
		if m, ok := result.(*TMaybe); ok {
			return m
		}
		return &TMaybe{Just: result}
	}
	return result
}

// ---------------------------------------------------------------------
// TMaybe — never wraps another TMaybe, a TRef, or nil (spec §3.3
// invariants); NewTMaybe collapses those cases instead of panicking,
// since elaboration may legally re-wrap an already-Maybe expression.
// ---------------------------------------------------------------------

type TMaybe struct {
	Just Type
}

func NewTMaybe(just Type) Type {
	switch v := just.(type) {
	case *TMaybe:
		return v
	case *TRef:
		return &TMaybe{Just: v.Elem}
	default:
		return &TMaybe{Just: just}
	}
}

func (t *TMaybe) String() string       { return fmt.Sprintf("%s?", t.Just) }
func (t *TMaybe) Signature() string    { return fmt.Sprintf("?%s", t.Just.Signature()) }
func (t *TMaybe) FreeTypeVars() map[string]bool { return t.Just.FreeTypeVars() }
func (t *TMaybe) Substitute(bindings map[string]Type) Type {
	return NewTMaybe(t.Just.Substitute(bindings))
}

// ---------------------------------------------------------------------
// TPtr / TRef / TManaged — pointer, reference, and GC-managed wrappers.
// These remain pure type-system descriptors: the actual lowered
// representation and finalizer wiring are the external backend's job.
// ---------------------------------------------------------------------

type TPtr struct{ Elem Type }

func (t *TPtr) String() string                       { return fmt.Sprintf("*%s", t.Elem) }
func (t *TPtr) Signature() string                     { return fmt.Sprintf("*%s", t.Elem.Signature()) }
func (t *TPtr) FreeTypeVars() map[string]bool         { return t.Elem.FreeTypeVars() }
func (t *TPtr) Substitute(bindings map[string]Type) Type {
	return &TPtr{Elem: t.Elem.Substitute(bindings)}
}

type TRef struct{ Elem Type }

// NewTRef collapses TRef(TRef(x)) to TRef(x) (spec §3.3 "TRef never
// wraps TRef").
func NewTRef(elem Type) *TRef {
	if r, ok := elem.(*TRef); ok {
		return r
	}
	return &TRef{Elem: elem}
}

func (t *TRef) String() string                       { return fmt.Sprintf("ref %s", t.Elem) }
func (t *TRef) Signature() string                     { return fmt.Sprintf("ref %s", t.Elem.Signature()) }
func (t *TRef) FreeTypeVars() map[string]bool         { return t.Elem.FreeTypeVars() }
func (t *TRef) Substitute(bindings map[string]Type) Type {
	return NewTRef(t.Elem.Substitute(bindings))
}

type TManaged struct{ Elem Type }

func (t *TManaged) String() string                       { return fmt.Sprintf("managed %s", t.Elem) }
func (t *TManaged) Signature() string                     { return fmt.Sprintf("managed %s", t.Elem.Signature()) }
func (t *TManaged) FreeTypeVars() map[string]bool         { return t.Elem.FreeTypeVars() }
func (t *TManaged) Substitute(bindings map[string]Type) Type {
	return &TManaged{Elem: t.Elem.Substitute(bindings)}
}

// ---------------------------------------------------------------------
// TModule — a module viewed as a type, for module-qualified lookups
// (link module ... as alias, alias.member).
// ---------------------------------------------------------------------

type TModule struct{ Inner Type }

func (t *TModule) String() string                       { return fmt.Sprintf("module(%s)", t.Inner) }
func (t *TModule) Signature() string                     { return fmt.Sprintf("module(%s)", t.Inner.Signature()) }
func (t *TModule) FreeTypeVars() map[string]bool         { return t.Inner.FreeTypeVars() }
func (t *TModule) Substitute(bindings map[string]Type) Type {
	return &TModule{Inner: t.Inner.Substitute(bindings)}
}

// ---------------------------------------------------------------------
// TInteger — a sized, signed-or-not integer primitive.
// ---------------------------------------------------------------------

type TInteger struct {
	Bits   int
	Signed bool
}

func (t *TInteger) String() string {
	if t.Signed {
		return fmt.Sprintf("int%d", t.Bits)
	}
	return fmt.Sprintf("uint%d", t.Bits)
}
func (t *TInteger) Signature() string                     { return t.String() }
func (t *TInteger) FreeTypeVars() map[string]bool         { return map[string]bool{} }
func (t *TInteger) Substitute(_ map[string]Type) Type     { return t }

// ---------------------------------------------------------------------
// TLiteral — a type pinned to one literal token, used for compile-time
// constant folding and tag-style enums before widening.
// ---------------------------------------------------------------------

type TLiteral struct {
	Token string
}

func (t *TLiteral) String() string                       { return t.Token }
func (t *TLiteral) Signature() string                     { return fmt.Sprintf("lit(%s)", t.Token) }
func (t *TLiteral) FreeTypeVars() map[string]bool         { return map[string]bool{} }
func (t *TLiteral) Substitute(_ map[string]Type) Type     { return t }

// ---------------------------------------------------------------------
// TExtern — an externally linked type (an FFI type from `link module`):
// carries the logical inner type, the underlying foreign type name, and
// the backend symbol ids used to finalize/mark it during GC.
// ---------------------------------------------------------------------

type TExtern struct {
	Inner       Type
	Underlying  string
	FinalizerID string
	MarkID      string
}

func (t *TExtern) String() string { return fmt.Sprintf("extern(%s as %s)", t.Inner, t.Underlying) }
func (t *TExtern) Signature() string {
	return fmt.Sprintf("extern(%s,%s)", t.Inner.Signature(), t.Underlying)
}
func (t *TExtern) FreeTypeVars() map[string]bool { return t.Inner.FreeTypeVars() }
func (t *TExtern) Substitute(bindings map[string]Type) Type {
	return &TExtern{
		Inner:       t.Inner.Substitute(bindings),
		Underlying:  t.Underlying,
		FinalizerID: t.FinalizerID,
		MarkID:      t.MarkID,
	}
}

// ---------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------

func union(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

// FullyBound reports whether t has no free type variables (spec §3.3
// "A type is fully bound iff its free-type-variable set is empty").
func FullyBound(t Type) bool {
	return len(t.FreeTypeVars()) == 0
}

// Common predefined base types.
var (
	TIntType    = &TId{Name: "int"}
	TFloatType  = &TId{Name: "float"}
	TStringType = &TId{Name: "string"}
	TBoolType   = &TId{Name: "bool"}
	TCharType   = &TId{Name: "char"}
	TAtomType   = &TId{Name: "atom"}
	TNothing    = &TId{Name: "nothing"}
)

// Type variable generator: each parser/checker run gets its own counter
// so that gensym identity never leaks across independent compilations.
type VarGen struct{ n int }

func NewVarGen() *VarGen { return &VarGen{} }

func (g *VarGen) Fresh(loc Location) *TVar {
	g.n++
	return &TVar{Name: fmt.Sprintf("t%d", g.n), Loc: loc}
}

// TypeError reports a located type-checking failure.
type TypeError struct {
	Message string
	Pos     string
}

func (e *TypeError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Message) }

// UnificationError reports a located unification failure between two
// type values, quoting both signatures.
type UnificationError struct {
	Left, Right Type
	Reason      string
	Pos         string
}

func (e *UnificationError) Error() string {
	return fmt.Sprintf("%s: cannot unify %s with %s: %s", e.Pos, e.Left, e.Right, e.Reason)
}
