// Package scope implements Zion's scope tree (spec §3.5, §4.5): the
// structure the checker walks to resolve names, accumulate overload
// candidates, and track which module-level declarations have already
// been elaborated. Grounded on the reference compiler's scope_t
// hierarchy (program/module/function/local/generic-substitution scopes),
// reshaped from C++ inheritance into a single Go struct distinguished by
// Kind, since Go has no use for the virtual dispatch the original needed
// only for a handful of per-kind overrides.
package scope

import (
	"fmt"

	"github.com/sunholo/zion/internal/ast"
	"github.com/sunholo/zion/internal/types"
)

// Kind distinguishes the scope-tree node flavors of spec §3.5.
type Kind int

const (
	Program Kind = iota
	Module
	Function
	Local
	GenericSubstitution
)

func (k Kind) String() string {
	switch k {
	case Program:
		return "program"
	case Module:
		return "module"
	case Function:
		return "function"
	case Local:
		return "local"
	case GenericSubstitution:
		return "generic-substitution"
	default:
		return "unknown"
	}
}

// BoundVariable is a fully elaborated, callable or referenceable name:
// either a concrete value binding or a function with a concrete
// TFunction signature. Overload sets are distinguished by Type.Signature().
type BoundVariable struct {
	Name string
	Type types.Type
	Node ast.Node // originating decl, for diagnostics
}

// UncheckedVariable is a module-level declaration whose body has not yet
// been elaborated (spec §3.6): a function def, a data constructor, or a
// module-level var_decl initializer, kept as a name -> AST-node handle
// until a use site forces elaboration.
type UncheckedVariable struct {
	Name string
	Node ast.Node
}

// UncheckedType is the type-side analogue of UncheckedVariable: a type
// definition not yet elaborated into a bound types.Type.
type UncheckedType struct {
	Name string
	Node ast.Node
}

// ReturnTypeConstraint is shared by every Local scope nested inside one
// Function scope (spec §4.6.8): the first return (or an explicit
// annotation) sets Type; every subsequent return must unify against it.
type ReturnTypeConstraint struct {
	Type Type
	set  bool
	pos  string
}

// Type is a local alias so this file doesn't need to import unify just
// for this struct; kept identical to types.Type.
type Type = types.Type

// Set records t as the constraint if none is set yet; returns the prior
// type and whether a constraint already existed, so the checker can
// decide whether to unify against it or adopt it outright.
func (c *ReturnTypeConstraint) Set(t Type, pos string) (prior Type, hadConstraint bool) {
	prior, hadConstraint = c.Type, c.set
	if !c.set {
		c.Type = t
		c.set = true
		c.pos = pos
	}
	return prior, hadConstraint
}

func (c *ReturnTypeConstraint) HasConstraint() bool { return c.set }
func (c *ReturnTypeConstraint) Pos() string         { return c.pos }

// Scope is one node of the scope tree.
type Scope struct {
	Kind   Kind
	Name   string
	Parent *Scope

	boundVars map[string][]*BoundVariable
	typeEnv   map[string]types.Type // module/program-level type aliases, by name
	typeVars  map[string]types.Type // generic-substitution concrete bindings

	// Module-only.
	uncheckedVars        map[string]*UncheckedVariable
	uncheckedVarsOrdered []*UncheckedVariable
	uncheckedTypes       map[string]*UncheckedType
	uncheckedTypesOrdered []*UncheckedType
	visited              map[string]bool // checked-node memoization, keyed by node position

	// Program-only.
	modules    map[string]*Scope
	boundTypes map[string]types.Type // keyed by Signature()

	// Function-only (Local scopes share their enclosing Function's pointer).
	returnTypeConstraint *ReturnTypeConstraint

	// GenericSubstitution-only.
	calleeSignature types.Type
}

// NewProgram creates the root of the scope tree: one per compilation,
// owning the module table and the master bound-type interning table.
func NewProgram() *Scope {
	return &Scope{
		Kind:       Program,
		Name:       "program",
		typeEnv:    map[string]types.Type{},
		modules:    map[string]*Scope{},
		boundTypes: map[string]types.Type{},
	}
}

// NewModuleScope creates and registers a module scope under a program
// scope. Calling it twice with the same name returns the existing scope,
// mirroring program_scope_t::new_module_scope's idempotence.
func (p *Scope) NewModuleScope(name string) *Scope {
	if p.Kind != Program {
		panic("scope: NewModuleScope called on a non-program scope")
	}
	if existing, ok := p.modules[name]; ok {
		return existing
	}
	m := &Scope{
		Kind:                  Module,
		Name:                  name,
		Parent:                p,
		boundVars:             map[string][]*BoundVariable{},
		typeEnv:               map[string]types.Type{},
		uncheckedVars:         map[string]*UncheckedVariable{},
		uncheckedTypes:        map[string]*UncheckedType{},
		visited:               map[string]bool{},
	}
	p.modules[name] = m
	return m
}

// LookupModule returns a previously created module scope, if any.
func (p *Scope) LookupModule(name string) (*Scope, bool) {
	m, ok := p.modules[name]
	return m, ok
}

// NewFunctionScope creates a function body's outermost scope.
func NewFunctionScope(name string, parent *Scope) *Scope {
	return &Scope{
		Kind:                 Function,
		Name:                 name,
		Parent:               parent,
		boundVars:            map[string][]*BoundVariable{},
		typeVars:             map[string]types.Type{},
		returnTypeConstraint: &ReturnTypeConstraint{},
	}
}

// NewLocalScope opens a nested block/loop scope inside a runnable scope
// (Function or another Local). It shares the enclosing function's
// return-type constraint, per spec §4.6.8.
func (s *Scope) NewLocalScope(name string) *Scope {
	rtc := s.GetReturnTypeConstraint()
	if rtc == nil {
		panic("scope: NewLocalScope called outside any function scope")
	}
	return &Scope{
		Kind:                 Local,
		Name:                 name,
		Parent:               s,
		boundVars:            map[string][]*BoundVariable{},
		returnTypeConstraint: rtc,
	}
}

// NewGenericSubstitutionScope opens a transient scope wrapping a module
// scope with a concrete binding map discovered during generic-function
// instantiation (spec §4.6, "lazily instantiate").
func NewGenericSubstitutionScope(name string, parent *Scope, calleeSignature types.Type, bindings map[string]types.Type) *Scope {
	return &Scope{
		Kind:            GenericSubstitution,
		Name:            name,
		Parent:          parent,
		typeVars:        bindings,
		calleeSignature: calleeSignature,
	}
}

// GetReturnTypeConstraint walks up to the nearest Function scope's
// constraint; nil outside any function.
func (s *Scope) GetReturnTypeConstraint() *ReturnTypeConstraint {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.returnTypeConstraint != nil {
			return cur.returnTypeConstraint
		}
	}
	return nil
}

// ---------------------------------------------------------------------
// Bound variables
// ---------------------------------------------------------------------

// PutBoundVariable installs v at this scope. It is idempotent-with-error
// (spec §4.5): inserting the same name with the same signature twice is
// a no-op; inserting the same name with a different signature is a hard
// error unless the existing and new types are both TFunction (distinct
// signatures there form a legitimate overload set).
func (s *Scope) PutBoundVariable(v *BoundVariable) error {
	if s.boundVars == nil {
		s.boundVars = map[string][]*BoundVariable{}
	}
	existing := s.boundVars[v.Name]
	for _, e := range existing {
		if types.Equals(e.Type, v.Type) {
			return nil
		}
	}
	if len(existing) > 0 {
		_, newIsFn := v.Type.(*types.TFunction)
		if !newIsFn {
			return fmt.Errorf("scope: %q is already bound to a different, non-overloadable type (%s vs %s)", v.Name, existing[0].Type, v.Type)
		}
		for _, e := range existing {
			if _, ok := e.Type.(*types.TFunction); !ok {
				return fmt.Errorf("scope: %q is already bound to non-function type %s, cannot overload", v.Name, e.Type)
			}
		}
	}
	s.boundVars[v.Name] = append(existing, v)
	return nil
}

// HasBoundVariable reports whether name resolves to at least one bound
// variable, searching ancestors unless localOnly is set.
func (s *Scope) HasBoundVariable(name string, localOnly bool) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if len(cur.boundVars[name]) > 0 {
			return true
		}
		if localOnly {
			break
		}
	}
	return false
}

// GetBoundVariables returns every bound variable visible under name,
// from this scope outward (closest first). Multiple results mean an
// overload set; the checker disambiguates by unifying callsite args.
func (s *Scope) GetBoundVariables(name string) []*BoundVariable {
	var out []*BoundVariable
	for cur := s; cur != nil; cur = cur.Parent {
		out = append(out, cur.boundVars[name]...)
	}
	return out
}

// GetCallables returns the bound variables named name visible looking
// upward from s. Unchecked declarations are not included; they are
// returned by GetUncheckedCallables.
func (s *Scope) GetCallables(name string) []*BoundVariable {
	return s.GetBoundVariables(name)
}

// UncheckedCallable pairs an unchecked declaration with the module
// scope that owns it, so a caller instantiating a generic function
// found this way can parent the instantiation's substitution scope
// correctly (under the declaring module, not the calling one).
type UncheckedCallable struct {
	Var   *UncheckedVariable
	Owner *Scope
}

// GetUncheckedCallables returns unchecked module-level declarations
// named name, searching this module scope and ancestor module scopes
// reachable through linked modules (the caller is expected to have
// already set Parent to the appropriate module scope chain).
func (s *Scope) GetUncheckedCallables(name string) []UncheckedCallable {
	var out []UncheckedCallable
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.uncheckedVars == nil {
			continue
		}
		for _, uv := range cur.uncheckedVarsOrdered {
			if uv.Name == name {
				out = append(out, UncheckedCallable{Var: uv, Owner: cur})
			}
		}
	}
	return out
}

// ModuleScope returns the nearest enclosing Module scope, or nil if s
// is not nested under one (e.g. s is the Program scope itself).
func (s *Scope) ModuleScope() *Scope {
	return s.moduleScope()
}

// ---------------------------------------------------------------------
// Type environment (typename resolution + type-var substitution)
// ---------------------------------------------------------------------

// PutTypeAlias installs name as an alias for t, searched during
// unification's eval-retry step (internal/unify's TypeEnv interface).
func (s *Scope) PutTypeAlias(name string, t types.Type) {
	if s.typeEnv == nil {
		s.typeEnv = map[string]types.Type{}
	}
	s.typeEnv[name] = t
}

// LookupTypeAlias implements internal/unify.TypeEnv: it first checks any
// generic-substitution binding in scope (so a type variable captured by
// an enclosing instantiation resolves to its concrete argument), then
// walks up through module/program type environments.
func (s *Scope) LookupTypeAlias(name string) (types.Type, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.typeVars != nil {
			if t, ok := cur.typeVars[name]; ok {
				return t, true
			}
		}
		if cur.typeEnv != nil {
			if t, ok := cur.typeEnv[name]; ok {
				return t, true
			}
		}
	}
	return nil, false
}

// ---------------------------------------------------------------------
// Unchecked declarations (spec §3.6, Phase 0)
// ---------------------------------------------------------------------

// PutUncheckedVariable registers a not-yet-elaborated module-level
// declaration. Must be called on a Module scope.
func (s *Scope) PutUncheckedVariable(name string, node ast.Node) {
	if s.Kind != Module {
		panic("scope: PutUncheckedVariable called on a non-module scope")
	}
	uv := &UncheckedVariable{Name: name, Node: node}
	s.uncheckedVars[name] = uv
	s.uncheckedVarsOrdered = append(s.uncheckedVarsOrdered, uv)
}

// UncheckedVariablesOrdered returns this module's unchecked declarations
// in source order, the iteration order Phase 3 must use (spec §5
// "in-module decls elaborated in source order").
func (s *Scope) UncheckedVariablesOrdered() []*UncheckedVariable {
	return s.uncheckedVarsOrdered
}

func (s *Scope) PutUncheckedType(name string, node ast.Node) {
	if s.Kind != Module {
		panic("scope: PutUncheckedType called on a non-module scope")
	}
	ut := &UncheckedType{Name: name, Node: node}
	s.uncheckedTypes[name] = ut
	s.uncheckedTypesOrdered = append(s.uncheckedTypesOrdered, ut)
}

func (s *Scope) UncheckedTypesOrdered() []*UncheckedType {
	return s.uncheckedTypesOrdered
}

func (s *Scope) GetUncheckedType(name string) (*UncheckedType, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.uncheckedTypes == nil {
			continue
		}
		if ut, ok := cur.uncheckedTypes[name]; ok {
			return ut, true
		}
	}
	return nil, false
}

// HasChecked and MarkChecked memoize Phase 1-3 elaboration per AST node,
// so a node reachable from more than one callsite is only elaborated
// once (spec §4.6, mirroring module_scope_t::has_checked/mark_checked's
// "visited" node set). Nodes are identified by source position, which is
// unique per declaration within one module.
func (s *Scope) HasChecked(node ast.Node) bool {
	mod := s.moduleScope()
	if mod == nil {
		return false
	}
	return mod.visited[node.Position().String()]
}

func (s *Scope) MarkChecked(node ast.Node) {
	mod := s.moduleScope()
	if mod == nil {
		return
	}
	mod.visited[node.Position().String()] = true
}

func (s *Scope) moduleScope() *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == Module {
			return cur
		}
	}
	return nil
}

// ---------------------------------------------------------------------
// Program-level bound-type interning
// ---------------------------------------------------------------------

// PutBoundType interns t in the program's master table, keyed by its
// canonical signature. Idempotent-with-error: re-interning an identical
// signature is a no-op, but this method is only ever called with a type
// whose signature is by construction the key, so no conflict is
// possible; it exists for parity with spec §3.5's "idempotent-with-error".
func (p *Scope) PutBoundType(t types.Type) error {
	if p.Kind != Program {
		panic("scope: PutBoundType called on a non-program scope")
	}
	sig := t.Signature()
	if existing, ok := p.boundTypes[sig]; ok {
		if !types.Equals(existing, t) {
			return fmt.Errorf("scope: signature collision interning bound type %s", sig)
		}
		return nil
	}
	p.boundTypes[sig] = t
	return nil
}

func (p *Scope) GetBoundType(signature string) (types.Type, bool) {
	t, ok := p.boundTypes[signature]
	return t, ok
}
