// Package unify implements Zion's unification algorithm (spec §4.4): given
// two type values, find a substitution (if one exists) that makes them
// structurally identical, or report why none exists. Unification never
// performs coercion — that is the checker's job (spec §4.6.9).
package unify

import (
	"fmt"

	"github.com/sunholo/zion/internal/types"
)

// TypeEnv resolves a named type alias to its bound type, so unification
// can retry a reduction when a signature mismatch might be explained by
// a recursive type alias needing one more expansion (e.g. `type list is
// nil | cons(head, list)`). internal/scope's typename environment
// satisfies this interface; unify never imports internal/scope to avoid
// a cycle.
type TypeEnv interface {
	LookupTypeAlias(name string) (types.Type, bool)
}

// MaxDepth bounds the eval-retry loop so a non-terminating alias chain
// fails fast instead of looping forever.
const MaxDepth = 64

// Unification is the result of a successful unify call: the accumulated
// variable bindings discovered along the way.
type Unification struct {
	Bindings map[string]types.Type
}

// Failure explains why two types could not be unified.
type Failure struct {
	Left, Right types.Type
	Reason      string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("cannot unify %s with %s: %s", f.Left, f.Right, f.Reason)
}

// Unify attempts to unify a and b under env, starting from an existing
// binding set (pass an empty map for a fresh call). It returns the
// updated bindings on success, or a *Failure on mismatch.
func Unify(a, b types.Type, env TypeEnv, bindings map[string]types.Type) (*Unification, error) {
	if bindings == nil {
		bindings = map[string]types.Type{}
	}
	b2, err := unify(a, b, env, bindings, 0)
	if err != nil {
		return nil, err
	}
	return &Unification{Bindings: b2}, nil
}

func unify(a, b types.Type, env TypeEnv, bindings map[string]types.Type, depth int) (map[string]types.Type, error) {
	a = prune(a, bindings)
	b = prune(b, bindings)

	if types.Equals(a, b) {
		return bindings, nil
	}

	if av, ok := a.(*types.TVar); ok {
		return bindVar(av, b, bindings)
	}
	if bv, ok := b.(*types.TVar); ok {
		return bindVar(bv, a, bindings)
	}

	if out, ok, err := unifyStructural(a, b, env, bindings, depth); ok {
		return out, err
	}

	if depth < MaxDepth {
		if ra, ok := evalOneStep(a, env); ok {
			if out, err := unify(ra, b, env, bindings, depth+1); err == nil {
				return out, nil
			}
		}
		if rb, ok := evalOneStep(b, env); ok {
			if out, err := unify(a, rb, env, bindings, depth+1); err == nil {
				return out, nil
			}
		}
	}

	return nil, &Failure{Left: a, Right: b, Reason: "no unifying structure found"}
}

// prune follows a chain of variable bindings to its representative type,
// the way union-find "find" does, so repeated lookups stay cheap.
func prune(t types.Type, bindings map[string]types.Type) types.Type {
	for {
		tv, ok := t.(*types.TVar)
		if !ok {
			return t
		}
		sub, ok := bindings[tv.Name]
		if !ok {
			return t
		}
		t = sub
	}
}

func bindVar(v *types.TVar, t types.Type, bindings map[string]types.Type) (map[string]types.Type, error) {
	if ov, ok := t.(*types.TVar); ok && ov.Name == v.Name {
		return bindings, nil
	}
	if occursInType(v.Name, t, bindings) {
		return nil, &Failure{Left: v, Right: t, Reason: "occurs check failed: infinite type"}
	}
	out := make(map[string]types.Type, len(bindings)+1)
	for k, val := range bindings {
		out[k] = val
	}
	out[v.Name] = t
	return out, nil
}

// occursInType reports whether var appears free in t, following existing
// bindings, to reject infinite types like 'a = list('a).
func occursInType(name string, t types.Type, bindings map[string]types.Type) bool {
	t = prune(t, bindings)
	if tv, ok := t.(*types.TVar); ok {
		return tv.Name == name
	}
	for fv := range t.FreeTypeVars() {
		if fv == name {
			return true
		}
		if sub, ok := bindings[fv]; ok && occursInType(name, sub, bindings) {
			return true
		}
	}
	return false
}

// unifyStructural descends into two type values of matching shape,
// pointwise unifying their children. The bool return reports whether a
// and b had comparable shapes at all (false means "try eval-reduction or
// fail", not "structural mismatch found").
func unifyStructural(a, b types.Type, env TypeEnv, bindings map[string]types.Type, depth int) (map[string]types.Type, bool, error) {
	switch av := a.(type) {
	case *types.TOperator:
		bv, ok := b.(*types.TOperator)
		if !ok {
			return nil, false, nil
		}
		next, err := unify(av.Head, bv.Head, env, bindings, depth)
		if err != nil {
			return nil, true, err
		}
		next, err = unify(av.Arg, bv.Arg, env, next, depth)
		return next, true, err

	case *types.TPtr:
		bv, ok := b.(*types.TPtr)
		if !ok {
			return nil, false, nil
		}
		next, err := unify(av.Elem, bv.Elem, env, bindings, depth)
		return next, true, err

	case *types.TRef:
		bv, ok := b.(*types.TRef)
		if !ok {
			return nil, false, nil
		}
		next, err := unify(av.Elem, bv.Elem, env, bindings, depth)
		return next, true, err

	case *types.TManaged:
		bv, ok := b.(*types.TManaged)
		if !ok {
			return nil, false, nil
		}
		next, err := unify(av.Elem, bv.Elem, env, bindings, depth)
		return next, true, err

	case *types.TModule:
		bv, ok := b.(*types.TModule)
		if !ok {
			return nil, false, nil
		}
		next, err := unify(av.Inner, bv.Inner, env, bindings, depth)
		return next, true, err

	case *types.TMaybe:
		bv, ok := b.(*types.TMaybe)
		if !ok {
			return nil, false, nil
		}
		next, err := unify(av.Just, bv.Just, env, bindings, depth)
		return next, true, err

	case *types.TFunction:
		bv, ok := b.(*types.TFunction)
		if !ok {
			return nil, false, nil
		}
		next, err := unify(av.Args, bv.Args, env, bindings, depth)
		if err != nil {
			return nil, true, err
		}
		next, err = unify(av.Return, bv.Return, env, next, depth)
		return next, true, err

	case *types.TStruct:
		bv, ok := b.(*types.TStruct)
		if !ok {
			return nil, false, nil
		}
		return unifyDims(av.Dims, av.NameIndex, bv.Dims, bv.NameIndex, env, bindings, depth)

	case *types.TArgs:
		bv, ok := b.(*types.TArgs)
		if !ok {
			return nil, false, nil
		}
		return unifyDims(av.Dims, av.NameIndex, bv.Dims, bv.NameIndex, env, bindings, depth)

	case *types.TSum:
		return unifySum(av, b, env, bindings, depth)

	case *types.TExtern:
		bv, ok := b.(*types.TExtern)
		if !ok {
			return nil, false, nil
		}
		if av.Underlying != bv.Underlying {
			return nil, true, &Failure{Left: a, Right: b, Reason: "extern types wrap different underlying foreign types"}
		}
		next, err := unify(av.Inner, bv.Inner, env, bindings, depth)
		return next, true, err
	}

	if bv, ok := b.(*types.TSum); ok {
		return unifySum(bv, a, env, bindings, depth)
	}

	return nil, false, nil
}

func unifyDims(aDims []types.Dim, aIdx map[string]int, bDims []types.Dim, bIdx map[string]int, env TypeEnv, bindings map[string]types.Type, depth int) (map[string]types.Type, bool, error) {
	if len(aDims) != len(bDims) {
		return nil, true, &Failure{Reason: fmt.Sprintf("dimension count mismatch: %d vs %d", len(aDims), len(bDims))}
	}
	for name, ai := range aIdx {
		bi, ok := bIdx[name]
		if !ok {
			return nil, true, &Failure{Reason: fmt.Sprintf("dimension %q missing on right side", name)}
		}
		if ai != bi {
			return nil, true, &Failure{Reason: fmt.Sprintf("dimension %q at different positions", name)}
		}
	}
	next := bindings
	var err error
	for i := range aDims {
		next, err = unify(aDims[i].Type, bDims[i].Type, env, next, depth)
		if err != nil {
			return nil, true, err
		}
	}
	return next, true, nil
}

// unifySum succeeds when every option on the sum side unifies against
// some option on the other side (spec §4.4: "TSum succeeds when every
// option on one side unifies some option on the other side").
func unifySum(sum *types.TSum, other types.Type, env TypeEnv, bindings map[string]types.Type, depth int) (map[string]types.Type, bool, error) {
	otherOptions := []types.Type{other}
	if os, ok := other.(*types.TSum); ok {
		otherOptions = os.Options
	}

	next := bindings
	for _, opt := range sum.Options {
		matched := false
		for _, oo := range otherOptions {
			if out, err := unify(opt, oo, env, next, depth); err == nil {
				next = out
				matched = true
				break
			}
		}
		if !matched {
			return nil, true, &Failure{Left: opt, Right: other, Reason: "sum option has no match on the other side"}
		}
	}
	return next, true, nil
}

// evalOneStep expands a's head if it names a type alias registered in
// env, letting unify retry against the expanded form. Returns false when
// a isn't an alias reference.
func evalOneStep(t types.Type, env TypeEnv) (types.Type, bool) {
	if env == nil {
		return nil, false
	}
	switch v := t.(type) {
	case *types.TId:
		return env.LookupTypeAlias(v.Name)
	case *types.TOperator:
		if head, ok := v.Head.(*types.TId); ok {
			if aliased, ok := env.LookupTypeAlias(head.Name); ok {
				if lam, ok := aliased.(*types.TLambda); ok {
					return lam.Body.Substitute(map[string]types.Type{lam.Bound: v.Arg}), true
				}
			}
		}
	}
	return nil, false
}
