package check

import (
	"fmt"

	"github.com/sunholo/zion/internal/ir"
	"github.com/sunholo/zion/internal/types"
)

// coerce implements spec §4.6.9's five implicit-conversion forms, tried
// in order; the first applicable rule wins. An identical signature is a
// no-op (rule 1) and is never wrapped in an ir.Coerce node.
func coerce(value ir.Expr, from, to types.Type, pos string) (ir.Expr, error) {
	if types.Equals(from, to) {
		return value, nil
	}

	if fi, ok := from.(*types.TInteger); ok {
		if ti, ok := to.(*types.TInteger); ok {
			kind := ir.CoerceIntWiden
			if ti.Bits < fi.Bits {
				kind = ir.CoerceIntTruncate
			}
			return &ir.Coerce{Value: value, Kind: kind, Typ: to}, nil
		}
	}

	if isNilLiteral(value) {
		if _, ok := to.(*types.TPtr); ok {
			return &ir.Coerce{Value: value, Kind: ir.CoerceNilToPtr, Typ: to}, nil
		}
		if _, ok := to.(*types.TMaybe); ok {
			return &ir.Coerce{Value: value, Kind: ir.CoerceNilToPtr, Typ: to}, nil
		}
	}

	if _, fromPtr := from.(*types.TPtr); fromPtr {
		if _, toPtr := to.(*types.TPtr); toPtr {
			return &ir.Coerce{Value: value, Kind: ir.CoercePtrBitcast, Typ: to}, nil
		}
	}

	if fr, ok := from.(*types.TRef); ok {
		if types.Equals(fr.Elem, to) {
			return &ir.Coerce{Value: value, Kind: ir.CoerceRefLoad, Typ: to}, nil
		}
	}

	return nil, fmt.Errorf("TYP008: %s: cannot coerce %s to %s", pos, from, to)
}

func isNilLiteral(e ir.Expr) bool {
	lit, ok := e.(*ir.Lit)
	if !ok {
		return false
	}
	return lit.Value == nil
}
