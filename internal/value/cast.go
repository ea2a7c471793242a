package value

import (
	"math/big"

	"github.com/vellum-lang/vellumc/internal/types"
)

// Cast reinterprets v as target, truncating or sign-extending integer
// values via two's-complement wraparound and converting between Boolean
// and integer kinds with the conventional 0/1 encoding. ok is false for any
// combination this lattice does not define (e.g. casting to/from an opaque
// field/group/scalar/address/string kind), leaving the caller's expression
// residual.
func Cast(v Value, target types.Kind) (Value, bool) {
	switch {
	case v.typ.Kind.IsInteger() && target.IsInteger():
		return Int(target, wrapTo(target, v.i)), true
	case v.typ.Kind == types.Boolean && target.IsInteger():
		n := big.NewInt(0)
		if v.b {
			n = big.NewInt(1)
		}
		return Int(target, n), true
	case v.typ.Kind.IsInteger() && target == types.Boolean:
		return Bool(v.i.Sign() != 0), true
	default:
		return Value{}, false
	}
}
