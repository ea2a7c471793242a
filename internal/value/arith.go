package value

import (
	"math/big"

	"github.com/vellum-lang/vellumc/internal/types"
)

func checkedBinary(op string, k types.Kind, a, b Value, compute func(x, y *big.Int) *big.Int) (Value, error) {
	result := compute(a.i, b.i)
	if !inRange(k, result) {
		return Value{}, &OverflowError{Op: op, LHS: a.i.String(), RHS: b.i.String(), ResultType: k}
	}
	return Int(k, result), nil
}

func wrappingBinary(k types.Kind, a, b Value, compute func(x, y *big.Int) *big.Int) Value {
	return Int(k, wrapTo(k, compute(a.i, b.i)))
}

// Add is the checked form of add.
func Add(a, b Value) (Value, error) {
	return checkedBinary("+", a.typ.Kind, a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Add(x, y) })
}

// AddWrapped is the wrapping form of add.
func AddWrapped(a, b Value) Value {
	return wrappingBinary(a.typ.Kind, a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Add(x, y) })
}

// Sub is the checked form of sub.
func Sub(a, b Value) (Value, error) {
	return checkedBinary("-", a.typ.Kind, a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Sub(x, y) })
}

// SubWrapped is the wrapping form of sub.
func SubWrapped(a, b Value) Value {
	return wrappingBinary(a.typ.Kind, a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Sub(x, y) })
}

// Mul is the checked form of mul.
func Mul(a, b Value) (Value, error) {
	return checkedBinary("*", a.typ.Kind, a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) })
}

// MulWrapped is the wrapping form of mul.
func MulWrapped(a, b Value) Value {
	return wrappingBinary(a.typ.Kind, a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) })
}

// Div is the checked form of div: truncating (toward zero) integer
// division. Fails with *DivisionByZeroError if b is zero, or
// *OverflowError for the single representable-overflow case
// (MIN / -1 on a signed type).
func Div(a, b Value) (Value, error) {
	if b.i.Sign() == 0 {
		return Value{}, &DivisionByZeroError{}
	}
	q := quoTowardZero(a.i, b.i)
	k := a.typ.Kind
	if !inRange(k, q) {
		return Value{}, &OverflowError{Op: "/", LHS: a.i.String(), RHS: b.i.String(), ResultType: k}
	}
	return Int(k, q), nil
}

// DivWrapped is the wrapping form of div. Division by zero is left
// unspecified by the checked/wrapping contract (the type checker is
// responsible for rejecting statically-known-zero divisors before this
// path is reached); here it is treated the same as the checked form's
// error to avoid an undefined native division.
func DivWrapped(a, b Value) (Value, error) {
	if b.i.Sign() == 0 {
		return Value{}, &DivisionByZeroError{}
	}
	k := a.typ.Kind
	return Int(k, wrapTo(k, quoTowardZero(a.i, b.i))), nil
}

func quoTowardZero(a, b *big.Int) *big.Int {
	return new(big.Int).Quo(a, b)
}

// Pow is the checked form of pow. The exponent must be an unsigned value of
// kind U8, U16, or U32 (an invariant enforced by the type checker before
// this is called).
func Pow(a, exp Value) (Value, error) {
	k := a.typ.Kind
	result := new(big.Int).Exp(a.i, exp.i, nil)
	if !inRange(k, result) {
		return Value{}, &OverflowError{Op: "**", LHS: a.i.String(), RHS: exp.i.String(), ResultType: k}
	}
	return Int(k, result), nil
}

// PowWrapped is the wrapping form of pow.
func PowWrapped(a, exp Value) Value {
	k := a.typ.Kind
	result := new(big.Int).Exp(a.i, exp.i, nil)
	return Int(k, wrapTo(k, result))
}

// shiftAmount returns the validated, in-range shift/exponent amount as a
// plain int, and whether it is within [0, bitWidth) of the shifted type.
func shiftAmount(k types.Kind, exp Value) (amount int, inBitWidth bool) {
	amount = int(exp.i.Int64())
	return amount, amount >= 0 && amount < k.BitWidth()
}

// Shl is the checked form of shl: fails if the shift amount is >= the
// shifted type's bit width.
func Shl(a, exp Value) (Value, error) {
	k := a.typ.Kind
	amount, ok := shiftAmount(k, exp)
	if !ok {
		return Value{}, &OverflowError{Op: "<<", LHS: a.i.String(), RHS: exp.i.String(), ResultType: k}
	}
	result := new(big.Int).Lsh(a.i, uint(amount))
	if !inRange(k, result) {
		return Value{}, &OverflowError{Op: "<<", LHS: a.i.String(), RHS: exp.i.String(), ResultType: k}
	}
	return Int(k, result), nil
}

// ShlWrapped is the wrapping form of shl: the shift amount is reduced
// modulo the bit width, and the result wraps.
func ShlWrapped(a, exp Value) Value {
	k := a.typ.Kind
	amount := int(exp.i.Int64()) % k.BitWidth()
	if amount < 0 {
		amount += k.BitWidth()
	}
	result := new(big.Int).Lsh(a.i, uint(amount))
	return Int(k, wrapTo(k, result))
}

// Shr is the checked form of shr (arithmetic shift for signed types,
// logical shift for unsigned types — big.Int.Rsh implements floor
// division by 2^n, matching arithmetic shift for negative values).
func Shr(a, exp Value) (Value, error) {
	k := a.typ.Kind
	amount, ok := shiftAmount(k, exp)
	if !ok {
		return Value{}, &OverflowError{Op: ">>", LHS: a.i.String(), RHS: exp.i.String(), ResultType: k}
	}
	result := new(big.Int).Rsh(a.i, uint(amount))
	return Int(k, result), nil
}

// ShrWrapped is the wrapping form of shr.
func ShrWrapped(a, exp Value) Value {
	k := a.typ.Kind
	amount := int(exp.i.Int64()) % k.BitWidth()
	if amount < 0 {
		amount += k.BitWidth()
	}
	result := new(big.Int).Rsh(a.i, uint(amount))
	return Int(k, result)
}

// And is the non-overflowing bitwise AND, defined for Boolean (logical) and
// integer (bitwise) operands of identical type.
func And(a, b Value) Value {
	if a.typ.Kind == types.Boolean {
		return Bool(a.b && b.b)
	}
	return wrappingBinary(a.typ.Kind, a, b, func(x, y *big.Int) *big.Int { return new(big.Int).And(x, y) })
}

// Or is the non-overflowing bitwise/logical OR.
func Or(a, b Value) Value {
	if a.typ.Kind == types.Boolean {
		return Bool(a.b || b.b)
	}
	return wrappingBinary(a.typ.Kind, a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Or(x, y) })
}

// Xor is the non-overflowing bitwise/logical XOR.
func Xor(a, b Value) Value {
	if a.typ.Kind == types.Boolean {
		return Bool(a.b != b.b)
	}
	return wrappingBinary(a.typ.Kind, a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Xor(x, y) })
}

// BitAnd is the bitwise-only AND (integer operands only; see And for the
// Boolean-inclusive operator the language also exposes as `and`).
func BitAnd(a, b Value) Value {
	return wrappingBinary(a.typ.Kind, a, b, func(x, y *big.Int) *big.Int { return new(big.Int).And(x, y) })
}

// BitOr is the bitwise-only OR.
func BitOr(a, b Value) Value {
	return wrappingBinary(a.typ.Kind, a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Or(x, y) })
}

// Eq applies to Boolean and every integer type.
func Eq(a, b Value) Value {
	if a.typ.Kind == types.Boolean {
		return Bool(a.b == b.b)
	}
	return Bool(a.i.Cmp(b.i) == 0)
}

// Ne is the complement of Eq.
func Ne(a, b Value) Value {
	eq := Eq(a, b)
	return Bool(!eq.b)
}

// Lt applies to integer operands of identical type.
func Lt(a, b Value) Value { return Bool(a.i.Cmp(b.i) < 0) }

// Le applies to integer operands of identical type.
func Le(a, b Value) Value { return Bool(a.i.Cmp(b.i) <= 0) }

// Gt applies to integer operands of identical type.
func Gt(a, b Value) Value { return Bool(a.i.Cmp(b.i) > 0) }

// Ge applies to integer operands of identical type.
func Ge(a, b Value) Value { return Bool(a.i.Cmp(b.i) >= 0) }

// Neg is the checked form of unary negation, defined only on signed
// integer types; negating the minimum representable value overflows.
func Neg(a Value) (Value, error) {
	k := a.typ.Kind
	result := new(big.Int).Neg(a.i)
	if !inRange(k, result) {
		return Value{}, &OverflowError{Op: "neg", LHS: a.i.String(), ResultType: k}
	}
	return Int(k, result), nil
}

// NegWrapped is the wrapping form of unary negation.
func NegWrapped(a Value) Value {
	k := a.typ.Kind
	return Int(k, wrapTo(k, new(big.Int).Neg(a.i)))
}

// Abs is the checked form of absolute value, signed-only; abs(MIN)
// overflows in checked form.
func Abs(a Value) (Value, error) {
	k := a.typ.Kind
	result := new(big.Int).Abs(a.i)
	if !inRange(k, result) {
		return Value{}, &OverflowError{Op: "abs", LHS: a.i.String(), ResultType: k}
	}
	return Int(k, result), nil
}

// AbsWrapped is the wrapping form of absolute value.
func AbsWrapped(a Value) Value {
	k := a.typ.Kind
	return Int(k, wrapTo(k, new(big.Int).Abs(a.i)))
}

// Not is bitwise complement on integers, logical negation on Boolean. It
// never fails: the complement of any in-range value is representable in
// the same width.
func Not(a Value) Value {
	if a.typ.Kind == types.Boolean {
		return Bool(!a.b)
	}
	k := a.typ.Kind
	// Two's complement NOT is -(x) - 1.
	result := new(big.Int).Sub(new(big.Int).Neg(a.i), big.NewInt(1))
	return Int(k, wrapTo(k, result))
}
