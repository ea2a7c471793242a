// Package value implements the compile-time value lattice: typed constants
// with checked and wrapping arithmetic over every primitive type, used by
// the flattener to fold expressions and by the unroller to project loop
// bounds.
//
// Field, group, and scalar values are carried as opaque, verbatim literal
// text — this package never performs arithmetic on them, by design (see
// SPEC_FULL.md §7/§9): a back-end is expected to interpret them.
package value

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/vellum-lang/vellumc/internal/span"
	"github.com/vellum-lang/vellumc/internal/types"
)

// shape distinguishes the internal representation a Value carries, kept
// separate from types.Kind because Input and Circuit are value-level
// concepts (a declared type with no known constant, and an aggregate of
// member values) rather than additional primitive types.
type shape uint8

const (
	shapeBool shape = iota
	shapeInt
	shapeOpaqueText // field, group, scalar, address, string
	shapeCircuit
	shapeInput
)

// CircuitMember is one named, ordered member of a folded circuit value.
type CircuitMember struct {
	Name  string
	Value Value
}

// Value is a concrete compile-time value tagged by its static Type. The
// lattice's ⊥ (unknown/non-const) is represented by the absence of a Value
// (a nil *Value in VariableSymbol.Value), not by a member of this type.
type Value struct {
	typ types.Type
	sh  shape

	b    bool
	i    *big.Int
	text string

	circuitName string
	members     []CircuitMember

	inputIdent string
}

// Type returns the value's static type.
func (v Value) Type() types.Type { return v.typ }

// IsInput reports whether v is the non-constant Input(type, identifier)
// marker rather than a concrete constant.
func (v Value) IsInput() bool { return v.sh == shapeInput }

// Bool constructs a Boolean value.
func Bool(b bool) Value {
	return Value{typ: types.BooleanType, sh: shapeBool, b: b}
}

// AsBool returns the underlying bool. The caller must have already checked
// Type().Kind == types.Boolean.
func (v Value) AsBool() bool { return v.b }

// Int constructs an integer value of kind k from a big.Int, which must
// already be in range for k (callers that cannot guarantee this should go
// through a checked or wrapping operation, or FromLiteralText).
func Int(k types.Kind, n *big.Int) Value {
	return Value{typ: types.Primitive(k), sh: shapeInt, i: new(big.Int).Set(n)}
}

// AsInt returns the underlying integer magnitude.
func (v Value) AsInt() *big.Int { return v.i }

// OpaqueText constructs a field, group, scalar, address, or string value
// that carries its literal text verbatim without interpretation.
func OpaqueText(k types.Kind, text string) Value {
	return Value{typ: types.Primitive(k), sh: shapeOpaqueText, text: text}
}

// AsText returns the verbatim literal text of an opaque value.
func (v Value) AsText() string { return v.text }

// Circuit constructs a folded aggregate value. members preserves
// declaration order, per the original value representation this is
// supplemented from (SPEC_FULL.md §8).
func Circuit(name string, members []CircuitMember) Value {
	return Value{
		typ:         types.Circuit(name),
		sh:          shapeCircuit,
		circuitName: name,
		members:     members,
	}
}

// Members returns a folded circuit value's ordered members.
func (v Value) Members() []CircuitMember { return v.members }

// Input constructs the non-constant marker value carrying a declared type
// and the identifier it was bound from, used where the flattener must
// thread a typed-but-unknown placeholder through constant folding.
func Input(t types.Type, identifier string) Value {
	return Value{typ: t, sh: shapeInput, inputIdent: identifier}
}

// InputIdentifier returns the identifier an Input value was derived from.
func (v Value) InputIdentifier() string { return v.inputIdent }

func (v Value) String() string {
	switch v.sh {
	case shapeBool:
		return fmt.Sprintf("%v", v.b)
	case shapeInt:
		return v.i.String()
	case shapeOpaqueText:
		return v.text
	case shapeCircuit:
		return fmt.Sprintf("%s{...}", v.circuitName)
	case shapeInput:
		return fmt.Sprintf("<input %s>", v.inputIdent)
	default:
		return "<invalid>"
	}
}

// FromLiteralText parses literal source text into a Value of kind k. For
// integer kinds a trailing width suffix naming k (e.g. the "u8" of "42u8")
// is dropped, the digits are parsed in base 10, and a width-range violation
// is reported via ok=false, never a silent truncation; no diagnostic is
// emitted here, and the flattener leaves such a literal unfolded.
// Field/group/scalar/address/string kinds are kept verbatim.
func FromLiteralText(k types.Kind, text string) (Value, bool) {
	if k == types.Boolean {
		switch text {
		case "true":
			return Bool(true), true
		case "false":
			return Bool(false), true
		default:
			return Value{}, false
		}
	}
	if k.IsInteger() {
		n, ok := new(big.Int).SetString(strings.TrimSuffix(text, k.String()), 10)
		if !ok {
			return Value{}, false
		}
		if !inRange(k, n) {
			return Value{}, false
		}
		return Int(k, n), true
	}
	return OpaqueText(k, text), true
}

// ToType is the Value→Type projection: every value carries its own static
// type already, so this simply returns it; the accessor exists to name the
// projection the flattener relies on explicitly (SPEC_FULL.md §4.1).
func ToType(v Value) types.Type {
	return v.typ
}

// ToU128 projects an integer value for loop-bound evaluation. A negative
// signed value is rejected with ok=false — the caller (the unroller) reports
// LoopHasNegativeBound.
func ToU128(v Value) (n *big.Int, ok bool) {
	if v.sh != shapeInt {
		return nil, false
	}
	if v.i.Sign() < 0 {
		return nil, false
	}
	return new(big.Int).Set(v.i), true
}

// FromU128 converts a non-negative magnitude back into a typed Value of
// kind k, truncating/reinterpreting it within k's width. Used by the
// unroller to materialize each iteration's induction-variable literal
// (SPEC_FULL.md §4.5/§8).
func FromU128(k types.Kind, n *big.Int) Value {
	return Int(k, wrapTo(k, n))
}

// OverflowError reports a checked arithmetic operation whose mathematical
// result does not fit the destination type.
type OverflowError struct {
	Op         string
	LHS        string
	RHS        string
	ResultType types.Kind
}

func (e *OverflowError) Error() string {
	if e.RHS == "" {
		return fmt.Sprintf("arithmetic overflow: %s(%s) does not fit %s", e.Op, e.LHS, e.ResultType)
	}
	return fmt.Sprintf("arithmetic overflow: %s %s %s does not fit %s", e.LHS, e.Op, e.RHS, e.ResultType)
}

// DivisionByZeroError reports a checked division or remainder by zero.
type DivisionByZeroError struct {
	Span span.Span
}

func (e *DivisionByZeroError) Error() string { return "division by zero" }

func rangeFor(k types.Kind) (min, max *big.Int) {
	w := uint(k.BitWidth())
	if k.IsSigned() {
		max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), w-1), big.NewInt(1))
		min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), w-1))
		return min, max
	}
	min = big.NewInt(0)
	max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), w), big.NewInt(1))
	return min, max
}

func inRange(k types.Kind, v *big.Int) bool {
	min, max := rangeFor(k)
	return v.Cmp(min) >= 0 && v.Cmp(max) <= 0
}

// wrapTo reduces v into k's representable range via two's-complement
// wraparound.
func wrapTo(k types.Kind, v *big.Int) *big.Int {
	w := uint(k.BitWidth())
	mod := new(big.Int).Lsh(big.NewInt(1), w)
	r := new(big.Int).Mod(v, mod)
	if r.Sign() < 0 {
		r.Add(r, mod)
	}
	if k.IsSigned() {
		half := new(big.Int).Lsh(big.NewInt(1), w-1)
		if r.Cmp(half) >= 0 {
			r.Sub(r, mod)
		}
	}
	return r
}
