package value

import (
	"math/big"
	"testing"

	"github.com/vellum-lang/vellumc/internal/test"
	"github.com/vellum-lang/vellumc/internal/types"
)

func u8(n int64) Value { return Int(types.U8, big.NewInt(n)) }
func i8(n int64) Value { return Int(types.I8, big.NewInt(n)) }

func TestAddCheckedWithinRange(t *testing.T) {
	got, err := Add(u8(2), u8(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	test.AssertEqual(t, got.AsInt().Int64(), int64(5))
}

func TestAddCheckedOverflow(t *testing.T) {
	_, err := Add(u8(200), u8(100))
	if err == nil {
		t.Fatal("expected overflow error")
	}
	var overflow *OverflowError
	if !asOverflow(err, &overflow) {
		t.Fatalf("expected *OverflowError, got %T", err)
	}
}

func asOverflow(err error, out **OverflowError) bool {
	oe, ok := err.(*OverflowError)
	if ok {
		*out = oe
	}
	return ok
}

// Wrapping consistency: whenever the checked form succeeds, the wrapping
// form agrees with it (SPEC_FULL.md §8).
func TestWrappingConsistency(t *testing.T) {
	checked, err := Add(u8(10), u8(20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wrapped := AddWrapped(u8(10), u8(20))
	test.AssertEqual(t, checked.AsInt().Int64(), wrapped.AsInt().Int64())
}

func TestAddWrappedOverflowWraps(t *testing.T) {
	got := AddWrapped(u8(200), u8(100))
	test.AssertEqual(t, got.AsInt().Int64(), int64(44)) // 300 mod 256
}

func TestNegMinOverflows(t *testing.T) {
	minI8 := i8(-128)
	_, err := Neg(minI8)
	if err == nil {
		t.Fatal("expected overflow negating i8::MIN")
	}
}

func TestAbsWrappedMinWrapsToItself(t *testing.T) {
	got := AbsWrapped(i8(-128))
	test.AssertEqual(t, got.AsInt().Int64(), int64(-128))
}

func TestDivisionByZero(t *testing.T) {
	_, err := Div(u8(10), u8(0))
	if _, ok := err.(*DivisionByZeroError); !ok {
		t.Fatalf("expected *DivisionByZeroError, got %v", err)
	}
}

func TestShlCheckedRejectsOutOfWidthAmount(t *testing.T) {
	exp := Int(types.U8, big.NewInt(8))
	_, err := Shl(u8(1), exp)
	if err == nil {
		t.Fatal("expected overflow: shift amount equals bit width")
	}
}

func TestShlWrappedReducesModuloWidth(t *testing.T) {
	exp := Int(types.U8, big.NewInt(8)) // 8 mod 8 == 0 -> no-op shift
	got := ShlWrapped(u8(1), exp)
	test.AssertEqual(t, got.AsInt().Int64(), int64(1))
}

func TestComparisons(t *testing.T) {
	test.AssertEqual(t, Lt(u8(1), u8(2)).AsBool(), true)
	test.AssertEqual(t, Ge(u8(2), u8(2)).AsBool(), true)
	test.AssertEqual(t, Eq(Bool(true), Bool(true)).AsBool(), true)
	test.AssertEqual(t, Ne(Bool(true), Bool(false)).AsBool(), true)
}

func TestNotBitwiseComplement(t *testing.T) {
	got := Not(u8(0))
	test.AssertEqual(t, got.AsInt().Int64(), int64(255))
}

func TestLatticeMonotonicity(t *testing.T) {
	a, err1 := Add(u8(2), u8(3))
	b, err2 := Add(u8(2), u8(3))
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v %v", err1, err2)
	}
	test.AssertEqual(t, a.AsInt().Int64(), b.AsInt().Int64())
}

func TestFromLiteralTextRejectsOutOfRange(t *testing.T) {
	_, ok := FromLiteralText(types.U8, "256")
	test.AssertEqual(t, ok, false)
}

func TestFromLiteralTextParsesInRange(t *testing.T) {
	v, ok := FromLiteralText(types.U8, "200")
	test.AssertEqual(t, ok, true)
	test.AssertEqual(t, v.AsInt().Int64(), int64(200))
}

func TestToU128RejectsNegative(t *testing.T) {
	_, ok := ToU128(i8(-1))
	test.AssertEqual(t, ok, false)
}

func TestToU128AndBackRoundTrips(t *testing.T) {
	n, ok := ToU128(u8(42))
	test.AssertEqual(t, ok, true)
	got := FromU128(types.U8, n)
	test.AssertEqual(t, got.AsInt().Int64(), int64(42))
}
