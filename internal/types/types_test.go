package types

import (
	"testing"

	"github.com/vellum-lang/vellumc/internal/test"
)

func TestEqualsWidthSensitive(t *testing.T) {
	test.AssertEqual(t, U8Type.Equals(U8Type), true)
	test.AssertEqual(t, U8Type.Equals(U16Type), false)
	test.AssertEqual(t, I32Type.Equals(U32Type), false)
}

func TestEqualsIdentifierByName(t *testing.T) {
	a := Circuit("Token")
	b := Circuit("Token")
	c := Circuit("Other")
	test.AssertEqual(t, a.Equals(b), true)
	test.AssertEqual(t, a.Equals(c), false)
}

func TestBitWidth(t *testing.T) {
	test.AssertEqual(t, U8Type.Kind.BitWidth(), 8)
	test.AssertEqual(t, I128Type.Kind.BitWidth(), 128)
	test.AssertEqual(t, BooleanType.Kind.BitWidth(), 0)
}

func TestIsValidShiftAmountType(t *testing.T) {
	test.AssertEqual(t, U8.IsValidShiftAmountType(), true)
	test.AssertEqual(t, U64.IsValidShiftAmountType(), false)
	test.AssertEqual(t, I8.IsValidShiftAmountType(), false)
}

func TestParseKeyword(t *testing.T) {
	k, ok := ParseKeyword("u64")
	test.AssertEqual(t, ok, true)
	test.AssertEqual(t, k, U64)

	_, ok = ParseKeyword("Token")
	test.AssertEqual(t, ok, false)
}
