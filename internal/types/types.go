// Package types defines the closed set of primitive and named types of the
// circuit language, and the structural equality rules over them.
package types

import "fmt"

// Kind identifies one member of the closed primitive type set, or the
// Identifier escape hatch for a named circuit.
type Kind uint8

const (
	Invalid Kind = iota
	Boolean
	Field
	Group
	Scalar
	Address
	String
	I8
	I16
	I32
	I64
	I128
	U8
	U16
	U32
	U64
	U128
	Identifier // a named circuit, resolved through the symbol table
)

func (k Kind) String() string {
	switch k {
	case Boolean:
		return "bool"
	case Field:
		return "field"
	case Group:
		return "group"
	case Scalar:
		return "scalar"
	case Address:
		return "address"
	case String:
		return "string"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case I128:
		return "i128"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case U128:
		return "u128"
	case Identifier:
		return "<circuit>"
	default:
		return "<invalid>"
	}
}

// IsSigned reports whether k is one of I8..I128.
func (k Kind) IsSigned() bool {
	switch k {
	case I8, I16, I32, I64, I128:
		return true
	default:
		return false
	}
}

// IsUnsigned reports whether k is one of U8..U128.
func (k Kind) IsUnsigned() bool {
	switch k {
	case U8, U16, U32, U64, U128:
		return true
	default:
		return false
	}
}

// IsInteger reports whether k is any signed or unsigned integer width.
func (k Kind) IsInteger() bool {
	return k.IsSigned() || k.IsUnsigned()
}

// BitWidth returns the width in bits of an integer kind, or 0 if k is not an
// integer kind.
func (k Kind) BitWidth() int {
	switch k {
	case I8, U8:
		return 8
	case I16, U16:
		return 16
	case I32, U32:
		return 32
	case I64, U64:
		return 64
	case I128, U128:
		return 128
	default:
		return 0
	}
}

// IsValidShiftAmountType reports whether k may be used as the right-hand
// operand of shl/shr/pow — restricted to U8, U16, U32 per the resolved open
// question on exponent widths.
func (k Kind) IsValidShiftAmountType() bool {
	switch k {
	case U8, U16, U32:
		return true
	default:
		return false
	}
}

// Type is a fully-resolved type: a primitive Kind, or Identifier paired with
// a circuit name. Equality is structural and width-sensitive.
type Type struct {
	Kind Kind
	Name string // populated only when Kind == Identifier
}

// Primitive constructs a Type for any non-Identifier Kind.
func Primitive(k Kind) Type {
	return Type{Kind: k}
}

// Circuit constructs an Identifier-kind Type referring to a named circuit.
func Circuit(name string) Type {
	return Type{Kind: Identifier, Name: name}
}

// Equals reports structural, width-sensitive equality.
func (t Type) Equals(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind == Identifier {
		return t.Name == other.Name
	}
	return true
}

func (t Type) String() string {
	if t.Kind == Identifier {
		return t.Name
	}
	return t.Kind.String()
}

// IsInvalid reports whether t is the zero Type, used to mark a
// not-yet-determined or erroneous type during checking.
func (t Type) IsInvalid() bool {
	return t.Kind == Invalid
}

var (
	BooleanType = Primitive(Boolean)
	FieldType   = Primitive(Field)
	GroupType   = Primitive(Group)
	ScalarType  = Primitive(Scalar)
	AddressType = Primitive(Address)
	StringType  = Primitive(String)
	I8Type      = Primitive(I8)
	I16Type     = Primitive(I16)
	I32Type     = Primitive(I32)
	I64Type     = Primitive(I64)
	I128Type    = Primitive(I128)
	U8Type      = Primitive(U8)
	U16Type     = Primitive(U16)
	U32Type     = Primitive(U32)
	U64Type     = Primitive(U64)
	U128Type    = Primitive(U128)
)

// ParseKeyword maps a type-name token's text to its Kind, or reports ok=false
// if text does not name a primitive type (the caller should then try
// resolving it as a circuit Identifier).
func ParseKeyword(text string) (Kind, bool) {
	switch text {
	case "bool":
		return Boolean, true
	case "field":
		return Field, true
	case "group":
		return Group, true
	case "scalar":
		return Scalar, true
	case "address":
		return Address, true
	case "string":
		return String, true
	case "i8":
		return I8, true
	case "i16":
		return I16, true
	case "i32":
		return I32, true
	case "i64":
		return I64, true
	case "i128":
		return I128, true
	case "u8":
		return U8, true
	case "u16":
		return U16, true
	case "u32":
		return U32, true
	case "u64":
		return U64, true
	case "u128":
		return U128, true
	default:
		return Invalid, false
	}
}

// MustParseKeyword is ParseKeyword for call sites that have already verified
// text names a primitive type; it panics otherwise, which is a programmer
// error, not a diagnosable compile error.
func MustParseKeyword(text string) Kind {
	k, ok := ParseKeyword(text)
	if !ok {
		panic(fmt.Sprintf("types: %q is not a primitive type keyword", text))
	}
	return k
}
