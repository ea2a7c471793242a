// Package fieldlit validates the textual form of field, group, and scalar
// literals at parse time.
//
// Field/group/scalar arithmetic is never folded by this compiler (see
// internal/flatten) — those values stay opaque strings all the way
// through to the back end. But a literal that is not even a
// well-formed element of its field is still a mistake worth catching
// early, so this package uses the curve library's own decoding as a
// validity oracle: if the library can parse the text into an element, the
// literal is well-formed; the resulting element itself is discarded.
package fieldlit

import (
	"encoding/hex"
	"strings"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Kind distinguishes which literal grammar to validate against.
type Kind uint8

const (
	FieldLit Kind = iota
	ScalarLit
	GroupLit
)

// ValidateLiteral reports whether text is a well-formed literal of kind
// k, stripping the conventional type suffix first (e.g. "3field",
// "7scalar"). It performs no arithmetic: the decoded element, if any, is
// immediately discarded.
func ValidateLiteral(k Kind, text string) bool {
	switch k {
	case FieldLit:
		return validDecimalElement(stripSuffix(text, "field"), func(s string) bool {
			var e fp.Element
			_, err := e.SetString(s)
			return err == nil
		})
	case ScalarLit:
		return validDecimalElement(stripSuffix(text, "scalar"), func(s string) bool {
			var e fr.Element
			_, err := e.SetString(s)
			return err == nil
		})
	case GroupLit:
		return validGroupElement(stripSuffix(text, "group"))
	default:
		return false
	}
}

func stripSuffix(text, suffix string) string {
	return strings.TrimSuffix(text, suffix)
}

func validDecimalElement(digits string, parse func(string) bool) bool {
	if digits == "" {
		return false
	}
	return parse(digits)
}

// validGroupElement accepts a hex-encoded compressed curve point — the
// only group-literal spelling this compiler recognizes — and asks the
// curve library to decode it, which fails for any byte string that is not
// a point on the curve.
func validGroupElement(hexText string) bool {
	hexText = strings.TrimPrefix(hexText, "0x")
	raw, err := hex.DecodeString(hexText)
	if err != nil {
		return false
	}
	var p bls12377.G1Affine
	_, err = p.SetBytes(raw)
	return err == nil
}
