package fieldlit

import "testing"

func TestValidDecimalFieldLiteral(t *testing.T) {
	if !ValidateLiteral(FieldLit, "12345field") {
		t.Errorf("expected a decimal field literal to validate")
	}
}

func TestValidDecimalScalarLiteral(t *testing.T) {
	if !ValidateLiteral(ScalarLit, "987scalar") {
		t.Errorf("expected a decimal scalar literal to validate")
	}
}

func TestMalformedFieldLiteralRejected(t *testing.T) {
	if ValidateLiteral(FieldLit, "not-a-numberfield") {
		t.Errorf("expected a non-numeric field literal to be rejected")
	}
}

func TestEmptyDigitsRejected(t *testing.T) {
	if ValidateLiteral(FieldLit, "field") {
		t.Errorf("expected an empty-digits field literal to be rejected")
	}
}

func TestMalformedGroupLiteralRejected(t *testing.T) {
	if ValidateLiteral(GroupLit, "0xzzgroup") {
		t.Errorf("expected non-hex group literal text to be rejected")
	}
}
