package diagnostic

import (
	"strings"
	"testing"

	"github.com/vellum-lang/vellumc/internal/span"
	"github.com/vellum-lang/vellumc/internal/test"
)

func TestHandlerAccumulatesErrors(t *testing.T) {
	h := NewHandler()
	test.AssertEqual(t, h.HadErrors(), false)

	h.EmitErr(Flatten, CodeArithmeticOverflow, span.Span{Start: 10, End: 15}, "arithmetic overflow in +", map[string]string{
		"op":          "+",
		"lhs":         "200",
		"rhs":         "100",
		"result_type": "u8",
	})

	test.AssertEqual(t, h.HadErrors(), true)
	test.AssertEqual(t, h.Count(), 1)
	test.AssertEqual(t, len(h.Errors()), 1)
}

func TestHandlerWarningsDoNotSetHadErrors(t *testing.T) {
	h := NewHandler()
	h.EmitWarning(TypeCheck, CodeUnknownIdentifier, span.Span{}, "unused binding", nil)
	test.AssertEqual(t, h.HadErrors(), false)
	test.AssertEqual(t, h.Count(), 1)
	test.AssertEqual(t, len(h.Errors()), 0)
}

func TestFormatIncludesCaret(t *testing.T) {
	h := NewHandler()
	src := "let x: u8 = 200 + 100;"
	h.EmitErr(Flatten, CodeArithmeticOverflow, span.Span{Start: 12, End: 15}, "arithmetic overflow", nil)

	out := h.Format(src)
	if !strings.Contains(out, "arithmetic overflow") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Fatalf("expected caret in output, got %q", out)
	}
}
