package lexer

import (
	"testing"

	"github.com/vellum-lang/vellumc/internal/diagnostic"
)

func lex(t *testing.T, source string) ([]Token, *diagnostic.Handler) {
	t.Helper()
	h := diagnostic.NewHandler()
	toks := Lex(source, h)
	return toks, h
}

func texts(toks []Token) []string {
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		if tok.Kind == TokEOF {
			continue
		}
		out = append(out, tok.Text)
	}
	return out
}

func TestLexesBasicTokens(t *testing.T) {
	toks, h := lex(t, "let x: u8 = 1u8;")
	if h.HadErrors() {
		t.Fatalf("unexpected errors: %v", h.Diagnostics())
	}
	got := texts(toks)
	want := []string{"let", "x", ":", "u8", "=", "1u8", ";"}
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLexesWrappedOperatorSpellings(t *testing.T) {
	for _, op := range []string{"+w", "-w", "*w", "/w", "**w", "<<w", ">>w"} {
		toks, h := lex(t, "1u8 "+op+" 2u8")
		if h.HadErrors() {
			t.Fatalf("op %s: unexpected errors: %v", op, h.Diagnostics())
		}
		got := texts(toks)
		if len(got) != 3 || got[1] != op {
			t.Errorf("op %s: got tokens %v, want middle token %q", op, got, op)
		}
	}
}

func TestAbsAndAbsWrappedAreKeywords(t *testing.T) {
	toks, h := lex(t, "abs absw x")
	if h.HadErrors() {
		t.Fatalf("unexpected errors: %v", h.Diagnostics())
	}
	if toks[0].Kind != TokKeyword || toks[0].Text != "abs" {
		t.Errorf("expected abs to lex as a keyword, got %+v", toks[0])
	}
	if toks[1].Kind != TokKeyword || toks[1].Text != "absw" {
		t.Errorf("expected absw to lex as a keyword, got %+v", toks[1])
	}
}

func TestOwnerLexesAsPlainIdentifier(t *testing.T) {
	toks, h := lex(t, "owner: address")
	if h.HadErrors() {
		t.Fatalf("unexpected errors: %v", h.Diagnostics())
	}
	if toks[0].Kind != TokIdent || toks[0].Text != "owner" {
		t.Errorf("expected owner to lex as an identifier, got %+v", toks[0])
	}
}

func TestValidFieldLiteralDoesNotError(t *testing.T) {
	_, h := lex(t, "1234field")
	if h.HadErrors() {
		t.Errorf("expected a well-formed field literal to lex cleanly, got %v", h.Diagnostics())
	}
}

func TestMalformedFieldLiteralReportsDiagnostic(t *testing.T) {
	_, h := lex(t, "12abcfield")
	if !h.HadErrors() {
		t.Errorf("expected a malformed-literal diagnostic for 12abcfield")
	}
}

func TestBareFieldKeywordIsNotAMalformedLiteral(t *testing.T) {
	toks, h := lex(t, "field")
	if toks[0].Kind != TokKeyword {
		t.Fatalf("expected bare `field` to lex as the type keyword, got %+v", toks[0])
	}
	if h.HadErrors() {
		t.Errorf("bare keyword `field` should not be treated as a malformed literal: %v", h.Diagnostics())
	}
}

func TestWrappedOperatorDoesNotSwallowFollowingWidthSuffix(t *testing.T) {
	toks, h := lex(t, "a +w 1u8")
	if h.HadErrors() {
		t.Fatalf("unexpected errors: %v", h.Diagnostics())
	}
	got := texts(toks)
	want := []string{"a", "+w", "1u8"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestUnexpectedCharacterReportsDiagnostic(t *testing.T) {
	_, h := lex(t, "let x = 1 $ 2;")
	if !h.HadErrors() {
		t.Errorf("expected an unexpected-character diagnostic for `$`")
	}
}

func TestSkipsLineComments(t *testing.T) {
	toks, h := lex(t, "let x = 1u8; // trailing comment\nlet y = 2u8;")
	if h.HadErrors() {
		t.Fatalf("unexpected errors: %v", h.Diagnostics())
	}
	got := texts(toks)
	for _, tok := range got {
		if tok == "//" {
			t.Fatalf("comment text leaked into token stream: %v", got)
		}
	}
}
