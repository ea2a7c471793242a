// Package lexer tokenizes circuit-language source text into the token
// stream the parser consumes. It is hand-written (no lexer generator),
// in the style of a simple longest-match scanner over the source string,
// tracked by byte offset.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vellum-lang/vellumc/internal/diagnostic"
	"github.com/vellum-lang/vellumc/internal/fieldlit"
	"github.com/vellum-lang/vellumc/internal/span"
)

// TokenKind classifies one lexeme.
type TokenKind uint8

const (
	TokEOF TokenKind = iota
	TokIdent
	TokKeyword
	TokIntLiteral
	TokStringLiteral
	TokAddressLiteral
	TokBoolLiteral
	TokPunct
)

// Token is one scanned lexeme: its kind, verbatim text, and source span.
type Token struct {
	Kind TokenKind
	Text string
	Span span.Span
}

var keywords = map[string]bool{
	"function": true, "circuit": true, "record": true, "let": true, "mut": true,
	"const": true, "if": true, "else": true, "for": true, "in": true, "return": true,
	"true": true, "false": true, "console": true, "assert": true, "log": true,
	"public": true, "private": true, "as": true, "abs": true, "absw": true,
	"bool": true, "field": true, "group": true, "scalar": true, "address": true, "string": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true,
}

// punctuation, ordered so every operator comes before any shorter operator
// that is its prefix, so the scanner's first match never stops one
// character short of a multi-character operator.
// punctuation also carries the "w"-suffixed spelling of every wrapping
// arithmetic operator (+w, -w, *w, /w, **w, <<w, >>w) alongside its checked
// counterpart — the two forms share precedence and associativity and
// differ only in which value.Value operation the flattener dispatches to.
var punctuation = []string{
	"..", "->", "=>",
	"**w", "<<w", ">>w", "+w", "-w", "*w", "/w",
	"==", "!=", "<=", ">=", "&&", "||", "<<", ">>", "**",
	"+", "-", "*", "/", "%", "=", "<", ">", "!", "&", "|", "^", "~",
	"(", ")", "{", "}", "[", "]", ",", ";", ":", ".", "?", "@",
}

type lexer struct {
	src     string
	pos     int
	handler *diagnostic.Handler
}

// Lex tokenizes source in full, reporting malformed-literal and
// unexpected-character diagnostics along the way, and returns every token
// it managed to produce (callers should still check handler.HadErrors()
// before trusting the stream).
func Lex(source string, h *diagnostic.Handler) []Token {
	l := &lexer{src: source, handler: h}
	var out []Token
	for {
		tok, ok := l.next()
		if !ok {
			break
		}
		out = append(out, tok)
		if tok.Kind == TokEOF {
			break
		}
	}
	return out
}

func (l *lexer) next() (Token, bool) {
	l.skipTrivia()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Span: span.Span{Start: start, End: start}}, true
	}

	r, size := utf8.DecodeRuneInString(l.src[l.pos:])

	switch {
	case r == '"':
		return l.scanString()
	case unicode.IsDigit(r):
		return l.scanNumber()
	case r == '_' || unicode.IsLetter(r):
		return l.scanIdentOrKeyword()
	default:
		_ = size
		return l.scanPunct()
	}
}

func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		switch {
		case unicode.IsSpace(r):
			l.pos += size
		case r == '/' && strings.HasPrefix(l.src[l.pos:], "//"):
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) scanString() (Token, bool) {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
			l.pos++
		}
		l.pos++
	}
	if l.pos >= len(l.src) {
		l.handler.EmitErr(diagnostic.Parse, diagnostic.CodeUnclosedDelimiter,
			span.Span{Start: start, End: l.pos}, "unterminated string literal", nil)
		return Token{Kind: TokStringLiteral, Text: l.src[start:l.pos], Span: span.Span{Start: start, End: l.pos}}, true
	}
	l.pos++ // closing quote
	return Token{Kind: TokStringLiteral, Text: l.src[start:l.pos], Span: span.Span{Start: start, End: l.pos}}, true
}

func (l *lexer) scanNumber() (Token, bool) {
	start := l.pos
	for l.pos < len(l.src) && (isDigitByte(l.src[l.pos]) || l.src[l.pos] == '_') {
		l.pos++
	}
	// Trailing width suffix, e.g. 42u8, 7i128 — kept as part of the token
	// text; the parser resolves it against the expected type.
	for l.pos < len(l.src) && (isIdentByte(l.src[l.pos])) {
		l.pos++
	}
	text := l.src[start:l.pos]
	sp := span.Span{Start: start, End: l.pos}

	if kind, ok := fieldLiteralKind(text); ok && !fieldlit.ValidateLiteral(kind, text) {
		l.handler.EmitErr(diagnostic.Parse, diagnostic.CodeMalformedLiteral, sp,
			"malformed "+text[len(text)-len(suffixOf(text)):]+" literal "+text, nil)
	}

	return Token{Kind: TokIntLiteral, Text: text, Span: sp}, true
}

// fieldLiteralKind reports whether text ends in a field/group/scalar type
// suffix, and if so which fieldlit.Kind validates it.
func fieldLiteralKind(text string) (fieldlit.Kind, bool) {
	switch {
	case strings.HasSuffix(text, "field"):
		return fieldlit.FieldLit, true
	case strings.HasSuffix(text, "scalar"):
		return fieldlit.ScalarLit, true
	case strings.HasSuffix(text, "group"):
		return fieldlit.GroupLit, true
	default:
		return 0, false
	}
}

func suffixOf(text string) string {
	for _, suffix := range []string{"field", "scalar", "group"} {
		if strings.HasSuffix(text, suffix) {
			return suffix
		}
	}
	return ""
}

func (l *lexer) scanIdentOrKeyword() (Token, bool) {
	start := l.pos
	for l.pos < len(l.src) && isIdentByte(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	sp := span.Span{Start: start, End: l.pos}
	if text == "true" || text == "false" {
		return Token{Kind: TokBoolLiteral, Text: text, Span: sp}, true
	}
	if keywords[text] {
		return Token{Kind: TokKeyword, Text: text, Span: sp}, true
	}
	return Token{Kind: TokIdent, Text: text, Span: sp}, true
}

func (l *lexer) scanPunct() (Token, bool) {
	start := l.pos
	for _, p := range punctuation {
		if strings.HasPrefix(l.src[l.pos:], p) {
			l.pos += len(p)
			return Token{Kind: TokPunct, Text: p, Span: span.Span{Start: start, End: l.pos}}, true
		}
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	l.handler.EmitErr(diagnostic.Parse, diagnostic.CodeUnexpectedToken,
		span.Span{Start: start, End: l.pos}, "unexpected character "+string(r), nil)
	return Token{Kind: TokPunct, Text: string(r), Span: span.Span{Start: start, End: l.pos}}, true
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || isDigitByte(b)
}
