// Package diagnostic accumulates compile errors and warnings across the pass
// pipeline and renders them against source text for human consumption.
//
// Diagnostics are never used to abort a pass early: a pass records as many
// problems as it can find, continues operating on the sub-trees it can still
// make sense of, and lets the pipeline decide whether to stop before the
// next pass (see Handler.HadErrors).
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/vellum-lang/vellumc/internal/span"
)

// Severity distinguishes a blocking problem from an advisory one.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Category is the five-member error-kind taxonomy.
type Category uint8

const (
	Parse Category = iota
	SymbolTable
	TypeCheck
	Flatten
	Internal
)

func (c Category) String() string {
	switch c {
	case Parse:
		return "parse"
	case SymbolTable:
		return "symbol-table"
	case TypeCheck:
		return "type-check"
	case Flatten:
		return "flatten"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Code names a specific error kind within a Category. These are the taxonomy
// members named in the error-handling design: one per distinguishable
// failure an operator or pass can report.
type Code string

const (
	// Parse
	CodeUnexpectedToken   Code = "unexpected-token"
	CodeUnclosedDelimiter Code = "unclosed-delimiter"
	CodeMalformedLiteral  Code = "malformed-literal"

	// SymbolTable
	CodeDuplicateVariable Code = "duplicate-variable"
	CodeShadowingViolation Code = "shadowing-violation"

	// TypeCheck
	CodeTypeMismatch            Code = "type-mismatch"
	CodeUnknownIdentifier       Code = "unknown-identifier"
	CodeUnknownCircuitMember    Code = "unknown-circuit-member"
	CodeNonBooleanCondition     Code = "non-boolean-condition"
	CodeReturnMissing           Code = "return-missing"
	CodeDuplicateCircuitMember  Code = "duplicate-circuit-member"
	CodeDuplicateRecordVariable Code = "duplicate-record-variable"
	CodeRequiredRecordVariable  Code = "required-record-variable"
	CodeRecordVarWrongType      Code = "record-var-wrong-type"
	CodeCallArityMismatch       Code = "call-arity-mismatch"
	CodeCallTypeMismatch        Code = "call-type-mismatch"

	// Flatten
	CodeArithmeticOverflow   Code = "arithmetic-overflow"
	CodeDivisionByZero       Code = "division-by-zero"
	CodeLoopHasNonConstBound Code = "loop-has-non-const-bound"
	CodeLoopHasNegativeBound Code = "loop-has-negative-bound"
	CodeLoopTooLarge         Code = "loop-too-large"

	// Internal
	CodeUnreachable Code = "unreachable"
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity Severity
	Category Category
	Code     Code
	Message  string
	Span     span.Span
	// Fields carries structured detail (operator, operand values, types)
	// alongside Message, the way ArithmeticOverflow{op, lhs, rhs?,
	// result_type, span} is described: a free-form key/value map rather
	// than one struct type per code, since Go has no tagged-union error
	// type to mirror the source enum with.
	Fields map[string]string
}

func (d Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]: %s", d.Severity, d.Code, d.Message)
	return b.String()
}

// List is an ordered set of diagnostics, the shape pkg/api exposes to
// callers that only want the result, not the accumulating Handler.
type List []Diagnostic

// HadErrors reports whether l contains any error-severity diagnostic.
func (l List) HadErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Handler accumulates diagnostics emitted across the pipeline. It is the
// single channel through which every pass reports problems; it is
// deliberately not used for the pipeline's own progress logging, which goes
// through logrus instead (see Pipeline's use of logrus.Entry).
type Handler struct {
	diagnostics []Diagnostic
	hasErrors   bool
}

// NewHandler returns an empty Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// EmitErr records an error-severity diagnostic.
func (h *Handler) EmitErr(category Category, code Code, sp span.Span, message string, fields map[string]string) {
	h.diagnostics = append(h.diagnostics, Diagnostic{
		Severity: SeverityError,
		Category: category,
		Code:     code,
		Message:  message,
		Span:     sp,
		Fields:   fields,
	})
	h.hasErrors = true
}

// EmitWarning records a warning-severity diagnostic.
func (h *Handler) EmitWarning(category Category, code Code, sp span.Span, message string, fields map[string]string) {
	h.diagnostics = append(h.diagnostics, Diagnostic{
		Severity: SeverityWarning,
		Category: category,
		Code:     code,
		Message:  message,
		Span:     sp,
		Fields:   fields,
	})
}

// HadErrors reports whether any error-severity diagnostic was emitted.
func (h *Handler) HadErrors() bool {
	return h.hasErrors
}

// Diagnostics returns every diagnostic recorded so far, in emission order.
func (h *Handler) Diagnostics() []Diagnostic {
	return h.diagnostics
}

// Errors returns only the error-severity diagnostics.
func (h *Handler) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range h.diagnostics {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the total number of recorded diagnostics.
func (h *Handler) Count() int {
	return len(h.diagnostics)
}

// Format renders every diagnostic against source with a caret pointing at
// the offending span's start column.
func (h *Handler) Format(source string) string {
	idx := span.NewLineIndex(source)
	var b strings.Builder
	for _, d := range h.diagnostics {
		line, col := idx.ByteOffsetToLineColumn(d.Span.Start)
		fmt.Fprintf(&b, "%s: %s (%s)\n", d.Severity, d.Message, d.Code)
		fmt.Fprintf(&b, "  --> line %d, column %d\n", line+1, col+1)
		if text := sourceLine(source, idx, line); text != "" {
			fmt.Fprintf(&b, "  | %s\n", text)
			fmt.Fprintf(&b, "  | %s^\n", strings.Repeat(" ", col))
		}
	}
	return b.String()
}

func sourceLine(source string, idx *span.LineIndex, line int) string {
	start := idx.LineColumnToByteOffset(line, 0)
	end := len(source)
	if line+1 < idx.LineCount() {
		end = idx.LineColumnToByteOffset(line+1, 0)
	}
	if end > start && end <= len(source) && source[end-1] == '\n' {
		end--
	}
	if start >= len(source) {
		return ""
	}
	if end > len(source) {
		end = len(source)
	}
	return source[start:end]
}
