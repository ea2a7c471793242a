package api

import (
	"testing"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/test"
)

const validSource = `
function main() -> u8 {
	let x: u8 = 1u8 + 2u8;
	return x;
}
`

func TestCompileReturnsNoDiagnosticsForValidSource(t *testing.T) {
	prog, diags := Compile(validSource, Options{})
	test.AssertEqual(t, diags.HadErrors(), false)
	if prog == nil {
		t.Fatalf("expected a program, got nil")
	}
	if prog.MainFunction() == nil {
		t.Fatalf("expected a main function in the result")
	}
}

func TestCompileReportsDiagnosticsForMalformedSource(t *testing.T) {
	_, diags := Compile(`function main( -> u8 { return 0u8; }`, Options{})
	test.AssertEqual(t, diags.HadErrors(), true)
}

func TestCompileCapturesRequestedSnapshots(t *testing.T) {
	opts := Options{
		InitialInputAST:   &ast.Program{},
		ConstantFoldedAST: &ast.Program{},
	}
	_, diags := Compile(validSource, opts)
	test.AssertEqual(t, diags.HadErrors(), false)
	if opts.InitialInputAST.MainFunction() == nil {
		t.Fatalf("expected the initial-input snapshot to capture the parsed main function")
	}
	if opts.ConstantFoldedAST.MainFunction() == nil {
		t.Fatalf("expected the constant-folded snapshot to capture a main function")
	}
}
