package flatten

import (
	"testing"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/diagnostic"
	"github.com/vellum-lang/vellumc/internal/symboltable"
	"github.com/vellum-lang/vellumc/internal/test"
	"github.com/vellum-lang/vellumc/internal/types"
)

func litU8(text string) *ast.LiteralExpr {
	return &ast.LiteralExpr{Literal: ast.Literal{Type: types.U8Type, Text: text}}
}

func litI8(text string) *ast.LiteralExpr {
	return &ast.LiteralExpr{Literal: ast.Literal{Type: types.I8Type, Text: text}}
}

func mainReturning(stmts ...ast.Stmt) *ast.FunctionDecl {
	return &ast.FunctionDecl{
		Name:       ast.Identifier{Name: "main"},
		ReturnType: types.U8Type,
		Body:       &ast.BlockStmt{Statements: stmts},
	}
}

func runFlatten(t *testing.T, fn *ast.FunctionDecl) (*ast.FunctionDecl, *diagnostic.Handler) {
	t.Helper()
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	h := diagnostic.NewHandler()
	out, _ := Run(prog, symboltable.NewRootScope(), h)
	return out.Declarations[0].(*ast.FunctionDecl), h
}

// Scenario 1: literal folding of a simple checked addition.
func TestFoldsLiteralAddition(t *testing.T) {
	expr := &ast.BinaryExpr{Op: ast.OpAdd, LHS: litU8("2"), RHS: litU8("3")}
	fn, h := runFlatten(t, mainReturning(&ast.ReturnStmt{Value: expr}))

	test.AssertEqual(t, h.HadErrors(), false)
	ret := fn.Body.Statements[0].(*ast.ReturnStmt)
	lit, ok := ret.Value.(*ast.LiteralExpr)
	if !ok {
		t.Fatalf("expected folded literal, got %T", ret.Value)
	}
	test.AssertEqual(t, lit.Literal.Text, "5")
}

// Scenario 2: checked overflow leaves the expression residual and reports a
// diagnostic rather than panicking or silently wrapping.
func TestOverflowLeavesExpressionResidualAndReportsError(t *testing.T) {
	expr := &ast.BinaryExpr{Op: ast.OpAdd, LHS: litU8("255"), RHS: litU8("1")}
	fn, h := runFlatten(t, mainReturning(&ast.ReturnStmt{Value: expr}))

	test.AssertEqual(t, h.HadErrors(), true)
	ret := fn.Body.Statements[0].(*ast.ReturnStmt)
	if _, ok := ret.Value.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected residual binary expr, got %T", ret.Value)
	}

	found := false
	for _, d := range h.Errors() {
		if d.Code == diagnostic.CodeArithmeticOverflow {
			found = true
		}
	}
	test.AssertEqual(t, found, true)
}

// Scenario 4: abs(i8::MIN) overflows under checked semantics.
func TestAbsMinOverflows(t *testing.T) {
	expr := &ast.UnaryExpr{Op: ast.OpAbs, Operand: litI8("-128")}
	fn, h := runFlatten(t, mainReturning(&ast.ReturnStmt{Value: expr}))

	test.AssertEqual(t, h.HadErrors(), true)
	ret := fn.Body.Statements[0].(*ast.ReturnStmt)
	if _, ok := ret.Value.(*ast.UnaryExpr); !ok {
		t.Fatalf("expected residual unary expr, got %T", ret.Value)
	}
}

// The negate context flag lets -128i8 fold without an intermediate overflow
// on the positive magnitude 128.
func TestNegationOfMinimumLiteralDoesNotOverflow(t *testing.T) {
	expr := &ast.UnaryExpr{Op: ast.OpNeg, Operand: litI8("128")}
	fn, h := runFlatten(t, mainReturning(&ast.ReturnStmt{Value: expr}))

	test.AssertEqual(t, h.HadErrors(), false)
	ret := fn.Body.Statements[0].(*ast.ReturnStmt)
	lit, ok := ret.Value.(*ast.LiteralExpr)
	if !ok {
		t.Fatalf("expected folded literal, got %T", ret.Value)
	}
	test.AssertEqual(t, lit.Literal.Text, "-128")
}

// Scenario 6: an if/else over a constant condition collapses to the taken
// branch; the other branch is never walked (and its unreachable overflow
// never reported).
func TestConditionalFoldsToTakenBranch(t *testing.T) {
	cond := &ast.LiteralExpr{Literal: ast.Literal{Type: types.BooleanType, Text: "true"}}
	thenBlock := &ast.BlockStmt{Statements: []ast.Stmt{
		&ast.ReturnStmt{Value: litU8("1")},
	}}
	elseBlock := &ast.BlockStmt{Statements: []ast.Stmt{
		&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: ast.OpAdd, LHS: litU8("255"), RHS: litU8("1")}},
	}}
	stmt := &ast.ConditionalStmt{Cond: cond, Then: thenBlock, Else: elseBlock}

	fn, h := runFlatten(t, mainReturning(stmt))
	test.AssertEqual(t, h.HadErrors(), false)

	folded, ok := fn.Body.Statements[0].(*ast.BlockStmt)
	if !ok {
		t.Fatalf("expected collapsed block, got %T", fn.Body.Statements[0])
	}
	ret := folded.Statements[0].(*ast.ReturnStmt)
	lit := ret.Value.(*ast.LiteralExpr)
	test.AssertEqual(t, lit.Literal.Text, "1")
}

// A non-const condition leaves the conditional in place and schedules
// deconstification for any binding assigned under either branch.
func TestAssignmentUnderNonConstConditionDeconstifies(t *testing.T) {
	letStmt := &ast.LetStmt{Name: ast.Identifier{Name: "x"}, Type: types.U8Type, Value: litU8("1")}
	cond := &ast.IdentExpr{Name: ast.Identifier{Name: "flag"}}
	assign := &ast.AssignStmt{Name: ast.Identifier{Name: "x"}, Value: litU8("2")}
	stmt := &ast.ConditionalStmt{
		Cond: cond,
		Then: &ast.BlockStmt{Statements: []ast.Stmt{assign}},
	}

	fn := mainReturning(letStmt, stmt, &ast.ReturnStmt{Value: &ast.IdentExpr{Name: ast.Identifier{Name: "x"}}})
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	h := diagnostic.NewHandler()
	root := symboltable.NewRootScope()
	out, _ := Run(prog, root, h)

	test.AssertEqual(t, h.HadErrors(), false)
	body := out.Declarations[0].(*ast.FunctionDecl).Body
	if _, ok := body.Statements[1].(*ast.ConditionalStmt); !ok {
		t.Fatalf("expected the conditional to stay in place, got %T", body.Statements[1])
	}
	ret := body.Statements[2].(*ast.ReturnStmt)
	if _, ok := ret.Value.(*ast.IdentExpr); !ok {
		t.Fatalf("expected x to be deconstified and left as an identifier, got %T", ret.Value)
	}
}

// Identifiers bound to a known const value are substituted with their
// literal value.
func TestIdentifierSubstitutesKnownConstant(t *testing.T) {
	letStmt := &ast.LetStmt{Name: ast.Identifier{Name: "x"}, Type: types.U8Type, Value: litU8("7")}
	ret := &ast.ReturnStmt{Value: &ast.IdentExpr{Name: ast.Identifier{Name: "x"}}}
	fn, h := runFlatten(t, mainReturning(letStmt, ret))

	test.AssertEqual(t, h.HadErrors(), false)
	retStmt := fn.Body.Statements[1].(*ast.ReturnStmt)
	lit, ok := retStmt.Value.(*ast.LiteralExpr)
	if !ok {
		t.Fatalf("expected substituted literal, got %T", retStmt.Value)
	}
	test.AssertEqual(t, lit.Literal.Text, "7")
}
