package unroll

import (
	"testing"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/diagnostic"
	"github.com/vellum-lang/vellumc/internal/symboltable"
	"github.com/vellum-lang/vellumc/internal/test"
	"github.com/vellum-lang/vellumc/internal/types"
)

func u32lit(text string) *ast.LiteralExpr {
	return &ast.LiteralExpr{Literal: ast.Literal{Type: types.U32Type, Text: text}}
}

func runUnroll(t *testing.T, body *ast.BlockStmt) (*ast.BlockStmt, *diagnostic.Handler) {
	t.Helper()
	fn := &ast.FunctionDecl{Name: ast.Identifier{Name: "main"}, ReturnType: types.U8Type, Body: body}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	h := diagnostic.NewHandler()
	out, _ := Run(prog, symboltable.NewRootScope(), h)
	return out.Declarations[0].(*ast.FunctionDecl).Body, h
}

func TestUnrollsFixedRangeIntoOneBlockPerIteration(t *testing.T) {
	loop := &ast.ForRangeStmt{
		Var:     ast.Identifier{Name: "i"},
		VarType: types.U32Type,
		Start:   u32lit("0"),
		Stop:    u32lit("3"),
		Body: &ast.BlockStmt{Statements: []ast.Stmt{
			&ast.ConsoleStmt{Kind: ast.ConsoleLog, Args: []ast.Expr{&ast.IdentExpr{Name: ast.Identifier{Name: "i"}}}},
		}},
	}
	body, h := runUnroll(t, &ast.BlockStmt{Statements: []ast.Stmt{loop}})

	test.AssertEqual(t, h.HadErrors(), false)
	test.AssertEqual(t, len(body.Statements), 3)

	for idx, stmt := range body.Statements {
		blk, ok := stmt.(*ast.BlockStmt)
		if !ok {
			t.Fatalf("iteration %d: expected *ast.BlockStmt, got %T", idx, stmt)
		}
		letStmt, ok := blk.Statements[0].(*ast.LetStmt)
		if !ok {
			t.Fatalf("iteration %d: expected induction LetStmt, got %T", idx, blk.Statements[0])
		}
		lit := letStmt.Value.(*ast.LiteralExpr)
		wantText := []string{"0", "1", "2"}[idx]
		test.AssertEqual(t, lit.Literal.Text, wantText)

		console, ok := blk.Statements[1].(*ast.ConsoleStmt)
		if !ok {
			t.Fatalf("iteration %d: expected *ast.ConsoleStmt, got %T", idx, blk.Statements[1])
		}
		argLit, ok := console.Args[0].(*ast.LiteralExpr)
		if !ok {
			t.Fatalf("iteration %d: expected console arg substituted with the induction literal, got %T", idx, console.Args[0])
		}
		test.AssertEqual(t, argLit.Literal.Text, wantText)
	}
}

func TestNestedLoopBoundReferencingOuterInductionVarIsSubstituted(t *testing.T) {
	inner := &ast.ForRangeStmt{
		Var:     ast.Identifier{Name: "j"},
		VarType: types.U32Type,
		Start:   u32lit("0"),
		Stop:    &ast.IdentExpr{Name: ast.Identifier{Name: "i"}},
		Body: &ast.BlockStmt{Statements: []ast.Stmt{
			&ast.ConsoleStmt{Kind: ast.ConsoleLog, Args: []ast.Expr{&ast.IdentExpr{Name: ast.Identifier{Name: "j"}}}},
		}},
	}
	outer := &ast.ForRangeStmt{
		Var:     ast.Identifier{Name: "i"},
		VarType: types.U32Type,
		Start:   u32lit("0"),
		Stop:    u32lit("3"),
		Body:    &ast.BlockStmt{Statements: []ast.Stmt{inner}},
	}
	body, h := runUnroll(t, &ast.BlockStmt{Statements: []ast.Stmt{outer}})

	test.AssertEqual(t, h.HadErrors(), false)
	test.AssertEqual(t, len(body.Statements), 3)

	lastIter := body.Statements[2].(*ast.BlockStmt)
	// i == 2 on the last outer iteration, so the inner loop (0..2) unrolls to
	// two iterations, each a nested *ast.BlockStmt after the outer induction
	// LetStmt.
	innerBlocks := lastIter.Statements[1:]
	test.AssertEqual(t, len(innerBlocks), 2)
}

func TestEmptyRangeUnrollsToNothing(t *testing.T) {
	loop := &ast.ForRangeStmt{
		Var:     ast.Identifier{Name: "i"},
		VarType: types.U32Type,
		Start:   u32lit("5"),
		Stop:    u32lit("5"),
		Body:    &ast.BlockStmt{},
	}
	body, h := runUnroll(t, &ast.BlockStmt{Statements: []ast.Stmt{loop}})

	test.AssertEqual(t, h.HadErrors(), false)
	test.AssertEqual(t, len(body.Statements), 0)
}

func TestNonConstBoundIsReportedAsError(t *testing.T) {
	loop := &ast.ForRangeStmt{
		Var:     ast.Identifier{Name: "i"},
		VarType: types.U32Type,
		Start:   u32lit("0"),
		Stop:    &ast.IdentExpr{Name: ast.Identifier{Name: "n"}},
		Body:    &ast.BlockStmt{},
	}
	_, h := runUnroll(t, &ast.BlockStmt{Statements: []ast.Stmt{loop}})

	test.AssertEqual(t, h.HadErrors(), true)
	found := false
	for _, d := range h.Errors() {
		if d.Code == diagnostic.CodeLoopHasNonConstBound {
			found = true
		}
	}
	test.AssertEqual(t, found, true)
}

func TestNegativeBoundIsReportedAsError(t *testing.T) {
	loop := &ast.ForRangeStmt{
		Var:     ast.Identifier{Name: "i"},
		VarType: types.I32Type,
		Start:   &ast.LiteralExpr{Literal: ast.Literal{Type: types.I32Type, Text: "-1"}},
		Stop:    &ast.LiteralExpr{Literal: ast.Literal{Type: types.I32Type, Text: "3"}},
		Body:    &ast.BlockStmt{},
	}
	_, h := runUnroll(t, &ast.BlockStmt{Statements: []ast.Stmt{loop}})

	test.AssertEqual(t, h.HadErrors(), true)
	found := false
	for _, d := range h.Errors() {
		if d.Code == diagnostic.CodeLoopHasNegativeBound {
			found = true
		}
	}
	test.AssertEqual(t, found, true)
}

func TestLoopTooLargeIsReportedAsError(t *testing.T) {
	loop := &ast.ForRangeStmt{
		Var:     ast.Identifier{Name: "i"},
		VarType: types.U32Type,
		Start:   u32lit("0"),
		Stop:    &ast.LiteralExpr{Literal: ast.Literal{Type: types.U32Type, Text: "5000000"}},
		Body:    &ast.BlockStmt{},
	}
	_, h := runUnroll(t, &ast.BlockStmt{Statements: []ast.Stmt{loop}})

	test.AssertEqual(t, h.HadErrors(), true)
	found := false
	for _, d := range h.Errors() {
		if d.Code == diagnostic.CodeLoopTooLarge {
			found = true
		}
	}
	test.AssertEqual(t, found, true)
}
