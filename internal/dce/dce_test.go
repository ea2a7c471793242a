package dce

import (
	"testing"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/diagnostic"
	"github.com/vellum-lang/vellumc/internal/symboltable"
	"github.com/vellum-lang/vellumc/internal/test"
	"github.com/vellum-lang/vellumc/internal/types"
)

func lit(text string) *ast.LiteralExpr {
	return &ast.LiteralExpr{Literal: ast.Literal{Type: types.U8Type, Text: text}}
}

func runDCE(t *testing.T, body *ast.BlockStmt) *ast.BlockStmt {
	t.Helper()
	fn := &ast.FunctionDecl{Name: ast.Identifier{Name: "main"}, ReturnType: types.U8Type, Body: body}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	out, _ := Run(prog, symboltable.NewRootScope(), diagnostic.NewHandler())
	return out.Declarations[0].(*ast.FunctionDecl).Body
}

func TestDropsStatementsAfterUnconditionalReturn(t *testing.T) {
	body := &ast.BlockStmt{Statements: []ast.Stmt{
		&ast.ReturnStmt{Value: lit("1")},
		&ast.LetStmt{Name: ast.Identifier{Name: "dead"}, Type: types.U8Type, Value: lit("2")},
	}}
	out := runDCE(t, body)
	test.AssertEqual(t, len(out.Statements), 1)
}

func TestDropsUnreferencedLetBinding(t *testing.T) {
	body := &ast.BlockStmt{Statements: []ast.Stmt{
		&ast.LetStmt{Name: ast.Identifier{Name: "unused"}, Type: types.U8Type, Value: lit("1")},
		&ast.ReturnStmt{Value: lit("2")},
	}}
	out := runDCE(t, body)
	test.AssertEqual(t, len(out.Statements), 1)
	if _, ok := out.Statements[0].(*ast.ReturnStmt); !ok {
		t.Fatalf("expected only the return to survive, got %T", out.Statements[0])
	}
}

func TestKeepsReferencedLetBinding(t *testing.T) {
	body := &ast.BlockStmt{Statements: []ast.Stmt{
		&ast.LetStmt{Name: ast.Identifier{Name: "x"}, Type: types.U8Type, Value: lit("1")},
		&ast.ReturnStmt{Value: &ast.IdentExpr{Name: ast.Identifier{Name: "x"}}},
	}}
	out := runDCE(t, body)
	test.AssertEqual(t, len(out.Statements), 2)
}

func TestNeverDropsConsoleStatements(t *testing.T) {
	body := &ast.BlockStmt{Statements: []ast.Stmt{
		&ast.ConsoleStmt{Kind: ast.ConsoleLog, Args: []ast.Expr{lit("1")}},
		&ast.ReturnStmt{Value: lit("2")},
	}}
	out := runDCE(t, body)
	test.AssertEqual(t, len(out.Statements), 2)
	if _, ok := out.Statements[0].(*ast.ConsoleStmt); !ok {
		t.Fatalf("expected console statement to survive, got %T", out.Statements[0])
	}
}

func TestNestedBlockDeadCodeIsAlsoPruned(t *testing.T) {
	body := &ast.BlockStmt{Statements: []ast.Stmt{
		&ast.ConditionalStmt{
			Cond: lit("1"),
			Then: &ast.BlockStmt{Statements: []ast.Stmt{
				&ast.LetStmt{Name: ast.Identifier{Name: "y"}, Type: types.U8Type, Value: lit("1")},
			}},
		},
		&ast.ReturnStmt{Value: lit("0")},
	}}
	out := runDCE(t, body)
	cond := out.Statements[0].(*ast.ConditionalStmt)
	test.AssertEqual(t, len(cond.Then.Statements), 0)
}
