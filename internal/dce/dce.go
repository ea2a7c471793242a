// Package dce implements the dead-code elimination pass: the final stage
// of the pipeline, run once (not to a fixpoint) over the already-unrolled
// tree.
//
// It removes two shapes of dead code: statements that follow an
// unconditional return within the same block, and let-bindings whose name
// is never referenced again within the scope that introduced them.
// console statements are never removed — they are an observable side
// effect, not a value producer, so "unused" does not apply to them.
package dce

import (
	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/diagnostic"
	"github.com/vellum-lang/vellumc/internal/symboltable"
)

// Run eliminates dead code from prog in a single bottom-up sweep and
// returns the pruned tree alongside the unchanged symbol table.
func Run(prog *ast.Program, root *symboltable.Scope, h *diagnostic.Handler) (*ast.Program, *symboltable.Scope) {
	out := make([]ast.Decl, 0, len(prog.Declarations))
	for _, decl := range prog.Declarations {
		if fn, ok := decl.(*ast.FunctionDecl); ok {
			out = append(out, &ast.FunctionDecl{
				Name:       fn.Name,
				Parameters: fn.Parameters,
				ReturnType: fn.ReturnType,
				Body:       eliminateBlock(fn.Body),
				Span:       fn.Span,
			})
			continue
		}
		out = append(out, decl)
	}
	return &ast.Program{Declarations: out}, root
}

// eliminateBlock processes one block: first it prunes any statement that
// sits after an unconditional return (those statements can never execute,
// in this block or any after it), then it recurses into the survivors'
// nested blocks, then it drops let-bindings whose name nothing in the
// surviving statements references.
func eliminateBlock(block *ast.BlockStmt) *ast.BlockStmt {
	trimmed := make([]ast.Stmt, 0, len(block.Statements))
	for _, stmt := range block.Statements {
		trimmed = append(trimmed, stmt)
		if isUnconditionalReturn(stmt) {
			break
		}
	}

	for i, stmt := range trimmed {
		trimmed[i] = eliminateNested(stmt)
	}

	used := make(map[string]bool)
	for _, stmt := range trimmed {
		collectReferences(stmt, used)
	}

	out := make([]ast.Stmt, 0, len(trimmed))
	for _, stmt := range trimmed {
		if letStmt, ok := stmt.(*ast.LetStmt); ok && !used[letStmt.Name.Name] {
			continue
		}
		out = append(out, stmt)
	}

	return &ast.BlockStmt{Statements: out, Span: block.Span}
}

func isUnconditionalReturn(stmt ast.Stmt) bool {
	_, ok := stmt.(*ast.ReturnStmt)
	return ok
}

func eliminateNested(stmt ast.Stmt) ast.Stmt {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		return eliminateBlock(s)
	case *ast.ConditionalStmt:
		var els *ast.BlockStmt
		if s.Else != nil {
			els = eliminateBlock(s.Else)
		}
		return &ast.ConditionalStmt{Cond: s.Cond, Then: eliminateBlock(s.Then), Else: els, Span: s.Span}
	case *ast.ForRangeStmt:
		return &ast.ForRangeStmt{Var: s.Var, VarType: s.VarType, Start: s.Start, Stop: s.Stop, Body: eliminateBlock(s.Body), Span: s.Span}
	default:
		return stmt
	}
}

// collectReferences records every identifier name stmt's expressions read,
// so the caller can tell which let-bindings are unused. It does not record
// a LetStmt's own bound name (that would make every binding trivially
// "used" by its own declaration) or an AssignStmt's target name (an
// assignment is a write, not a read, and does not by itself justify
// keeping the binding).
func collectReferences(stmt ast.Stmt, used map[string]bool) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		collectExprReferences(s.Value, used)
	case *ast.AssignStmt:
		collectExprReferences(s.Value, used)
	case *ast.ConditionalStmt:
		collectExprReferences(s.Cond, used)
		for _, sub := range s.Then.Statements {
			collectReferences(sub, used)
		}
		if s.Else != nil {
			for _, sub := range s.Else.Statements {
				collectReferences(sub, used)
			}
		}
	case *ast.BlockStmt:
		for _, sub := range s.Statements {
			collectReferences(sub, used)
		}
	case *ast.ForRangeStmt:
		collectExprReferences(s.Start, used)
		collectExprReferences(s.Stop, used)
		for _, sub := range s.Body.Statements {
			collectReferences(sub, used)
		}
	case *ast.ReturnStmt:
		if s.Value != nil {
			collectExprReferences(s.Value, used)
		}
	case *ast.ConsoleStmt:
		for _, arg := range s.Args {
			collectExprReferences(arg, used)
		}
	}
}

func collectExprReferences(expr ast.Expr, used map[string]bool) {
	switch e := expr.(type) {
	case *ast.IdentExpr:
		used[e.Name.Name] = true
	case *ast.UnaryExpr:
		collectExprReferences(e.Operand, used)
	case *ast.BinaryExpr:
		collectExprReferences(e.LHS, used)
		collectExprReferences(e.RHS, used)
	case *ast.TernaryExpr:
		collectExprReferences(e.Cond, used)
		collectExprReferences(e.Then, used)
		collectExprReferences(e.Else, used)
	case *ast.CircuitAccessExpr:
		collectExprReferences(e.Receiver, used)
	case *ast.CircuitConstructExpr:
		for _, m := range e.Members {
			if m.Expression != nil {
				collectExprReferences(m.Expression, used)
			} else {
				used[m.Name.Name] = true
			}
		}
	case *ast.CallExpr:
		for _, a := range e.Args {
			collectExprReferences(a, used)
		}
	case *ast.TupleAccessExpr:
		collectExprReferences(e.Receiver, used)
	case *ast.CastExpr:
		collectExprReferences(e.Operand, used)
	}
}
