// Package unroll implements the loop-unrolling pass: every for-range
// statement whose bounds folded to known constants is replaced by one copy
// of its body per iteration, each under a fresh child scope binding the
// induction variable to that iteration's literal value.
//
// This pass runs strictly after flatten, so a residual (non-const) bound
// is reported here, not re-attempted — the pipeline is linear and passes
// never reach back into an earlier stage's work (SPEC_FULL.md §9).
package unroll

import (
	"math/big"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/diagnostic"
	"github.com/vellum-lang/vellumc/internal/symboltable"
	"github.com/vellum-lang/vellumc/internal/value"
)

// MaxIterations caps a single loop's unrolled iteration count. Circuits are
// unrolled at compile time with no runtime control flow, so an
// unbounded (or merely very large) loop would otherwise produce an
// unboundedly large constraint system; 2^20 iterations is comfortably
// above any legitimate fixed-size circuit loop and well short of what
// would exhaust the process.
const MaxIterations = 1 << 20

type unroller struct {
	handler *diagnostic.Handler
}

// Run replaces every for-range statement reachable from prog with its
// unrolled iterations, outside-in (an outer loop's body is expanded once
// per outer iteration, and each of those copies is itself walked for
// nested loops), and returns the rewritten tree.
func Run(prog *ast.Program, root *symboltable.Scope, h *diagnostic.Handler) (*ast.Program, *symboltable.Scope) {
	u := &unroller{handler: h}

	out := make([]ast.Decl, 0, len(prog.Declarations))
	for _, decl := range prog.Declarations {
		if fn, ok := decl.(*ast.FunctionDecl); ok {
			out = append(out, u.unrollFunction(fn, root))
			continue
		}
		out = append(out, decl)
	}

	return &ast.Program{Declarations: out}, root
}

func (u *unroller) unrollFunction(fn *ast.FunctionDecl, parent *symboltable.Scope) *ast.FunctionDecl {
	fnScope, ok := parent.GetFnScope(fn.Name.Name)
	if !ok {
		fnScope = parent.PushBlockScope()
	}
	return &ast.FunctionDecl{
		Name:       fn.Name,
		Parameters: fn.Parameters,
		ReturnType: fn.ReturnType,
		Body:       u.unrollBlock(fn.Body, fnScope),
		Span:       fn.Span,
	}
}

func (u *unroller) unrollBlock(block *ast.BlockStmt, scope *symboltable.Scope) *ast.BlockStmt {
	inner := scope.PushBlockScope()
	out := make([]ast.Stmt, 0, len(block.Statements))
	for _, stmt := range block.Statements {
		out = append(out, u.unrollStmts(stmt, inner)...)
	}
	return &ast.BlockStmt{Statements: out, Span: block.Span}
}

// unrollStmts returns the zero-or-more statements stmt expands to: a
// for-range statement expands to one BlockStmt per iteration (spliced
// inline); every other statement kind passes through as a single element,
// recursing into any nested blocks it carries.
func (u *unroller) unrollStmts(stmt ast.Stmt, scope *symboltable.Scope) []ast.Stmt {
	switch s := stmt.(type) {
	case *ast.ForRangeStmt:
		return u.unrollForRange(s, scope)

	case *ast.ConditionalStmt:
		then := u.unrollBlock(s.Then, scope)
		var els *ast.BlockStmt
		if s.Else != nil {
			els = u.unrollBlock(s.Else, scope)
		}
		return []ast.Stmt{&ast.ConditionalStmt{Cond: s.Cond, Then: then, Else: els, Span: s.Span}}

	case *ast.BlockStmt:
		return []ast.Stmt{u.unrollBlock(s, scope)}

	default:
		return []ast.Stmt{stmt}
	}
}

func (u *unroller) unrollForRange(s *ast.ForRangeStmt, scope *symboltable.Scope) []ast.Stmt {
	startVal, startOK := literalValue(s.Start)
	stopVal, stopOK := literalValue(s.Stop)
	if !startOK || !stopOK {
		u.handler.EmitErr(diagnostic.Flatten, diagnostic.CodeLoopHasNonConstBound, s.Span,
			"for-loop bounds must be constant expressions", nil)
		return []ast.Stmt{s.Body}
	}

	start, startRangeOK := value.ToU128(startVal)
	stop, stopRangeOK := value.ToU128(stopVal)
	if !startRangeOK || !stopRangeOK {
		u.handler.EmitErr(diagnostic.Flatten, diagnostic.CodeLoopHasNegativeBound, s.Span,
			"for-loop bounds must not be negative", nil)
		return []ast.Stmt{s.Body}
	}

	if start.Cmp(stop) >= 0 {
		return nil
	}

	count := new(big.Int).Sub(stop, start)
	if count.Cmp(big.NewInt(MaxIterations)) > 0 {
		u.handler.EmitErr(diagnostic.Flatten, diagnostic.CodeLoopTooLarge, s.Span,
			"for-loop would unroll to more than the permitted iteration count", nil)
		return nil
	}

	n := count.Int64()
	out := make([]ast.Stmt, 0, n)
	i := new(big.Int).Set(start)
	one := big.NewInt(1)

	for idx := int64(0); idx < n; idx++ {
		iterScope := scope.PushBlockScope()
		induction := value.FromU128(s.VarType.Kind, i)
		_ = iterScope.InsertVariable(s.Var.Name, symboltable.VariableSymbol{
			Type:         s.VarType,
			VariableType: symboltable.Const,
		}.WithValue(induction))

		inductionLit := &ast.LiteralExpr{Literal: ast.Literal{Type: s.VarType, Text: i.String(), Span: s.Span}}
		letStmt := &ast.LetStmt{
			Name:  s.Var,
			Type:  s.VarType,
			Value: inductionLit,
			Span:  s.Span,
		}
		substituted := substituteBlock(s.Body, s.Var.Name, inductionLit)
		bodyCopy := u.unrollBlock(substituted, iterScope)
		out = append(out, &ast.BlockStmt{
			Statements: append([]ast.Stmt{letStmt}, bodyCopy.Statements...),
			Span:       s.Span,
		})

		i = new(big.Int).Add(i, one)
	}

	return out
}

// substituteBlock returns a copy of block with every IdentExpr named name
// replaced by lit. This is what turns `for i in 0..3 { console.log("{}", i) }`
// into three bodies that actually print 0, 1, 2 instead of three copies that
// all still read the identifier i — flatten has already run by the time this
// pass sees the tree, so nothing downstream would otherwise fold i into its
// iteration's value. A nested ForRangeStmt that rebinds name shadows it, so
// its own body is left untouched.
func substituteBlock(block *ast.BlockStmt, name string, lit *ast.LiteralExpr) *ast.BlockStmt {
	out := make([]ast.Stmt, len(block.Statements))
	for i, stmt := range block.Statements {
		out[i] = substituteStmt(stmt, name, lit)
	}
	return &ast.BlockStmt{Statements: out, Span: block.Span}
}

func substituteStmt(stmt ast.Stmt, name string, lit *ast.LiteralExpr) ast.Stmt {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		return &ast.LetStmt{
			Name:    s.Name,
			Type:    s.Type,
			Value:   substituteExpr(s.Value, name, lit),
			Mutable: s.Mutable,
			Span:    s.Span,
		}

	case *ast.AssignStmt:
		return &ast.AssignStmt{Name: s.Name, Value: substituteExpr(s.Value, name, lit), Span: s.Span}

	case *ast.ConditionalStmt:
		var els *ast.BlockStmt
		if s.Else != nil {
			els = substituteBlock(s.Else, name, lit)
		}
		return &ast.ConditionalStmt{
			Cond: substituteExpr(s.Cond, name, lit),
			Then: substituteBlock(s.Then, name, lit),
			Else: els,
			Span: s.Span,
		}

	case *ast.BlockStmt:
		return substituteBlock(s, name, lit)

	case *ast.ForRangeStmt:
		start := substituteExpr(s.Start, name, lit)
		stop := substituteExpr(s.Stop, name, lit)
		body := s.Body
		if s.Var.Name != name {
			body = substituteBlock(s.Body, name, lit)
		}
		return &ast.ForRangeStmt{Var: s.Var, VarType: s.VarType, Start: start, Stop: stop, Body: body, Span: s.Span}

	case *ast.ReturnStmt:
		var value ast.Expr
		if s.Value != nil {
			value = substituteExpr(s.Value, name, lit)
		}
		return &ast.ReturnStmt{Value: value, Span: s.Span}

	case *ast.ConsoleStmt:
		args := make([]ast.Expr, len(s.Args))
		for i, a := range s.Args {
			args[i] = substituteExpr(a, name, lit)
		}
		return &ast.ConsoleStmt{Kind: s.Kind, Format: s.Format, Args: args, Span: s.Span}

	default:
		return stmt
	}
}

func substituteExpr(expr ast.Expr, name string, lit *ast.LiteralExpr) ast.Expr {
	switch e := expr.(type) {
	case nil:
		return nil

	case *ast.IdentExpr:
		if e.Name.Name == name {
			return lit
		}
		return e

	case *ast.UnaryExpr:
		return &ast.UnaryExpr{Op: e.Op, Operand: substituteExpr(e.Operand, name, lit), Span: e.Span}

	case *ast.BinaryExpr:
		return &ast.BinaryExpr{
			Op:   e.Op,
			LHS:  substituteExpr(e.LHS, name, lit),
			RHS:  substituteExpr(e.RHS, name, lit),
			Span: e.Span,
		}

	case *ast.TernaryExpr:
		return &ast.TernaryExpr{
			Cond: substituteExpr(e.Cond, name, lit),
			Then: substituteExpr(e.Then, name, lit),
			Else: substituteExpr(e.Else, name, lit),
			Span: e.Span,
		}

	case *ast.CircuitAccessExpr:
		return &ast.CircuitAccessExpr{Receiver: substituteExpr(e.Receiver, name, lit), Member: e.Member, Span: e.Span}

	case *ast.CircuitConstructExpr:
		members := make([]ast.CircuitMemberInit, len(e.Members))
		for i, m := range e.Members {
			member := m
			if member.Expression != nil {
				member.Expression = substituteExpr(member.Expression, name, lit)
			}
			members[i] = member
		}
		return &ast.CircuitConstructExpr{Name: e.Name, Members: members, Span: e.Span}

	case *ast.CallExpr:
		args := make([]ast.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = substituteExpr(a, name, lit)
		}
		return &ast.CallExpr{Callee: e.Callee, Args: args, Span: e.Span}

	case *ast.TupleAccessExpr:
		return &ast.TupleAccessExpr{Receiver: substituteExpr(e.Receiver, name, lit), Index: e.Index, Span: e.Span}

	case *ast.CastExpr:
		return &ast.CastExpr{Operand: substituteExpr(e.Operand, name, lit), TargetType: e.TargetType, Span: e.Span}

	default:
		return expr
	}
}

// literalValue reads a folded literal expression's value directly, without
// re-running the flattener — by the time this pass runs, every constant
// bound has already been reduced to a LiteralExpr by flatten.
func literalValue(expr ast.Expr) (value.Value, bool) {
	lit, ok := expr.(*ast.LiteralExpr)
	if !ok {
		return value.Value{}, false
	}
	return value.FromLiteralText(lit.Literal.Type.Kind, lit.Literal.Text)
}
