// Package flatten implements the constant-folding pass: it propagates
// constant bindings, folds expressions and branches using the value
// lattice, and schedules deconstification when a const-tracked binding is
// written under a non-constant condition.
//
// The traversal context (whether the current block is only reachable under
// a non-constant condition, whether the current expression is the direct
// operand of a unary negation, and whether the current block is a loop
// body about to be unrolled) is threaded as explicit parameters down the
// recursion rather than stored as mutable fields, keeping the pass
// reentrant and easy to test in isolation (SPEC_FULL.md §9).
package flatten

import (
	"fmt"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/diagnostic"
	"github.com/vellum-lang/vellumc/internal/span"
	"github.com/vellum-lang/vellumc/internal/symboltable"
	"github.com/vellum-lang/vellumc/internal/types"
	"github.com/vellum-lang/vellumc/internal/value"
)

// ctx is the flattener's traversal context, passed by value.
type ctx struct {
	nonConstBlock     bool
	nextBlockNonConst bool
	negate            bool
	createIterScopes  bool
}

func (c ctx) clearNegate() ctx {
	c.negate = false
	return c
}

func (c ctx) enterNonConstBlock() ctx {
	c.nonConstBlock = true
	c.nextBlockNonConst = true
	return c
}

// flattener carries the diagnostic handler across the recursive descent;
// it holds no traversal state of its own (that is ctx's job).
type flattener struct {
	handler *diagnostic.Handler
}

// Run const-folds prog, propagating bindings and folding branches, and
// returns the rewritten tree alongside the symbol table (mutated in place
// by any deconstifications the fold triggers).
func Run(prog *ast.Program, root *symboltable.Scope, h *diagnostic.Handler) (*ast.Program, *symboltable.Scope) {
	f := &flattener{handler: h}

	out := make([]ast.Decl, 0, len(prog.Declarations))
	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case *ast.FunctionDecl:
			out = append(out, f.flattenFunction(d, root))
		default:
			out = append(out, decl)
		}
	}

	return &ast.Program{Declarations: out}, root
}

func (f *flattener) flattenFunction(fn *ast.FunctionDecl, parent *symboltable.Scope) *ast.FunctionDecl {
	fnScope, ok := parent.GetFnScope(fn.Name.Name)
	if !ok {
		fnScope = parent.PushBlockScope()
	}
	body := f.flattenBlock(fn.Body, fnScope, ctx{})
	return &ast.FunctionDecl{
		Name:       fn.Name,
		Parameters: fn.Parameters,
		ReturnType: fn.ReturnType,
		Body:       body,
		Span:       fn.Span,
	}
}

// flattenBlock folds every statement in block under a fresh child scope,
// maintaining a per-block deconstification buffer that is sorted,
// deduplicated, and applied to the block's enclosing scope at exit — the
// mutation happens inside the block but the binding being demoted lives
// above it.
func (f *flattener) flattenBlock(block *ast.BlockStmt, scope *symboltable.Scope, c ctx) *ast.BlockStmt {
	buf := symboltable.NewDeconstifyBuffer()
	inner := scope.PushBlockScope()

	out := make([]ast.Stmt, 0, len(block.Statements))
	for _, stmt := range block.Statements {
		out = append(out, f.flattenStmt(stmt, inner, c, buf))
	}

	if !buf.Empty() {
		buf.Apply(inner.PopBlockScope())
	}

	return &ast.BlockStmt{Statements: out, Span: block.Span}
}

func (f *flattener) flattenStmt(stmt ast.Stmt, scope *symboltable.Scope, c ctx, buf *symboltable.DeconstifyBuffer) ast.Stmt {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		foldedValue, constVal := f.foldExpr(s.Value, scope, c.clearNegate())
		vt := symboltable.Mut
		var symValue *value.Value
		if constVal != nil && !s.Mutable {
			vt = symboltable.Const
			symValue = constVal
		}
		_ = scope.InsertVariable(s.Name.Name, symboltable.VariableSymbol{
			Type:         s.Type,
			Span:         s.Span,
			VariableType: vt,
			Value:        symValue,
		})
		return &ast.LetStmt{Name: s.Name, Type: s.Type, Value: foldedValue, Mutable: s.Mutable, Span: s.Span}

	case *ast.AssignStmt:
		foldedValue, constVal := f.foldExpr(s.Value, scope, c.clearNegate())
		if sym, ok := scope.LookupVariable(s.Name.Name); ok {
			if c.nonConstBlock || constVal == nil {
				buf.Schedule(s.Name.Name)
			} else {
				scope.UpdateVariable(s.Name.Name, sym.WithValue(*constVal))
			}
		}
		return &ast.AssignStmt{Name: s.Name, Value: foldedValue, Span: s.Span}

	case *ast.ConditionalStmt:
		return f.flattenConditional(s, scope, c)

	case *ast.BlockStmt:
		return f.flattenBlock(s, scope, c)

	case *ast.ForRangeStmt:
		start, _ := f.foldExpr(s.Start, scope, c.clearNegate())
		stop, _ := f.foldExpr(s.Stop, scope, c.clearNegate())

		loopScope := scope.PushBlockScope()
		_ = loopScope.InsertVariable(s.Var.Name, symboltable.VariableSymbol{Type: s.VarType, VariableType: symboltable.Mut})
		bodyCtx := c
		bodyCtx.createIterScopes = true
		body := f.flattenBlock(s.Body, loopScope, bodyCtx)

		return &ast.ForRangeStmt{Var: s.Var, VarType: s.VarType, Start: start, Stop: stop, Body: body, Span: s.Span}

	case *ast.ReturnStmt:
		if s.Value == nil {
			return s
		}
		folded, _ := f.foldExpr(s.Value, scope, c.clearNegate())
		return &ast.ReturnStmt{Value: folded, Span: s.Span}

	case *ast.ConsoleStmt:
		args := make([]ast.Expr, len(s.Args))
		for i, a := range s.Args {
			folded, _ := f.foldExpr(a, scope, c.clearNegate())
			args[i] = folded
		}
		return &ast.ConsoleStmt{Kind: s.Kind, Format: s.Format, Args: args, Span: s.Span}

	default:
		return stmt
	}
}

// flattenConditional folds the test; if it resolves to a known Boolean, the
// conditional collapses to the taken branch and the other branch is never
// walked at all (and thus never reports diagnostics or schedules
// deconstifications). Otherwise both branches are folded under a context
// marking them reachable only under a non-constant condition.
func (f *flattener) flattenConditional(s *ast.ConditionalStmt, scope *symboltable.Scope, c ctx) ast.Stmt {
	foldedCond, condVal := f.foldExpr(s.Cond, scope, c.clearNegate())

	if condVal != nil && condVal.Type().Kind == types.Boolean {
		if condVal.AsBool() {
			return f.flattenBlock(s.Then, scope, c)
		}
		if s.Else != nil {
			return f.flattenBlock(s.Else, scope, c)
		}
		return &ast.BlockStmt{Span: s.Span}
	}

	branchCtx := c.enterNonConstBlock()
	then := f.flattenBlock(s.Then, scope, branchCtx)
	var els *ast.BlockStmt
	if s.Else != nil {
		els = f.flattenBlock(s.Else, scope, branchCtx)
	}
	return &ast.ConditionalStmt{Cond: foldedCond, Then: then, Else: els, Span: s.Span}
}

// foldExpr folds expr bottom-up under scope, returning the (possibly
// rewritten) expression and, if it resolved to a known value, that value.
// A nil value means the expression remains residual.
func (f *flattener) foldExpr(expr ast.Expr, scope *symboltable.Scope, c ctx) (ast.Expr, *value.Value) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return f.foldLiteral(e, c)

	case *ast.IdentExpr:
		sym, ok := scope.LookupVariable(e.Name.Name)
		if !ok || sym.VariableType != symboltable.Const || sym.Value == nil {
			return e, nil
		}
		return literalFromValue(*sym.Value, e.Name.Span), sym.Value

	case *ast.UnaryExpr:
		return f.foldUnary(e, scope, c)

	case *ast.BinaryExpr:
		return f.foldBinary(e, scope, c)

	case *ast.TernaryExpr:
		foldedCond, condVal := f.foldExpr(e.Cond, scope, c.clearNegate())
		if condVal != nil && condVal.Type().Kind == types.Boolean {
			if condVal.AsBool() {
				return f.foldExpr(e.Then, scope, c.clearNegate())
			}
			return f.foldExpr(e.Else, scope, c.clearNegate())
		}
		foldedThen, _ := f.foldExpr(e.Then, scope, c.clearNegate())
		foldedElse, _ := f.foldExpr(e.Else, scope, c.clearNegate())
		return &ast.TernaryExpr{Cond: foldedCond, Then: foldedThen, Else: foldedElse, Span: e.Span}, nil

	case *ast.CircuitAccessExpr:
		foldedRecv, recvVal := f.foldExpr(e.Receiver, scope, c.clearNegate())
		if recvVal != nil {
			for _, m := range recvVal.Members() {
				if m.Name == e.Member.Name {
					v := m.Value
					return literalFromValue(v, e.Span), &v
				}
			}
		}
		return &ast.CircuitAccessExpr{Receiver: foldedRecv, Member: e.Member, Span: e.Span}, nil

	case *ast.CircuitConstructExpr:
		return f.foldCircuitConstruct(e, scope, c)

	case *ast.CallExpr:
		args := make([]ast.Expr, len(e.Args))
		for i, a := range e.Args {
			folded, _ := f.foldExpr(a, scope, c.clearNegate())
			args[i] = folded
		}
		// Calls are never folded: a callee's body is a separate flattening
		// unit, and inlining it here would break the pipeline's one-tree-in,
		// one-tree-out contract between passes.
		return &ast.CallExpr{Callee: e.Callee, Args: args, Span: e.Span}, nil

	case *ast.TupleAccessExpr:
		foldedRecv, _ := f.foldExpr(e.Receiver, scope, c.clearNegate())
		return &ast.TupleAccessExpr{Receiver: foldedRecv, Index: e.Index, Span: e.Span}, nil

	case *ast.CastExpr:
		foldedOperand, operandVal := f.foldExpr(e.Operand, scope, c.clearNegate())
		if operandVal != nil {
			if casted, ok := value.Cast(*operandVal, e.TargetType.Kind); ok {
				return literalFromValue(casted, e.Span), &casted
			}
		}
		return &ast.CastExpr{Operand: foldedOperand, TargetType: e.TargetType, Span: e.Span}, nil

	default:
		return expr, nil
	}
}

// foldLiteral parses a literal's text into a Value. When c.negate is set and
// the literal is an unprefixed integer, the text is folded with a leading
// '-' applied directly, rather than parsing the positive magnitude and then
// negating it — this is what lets `-128i8` round-trip without the positive
// intermediate (128) overflowing i8's range (see UnaryExpr{OpNeg} handling
// in foldUnary).
func (f *flattener) foldLiteral(e *ast.LiteralExpr, c ctx) (ast.Expr, *value.Value) {
	text := e.Literal.Text
	negated := false
	if c.negate && e.Literal.Type.Kind.IsInteger() && len(text) > 0 && text[0] != '-' {
		text = "-" + text
		negated = true
	}

	v, ok := value.FromLiteralText(e.Literal.Type.Kind, text)
	if !ok {
		return e, nil
	}
	if negated {
		return &ast.LiteralExpr{Literal: ast.Literal{Type: e.Literal.Type, Text: text, Span: e.Literal.Span}}, &v
	}
	return e, &v
}

func (f *flattener) foldUnary(e *ast.UnaryExpr, scope *symboltable.Scope, c ctx) (ast.Expr, *value.Value) {
	if e.Op == ast.OpNeg {
		if lit, isLit := e.Operand.(*ast.LiteralExpr); isLit && lit.Literal.Type.Kind.IsInteger() {
			childCtx := c.clearNegate()
			childCtx.negate = true
			if foldedExpr, v := f.foldExpr(lit, scope, childCtx); v != nil {
				return foldedExpr, v
			}
		}
	}

	operandExpr, operandVal := f.foldExpr(e.Operand, scope, c.clearNegate())
	if operandVal == nil {
		return &ast.UnaryExpr{Op: e.Op, Operand: operandExpr, Span: e.Span}, nil
	}

	var result value.Value
	var err error
	switch e.Op {
	case ast.OpNeg:
		result, err = value.Neg(*operandVal)
	case ast.OpAbs:
		result, err = value.Abs(*operandVal)
	case ast.OpAbsWrapped:
		result = value.AbsWrapped(*operandVal)
	case ast.OpNot:
		result = value.Not(*operandVal)
	}
	if err != nil {
		f.reportArithError(err, e.Span)
		return &ast.UnaryExpr{Op: e.Op, Operand: operandExpr, Span: e.Span}, nil
	}
	return literalFromValue(result, e.Span), &result
}

func (f *flattener) foldBinary(e *ast.BinaryExpr, scope *symboltable.Scope, c ctx) (ast.Expr, *value.Value) {
	foldedLHS, lhsVal := f.foldExpr(e.LHS, scope, c.clearNegate())
	foldedRHS, rhsVal := f.foldExpr(e.RHS, scope, c.clearNegate())

	if lhsVal == nil || rhsVal == nil {
		return &ast.BinaryExpr{Op: e.Op, LHS: foldedLHS, RHS: foldedRHS, Span: e.Span}, nil
	}

	result, err := applyBinary(e.Op, *lhsVal, *rhsVal)
	if err != nil {
		f.reportArithError(err, e.Span)
		return &ast.BinaryExpr{Op: e.Op, LHS: foldedLHS, RHS: foldedRHS, Span: e.Span}, nil
	}
	return literalFromValue(result, e.Span), &result
}

// foldCircuitConstruct folds every member initializer; the construction
// folds to a Value only if every member (explicit or shorthand) resolved to
// a known constant.
func (f *flattener) foldCircuitConstruct(e *ast.CircuitConstructExpr, scope *symboltable.Scope, c ctx) (ast.Expr, *value.Value) {
	members := make([]ast.CircuitMemberInit, len(e.Members))
	valueMembers := make([]value.CircuitMember, 0, len(e.Members))
	allConst := true

	for i, m := range e.Members {
		if m.Expression != nil {
			folded, v := f.foldExpr(m.Expression, scope, c.clearNegate())
			members[i] = ast.CircuitMemberInit{Name: m.Name, Expression: folded}
			if v == nil {
				allConst = false
			} else {
				valueMembers = append(valueMembers, value.CircuitMember{Name: m.Name.Name, Value: *v})
			}
			continue
		}
		// Shorthand field reuse: the value comes from an identically-named
		// local binding.
		members[i] = m
		if sym, ok := scope.LookupVariable(m.Name.Name); ok && sym.VariableType == symboltable.Const && sym.Value != nil {
			valueMembers = append(valueMembers, value.CircuitMember{Name: m.Name.Name, Value: *sym.Value})
		} else {
			allConst = false
		}
	}

	result := &ast.CircuitConstructExpr{Name: e.Name, Members: members, Span: e.Span}
	if !allConst {
		return result, nil
	}
	v := value.Circuit(e.Name.Name, valueMembers)
	return result, &v
}

// literalFromValue re-materializes a folded Value as source-level syntax so
// the folded expression keeps flowing through later passes as an ordinary
// tree node rather than a special "constant" node kind.
func literalFromValue(v value.Value, sp span.Span) ast.Expr {
	t := v.Type()
	switch {
	case t.Kind == types.Boolean:
		text := "false"
		if v.AsBool() {
			text = "true"
		}
		return &ast.LiteralExpr{Literal: ast.Literal{Type: t, Text: text, Span: sp}}
	case t.Kind.IsInteger():
		return &ast.LiteralExpr{Literal: ast.Literal{Type: t, Text: v.AsInt().String(), Span: sp}}
	case t.Kind == types.Identifier:
		members := make([]ast.CircuitMemberInit, len(v.Members()))
		for i, m := range v.Members() {
			members[i] = ast.CircuitMemberInit{Name: ast.Identifier{Name: m.Name}, Expression: literalFromValue(m.Value, sp)}
		}
		return &ast.CircuitConstructExpr{Name: ast.Identifier{Name: t.Name}, Members: members, Span: sp}
	default:
		return &ast.LiteralExpr{Literal: ast.Literal{Type: t, Text: v.AsText(), Span: sp}}
	}
}

// applyBinary dispatches a BinaryOp to its value-lattice implementation.
func applyBinary(op ast.BinaryOp, a, b value.Value) (value.Value, error) {
	switch op {
	case ast.OpAdd:
		return value.Add(a, b)
	case ast.OpAddWrapped:
		return value.AddWrapped(a, b), nil
	case ast.OpSub:
		return value.Sub(a, b)
	case ast.OpSubWrapped:
		return value.SubWrapped(a, b), nil
	case ast.OpMul:
		return value.Mul(a, b)
	case ast.OpMulWrapped:
		return value.MulWrapped(a, b), nil
	case ast.OpDiv:
		return value.Div(a, b)
	case ast.OpDivWrapped:
		return value.DivWrapped(a, b)
	case ast.OpPow:
		return value.Pow(a, b)
	case ast.OpPowWrapped:
		return value.PowWrapped(a, b), nil
	case ast.OpShl:
		return value.Shl(a, b)
	case ast.OpShlWrapped:
		return value.ShlWrapped(a, b), nil
	case ast.OpShr:
		return value.Shr(a, b)
	case ast.OpShrWrapped:
		return value.ShrWrapped(a, b), nil
	case ast.OpAnd:
		return value.And(a, b), nil
	case ast.OpOr:
		return value.Or(a, b), nil
	case ast.OpXor:
		return value.Xor(a, b), nil
	case ast.OpBitAnd:
		return value.BitAnd(a, b), nil
	case ast.OpBitOr:
		return value.BitOr(a, b), nil
	case ast.OpEq:
		return value.Eq(a, b), nil
	case ast.OpNe:
		return value.Ne(a, b), nil
	case ast.OpLt:
		return value.Lt(a, b), nil
	case ast.OpLe:
		return value.Le(a, b), nil
	case ast.OpGt:
		return value.Gt(a, b), nil
	case ast.OpGe:
		return value.Ge(a, b), nil
	default:
		return value.Value{}, fmt.Errorf("flatten: unknown binary operator %v", op)
	}
}

func (f *flattener) reportArithError(err error, sp span.Span) {
	switch e := err.(type) {
	case *value.OverflowError:
		f.handler.EmitErr(diagnostic.Flatten, diagnostic.CodeArithmeticOverflow, sp, e.Error(), nil)
	case *value.DivisionByZeroError:
		f.handler.EmitErr(diagnostic.Flatten, diagnostic.CodeDivisionByZero, sp, e.Error(), nil)
	default:
		f.handler.EmitErr(diagnostic.Flatten, diagnostic.CodeArithmeticOverflow, sp, err.Error(), nil)
	}
}
