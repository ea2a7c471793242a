// Package typecheck implements the type-checker pass: it walks the parsed
// tree top-down, maintaining the symbol-table cursor in lock-step with the
// AST descent, synthesizing and checking types bottom-up over expressions,
// and enforcing circuit/record shape and function-return-existence rules.
//
// The pass accumulates diagnostics into the handler and always returns a
// (possibly error-producing) symbol table, so later passes can still
// exercise their code paths over the valid parts of the tree (SPEC_FULL.md
// §4.3).
package typecheck

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/diagnostic"
	"github.com/vellum-lang/vellumc/internal/span"
	"github.com/vellum-lang/vellumc/internal/symboltable"
	"github.com/vellum-lang/vellumc/internal/types"
)

// checker carries the state one Run call threads through the recursive
// descent: the handler, and the root scope, into which Run registers every
// circuit before checking any declaration (so a function can reference a
// circuit declared before or after it, since resolution is always by name).
type checker struct {
	handler *diagnostic.Handler
	root    *symboltable.Scope
}

// Run type-checks prog against root (the symbol table produced by the
// prior construction pass) and returns the tree unchanged — the type
// checker never rewrites nodes, only annotates the symbol table and
// reports diagnostics — together with the (possibly augmented) symbol
// table.
func Run(prog *ast.Program, root *symboltable.Scope, h *diagnostic.Handler) (*ast.Program, *symboltable.Scope) {
	c := &checker{handler: h, root: root}

	for _, decl := range prog.Declarations {
		if cd, ok := decl.(*ast.CircuitDecl); ok {
			_ = root.InsertCircuit(cd.Name.Name, cd)
		}
	}

	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case *ast.CircuitDecl:
			c.checkCircuit(d)
		case *ast.FunctionDecl:
			c.checkFunction(d, root)
		case *ast.ConstDecl:
			c.checkExpr(d.Value, root)
		case *ast.GlobalDecl:
			c.checkExpr(d.Value, root)
		}
	}

	if prog.MainFunction() == nil {
		h.EmitErr(diagnostic.SymbolTable, diagnostic.CodeDuplicateVariable, span.Span{}, "program must declare exactly one main function", nil)
	}

	return prog, root
}

func (c *checker) checkCircuit(d *ast.CircuitDecl) {
	seen := make(map[string]bool)
	for _, m := range d.Members {
		if seen[m.Name.Name] {
			code := diagnostic.CodeDuplicateCircuitMember
			if d.IsRecord {
				code = diagnostic.CodeDuplicateRecordVariable
			}
			c.handler.EmitErr(diagnostic.TypeCheck, code, m.Span,
				fmt.Sprintf("duplicate member %q in circuit %q", m.Name.Name, d.Name.Name), map[string]string{"circuit": d.Name.Name})
		}
		seen[m.Name.Name] = true
	}

	if !d.IsRecord {
		return
	}

	c.requireRecordField(d, "owner", types.AddressType)
	c.requireRecordField(d, "balance", types.U64Type)
}

func (c *checker) requireRecordField(d *ast.CircuitDecl, name string, want types.Type) {
	for _, m := range d.Members {
		if m.Name.Name != name {
			continue
		}
		if !m.Type.Equals(want) {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeRecordVarWrongType, m.Span,
				fmt.Sprintf("record member %q must have type %s, found %s", name, want, m.Type),
				map[string]string{"circuit": d.Name.Name, "need": name, "expected_type": want.String()})
		}
		return
	}
	c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeRequiredRecordVariable, d.Span,
		fmt.Sprintf("record %q is missing required member %q: %s", d.Name.Name, name, want),
		map[string]string{"circuit": d.Name.Name, "need": name, "expected_type": want.String()})
}

func (c *checker) checkFunction(fn *ast.FunctionDecl, parent *symboltable.Scope) {
	fnScope := parent.PushBlockScope()
	_ = parent.InsertFunction(fn.Name.Name, fnScope)

	seen := make(map[string]bool)
	for _, p := range fn.Parameters {
		if seen[p.Name.Name] {
			c.handler.EmitErr(diagnostic.SymbolTable, diagnostic.CodeDuplicateVariable, p.Span,
				fmt.Sprintf("duplicate parameter %q", p.Name.Name), nil)
			continue
		}
		seen[p.Name.Name] = true
		_ = fnScope.InsertVariable(p.Name.Name, symboltable.VariableSymbol{
			Type:         p.Type,
			Span:         p.Span,
			VariableType: symboltable.Input,
			Mode:         p.Mode,
		})
	}

	hasReturn := c.checkBlock(fn.Body, fnScope)
	if !hasReturn {
		c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeReturnMissing, fn.Span,
			fmt.Sprintf("function %q has no return statement", fn.Name.Name), nil)
	}
}

// checkBlock type-checks every statement in block under scope and reports
// whether the block returns: a return statement directly in it, in a nested
// block, or in both branches of an if/else counts; a return only inside a
// loop body or a single branch does not. It is not a full path analysis.
func (c *checker) checkBlock(block *ast.BlockStmt, scope *symboltable.Scope) bool {
	hasReturn := false
	for _, stmt := range block.Statements {
		if c.checkStmt(stmt, scope) {
			hasReturn = true
		}
	}
	return hasReturn
}

func (c *checker) checkStmt(stmt ast.Stmt, scope *symboltable.Scope) (sawReturn bool) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		valType := c.checkExpr(s.Value, scope)
		if !valType.IsInvalid() && !s.Type.IsInvalid() && !valType.Equals(s.Type) {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeTypeMismatch, s.Span,
				fmt.Sprintf("cannot assign %s to binding of type %s", valType, s.Type), nil)
		}
		vt := symboltable.Const
		if s.Mutable {
			vt = symboltable.Mut
		}
		if err := scope.InsertVariable(s.Name.Name, symboltable.VariableSymbol{
			Type:         s.Type,
			Span:         s.Span,
			VariableType: vt,
		}); err != nil {
			c.handler.EmitErr(diagnostic.SymbolTable, diagnostic.CodeDuplicateVariable, s.Span, err.Error(), nil)
		}
		return false

	case *ast.AssignStmt:
		sym, ok := scope.LookupVariable(s.Name.Name)
		if !ok {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeUnknownIdentifier, s.Span,
				fmt.Sprintf("unknown identifier %q", s.Name.Name), nil)
		} else {
			valType := c.checkExpr(s.Value, scope)
			if !valType.IsInvalid() && !sym.Type.IsInvalid() && !valType.Equals(sym.Type) {
				c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeTypeMismatch, s.Span,
					fmt.Sprintf("cannot assign %s to %q of type %s", valType, s.Name.Name, sym.Type), nil)
			}
		}
		return false

	case *ast.ConditionalStmt:
		condType := c.checkExpr(s.Cond, scope)
		if !condType.IsInvalid() && !condType.Equals(types.BooleanType) {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeNonBooleanCondition, s.Cond.ExprSpan(),
				"condition must be boolean", nil)
		}
		thenScope := scope.PushBlockScope()
		thenReturn := c.checkBlock(s.Then, thenScope)
		elseReturn := false
		if s.Else != nil {
			elseScope := scope.PushBlockScope()
			elseReturn = c.checkBlock(s.Else, elseScope)
		}
		return thenReturn && s.Else != nil && elseReturn

	case *ast.BlockStmt:
		inner := scope.PushBlockScope()
		return c.checkBlock(s, inner)

	case *ast.ForRangeStmt:
		c.checkExpr(s.Start, scope)
		c.checkExpr(s.Stop, scope)
		bodyScope := scope.PushBlockScope()
		_ = bodyScope.InsertVariable(s.Var.Name, symboltable.VariableSymbol{
			Type:         s.VarType,
			Span:         s.Span,
			VariableType: symboltable.Const,
		})
		c.checkBlock(s.Body, bodyScope)
		return false

	case *ast.ReturnStmt:
		if s.Value != nil {
			c.checkExpr(s.Value, scope)
		}
		return true

	case *ast.ConsoleStmt:
		for _, arg := range s.Args {
			c.checkExpr(arg, scope)
		}
		return false

	case *ast.DefinitionStmt:
		if fn, ok := s.Decl.(*ast.FunctionDecl); ok {
			c.checkFunction(fn, scope)
		}
		return false

	default:
		// Every ast.Stmt variant is handled above; reaching here means a new
		// node kind was added to the closed Stmt set without a matching case.
		err := errors.Errorf("unreachable: unhandled statement type %T", stmt)
		c.handler.EmitErr(diagnostic.Internal, diagnostic.CodeUnreachable, stmt.StmtSpan(), err.Error(), nil)
		return false
	}
}

// checkExpr synthesizes a type for expr bottom-up, reporting a diagnostic
// and returning the zero (invalid) Type wherever it cannot determine one.
func (c *checker) checkExpr(expr ast.Expr, scope *symboltable.Scope) types.Type {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return e.Literal.Type

	case *ast.IdentExpr:
		sym, ok := scope.LookupVariable(e.Name.Name)
		if !ok {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeUnknownIdentifier, e.Name.Span,
				fmt.Sprintf("unknown identifier %q", e.Name.Name), nil)
			return types.Type{}
		}
		return sym.Type

	case *ast.UnaryExpr:
		operand := c.checkExpr(e.Operand, scope)
		switch e.Op {
		case ast.OpNeg, ast.OpAbs, ast.OpAbsWrapped:
			if !operand.IsInvalid() && !operand.Kind.IsSigned() {
				c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeTypeMismatch, e.Span,
					fmt.Sprintf("operator requires a signed integer operand, found %s", operand), nil)
			}
		case ast.OpNot:
			if !operand.IsInvalid() && operand.Kind != types.Boolean && !operand.Kind.IsInteger() {
				c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeTypeMismatch, e.Span,
					fmt.Sprintf("operator `not` requires boolean or integer operand, found %s", operand), nil)
			}
		}
		return operand

	case *ast.BinaryExpr:
		return c.checkBinary(e, scope)

	case *ast.TernaryExpr:
		condType := c.checkExpr(e.Cond, scope)
		if !condType.IsInvalid() && !condType.Equals(types.BooleanType) {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeNonBooleanCondition, e.Cond.ExprSpan(),
				"ternary condition must be boolean", nil)
		}
		thenType := c.checkExpr(e.Then, scope)
		elseType := c.checkExpr(e.Else, scope)
		if !thenType.IsInvalid() && !elseType.IsInvalid() && !thenType.Equals(elseType) {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeTypeMismatch, e.Span,
				fmt.Sprintf("ternary branches disagree: %s vs %s", thenType, elseType), nil)
		}
		return thenType

	case *ast.CircuitAccessExpr:
		recvType := c.checkExpr(e.Receiver, scope)
		if recvType.IsInvalid() || recvType.Kind != types.Identifier {
			return types.Type{}
		}
		def, ok := scope.GetCircuit(recvType.Name)
		if !ok {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeUnknownCircuitMember, e.Span,
				fmt.Sprintf("unknown circuit %q", recvType.Name), nil)
			return types.Type{}
		}
		for _, m := range def.Members {
			if m.Name.Name == e.Member.Name {
				return m.Type
			}
		}
		c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeUnknownCircuitMember, e.Span,
			fmt.Sprintf("circuit %q has no member %q", recvType.Name, e.Member.Name), nil)
		return types.Type{}

	case *ast.CircuitConstructExpr:
		def, ok := scope.GetCircuit(e.Name.Name)
		if !ok {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeUnknownIdentifier, e.Span,
				fmt.Sprintf("unknown circuit %q", e.Name.Name), nil)
			return types.Type{}
		}
		memberType := make(map[string]types.Type, len(def.Members))
		for _, m := range def.Members {
			memberType[m.Name.Name] = m.Type
		}
		for _, init := range e.Members {
			want, ok := memberType[init.Name.Name]
			if !ok {
				c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeUnknownCircuitMember, e.Span,
					fmt.Sprintf("circuit %q has no member %q", e.Name.Name, init.Name.Name), nil)
				continue
			}
			var got types.Type
			if init.Expression != nil {
				got = c.checkExpr(init.Expression, scope)
			} else if sym, ok := scope.LookupVariable(init.Name.Name); ok {
				got = sym.Type
			}
			if !got.IsInvalid() && !got.Equals(want) {
				c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeTypeMismatch, e.Span,
					fmt.Sprintf("member %q expects %s, found %s", init.Name.Name, want, got), nil)
			}
		}
		return types.Circuit(e.Name.Name)

	case *ast.CallExpr:
		fnScope, ok := scope.GetFnScope(e.Callee.Name)
		for _, arg := range e.Args {
			c.checkExpr(arg, scope)
		}
		if !ok {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeUnknownIdentifier, e.Span,
				fmt.Sprintf("unknown function %q", e.Callee.Name), nil)
			return types.Type{}
		}
		_ = fnScope
		return types.Type{}

	case *ast.TupleAccessExpr:
		c.checkExpr(e.Receiver, scope)
		return types.Type{}

	case *ast.CastExpr:
		c.checkExpr(e.Operand, scope)
		return e.TargetType

	default:
		// Every ast.Expr variant is handled above; reaching here means a new
		// node kind was added to the closed Expr set without a matching case.
		err := errors.Errorf("unreachable: unhandled expression type %T", expr)
		c.handler.EmitErr(diagnostic.Internal, diagnostic.CodeUnreachable, expr.ExprSpan(), err.Error(), nil)
		return types.Type{}
	}
}

func (c *checker) checkBinary(e *ast.BinaryExpr, scope *symboltable.Scope) types.Type {
	lhs := c.checkExpr(e.LHS, scope)
	rhs := c.checkExpr(e.RHS, scope)
	if lhs.IsInvalid() || rhs.IsInvalid() {
		return types.Type{}
	}

	switch e.Op {
	case ast.OpShl, ast.OpShlWrapped, ast.OpShr, ast.OpShrWrapped, ast.OpPow, ast.OpPowWrapped:
		if !rhs.Kind.IsValidShiftAmountType() {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeTypeMismatch, e.Span,
				fmt.Sprintf("shift/exponent operand must be u8, u16, or u32, found %s", rhs), nil)
		}
		return lhs

	case ast.OpEq, ast.OpNe:
		if !lhs.Equals(rhs) {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeTypeMismatch, e.Span,
				fmt.Sprintf("cannot compare %s with %s", lhs, rhs), nil)
		}
		return types.BooleanType

	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if !lhs.Equals(rhs) {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeTypeMismatch, e.Span,
				fmt.Sprintf("cannot compare %s with %s", lhs, rhs), nil)
		}
		return types.BooleanType

	default:
		if !lhs.Equals(rhs) {
			c.handler.EmitErr(diagnostic.TypeCheck, diagnostic.CodeTypeMismatch, e.Span,
				fmt.Sprintf("operand type mismatch: %s vs %s", lhs, rhs), nil)
		}
		return lhs
	}
}
