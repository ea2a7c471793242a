// Package ast defines the immutable-after-parse tree of expressions,
// statements, functions, circuits, and programs that every compiler pass
// consumes and produces.
//
// Nodes are never mutated in place once built: each pass in the pipeline
// receives a tree, walks it, and returns a freshly constructed replacement
// tree (see internal/pipeline). Every node carries a Span for diagnostics.
package ast

import (
	"github.com/vellum-lang/vellumc/internal/span"
	"github.com/vellum-lang/vellumc/internal/types"
)

// Identifier is an interned name plus a source span. Equality is by Name
// only; Span is metadata.
type Identifier struct {
	Name string
	Span span.Span
}

// Equals compares identifiers by name, ignoring span.
func (id Identifier) Equals(other Identifier) bool { return id.Name == other.Name }

// Mode is a function parameter's declared constness/visibility.
type Mode uint8

const (
	ModeConst Mode = iota
	ModePublic
	ModePrivate
)

func (m Mode) String() string {
	switch m {
	case ModeConst:
		return "const"
	case ModePublic:
		return "public"
	case ModePrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Literal is a source-faithful literal: its declared Type, verbatim Text,
// and Span. Integer literal Text is parsed into a value.Value by later
// passes; field/group/scalar/address/string literals keep Text verbatim
// for the back-end (see internal/value).
type Literal struct {
	Type types.Type
	Text string
	Span span.Span
}

// ---- Expressions ----

// Expr is implemented by every expression node.
type Expr interface {
	isExpr()
	ExprSpan() span.Span
}

// LiteralExpr wraps a Literal as an expression.
type LiteralExpr struct {
	Literal Literal
}

func (*LiteralExpr) isExpr()                    {}
func (e *LiteralExpr) ExprSpan() span.Span      { return e.Literal.Span }

// IdentExpr references a bound name (variable, const, or function
// parameter), resolved by a later pass through the symbol table.
type IdentExpr struct {
	Name Identifier
}

func (*IdentExpr) isExpr()               {}
func (e *IdentExpr) ExprSpan() span.Span { return e.Name.Span }

// UnaryOp enumerates the unary operators.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpNot
	OpAbs
	OpAbsWrapped
)

// UnaryExpr applies a UnaryOp to Operand.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
	Span    span.Span
}

func (*UnaryExpr) isExpr()               {}
func (e *UnaryExpr) ExprSpan() span.Span { return e.Span }

// BinaryOp enumerates every binary operator named in the data model.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpAddWrapped
	OpSub
	OpSubWrapped
	OpMul
	OpMulWrapped
	OpDiv
	OpDivWrapped
	OpPow
	OpPowWrapped
	OpShl
	OpShlWrapped
	OpShr
	OpShrWrapped
	OpAnd
	OpOr
	OpXor
	OpBitAnd
	OpBitOr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// BinaryExpr applies a BinaryOp to LHS and RHS.
type BinaryExpr struct {
	Op   BinaryOp
	LHS  Expr
	RHS  Expr
	Span span.Span
}

func (*BinaryExpr) isExpr()               {}
func (e *BinaryExpr) ExprSpan() span.Span { return e.Span }

// TernaryExpr is `cond ? then : else`.
type TernaryExpr struct {
	Cond, Then, Else Expr
	Span             span.Span
}

func (*TernaryExpr) isExpr()               {}
func (e *TernaryExpr) ExprSpan() span.Span { return e.Span }

// CircuitAccessExpr reads a member of a circuit-typed expression.
type CircuitAccessExpr struct {
	Receiver Expr
	Member   Identifier
	Span     span.Span
}

func (*CircuitAccessExpr) isExpr()               {}
func (e *CircuitAccessExpr) ExprSpan() span.Span { return e.Span }

// CircuitMemberInit is one `name: expr` (or shorthand `name`, where
// Expression is nil and the value is the identically-named local binding)
// initializer in a circuit construction.
type CircuitMemberInit struct {
	Name       Identifier
	Expression Expr // nil for shorthand field reuse
}

// CircuitConstructExpr builds a circuit value from member initializers.
type CircuitConstructExpr struct {
	Name    Identifier
	Members []CircuitMemberInit
	Span    span.Span
}

func (*CircuitConstructExpr) isExpr()               {}
func (e *CircuitConstructExpr) ExprSpan() span.Span { return e.Span }

// CallExpr invokes a named function with ordered arguments.
type CallExpr struct {
	Callee Identifier
	Args   []Expr
	Span   span.Span
}

func (*CallExpr) isExpr()               {}
func (e *CallExpr) ExprSpan() span.Span { return e.Span }

// TupleAccessExpr reads the Index-th element of a tuple-valued expression.
type TupleAccessExpr struct {
	Receiver Expr
	Index    int
	Span     span.Span
}

func (*TupleAccessExpr) isExpr()               {}
func (e *TupleAccessExpr) ExprSpan() span.Span { return e.Span }

// CastExpr reinterprets Operand as TargetType.
type CastExpr struct {
	Operand    Expr
	TargetType types.Type
	Span       span.Span
}

func (*CastExpr) isExpr()               {}
func (e *CastExpr) ExprSpan() span.Span { return e.Span }

// ---- Statements ----

// Stmt is implemented by every statement node.
type Stmt interface {
	isStmt()
	StmtSpan() span.Span
}

// LetStmt binds Name to Value within the enclosing block. Mutable reports
// whether the binding was declared with `mut` (the initializer of a `mut`
// binding is never recorded as a const value; the flattener records one
// only when a later assignment of a constant runs outside a non-const
// block).
type LetStmt struct {
	Name    Identifier
	Type    types.Type
	Value   Expr
	Mutable bool
	Span    span.Span
}

func (*LetStmt) isStmt()               {}
func (s *LetStmt) StmtSpan() span.Span { return s.Span }

// AssignStmt writes Value into the binding named Name.
type AssignStmt struct {
	Name  Identifier
	Value Expr
	Span  span.Span
}

func (*AssignStmt) isStmt()               {}
func (s *AssignStmt) StmtSpan() span.Span { return s.Span }

// ConditionalStmt is `if Cond { Then } else { Else }`; Else may be nil.
type ConditionalStmt struct {
	Cond Expr
	Then *BlockStmt
	Else *BlockStmt
	Span span.Span
}

func (*ConditionalStmt) isStmt()               {}
func (s *ConditionalStmt) StmtSpan() span.Span { return s.Span }

// BlockStmt is an ordered sequence of statements introducing a new scope.
type BlockStmt struct {
	Statements []Stmt
	Span       span.Span
}

func (*BlockStmt) isStmt()               {}
func (s *BlockStmt) StmtSpan() span.Span { return s.Span }

// ForRangeStmt is `for Var in Start..Stop { Body }`.
type ForRangeStmt struct {
	Var        Identifier
	VarType    types.Type
	Start      Expr
	Stop       Expr
	Body       *BlockStmt
	Span       span.Span
}

func (*ForRangeStmt) isStmt()               {}
func (s *ForRangeStmt) StmtSpan() span.Span { return s.Span }

// ReturnStmt returns Value (nil for a bare `return;`).
type ReturnStmt struct {
	Value Expr
	Span  span.Span
}

func (*ReturnStmt) isStmt()               {}
func (s *ReturnStmt) StmtSpan() span.Span { return s.Span }

// ConsoleKind distinguishes console.log from console.assert/error style
// calls.
type ConsoleKind uint8

const (
	ConsoleLog ConsoleKind = iota
	ConsoleError
)

// ConsoleStmt is a `console.log("{}", args...)`-shaped call. Console
// statements are an observable side effect and are never dropped by the
// dead-code eliminator (SPEC_FULL.md §4.6).
type ConsoleStmt struct {
	Kind   ConsoleKind
	Format string
	Args   []Expr
	Span   span.Span
}

func (*ConsoleStmt) isStmt()               {}
func (s *ConsoleStmt) StmtSpan() span.Span { return s.Span }

// DefinitionStmt declares a circuit or function local to the enclosing
// block, distinct from a LetStmt's variable binding.
type DefinitionStmt struct {
	Decl Decl
	Span span.Span
}

func (*DefinitionStmt) isStmt()               {}
func (s *DefinitionStmt) StmtSpan() span.Span { return s.Span }

// ---- Declarations ----

// Decl is implemented by every top-level (or locally nested) declaration.
type Decl interface {
	isDecl()
	DeclSpan() span.Span
}

// Parameter is one function input.
type Parameter struct {
	Name Identifier
	Mode Mode
	Type types.Type
	Span span.Span
}

// FunctionDecl is a named function with ordered parameters, a return type,
// and a body block.
type FunctionDecl struct {
	Name       Identifier
	Parameters []Parameter
	ReturnType types.Type
	Body       *BlockStmt
	Span       span.Span
}

func (*FunctionDecl) isDecl()               {}
func (d *FunctionDecl) DeclSpan() span.Span { return d.Span }

// CircuitMemberDecl is a typed data member of a circuit.
type CircuitMemberDecl struct {
	Name Identifier
	Type types.Type
	Span span.Span
}

// CircuitDecl is a named product type, optionally tagged as a record. If
// IsRecord, Members must contain exactly `owner: Address` and
// `balance: U64` somewhere in addition to any other members; the type
// checker enforces this (SPEC_FULL.md §4.3).
type CircuitDecl struct {
	Name     Identifier
	Members  []CircuitMemberDecl
	Methods  []*FunctionDecl
	IsRecord bool
	Span     span.Span
}

func (*CircuitDecl) isDecl()               {}
func (d *CircuitDecl) DeclSpan() span.Span { return d.Span }

// ConstDecl is a top-level named constant.
type ConstDecl struct {
	Name  Identifier
	Type  types.Type
	Value Expr
	Span  span.Span
}

func (*ConstDecl) isDecl()               {}
func (d *ConstDecl) DeclSpan() span.Span { return d.Span }

// GlobalDecl is a top-level mutable binding.
type GlobalDecl struct {
	Name  Identifier
	Type  types.Type
	Value Expr
	Span  span.Span
}

func (*GlobalDecl) isDecl()               {}
func (d *GlobalDecl) DeclSpan() span.Span { return d.Span }

// Program is the ordered list of top-level declarations produced by a
// parse, required to contain exactly one function named "main".
type Program struct {
	Declarations []Decl
}

// MainFunction returns the program's entry point, or nil if none is
// present (a SymbolTable-phase error the caller is expected to have
// already reported).
func (p *Program) MainFunction() *FunctionDecl {
	for _, d := range p.Declarations {
		if fn, ok := d.(*FunctionDecl); ok && fn.Name.Name == "main" {
			return fn
		}
	}
	return nil
}
