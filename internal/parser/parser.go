// Package parser implements a single-pass recursive-descent parser: it
// builds the internal/ast tree and the root internal/symboltable scope in
// the same walk, rather than parsing into a separate concrete syntax tree
// and visiting it afterward. Precedence climbing handles binary operator
// expressions; statement parsing uses simple panic-mode recovery, skipping
// to the next statement boundary after a syntax error so one mistake does
// not cascade into a wall of follow-on diagnostics.
package parser

import (
	"strconv"
	"strings"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/diagnostic"
	"github.com/vellum-lang/vellumc/internal/lexer"
	"github.com/vellum-lang/vellumc/internal/span"
	"github.com/vellum-lang/vellumc/internal/symboltable"
	"github.com/vellum-lang/vellumc/internal/types"
)

type parser struct {
	tokens  []lexer.Token
	pos     int
	handler *diagnostic.Handler
	// noStructLiteral suppresses circuit-construct parsing at the primary
	// level while parsing an if/for condition — otherwise `if x { ... }`
	// would swallow the then-block as x's member-initializer list, the same
	// ambiguity C-like languages with brace-delimited struct literals hit in
	// condition position.
	noStructLiteral bool
}

// Parse consumes tokens in full and returns the program tree together with
// the root symbol table populated with every top-level function and
// circuit declaration (function bodies install their own child scopes as
// they are parsed).
func Parse(tokens []lexer.Token, h *diagnostic.Handler) (*ast.Program, *symboltable.Scope) {
	p := &parser{tokens: tokens, handler: h}
	root := symboltable.NewRootScope()

	var decls []ast.Decl
	for !p.atEnd() {
		d := p.parseDecl(root)
		if d != nil {
			decls = append(decls, d)
		}
	}
	return &ast.Program{Declarations: decls}, root
}

// ---- token cursor helpers ----

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Kind == lexer.TokEOF
}

func (p *parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) check(kind lexer.TokenKind, text string) bool {
	tok := p.peek()
	return tok.Kind == kind && (text == "" || tok.Text == text)
}

func (p *parser) match(kind lexer.TokenKind, text string) bool {
	if p.check(kind, text) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(kind lexer.TokenKind, text, what string) lexer.Token {
	if p.check(kind, text) {
		return p.advance()
	}
	tok := p.peek()
	p.handler.EmitErr(diagnostic.Parse, diagnostic.CodeUnexpectedToken, tok.Span,
		"expected "+what+", found "+describeToken(tok), nil)
	return tok
}

func describeToken(tok lexer.Token) string {
	if tok.Kind == lexer.TokEOF {
		return "end of input"
	}
	return "`" + tok.Text + "`"
}

// syncToStmtBoundary advances past tokens until the next `;`, `}`, or EOF,
// the panic-mode recovery point used after a malformed statement.
func (p *parser) syncToStmtBoundary() {
	for !p.atEnd() {
		if p.check(lexer.TokPunct, ";") {
			p.advance()
			return
		}
		if p.check(lexer.TokPunct, "}") {
			return
		}
		p.advance()
	}
}

// ---- declarations ----

func (p *parser) parseDecl(root *symboltable.Scope) ast.Decl {
	switch {
	case p.check(lexer.TokKeyword, "function"):
		return p.parseFunction(root)
	case p.check(lexer.TokKeyword, "record"):
		return p.parseCircuit(root, true)
	case p.check(lexer.TokKeyword, "circuit"):
		return p.parseCircuit(root, false)
	case p.check(lexer.TokKeyword, "const"):
		return p.parseConstDecl()
	case p.check(lexer.TokKeyword, "let"):
		return p.parseGlobalDecl()
	default:
		tok := p.peek()
		p.handler.EmitErr(diagnostic.Parse, diagnostic.CodeUnexpectedToken, tok.Span,
			"expected a top-level declaration, found "+describeToken(tok), nil)
		p.advance()
		return nil
	}
}

func (p *parser) parseFunction(root *symboltable.Scope) *ast.FunctionDecl {
	start := p.advance() // "function"
	name := p.parseIdentifier()
	p.expect(lexer.TokPunct, "(", "`(`")

	var params []ast.Parameter
	for !p.check(lexer.TokPunct, ")") && !p.atEnd() {
		params = append(params, p.parseParameter())
		if !p.match(lexer.TokPunct, ",") {
			break
		}
	}
	p.expect(lexer.TokPunct, ")", "`)`")
	p.expect(lexer.TokPunct, "->", "`->`")
	retType := p.parseType()

	fnScope := root.PushBlockScope()
	for _, param := range params {
		_ = fnScope.InsertVariable(param.Name.Name, symboltable.VariableSymbol{
			Type:         param.Type,
			Span:         param.Span,
			VariableType: symboltable.Input,
			Mode:         param.Mode,
		})
	}
	_ = root.InsertFunction(name.Name, fnScope)

	body := p.parseBlock()
	return &ast.FunctionDecl{
		Name:       name,
		Parameters: params,
		ReturnType: retType,
		Body:       body,
		Span:       span.Join(start.Span, body.Span),
	}
}

func (p *parser) parseParameter() ast.Parameter {
	mode := ast.ModePublic
	switch {
	case p.match(lexer.TokKeyword, "const"):
		mode = ast.ModeConst
	case p.match(lexer.TokKeyword, "public"):
		mode = ast.ModePublic
	case p.match(lexer.TokKeyword, "private"):
		mode = ast.ModePrivate
	}
	name := p.parseIdentifier()
	p.expect(lexer.TokPunct, ":", "`:`")
	t := p.parseType()
	return ast.Parameter{Name: name, Mode: mode, Type: t, Span: name.Span}
}

func (p *parser) parseCircuit(root *symboltable.Scope, isRecord bool) *ast.CircuitDecl {
	var start lexer.Token
	if isRecord {
		start = p.advance() // "record"
		p.expect(lexer.TokKeyword, "circuit", "`circuit`")
	} else {
		start = p.advance() // "circuit"
	}
	name := p.parseIdentifier()
	p.expect(lexer.TokPunct, "{", "`{`")

	var members []ast.CircuitMemberDecl
	for !p.check(lexer.TokPunct, "}") && !p.atEnd() {
		memberName := p.parseIdentifier()
		p.expect(lexer.TokPunct, ":", "`:`")
		memberType := p.parseType()
		members = append(members, ast.CircuitMemberDecl{Name: memberName, Type: memberType, Span: memberName.Span})
		if !p.match(lexer.TokPunct, ",") {
			break
		}
	}
	end := p.expect(lexer.TokPunct, "}", "`}`")

	decl := &ast.CircuitDecl{
		Name:     name,
		Members:  members,
		IsRecord: isRecord,
		Span:     span.Join(start.Span, end.Span),
	}
	_ = root.InsertCircuit(name.Name, decl)
	return decl
}

func (p *parser) parseConstDecl() *ast.ConstDecl {
	start := p.advance() // "const"
	name := p.parseIdentifier()
	p.expect(lexer.TokPunct, ":", "`:`")
	t := p.parseType()
	p.expect(lexer.TokPunct, "=", "`=`")
	value := p.parseExpr()
	end := p.expect(lexer.TokPunct, ";", "`;`")
	return &ast.ConstDecl{Name: name, Type: t, Value: value, Span: span.Join(start.Span, end.Span)}
}

func (p *parser) parseGlobalDecl() *ast.GlobalDecl {
	start := p.advance() // "let"
	name := p.parseIdentifier()
	p.expect(lexer.TokPunct, ":", "`:`")
	t := p.parseType()
	p.expect(lexer.TokPunct, "=", "`=`")
	value := p.parseExpr()
	end := p.expect(lexer.TokPunct, ";", "`;`")
	return &ast.GlobalDecl{Name: name, Type: t, Value: value, Span: span.Join(start.Span, end.Span)}
}

func (p *parser) parseIdentifier() ast.Identifier {
	tok := p.peek()
	if tok.Kind != lexer.TokIdent {
		p.handler.EmitErr(diagnostic.Parse, diagnostic.CodeUnexpectedToken, tok.Span,
			"expected an identifier, found "+describeToken(tok), nil)
		return ast.Identifier{Name: "<error>", Span: tok.Span}
	}
	p.advance()
	return ast.Identifier{Name: tok.Text, Span: tok.Span}
}

func (p *parser) parseType() types.Type {
	tok := p.peek()
	if tok.Kind == lexer.TokKeyword {
		if k, ok := types.ParseKeyword(tok.Text); ok {
			p.advance()
			return types.Primitive(k)
		}
	}
	if tok.Kind == lexer.TokIdent {
		p.advance()
		return types.Circuit(tok.Text)
	}
	p.handler.EmitErr(diagnostic.Parse, diagnostic.CodeUnexpectedToken, tok.Span,
		"expected a type, found "+describeToken(tok), nil)
	return types.Type{}
}

// ---- statements ----

func (p *parser) parseBlock() *ast.BlockStmt {
	start := p.expect(lexer.TokPunct, "{", "`{`")
	var stmts []ast.Stmt
	for !p.check(lexer.TokPunct, "}") && !p.atEnd() {
		before := p.pos
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
		if p.pos == before {
			// parseStmt made no progress (an unrecoverable token at this
			// position) — advance manually to guarantee termination.
			p.advance()
		}
	}
	end := p.expect(lexer.TokPunct, "}", "`}`")
	return &ast.BlockStmt{Statements: stmts, Span: span.Join(start.Span, end.Span)}
}

func (p *parser) parseStmt() ast.Stmt {
	switch {
	case p.check(lexer.TokKeyword, "let"):
		return p.parseLetStmt()
	case p.check(lexer.TokKeyword, "if"):
		return p.parseConditionalStmt()
	case p.check(lexer.TokKeyword, "for"):
		return p.parseForRangeStmt()
	case p.check(lexer.TokKeyword, "return"):
		return p.parseReturnStmt()
	case p.check(lexer.TokKeyword, "console"):
		return p.parseConsoleStmt()
	case p.check(lexer.TokPunct, "{"):
		return p.parseBlock()
	case p.peek().Kind == lexer.TokIdent:
		return p.parseAssignOrExprStmt()
	default:
		tok := p.peek()
		p.handler.EmitErr(diagnostic.Parse, diagnostic.CodeUnexpectedToken, tok.Span,
			"expected a statement, found "+describeToken(tok), nil)
		p.syncToStmtBoundary()
		return nil
	}
}

func (p *parser) parseLetStmt() *ast.LetStmt {
	start := p.advance() // "let"
	mutable := p.match(lexer.TokKeyword, "mut")
	name := p.parseIdentifier()
	p.expect(lexer.TokPunct, ":", "`:`")
	t := p.parseType()
	p.expect(lexer.TokPunct, "=", "`=`")
	value := p.parseExpr()
	end := p.expect(lexer.TokPunct, ";", "`;`")
	return &ast.LetStmt{Name: name, Type: t, Value: value, Mutable: mutable, Span: span.Join(start.Span, end.Span)}
}

// parseAssignOrExprStmt parses `name = expr;` — the language has no
// free-standing expression statements (functions are pure; the only
// observable side effect is console.log/console.assert, each with its own
// statement form), so an identifier starting a statement must be an
// assignment target.
func (p *parser) parseAssignOrExprStmt() ast.Stmt {
	name := p.parseIdentifier()
	eq := p.expect(lexer.TokPunct, "=", "`=`")
	value := p.parseExpr()
	end := p.expect(lexer.TokPunct, ";", "`;`")
	return &ast.AssignStmt{Name: name, Value: value, Span: span.Join(span.Join(name.Span, eq.Span), end.Span)}
}

func (p *parser) parseConditionalStmt() *ast.ConditionalStmt {
	start := p.advance() // "if"
	cond := p.parseCondExpr()
	then := p.parseBlock()
	stmt := &ast.ConditionalStmt{Cond: cond, Then: then, Span: span.Join(start.Span, then.Span)}
	if p.match(lexer.TokKeyword, "else") {
		if p.check(lexer.TokKeyword, "if") {
			nested := p.parseConditionalStmt()
			stmt.Else = &ast.BlockStmt{Statements: []ast.Stmt{nested}, Span: nested.Span}
		} else {
			stmt.Else = p.parseBlock()
		}
		stmt.Span = span.Join(stmt.Span, stmt.Else.Span)
	}
	return stmt
}

func (p *parser) parseForRangeStmt() *ast.ForRangeStmt {
	start := p.advance() // "for"
	name := p.parseIdentifier()
	p.expect(lexer.TokPunct, ":", "`:`")
	varType := p.parseType()
	p.expect(lexer.TokKeyword, "in", "`in`")
	from := p.parseCondExpr()
	p.expect(lexer.TokPunct, "..", "`..`")
	to := p.parseCondExpr()
	body := p.parseBlock()
	return &ast.ForRangeStmt{Var: name, VarType: varType, Start: from, Stop: to, Body: body, Span: span.Join(start.Span, body.Span)}
}

func (p *parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.advance() // "return"
	var value ast.Expr
	if !p.check(lexer.TokPunct, ";") {
		value = p.parseExpr()
	}
	end := p.expect(lexer.TokPunct, ";", "`;`")
	return &ast.ReturnStmt{Value: value, Span: span.Join(start.Span, end.Span)}
}

func (p *parser) parseConsoleStmt() *ast.ConsoleStmt {
	start := p.advance() // "console"
	p.expect(lexer.TokPunct, ".", "`.`")
	kindTok := p.expect(lexer.TokKeyword, "", "`log` or `assert`")
	kind := ast.ConsoleLog
	if kindTok.Text == "assert" {
		kind = ast.ConsoleError
	}
	p.expect(lexer.TokPunct, "(", "`(`")

	var format string
	var args []ast.Expr
	if p.check(lexer.TokStringLiteral, "") {
		format = p.advance().Text
		for p.match(lexer.TokPunct, ",") {
			args = append(args, p.parseExpr())
		}
	} else if !p.check(lexer.TokPunct, ")") {
		args = append(args, p.parseExpr())
		for p.match(lexer.TokPunct, ",") {
			args = append(args, p.parseExpr())
		}
	}
	p.expect(lexer.TokPunct, ")", "`)`")
	end := p.expect(lexer.TokPunct, ";", "`;`")
	return &ast.ConsoleStmt{Kind: kind, Format: format, Args: args, Span: span.Join(start.Span, end.Span)}
}

// ---- expressions (precedence climbing) ----

var binaryLevels = [][]struct {
	text string
	op   ast.BinaryOp
}{
	{{"||", ast.OpOr}},
	{{"&&", ast.OpAnd}},
	{{"|", ast.OpBitOr}},
	{{"^", ast.OpXor}},
	{{"&", ast.OpBitAnd}},
	{{"==", ast.OpEq}, {"!=", ast.OpNe}},
	{{"<", ast.OpLt}, {"<=", ast.OpLe}, {">", ast.OpGt}, {">=", ast.OpGe}},
	{{"<<", ast.OpShl}, {"<<w", ast.OpShlWrapped}, {">>", ast.OpShr}, {">>w", ast.OpShrWrapped}},
	{{"+", ast.OpAdd}, {"+w", ast.OpAddWrapped}, {"-", ast.OpSub}, {"-w", ast.OpSubWrapped}},
	{{"*", ast.OpMul}, {"*w", ast.OpMulWrapped}, {"/", ast.OpDiv}, {"/w", ast.OpDivWrapped}},
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseTernary()
}

// parseCondExpr parses an expression in a position (if/for condition or
// range bound) where a trailing `{` must start the following block rather
// than a circuit-construct literal.
func (p *parser) parseCondExpr() ast.Expr {
	saved := p.noStructLiteral
	p.noStructLiteral = true
	expr := p.parseExpr()
	p.noStructLiteral = saved
	return expr
}

func (p *parser) parseTernary() ast.Expr {
	cond := p.parseBinaryLevel(0)
	if p.match(lexer.TokPunct, "?") {
		then := p.parseExpr()
		p.expect(lexer.TokPunct, ":", "`:`")
		els := p.parseExpr()
		return &ast.TernaryExpr{Cond: cond, Then: then, Else: els, Span: span.Join(cond.ExprSpan(), els.ExprSpan())}
	}
	return cond
}

func (p *parser) parseBinaryLevel(level int) ast.Expr {
	if level >= len(binaryLevels) {
		return p.parsePow()
	}
	lhs := p.parseBinaryLevel(level + 1)
	for {
		matched := false
		for _, entry := range binaryLevels[level] {
			if p.check(lexer.TokPunct, entry.text) {
				p.advance()
				rhs := p.parseBinaryLevel(level + 1)
				lhs = &ast.BinaryExpr{Op: entry.op, LHS: lhs, RHS: rhs, Span: span.Join(lhs.ExprSpan(), rhs.ExprSpan())}
				matched = true
				break
			}
		}
		if !matched {
			return lhs
		}
	}
}

// parsePow handles `**`/`**w`, right-associative and binding tighter than
// the multiplicative level but looser than unary.
func (p *parser) parsePow() ast.Expr {
	base := p.parseUnary()
	if p.check(lexer.TokPunct, "**") || p.check(lexer.TokPunct, "**w") {
		op := ast.OpPow
		if p.peek().Text == "**w" {
			op = ast.OpPowWrapped
		}
		p.advance()
		exp := p.parsePow()
		return &ast.BinaryExpr{Op: op, LHS: base, RHS: exp, Span: span.Join(base.ExprSpan(), exp.ExprSpan())}
	}
	return base
}

func (p *parser) parseUnary() ast.Expr {
	switch {
	case p.check(lexer.TokPunct, "-"):
		start := p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.OpNeg, Operand: operand, Span: span.Join(start.Span, operand.ExprSpan())}
	case p.check(lexer.TokPunct, "!"):
		start := p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Op: ast.OpNot, Operand: operand, Span: span.Join(start.Span, operand.ExprSpan())}
	default:
		return p.parseCast()
	}
}

func (p *parser) parseCast() ast.Expr {
	expr := p.parsePostfix()
	for p.match(lexer.TokKeyword, "as") {
		target := p.parseType()
		expr = &ast.CastExpr{Operand: expr, TargetType: target, Span: expr.ExprSpan()}
	}
	return expr
}

func (p *parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch {
		case p.check(lexer.TokPunct, "."):
			p.advance()
			if p.check(lexer.TokIntLiteral, "") {
				idxTok := p.advance()
				idx, _ := strconv.Atoi(idxTok.Text)
				expr = &ast.TupleAccessExpr{Receiver: expr, Index: idx, Span: span.Join(expr.ExprSpan(), idxTok.Span)}
				continue
			}
			member := p.parseIdentifier()
			expr = &ast.CircuitAccessExpr{Receiver: expr, Member: member, Span: span.Join(expr.ExprSpan(), member.Span)}
		default:
			return expr
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch {
	case tok.Kind == lexer.TokIntLiteral:
		p.advance()
		return &ast.LiteralExpr{Literal: ast.Literal{Type: integerTypeOf(tok.Text), Text: tok.Text, Span: tok.Span}}

	case tok.Kind == lexer.TokBoolLiteral:
		p.advance()
		return &ast.LiteralExpr{Literal: ast.Literal{Type: types.BooleanType, Text: tok.Text, Span: tok.Span}}

	case tok.Kind == lexer.TokStringLiteral:
		p.advance()
		return &ast.LiteralExpr{Literal: ast.Literal{Type: types.StringType, Text: tok.Text, Span: tok.Span}}

	case tok.Kind == lexer.TokKeyword && (tok.Text == "abs" || tok.Text == "absw"):
		p.advance()
		operand := p.parseUnary()
		op := ast.OpAbs
		if tok.Text == "absw" {
			op = ast.OpAbsWrapped
		}
		return &ast.UnaryExpr{Op: op, Operand: operand, Span: span.Join(tok.Span, operand.ExprSpan())}

	case p.check(lexer.TokPunct, "("):
		p.advance()
		saved := p.noStructLiteral
		p.noStructLiteral = false
		expr := p.parseExpr()
		p.noStructLiteral = saved
		p.expect(lexer.TokPunct, ")", "`)`")
		return expr

	case tok.Kind == lexer.TokIdent:
		return p.parseIdentExprOrCallOrConstruct()

	default:
		p.handler.EmitErr(diagnostic.Parse, diagnostic.CodeUnexpectedToken, tok.Span,
			"expected an expression, found "+describeToken(tok), nil)
		p.advance()
		return &ast.LiteralExpr{Literal: ast.Literal{Type: types.Type{}, Text: "", Span: tok.Span}}
	}
}

func (p *parser) parseIdentExprOrCallOrConstruct() ast.Expr {
	name := p.parseIdentifier()

	if p.check(lexer.TokPunct, "(") {
		p.advance()
		saved := p.noStructLiteral
		p.noStructLiteral = false
		var args []ast.Expr
		for !p.check(lexer.TokPunct, ")") && !p.atEnd() {
			args = append(args, p.parseExpr())
			if !p.match(lexer.TokPunct, ",") {
				break
			}
		}
		p.noStructLiteral = saved
		end := p.expect(lexer.TokPunct, ")", "`)`")
		return &ast.CallExpr{Callee: name, Args: args, Span: span.Join(name.Span, end.Span)}
	}

	if p.check(lexer.TokPunct, "{") && !p.noStructLiteral {
		p.advance()
		saved := p.noStructLiteral
		p.noStructLiteral = false
		var members []ast.CircuitMemberInit
		for !p.check(lexer.TokPunct, "}") && !p.atEnd() {
			memberName := p.parseIdentifier()
			var memberExpr ast.Expr
			if p.match(lexer.TokPunct, ":") {
				memberExpr = p.parseExpr()
			}
			members = append(members, ast.CircuitMemberInit{Name: memberName, Expression: memberExpr})
			if !p.match(lexer.TokPunct, ",") {
				break
			}
		}
		p.noStructLiteral = saved
		end := p.expect(lexer.TokPunct, "}", "`}`")
		return &ast.CircuitConstructExpr{Name: name, Members: members, Span: span.Join(name.Span, end.Span)}
	}

	return &ast.IdentExpr{Name: name}
}

// integerTypeOf resolves a numeric literal token's declared type from its
// trailing suffix — an integer width (e.g. "42u8" -> U8) or one of the
// field/group/scalar suffixes the lexer validates via internal/fieldlit —
// defaulting to U64 when no suffix is present — the type checker still
// verifies the binding or context this literal is used in agrees.
func integerTypeOf(text string) types.Type {
	for _, suffix := range []string{"i128", "u128", "i64", "u64", "i32", "u32", "i16", "u16", "i8", "u8"} {
		if len(text) > len(suffix) && text[len(text)-len(suffix):] == suffix {
			k, _ := types.ParseKeyword(suffix)
			return types.Primitive(k)
		}
	}
	switch {
	case strings.HasSuffix(text, "field"):
		return types.FieldType
	case strings.HasSuffix(text, "scalar"):
		return types.ScalarType
	case strings.HasSuffix(text, "group"):
		return types.GroupType
	}
	return types.U64Type
}
