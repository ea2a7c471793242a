// Package pipeline composes the compiler's passes into the single linear
// sequence the language is defined around: parse, build the symbol table,
// type-check, constant-fold, unroll loops, eliminate dead code. Each stage
// consumes the (tree, symbol table) pair the previous one produced and
// hands the next one a fresh pair; no stage reaches back into an earlier
// one's work.
package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/dce"
	"github.com/vellum-lang/vellumc/internal/diagnostic"
	"github.com/vellum-lang/vellumc/internal/flatten"
	"github.com/vellum-lang/vellumc/internal/lexer"
	"github.com/vellum-lang/vellumc/internal/parser"
	"github.com/vellum-lang/vellumc/internal/symboltable"
	"github.com/vellum-lang/vellumc/internal/typecheck"
	"github.com/vellum-lang/vellumc/internal/unroll"
)

// Snapshot is one named checkpoint of the tree as it exists after a given
// stage. A Sink that records these lets a caller (the CLI's --emit-ast
// flags, or a test) inspect intermediate shapes without the pipeline
// itself knowing anything about file output.
type Snapshot struct {
	Stage string
	Tree  *ast.Program
}

// Sink receives one Snapshot per completed stage.
type Sink interface {
	Accept(Snapshot)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(Snapshot)

// Accept implements Sink.
func (f SinkFunc) Accept(s Snapshot) { f(s) }

// Result is the pipeline's final output: the fully-processed tree, its
// symbol table, and every diagnostic emitted across all stages.
type Result struct {
	Program     *ast.Program
	SymbolTable *symboltable.Scope
	Diagnostics *diagnostic.Handler
}

// Compile runs every stage over source in order, stopping early (after the
// stage that produced the failure) once a stage's diagnostics include an
// error — later stages generally assume a well-typed, fully-bound tree and
// would otherwise panic on the ill-formed input rather than produce a
// useful diagnostic of their own.
//
// sink may be nil; when non-nil, Accept is called once per completed
// stage, including the final one.
func Compile(source string, sink Sink) Result {
	log := logrus.WithField("component", "pipeline")
	h := diagnostic.NewHandler()

	tokens := lexer.Lex(source, h)
	if h.HadErrors() {
		log.Debug("lex stage reported errors, stopping before parse")
		return Result{Diagnostics: h}
	}

	prog, root := parser.Parse(tokens, h)
	emit(sink, "parse", prog)
	if h.HadErrors() {
		log.Debug("parse stage reported errors, stopping before type-check")
		return Result{Program: prog, SymbolTable: root, Diagnostics: h}
	}

	prog, root = typecheck.Run(prog, root, h)
	emit(sink, "typecheck", prog)
	if h.HadErrors() {
		log.Debug("type-check stage reported errors, stopping before flatten")
		return Result{Program: prog, SymbolTable: root, Diagnostics: h}
	}

	prog, root = flatten.Run(prog, root, h)
	emit(sink, "flatten", prog)
	if h.HadErrors() {
		log.Debug("flatten stage reported errors, stopping before unroll")
		return Result{Program: prog, SymbolTable: root, Diagnostics: h}
	}

	prog, root = unroll.Run(prog, root, h)
	emit(sink, "unroll", prog)
	if h.HadErrors() {
		log.Debug("unroll stage reported errors, stopping before dead-code elimination")
		return Result{Program: prog, SymbolTable: root, Diagnostics: h}
	}

	prog, root = dce.Run(prog, root, h)
	emit(sink, "dce", prog)

	return Result{Program: prog, SymbolTable: root, Diagnostics: h}
}

func emit(sink Sink, stage string, prog *ast.Program) {
	if sink == nil {
		return
	}
	sink.Accept(Snapshot{Stage: stage, Tree: prog})
}
