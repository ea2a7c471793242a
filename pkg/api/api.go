// Package api provides the public, programmatic entry point for the
// circuit compiler's front end and mid end.
//
// For CLI usage, see cmd/vellumc.
package api

import (
	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/diagnostic"
	"github.com/vellum-lang/vellumc/internal/pipeline"
)

// Options controls which intermediate trees are captured; every pass
// always runs. Every field defaults to its zero value (false/nil) — callers
// that want the fully-processed tree with no snapshots can pass the zero
// Options.
type Options struct {
	// SpansEnabled is accepted but Compile does not read it: diagnostics
	// and snapshot trees carry source spans whether it is true or false.
	SpansEnabled bool

	// InitialInputAST, when non-nil, receives the tree exactly as parsed,
	// before type-checking.
	InitialInputAST *ast.Program

	// InitialAST, when non-nil, receives the tree after type-checking but
	// before constant folding.
	InitialAST *ast.Program

	// ConstantFoldedAST, when non-nil, receives the tree after the
	// flattener runs, before loop unrolling.
	ConstantFoldedAST *ast.Program

	// UnrolledAST, when non-nil, receives the tree after loop unrolling,
	// before dead-code elimination.
	UnrolledAST *ast.Program
}

// snapshotSink adapts Options' named-field snapshot pointers to the
// pipeline.Sink interface, by copying each named stage's tree into the
// field the caller supplied.
type snapshotSink struct {
	opts *Options
}

func (s snapshotSink) Accept(snap pipeline.Snapshot) {
	switch snap.Stage {
	case "parse":
		assign(s.opts.InitialInputAST, snap.Tree)
	case "typecheck":
		assign(s.opts.InitialAST, snap.Tree)
	case "flatten":
		assign(s.opts.ConstantFoldedAST, snap.Tree)
	case "unroll":
		assign(s.opts.UnrolledAST, snap.Tree)
	}
}

// assign copies src into *dst when dst is non-nil, the pointer-receiver
// trick that lets a caller opt into exactly the snapshots it wants without
// the sink needing to know about unused ones.
func assign(dst *ast.Program, src *ast.Program) {
	if dst == nil {
		return
	}
	*dst = *src
}

// Compile runs every pass over source in order and returns the final tree
// together with every diagnostic emitted along the way. A non-empty
// diagnostic.List does not necessarily mean Program is nil — earlier
// stages still return whatever tree they managed to build so a caller can
// report partial results.
func Compile(source string, opts Options) (*ast.Program, diagnostic.List) {
	result := pipeline.Compile(source, snapshotSink{opts: &opts})
	return result.Program, diagnostic.List(result.Diagnostics.Diagnostics())
}
