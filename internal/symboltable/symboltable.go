// Package symboltable implements the hierarchical scope tree that threads
// name→(type, const-ness, optional value) bindings across the pass
// pipeline: const/non-const variable tracking, function and circuit
// declarations, and block-scoped lookup.
package symboltable

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/vellum-lang/vellumc/internal/ast"
	"github.com/vellum-lang/vellumc/internal/span"
	"github.com/vellum-lang/vellumc/internal/types"
	"github.com/vellum-lang/vellumc/internal/value"
)

// VariableKind is a binding's const-ness.
type VariableKind uint8

const (
	Const VariableKind = iota
	Mut
	Input
)

func (k VariableKind) String() string {
	switch k {
	case Const:
		return "const"
	case Mut:
		return "mut"
	case Input:
		return "input"
	default:
		return "unknown"
	}
}

// VariableSymbol is one binding in a scope. Invariant: Value != nil implies
// VariableType == Const; Mode is meaningful only when VariableType == Input.
type VariableSymbol struct {
	Type         types.Type
	Span         span.Span
	VariableType VariableKind
	Mode         ast.Mode
	Value        *value.Value
}

// WithValue returns a copy of s bound to v and marked Const, satisfying the
// invariant atomically.
func (s VariableSymbol) WithValue(v value.Value) VariableSymbol {
	s.VariableType = Const
	s.Value = &v
	return s
}

// Deconstified returns a copy of s demoted to Mut with its value cleared,
// satisfying the invariant atomically.
func (s VariableSymbol) Deconstified() VariableSymbol {
	s.VariableType = Mut
	s.Value = nil
	return s
}

// DuplicateVariableError is returned by InsertVariable when name already
// exists in the current scope.
type DuplicateVariableError struct {
	Name string
	Span span.Span
}

func (e *DuplicateVariableError) Error() string {
	return fmt.Sprintf("duplicate variable %q", e.Name)
}

// Scope is one node of the hierarchical scope tree: a mapping of bindings,
// nested function scopes, circuit definitions, and an ordered list of
// child block scopes, plus a parent link. The root scope is the program.
type Scope struct {
	parent    *Scope
	variables map[string]VariableSymbol
	functions map[string]*Scope
	circuits  map[string]*ast.CircuitDecl
	children  []*Scope
}

// NewRootScope creates the program's root scope.
func NewRootScope() *Scope {
	return newScope(nil)
}

func newScope(parent *Scope) *Scope {
	return &Scope{
		parent:    parent,
		variables: make(map[string]VariableSymbol),
		functions: make(map[string]*Scope),
		circuits:  make(map[string]*ast.CircuitDecl),
	}
}

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// InsertVariable inserts entry under name in the current scope. It fails if
// name already exists in this scope (not an ancestor).
func (s *Scope) InsertVariable(name string, entry VariableSymbol) error {
	if _, exists := s.variables[name]; exists {
		return &DuplicateVariableError{Name: name, Span: entry.Span}
	}
	s.variables[name] = entry
	return nil
}

// LookupVariable searches the current scope then ancestors, returning the
// nearest binding. ok is false if no binding is found anywhere on the path
// to the root.
func (s *Scope) LookupVariable(name string) (VariableSymbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.variables[name]; ok {
			return v, true
		}
	}
	return VariableSymbol{}, false
}

// UpdateVariable replaces the entry named name in the scope that owns it
// (the current scope or an ancestor), returning false if no such binding
// exists anywhere on the path to the root.
func (s *Scope) UpdateVariable(name string, entry VariableSymbol) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.variables[name]; ok {
			cur.variables[name] = entry
			return true
		}
	}
	return false
}

// DeconstifyVariable ascends from s until name's binding is found and
// demotes it to Mut with its value cleared. Returns false if name has no
// binding reachable from s.
func (s *Scope) DeconstifyVariable(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.variables[name]; ok {
			cur.variables[name] = v.Deconstified()
			return true
		}
	}
	return false
}

// InsertFunction registers a function's own scope under name.
func (s *Scope) InsertFunction(name string, fnScope *Scope) error {
	if _, exists := s.functions[name]; exists {
		return &DuplicateVariableError{Name: name}
	}
	s.functions[name] = fnScope
	return nil
}

// GetFnScope returns the scope owned by the function named name, searching
// the current scope and ancestors.
func (s *Scope) GetFnScope(name string) (*Scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if fs, ok := cur.functions[name]; ok {
			return fs, true
		}
	}
	return nil, false
}

// InsertCircuit registers a circuit definition under name.
func (s *Scope) InsertCircuit(name string, def *ast.CircuitDecl) error {
	if _, exists := s.circuits[name]; exists {
		return &DuplicateVariableError{Name: name}
	}
	s.circuits[name] = def
	return nil
}

// GetCircuit resolves a circuit definition by name, searching the current
// scope and ancestors — resolution is always by name, never by pointer, so
// circuit definitions that mention each other have no cyclic ownership in
// the data model (SPEC_FULL.md §9).
func (s *Scope) GetCircuit(name string) (*ast.CircuitDecl, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if c, ok := cur.circuits[name]; ok {
			return c, true
		}
	}
	return nil, false
}

// PushBlockScope creates and returns a new child scope of s.
func (s *Scope) PushBlockScope() *Scope {
	child := newScope(s)
	s.children = append(s.children, child)
	return child
}

// PopBlockScope returns the parent of s, the inverse of PushBlockScope. It
// is the traversal cursor's responsibility to call this on block exit; the
// child scope itself is retained in s.parent.children for later passes
// that still need to address it (e.g. a snapshot sink).
func (s *Scope) PopBlockScope() *Scope {
	return s.parent
}

// Children returns s's child block scopes in creation order.
func (s *Scope) Children() []*Scope { return s.children }

// DeconstifyBuffer accumulates names scheduled for deconstification within
// one non-const block. Sorting and deduplicating before application
// guarantees a deterministic update order (SPEC_FULL.md §4.4/§9).
type DeconstifyBuffer struct {
	names []string
	seen  map[string]bool
}

// NewDeconstifyBuffer returns an empty buffer.
func NewDeconstifyBuffer() *DeconstifyBuffer {
	return &DeconstifyBuffer{seen: make(map[string]bool)}
}

// Schedule records name for deconstification, ignoring duplicates.
func (b *DeconstifyBuffer) Schedule(name string) {
	if b.seen[name] {
		return
	}
	b.seen[name] = true
	b.names = append(b.names, name)
}

// Empty reports whether nothing has been scheduled.
func (b *DeconstifyBuffer) Empty() bool { return len(b.names) == 0 }

// Apply sorts and deduplicates the buffered names (deduplication already
// happened at Schedule time; sorting happens here) and deconstifies each
// one starting the ascent from startScope — typically the parent of the
// block whose buffer this is, since the mutation happened in the block but
// the binding lives above it.
func (b *DeconstifyBuffer) Apply(startScope *Scope) {
	slices.Sort(b.names)
	for _, name := range b.names {
		startScope.DeconstifyVariable(name)
	}
	b.names = nil
	b.seen = make(map[string]bool)
}

// Names returns the currently buffered names, sorted, without applying
// them — useful for tests and diagnostics.
func (b *DeconstifyBuffer) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	slices.Sort(out)
	return out
}
