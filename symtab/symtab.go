// Package symtab implements SIMPL-2021's two-scope symbol table: a global
// scope of subroutine names and, while inside a subroutine body, a current
// scope of that subroutine's locals and parameters. It is built on top of
// hashtable.Table.
package symtab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/whkbester/simplc/diag"
	"github.com/whkbester/simplc/hashtable"
	"github.com/whkbester/simplc/token"
)

// IdProp is the property record attached to a declared identifier.
type IdProp struct {
	Type ValType
	// Offset is the local-variable slot for a variable (1-based; slot 0 is
	// reserved for the synthetic main's argument array). Unused for
	// callables.
	Offset uint32
	// NParams and Params describe a callable's formal parameter types in
	// declaration order. Unused for variables.
	NParams uint32
	Params  []ValType
	// Pos is the identifier's declaration site, for --dump-symbols.
	Pos token.Pos
}

const defaultMaxLoad = 0.75

// SymbolTable holds the global scope plus, while a subroutine body is being
// parsed, the current (subroutine) scope and the global scope it displaced.
type SymbolTable struct {
	global     *hashtable.Table[string, *IdProp]
	current    *hashtable.Table[string, *IdProp]
	saved      *hashtable.Table[string, *IdProp]
	currOffset uint32
	maxLoad    float64
}

func (s *SymbolTable) newScope() *hashtable.Table[string, *IdProp] {
	return hashtable.New[string, *IdProp](s.maxLoad, shiftHash, keyEqual)
}

// New creates a symbol table with an empty global scope installed as the
// current scope (the implicit "main" scope at program level), using the
// built-in hash table load factor.
func New() *SymbolTable {
	return NewWithMaxLoad(defaultMaxLoad)
}

// NewWithMaxLoad is New with a caller-supplied hash table load factor, for
// callers (cmd/simplc) that load an override from config.
func NewWithMaxLoad(maxLoad float64) *SymbolTable {
	s := &SymbolTable{maxLoad: maxLoad}
	s.global = s.newScope()
	s.current = s.global
	s.currOffset = 1
	return s
}

// VariablesWidth returns the next free local-variable slot in the current
// scope. The parser reads this immediately before building an IdProp for a
// new variable, then calls Insert, which advances the counter.
func (s *SymbolTable) VariablesWidth() uint32 {
	return s.currOffset
}

// Insert adds id -> prop to the current scope. Returns false (refusing the
// insert) if id is already present in the current scope. On success, if
// prop.Type is a variable type, the current-scope offset counter advances.
func (s *SymbolTable) Insert(id string, prop *IdProp) bool {
	if err := s.current.Insert(id, prop); err != nil {
		return false
	}
	if prop.Type.IsVariable() {
		s.currOffset++
	}
	return true
}

// Find looks up id, searching the current scope first. If not found there
// and a saved (outer/global) scope exists, it is searched too, but a hit
// there is only visible if it denotes a callable: subroutine names traverse
// into nested scopes, outer variables do not.
func (s *SymbolTable) Find(id string) (*IdProp, bool) {
	if prop, ok := s.current.Search(id); ok {
		return prop, true
	}
	if s.saved != nil {
		if prop, ok := s.saved.Search(id); ok && prop.Type.IsCallable() {
			return prop, true
		}
	}
	return nil, false
}

// OpenSubroutine inserts id -> prop into the current (global) scope, and on
// success pushes a fresh empty scope as current, saving the displaced scope.
// The offset counter resets to 1 for the new scope. Returns whether the
// insert succeeded.
func (s *SymbolTable) OpenSubroutine(id string, prop *IdProp) bool {
	if !s.Insert(id, prop) {
		return false
	}
	s.saved = s.current
	s.current = s.newScope()
	s.currOffset = 1
	return true
}

// CloseSubroutine discards the current (subroutine) scope and reinstates the
// saved scope as current. The offset counter is left untouched; it belongs
// to whichever scope becomes current, so variables declared in the
// reinstated scope afterwards (the program body's locals, once every
// funcdef is closed) continue numbering from where the closed subroutine
// left off.
func (s *SymbolTable) CloseSubroutine() {
	s.current = s.saved
	s.saved = nil
}

type symtabEntry struct {
	name string
	prop *IdProp
}

// sortedGlobalEntries returns the global scope's entries sorted by name, for
// reproducible dump output.
func (s *SymbolTable) sortedGlobalEntries() []symtabEntry {
	var entries []symtabEntry
	s.global.Each(func(name string, prop *IdProp) {
		entries = append(entries, symtabEntry{name, prop})
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries
}

// describe renders a single entry as "name: type" for a variable or
// "name: (p1, p2, ...) -> type" for a callable; a procedure's return type
// reads "none".
func (e symtabEntry) describe() string {
	if e.prop.Type.IsCallable() {
		params := make([]string, len(e.prop.Params))
		for i, p := range e.prop.Params {
			params[i] = p.String()
		}
		return fmt.Sprintf("%s: (%s) -> %s", e.name, strings.Join(params, ", "), e.prop.Type.BaseType().String())
	}
	return fmt.Sprintf("%s: %s", e.name, e.prop.Type.String())
}

// String renders the global scope's entries, one per line, sorted by name.
func (s *SymbolTable) String() string {
	entries := s.sortedGlobalEntries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.describe()
	}
	return strings.Join(lines, "\n")
}

// Notices renders the global scope as a diag.List of informational notices,
// one per declared name, positioned at each identifier's declaration site --
// the form --dump-symbols actually prints, so a symbol dump reads like any
// other simplc diagnostic rather than a bespoke table.
func (s *SymbolTable) Notices(filename string) *diag.List {
	list := &diag.List{}
	for _, e := range s.sortedGlobalEntries() {
		list.AddNotice(diag.Notice{
			Pos:     diag.Position{Filename: filename, Line: e.prop.Pos.Line, Col: e.prop.Pos.Col},
			Message: e.describe(),
		})
	}
	return list
}
