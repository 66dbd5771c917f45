// Package template defines the parsed-template record and the
// insertion-order-preserving store that holds every template reachable by
// name (loaded depth-first as apply-template statements are parsed), plus
// the template Description schema. It sits below the parser, renderer, and
// description extractor so all three share one notion of what a "template"
// and a "description" are without an import cycle.
package template

import (
	"github.com/motif-lang/motif/ast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Template is a parsed template: its owned source text, its origin
// (filesystem path, or a synthetic name for string-parsed templates), the
// root Block of its AST, and an optional Description attached later by the
// description extractor or supplied externally. Two Templates are equal
// iff their source texts are equal.
type Template struct {
	Source      string
	Origin      string
	Root        *ast.Block
	Description *Description
}

// Equal compares two templates by source text only, per the data model's
// equality rule.
func (t *Template) Equal(other *Template) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Source == other.Source
}

// Store is an insertion-order-preserving name->Template mapping. Parsing
// mutates it as apply-template statements force resolution of child
// templates; the renderer only reads from it.
type Store struct {
	m *orderedmap.OrderedMap[string, *Template]
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{m: orderedmap.New[string, *Template]()}
}

// Get looks up a template by name.
func (s *Store) Get(name string) (*Template, bool) {
	return s.m.Get(name)
}

// Has reports whether name is already loaded, for the "re-entry is a
// no-op" rule governing recursive apply-template resolution.
func (s *Store) Has(name string) bool {
	_, ok := s.m.Get(name)
	return ok
}

// Set inserts or replaces the template at name.
func (s *Store) Set(name string, t *Template) {
	s.m.Set(name, t)
}

// Names returns every stored template name in insertion order.
func (s *Store) Names() []string {
	names := make([]string, 0, s.m.Len())
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Len reports how many templates are stored.
func (s *Store) Len() int { return s.m.Len() }
