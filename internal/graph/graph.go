// Package graph holds the data model produced by the crawler and consumed by
// the writer: the Resolved outcome of a specifier lookup, a Module's
// dependency map, and the Graph that ties them together around an entry path.
package graph

import "sync"

// ResolvedKind tags the outcome of resolving one specifier.
type ResolvedKind uint8

const (
	// ResolvedNormal carries an absolute, canonical path to include in the
	// bundle.
	ResolvedNormal ResolvedKind = iota
	// ResolvedIgnore means the module is replaced by an empty object at
	// runtime.
	ResolvedIgnore
	// ResolvedExternal means the module is preserved as a runtime lookup
	// rather than inlined.
	ResolvedExternal
)

// Resolved is the tagged outcome of resolving a specifier. Path is only
// meaningful when Kind is ResolvedNormal or ResolvedExternal (for External,
// Path holds the original specifier text, since there is nothing on disk to
// canonicalize).
type Resolved struct {
	Kind ResolvedKind
	Path string
}

func Normal(path string) Resolved   { return Resolved{Kind: ResolvedNormal, Path: path} }
func Ignore() Resolved              { return Resolved{Kind: ResolvedIgnore} }
func External(path string) Resolved { return Resolved{Kind: ResolvedExternal, Path: path} }

// Module is one file included in the bundle. OriginalSource is only set when
// Body differs from what was read off disk; nothing in this bundler
// transforms module bodies beyond trivial wrapper insertion (the writer does
// that at emission time, not here), so in practice OriginalSource stays nil.
type Module struct {
	Path           string
	Body           string
	OriginalSource *string
	Deps           map[string]Resolved
}

// Graph is the complete set of modules discovered from an entry point, keyed
// by canonical absolute path.
type Graph struct {
	EntryPath string

	mutex   sync.Mutex
	modules map[string]*Module
}

func NewGraph(entryPath string) *Graph {
	return &Graph{EntryPath: entryPath, modules: make(map[string]*Module)}
}

// Insert adds module if its path isn't already present and reports whether
// this call was the one that inserted it. The crawler relies on this
// insert-if-absent semantics to let duplicate concurrent resolutions of the
// same path race harmlessly: both produce an identical Module, and the loser
// is simply discarded.
func (g *Graph) Insert(module *Module) (inserted bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if _, ok := g.modules[module.Path]; ok {
		return false
	}
	g.modules[module.Path] = module
	return true
}

// Has reports whether path is already a node in the graph.
func (g *Graph) Has(path string) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	_, ok := g.modules[path]
	return ok
}

func (g *Graph) Get(path string) (*Module, bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	m, ok := g.modules[path]
	return m, ok
}

func (g *Graph) Len() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.modules)
}

// Entry returns the entry module. It panics if called before the entry has
// been inserted, since every other traversal assumes it exists.
func (g *Graph) Entry() *Module {
	m, ok := g.Get(g.EntryPath)
	if !ok {
		panic("graph: entry module not yet inserted")
	}
	return m
}
