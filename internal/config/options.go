// Package config holds the InputOptions value that is threaded through the
// resolver, crawler, and writer. It is deliberately a plain struct: the CLI
// front end (out of scope per the spec) is the only thing that populates it,
// and there is no multi-source configuration problem here — no env/file/flag
// layering to reconcile — that would justify a configuration library.
package config

// MapMode selects how the Writer emits the source map.
type MapMode uint8

const (
	MapModeNone MapMode = iota
	MapModeInline
	MapModeFile
)

// InputOptions mirrors the spec's InputOptions record.
type InputOptions struct {
	// ForBrowser applies the nearest enclosing manifest's "browser"
	// substitution map during resolution.
	ForBrowser bool

	// ES6Syntax recognizes ".mjs" as a valid implicit extension.
	ES6Syntax bool

	// ES6SyntaxEverywhere treats every file as potentially using module
	// syntax. Nothing reads it after the CLI sets it: the resolver doesn't
	// branch on it, and the DependencyLexer interface receives only a path and
	// the file contents, so the tree-sitter lexer scans every file for both
	// import and require sites regardless.
	ES6SyntaxEverywhere bool

	// External is the set of bare module names forced to the External
	// resolution outcome.
	External map[string]bool

	// EntryPath is the absolute path of the entry script.
	EntryPath string

	// OutputPath is where the bundle text is written.
	OutputPath string

	// Map selects inline, file, or no source map output.
	Map MapMode

	// MapPath is the sibling path to write the map to when Map is
	// MapModeFile. If empty, it defaults to OutputPath + ".map".
	MapPath string

	// Concurrency bounds the crawler's worker pool. Zero means "use
	// runtime.GOMAXPROCS(0)".
	Concurrency int
}

// ExtensionOrder returns the implicit extensions tried by LOAD_AS_FILE, in
// priority order.
func (o *InputOptions) ExtensionOrder() []string {
	if o.ES6Syntax {
		return []string{".mjs", ".js", ".json"}
	}
	return []string{".js", ".json"}
}

func (o *InputOptions) IsExternal(name string) bool {
	return o.External != nil && o.External[name]
}
