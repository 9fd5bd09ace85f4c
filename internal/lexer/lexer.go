// Package lexer extracts dependency specifiers from source files. The
// bundler core depends only on the DependencyLexer interface; this package's
// tree-sitter-backed implementation is the concrete default wired by
// cmd/bundle, kept swappable per the spec's "external collaborators" design
// note.
package lexer

// DependencyLexer yields the list of specifier strings a file's
// require()/import/export-from sites reference. It is a single-method trait
// so the crawler never depends on a concrete parser.
type DependencyLexer interface {
	DependencySpecifiers(path string, contents []byte) ([]string, error)
}
