package lexer

import (
	"embed"
	"fmt"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsJavascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

//go:embed queries/dependencies.scm
var queryFiles embed.FS

var language = ts.NewLanguage(tsJavascript.Language())

var parserPool = sync.Pool{
	New: func() any {
		parser := ts.NewParser()
		if err := parser.SetLanguage(language); err != nil {
			panic("lexer: failed to set javascript language: " + err.Error())
		}
		return parser
	},
}

func getParser() *ts.Parser {
	return parserPool.Get().(*ts.Parser)
}

func putParser(p *ts.Parser) {
	p.Reset()
	parserPool.Put(p)
}

// TreeSitterLexer implements DependencyLexer over tree-sitter-javascript. A
// single compiled Query is shared across calls; each call gets its own
// QueryCursor, matching the pool-per-parser / cursor-per-call split used
// elsewhere in the example corpus's tree-sitter wrappers.
type TreeSitterLexer struct {
	query *ts.Query
}

func NewTreeSitterLexer() (*TreeSitterLexer, error) {
	source, err := queryFiles.ReadFile("queries/dependencies.scm")
	if err != nil {
		return nil, fmt.Errorf("lexer: reading embedded query: %w", err)
	}
	query, queryErr := ts.NewQuery(language, string(source))
	if queryErr != nil {
		return nil, fmt.Errorf("lexer: compiling dependency query: %w", queryErr)
	}
	return &TreeSitterLexer{query: query}, nil
}

func (l *TreeSitterLexer) DependencySpecifiers(path string, contents []byte) ([]string, error) {
	parser := getParser()
	defer putParser(parser)

	tree := parser.Parse(contents, nil)
	if tree == nil {
		return nil, fmt.Errorf("lexer: failed to parse %s", path)
	}
	defer tree.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var specifiers []string
	matches := cursor.Matches(l.query, tree.RootNode(), contents)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			text := capture.Node.Utf8Text(contents)
			if spec, ok := unquote(text); ok {
				specifiers = append(specifiers, spec)
			}
		}
	}
	return specifiers, nil
}

// unquote strips the surrounding quote characters tree-sitter-javascript
// leaves on a string node's text; require.fn captures (the bare "require"
// identifier, used only for the #eq? predicate) never reach here since they
// aren't string nodes and unquote rejects anything without matching quotes.
func unquote(text string) (string, bool) {
	if len(text) < 2 {
		return "", false
	}
	first, last := text[0], text[len(text)-1]
	if first != last || (first != '"' && first != '\'' && first != '`') {
		return "", false
	}
	return text[1 : len(text)-1], true
}
