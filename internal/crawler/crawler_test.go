package crawler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bundlecraft/bundlecraft/internal/config"
	"github.com/bundlecraft/bundlecraft/internal/fs"
	"github.com/bundlecraft/bundlecraft/internal/graph"
	"github.com/bundlecraft/bundlecraft/internal/resolver"
)

// stubLexer returns a fixed dependency list per path, so crawler tests don't
// need real JavaScript source text.
type stubLexer struct {
	deps map[string][]string
}

func (s *stubLexer) DependencySpecifiers(path string, _ []byte) ([]string, error) {
	return s.deps[path], nil
}

func TestCrawlLinearChain(t *testing.T) {
	defer goleak.VerifyNone(t)

	files := map[string]string{
		"/entry.js": "",
		"/a.js":     "",
		"/b.js":     "",
	}
	opts := &config.InputOptions{EntryPath: "/entry.js"}
	fsys := fs.MockFS(files, nil)
	r := resolver.New(fsys, opts)
	lex := &stubLexer{deps: map[string][]string{
		"/entry.js": {"./a"},
		"/a.js":     {"./b"},
		"/b.js":     {},
	}}

	c := New(fsys, r, lex, opts)
	g, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, g.Len())
	entry, ok := g.Get("/entry.js")
	require.True(t, ok)
	assert.Equal(t, graph.Normal("/a.js"), entry.Deps["./a"])
}

func TestCrawlDiamondDependencyInsertsEachFileOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	files := map[string]string{
		"/entry.js":  "",
		"/left.js":   "",
		"/right.js":  "",
		"/shared.js": "",
	}
	opts := &config.InputOptions{EntryPath: "/entry.js"}
	fsys := fs.MockFS(files, nil)
	r := resolver.New(fsys, opts)
	lex := &stubLexer{deps: map[string][]string{
		"/entry.js":  {"./left", "./right"},
		"/left.js":   {"./shared"},
		"/right.js":  {"./shared"},
		"/shared.js": {},
	}}

	c := New(fsys, r, lex, opts)
	g, err := c.Crawl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
}

func TestCrawlStopsOnFirstFatalError(t *testing.T) {
	defer goleak.VerifyNone(t)

	files := map[string]string{
		"/entry.js": "",
		"/ok.js":    "",
	}
	opts := &config.InputOptions{EntryPath: "/entry.js"}
	fsys := fs.MockFS(files, nil)
	r := resolver.New(fsys, opts)
	lex := &stubLexer{deps: map[string][]string{
		"/entry.js": {"./ok", "./missing"},
		"/ok.js":    {},
	}}

	c := New(fsys, r, lex, opts)
	_, err := c.Crawl(context.Background())
	require.Error(t, err)
	_, ok := err.(*resolver.ResolveFailed)
	assert.True(t, ok, "want *resolver.ResolveFailed, got %T: %v", err, err)
}

func TestCrawlIgnoreAndExternalAreNotEnqueued(t *testing.T) {
	defer goleak.VerifyNone(t)

	files := map[string]string{
		"/entry.js":     "",
		"/package.json": `{"browser": {"ignored-lib": false}}`,
	}
	opts := &config.InputOptions{
		EntryPath:  "/entry.js",
		ForBrowser: true,
		External:   map[string]bool{"some-lib": true},
	}
	fsys := fs.MockFS(files, nil)
	r := resolver.New(fsys, opts)
	lex := &stubLexer{deps: map[string][]string{
		"/entry.js": {"some-lib", "ignored-lib"},
	}}

	c := New(fsys, r, lex, opts)
	g, err := c.Crawl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())

	entry, _ := g.Get("/entry.js")
	assert.Equal(t, graph.External("some-lib"), entry.Deps["some-lib"])
	assert.Equal(t, graph.Ignore(), entry.Deps["ignored-lib"])
}
