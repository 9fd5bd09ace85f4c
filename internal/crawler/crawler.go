// Package crawler walks the dependency graph from an entry point, resolving
// and reading modules concurrently until fixed point. It mirrors the
// teacher's scan phase (a work counter plus a shared result channel) but
// expresses the bounded worker pool and cooperative cancellation through
// golang.org/x/sync/errgroup instead of a hand-rolled channel/counter pair.
package crawler

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/bundlecraft/bundlecraft/internal/config"
	"github.com/bundlecraft/bundlecraft/internal/fs"
	"github.com/bundlecraft/bundlecraft/internal/graph"
	"github.com/bundlecraft/bundlecraft/internal/lexer"
	"github.com/bundlecraft/bundlecraft/internal/resolver"
)

// LexError wraps a rejection from the source lexer.
type LexError struct {
	Path  string
	Cause error
}

func (e *LexError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Cause) }
func (e *LexError) Unwrap() error { return e.Cause }

// Io wraps a filesystem error encountered while reading a module's source.
type Io struct {
	Path  string
	Cause error
}

func (e *Io) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Cause) }
func (e *Io) Unwrap() error { return e.Cause }

// Crawler drives the resolver and lexer over the reachable module set.
type Crawler struct {
	fs       fs.FS
	resolver *resolver.Resolver
	lexer    lexer.DependencyLexer
	options  *config.InputOptions
}

func New(fsys fs.FS, r *resolver.Resolver, lex lexer.DependencyLexer, options *config.InputOptions) *Crawler {
	return &Crawler{fs: fsys, resolver: r, lexer: lex, options: options}
}

// Crawl builds the complete Module graph reachable from options.EntryPath.
// The first fatal error from any worker stops new dispatch; in-flight
// workers still complete, then the error is returned (section 5's
// cooperative-cancellation contract, which is exactly what
// errgroup.WithContext already implements).
func (c *Crawler) Crawl(ctx context.Context) (*graph.Graph, error) {
	g := graph.NewGraph(c.options.EntryPath)

	group, groupCtx := errgroup.WithContext(ctx)
	limit := c.options.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	group.SetLimit(limit)

	var dispatch func(path string)
	dispatch = func(path string) {
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return nil
			default:
			}
			return c.visit(groupCtx, path, g, dispatch)
		})
	}

	dispatch(c.options.EntryPath)

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}

// visit reads and lexes one module, resolves every specifier it references,
// and inserts the finished Module. Two calls may legitimately race to visit
// the same path (graph.Has below is a best-effort check, not a lock); both
// do full duplicate work and graph.Insert discards the loser, per the
// concurrency contract in section 5.
func (c *Crawler) visit(ctx context.Context, path string, g *graph.Graph, dispatch func(string)) error {
	contents, err := c.fs.ReadFile(path)
	if err != nil {
		return &Io{Path: path, Cause: err}
	}

	specifiers, err := c.lexer.DependencySpecifiers(path, []byte(contents))
	if err != nil {
		return &LexError{Path: path, Cause: err}
	}

	deps := make(map[string]graph.Resolved, len(specifiers))
	for _, specifier := range specifiers {
		resolved, err := c.resolver.Resolve(path, specifier)
		if err != nil {
			return err
		}
		deps[specifier] = resolved

		if resolved.Kind == graph.ResolvedNormal && !g.Has(resolved.Path) {
			select {
			case <-ctx.Done():
			default:
				dispatch(resolved.Path)
			}
		}
	}

	g.Insert(&graph.Module{Path: path, Body: contents, Deps: deps})
	return nil
}
