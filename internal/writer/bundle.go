// Package writer emits the concatenated bundle text and its accompanying
// source map from a finished module graph.
package writer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bundlecraft/bundlecraft/internal/config"
	"github.com/bundlecraft/bundlecraft/internal/fs"
	"github.com/bundlecraft/bundlecraft/internal/graph"
)

const preamble = `(function() {
var modules = {};
var cache = {};
function __require(id) {
  if (Object.prototype.hasOwnProperty.call(cache, id)) { return cache[id].exports; }
  var module = cache[id] = { exports: {} };
  modules[id](__require, __ignore, __external, module, module.exports);
  return module.exports;
}
function __ignore() { return {}; }
function __external(id) {
  if (typeof require === "function") { return require(id); }
  throw new Error("external module not available: " + id);
}
`

// emittedLine is one physical line of bundle output. sourceIndex is -1 for
// lines that don't correspond to any original file (the runtime preamble and
// the per-module require-shim wrapper); those still get a mapping segment
// per the writer's "exactly one segment per output line" invariant, just
// pinned to (0, 0, 0).
type emittedLine struct {
	text        string
	sourceIndex int
	sourceLine  int
}

// Writer renders a Graph to bundle text plus a source map.
type Writer struct {
	options *config.InputOptions
}

func New(options *config.InputOptions) *Writer {
	return &Writer{options: options}
}

// Build performs the deterministic traversal and emission, returning the
// bundle text and (when map output is enabled) the encoded source map.
// fsys is used only to relativize source paths against the output
// directory; pass nil to keep them absolute (tests that don't care about
// relativization).
func (w *Writer) Build(fsys fs.FS, g *graph.Graph) (bundleText string, mapJSON []byte, err error) {
	order := traverse(g)

	var lines []emittedLine
	for _, l := range strings.Split(preamble, "\n") {
		lines = append(lines, emittedLine{text: l, sourceIndex: -1})
	}
	// strings.Split leaves an empty trailing element for preamble's final
	// "\n"; drop it since the loop below adds its own line breaks.
	lines = lines[:len(lines)-1]

	sources := make([]string, len(order))
	sourcesContent := make([]string, len(order))

	for i, path := range order {
		module, _ := g.Get(path)
		sources[i] = w.relativizeSource(fsys, path)
		sourcesContent[i] = module.Body

		lines = append(lines, emittedLine{sourceIndex: -1, text: fmt.Sprintf("modules[%q] = function(__require, __ignore, __external, module, exports) {", path)})
		lines = append(lines, emittedLine{sourceIndex: -1, text: "var require = function(__spec) {"})
		lines = append(lines, emittedLine{sourceIndex: -1, text: "switch (__spec) {"})
		for _, specifier := range sortedSpecifiers(module.Deps) {
			lines = append(lines, emittedLine{sourceIndex: -1, text: requireCase(specifier, module.Deps[specifier])})
		}
		lines = append(lines, emittedLine{sourceIndex: -1, text: "}"})
		lines = append(lines, emittedLine{sourceIndex: -1, text: `throw new Error("unresolved specifier: " + __spec);`})
		lines = append(lines, emittedLine{sourceIndex: -1, text: "};"})

		for bodyLineIndex, bodyLine := range strings.Split(module.Body, "\n") {
			lines = append(lines, emittedLine{text: bodyLine, sourceIndex: i, sourceLine: bodyLineIndex})
		}

		lines = append(lines, emittedLine{sourceIndex: -1, text: "};"})
	}

	entryLine := fmt.Sprintf("__require(%q);", g.EntryPath)
	lines = append(lines, emittedLine{sourceIndex: -1, text: entryLine})
	lines = append(lines, emittedLine{sourceIndex: -1, text: "})();"})

	var text strings.Builder
	mappings := newMappingsBuilder()
	for _, l := range lines {
		text.WriteString(l.text)
		text.WriteByte('\n')

		mappings.AddLine()
		sourceIndex := l.sourceIndex
		if sourceIndex < 0 {
			sourceIndex = 0
		}
		mappings.AddSegment(sourceIndex, l.sourceLine, 0)
	}

	if w.options.Map == config.MapModeNone {
		return text.String(), nil, nil
	}

	mapJSON, err = encodeSourceMap(w.options.OutputPath, sources, sourcesContent, mappings.String())
	if err != nil {
		return "", nil, err
	}

	if w.options.Map == config.MapModeInline {
		text.WriteString(inlineSourceMapComment(mapJSON))
		return text.String(), mapJSON, nil
	}

	text.WriteString(fileSourceMapComment(w.mapFileName()))
	return text.String(), mapJSON, nil
}

// relativizeSource expresses path relative to the output bundle's
// directory, per the "sources ... relativized to the bundle's directory"
// format requirement. A nil fsys (pure-text callers, mainly tests) or a
// failed Rel leaves the path untouched.
func (w *Writer) relativizeSource(fsys fs.FS, path string) string {
	if fsys == nil || w.options.OutputPath == "" {
		return path
	}
	rel, ok := fsys.Rel(fsys.Dir(w.options.OutputPath), path)
	if !ok {
		return path
	}
	return rel
}

// WriteFiles renders the bundle and writes it (and, in file map mode, the
// sibling .map file) through fsys.
func (w *Writer) WriteFiles(fsys fs.FS, g *graph.Graph) error {
	text, mapJSON, err := w.Build(fsys, g)
	if err != nil {
		return err
	}
	if err := fsys.WriteFile(w.options.OutputPath, []byte(text)); err != nil {
		return err
	}
	if w.options.Map == config.MapModeFile {
		return fsys.WriteFile(w.mapPath(fsys), mapJSON)
	}
	return nil
}

func (w *Writer) mapPath(fsys fs.FS) string {
	if w.options.MapPath != "" {
		return w.options.MapPath
	}
	return w.options.OutputPath + ".map"
}

func (w *Writer) mapFileName() string {
	if w.options.MapPath != "" {
		return baseName(w.options.MapPath)
	}
	return baseName(w.options.OutputPath) + ".map"
}

// baseName avoids threading an FS into the pure-text Build path just for a
// basename computation; bundle and map always live side by side, so a naive
// slash-split is equivalent to the real Base for every path this writer
// produces.
func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func requireCase(specifier string, resolved graph.Resolved) string {
	switch resolved.Kind {
	case graph.ResolvedIgnore:
		return fmt.Sprintf("case %q: return __ignore();", specifier)
	case graph.ResolvedExternal:
		return fmt.Sprintf("case %q: return __external(%q);", specifier, resolved.Path)
	default:
		return fmt.Sprintf("case %q: return __require(%q);", specifier, resolved.Path)
	}
}

func sortedSpecifiers(deps map[string]graph.Resolved) []string {
	keys := make([]string, 0, len(deps))
	for k := range deps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// traverse performs a stable depth-first walk from the entry, visiting each
// Normal dependency in lexicographic order of its specifier string, per the
// writer's deterministic emission-order contract.
func traverse(g *graph.Graph) []string {
	var order []string
	visited := make(map[string]bool)

	var visit func(path string)
	visit = func(path string) {
		if visited[path] {
			return
		}
		visited[path] = true
		order = append(order, path)

		module, ok := g.Get(path)
		if !ok {
			return
		}
		for _, specifier := range sortedSpecifiers(module.Deps) {
			dep := module.Deps[specifier]
			if dep.Kind == graph.ResolvedNormal {
				visit(dep.Path)
			}
		}
	}

	visit(g.EntryPath)
	return order
}
