package writer

import (
	"strings"
	"testing"

	"github.com/segmentio/encoding/json"

	"github.com/bundlecraft/bundlecraft/internal/config"
	"github.com/bundlecraft/bundlecraft/internal/fs"
	"github.com/bundlecraft/bundlecraft/internal/graph"
)

func unmarshalTestMap(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func buildGraph() *graph.Graph {
	g := graph.NewGraph("/entry.js")
	g.Insert(&graph.Module{
		Path: "/entry.js",
		Body: "var a = require(\"./a\");\nconsole.log(a);",
		Deps: map[string]graph.Resolved{"./a": graph.Normal("/a.js")},
	})
	g.Insert(&graph.Module{
		Path: "/a.js",
		Body: "module.exports = 1;",
		Deps: map[string]graph.Resolved{},
	})
	return g
}

func TestBuildIncludesEveryModuleOnce(t *testing.T) {
	w := New(&config.InputOptions{OutputPath: "/out/bundle.js", Map: config.MapModeNone})
	text, mapJSON, err := w.Build(nil, buildGraph())
	if err != nil {
		t.Fatal(err)
	}
	if mapJSON != nil {
		t.Errorf("expected no map in MapModeNone, got %d bytes", len(mapJSON))
	}
	if !strings.Contains(text, `modules["/entry.js"]`) {
		t.Errorf("missing entry module block")
	}
	if !strings.Contains(text, `modules["/a.js"]`) {
		t.Errorf("missing dependency module block")
	}
	if !strings.Contains(text, `__require("/entry.js");`) {
		t.Errorf("missing entry point call")
	}
}

func TestBuildFileModeAppendsSourceMappingURL(t *testing.T) {
	w := New(&config.InputOptions{OutputPath: "/out/bundle.js", Map: config.MapModeFile})
	text, mapJSON, err := w.Build(nil, buildGraph())
	if err != nil {
		t.Fatal(err)
	}
	if mapJSON == nil {
		t.Fatal("expected a map in MapModeFile")
	}
	if !strings.Contains(text, "//# sourceMappingURL=bundle.js.map") {
		t.Errorf("bundle text = %q", text)
	}
}

func TestBuildInlineModeEmbedsBase64Map(t *testing.T) {
	w := New(&config.InputOptions{OutputPath: "/out/bundle.js", Map: config.MapModeInline})
	text, _, err := w.Build(nil, buildGraph())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "//# sourceMappingURL=data:application/json;base64,") {
		t.Errorf("bundle text = %q", text)
	}
}

// Invariant: the mappings string has as many ';' as there are output lines
// minus one. The bundle text has one extra trailing line (the
// sourceMappingURL comment) plus a final empty element from the trailing
// newline, neither of which the mappings builder ever sees.
func TestMappingsSemicolonCountMatchesLineCount(t *testing.T) {
	w := New(&config.InputOptions{OutputPath: "/out/bundle.js", Map: config.MapModeFile})
	text, mapJSON, err := w.Build(nil, buildGraph())
	if err != nil {
		t.Fatal(err)
	}

	var m struct {
		Mappings string `json:"mappings"`
	}
	if err := unmarshalTestMap(mapJSON, &m); err != nil {
		t.Fatal(err)
	}

	textLines := strings.Split(text, "\n")
	mappedLineCount := len(textLines) - 2 // drop the comment line and the trailing ""
	wantSemicolons := mappedLineCount - 1

	if got := strings.Count(m.Mappings, ";"); got != wantSemicolons {
		t.Errorf("mappings has %d ';', want %d (for %d mapped lines)", got, wantSemicolons, mappedLineCount)
	}
}

func TestRelativizeSourcesAgainstOutputDirectory(t *testing.T) {
	fsys := fs.MockFS(map[string]string{
		"/project/entry.js": "",
		"/project/a.js":     "",
	}, nil)
	w := New(&config.InputOptions{OutputPath: "/project/out/bundle.js", Map: config.MapModeFile})
	_, mapJSON, err := w.Build(fsys, buildGraph())
	if err != nil {
		t.Fatal(err)
	}
	var m struct {
		Sources []string `json:"sources"`
	}
	if err := unmarshalTestMap(mapJSON, &m); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range m.Sources {
		if s == "../../entry.js" {
			found = true
		}
	}
	if !found {
		t.Errorf("sources = %v, want a relativized ../../entry.js", m.Sources)
	}
}
