package lexer

import (
	"sort"
	"testing"
)

func specifiers(t *testing.T, src string) []string {
	t.Helper()
	l, err := NewTreeSitterLexer()
	if err != nil {
		t.Fatal(err)
	}
	specs, err := l.DependencySpecifiers("test.js", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(specs)
	return specs
}

func TestStaticImport(t *testing.T) {
	got := specifiers(t, `import foo from "./foo";`)
	want := []string{"./foo"}
	assertEqual(t, got, want)
}

func TestReexport(t *testing.T) {
	got := specifiers(t, `export { a } from "./a";`)
	assertEqual(t, got, []string{"./a"})
}

func TestDynamicImport(t *testing.T) {
	got := specifiers(t, `async function load() { await import("./lazy"); }`)
	assertEqual(t, got, []string{"./lazy"})
}

func TestRequireCall(t *testing.T) {
	got := specifiers(t, `const x = require("some-package");`)
	assertEqual(t, got, []string{"some-package"})
}

func TestMixedFile(t *testing.T) {
	got := specifiers(t, `
import a from "./a";
const b = require("./b");
export * from "./c";
import("./d").then(() => {});
`)
	assertEqual(t, got, []string{"./a", "./b", "./c", "./d"})
}

func TestIgnoresUnrelatedCalls(t *testing.T) {
	got := specifiers(t, `console.log("not a specifier"); somethingElse("./also-not");`)
	if len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func assertEqual(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
