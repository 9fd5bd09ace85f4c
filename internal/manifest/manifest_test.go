package manifest

import "testing"

func TestDefaultMain(t *testing.T) {
	info, err := Parse("/pkg/package.json", []byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if info.Main != "./index" {
		t.Errorf("Main = %q, want ./index", info.Main)
	}
	if len(info.Browser) != 0 {
		t.Errorf("Browser = %v, want empty", info.Browser)
	}
}

// Round-trip scenario 3: parsing {"browser": "simple"} with a default main
// yields a substitution map {"./index" -> Replace("./simple")}.
func TestStringBrowserDefaultsToMain(t *testing.T) {
	info, err := Parse("/pkg/package.json", []byte(`{"browser": "simple"}`))
	if err != nil {
		t.Fatal(err)
	}
	want := Replace("./simple")
	got, ok := info.Browser["./index"]
	if !ok {
		t.Fatalf("no substitution for ./index, got %v", info.Browser)
	}
	if got != want {
		t.Errorf("Browser[./index] = %+v, want %+v", got, want)
	}
}

func TestStringBrowserWithExplicitMain(t *testing.T) {
	info, err := Parse("/pkg/package.json", []byte(`{"main": "lib/start", "browser": "lib/start-browser"}`))
	if err != nil {
		t.Fatal(err)
	}
	if info.Main != "./lib/start" {
		t.Fatalf("Main = %q", info.Main)
	}
	got, ok := info.Browser["./lib/start"]
	if !ok || got != Replace("./lib/start-browser") {
		t.Errorf("Browser[./lib/start] = %+v, ok=%v", got, ok)
	}
}

func TestObjectBrowserMixedValues(t *testing.T) {
	info, err := Parse("/pkg/package.json", []byte(`{
		"browser": {
			"./ignore-files/file-bare-noext": false,
			"./alternate-main-rel": "./alternate-main-rel/main-browser",
			"some-package": "other-package",
			"disabled-package": false
		}
	}`))
	if err != nil {
		t.Fatal(err)
	}

	if sub, ok := info.Browser["./ignore-files/file-bare-noext"]; !ok || !sub.IsIgnore {
		t.Errorf("ignore entry = %+v, ok=%v", sub, ok)
	}
	if sub, ok := info.Browser["./alternate-main-rel"]; !ok || sub != Replace("./alternate-main-rel/main-browser") {
		t.Errorf("relative entry = %+v, ok=%v", sub, ok)
	}
	if sub, ok := info.Browser["some-package"]; !ok || sub != Replace("other-package") {
		t.Errorf("bare entry = %+v, ok=%v", sub, ok)
	}
	if sub, ok := info.Browser["disabled-package"]; !ok || !sub.IsIgnore {
		t.Errorf("disabled-package entry = %+v, ok=%v", sub, ok)
	}
}

func TestBrowserTrueIsMalformed(t *testing.T) {
	_, err := Parse("/pkg/package.json", []byte(`{"browser": {"x": true}}`))
	if _, ok := err.(*ManifestMalformed); !ok {
		t.Fatalf("err = %v, want *ManifestMalformed", err)
	}
}

func TestBrowserNumberIsMalformed(t *testing.T) {
	_, err := Parse("/pkg/package.json", []byte(`{"browser": {"x": 5}}`))
	if _, ok := err.(*ManifestMalformed); !ok {
		t.Fatalf("err = %v, want *ManifestMalformed", err)
	}
}

func TestBrowserNullYieldsEmptyMap(t *testing.T) {
	info, err := Parse("/pkg/package.json", []byte(`{"browser": null}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Browser) != 0 {
		t.Errorf("Browser = %v, want empty", info.Browser)
	}
}

func TestNormalizeRelativeKeyCollapsesDotSegments(t *testing.T) {
	cases := map[string]string{
		"index":        "./index",
		"./index":      "./index",
		"./a/../b":     "./b",
		"./a/./b":      "./a/b",
		"/abs/path":    "/abs/path",
		"lib/start":    "./lib/start",
		"../sibling":   "../sibling",
	}
	for in, want := range cases {
		if got := normalizeRelativeKey(in); got != want {
			t.Errorf("normalizeRelativeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsPackagePath(t *testing.T) {
	bare := []string{"lodash", "@scope/name", "a/b"}
	notBare := []string{".", "..", "./x", "../x", "/x"}
	for _, s := range bare {
		if !IsPackagePath(s) {
			t.Errorf("IsPackagePath(%q) = false, want true", s)
		}
	}
	for _, s := range notBare {
		if IsPackagePath(s) {
			t.Errorf("IsPackagePath(%q) = true, want false", s)
		}
	}
}
