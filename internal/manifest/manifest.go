// Package manifest implements the manifest half of the Path & Manifest Layer
// (spec component C1): loading of the per-directory package descriptor (name
// borrowed from npm's package.json, though this project reads only the two
// fields the spec cares about). The lexical path join lives in internal/fs
// as AppendResolving.
package manifest

import (
	"fmt"
	"path"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/bundlecraft/bundlecraft/internal/fs"
)

const defaultMain = "./index"

// ManifestMalformed is returned when the "browser" field is present but is
// neither missing/null, a string, nor an object whose values are strings or
// the literal false.
type ManifestMalformed struct {
	Path   string
	Reason string
}

func (e *ManifestMalformed) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Substitution is one entry of a BrowserSubstitutionMap: either a
// replacement path/specifier, or the Ignore marker (npm's "false" value).
type Substitution struct {
	IsIgnore bool
	Replace  string
}

func Replace(s string) Substitution { return Substitution{Replace: s} }
func Ignore() Substitution          { return Substitution{IsIgnore: true} }

// SubstitutionMap keys are normalized specifiers: relative keys are cleaned
// lexically ("." and ".." segments collapsed) and carry a "./" (or "../")
// prefix, so that "index", "./index" and "./a/../index" all become "./index".
// Bare package-name keys are left untouched.
type SubstitutionMap map[string]Substitution

// PackageInfo is the parsed form of one directory's manifest.
type PackageInfo struct {
	// Main is the normalized relative path from the "main" field, defaulted
	// to "./index". This default persists even when Browser rewrites it.
	Main string

	// Browser is empty (never nil) when there was no "browser" field.
	Browser SubstitutionMap
}

type rawManifest struct {
	Main    *string         `json:"main"`
	Browser json.RawMessage `json:"browser"`
}

// Load reads <dir>/package.json through fsys. It returns (nil, nil) if no
// manifest file exists in dir — that is not an error, just the common case of
// a directory with no package descriptor.
func Load(fsys fs.FS, dir string) (*PackageInfo, error) {
	manifestPath := fsys.Join(dir, "package.json")
	contents, err := fsys.ReadFile(manifestPath)
	if err != nil {
		if err == fs.ErrNotExist {
			return nil, nil
		}
		return nil, err
	}
	return Parse(manifestPath, []byte(contents))
}

// Parse decodes the contents of one package.json. path is used only for
// error messages.
func Parse(path string, contents []byte) (*PackageInfo, error) {
	var raw rawManifest
	if err := json.Unmarshal(contents, &raw); err != nil {
		return nil, &ManifestMalformed{Path: path, Reason: err.Error()}
	}

	info := &PackageInfo{Main: defaultMain}
	if raw.Main != nil && *raw.Main != "" {
		info.Main = normalizeRelativeKey(*raw.Main)
	}

	browser, err := parseBrowserField(path, raw.Browser, info.Main)
	if err != nil {
		return nil, err
	}
	info.Browser = browser

	return info, nil
}

func parseBrowserField(manifestPath string, raw json.RawMessage, mainKey string) (SubstitutionMap, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return SubstitutionMap{}, nil
	}

	// A bare string is shorthand for {"<main>": "<string>"}, with the string
	// read as a path relative to the package directory.
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return SubstitutionMap{mainKey: Replace(normalizeRelativeKey(asString))}, nil
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asObject); err != nil {
		return nil, &ManifestMalformed{
			Path:   manifestPath,
			Reason: `"browser" must be a string, an object, or null`,
		}
	}

	result := make(SubstitutionMap, len(asObject))
	for key, rawValue := range asObject {
		normalizedKey := key
		if !IsPackagePath(key) {
			normalizedKey = normalizeRelativeKey(key)
		}

		var valueString string
		if err := json.Unmarshal(rawValue, &valueString); err == nil && string(rawValue) != "null" {
			result[normalizedKey] = Replace(normalizeValue(valueString))
			continue
		}

		var valueBool bool
		if err := json.Unmarshal(rawValue, &valueBool); err == nil && string(rawValue) != "null" {
			if valueBool {
				return nil, &ManifestMalformed{
					Path:   manifestPath,
					Reason: fmt.Sprintf(`"browser" entry %q: true is not a valid value`, key),
				}
			}
			result[normalizedKey] = Ignore()
			continue
		}

		return nil, &ManifestMalformed{
			Path:   manifestPath,
			Reason: fmt.Sprintf(`"browser" entry %q must be a string or false`, key),
		}
	}

	return result, nil
}

func normalizeValue(s string) string {
	if IsPackagePath(s) {
		return s
	}
	return normalizeRelativeKey(s)
}

// normalizeRelativeKey cleans a relative path textually (collapsing "." and
// ".." segments) without touching the filesystem, while preserving a leading
// "./" so that e.g. the default main "./index" round-trips as "./index"
// rather than esbuild-style bare "index".
func normalizeRelativeKey(s string) string {
	if strings.HasPrefix(s, "/") {
		return path.Clean(s)
	}
	cleaned := path.Clean(s)
	if !strings.HasPrefix(cleaned, ".") && !strings.HasPrefix(cleaned, "/") {
		cleaned = "./" + cleaned
	}
	return cleaned
}

// IsPackagePath reports whether s is a bare module reference (not relative,
// not absolute). Scoped packages ("@scope/name") count as bare.
func IsPackagePath(s string) bool {
	return s != "" && s != "." && s != ".." &&
		!strings.HasPrefix(s, "./") && !strings.HasPrefix(s, "../") && !strings.HasPrefix(s, "/")
}

// LookupBare checks for a substitution keyed by the literal bare specifier
// text, with no path normalization. This is the "resolving a bare specifier"
// substitution point: a hit either short-circuits to Ignore or restarts bare
// resolution with a new specifier/path.
func (info *PackageInfo) LookupBare(specifier string) (Substitution, bool) {
	if info == nil {
		return Substitution{}, false
	}
	sub, ok := info.Browser[specifier]
	return sub, ok
}

// LookupPath checks for a substitution keyed by candidate's path relative to
// manifestDir, the directory the manifest was loaded from. candidate must
// already be an absolute, lexically-joined path (as produced by
// fs.AppendResolving), not yet verified to exist.
func (info *PackageInfo) LookupPath(fsys fs.FS, manifestDir, candidate string) (Substitution, bool) {
	if info == nil {
		return Substitution{}, false
	}
	rel, ok := fsys.Rel(manifestDir, candidate)
	if !ok {
		return Substitution{}, false
	}
	key := normalizeRelativeKey(rel)
	sub, ok := info.Browser[key]
	return sub, ok
}
