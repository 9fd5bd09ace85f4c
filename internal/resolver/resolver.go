// Package resolver implements the dominant dynamic-ecosystem module
// resolution algorithm (LOAD_AS_FILE / LOAD_AS_DIRECTORY / NODE_MODULES walk)
// with the "browser" field substitution layered on top, per the per-candidate
// state machine: Start, ApplyBrowser, TryExact, TryExtensions, TryDirectory,
// Done.
package resolver

import (
	"fmt"
	"strings"

	"github.com/bundlecraft/bundlecraft/internal/config"
	"github.com/bundlecraft/bundlecraft/internal/fs"
	"github.com/bundlecraft/bundlecraft/internal/graph"
	"github.com/bundlecraft/bundlecraft/internal/manifest"
)

// ResolveFailed means no candidate matched for a specifier.
type ResolveFailed struct {
	Context   string
	Specifier string
}

func (e *ResolveFailed) Error() string {
	return fmt.Sprintf("cannot resolve %q from %q", e.Specifier, e.Context)
}

// Io wraps an underlying filesystem error other than "not found".
type Io struct {
	Path  string
	Cause error
}

func (e *Io) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Cause) }
func (e *Io) Unwrap() error { return e.Cause }

// Kind classifies a specifier per spec §4.2.
type Kind uint8

const (
	KindRelative Kind = iota
	KindAbsolute
	KindBare
)

// Classify reports the syntactic category of a specifier. External-ness is
// layered on top of this by the caller, since it depends on InputOptions.
func Classify(specifier string) Kind {
	switch {
	case specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../"):
		return KindRelative
	case strings.HasPrefix(specifier, "/"):
		return KindAbsolute
	default:
		return KindBare
	}
}

// firstPathComponent returns the leading package-like segment of a specifier,
// treating a scope prefix ("@scope/name") as a single component, the way the
// external-name check and the NODE_MODULES walk both need to.
func firstPathComponent(specifier string) string {
	if strings.HasPrefix(specifier, "@") {
		parts := strings.SplitN(specifier, "/", 3)
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return specifier
	}
	if i := strings.IndexByte(specifier, '/'); i >= 0 {
		return specifier[:i]
	}
	return specifier
}

func splitBareSpecifier(specifier string) (pkg string, subpath string) {
	if strings.HasPrefix(specifier, "@") {
		parts := strings.SplitN(specifier, "/", 3)
		if len(parts) < 2 {
			return specifier, ""
		}
		pkg = parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			subpath = parts[2]
		}
		return pkg, subpath
	}
	if i := strings.IndexByte(specifier, '/'); i >= 0 {
		return specifier[:i], specifier[i+1:]
	}
	return specifier, ""
}

// manifestScope is the nearest enclosing manifest relevant to a browser
// substitution lookup: the directory it lives in (the coordinate space its
// keys are normalized against) plus the parsed manifest itself.
type manifestScope struct {
	dir  string
	info *manifest.PackageInfo
}

// Resolver implements resolve(context, specifier) against an FS, with
// per-directory and per-manifest caches shared across concurrent callers.
type Resolver struct {
	fs      fs.FS
	options *config.InputOptions

	manifestCache  *shardedCache[*manifest.PackageInfo]
	enclosingCache *shardedCache[manifestScope]
}

func New(fsys fs.FS, options *config.InputOptions) *Resolver {
	return &Resolver{
		fs:             fsys,
		options:        options,
		manifestCache:  newShardedCache[*manifest.PackageInfo](),
		enclosingCache: newShardedCache[manifestScope](),
	}
}

// Resolve maps (contextPath, specifier) to a Resolved outcome. contextPath is
// the absolute path of the file that issued specifier.
func (r *Resolver) Resolve(contextPath, specifier string) (graph.Resolved, error) {
	kind := Classify(specifier)

	if kind != KindRelative && r.options.IsExternal(firstPathComponent(specifier)) {
		return graph.External(specifier), nil
	}

	baseDir := r.fs.Dir(contextPath)

	switch kind {
	case KindRelative, KindAbsolute:
		scope := r.enclosingManifest(baseDir)
		candidate := fs.AppendResolving(r.fs, baseDir, specifier)
		trailingSlash := strings.HasSuffix(specifier, "/")
		return r.resolvePathOrModule(contextPath, specifier, candidate, trailingSlash, scope, true)
	default:
		return r.resolveBare(contextPath, specifier, baseDir, map[string]bool{})
	}
}

// ResolvePathOrModule bypasses specifier classification, exposed for tests
// that want to drive the state machine directly from a literal path.
func (r *Resolver) ResolvePathOrModule(contextPath, from string, isMain, isBrowser bool) (graph.Resolved, error) {
	var scope manifestScope
	if isBrowser {
		scope = r.enclosingManifest(r.fs.Dir(from))
	}
	trailingSlash := strings.HasSuffix(from, "/")
	return r.resolvePathOrModule(contextPath, from, from, trailingSlash, scope, true)
}

// resolvePathOrModule drives Start -> ApplyBrowser -> TryExact ->
// TryExtensions -> TryDirectory -> Done for one candidate path. allowManifest
// gates whether TryDirectory may consult a manifest in the candidate
// directory; it is false for the nested "join(P, main)" resolution, which
// must fall through straight to LOAD_AS_FILE + /index without reading yet
// another manifest (spec §4.2 edge case).
func (r *Resolver) resolvePathOrModule(
	contextPath, specifier, candidate string,
	trailingSlash bool,
	scope manifestScope,
	allowManifest bool,
) (graph.Resolved, error) {
	if r.options.ForBrowser && scope.info != nil {
		if sub, ok := scope.info.LookupPath(r.fs, scope.dir, candidate); ok {
			result, redirected, err := r.applyBrowserSubstitution(contextPath, specifier, scope.dir, sub)
			if err != nil || redirected {
				return result, err
			}
		}
	}

	if !trailingSlash {
		if found, result, err := r.tryLoadAsFile(contextPath, specifier, candidate, scope); err != nil {
			return graph.Resolved{}, err
		} else if found {
			return result, nil
		}
	}

	if allowManifest {
		dirManifest, err := r.loadManifest(candidate)
		if err != nil {
			return graph.Resolved{}, err
		}
		if dirManifest != nil {
			// A directory manifest and its "main" field are authoritative:
			// per spec there is no /index fallback when main fails to
			// resolve, unlike the no-manifest case below.
			mainCandidate := fs.AppendResolving(r.fs, candidate, dirManifest.Main)
			mainScope := manifestScope{dir: candidate, info: dirManifest}
			result, err := r.resolvePathOrModule(contextPath, dirManifest.Main, mainCandidate, false, mainScope, false)
			if err != nil {
				if _, ok := err.(*ResolveFailed); ok {
					return graph.Resolved{}, &ResolveFailed{Context: contextPath, Specifier: specifier}
				}
				return graph.Resolved{}, err
			}
			return result, nil
		}
	}

	// No manifest in this directory: LOAD_AS_FILE only on join(P, "index"),
	// never a further LOAD_AS_DIRECTORY recursion.
	indexCandidate := r.fs.Join(candidate, "index")
	found, result, err := r.tryLoadAsFile(contextPath, "./index", indexCandidate, scope)
	if err != nil {
		return graph.Resolved{}, err
	}
	if !found {
		return graph.Resolved{}, &ResolveFailed{Context: contextPath, Specifier: specifier}
	}
	return result, nil
}

// tryLoadAsFile runs TryExact then TryExtensions (with ApplyBrowser on a hit)
// against one literal candidate path, with no trailing-slash or directory
// handling. found is false, not an error, when nothing matched.
func (r *Resolver) tryLoadAsFile(contextPath, specifier, candidate string, scope manifestScope) (found bool, result graph.Resolved, err error) {
	if ok, err := r.isRegularFile(candidate); err != nil {
		return false, graph.Resolved{}, err
	} else if ok {
		return true, graph.Normal(r.canonicalize(candidate)), nil
	}

	for _, ext := range r.options.ExtensionOrder() {
		withExt := candidate + ext
		ok, err := r.isRegularFile(withExt)
		if err != nil {
			return false, graph.Resolved{}, err
		}
		if !ok {
			continue
		}
		if r.options.ForBrowser && scope.info != nil {
			if sub, ok := scope.info.LookupPath(r.fs, scope.dir, withExt); ok {
				res, _, err := r.applyBrowserSubstitution(contextPath, specifier, scope.dir, sub)
				return true, res, err
			}
		}
		return true, graph.Normal(r.canonicalize(withExt)), nil
	}

	return false, graph.Resolved{}, nil
}

// applyBrowserSubstitution interprets one Substitution hit: Ignore is
// terminal and sticky, a bare replacement restarts bare resolution from
// scopeDir, and a relative replacement re-enters the file/directory state
// machine. redirected is false only when the caller should keep going
// through its own TryExact/TryExtensions (never happens today, since every
// substitution hit is itself terminal or a restart, but kept for clarity).
func (r *Resolver) applyBrowserSubstitution(
	contextPath, specifier, scopeDir string,
	sub manifest.Substitution,
) (result graph.Resolved, redirected bool, err error) {
	if sub.IsIgnore {
		return graph.Ignore(), true, nil
	}
	if manifest.IsPackagePath(sub.Replace) {
		res, err := r.resolveBare(contextPath, sub.Replace, scopeDir, map[string]bool{})
		return res, true, err
	}
	newCandidate := fs.AppendResolving(r.fs, scopeDir, sub.Replace)
	newScope := r.enclosingManifest(scopeDir)
	res, err := r.resolvePathOrModule(contextPath, sub.Replace, newCandidate, strings.HasSuffix(sub.Replace, "/"), newScope, true)
	return res, true, err
}

// resolveBare implements the NODE_MODULES ancestor walk. visited guards
// against a substitution cycle (package A's browser map points to package B,
// whose map points back to A).
func (r *Resolver) resolveBare(contextPath, specifier, baseDir string, visited map[string]bool) (graph.Resolved, error) {
	scope := r.enclosingManifest(baseDir)

	if r.options.ForBrowser && scope.info != nil && !visited[specifier] {
		if sub, ok := scope.info.LookupBare(specifier); ok {
			visited[specifier] = true
			if sub.IsIgnore {
				return graph.Ignore(), nil
			}
			if manifest.IsPackagePath(sub.Replace) {
				return r.resolveBare(contextPath, sub.Replace, scope.dir, visited)
			}
			candidate := fs.AppendResolving(r.fs, scope.dir, sub.Replace)
			return r.resolvePathOrModule(contextPath, sub.Replace, candidate, strings.HasSuffix(sub.Replace, "/"), scope, true)
		}
	}

	pkg, subpath := splitBareSpecifier(specifier)

	for dir := baseDir; ; {
		nodeModules := r.fs.Join(dir, "node_modules")
		pkgDir := r.fs.Join(nodeModules, pkg)
		candidate := pkgDir
		if subpath != "" {
			candidate = fs.AppendResolving(r.fs, pkgDir, subpath)
		}

		result, err := r.resolvePathOrModule(contextPath, specifier, candidate, false, scope, true)
		if err == nil {
			return result, nil
		}
		if _, ok := err.(*ResolveFailed); !ok {
			return graph.Resolved{}, err
		}

		parent := r.fs.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return graph.Resolved{}, &ResolveFailed{Context: contextPath, Specifier: specifier}
}

func (r *Resolver) isRegularFile(path string) (bool, error) {
	entries, err := r.fs.ReadDirectory(r.fs.Dir(path))
	if err != nil {
		if err == fs.ErrNotExist {
			return false, nil
		}
		return false, &Io{Path: path, Cause: err}
	}
	entry, differentCase := entries.Get(r.fs.Base(path))
	if entry == nil || differentCase != nil {
		return false, nil
	}
	return entry.Kind(r.fs) == fs.FileEntry, nil
}

func (r *Resolver) loadManifest(dir string) (*manifest.PackageInfo, error) {
	return r.manifestCache.GetOrCompute(dir, func() (*manifest.PackageInfo, error) {
		info, err := manifest.Load(r.fs, dir)
		if err == nil {
			return info, nil
		}
		if _, ok := err.(*manifest.ManifestMalformed); ok {
			return nil, err
		}
		return nil, &Io{Path: r.fs.Join(dir, "package.json"), Cause: err}
	})
}

// enclosingManifest walks from dir upward to the first ancestor (including
// dir itself) carrying a manifest, memoizing both hits and misses per
// starting directory.
func (r *Resolver) enclosingManifest(dir string) manifestScope {
	scope, _ := r.enclosingCache.GetOrCompute(dir, func() (manifestScope, error) {
		for d := dir; ; {
			info, err := r.loadManifest(d)
			if err == nil && info != nil {
				return manifestScope{dir: d, info: info}, nil
			}
			parent := r.fs.Dir(d)
			if parent == d {
				return manifestScope{}, nil
			}
			d = parent
		}
	})
	return scope
}

// canonicalize resolves symlinks so every Normal path in the graph is the
// real, de-duplicated path to the file.
func (r *Resolver) canonicalize(path string) string {
	if real, ok := r.fs.EvalSymlinks(path); ok {
		return real
	}
	return path
}
