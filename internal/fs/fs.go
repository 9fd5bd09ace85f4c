// Package fs abstracts the filesystem operations used by the resolver and
// crawler. Everything upstream of this package is coded against the FS
// interface instead of the os package directly, so the resolver's test suite
// can run against an in-memory tree instead of real fixture directories.
package fs

import (
	"sort"
	"strings"
	"sync"
)

type EntryKind uint8

const (
	DirEntry EntryKind = 1 + iota
	FileEntry
)

// Entry is a single directory listing entry. Its kind is computed lazily so
// that listing a directory doesn't have to stat every entry in it up front.
type Entry struct {
	mutex    sync.Mutex
	dir      string
	base     string
	kind     EntryKind
	needStat bool
}

func (e *Entry) Kind(fs FS) EntryKind {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.needStat {
		e.needStat = false
		e.kind = fs.kind(e.dir, e.base)
	}
	return e.kind
}

// DirEntries is the immutable, cached result of listing one directory. Keys
// are lower-cased so that Get() can report a different-case match, which the
// resolver uses to keep behavior consistent across case-sensitive and
// case-insensitive filesystems.
type DirEntries struct {
	dir  string
	data map[string]*Entry
}

func MakeEmptyDirEntries(dir string) DirEntries {
	return DirEntries{dir: dir, data: make(map[string]*Entry)}
}

type DifferentCase struct {
	Dir    string
	Query  string
	Actual string
}

func (entries DirEntries) Get(query string) (*Entry, *DifferentCase) {
	if entries.data == nil {
		return nil, nil
	}
	key := strings.ToLower(query)
	entry := entries.data[key]
	if entry == nil {
		return nil, nil
	}
	if entry.base != query {
		return entry, &DifferentCase{Dir: entries.dir, Query: query, Actual: entry.base}
	}
	return entry, nil
}

func (entries DirEntries) SortedKeys() []string {
	if entries.data == nil {
		return nil
	}
	keys := make([]string, 0, len(entries.data))
	for _, entry := range entries.data {
		keys = append(keys, entry.base)
	}
	sort.Strings(keys)
	return keys
}

// FS is the seam between the algorithmic core (resolver, crawler) and actual
// file access. The mock implementation backing the resolver's test suite
// implements the exact same interface as the real, OS-backed one.
type FS interface {
	ReadDirectory(path string) (entries DirEntries, err error)
	ReadFile(path string) (contents string, err error)
	WriteFile(path string, contents []byte) error

	IsAbs(path string) bool
	Dir(path string) string
	Base(path string) string
	Ext(path string) string
	Join(parts ...string) string
	Rel(base string, target string) (string, bool)

	// EvalSymlinks resolves symlinks in path, returning the real path. It
	// returns ok=false (not an error) when the path doesn't exist, which the
	// caller treats the same as "nothing to resolve."
	EvalSymlinks(path string) (string, bool)

	kind(dir string, base string) EntryKind
}

// AppendResolving joins base and suffix the way a module specifier is joined
// to its context directory: if suffix is absolute it replaces base outright,
// otherwise its components are pushed onto base with "." and ".." collapsed
// lexically. This never touches the filesystem, which is what lets the
// resolver build candidate paths with it before any directory has been read.
func AppendResolving(fs FS, base string, suffix string) string {
	if fs.IsAbs(suffix) {
		return fs.Join(suffix)
	}
	return fs.Join(base, suffix)
}
