// This is a mock implementation of the "fs" module for use with tests. It does
// not actually read from the file system. Instead, it reads from a pre-specified
// map of file paths to files, which is how the resolver's test suite covers the
// spec's round-trip scenarios without a fixture tree on disk.

package fs

import (
	"errors"
	"path"
	"strings"
)

var ErrNotExist = errors.New("file does not exist")

type mockFS struct {
	dirs       map[string]DirEntries
	files      map[string]string
	symlinks   map[string]string
	readErrors map[string]error
}

// MockFS builds an in-memory filesystem from a map of absolute file paths to
// file contents. Pass symlinks (absolute path -> absolute target) to also
// exercise symlink-aware resolution; nil disables it.
func MockFS(input map[string]string, symlinks map[string]string) FS {
	dirs := make(map[string]DirEntries)
	files := make(map[string]string)

	touch := func(p string, kind EntryKind) {
		for {
			dir := path.Dir(p)
			entries, ok := dirs[dir]
			if !ok {
				entries = MakeEmptyDirEntries(dir)
				dirs[dir] = entries
			}
			if dir == p {
				break
			}
			base := path.Base(p)
			entries.data[toLowerASCII(base)] = &Entry{dir: dir, base: base, kind: kind}
			p = dir
			kind = DirEntry
		}
	}

	for k, v := range input {
		files[k] = v
		touch(k, FileEntry)
	}
	for k := range symlinks {
		touch(k, FileEntry)
	}

	return &mockFS{dirs: dirs, files: files, symlinks: symlinks, readErrors: make(map[string]error)}
}

// InjectReadError makes a later ReadFile(path) call return err instead of the
// file's registered contents (or ErrNotExist). Tests use this to drive a
// non-ENOENT filesystem failure (e.g. permission denied) through code paths
// that must distinguish "not found" from a genuine I/O error.
func (fs *mockFS) InjectReadError(p string, err error) {
	fs.readErrors[p] = err
}

func (fs *mockFS) ReadDirectory(p string) (DirEntries, error) {
	if dir, ok := fs.dirs[p]; ok {
		return dir, nil
	}
	return DirEntries{}, ErrNotExist
}

func (fs *mockFS) ReadFile(p string) (string, error) {
	if err, ok := fs.readErrors[p]; ok {
		return "", err
	}
	if contents, ok := fs.files[p]; ok {
		return contents, nil
	}
	return "", ErrNotExist
}

func (fs *mockFS) WriteFile(p string, contents []byte) error {
	fs.files[p] = string(contents)
	return nil
}

func (*mockFS) IsAbs(p string) bool  { return path.IsAbs(p) }
func (*mockFS) Dir(p string) string  { return path.Dir(p) }
func (*mockFS) Base(p string) string { return path.Base(p) }
func (*mockFS) Ext(p string) string  { return path.Ext(p) }

func (*mockFS) Join(parts ...string) string {
	return path.Clean(path.Join(parts...))
}

func (*mockFS) Rel(base string, target string) (string, bool) {
	base = path.Clean(base)
	target = path.Clean(target)
	if base == "" || base == "." {
		return target, true
	}
	if base == target {
		return ".", true
	}
	prefix := strings.TrimSuffix(base, "/") + "/"
	if strings.HasPrefix(target, prefix) {
		return target[len(prefix):], true
	}
	if path.IsAbs(base) != path.IsAbs(target) {
		return "", false
	}
	baseParts := strings.Split(strings.Trim(base, "/"), "/")
	targetParts := strings.Split(strings.Trim(target, "/"), "/")
	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}
	rel := strings.Repeat("../", len(baseParts)-common) + strings.Join(targetParts[common:], "/")
	return strings.TrimSuffix(rel, "/"), true
}

func (fs *mockFS) EvalSymlinks(p string) (string, bool) {
	if target, ok := fs.symlinks[p]; ok {
		return target, true
	}
	return p, true
}

func (fs *mockFS) kind(dir string, base string) EntryKind {
	entries, ok := fs.dirs[dir]
	if !ok {
		return 0
	}
	if entry, _ := entries.Get(base); entry != nil {
		return entry.Kind(fs)
	}
	return 0
}
