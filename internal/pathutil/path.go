// Package pathutil implements the absolute/canonical/scoped path model of
// spec.md §4.1 (C1). It is grounded on original_source/src/path.rs for the
// type hierarchy (AbsPath -> CanonicalPath, ScopedPath wrapping a canonical
// base) and on mutagen-io-mutagen's filesystem.Normalize for the
// symlink-resolution idiom, adapted to pkg/errors wrapping. No tilde
// expansion is done: "~" is an ordinary path component here.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// AbsPath is guaranteed to be an absolute, lexically clean path. It makes no
// claim about whether the target exists.
type AbsPath struct {
	value string
}

// NewAbsPath builds an AbsPath from an already-absolute value, or by joining
// a relative value to base and lexically cleaning the result. Calling it
// with a relative value and no base is a programming error (it panics, per
// spec.md §4.1's "failure" note that this case is a programming error, not
// a recoverable one).
func NewAbsPath(value string, base *AbsPath) AbsPath {
	if filepath.IsAbs(value) {
		return AbsPath{value: filepath.Clean(value)}
	}
	if base == nil {
		panic("pathutil: relative path given without a base: " + value)
	}
	return AbsPath{value: filepath.Clean(filepath.Join(base.value, value))}
}

// String returns the absolute path's textual form.
func (p AbsPath) String() string { return p.value }

// Join appends a relative component, lexically cleaning the result.
func (p AbsPath) Join(component string) AbsPath {
	return AbsPath{value: filepath.Clean(filepath.Join(p.value, component))}
}

// Dir returns the parent AbsPath.
func (p AbsPath) Dir() AbsPath {
	return AbsPath{value: filepath.Dir(p.value)}
}

// Base returns the last path component.
func (p AbsPath) Base() string { return filepath.Base(p.value) }

// CanonicalPath is an AbsPath whose target is known to exist and has been
// resolved through the filesystem (symlinks followed).
type CanonicalPath struct {
	AbsPath
}

// NewCanonicalPath resolves value (which must exist) to its canonical form.
func NewCanonicalPath(value string) (CanonicalPath, error) {
	resolved, err := filepath.EvalSymlinks(value)
	if err != nil {
		return CanonicalPath{}, errors.Wrapf(err, "unable to canonicalize '%s'", value)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return CanonicalPath{}, errors.Wrapf(err, "unable to make '%s' absolute", value)
	}
	return CanonicalPath{AbsPath{value: abs}}, nil
}

// ScopedPath is a logical absolute path together with a canonical base (the
// storage root). Inner is relative to base when the path falls inside it;
// otherwise Inner is the canonical absolute path itself (spec.md §4.1).
type ScopedPath struct {
	base  CanonicalPath
	Inner string // "." for the base itself, a clean relative path, or a clean absolute path outside base
}

// NewScopedPath implements the construction rule of spec.md §4.1: walk the
// input's components left to right; once the accumulated prefix lies within
// base and the next component is a symlink, stop resolving and append the
// remaining components verbatim (symlinks inside the scope are preserved).
// Otherwise each prefix is canonicalized if it exists, else lexically
// cleaned.
func NewScopedPath(base CanonicalPath, input string) (ScopedPath, error) {
	abs := NewAbsPath(input, &base.AbsPath)

	rel, err := filepath.Rel(base.String(), abs.String())
	if err != nil {
		return ScopedPath{}, errors.Wrapf(err, "unable to relate '%s' to base '%s'", abs.String(), base.String())
	}

	if rel == "." {
		return ScopedPath{base: base, Inner: "."}, nil
	}

	if strings.HasPrefix(rel, "..") {
		// Outside the base: the inner form is the canonical (or lexically
		// cleaned, if it doesn't exist) absolute path.
		resolved, statErr := resolvePrefix(abs.String())
		if statErr != nil {
			return ScopedPath{}, statErr
		}
		return ScopedPath{base: base, Inner: resolved}, nil
	}

	// Inside the base: walk components, stopping at the first symlink so
	// that symlinks *inside* the scope are preserved verbatim rather than
	// being resolved away.
	components := strings.Split(rel, string(filepath.Separator))
	accum := base.String()
	for i, c := range components {
		next := filepath.Join(accum, c)
		info, lerr := os.Lstat(next)
		if lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			remaining := filepath.Join(components[i:]...)
			innerPrefix, err := filepath.Rel(base.String(), accum)
			if err != nil {
				return ScopedPath{}, errors.Wrap(err, "unable to compute scoped prefix")
			}
			if innerPrefix == "." {
				return ScopedPath{base: base, Inner: filepath.Clean(remaining)}, nil
			}
			return ScopedPath{base: base, Inner: filepath.Clean(filepath.Join(innerPrefix, remaining))}, nil
		}
		accum = next
	}

	return ScopedPath{base: base, Inner: filepath.Clean(rel)}, nil
}

// resolvePrefix canonicalizes the longest existing prefix of path and
// lexically appends the remainder, matching CanonicalPath's exists-or-clean
// rule for components outside the storage root.
func resolvePrefix(path string) (string, error) {
	cur := path
	var suffix []string
	for {
		if _, err := os.Lstat(cur); err == nil {
			resolved, rerr := filepath.EvalSymlinks(cur)
			if rerr != nil {
				return "", errors.Wrapf(rerr, "unable to resolve '%s'", cur)
			}
			for i := len(suffix) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, suffix[i])
			}
			return filepath.Clean(resolved), nil
		} else if !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "unable to stat '%s'", cur)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return filepath.Clean(path), nil
		}
		suffix = append(suffix, filepath.Base(cur))
		cur = parent
	}
}

// AsAbsolute reconstructs the absolute path represented by this ScopedPath.
func (s ScopedPath) AsAbsolute() AbsPath {
	if s.Inner == "." {
		return s.base.AbsPath
	}
	if filepath.IsAbs(s.Inner) {
		return AbsPath{value: s.Inner}
	}
	return AbsPath{value: filepath.Clean(filepath.Join(s.base.String(), s.Inner))}
}

// Base returns the storage root this scoped path was constructed against.
func (s ScopedPath) Base() CanonicalPath { return s.base }

// ContainsRoot reports whether this scoped path lies outside the storage
// root but encloses it (e.g. scoping a query to "/" when the root is
// "/home/user/.tmsu/.."): in that case rows stored relative to the root
// (in-root rows) must additionally be included in a directory scan.
func (s ScopedPath) ContainsRoot() bool {
	if !filepath.IsAbs(s.Inner) {
		return false
	}
	if s.Inner == string(filepath.Separator) {
		return true
	}
	rootStr := s.base.String()
	rel, err := filepath.Rel(s.Inner, rootStr)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != rootStr)
}

// FilePath reconstructs the filesystem path a stored (directory, name) pair
// denotes: the inverse of ScopedPath.DirAndName as applied at storage time.
// An absolute directory (a path outside root) is used verbatim; "."
// denotes root itself; anything else is root-relative.
func FilePath(root CanonicalPath, directory, name string) string {
	if filepath.IsAbs(directory) {
		return filepath.Join(directory, name)
	}
	if directory == "." {
		return filepath.Join(root.String(), name)
	}
	return filepath.Join(root.String(), directory, name)
}

// DirAndName implements inner_as_dir_and_name from spec.md §4.1.
func (s ScopedPath) DirAndName() (directory, name string) {
	switch s.Inner {
	case "/":
		return "/", "/"
	case ".":
		return ".", "."
	}
	dir := filepath.Dir(s.Inner)
	name = filepath.Base(s.Inner)
	if dir == "" || dir == "." {
		dir = "."
	}
	return toSlash(dir), name
}

// toSlash normalizes a stored directory path to forward slashes, per
// spec.md §9's note that scope comparisons operate on the stored textual
// form.
func toSlash(p string) string {
	return filepath.ToSlash(p)
}

// ContainsForCase reports whether needle appears in haystack, comparing
// with Unicode case-folding when ignoreCase is set (spec.md §4.1).
func ContainsForCase(haystack []string, needle string, ignoreCase bool) bool {
	for _, h := range haystack {
		if ignoreCase {
			if strings.EqualFold(foldSpace(h), foldSpace(needle)) {
				return true
			}
		} else if h == needle {
			return true
		}
	}
	return false
}

func foldSpace(s string) string {
	return strings.Map(unicode.ToLower, s)
}
