// Package status is the status & tree component of spec.md §4.10 (C10):
// per-path and whole-database classification against the filesystem.
// Grounded on original_source/src/api/status.rs (database_status/
// files_status/check_file/find_new_files) and src/api/untagged.rs
// (list_untagged_for_paths), using internal/tree for the trie that limits
// a database-wide scan to the topmost tracked path along each branch.
package status

import (
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/lefth/tmsu/internal/errs"
	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/store"
	"github.com/lefth/tmsu/internal/tree"
)

// PathStatus classifies a single filesystem path against the store.
type PathStatus int

const (
	Missing PathStatus = iota
	Modified
	Tagged
	Untagged
)

// Entry is one path's classification.
type Entry struct {
	Path   string
	Status PathStatus
}

// Report accumulates the Entries of one status run, deduplicating on path
// so a path already classified isn't also reported as Untagged.
type Report struct {
	Entries []Entry
	seen    map[string]bool
}

func newReport() *Report {
	return &Report{seen: map[string]bool{}}
}

func (r *Report) add(path string, status PathStatus) {
	r.Entries = append(r.Entries, Entry{Path: path, Status: status})
	r.seen[path] = true
}

func (r *Report) contains(path string) bool {
	return r.seen[path]
}

// DatabaseStatus classifies every tracked file, then scans the filesystem
// at and beneath each top-level tracked path (the first tracked path along
// each branch of the tree) for untagged entries; untracked entries outside
// those paths are not reported (spec.md §4.10).
func DatabaseStatus(tx *store.Tx, log *zap.Logger, root pathutil.CanonicalPath, recursive bool) (*Report, error) {
	log.Info("retrieving all files from database")

	dbFiles, err := tx.Files(model.SortName)
	if err != nil {
		return nil, err
	}

	report := newReport()
	if err := checkFiles(dbFiles, root, report); err != nil {
		return nil, err
	}

	tr := tree.New()
	for _, f := range dbFiles {
		tr.Add(pathutil.FilePath(root, f.Directory, f.Name), f.IsDir)
	}

	for _, p := range tr.TopLevel().Paths() {
		if err := findNewFiles(p, report, recursive); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// FilesStatus classifies each of paths (and, if recursive, everything
// stored beneath it) plus any untagged filesystem entries found alongside
// it (spec.md §4.10).
func FilesStatus(tx *store.Tx, log *zap.Logger, root pathutil.CanonicalPath, paths []string, recursive, followSymlinks bool) (*Report, error) {
	report := newReport()

	for _, p := range paths {
		abs := pathutil.NewAbsPath(p, &root.AbsPath)

		log.Info("resolving file", zap.String("path", p))
		resolved, isSymlink, err := resolvePath(abs.String(), followSymlinks)
		if err != nil {
			return nil, err
		}

		log.Info("checking file in database", zap.String("path", p))
		scoped, err := pathutil.NewScopedPath(root, resolved)
		if err != nil {
			return nil, err
		}

		dir, name := scoped.DirAndName()
		file, err := tx.FileByPath(dir, name)
		if err != nil {
			return nil, err
		}
		if file != nil {
			if err := checkFile(abs.String(), *file, report); err != nil {
				return nil, err
			}
		}

		if recursive && (followSymlinks || !isSymlink) {
			log.Info("retrieving files from database", zap.String("path", p))
			dbFiles, err := tx.FilesByDirectory(scoped.Inner, scoped.ContainsRoot())
			if err != nil {
				return nil, err
			}
			if err := checkFiles(dbFiles, root, report); err != nil {
				return nil, err
			}
		}

		if err := findNewFiles(abs.String(), report, recursive); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// ListUntagged walks paths (recursively, if requested) invoking cb for
// every filesystem entry that has no corresponding file row, without first
// materializing the whole result (spec.md §4.10's untagged-reporting
// supplement, grounded on src/api/untagged.rs).
func ListUntagged(tx *store.Tx, log *zap.Logger, root pathutil.CanonicalPath, paths []string, recursive, followSymlinks bool, cb func(string)) error {
	for _, p := range paths {
		if err := listUntaggedOne(tx, log, root, p, recursive, followSymlinks, cb); err != nil {
			return err
		}
	}
	return nil
}

func listUntaggedOne(tx *store.Tx, log *zap.Logger, root pathutil.CanonicalPath, path string, recursive, followSymlinks bool, cb func(string)) error {
	log.Info("resolving path", zap.String("path", path))
	resolved, _, err := resolvePath(path, followSymlinks)
	if err != nil {
		return err
	}

	log.Info("looking up file", zap.String("path", resolved))
	scoped, err := pathutil.NewScopedPath(root, resolved)
	if err != nil {
		return err
	}
	dir, name := scoped.DirAndName()
	file, err := tx.FileByPath(dir, name)
	if err != nil {
		return err
	}
	if file == nil {
		cb(scoped.AsAbsolute().String())
	}

	info, statErr := os.Stat(resolved)
	if statErr != nil {
		return nil
	}
	if recursive && info.IsDir() {
		entries, err := os.ReadDir(resolved)
		if err != nil {
			return errs.IOError(err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			if err := listUntaggedOne(tx, log, root, filepath.Join(resolved, name), recursive, followSymlinks, cb); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkFiles(files []model.File, root pathutil.CanonicalPath, report *Report) error {
	for _, f := range files {
		if err := checkFile(pathutil.FilePath(root, f.Directory, f.Name), f, report); err != nil {
			return err
		}
	}
	return nil
}

func checkFile(abs string, f model.File, report *Report) error {
	info, err := os.Stat(abs)
	if err != nil {
		report.add(abs, Missing)
		return nil
	}
	if uint64(info.Size()) != f.Size || f.ModTime != info.ModTime().UnixNano() {
		report.add(abs, Modified)
	} else {
		report.add(abs, Tagged)
	}
	return nil
}

func findNewFiles(searchPath string, report *Report, recursive bool) error {
	if !report.contains(searchPath) {
		report.add(searchPath, Untagged)
	}

	info, err := os.Stat(searchPath)
	if err != nil {
		// Vanished between the tree build and the scan: nothing to recurse into.
		return nil
	}

	if recursive && info.IsDir() {
		entries, err := os.ReadDir(searchPath)
		if err != nil {
			return errs.IOError(err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			if err := findNewFiles(filepath.Join(searchPath, name), report, recursive); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolvePath reports whether path is itself a symlink and, when
// followSymlinks is set and it is one, the path it resolves to (path
// unchanged otherwise). The Rust resolve_path this mirrors was not part of
// the retained distillation, so this is built from spec.md §4.1's symlink
// rules (C1) rather than translated from a Rust body.
func resolvePath(path string, followSymlinks bool) (resolved string, isSymlink bool, err error) {
	info, statErr := os.Lstat(path)
	if statErr != nil {
		return path, false, nil
	}
	isSymlink = info.Mode()&os.ModeSymlink != 0
	if !isSymlink || !followSymlinks {
		return path, isSymlink, nil
	}
	target, evalErr := filepath.EvalSymlinks(path)
	if evalErr != nil {
		return "", false, errs.IOError(evalErr)
	}
	return target, isSymlink, nil
}
