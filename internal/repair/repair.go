// Package repair is the repair planner of spec.md §4.9 (C9): reconciling
// the store against the filesystem. Grounded on
// original_source/src/api/repair.rs's manual_repair/full_repair and their
// seven-step pipeline (classify, recalculate unmodified, repair modified,
// detect moves, missing disposition, orphan GC, rationalize), translated
// onto internal/store/internal/fingerprint/internal/imply. Unlike the Rust
// original this package never writes to stdout: each per-file action is
// appended to a Report for the CLI layer to render, and diagnostics go
// through a *zap.Logger instead.
package repair

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/lefth/tmsu/internal/errs"
	"github.com/lefth/tmsu/internal/fingerprint"
	"github.com/lefth/tmsu/internal/imply"
	"github.com/lefth/tmsu/internal/model"
	"github.com/lefth/tmsu/internal/pathutil"
	"github.com/lefth/tmsu/internal/settings"
	"github.com/lefth/tmsu/internal/store"
)

// OutcomeKind classifies a single action the repair planner took, or would
// have taken under pretend mode.
type OutcomeKind int

const (
	RecalculatedFingerprint OutcomeKind = iota
	UpdatedFingerprint
	MovedTo
	Missing
	Removed
)

// Outcome records one per-file action for the caller to render.
type Outcome struct {
	Path    string
	Kind    OutcomeKind
	NewPath string // set only for MovedTo
}

// Report accumulates the Outcomes of one repair run.
type Report struct {
	Outcomes []Outcome
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Statuses is the per-file classification of step 1 (spec.md §4.9.1).
type Statuses struct {
	Unmodified []model.File
	Modified   []model.File
	Missing    []model.File
}

// DetermineStatuses classifies each of files as missing, unmodified or
// modified by comparing its stored size and mod-time against the
// filesystem. A stat failure of any kind (including permission errors) is
// treated as missing; permissions are never diagnosed (spec.md §4.9.1).
func DetermineStatuses(log *zap.Logger, root pathutil.CanonicalPath, files []model.File) Statuses {
	log.Info("determining file statuses")

	var st Statuses
	for _, f := range files {
		abs := pathutil.FilePath(root, f.Directory, f.Name)
		info, err := os.Stat(abs)
		if err != nil {
			log.Debug("missing", zap.String("path", abs))
			st.Missing = append(st.Missing, f)
			continue
		}
		if f.Size == uint64(info.Size()) && f.ModTime == info.ModTime().UnixNano() {
			log.Debug("unmodified", zap.String("path", abs))
			st.Unmodified = append(st.Unmodified, f)
		} else {
			log.Debug("modified", zap.String("path", abs))
			st.Modified = append(st.Modified, f)
		}
	}
	return st
}

// Options controls a FullRepair run (spec.md §4.9).
type Options struct {
	SearchPaths      []string
	BasePath         *pathutil.ScopedPath
	RemoveMissing    bool
	RecalcUnmodified bool
	Rationalize      bool
	Pretend          bool
}

// FullRepair runs the complete reconciliation pipeline over every candidate
// file under opts.BasePath (the whole store if nil), within tx.
func FullRepair(tx *store.Tx, log *zap.Logger, root pathutil.CanonicalPath, opts Options) (*Report, error) {
	stored, err := tx.Settings()
	if err != nil {
		return nil, err
	}
	s := settings.FromStored(stored)

	base := "."
	containsRoot := false
	if opts.BasePath != nil {
		base = opts.BasePath.Inner
		containsRoot = opts.BasePath.ContainsRoot()
	}

	log.Info("retrieving files from storage", zap.String("base", base))
	dbFiles, err := tx.FilesByDirectory(base, containsRoot)
	if err != nil {
		return nil, err
	}
	if opts.BasePath != nil {
		dir, name := opts.BasePath.DirAndName()
		baseFile, err := tx.FileByPath(dir, name)
		if err != nil {
			return nil, err
		}
		if baseFile != nil {
			dbFiles = append(dbFiles, *baseFile)
		}
	}
	log.Info("retrieved files for repair", zap.Int("count", len(dbFiles)))

	statuses := DetermineStatuses(log, root, dbFiles)
	report := &Report{}

	if opts.RecalcUnmodified {
		if err := RepairUnmodified(tx, log, s, root, statuses.Unmodified, opts.Pretend, report); err != nil {
			return nil, err
		}
	}

	if err := RepairModified(tx, log, s, root, statuses.Modified, opts.Pretend, report); err != nil {
		return nil, err
	}

	if err := RepairMoved(tx, log, s, root, statuses.Missing, opts.SearchPaths, opts.Pretend, report); err != nil {
		return nil, err
	}

	if err := RepairMissing(tx, log, root, statuses.Missing, opts.RemoveMissing, opts.Pretend, report); err != nil {
		return nil, err
	}

	if !opts.Pretend {
		if err := PurgeUntaggedFiles(tx, dbFiles); err != nil {
			return nil, err
		}
	}

	if opts.Rationalize && !opts.Pretend {
		if err := RationalizeFileTags(tx, dbFiles); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// RepairUnmodified refreshes the stored fingerprint of every file believed
// unchanged (step 2).
func RepairUnmodified(tx *store.Tx, log *zap.Logger, s *settings.Settings, root pathutil.CanonicalPath, files []model.File, pretend bool, report *Report) error {
	log.Info("recalculating fingerprints for unmodified files", zap.Int("count", len(files)))
	for _, f := range files {
		if err := refreshFile(tx, s, f, root, pretend); err != nil {
			return err
		}
		report.add(Outcome{Path: pathutil.FilePath(root, f.Directory, f.Name), Kind: RecalculatedFingerprint})
	}
	return nil
}

// RepairModified refreshes every changed file's stored metadata (step 3,
// unconditional).
func RepairModified(tx *store.Tx, log *zap.Logger, s *settings.Settings, root pathutil.CanonicalPath, files []model.File, pretend bool, report *Report) error {
	log.Info("repairing modified files", zap.Int("count", len(files)))
	for _, f := range files {
		if err := refreshFile(tx, s, f, root, pretend); err != nil {
			return err
		}
		report.add(Outcome{Path: pathutil.FilePath(root, f.Directory, f.Name), Kind: UpdatedFingerprint})
	}
	return nil
}

// refreshFile recomputes a file's fingerprint and metadata at its current
// stored path and, unless pretend, writes the update.
func refreshFile(tx *store.Tx, s *settings.Settings, f model.File, root pathutil.CanonicalPath, pretend bool) error {
	abs := pathutil.FilePath(root, f.Directory, f.Name)
	info, err := os.Stat(abs)
	if err != nil {
		return errs.IOError(err)
	}
	fp, err := fingerprint.Create(abs, algo(s, settings.FileFingerprintAlgorithm),
		algo(s, settings.DirectoryFingerprintAlgorithm), algo(s, settings.SymlinkFingerprintAlgorithm))
	if err != nil {
		return err
	}
	if pretend {
		return nil
	}
	return tx.UpdateFileByID(f.ID, f.Directory, f.Name, fp, info.ModTime().UnixNano(), uint64(info.Size()), info.IsDir())
}

// RepairMoved searches searchPaths for a same-size, same-fingerprint
// replacement for each missing file, relocating the first match found
// (step 4). It is a no-op when either list is empty.
func RepairMoved(tx *store.Tx, log *zap.Logger, s *settings.Settings, root pathutil.CanonicalPath, missing []model.File, searchPaths []string, pretend bool, report *Report) error {
	log.Info("repairing moved files")
	if len(missing) == 0 || len(searchPaths) == 0 {
		return nil
	}

	bySize, err := buildPathsBySize(searchPaths)
	if err != nil {
		return err
	}

	for _, f := range missing {
		abs := pathutil.FilePath(root, f.Directory, f.Name)
		candidates := bySize[f.Size]
		if len(candidates) == 0 {
			continue
		}
		log.Info("identified same-size candidates", zap.String("path", abs), zap.Int("count", len(candidates)))

		for _, candidate := range candidates {
			scoped, err := pathutil.NewScopedPath(root, candidate)
			if err != nil {
				return err
			}
			dir, name := scoped.DirAndName()

			tracked, err := tx.FileByPath(dir, name)
			if err != nil {
				return err
			}
			if tracked != nil {
				continue
			}

			info, err := os.Stat(candidate)
			if err != nil {
				return errs.IOError(err)
			}
			fp, err := fingerprint.Create(candidate, algo(s, settings.FileFingerprintAlgorithm),
				algo(s, settings.DirectoryFingerprintAlgorithm), algo(s, settings.SymlinkFingerprintAlgorithm))
			if err != nil {
				return err
			}
			if fp != f.Fingerprint {
				continue
			}

			if !pretend {
				if err := tx.UpdateFileByID(f.ID, dir, name, fp, info.ModTime().UnixNano(), f.Size, f.IsDir); err != nil {
					return err
				}
			}
			report.add(Outcome{Path: abs, Kind: MovedTo, NewPath: candidate})
			break
		}
	}
	return nil
}

// RepairMissing either deletes the file-tag rows of every still-missing
// file (when force is set) or just reports them (step 5).
func RepairMissing(tx *store.Tx, log *zap.Logger, root pathutil.CanonicalPath, missing []model.File, force, pretend bool, report *Report) error {
	log.Info("repairing missing files")
	for _, f := range missing {
		abs := pathutil.FilePath(root, f.Directory, f.Name)
		if force {
			if !pretend {
				if err := tx.DeleteFileTagsByFileID(f.ID); err != nil {
					return err
				}
			}
			report.add(Outcome{Path: abs, Kind: Removed})
		} else {
			report.add(Outcome{Path: abs, Kind: Missing})
		}
	}
	return nil
}

// PurgeUntaggedFiles deletes every file among candidates whose file-tag
// count has dropped to zero (step 6).
func PurgeUntaggedFiles(tx *store.Tx, candidates []model.File) error {
	ids := make([]model.FileID, len(candidates))
	for i, f := range candidates {
		ids[i] = f.ID
	}
	return tx.DeleteUntaggedFiles(ids)
}

// RationalizeFileTags deletes, for every file in candidates, each explicit
// file-tag row that is also reachable via the implication closure of the
// file's other explicit file-tags (step 7: "both explicit and implicit").
func RationalizeFileTags(tx *store.Tx, candidates []model.File) error {
	for _, f := range candidates {
		fileTags, err := tx.FileTagsByFileID(f.ID)
		if err != nil {
			return err
		}
		if len(fileTags) == 0 {
			continue
		}

		pairs := make([]model.TagValuePair, len(fileTags))
		for i, ft := range fileTags {
			pairs[i] = model.TagValuePair{TagID: ft.TagID, Value: ft.Value}
		}
		closure, err := imply.ClosureForLookup(tx, pairs)
		if err != nil {
			return err
		}
		implied := make(map[model.TagValuePair]bool, len(closure))
		for _, p := range closure {
			implied[p] = true
		}

		for _, ft := range fileTags {
			if implied[model.TagValuePair{TagID: ft.TagID, Value: ft.Value}] {
				if err := tx.DeleteFileTag(f.ID, ft.TagID, ft.Value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ManualRepair repoints a single tracked file (and every tracked file
// beneath its directory) from one scoped path onto another, recomputing
// its fingerprint. No other reconciliation runs (spec.md §4.9's "manual
// repair").
func ManualRepair(tx *store.Tx, log *zap.Logger, root pathutil.CanonicalPath, from, to pathutil.ScopedPath, pretend bool) (*Report, error) {
	stored, err := tx.Settings()
	if err != nil {
		return nil, err
	}
	s := settings.FromStored(stored)
	report := &Report{}

	fromDir, fromName := from.DirAndName()
	log.Info("retrieving files under path from storage", zap.String("path", fromDir+"/"+fromName))

	fromFile, err := tx.FileByPath(fromDir, fromName)
	if err != nil {
		return nil, err
	}
	if fromFile != nil {
		if !pretend {
			if err := manualRepairFile(tx, s, *fromFile, to); err != nil {
				return nil, err
			}
		}
		report.add(Outcome{Path: pathutil.FilePath(root, fromFile.Directory, fromFile.Name), Kind: MovedTo, NewPath: to.AsAbsolute().String()})
	}

	dbFiles, err := tx.FilesByDirectory(from.Inner, from.ContainsRoot())
	if err != nil {
		return nil, err
	}
	for _, f := range dbFiles {
		if !pretend {
			if err := manualRepairFile(tx, s, f, to); err != nil {
				return nil, err
			}
		}
		report.add(Outcome{Path: pathutil.FilePath(root, f.Directory, f.Name), Kind: MovedTo, NewPath: to.AsAbsolute().String()})
	}

	return report, nil
}

func manualRepairFile(tx *store.Tx, s *settings.Settings, dbFile model.File, to pathutil.ScopedPath) error {
	absTo := to.AsAbsolute().String()
	info, err := os.Stat(absTo)
	if err != nil {
		return errs.FileNotFound(absTo)
	}

	fp, err := fingerprint.Create(absTo, algo(s, settings.FileFingerprintAlgorithm),
		algo(s, settings.DirectoryFingerprintAlgorithm), algo(s, settings.SymlinkFingerprintAlgorithm))
	if err != nil {
		return err
	}

	dir, name := to.DirAndName()
	return tx.UpdateFileByID(dbFile.ID, dir, name, fp, info.ModTime().UnixNano(), uint64(info.Size()), info.IsDir())
}

func buildPathsBySize(searchPaths []string) (map[uint64][]string, error) {
	result := map[uint64][]string{}
	for _, p := range searchPaths {
		if err := walkBySize(p, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func walkBySize(path string, result map[uint64][]string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return errs.IOError(err)
	}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return errs.IOError(err)
		}
		for _, e := range entries {
			if err := walkBySize(filepath.Join(path, e.Name()), result); err != nil {
				return err
			}
		}
		return nil
	}
	result[uint64(info.Size())] = append(result[uint64(info.Size())], path)
	return nil
}

func algo(s *settings.Settings, name string) string {
	v, _ := s.Get(name)
	return v
}
