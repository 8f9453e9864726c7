// Package fingerprint computes the content- or size-based digest spec.md
// §6 describes as an external collaborator ("a pure function fingerprint(path,
// file_algo, dir_algo, symlink_algo) -> string over the algorithm identifiers
// in §4.4"). It has no dependency on the storage or query layers.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// dynamicThreshold is the size above which a "dynamic:<ALGO>" file
// algorithm falls back to a cheap size-based digest instead of hashing the
// full file content.
const dynamicThreshold = 100 * 1024 * 1024 // 100 MiB

// Create computes the fingerprint of path given the three algorithm
// identifiers from spec.md §4.4 (fileAlgo, dirAlgo, symlinkAlgo).
func Create(path, fileAlgo, dirAlgo, symlinkAlgo string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", errors.Wrapf(err, "unable to stat '%s'", path)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return symlinkFingerprint(path, symlinkAlgo)
	}
	if info.IsDir() {
		return directoryFingerprint(path, dirAlgo)
	}
	return fileFingerprint(path, info.Size(), fileAlgo)
}

func fileFingerprint(path string, size int64, algo string) (string, error) {
	switch {
	case algo == "none":
		return "", nil
	case algo == "dynamic:SHA256":
		if size > dynamicThreshold {
			return sizeDigest(size), nil
		}
		return hashFile(path)
	case strings.HasPrefix(algo, "dynamic:"):
		if size > dynamicThreshold {
			return sizeDigest(size), nil
		}
		return hashFile(path)
	case algo == "SHA256":
		return hashFile(path)
	default:
		return "", errors.Errorf("unknown file fingerprint algorithm '%s'", algo)
	}
}

func directoryFingerprint(path, algo string) (string, error) {
	switch algo {
	case "none":
		return "", nil
	case "content":
		entries, err := os.ReadDir(path)
		if err != nil {
			return "", errors.Wrapf(err, "unable to list '%s'", path)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		h := sha256.New()
		for _, n := range names {
			io.WriteString(h, n)
			h.Write([]byte{0})
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	default:
		return "", errors.Errorf("unknown directory fingerprint algorithm '%s'", algo)
	}
}

func symlinkFingerprint(path, algo string) (string, error) {
	switch algo {
	case "none":
		return "", nil
	case "follow":
		target, err := os.Readlink(path)
		if err != nil {
			return "", errors.Wrapf(err, "unable to read link '%s'", path)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		info, err := os.Stat(target)
		if err != nil {
			return "", errors.Wrapf(err, "unable to stat link target '%s'", target)
		}
		return fileFingerprint(target, info.Size(), "dynamic:SHA256")
	case "target":
		target, err := os.Readlink(path)
		if err != nil {
			return "", errors.Wrapf(err, "unable to read link '%s'", path)
		}
		h := sha256.Sum256([]byte(target))
		return hex.EncodeToString(h[:]), nil
	default:
		return "", errors.Errorf("unknown symlink fingerprint algorithm '%s'", algo)
	}
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "unable to open '%s'", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "unable to read '%s'", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sizeDigest(size int64) string {
	return fmt.Sprintf("size:%d", size)
}
