// Package scanner discovers feature files below a set of directories.
package scanner

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fjglira/xraysync/internal/domain"
)

// Scanner discovers feature files in the project tree.
type Scanner interface {
	Scan(rootDir string, include, exclude []string) ([]string, error)
}

// FeatureScanner implements Scanner using filepath.WalkDir.
type FeatureScanner struct {
	Recursive bool
}

// NewScanner creates a new FeatureScanner.
func NewScanner(recursive bool) *FeatureScanner {
	return &FeatureScanner{Recursive: recursive}
}

// Scan walks rootDir and returns the sorted paths matching any include pattern and no exclude
// pattern. Patterns are slash separated, relative to rootDir, and may use ** for any number of
// directories. A pattern without a slash is matched against the file name only.
func (s *FeatureScanner) Scan(rootDir string, include, exclude []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(rootDir, p)
		if relErr != nil {
			rel = p
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if !s.Recursive || matchAny(rel, exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if matchAny(rel, exclude) {
			return nil
		}
		if matchAny(rel, include) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewErrorWithSuggestion(domain.PhaseScan, rootDir, 0,
			"failed to scan directory",
			"check cucumber.directories in xraysync.yaml",
			err)
	}

	sort.Strings(files)
	return files, nil
}

// ScanAll scans every directory and returns the distinct paths in directory order. Directories
// that cannot be scanned are returned as errors next to the paths found elsewhere.
func ScanAll(s Scanner, dirs, include, exclude []string) ([]string, []error) {
	seen := map[string]struct{}{}
	var (
		files []string
		errs  []error
	)
	for _, dir := range dirs {
		found, err := s.Scan(dir, include, exclude)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, f := range found {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			files = append(files, f)
		}
	}
	return files, errs
}

func matchAny(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchGlob(rel, pattern) {
			return true
		}
	}
	return false
}

// matchGlob matches a slash separated relative path against pattern.
func matchGlob(rel, pattern string) bool {
	if !strings.Contains(pattern, "/") {
		ok, _ := path.Match(pattern, path.Base(strings.TrimSuffix(rel, "/")))
		return ok
	}
	return matchSegments(strings.Split(strings.Trim(rel, "/"), "/"), strings.Split(strings.Trim(pattern, "/"), "/"), strings.HasSuffix(pattern, "/**"))
}

// matchSegments matches path segments against pattern segments, where "**" consumes zero or more
// segments. A trailing "/**" also matches the directory itself.
func matchSegments(segs, pattern []string, trailing bool) bool {
	if len(pattern) == 0 {
		return len(segs) == 0
	}
	if pattern[0] == "**" {
		if len(pattern) == 1 {
			return len(segs) > 0 || trailing
		}
		for i := 0; i <= len(segs); i++ {
			if matchSegments(segs[i:], pattern[1:], trailing) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	if ok, _ := path.Match(pattern[0], segs[0]); !ok {
		return false
	}
	return matchSegments(segs[1:], pattern[1:], trailing)
}
