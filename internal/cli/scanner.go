package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/utils"
)

// DirectoryScanner turns go/packages patterns into the directories they cover
type DirectoryScanner struct {
	dir           string
	fileProcessor *utils.FileProcessor
}

// NewDirectoryScanner creates a scanner resolving patterns relative to dir
func NewDirectoryScanner(dir string) *DirectoryScanner {
	return &DirectoryScanner{
		dir:           dir,
		fileProcessor: utils.NewFileProcessor(),
	}
}

// baseOf returns the absolute directory of pattern and whether the pattern
// covers its subdirectories
func (s *DirectoryScanner) baseOf(pattern string) (string, bool, error) {
	recursive := strings.HasSuffix(pattern, "...")
	base := strings.TrimSuffix(strings.TrimSuffix(pattern, "..."), "/")
	if base == "" {
		base = "."
	}
	if !filepath.IsAbs(base) {
		base = filepath.Join(s.dir, base)
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", false, errors.WrapWithOperation("process", "path resolution "+pattern, err)
	}
	return abs, recursive, nil
}

// BaseDirectories returns the absolute base directory of every pattern. A
// recursive pattern such as ./internal/... yields ./internal.
func (s *DirectoryScanner) BaseDirectories(patterns []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		base, _, err := s.baseOf(pattern)
		if err != nil {
			return nil, err
		}
		if !seen[base] {
			seen[base] = true
			dirs = append(dirs, base)
		}
	}
	return dirs, nil
}

// ScanDirectories returns every directory covered by patterns that holds
// hand-written Go files
func (s *DirectoryScanner) ScanDirectories(patterns []string) ([]string, error) {
	var recursive, single []string
	for _, pattern := range patterns {
		base, deep, err := s.baseOf(pattern)
		if err != nil {
			return nil, err
		}
		if deep {
			recursive = append(recursive, base)
		} else {
			single = append(single, base)
		}
	}

	dirs, err := s.fileProcessor.ScanDirectoriesWithGoFiles(recursive)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		seen[d] = true
	}
	for _, d := range single {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			continue
		}
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs, nil
}
