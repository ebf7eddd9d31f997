package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/toyz/strata/internal/errors"
)

// FileProcessor provides utilities for common file processing operations
type FileProcessor struct {
	fileReader *FileReader
}

// NewFileProcessor creates a new file processor
func NewFileProcessor() *FileProcessor {
	return &FileProcessor{
		fileReader: NewFileReader(),
	}
}

// FileFilter defines a function that determines whether a file should be processed
type FileFilter func(path string, info os.DirEntry) bool

// DirectoryFilter defines a function that determines whether a directory should be processed
type DirectoryFilter func(path string, info os.DirEntry) bool

// FileWalkOptions configures file walking behavior
type FileWalkOptions struct {
	FileFilter      FileFilter
	DirectoryFilter DirectoryFilter
	SkipErrors      bool
}

// DefaultGoFileFilter filters for hand-written .go files
func DefaultGoFileFilter() FileFilter {
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}

		name := info.Name()
		return strings.HasSuffix(name, ".go") &&
			!strings.HasSuffix(name, "_test.go") &&
			!strings.HasPrefix(name, GeneratedPrefix)
	}
}

// GeneratedFileFilter filters for files named like strata output
func GeneratedFileFilter() FileFilter {
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}
		name := info.Name()
		return strings.HasPrefix(name, GeneratedPrefix) && strings.HasSuffix(name, ".go")
	}
}

// DefaultDirectoryFilter skips common directories that shouldn't contain source code
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"vendor":       true,
		"node_modules": true,
		"testdata":     true,
		"_examples":    true,
	}

	return func(path string, info os.DirEntry) bool {
		if !info.IsDir() {
			return true
		}

		name := info.Name()
		if strings.HasPrefix(name, ".") && name != "." && name != ".." {
			return false
		}
		return !skipDirs[name]
	}
}

// WalkFiles walks through files in a directory tree with filtering
func (fp *FileProcessor) WalkFiles(rootDir string, options FileWalkOptions) ([]string, error) {
	var matchedFiles []string

	err := filepath.WalkDir(rootDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if options.SkipErrors {
				return nil
			}
			return err
		}

		if entry.IsDir() {
			if path != rootDir && options.DirectoryFilter != nil && !options.DirectoryFilter(path, entry) {
				return filepath.SkipDir
			}
			return nil
		}

		if options.FileFilter == nil || options.FileFilter(path, entry) {
			matchedFiles = append(matchedFiles, path)
		}
		return nil
	})

	return matchedFiles, err
}

// ScanDirectoriesWithGoFiles returns every directory below rootDirs holding
// hand-written Go files
func (fp *FileProcessor) ScanDirectoriesWithGoFiles(rootDirs []string) ([]string, error) {
	var packageDirs []string
	seen := make(map[string]bool)

	for _, rootDir := range rootDirs {
		files, err := fp.WalkFiles(rootDir, FileWalkOptions{
			FileFilter:      DefaultGoFileFilter(),
			DirectoryFilter: DefaultDirectoryFilter(),
			SkipErrors:      true,
		})
		if err != nil {
			return nil, errors.WrapFileSystemError("scan", rootDir, err)
		}
		for _, file := range files {
			dir := filepath.Dir(file)
			if !seen[dir] {
				seen[dir] = true
				packageDirs = append(packageDirs, dir)
			}
		}
	}

	return packageDirs, nil
}

// CleanDirectories removes generated files below baseDirs. Only files whose
// first line is GeneratedHeader are removed.
func (fp *FileProcessor) CleanDirectories(baseDirs []string) ([]string, error) {
	var removedFiles []string

	for _, baseDir := range baseDirs {
		if baseDir == "" {
			baseDir = "."
		}
		candidates, err := fp.WalkFiles(baseDir, FileWalkOptions{
			FileFilter:      GeneratedFileFilter(),
			DirectoryFilter: DefaultDirectoryFilter(),
			SkipErrors:      true,
		})
		if err != nil {
			return removedFiles, errors.WrapFileSystemError("clean", baseDir, err)
		}

		for _, candidate := range candidates {
			generated, err := fp.fileReader.IsGenerated(candidate)
			if err != nil {
				return removedFiles, errors.WrapFileSystemError("check", candidate, err)
			}
			if !generated {
				continue
			}
			if err := os.Remove(candidate); err != nil {
				return removedFiles, errors.WrapFileSystemError("remove", candidate, err)
			}
			removedFiles = append(removedFiles, candidate)
		}
	}

	return removedFiles, nil
}

// GetFileReader returns the underlying FileReader
func (fp *FileProcessor) GetFileReader() *FileReader {
	return fp.fileReader
}

// GeneratedFileName returns the file name of a generated unit,
// e.g. ApplicationScope becomes strata_application_scope.go
func GeneratedFileName(unit string) string {
	return fmt.Sprintf("%s%s.go", GeneratedPrefix, SnakeCase(unit))
}

// SnakeCase converts a Go identifier to snake_case, keeping acronyms together
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		upper := unicode.IsUpper(r)
		if upper && i > 0 {
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
