package cli

import (
	"github.com/toyz/strata/internal/utils"
)

// Cleaner removes files written by earlier generation passes
type Cleaner struct {
	scanner       *DirectoryScanner
	fileProcessor *utils.FileProcessor
}

// NewCleaner creates a cleaner resolving patterns relative to dir
func NewCleaner(dir string) *Cleaner {
	return &Cleaner{
		scanner:       NewDirectoryScanner(dir),
		fileProcessor: utils.NewFileProcessor(),
	}
}

// CleanGeneratedFiles removes every generated unit below the base
// directories of patterns and returns the removed paths. Files merely named
// like a unit are kept unless they carry the generated header.
func (c *Cleaner) CleanGeneratedFiles(patterns []string) ([]string, error) {
	dirs, err := c.scanner.BaseDirectories(patterns)
	if err != nil {
		return nil, err
	}
	return c.fileProcessor.CleanDirectories(dirs)
}
