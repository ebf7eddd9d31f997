package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// GoModule describes the module enclosing a directory
type GoModule struct {
	Path      string // module path from the module directive
	Dir       string // directory holding go.mod
	GoVersion string // go directive, empty if absent
}

// GoModParser provides utilities for parsing go.mod files
type GoModParser struct {
	fileReader *FileReader
}

// NewGoModParser creates a new go.mod parser
func NewGoModParser(fileReader *FileReader) *GoModParser {
	return &GoModParser{
		fileReader: fileReader,
	}
}

// ParseModule reads a go.mod file
func (p *GoModParser) ParseModule(goModPath string) (*GoModule, error) {
	cleanPath := filepath.Clean(goModPath)
	if filepath.Base(cleanPath) != "go.mod" {
		return nil, fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	content, err := p.fileReader.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod file: %w", err)
	}

	modFile, err := modfile.ParseLax(cleanPath, []byte(content), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if modFile.Module == nil {
		return nil, fmt.Errorf("no module declaration found in go.mod")
	}
	if err := module.CheckImportPath(modFile.Module.Mod.Path); err != nil {
		return nil, fmt.Errorf("invalid module path in %s: %w", cleanPath, err)
	}

	mod := &GoModule{
		Path: modFile.Module.Mod.Path,
		Dir:  filepath.Dir(cleanPath),
	}
	if modFile.Go != nil {
		mod.GoVersion = modFile.Go.Version
	}
	return mod, nil
}

// FindGoModFile searches for go.mod file starting from the given directory and walking up
func (p *GoModParser) FindGoModFile(startDir string) (string, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if p.fileReader.Exists(goModPath) {
			return goModPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", fmt.Errorf("go.mod file not found above %s", startDir)
}

// FindModule locates and parses the module enclosing dir
func (p *GoModParser) FindModule(dir string) (*GoModule, error) {
	goModPath, err := p.FindGoModFile(dir)
	if err != nil {
		return nil, err
	}
	return p.ParseModule(goModPath)
}

// ImportPath returns the import path of the package in dir
func (m *GoModule) ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(m.Dir, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return m.Path, nil
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside module %s", dir, m.Path)
	}
	return m.Path + "/" + filepath.ToSlash(rel), nil
}
