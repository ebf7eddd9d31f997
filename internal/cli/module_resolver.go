package cli

import (
	"fmt"

	"github.com/toyz/strata/internal/generator"
	"github.com/toyz/strata/internal/utils"
)

// ModuleResolver maps directories of the project to import paths using the
// enclosing go.mod
type ModuleResolver struct {
	dir    string
	parser *utils.GoModParser
}

var _ generator.ModuleResolver = (*ModuleResolver)(nil)

// NewModuleResolver creates a resolver looking for go.mod at or above dir
func NewModuleResolver(dir string) *ModuleResolver {
	return &ModuleResolver{
		dir:    dir,
		parser: utils.NewGoModParser(utils.NewFileReader()),
	}
}

// ResolveModuleName returns customModule when set, the module path of the
// enclosing go.mod otherwise
func (r *ModuleResolver) ResolveModuleName(customModule string) (string, error) {
	if customModule != "" {
		return customModule, nil
	}
	mod, err := r.parser.FindModule(r.dir)
	if err != nil {
		return "", fmt.Errorf("failed to determine module name: %w", err)
	}
	return mod.Path, nil
}

// BuildPackagePath returns the import path of packageDir. packageDir must lie
// inside the module rooted at the enclosing go.mod.
func (r *ModuleResolver) BuildPackagePath(moduleName, packageDir string) (string, error) {
	mod, err := r.parser.FindModule(r.dir)
	if err != nil {
		return "", err
	}
	if moduleName != "" {
		mod.Path = moduleName
	}
	return mod.ImportPath(packageDir)
}
