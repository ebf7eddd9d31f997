package generator

import "github.com/toyz/strata/internal/models"

// CodeGenerator turns an analyzed project into generated units
type CodeGenerator interface {
	Generate(ctx *Context) ([]*models.Unit, error)
}

// ModuleResolver maps a directory to the import path of the package it holds
type ModuleResolver interface {
	ResolveModuleName(customName string) (string, error)
	BuildPackagePath(moduleName, packageDir string) (string, error)
}
