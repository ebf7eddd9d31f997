package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GeneratedHeader is the first line of every file strata writes
const GeneratedHeader = "// Code generated by strata. DO NOT EDIT."

// GeneratedPrefix prefixes the name of every file strata writes
const GeneratedPrefix = "strata_"

// FileReader provides common file reading functionality
type FileReader struct{}

// NewFileReader creates a new FileReader instance
func NewFileReader() *FileReader {
	return &FileReader{}
}

// ReadFile reads a file and returns its contents as a string
func (fr *FileReader) ReadFile(filePath string) (string, error) {
	cleanPath, err := fr.validateAndCleanPath(filePath)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filepath.Base(cleanPath), err)
	}
	return string(content), nil
}

// Exists reports whether path names an existing regular file
func (fr *FileReader) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsGenerated reports whether the file starts with GeneratedHeader. Files
// that merely share the name prefix are left alone.
func (fr *FileReader) IsGenerated(filePath string) (bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	return strings.TrimSpace(scanner.Text()) == GeneratedHeader, nil
}

func (fr *FileReader) validateAndCleanPath(filePath string) (string, error) {
	if filePath == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}

	cleanPath := filepath.Clean(filePath)
	if strings.Contains(cleanPath, "..") && !strings.HasPrefix(cleanPath, "..") {
		return "", fmt.Errorf("path traversal not allowed in file path: %s", filePath)
	}

	if _, err := os.Stat(cleanPath); os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", cleanPath)
	}

	return cleanPath, nil
}
