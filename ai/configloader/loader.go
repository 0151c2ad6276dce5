// Package configloader reads optional YAML overrides (the prompt catalogue)
// from a configuration directory.
package configloader

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader resolves YAML files relative to a base directory.
type Loader struct {
	baseDir string
}

// NewLoader creates a new configuration loader.
func NewLoader(baseDir string) *Loader {
	return &Loader{baseDir: baseDir}
}

// BaseDir returns the directory files are resolved against.
func (l *Loader) BaseDir() string {
	return l.baseDir
}

// Load reads subPath and unmarshals it into target. Keys absent from the file
// leave the corresponding fields of target untouched.
func (l *Loader) Load(subPath string, target any) error {
	data, err := l.ReadFileWithFallback(subPath)
	if err != nil {
		return fmt.Errorf("read file %s: %w", subPath, err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal YAML %s: %w", subPath, err)
	}
	return nil
}

// ReadFileWithFallback tries to read file from path relative to baseDir,
// then falls back to the executable directory for packaged builds.
func (l *Loader) ReadFileWithFallback(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.baseDir, path))
	if err == nil {
		return data, nil
	}
	if filepath.IsAbs(l.baseDir) {
		return nil, err
	}

	execPath, execErr := os.Executable()
	if execErr != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(filepath.Dir(execPath), l.baseDir, path))
}
