// Package testutil provides utilities for testing.
package testutil

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// PackageJSON returns a minimal package.json document.
func PackageJSON(t *testing.T, name, version string) []byte {
	t.Helper()

	data, err := json.MarshalIndent(map[string]any{
		"name":    name,
		"version": version,
		"private": false,
		"scripts": map[string]string{"prepack": "tsc -b"},
	}, "", "  ")
	if err != nil {
		t.Fatalf("marshal package.json: %v", err)
	}
	return data
}

// WritePackageJSON writes a package.json for name@version into dir on fs and
// returns its path.
func WritePackageJSON(t *testing.T, fs afero.Fs, dir, name, version string) string {
	t.Helper()

	path := filepath.Join(dir, "package.json")
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create %s: %v", dir, err)
	}
	if err := afero.WriteFile(fs, path, PackageJSON(t, name, version), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// TarballZip returns a zip archive holding one placeholder tarball per name,
// as CI uploads them.
func TarballZip(t *testing.T, names ...string) []byte {
	t.Helper()

	files := make(map[string]string, len(names))
	for _, name := range names {
		files[name] = "tarball:" + name
	}
	return ZipBytes(t, files)
}
