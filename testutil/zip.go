package testutil

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"
)

// ZipBytes builds an in-memory zip archive from name/content pairs.
// Names may contain "/" to create nested entries. Entries are written in
// sorted order so archives are reproducible.
func ZipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// ZipExtractor unpacks archives in process on an afero filesystem, standing
// in for unzip when the stager works on a MemMapFs.
type ZipExtractor struct {
	Fs afero.Fs

	// Archives records every archive path extracted.
	Archives []string
}

// Extract implements stage.Extractor.
func (z *ZipExtractor) Extract(_ context.Context, archive, dest string) error {
	z.Archives = append(z.Archives, archive)

	data, err := afero.ReadFile(z.Fs, archive)
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%s: %w", archive, err)
	}

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(entry.Name))
		if err := z.Fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		rc, err := entry.Open()
		if err != nil {
			return err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return err
		}
		if err := afero.WriteFile(z.Fs, target, content, 0o644); err != nil {
			return err
		}
	}
	return nil
}
