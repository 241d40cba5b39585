package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/afero"

	"github.com/randalmurphal/relstage/ci"
	"github.com/randalmurphal/relstage/notify"
)

// DefaultOutputDir is where staged files are placed.
const DefaultOutputDir = "dist"

// scratchPrefix marks scratch archives and intermediate directories.
const scratchPrefix = ".relstage-"

// Config holds configuration for Stager.
type Config struct {
	// Fs is the filesystem staged files are written to. Defaults to the OS
	// filesystem. The Extractor must write to the same filesystem.
	Fs afero.Fs

	// WorkDir holds scratch archives and intermediate directories.
	// Defaults to the current directory.
	WorkDir string

	// OutputDir receives the staged files. Defaults to DefaultOutputDir.
	OutputDir string

	Extractor Extractor
	Notifier  notify.Notifier
	Logger    *slog.Logger
}

// Stager extracts artifact payloads and stages their expected files.
type Stager struct {
	fs        afero.Fs
	workDir   string
	outputDir string
	extractor Extractor
	notifier  notify.Notifier
	logger    *slog.Logger
}

// New creates a Stager with the given configuration.
func New(cfg Config) *Stager {
	s := &Stager{
		fs:        cfg.Fs,
		workDir:   cfg.WorkDir,
		outputDir: cfg.OutputDir,
		extractor: cfg.Extractor,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
	}

	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if s.workDir == "" {
		s.workDir = "."
	}
	if s.outputDir == "" {
		s.outputDir = DefaultOutputDir
	}
	if s.extractor == nil {
		s.extractor = NewUnzipExtractor(nil)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// OutputDir returns the directory staged files are written to.
func (s *Stager) OutputDir() string {
	return s.outputDir
}

// Request describes one payload to stage.
type Request struct {
	Payload *ci.Payload

	// Expect lists the files to take from the archive, as exact relative
	// paths or path.Match patterns ("*.tgz"). At least one must match.
	Expect []string

	// RunID and Commit are carried into events.
	RunID  int64
	Commit string
}

// File is a file placed in the output directory.
type File struct {
	Name     string // Base name
	Path     string // Location under the output directory
	Source   string // Path inside the archive
	Artifact string
	Size     int64
	Digest   string // Hex BLAKE2b-256
}

// Stage extracts req.Payload and moves every file matching req.Expect into
// the output directory. Files are returned sorted by name.
func (s *Stager) Stage(ctx context.Context, req Request) (files []File, err error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	archive, dir, err := s.scratchPaths(req.Payload.Name)
	if err != nil {
		return nil, err
	}
	defer s.cleanup(archive, dir)

	if err := afero.WriteFile(s.fs, archive, req.Payload.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write scratch archive: %w", err)
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create extraction directory: %w", err)
	}

	s.logger.Debug("extracting artifact", "artifact", req.Payload.Name, "archive", archive, "dest", dir)
	if err := s.extractor.Extract(ctx, archive, dir); err != nil {
		return nil, err
	}

	extracted, err := s.listFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("list extracted files: %w", err)
	}

	matches := matchFiles(extracted, req.Expect)
	if len(matches) == 0 {
		return nil, &VerificationError{
			Artifact: req.Payload.Name,
			Expected: req.Expect,
			Found:    extracted,
		}
	}
	if err := checkDuplicates(matches); err != nil {
		return nil, err
	}

	if err := s.fs.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	for _, rel := range matches {
		f, err := s.place(ctx, req, dir, rel)
		if err != nil {
			return files, err
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// place moves one extracted file into the output directory.
func (s *Stager) place(ctx context.Context, req Request, dir, rel string) (File, error) {
	src := filepath.Join(dir, filepath.FromSlash(rel))
	name := path.Base(rel)
	target := filepath.Join(s.outputDir, name)

	newDigest, err := Digest(s.fs, src)
	if err != nil {
		return File{}, fmt.Errorf("digest %s: %w", rel, err)
	}

	if _, statErr := s.fs.Stat(target); statErr == nil {
		oldDigest, err := Digest(s.fs, target)
		if err != nil {
			return File{}, fmt.Errorf("digest existing %s: %w", target, err)
		}
		if oldDigest == newDigest {
			s.logger.Debug("staged file unchanged", "path", target, "digest", newDigest)
		} else {
			s.logger.Warn("replacing staged file",
				"path", target,
				"artifact", req.Payload.Name,
				"old_digest", oldDigest,
				"new_digest", newDigest,
			)
		}
	}

	if err := moveFile(s.fs, src, target); err != nil {
		return File{}, fmt.Errorf("stage %s: %w", name, err)
	}

	info, err := s.fs.Stat(target)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", target, err)
	}

	f := File{
		Name:     name,
		Path:     target,
		Source:   rel,
		Artifact: req.Payload.Name,
		Size:     info.Size(),
		Digest:   newDigest,
	}

	notify.Emit(ctx, s.notifier, notify.Event{
		Type:     notify.EventArtifactStaged,
		RunID:    req.RunID,
		Commit:   req.Commit,
		Artifact: req.Payload.Name,
		Path:     target,
		Message:  fmt.Sprintf("staged %s", target),
		Metadata: map[string]any{"bytes": f.Size, "digest": f.Digest},
	})

	return f, nil
}

// Sweep removes scratch archives and intermediate directories left behind by
// interrupted runs. It returns the number of entries removed.
func (s *Stager) Sweep(ctx context.Context) (int, error) {
	entries, err := afero.ReadDir(s.fs, s.workDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read work directory: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !strings.HasPrefix(entry.Name(), scratchPrefix) {
			continue
		}
		p := filepath.Join(s.workDir, entry.Name())
		if err := s.fs.RemoveAll(p); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
			continue
		}
		s.logger.Info("removed scratch entry", "path", p)
		removed++
	}
	return removed, errors.Join(errs...)
}

func (s *Stager) scratchPaths(artifact string) (archive, dir string, err error) {
	id, err := gonanoid.New(12)
	if err != nil {
		return "", "", fmt.Errorf("generate scratch name: %w", err)
	}
	base := scratchPrefix + sanitize(artifact) + "-" + id
	return filepath.Join(s.workDir, base+".zip"), filepath.Join(s.workDir, base), nil
}

func (s *Stager) cleanup(archive, dir string) {
	if err := s.fs.Remove(archive); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove scratch archive", "path", archive, "error", err)
	}
	if err := s.fs.RemoveAll(dir); err != nil {
		s.logger.Warn("failed to remove extraction directory", "path", dir, "error", err)
	}
}

// listFiles returns regular files under dir as sorted slash-separated
// relative paths.
func (s *Stager) listFiles(dir string) ([]string, error) {
	var files []string
	err := afero.Walk(s.fs, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(files)
	return files, err
}

func validate(req Request) error {
	if req.Payload == nil {
		return fmt.Errorf("%w: no payload", ErrInvalidRequest)
	}
	if len(req.Expect) == 0 {
		return fmt.Errorf("%w: no expected files for %q", ErrInvalidRequest, req.Payload.Name)
	}
	for _, pattern := range req.Expect {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("%w: pattern %q: %v", ErrInvalidRequest, pattern, err)
		}
	}
	return nil
}

// matchFiles returns the files matching any pattern, in input order.
func matchFiles(files, patterns []string) []string {
	var out []string
	for _, f := range files {
		for _, pattern := range patterns {
			if ok, _ := path.Match(pattern, f); ok {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func checkDuplicates(matches []string) error {
	byName := make(map[string][]string, len(matches))
	for _, m := range matches {
		name := path.Base(m)
		byName[name] = append(byName[name], m)
	}
	for _, m := range matches {
		name := path.Base(m)
		if paths := byName[name]; len(paths) > 1 {
			return &DuplicateFileError{Name: name, Paths: paths}
		}
	}
	return nil
}

// moveFile renames src to dst, copying when a rename is not possible.
func moveFile(fs afero.Fs, src, dst string) error {
	if err := fs.Rename(src, dst); err == nil {
		return nil
	}

	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return fs.Remove(src)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
