package stage

import (
	"errors"
	"fmt"
	"strings"
)

// Staging errors
var (
	// ErrExtraction indicates the extraction tool failed.
	ErrExtraction = errors.New("extraction failed")

	// ErrNoOutput indicates extraction succeeded but produced none of the
	// expected files.
	ErrNoOutput = errors.New("no expected files extracted")

	// ErrDuplicateFile indicates two extracted files would land on the same
	// output path.
	ErrDuplicateFile = errors.New("duplicate staged file name")

	// ErrInvalidRequest indicates a malformed staging request.
	ErrInvalidRequest = errors.New("invalid staging request")
)

// ExtractionError reports a failed extraction tool run.
type ExtractionError struct {
	Archive  string
	Output   string
	ExitCode int
	Err      error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extract %s", e.Archive)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Output != "" {
		return msg + ": " + e.Output
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg + ": failed"
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is reports ErrExtraction as a match.
func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// VerificationError reports an archive that did not contain any expected file.
type VerificationError struct {
	Artifact string
	Expected []string
	Found    []string // Files that were extracted
}

func (e *VerificationError) Error() string {
	found := "nothing"
	if len(e.Found) > 0 {
		found = strings.Join(e.Found, ", ")
	}
	return fmt.Sprintf("artifact %q contained none of [%s]; extracted %s",
		e.Artifact, strings.Join(e.Expected, ", "), found)
}

func (e *VerificationError) Unwrap() error { return ErrNoOutput }

// DuplicateFileError reports extracted files sharing a base name.
type DuplicateFileError struct {
	Name  string
	Paths []string
}

func (e *DuplicateFileError) Error() string {
	return fmt.Sprintf("%s extracted from several paths: %s", e.Name, strings.Join(e.Paths, ", "))
}

func (e *DuplicateFileError) Unwrap() error { return ErrDuplicateFile }
