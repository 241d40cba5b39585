package stage

import (
	"context"
	"errors"

	"github.com/randalmurphal/relstage/runner"
)

// Extractor unpacks a zip archive into a directory.
type Extractor interface {
	Extract(ctx context.Context, archive, dest string) error
}

// UnzipExtractor runs the system unzip tool.
type UnzipExtractor struct {
	Runner runner.CommandRunner
}

// NewUnzipExtractor creates an extractor that runs unzip through r.
// A nil runner uses runner.NewExecRunner.
func NewUnzipExtractor(r runner.CommandRunner) *UnzipExtractor {
	if r == nil {
		r = runner.NewExecRunner()
	}
	return &UnzipExtractor{Runner: r}
}

// Extract implements Extractor. Existing files in dest are overwritten.
func (e *UnzipExtractor) Extract(ctx context.Context, archive, dest string) error {
	_, err := e.Runner.Run(ctx, "", "unzip", "-o", "-q", archive, "-d", dest)
	if err == nil {
		return nil
	}

	extractErr := &ExtractionError{Archive: archive, ExitCode: -1, Err: err}
	var cmdErr *runner.CommandError
	if errors.As(err, &cmdErr) {
		extractErr.Output = cmdErr.Output
		extractErr.ExitCode = cmdErr.ExitCode
	}
	return extractErr
}
