// Package stage unpacks artifact archives and moves the expected files into
// the release output directory.
//
// A Stager writes each payload to a uniquely named scratch archive, extracts
// it into an isolated intermediate directory with the external unzip tool,
// checks that at least one expected file came out, and only then moves the
// matching files into the output directory. Scratch files are removed on
// every path.
//
// Example usage:
//
//	s := stage.New(stage.Config{OutputDir: "dist"})
//	files, err := s.Stage(ctx, stage.Request{
//	    Payload: payload,
//	    Expect:  []string{"*.tgz"},
//	})
package stage
