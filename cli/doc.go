// Package cli implements the relstage command line: the root command that
// prepares a release, plus clean and config subcommands.
package cli
