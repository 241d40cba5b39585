package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/relstage/ci"
	"github.com/randalmurphal/relstage/config"
	relerrors "github.com/randalmurphal/relstage/errors"
	"github.com/randalmurphal/relstage/notify"
	"github.com/randalmurphal/relstage/runner"
	"github.com/randalmurphal/relstage/stage"
)

// Options holds the collaborators the commands use. Zero values select the
// real implementations.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer

	// Fs is used for package.json and staging.
	Fs afero.Fs

	// Runner runs git and unzip.
	Runner runner.CommandRunner

	// Resolver builds the config resolver for a start directory.
	Resolver func(startDir string) *config.Resolver

	// SaveConfig locates the files written by config set and unset.
	SaveConfig *config.SaveConfig

	// NewProvider creates the CI provider.
	NewProvider func(ci.ProviderConfig) (ci.Provider, error)

	// Extractor overrides the unzip extractor.
	Extractor stage.Extractor

	// Notifier receives pipeline events in addition to the configured ones.
	Notifier notify.Notifier
}

func (o *Options) setDefaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Runner == nil {
		o.Runner = runner.NewExecRunner()
	}
	if o.Resolver == nil {
		o.Resolver = config.NewDefaultResolver
	}
	if o.SaveConfig == nil {
		sc := config.DefaultSaveConfig()
		o.SaveConfig = &sc
	}
	if o.NewProvider == nil {
		o.NewProvider = ci.NewProvider
	}
	if o.Extractor == nil {
		o.Extractor = stage.NewUnzipExtractor(o.Runner)
	}
}

// NewRootCommand builds the relstage command tree. Running the root command
// prepares the release payload for a commit.
func NewRootCommand(opts Options) *cobra.Command {
	opts.setDefaults()

	flags := &prepareFlags{}
	root := &cobra.Command{
		Use:   "relstage",
		Short: "Stage the CI-built release artifacts for a commit",
		Long: `relstage waits for the CI run that built a commit, downloads its release
artifacts and stages the package tarballs into the output directory.

Settings come from flags, RELSTAGE_* environment variables, .relstage.yaml at
the git root and ~/.config/relstage/config.yaml, in that order of precedence.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrepare(cmd.Context(), &opts, flags.values(cmd))
		},
	}
	flags.register(root)

	root.AddCommand(
		newCleanCommand(&opts),
		newConfigCommand(&opts),
	)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, opts Options) int {
	opts.setDefaults()
	root := NewRootCommand(opts)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(opts.Stderr, "Error: %v\n", relerrors.Wrap(err))
		return 1
	}
	return 0
}
