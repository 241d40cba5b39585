package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/relstage/config"
	"github.com/randalmurphal/relstage/stage"
)

func newCleanCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove scratch files left by interrupted runs",
		Long: `Remove the scratch archives and extraction directories an interrupted run
left in the work directory. Staged files in the output directory are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved := resolve(opts, flagValues(cmd))
			logger := NewLogger(opts.Stderr, resolved.Get(config.KeyLogLevel))

			stager := stage.New(stage.Config{
				Fs:      opts.Fs,
				WorkDir: resolved.Get(config.KeyWorkDir),
				Logger:  logger,
			})
			removed, err := stager.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.Stdout, "removed %d scratch entries\n", removed)
			return nil
		},
	}
}

// flagValues collects the inherited persistent flags set on cmd.
func flagValues(cmd *cobra.Command) map[string]string {
	out := make(map[string]string)
	for _, spec := range prepareFlagSpecs {
		if !spec.persistent {
			continue
		}
		if flag := cmd.Flags().Lookup(spec.name); flag != nil && flag.Changed {
			out[spec.key] = flag.Value.String()
		}
	}
	return out
}
