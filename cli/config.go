package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/relstage/config"
	relerrors "github.com/randalmurphal/relstage/errors"
)

func newConfigCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit relstage configuration",
	}
	cmd.AddCommand(
		newConfigShowCommand(opts),
		newConfigSetCommand(opts),
		newConfigUnsetCommand(opts),
	)
	return cmd
}

func newConfigShowCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show resolved configuration values and where each came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved := resolve(opts, flagValues(cmd))

			tw := tabwriter.NewWriter(opts.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
			for _, key := range resolved.Keys() {
				value := resolved.Get(key)
				if key == config.KeyToken && value != "" {
					value = redact(value)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", key, value, resolved.Describe(key))
			}
			return tw.Flush()
		},
	}
}

func newConfigSetCommand(opts *Options) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a value to the local or global config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if global {
				if err := opts.SaveConfig.SaveGlobal(key, value); err != nil {
					return err
				}
				path, _ := opts.SaveConfig.GlobalPath()
				fmt.Fprintf(opts.Stdout, "set %s in %s\n", key, path)
				return nil
			}

			root, err := gitRoot(opts, cmd)
			if err != nil {
				return err
			}
			if err := opts.SaveConfig.SaveLocal(root, key, value); err != nil {
				return err
			}
			path, _ := opts.SaveConfig.LocalPath(root)
			fmt.Fprintf(opts.Stdout, "set %s in %s\n", key, path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&global, "global", "g", false, "write ~/.config/relstage/config.yaml instead of .relstage.yaml")
	return cmd
}

func newConfigUnsetCommand(opts *Options) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a value from the local or global config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if global {
				return opts.SaveConfig.DeleteGlobalKey(args[0])
			}
			root, err := gitRoot(opts, cmd)
			if err != nil {
				return err
			}
			return opts.SaveConfig.DeleteLocalKey(root, args[0])
		},
	}
	cmd.Flags().BoolVarP(&global, "global", "g", false, "edit the global config file")
	return cmd
}

func gitRoot(opts *Options, cmd *cobra.Command) (string, error) {
	startDir := flagValues(cmd)[config.KeyWorkDir]
	if startDir == "" {
		startDir = "."
	}
	root := opts.Resolver(startDir).GitRoot()
	if root == "" {
		return "", relerrors.NewNotInGitRepoError(nil)
	}
	return root, nil
}

func redact(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****"
}
