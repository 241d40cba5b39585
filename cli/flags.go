package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/relstage/config"
)

// flagSpec binds a command-line flag to a config key.
type flagSpec struct {
	name       string
	shorthand  string
	key        string
	usage      string
	persistent bool
}

var prepareFlagSpecs = []flagSpec{
	{name: "work-dir", shorthand: "C", key: config.KeyWorkDir, usage: "directory holding package.json and scratch files", persistent: true},
	{name: "output-dir", shorthand: "o", key: config.KeyOutputDir, usage: "directory receiving staged files, relative to the work dir", persistent: true},
	{name: "log-level", key: config.KeyLogLevel, usage: "debug, info, warn or error", persistent: true},

	{name: "package", shorthand: "p", key: config.KeyPackage, usage: "stage only this package file"},
	{name: "commit", key: config.KeyCommit, usage: "commit SHA the CI run built (default: HEAD)"},
	{name: "workflow", shorthand: "w", key: config.KeyWorkflow, usage: "CI workflow name, matched case-insensitively"},
	{name: "version", key: config.KeyVersion, usage: "release version, overriding package.json"},
	{name: "workspace-artifact", key: config.KeyWorkspaceArtifact, usage: "artifact holding the workspace packages"},
	{name: "package-json", key: config.KeyPackageJSON, usage: "path of package.json, relative to the work dir"},
	{name: "timeout", key: config.KeyTimeout, usage: "how long to wait for the run (e.g. 15m)"},
	{name: "poll-interval", key: config.KeyPollInterval, usage: "delay between run status checks"},
	{name: "concurrency", key: config.KeyConcurrency, usage: "artifacts downloaded in parallel"},
	{name: "max-pages", key: config.KeyMaxPages, usage: "result pages read when listing runs (-1 for all)"},
	{name: "provider", key: config.KeyProvider, usage: "github or gitlab (default: detected from the remote)"},
	{name: "remote", key: config.KeyRemote, usage: "git remote URL (default: origin)"},
	{name: "owner", key: config.KeyOwner, usage: "repository owner or GitLab namespace"},
	{name: "repo", key: config.KeyRepo, usage: "repository name"},
	{name: "base-url", key: config.KeyBaseURL, usage: "API root for GitHub Enterprise or self-hosted GitLab"},
	{name: "webhook", key: config.KeyWebhookURL, usage: "URL receiving every pipeline event as JSON"},
	{name: "slack-webhook", key: config.KeySlackWebhookURL, usage: "Slack incoming webhook for release results"},
	{name: "slack-channel", key: config.KeySlackChannel, usage: "Slack channel override"},
}

// artifactFlag is repeatable and maps onto config.KeyArtifacts.
const artifactFlag = "artifact"

type prepareFlags struct {
	artifacts []string
}

func (f *prepareFlags) register(cmd *cobra.Command) {
	for _, spec := range prepareFlagSpecs {
		fs := cmd.Flags()
		if spec.persistent {
			fs = cmd.PersistentFlags()
		}
		fs.StringP(spec.name, spec.shorthand, "", spec.usage)
	}
	cmd.Flags().StringSliceVarP(&f.artifacts, artifactFlag, "a", nil,
		"artifact to fetch in multi-artifact mode (repeatable)")
}

// values returns the config values of the flags set on the command line.
func (f *prepareFlags) values(cmd *cobra.Command) map[string]string {
	out := make(map[string]string)
	for _, spec := range prepareFlagSpecs {
		flag := cmd.Flags().Lookup(spec.name)
		if flag == nil || !flag.Changed {
			continue
		}
		out[spec.key] = flag.Value.String()
	}
	if flag := cmd.Flags().Lookup(artifactFlag); flag != nil && flag.Changed {
		out[config.KeyArtifacts] = strings.Join(f.artifacts, ",")
	}
	return out
}
