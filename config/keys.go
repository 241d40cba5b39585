package config

import (
	"context"

	"github.com/randalmurphal/relstage/git"
)

// Configuration keys. Each maps to RELSTAGE_<KEY> in the environment and to
// the same name in the YAML config files.
const (
	KeyProvider          = "provider"
	KeyOwner             = "owner"
	KeyRepo              = "repo"
	KeyRemote            = "remote"
	KeyBaseURL           = "base_url"
	KeyToken             = "token"
	KeyWorkflow          = "workflow"
	KeyCommit            = "commit"
	KeyTimeout           = "timeout"
	KeyPollInterval      = "poll_interval"
	KeyWorkDir           = "work_dir"
	KeyOutputDir         = "output_dir"
	KeyPackage           = "package"
	KeyArtifacts         = "artifacts"
	KeyWorkspaceArtifact = "workspace_artifact"
	KeyPackageJSON       = "package_json"
	KeyVersion           = "version"
	KeyConcurrency       = "concurrency"
	KeyMaxPages          = "max_pages"
	KeyLogLevel          = "log_level"
	KeyWebhookURL        = "webhook_url"
	KeySlackWebhookURL   = "slack_webhook_url"
	KeySlackChannel      = "slack_channel"
)

// Defaults used when no other source sets a key.
const (
	DefaultWorkflow          = "Continuous Integration"
	DefaultWorkspaceArtifact = "workspace-packages"
	DefaultPackageJSON       = "package.json"
	DefaultOutputDir         = "dist"
	DefaultLogLevel          = "info"
)

// Names used to locate configuration on disk and in the environment.
const (
	EnvPrefix       = "RELSTAGE_"
	GlobalConfigDir = "relstage"
	LocalConfigName = ".relstage.yaml"
)

// Defaults returns the built-in default value for every defaulted key.
func Defaults() map[string]string {
	return map[string]string{
		KeyWorkflow:          DefaultWorkflow,
		KeyTimeout:           "15m",
		KeyPollInterval:      "10s",
		KeyWorkDir:           ".",
		KeyOutputDir:         DefaultOutputDir,
		KeyWorkspaceArtifact: DefaultWorkspaceArtifact,
		KeyPackageJSON:       DefaultPackageJSON,
		KeyConcurrency:       "1",
		KeyMaxPages:          "10",
		KeyLogLevel:          DefaultLogLevel,
	}
}

// EnvAliases returns the unprefixed variables consulted for keys that CI
// systems already populate. Provider-specific tokens are handled by Load.
func EnvAliases() map[string][]string {
	return map[string][]string{
		KeyToken:  {"PUBLIC_ARTIFACTS_TOKEN"},
		KeyCommit: {"GITHUB_SHA", "CI_COMMIT_SHA"},
	}
}

// AllKeys lists every configuration key.
func AllKeys() []string {
	return []string{
		KeyProvider, KeyOwner, KeyRepo, KeyRemote, KeyBaseURL, KeyToken,
		KeyWorkflow, KeyCommit, KeyTimeout, KeyPollInterval, KeyWorkDir,
		KeyOutputDir, KeyPackage, KeyArtifacts, KeyWorkspaceArtifact,
		KeyPackageJSON, KeyVersion, KeyConcurrency, KeyMaxPages, KeyLogLevel,
		KeyWebhookURL, KeySlackWebhookURL, KeySlackChannel,
	}
}

// GlobalKeys lists the keys accepted in the global config file.
func GlobalKeys() []string {
	return []string{
		KeyProvider, KeyBaseURL, KeyToken, KeyWorkflow, KeyTimeout,
		KeyPollInterval, KeyOutputDir, KeyConcurrency, KeyMaxPages,
		KeyLogLevel, KeyWebhookURL, KeySlackWebhookURL, KeySlackChannel,
	}
}

// LocalKeys lists the keys accepted in .relstage.yaml. The local file is
// committed to the repository, so it never carries a credential.
func LocalKeys() []string {
	return []string{
		KeyProvider, KeyOwner, KeyRepo, KeyRemote, KeyBaseURL, KeyWorkflow,
		KeyTimeout, KeyPollInterval, KeyOutputDir, KeyArtifacts,
		KeyWorkspaceArtifact, KeyPackageJSON, KeyConcurrency, KeyMaxPages,
		KeyLogLevel, KeyWebhookURL, KeySlackWebhookURL, KeySlackChannel,
	}
}

// NewDefaultResolver returns the resolver used by the relstage command,
// searching for the git root from startDir.
func NewDefaultResolver(startDir string) *Resolver {
	return NewResolver(DefaultResolverConfig(startDir))
}

// DefaultResolverConfig returns relstage's resolver settings.
func DefaultResolverConfig(startDir string) ResolverConfig {
	return ResolverConfig{
		EnvPrefix:       EnvPrefix,
		EnvAliases:      EnvAliases(),
		EnvKeys:         AllKeys(),
		GlobalConfigDir: GlobalConfigDir,
		LocalConfigName: LocalConfigName,
		StartDir:        startDir,
		Defaults:        Defaults(),
		ValidGlobalKeys: GlobalKeys(),
		ValidLocalKeys:  LocalKeys(),
		GitRootFinder:   gitTopLevel,
	}
}

// gitTopLevel asks git for the working tree root, walking up from startDir
// for a .git entry when git is unavailable.
func gitTopLevel(startDir string) (string, error) {
	root, err := git.NewRepo(startDir, nil).TopLevel(context.Background())
	if err == nil && root != "" {
		return root, nil
	}
	if root = findGitRoot(startDir); root != "" {
		return root, nil
	}
	if err == nil {
		err = git.ErrNotGitRepo
	}
	return "", err
}

// DefaultSaveConfig returns the writer matching DefaultResolverConfig.
func DefaultSaveConfig() SaveConfig {
	return SaveConfig{
		GlobalConfigDir: GlobalConfigDir,
		LocalConfigName: LocalConfigName,
		ValidGlobalKeys: GlobalKeys(),
		ValidLocalKeys:  LocalKeys(),
	}
}
