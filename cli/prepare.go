package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/randalmurphal/relstage/config"
	relerrors "github.com/randalmurphal/relstage/errors"
	"github.com/randalmurphal/relstage/git"
	"github.com/randalmurphal/relstage/notify"
	"github.com/randalmurphal/relstage/release"
	"github.com/randalmurphal/relstage/runner"
	"github.com/randalmurphal/relstage/stage"
)

func runPrepare(ctx context.Context, opts *Options, flags map[string]string) error {
	resolved := resolve(opts, flags)
	logger := NewLogger(opts.Stderr, resolved.Get(config.KeyLogLevel))

	if err := deriveFromGit(ctx, opts.Runner, resolved, logger); err != nil {
		return err
	}

	rel, err := config.Load(resolved)
	if err != nil {
		return err
	}
	if !knownLevel(rel.LogLevel) {
		return &config.FieldError{Key: config.KeyLogLevel, Value: rel.LogLevel, Reason: "must be debug, info, warn or error"}
	}

	primary, err := primaryArtifact(opts.Fs, rel)
	if err != nil {
		return err
	}
	if err := rel.Validate(); err != nil {
		return err
	}

	logger.Debug("configuration resolved",
		"provider", rel.Provider+" ("+resolved.Describe(config.KeyProvider)+")",
		"repo", rel.Slug(),
		"commit", rel.Commit+" ("+resolved.Describe(config.KeyCommit)+")",
		"workflow", rel.Workflow,
		"primary_artifact", primary,
	)

	provider, err := opts.NewProvider(rel.ProviderConfig())
	if err != nil {
		return err
	}

	notifier := buildNotifier(rel, logger, opts.Notifier)
	ctx = notify.WithNotifier(ctx, notifier)

	stager := stage.New(stage.Config{
		Fs:        opts.Fs,
		WorkDir:   rel.WorkDir,
		OutputDir: outputDir(rel),
		Extractor: opts.Extractor,
		Notifier:  notifier,
		Logger:    logger,
	})

	orch, err := release.New(release.Config{
		Commit:            rel.Commit,
		Workflow:          rel.Workflow,
		Version:           rel.Version,
		PrimaryArtifact:   primary,
		WorkspaceArtifact: rel.WorkspaceArtifact,
		Package:           rel.Package,
		Artifacts:         rel.Artifacts,
		Timeout:           rel.Timeout,
		PollInterval:      rel.PollInterval,
		Concurrency:       rel.Concurrency,
		Notifier:          notify.NotifierFromContext(ctx),
		Logger:            logger,
	}, provider, stager)
	if err != nil {
		return err
	}

	result, err := orch.Execute(ctx)
	if err != nil {
		return relerrors.Wrap(err, relerrors.WithServerURL(serverURL(rel)))
	}

	for _, f := range result.Files {
		fmt.Fprintln(opts.Stdout, f.Path)
	}
	return nil
}

// resolve layers flags over files, environment and defaults.
func resolve(opts *Options, flags map[string]string) *config.Resolved {
	startDir := flags[config.KeyWorkDir]
	if startDir == "" {
		startDir = "."
	}
	return opts.Resolver(startDir).ResolveWithFlags(flags)
}

// deriveFromGit fills the commit and remote from the work dir's repository
// when no other source set them.
func deriveFromGit(ctx context.Context, r runner.CommandRunner, resolved *config.Resolved, logger *slog.Logger) error {
	repo := git.NewRepo(resolved.Get(config.KeyWorkDir), r)

	if resolved.Get(config.KeyCommit) == "" {
		sha, err := repo.HeadSHA(ctx)
		if err != nil {
			return relerrors.NewNotInGitRepoError(err)
		}
		resolved.Set(config.KeyCommit, sha, config.SourceDerived)
	}

	needRemote := resolved.Get(config.KeyRemote) == "" &&
		(resolved.Get(config.KeyProvider) == "" || resolved.Get(config.KeyOwner) == "" || resolved.Get(config.KeyRepo) == "")
	if needRemote {
		url, err := repo.RemoteURL(ctx, "origin")
		if err != nil {
			// Validation reports the missing repository settings.
			logger.Debug("no origin remote", "error", err)
			return nil
		}
		resolved.Set(config.KeyRemote, url, config.SourceDerived)
	}
	return nil
}

// primaryArtifact returns the tarball name of the package described by
// package.json and records its version on rel. A missing package.json is
// tolerated when the artifacts to fetch are named explicitly.
func primaryArtifact(fs afero.Fs, rel *config.Release) (string, error) {
	path := rel.PackageJSON
	if !filepath.IsAbs(path) {
		path = filepath.Join(rel.WorkDir, path)
	}

	meta, err := config.ReadPackageMetadata(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && (rel.Package != "" || len(rel.Artifacts) > 0) {
			return "", nil
		}
		return "", err
	}

	if rel.Version != "" {
		meta.Version = rel.Version
	} else {
		rel.Version = meta.Version
	}
	return meta.TarballName(), nil
}

func outputDir(rel *config.Release) string {
	if filepath.IsAbs(rel.OutputDir) {
		return rel.OutputDir
	}
	return filepath.Join(rel.WorkDir, rel.OutputDir)
}

func buildNotifier(rel *config.Release, logger *slog.Logger, extra notify.Notifier) notify.Notifier {
	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if rel.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(rel.WebhookURL, nil))
	}
	if rel.SlackWebhookURL != "" {
		var slackOpts []notify.SlackOption
		if rel.SlackChannel != "" {
			slackOpts = append(slackOpts, notify.WithSlackChannel(rel.SlackChannel))
		}
		notifiers = append(notifiers, notify.NewSlackNotifier(rel.SlackWebhookURL, slackOpts...))
	}
	if extra != nil {
		notifiers = append(notifiers, extra)
	}
	return notify.NewMultiNotifier(notifiers...)
}

func serverURL(rel *config.Release) string {
	if rel.BaseURL != "" {
		return rel.BaseURL
	}
	if rel.Provider == "gitlab" {
		return "https://gitlab.com"
	}
	return "https://api.github.com"
}
