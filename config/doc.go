// Package config resolves relstage settings from layered sources and turns
// them into a validated Release.
//
// Values are merged with this precedence (highest first):
//  1. Command-line flags
//  2. RELSTAGE_* environment variables
//  3. Unprefixed CI variables (PUBLIC_ARTIFACTS_TOKEN, GITHUB_SHA, CI_COMMIT_SHA)
//  4. Local config (.relstage.yaml in the git root)
//  5. Global config (~/.config/relstage/config.yaml)
//  6. Built-in defaults
//
// # Basic Usage
//
//	resolver := config.NewDefaultResolver(".")
//	resolved := resolver.ResolveWithFlags(map[string]string{
//	    config.KeyPackage: "widgets-1.2.3.tgz",
//	})
//
//	rel, err := config.Load(resolved)
//	if err != nil {
//	    return err
//	}
//	if err := rel.Validate(); err != nil {
//	    return err
//	}
//
// When no token is set through the layers above, Load falls back to
// GITHUB_TOKEN or GITLAB_TOKEN depending on the provider.
//
// # Local Config
//
// .relstage.yaml is meant to be committed, so it rejects the token key:
//
//	owner: acme
//	repo: widgets
//	workflow: Continuous Integration
//	artifacts: [widgets-dist, workspace-packages]
//
// # Package Metadata
//
// ReadPackageMetadata reads package.json; TarballName gives the name of the
// primary build artifact.
package config
