package ci

import (
	"fmt"
	"strings"
)

// ProviderConfig selects and configures a Provider.
type ProviderConfig struct {
	Kind      string // "github" or "gitlab"; detected from RemoteURL when empty
	Token     string
	Owner     string
	Repo      string
	RemoteURL string // fills Kind, Owner and Repo when they are empty
	BaseURL   string // Enterprise / self-hosted API root
	MaxPages  int    // 0 keeps DefaultMaxPages; negative means unlimited
}

// Complete fills Kind, Owner, Repo and, for self-hosted GitLab, BaseURL
// from RemoteURL. Explicit values are never overwritten.
func (cfg ProviderConfig) Complete() (ProviderConfig, error) {
	if cfg.RemoteURL == "" {
		return cfg, nil
	}
	if cfg.Kind == "" {
		kind, err := DetectProvider(cfg.RemoteURL)
		if err != nil {
			return cfg, err
		}
		cfg.Kind = kind
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		owner, repo, err := ParseRepoFromURL(cfg.RemoteURL)
		if err != nil {
			return cfg, fmt.Errorf("parse remote URL: %w", err)
		}
		if cfg.Owner == "" {
			cfg.Owner = owner
		}
		if cfg.Repo == "" {
			cfg.Repo = repo
		}
	}
	if cfg.Kind == "gitlab" && cfg.BaseURL == "" {
		cfg.BaseURL = gitlabBaseURL(cfg.RemoteURL)
	}
	return cfg, nil
}

// NewProvider creates the Provider described by cfg.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	cfg, err := cfg.Complete()
	if err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case "github":
		var opts []GitHubOption
		if cfg.BaseURL != "" {
			opts = append(opts, WithGitHubEnterpriseURL(cfg.BaseURL))
		}
		if cfg.MaxPages != 0 {
			opts = append(opts, WithGitHubMaxPages(cfg.MaxPages))
		}
		return NewGitHubProvider(cfg.Token, cfg.Owner, cfg.Repo, opts...)

	case "gitlab":
		if cfg.Owner == "" || cfg.Repo == "" {
			return nil, fmt.Errorf("owner and repo are required")
		}
		p, err := NewGitLabProvider(cfg.Token, cfg.BaseURL, cfg.Owner+"/"+cfg.Repo)
		if err != nil {
			return nil, err
		}
		if cfg.MaxPages != 0 {
			p.SetMaxPages(cfg.MaxPages)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Kind)
	}
}

// DetectProvider determines the CI service from a git remote URL.
// Returns "github" or "gitlab".
func DetectProvider(remoteURL string) (string, error) {
	lower := strings.ToLower(remoteURL)

	if strings.Contains(lower, "github") {
		return "github", nil
	}
	if strings.Contains(lower, "gitlab") {
		return "gitlab", nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownProvider, remoteURL)
}

// ParseRepoFromURL extracts owner and repo from a git remote URL.
// For GitLab subgroups the owner is the full namespace path.
func ParseRepoFromURL(remoteURL string) (owner, repo string, err error) {
	var path string

	switch {
	case strings.HasPrefix(remoteURL, "git@"):
		// SSH: git@github.com:owner/repo.git
		_, rest, ok := strings.Cut(remoteURL, ":")
		if !ok {
			return "", "", fmt.Errorf("invalid SSH URL format")
		}
		path = rest

	case strings.HasPrefix(remoteURL, "ssh://"):
		// ssh://git@host[:port]/owner/repo.git
		rest := strings.TrimPrefix(remoteURL, "ssh://")
		_, p, ok := strings.Cut(rest, "/")
		if !ok {
			return "", "", fmt.Errorf("invalid SSH URL format")
		}
		path = p

	default:
		// HTTPS: https://github.com/owner/repo.git
		rest := strings.TrimPrefix(remoteURL, "https://")
		rest = strings.TrimPrefix(rest, "http://")
		_, p, ok := strings.Cut(rest, "/")
		if !ok {
			return "", "", fmt.Errorf("invalid URL format")
		}
		path = p
	}

	path = strings.Trim(strings.TrimSuffix(strings.TrimSpace(path), ".git"), "/")
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return "", "", fmt.Errorf("invalid repository path %q", path)
	}
	return path[:idx], path[idx+1:], nil
}
