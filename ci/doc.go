// Package ci finds CI runs for a commit, waits for them and fetches their
// artifacts.
//
// Core types:
//   - Provider: Interface over a CI service (runs, artifacts, downloads)
//   - Query: The commit and workflow a release is built from
//   - Run: A single workflow run or pipeline
//   - Artifact / Payload: An artifact reference and its downloaded archive
//
// Operations:
//   - Locator: Finds the run matching a Query
//   - Waiter: Polls the Locator until the run completes or a deadline passes
//   - Fetcher: Resolves artifacts by exact name and downloads them
//
// Implementations:
//   - GitHubProvider: GitHub Actions via go-github
//   - GitLabProvider: GitLab pipelines via go-gitlab
//   - MockProvider: Function-field fake for tests
//
// Example usage:
//
//	provider, _ := ci.NewGitHubProvider(token, "acme", "widgets")
//	waiter := ci.NewWaiter(ci.NewLocator(provider), ci.WaiterConfig{})
//	run, err := waiter.Wait(ctx, ci.Query{CommitSHA: sha, Workflow: "release"})
//	if err != nil {
//	    return err
//	}
//	payload, err := ci.NewFetcher(provider, ci.FetcherConfig{}).Fetch(ctx, run, "dist")
package ci
