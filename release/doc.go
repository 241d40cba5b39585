// Package release prepares the release payload for a commit by running the
// CI locator, waiter, fetcher and stager as one graph.
//
// Core types:
//   - Config: commit, workflow, artifact selection and timing
//   - ArtifactRequest: one artifact to fetch and the files expected inside it
//   - State: graph state carried between nodes
//   - Orchestrator: builds and executes the graph
//
// Graph nodes:
//   - WaitNode: waits for a successful run
//   - FetchNode: downloads every requested artifact
//   - StageNode: extracts payloads into the output directory
//   - ReportNode: logs staged files and emits release_prepared
//
// Example usage:
//
//	orch, err := release.New(release.Config{
//	    Commit:          sha,
//	    Workflow:        "Continuous Integration",
//	    PrimaryArtifact: "widgets-1.4.0.tgz",
//	}, provider, stager)
//	if err != nil {
//	    return err
//	}
//	result, err := orch.Execute(ctx)
package release
