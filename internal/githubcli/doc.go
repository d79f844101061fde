// Package githubcli wraps the GitHub CLI for forker workflows.
//
// It issues typed gh invocations for forking, listing and inspecting
// repositories, parses repository addresses and walks parent links to a
// fork network's root. Commands run through a GitHubCommandExecutor so the
// client can be exercised in tests without spawning processes. Lookups used
// for peers, pull requests and commit comparisons degrade to empty results
// instead of failing.
package githubcli
