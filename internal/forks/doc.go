// Package forks tracks GitHub forks on disk and reports on their fork networks.
//
// Manager combines a ForkStore with a GitHubClient to create and list forks,
// compare tracked forks with their root repositories, discover peer forks,
// gather pull requests and rank the most recently active forks. Reporter
// renders the results as text, JSON or YAML, and CommandBuilder exposes every
// workflow as a Cobra command.
package forks
