package forks

import (
	"context"

	"github.com/temirov/forker/internal/githubcli"
	"github.com/temirov/forker/internal/storage"
)

// ForkStore persists fork, peer and pull request records per repository name.
type ForkStore interface {
	SaveForkInfo(repositoryName string, info storage.ForkInfo) error
	LoadForkInfo(repositoryName string) (storage.ForkInfo, bool, error)
	SavePeers(repositoryName string, peers []storage.Peer) error
	SavePullRequests(repositoryName string, pullRequests []storage.PullRequest) error
	ListTracked() ([]string, error)
}

// GitHubClient exposes the GitHub operations the manager orchestrates.
type GitHubClient interface {
	ForkRepository(executionContext context.Context, repositoryURL string, account string) (githubcli.ForkedRepository, error)
	ListUserForks(executionContext context.Context, account string) ([]githubcli.UserFork, error)
	GetRepositoryInfo(executionContext context.Context, fullName string) (githubcli.RepositoryInfo, error)
	ListForks(executionContext context.Context, owner string, repository string) []githubcli.RepositoryFork
	ListPullRequests(executionContext context.Context, owner string, repository string) []githubcli.PullRequest
	CompareCommits(executionContext context.Context, owner string, repository string, base string, head string) githubcli.CommitComparison
}

// ForkStatus reports a tracked fork together with its divergence from the root.
// AheadBy and BehindBy are nil when the comparison could not be attempted.
type ForkStatus struct {
	Name      string `json:"name" yaml:"name"`
	ForkURL   string `json:"fork_url" yaml:"fork_url"`
	RootURL   string `json:"root_url,omitempty" yaml:"root_url,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	AheadBy   *int   `json:"ahead_by,omitempty" yaml:"ahead_by,omitempty"`
	BehindBy  *int   `json:"behind_by,omitempty" yaml:"behind_by,omitempty"`
}

// PeerReport lists the other forks of a tracked repository's root.
type PeerReport struct {
	Name    string         `json:"name" yaml:"name"`
	RootURL string         `json:"root_url" yaml:"root_url"`
	Peers   []storage.Peer `json:"peers" yaml:"peers"`
}

// PullRequestReport lists the pull requests gathered for a tracked repository.
type PullRequestReport struct {
	Name         string                `json:"name" yaml:"name"`
	PullRequests []storage.PullRequest `json:"prs" yaml:"prs"`
}

// ActiveFork is one entry of the most-active ranking. RootURL is always nil.
type ActiveFork struct {
	Name      string  `json:"name" yaml:"name"`
	URL       string  `json:"url" yaml:"url"`
	Owner     string  `json:"owner" yaml:"owner"`
	UpdatedAt string  `json:"updated_at" yaml:"updated_at"`
	RootURL   *string `json:"root_url" yaml:"root_url"`
}
