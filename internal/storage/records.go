package storage

import "strings"

// ForkInfo is the persisted metadata of a tracked fork. Records written by the
// fork workflow populate ForkURL and OriginalURL while records written by the
// account listing populate URL and Description. RootURL and Description are
// nullable and persist as JSON null when unknown.
type ForkInfo struct {
	Name        string  `json:"name" yaml:"name"`
	URL         string  `json:"url,omitempty" yaml:"url,omitempty"`
	ForkURL     string  `json:"fork_url,omitempty" yaml:"fork_url,omitempty"`
	OriginalURL string  `json:"original_url,omitempty" yaml:"original_url,omitempty"`
	RootURL     *string `json:"root_url" yaml:"root_url"`
	Owner       string  `json:"owner,omitempty" yaml:"owner,omitempty"`
	Description *string `json:"description" yaml:"description"`
	UpdatedAt   string  `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// ResolvedForkURL returns the fork location, preferring ForkURL over URL.
func (info ForkInfo) ResolvedForkURL() string {
	if trimmed := strings.TrimSpace(info.ForkURL); len(trimmed) > 0 {
		return trimmed
	}
	return strings.TrimSpace(info.URL)
}

// RootRepositoryURL returns RootURL, or an empty string when it is null.
func (info ForkInfo) RootRepositoryURL() string {
	return stringValue(info.RootURL)
}

// DescriptionText returns Description, or an empty string when it is null.
func (info ForkInfo) DescriptionText() string {
	return stringValue(info.Description)
}

func (info ForkInfo) isZero() bool {
	return info == ForkInfo{}
}

// NullableString returns nil for blank values and a pointer to value otherwise.
func NullableString(value string) *string {
	if len(strings.TrimSpace(value)) == 0 {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// Peer is another fork of the same root repository.
type Peer struct {
	Owner     string `json:"owner" yaml:"owner"`
	Name      string `json:"name" yaml:"name"`
	URL       string `json:"url" yaml:"url"`
	UpdatedAt string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// PullRequest is a pull request observed on a fork or its root.
type PullRequest struct {
	Number    int    `json:"number" yaml:"number"`
	Title     string `json:"title" yaml:"title"`
	Author    string `json:"author" yaml:"author"`
	State     string `json:"state" yaml:"state"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}
