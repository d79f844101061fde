package githubcli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/forker/internal/execshell"
)

const (
	apiSubcommandConstant            = "api"
	pullRequestSubcommandConstant    = "pr"
	paginateFlagConstant             = "--paginate"
	jqFlagConstant                   = "--jq"
	repoFlagConstant                 = "--repo"
	forksEndpointTemplateConstant    = "repos/%s/%s/forks"
	compareEndpointTemplateConstant  = "repos/%s/%s/compare/%s...%s"
	forksJQExpressionConstant        = ".[] | {owner: .owner.login, name: .name, url: .html_url, updated_at: .updated_at}"
	compareJQExpressionConstant      = "{ahead_by: .ahead_by, behind_by: .behind_by}"
	pullRequestJSONFieldsConstant    = "number,title,author,state,createdAt"
	lineSeparatorConstant            = "\n"
	suppressedFailureMessageConstant = "GitHub lookup failed; continuing with an empty result"
	logFieldOperationConstant        = "operation"
)

// RepositoryFork is one fork of a repository as reported by the forks endpoint.
type RepositoryFork struct {
	Owner     string `json:"owner"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	UpdatedAt string `json:"updated_at"`
}

// PullRequest represents the pull request details forker records.
type PullRequest struct {
	Number    int
	Title     string
	Author    string
	State     string
	CreatedAt string
}

// CommitComparison counts how far a head ref is ahead of and behind a base ref.
type CommitComparison struct {
	AheadBy  int `json:"ahead_by"`
	BehindBy int `json:"behind_by"`
}

// ListForks enumerates every fork of owner/repository. Failures yield an empty list.
func (client *Client) ListForks(executionContext context.Context, owner string, repository string) []RepositoryFork {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(forksEndpointTemplateConstant, owner, repository),
			paginateFlagConstant,
			jqFlagConstant,
			forksJQExpressionConstant,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		client.logSuppressedFailure(OperationListForks, owner, repository, executionError)
		return []RepositoryFork{}
	}

	forks := []RepositoryFork{}
	for _, line := range strings.Split(executionResult.StandardOutput, lineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		var fork RepositoryFork
		if decodingError := json.Unmarshal([]byte(trimmedLine), &fork); decodingError != nil {
			client.logSuppressedFailure(OperationListForks, owner, repository, ResponseDecodingError{Operation: OperationListForks, Cause: decodingError})
			return []RepositoryFork{}
		}
		forks = append(forks, fork)
	}
	return forks
}

// ListPullRequests lists the open pull requests of owner/repository. Failures yield an empty list.
func (client *Client) ListPullRequests(executionContext context.Context, owner string, repository string) []PullRequest {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			pullRequestSubcommandConstant,
			listSubcommandConstant,
			repoFlagConstant,
			fmt.Sprintf(fullNameTemplateConstant, owner, repository),
			jsonFlagConstant,
			pullRequestJSONFieldsConstant,
			limitFlagConstant,
			strconv.Itoa(client.pullRequestLimit),
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		client.logSuppressedFailure(OperationListPullRequests, owner, repository, executionError)
		return []PullRequest{}
	}

	var response []struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
		Author struct {
			Login string `json:"login"`
		} `json:"author"`
		State     string `json:"state"`
		CreatedAt string `json:"createdAt"`
	}
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		client.logSuppressedFailure(OperationListPullRequests, owner, repository, ResponseDecodingError{Operation: OperationListPullRequests, Cause: decodingError})
		return []PullRequest{}
	}

	pullRequests := make([]PullRequest, 0, len(response))
	for _, pullRequestEntry := range response {
		pullRequests = append(pullRequests, PullRequest{
			Number:    pullRequestEntry.Number,
			Title:     pullRequestEntry.Title,
			Author:    pullRequestEntry.Author.Login,
			State:     pullRequestEntry.State,
			CreatedAt: pullRequestEntry.CreatedAt,
		})
	}
	return pullRequests
}

// CompareCommits compares base with head inside owner/repository. Failures yield a zero comparison.
func (client *Client) CompareCommits(executionContext context.Context, owner string, repository string, base string, head string) CommitComparison {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			apiSubcommandConstant,
			fmt.Sprintf(compareEndpointTemplateConstant, owner, repository, base, head),
			jqFlagConstant,
			compareJQExpressionConstant,
		},
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		client.logSuppressedFailure(OperationCompareCommits, owner, repository, executionError)
		return CommitComparison{}
	}

	var comparison CommitComparison
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &comparison); decodingError != nil {
		client.logSuppressedFailure(OperationCompareCommits, owner, repository, ResponseDecodingError{Operation: OperationCompareCommits, Cause: decodingError})
		return CommitComparison{}
	}
	return comparison
}

func (client *Client) logSuppressedFailure(operation OperationName, owner string, repository string, failure error) {
	client.logger.Debug(suppressedFailureMessageConstant,
		zap.String(logFieldOperationConstant, string(operation)),
		zap.String(logFieldRepositoryConstant, fmt.Sprintf(fullNameTemplateConstant, owner, repository)),
		zap.Error(failure),
	)
}
