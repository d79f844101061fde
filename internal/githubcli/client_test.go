package githubcli_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/forker/internal/execshell"
	"github.com/temirov/forker/internal/githubcli"
)

const (
	testRootURLConstant       = "https://github.com/rails/rails"
	testForkURLConstant       = "https://github.com/octocat/rails"
	testRepositoryViewFields  = "--json name,url,description,updatedAt,parent,isFork,defaultBranchRef"
	testForkCommandConstant   = "repo fork rails/rails --clone=false --remote=false"
	testForkViewCommand       = "repo view octocat/rails " + testRepositoryViewFields
	testRootViewCommand       = "repo view rails/rails " + testRepositoryViewFields
	testForbiddenMessage      = "HTTP 403: forking is disabled"
	testForksCommandConstant  = "api repos/rails/rails/forks --paginate --jq .[] | {owner: .owner.login, name: .name, url: .html_url, updated_at: .updated_at}"
	testPullRequestsCommand   = "pr list --repo octocat/rails --json number,title,author,state,createdAt --limit 50"
	testCompareCommand        = "api repos/octocat/rails/compare/rails:main...main --jq {ahead_by: .ahead_by, behind_by: .behind_by}"
	testUserForksCommand      = "repo list octocat --fork --json name,url,description,updatedAt,parent --limit 100"
	testFixedTimestampRFC3339 = "2024-05-06T07:08:09Z"
)

type stubResponse struct {
	output string
	err    error
}

type stubGitHubExecutor struct {
	responses       map[string]stubResponse
	recordedDetails []execshell.CommandDetails
}

func (executor *stubGitHubExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	response, found := executor.responses[strings.Join(details.Arguments, " ")]
	if !found {
		return execshell.ExecutionResult{}, commandFailure(details, "not stubbed")
	}
	if response.err != nil {
		return execshell.ExecutionResult{}, response.err
	}
	return execshell.ExecutionResult{StandardOutput: response.output}, nil
}

func (executor *stubGitHubExecutor) recordedCommands() []string {
	commands := make([]string, 0, len(executor.recordedDetails))
	for _, details := range executor.recordedDetails {
		commands = append(commands, strings.Join(details.Arguments, " "))
	}
	return commands
}

func commandFailure(details execshell.CommandDetails, standardError string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGitHub, Details: details},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: standardError},
	}
}

func newTestClient(testInstance *testing.T, executor *stubGitHubExecutor) *githubcli.Client {
	testInstance.Helper()
	fixedTime, parseError := time.Parse(time.RFC3339, testFixedTimestampRFC3339)
	require.NoError(testInstance, parseError)

	client, creationError := githubcli.NewClient(executor, nil, githubcli.Configuration{Clock: func() time.Time { return fixedTime }})
	require.NoError(testInstance, creationError)
	return client
}

func TestNewClientValidation(testInstance *testing.T) {
	client, creationError := githubcli.NewClient(nil, nil, githubcli.Configuration{})
	require.ErrorIs(testInstance, creationError, githubcli.ErrExecutorNotConfigured)
	require.Nil(testInstance, client)
}

func TestLocateGitHubCLI(testInstance *testing.T) {
	testInstance.Run("found", func(testInstance *testing.T) {
		if runtime.GOOS == "windows" {
			testInstance.Skip("requires POSIX executable permissions")
		}
		fakeExecutablePath := filepath.Join(testInstance.TempDir(), "gh")
		require.NoError(testInstance, os.WriteFile(fakeExecutablePath, []byte("#!/bin/sh\nexit 0\n"), 0o755))

		executablePath, locateError := githubcli.LocateGitHubCLI(func() (string, error) { return fakeExecutablePath, nil })
		require.NoError(testInstance, locateError)
		require.Equal(testInstance, fakeExecutablePath, executablePath)
	})

	testInstance.Run("resolved_path_missing", func(testInstance *testing.T) {
		missingPath := filepath.Join(testInstance.TempDir(), "gh")
		_, locateError := githubcli.LocateGitHubCLI(func() (string, error) { return missingPath, nil })

		var toolNotFoundError githubcli.ToolNotFoundError
		require.ErrorAs(testInstance, locateError, &toolNotFoundError)
		require.Error(testInstance, toolNotFoundError.Cause)
	})

	testInstance.Run("resolved_path_not_executable", func(testInstance *testing.T) {
		if runtime.GOOS == "windows" {
			testInstance.Skip("requires POSIX executable permissions")
		}
		plainFilePath := filepath.Join(testInstance.TempDir(), "gh")
		require.NoError(testInstance, os.WriteFile(plainFilePath, []byte("not a program"), 0o644))

		_, locateError := githubcli.LocateGitHubCLI(func() (string, error) { return plainFilePath, nil })
		var toolNotFoundError githubcli.ToolNotFoundError
		require.ErrorAs(testInstance, locateError, &toolNotFoundError)
	})

	testInstance.Run("environment_override_missing", func(testInstance *testing.T) {
		testInstance.Setenv("GH_PATH", filepath.Join(testInstance.TempDir(), "gh"))
		_, locateError := githubcli.LocateGitHubCLI(nil)

		var toolNotFoundError githubcli.ToolNotFoundError
		require.ErrorAs(testInstance, locateError, &toolNotFoundError)
	})

	testInstance.Run("missing", func(testInstance *testing.T) {
		lookupFailure := errors.New("executable file not found in $PATH")
		_, locateError := githubcli.LocateGitHubCLI(func() (string, error) { return "", lookupFailure })
		require.ErrorIs(testInstance, locateError, lookupFailure)
		require.EqualError(testInstance, locateError, "GitHub CLI (gh) is not installed. Please install it from https://cli.github.com/")

		var clientError githubcli.ClientError
		require.ErrorAs(testInstance, locateError, &clientError)
	})
}

func TestParseRepositoryURL(testInstance *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedOwner string
		expectedName  string
		expectError   bool
	}{
		{name: "https", input: "https://github.com/rails/rails", expectedOwner: "rails", expectedName: "rails"},
		{name: "https_git_suffix", input: "https://github.com/rails/rails.git", expectedOwner: "rails", expectedName: "rails"},
		{name: "https_trailing_path", input: "https://github.com/rails/rails/tree/main", expectedOwner: "rails", expectedName: "rails"},
		{name: "http", input: "http://github.com/octocat/hello-world", expectedOwner: "octocat", expectedName: "hello-world"},
		{name: "scp_style", input: "git@github.com:octocat/hello.git", expectedOwner: "octocat", expectedName: "hello"},
		{name: "ssh_scheme", input: "ssh://git@github.com/octocat/hello.git", expectedOwner: "octocat", expectedName: "hello"},
		{name: "ssh_scheme_with_port", input: "ssh://git@github.com:22/octocat/hello.git", expectedOwner: "octocat", expectedName: "hello"},
		{name: "scp_style_without_user", input: "github.com:octocat/hello", expectedOwner: "octocat", expectedName: "hello"},
		{name: "https_trailing_slash", input: "https://github.com/rails/rails/", expectedOwner: "rails", expectedName: "rails"},
		{name: "surrounding_whitespace", input: "  https://github.com/rails/rails  ", expectedOwner: "rails", expectedName: "rails"},
		{name: "bare", input: "octocat/hello", expectedOwner: "octocat", expectedName: "hello"},
		{name: "empty", input: "   ", expectError: true},
		{name: "single_segment", input: "rails", expectError: true},
		{name: "missing_repository", input: "https://github.com/rails", expectError: true},
		{name: "too_many_segments", input: "a/b/c", expectError: true},
		{name: "empty_owner", input: "/hello", expectError: true},
		{name: "scp_missing_repository", input: "git@github.com:octocat", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			reference, parseError := githubcli.ParseRepositoryURL(testCase.input)
			if testCase.expectError {
				var urlError githubcli.InvalidRepositoryURLError
				require.ErrorAs(testInstance, parseError, &urlError)
				require.Equal(testInstance, testCase.input, urlError.Input)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedOwner, reference.Owner)
			require.Equal(testInstance, testCase.expectedName, reference.Repository)
		})
	}
}

func TestParseRepositoryURLExposesParserFailure(testInstance *testing.T) {
	_, parseError := githubcli.ParseRepositoryURL("https://github.com/rails")

	var urlError githubcli.InvalidRepositoryURLError
	require.ErrorAs(testInstance, parseError, &urlError)
	require.Error(testInstance, urlError.Cause)
	require.ErrorIs(testInstance, parseError, urlError.Cause)
	var clientError githubcli.ClientError
	require.ErrorAs(testInstance, parseError, &clientError)
}

func TestAccountUsername(testInstance *testing.T) {
	require.Equal(testInstance, "octocat", githubcli.AccountUsername("octocat"))
	require.Equal(testInstance, "octocat", githubcli.AccountUsername("https://github.com/octocat"))
	require.Equal(testInstance, "octocat", githubcli.AccountUsername("https://github.com/octocat/"))
}

func TestForkRepository(testInstance *testing.T) {
	testInstance.Run("success", func(testInstance *testing.T) {
		executor := &stubGitHubExecutor{responses: map[string]stubResponse{
			testForkCommandConstant: {},
			testForkViewCommand:     {output: `{"name":"rails","url":"https://github.com/octocat/rails","isFork":true,"parent":{"name":"rails","owner":{"login":"rails"}}}`},
			testRootViewCommand:     {output: `{"name":"rails","url":"https://github.com/rails/rails","isFork":false,"defaultBranchRef":{"name":"main"}}`},
		}}
		client := newTestClient(testInstance, executor)

		forkedRepository, forkError := client.ForkRepository(context.Background(), "https://github.com/rails/rails.git", "octocat")
		require.NoError(testInstance, forkError)
		require.Equal(testInstance, githubcli.ForkedRepository{
			OriginalURL: "https://github.com/rails/rails.git",
			ForkURL:     testForkURLConstant,
			RootURL:     testRootURLConstant,
			Name:        "rails",
			Owner:       "octocat",
			CreatedAt:   testFixedTimestampRFC3339,
		}, forkedRepository)
		require.Equal(testInstance, []string{testForkCommandConstant, testForkViewCommand, testRootViewCommand}, executor.recordedCommands())
	})

	testInstance.Run("fork_command_failure", func(testInstance *testing.T) {
		executor := &stubGitHubExecutor{responses: map[string]stubResponse{
			testForkCommandConstant: {err: commandFailure(execshell.CommandDetails{}, testForbiddenMessage+"\n")},
		}}
		client := newTestClient(testInstance, executor)

		_, forkError := client.ForkRepository(context.Background(), testRootURLConstant, "octocat")
		var operationError githubcli.OperationError
		require.ErrorAs(testInstance, forkError, &operationError)
		require.Equal(testInstance, githubcli.OperationForkRepository, operationError.Operation)
		require.EqualError(testInstance, forkError, "Failed to fork repository: "+testForbiddenMessage)

		var clientError githubcli.ClientError
		require.ErrorAs(testInstance, forkError, &clientError)
		require.Len(testInstance, executor.recordedDetails, 1)
	})

	testInstance.Run("invalid_url", func(testInstance *testing.T) {
		executor := &stubGitHubExecutor{}
		client := newTestClient(testInstance, executor)

		_, forkError := client.ForkRepository(context.Background(), "not-a-repository", "octocat")
		var urlError githubcli.InvalidRepositoryURLError
		require.ErrorAs(testInstance, forkError, &urlError)
		require.Empty(testInstance, executor.recordedDetails)
	})
}

func TestListUserForks(testInstance *testing.T) {
	testInstance.Run("resolves_roots_from_parents", func(testInstance *testing.T) {
		executor := &stubGitHubExecutor{responses: map[string]stubResponse{
			testUserForksCommand: {output: `[
				{"name":"rails","url":"https://github.com/octocat/rails","description":"Fork","updatedAt":"2024-01-02T00:00:00Z",
				 "parent":{"url":"https://github.com/hubot/rails","isFork":true,"parent":{"url":"https://github.com/rails/rails","isFork":false}}},
				{"name":"hello","url":"https://github.com/octocat/hello","description":null,"updatedAt":"2024-01-01T00:00:00Z",
				 "parent":{"name":"hello","owner":{"login":"github"}}},
				{"name":"orphan","url":"https://github.com/octocat/orphan","updatedAt":"2024-01-03T00:00:00Z","parent":null}
			]`},
		}}
		client := newTestClient(testInstance, executor)

		userForks, listError := client.ListUserForks(context.Background(), "https://github.com/octocat")
		require.NoError(testInstance, listError)
		require.Equal(testInstance, []githubcli.UserFork{
			{Name: "rails", URL: testForkURLConstant, Description: "Fork", UpdatedAt: "2024-01-02T00:00:00Z", RootURL: testRootURLConstant},
			{Name: "hello", URL: "https://github.com/octocat/hello", UpdatedAt: "2024-01-01T00:00:00Z", RootURL: "https://github.com/github/hello"},
			{Name: "orphan", URL: "https://github.com/octocat/orphan", UpdatedAt: "2024-01-03T00:00:00Z"},
		}, userForks)
		require.Equal(testInstance, []string{testUserForksCommand}, executor.recordedCommands())
	})

	testInstance.Run("command_failure", func(testInstance *testing.T) {
		client := newTestClient(testInstance, &stubGitHubExecutor{})
		_, listError := client.ListUserForks(context.Background(), "octocat")
		var operationError githubcli.OperationError
		require.ErrorAs(testInstance, listError, &operationError)
		require.Equal(testInstance, githubcli.OperationListUserForks, operationError.Operation)
	})

	testInstance.Run("decode_failure", func(testInstance *testing.T) {
		client := newTestClient(testInstance, &stubGitHubExecutor{responses: map[string]stubResponse{
			testUserForksCommand: {output: "not-json"},
		}})
		_, listError := client.ListUserForks(context.Background(), "octocat")
		require.IsType(testInstance, githubcli.ResponseDecodingError{}, listError)
	})
}

func TestGetRepositoryInfo(testInstance *testing.T) {
	executor := &stubGitHubExecutor{responses: map[string]stubResponse{
		testForkViewCommand: {output: `{"name":"rails","url":"https://github.com/octocat/rails","description":"Fork","updatedAt":"2024-01-02T00:00:00Z","isFork":true,"parent":{"name":"rails","owner":{"login":"rails"}},"defaultBranchRef":{"name":"trunk"}}`},
	}}
	client := newTestClient(testInstance, executor)

	repositoryInfo, infoError := client.GetRepositoryInfo(context.Background(), "octocat/rails")
	require.NoError(testInstance, infoError)
	require.Equal(testInstance, githubcli.RepositoryInfo{
		Name:          "rails",
		URL:           testForkURLConstant,
		Description:   "Fork",
		UpdatedAt:     "2024-01-02T00:00:00Z",
		IsFork:        true,
		ParentURL:     testRootURLConstant,
		DefaultBranch: "trunk",
	}, repositoryInfo)

	_, inputError := client.GetRepositoryInfo(context.Background(), " ")
	require.IsType(testInstance, githubcli.InvalidInputError{}, inputError)
}

func TestFindRootRepository(testInstance *testing.T) {
	viewCommand := func(fullName string) string {
		return "repo view " + fullName + " " + testRepositoryViewFields
	}

	testInstance.Run("walks_to_non_fork", func(testInstance *testing.T) {
		executor := &stubGitHubExecutor{responses: map[string]stubResponse{
			viewCommand("a/lib"): {output: `{"url":"https://github.com/a/lib","isFork":true,"parent":{"url":"https://github.com/b/lib"}}`},
			viewCommand("b/lib"): {output: `{"url":"https://github.com/b/lib","isFork":true,"parent":{"url":"https://github.com/c/lib"}}`},
			viewCommand("c/lib"): {output: `{"url":"https://github.com/c/lib","isFork":false}`},
		}}
		client := newTestClient(testInstance, executor)

		rootRepository, rootError := client.FindRootRepository(context.Background(), "a", "lib")
		require.NoError(testInstance, rootError)
		require.Equal(testInstance, githubcli.RootRepository{URL: "https://github.com/c/lib", Owner: "c", Name: "lib"}, rootRepository)
		require.Len(testInstance, executor.recordedDetails, 3)
	})

	testInstance.Run("terminates_on_cycle", func(testInstance *testing.T) {
		executor := &stubGitHubExecutor{responses: map[string]stubResponse{
			viewCommand("a/lib"): {output: `{"url":"https://github.com/a/lib","isFork":true,"parent":{"url":"https://github.com/b/lib"}}`},
			viewCommand("b/lib"): {output: `{"url":"https://github.com/b/lib","isFork":true,"parent":{"url":"https://github.com/c/lib"}}`},
			viewCommand("c/lib"): {output: `{"url":"https://github.com/c/lib","isFork":true,"parent":{"url":"https://github.com/a/lib"}}`},
		}}
		client := newTestClient(testInstance, executor)

		rootRepository, rootError := client.FindRootRepository(context.Background(), "a", "lib")
		require.NoError(testInstance, rootError)
		require.Equal(testInstance, githubcli.RootRepository{URL: "https://github.com/a/lib", Owner: "a", Name: "lib"}, rootRepository)
		require.Len(testInstance, executor.recordedDetails, 3)
	})

	testInstance.Run("propagates_lookup_failure", func(testInstance *testing.T) {
		client := newTestClient(testInstance, &stubGitHubExecutor{})
		_, rootError := client.FindRootRepository(context.Background(), "a", "lib")
		var operationError githubcli.OperationError
		require.ErrorAs(testInstance, rootError, &operationError)
		require.Equal(testInstance, githubcli.OperationGetRepositoryInfo, operationError.Operation)
	})
}

func TestListForks(testInstance *testing.T) {
	testCases := []struct {
		name     string
		response stubResponse
		expected []githubcli.RepositoryFork
	}{
		{
			name: "newline_delimited_objects",
			response: stubResponse{output: "{\"owner\":\"octocat\",\"name\":\"rails\",\"url\":\"https://github.com/octocat/rails\",\"updated_at\":\"2024-01-01T00:00:00Z\"}\n" +
				"{\"owner\":\"hubot\",\"name\":\"rails\",\"url\":\"https://github.com/hubot/rails\",\"updated_at\":\"2024-01-02T00:00:00Z\"}\n"},
			expected: []githubcli.RepositoryFork{
				{Owner: "octocat", Name: "rails", URL: testForkURLConstant, UpdatedAt: "2024-01-01T00:00:00Z"},
				{Owner: "hubot", Name: "rails", URL: "https://github.com/hubot/rails", UpdatedAt: "2024-01-02T00:00:00Z"},
			},
		},
		{
			name:     "command_failure",
			response: stubResponse{err: commandFailure(execshell.CommandDetails{}, "HTTP 404")},
			expected: []githubcli.RepositoryFork{},
		},
		{
			name:     "malformed_line",
			response: stubResponse{output: "{\"owner\":\"octocat\"}\nnot-json\n"},
			expected: []githubcli.RepositoryFork{},
		},
		{
			name:     "empty_output",
			response: stubResponse{output: ""},
			expected: []githubcli.RepositoryFork{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client := newTestClient(testInstance, &stubGitHubExecutor{responses: map[string]stubResponse{testForksCommandConstant: testCase.response}})
			require.Equal(testInstance, testCase.expected, client.ListForks(context.Background(), "rails", "rails"))
		})
	}
}

func TestListPullRequests(testInstance *testing.T) {
	testInstance.Run("success", func(testInstance *testing.T) {
		client := newTestClient(testInstance, &stubGitHubExecutor{responses: map[string]stubResponse{
			testPullRequestsCommand: {output: `[{"number":12,"title":"Add cache","author":{"login":"hubot"},"state":"OPEN","createdAt":"2024-02-01T00:00:00Z"}]`},
		}})
		require.Equal(testInstance, []githubcli.PullRequest{
			{Number: 12, Title: "Add cache", Author: "hubot", State: "OPEN", CreatedAt: "2024-02-01T00:00:00Z"},
		}, client.ListPullRequests(context.Background(), "octocat", "rails"))
	})

	testInstance.Run("failure_yields_empty", func(testInstance *testing.T) {
		client := newTestClient(testInstance, &stubGitHubExecutor{})
		pullRequests := client.ListPullRequests(context.Background(), "octocat", "rails")
		require.NotNil(testInstance, pullRequests)
		require.Empty(testInstance, pullRequests)
	})
}

func TestCompareCommits(testInstance *testing.T) {
	testInstance.Run("success", func(testInstance *testing.T) {
		client := newTestClient(testInstance, &stubGitHubExecutor{responses: map[string]stubResponse{
			testCompareCommand: {output: `{"ahead_by":3,"behind_by":7}`},
		}})
		require.Equal(testInstance, githubcli.CommitComparison{AheadBy: 3, BehindBy: 7}, client.CompareCommits(context.Background(), "octocat", "rails", "rails:main", "main"))
	})

	testInstance.Run("failure_yields_zero", func(testInstance *testing.T) {
		client := newTestClient(testInstance, &stubGitHubExecutor{})
		require.Equal(testInstance, githubcli.CommitComparison{}, client.CompareCommits(context.Background(), "octocat", "rails", "rails:main", "main"))
	})
}
