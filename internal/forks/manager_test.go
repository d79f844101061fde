package forks_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/forker/internal/forks"
	"github.com/temirov/forker/internal/githubcli"
	"github.com/temirov/forker/internal/storage"
)

const (
	testOriginalRootURLConstant = "https://github.com/original/gem1"
	testUserForkURLConstant     = "https://github.com/user/gem1"
)

type compareCall struct {
	owner      string
	repository string
	base       string
	head       string
}

type stubGitHubClient struct {
	forkedRepository githubcli.ForkedRepository
	forkError        error
	userForks        []githubcli.UserFork
	userForksError   error
	repositoryInfos  map[string]githubcli.RepositoryInfo
	repositoryForks  map[string][]githubcli.RepositoryFork
	pullRequests     map[string][]githubcli.PullRequest
	comparison       githubcli.CommitComparison
	compareCalls     []compareCall
	pullRequestCalls []string
}

func (client *stubGitHubClient) ForkRepository(_ context.Context, _ string, _ string) (githubcli.ForkedRepository, error) {
	return client.forkedRepository, client.forkError
}

func (client *stubGitHubClient) ListUserForks(_ context.Context, _ string) ([]githubcli.UserFork, error) {
	return client.userForks, client.userForksError
}

func (client *stubGitHubClient) GetRepositoryInfo(_ context.Context, fullName string) (githubcli.RepositoryInfo, error) {
	repositoryInfo, found := client.repositoryInfos[fullName]
	if !found {
		return githubcli.RepositoryInfo{}, githubcli.OperationError{Operation: githubcli.OperationGetRepositoryInfo, Cause: errors.New("not found")}
	}
	return repositoryInfo, nil
}

func (client *stubGitHubClient) ListForks(_ context.Context, owner string, repository string) []githubcli.RepositoryFork {
	return append([]githubcli.RepositoryFork{}, client.repositoryForks[owner+"/"+repository]...)
}

func (client *stubGitHubClient) ListPullRequests(_ context.Context, owner string, repository string) []githubcli.PullRequest {
	fullName := owner + "/" + repository
	client.pullRequestCalls = append(client.pullRequestCalls, fullName)
	return client.pullRequests[fullName]
}

func (client *stubGitHubClient) CompareCommits(_ context.Context, owner string, repository string, base string, head string) githubcli.CommitComparison {
	client.compareCalls = append(client.compareCalls, compareCall{owner: owner, repository: repository, base: base, head: head})
	return client.comparison
}

func newTestStore(testInstance *testing.T) (*storage.Store, string) {
	testInstance.Helper()
	basePath := testInstance.TempDir()
	store, creationError := storage.NewStore(basePath, nil)
	require.NoError(testInstance, creationError)
	return store, basePath
}

func newTestManager(testInstance *testing.T, store forks.ForkStore, client forks.GitHubClient, logger *zap.Logger) *forks.Manager {
	testInstance.Helper()
	manager, creationError := forks.NewManager(store, client, logger, forks.ManagerConfiguration{})
	require.NoError(testInstance, creationError)
	return manager
}

func TestNewManagerValidation(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)

	_, storeError := forks.NewManager(nil, &stubGitHubClient{}, nil, forks.ManagerConfiguration{})
	require.ErrorIs(testInstance, storeError, forks.ErrStoreNotConfigured)

	_, clientError := forks.NewManager(store, nil, nil, forks.ManagerConfiguration{})
	require.ErrorIs(testInstance, clientError, forks.ErrClientNotConfigured)
}

func TestManagerForkRepositorySavesRecord(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)
	client := &stubGitHubClient{forkedRepository: githubcli.ForkedRepository{
		OriginalURL: "https://github.com/original/repo",
		ForkURL:     "https://github.com/user/repo",
		RootURL:     "https://github.com/original/repo",
		Name:        "repo",
		Owner:       "user",
		CreatedAt:   "2024-01-01T00:00:00Z",
	}}
	manager := newTestManager(testInstance, store, client, nil)

	forkInfo, forkError := manager.ForkRepository(context.Background(), "https://github.com/original/repo", "user")
	require.NoError(testInstance, forkError)
	require.Equal(testInstance, "repo", forkInfo.Name)
	require.Equal(testInstance, "https://github.com/user/repo", forkInfo.ForkURL)

	storedInfo, found, loadError := store.LoadForkInfo("repo")
	require.NoError(testInstance, loadError)
	require.True(testInstance, found)
	require.Equal(testInstance, forkInfo, storedInfo)
}

func TestManagerForkRepositoryWrapsClientErrors(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)
	clientFailure := githubcli.OperationError{Operation: githubcli.OperationForkRepository, Cause: errors.New("HTTP 403")}
	manager := newTestManager(testInstance, store, &stubGitHubClient{forkError: clientFailure}, nil)

	_, forkError := manager.ForkRepository(context.Background(), "https://github.com/original/repo", "user")

	var managerError forks.Error
	require.ErrorAs(testInstance, forkError, &managerError)
	var clientError githubcli.ClientError
	require.ErrorAs(testInstance, forkError, &clientError)
	require.Equal(testInstance, clientFailure.Error(), forkError.Error())

	tracked, listError := store.ListTracked()
	require.NoError(testInstance, listError)
	require.Empty(testInstance, tracked)
}

func TestManagerListForksSavesEachRecord(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)
	client := &stubGitHubClient{userForks: []githubcli.UserFork{
		{Name: "fork1", URL: "https://github.com/user/fork1", Description: "First fork", UpdatedAt: "2024-01-01", RootURL: "https://github.com/original/fork1"},
		{Name: "fork2", URL: "https://github.com/user/fork2", Description: "Second fork", UpdatedAt: "2024-01-02", RootURL: "https://github.com/original/fork2"},
	}}
	manager := newTestManager(testInstance, store, client, nil)

	forkInfos, listError := manager.ListForks(context.Background(), "user")
	require.NoError(testInstance, listError)
	require.Len(testInstance, forkInfos, 2)
	require.Equal(testInstance, "fork1", forkInfos[0].Name)

	tracked, trackedError := store.ListTracked()
	require.NoError(testInstance, trackedError)
	require.ElementsMatch(testInstance, []string{"fork1", "fork2"}, tracked)

	storedInfo, found, loadError := store.LoadForkInfo("fork2")
	require.NoError(testInstance, loadError)
	require.True(testInstance, found)
	require.Equal(testInstance, "https://github.com/user/fork2", storedInfo.ResolvedForkURL())
}

func TestManagerListForksRecordsUnknownRootAndDescriptionAsNull(testInstance *testing.T) {
	store, basePath := newTestStore(testInstance)
	client := &stubGitHubClient{userForks: []githubcli.UserFork{
		{Name: "detached", URL: "https://github.com/user/detached", UpdatedAt: "2024-01-03"},
	}}
	manager := newTestManager(testInstance, store, client, nil)

	forkInfos, listError := manager.ListForks(context.Background(), "user")
	require.NoError(testInstance, listError)
	require.Len(testInstance, forkInfos, 1)
	require.Nil(testInstance, forkInfos[0].RootURL)
	require.Nil(testInstance, forkInfos[0].Description)

	content, readError := os.ReadFile(filepath.Join(basePath, storage.DirectoryName, "detached", "fork_info.json"))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(content), "\"root_url\": null")
	require.Contains(testInstance, string(content), "\"description\": null")
}

func TestManagerListForksPropagatesClientErrors(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)
	decodingFailure := githubcli.ResponseDecodingError{Operation: githubcli.OperationListUserForks, Cause: errors.New("unexpected token")}
	manager := newTestManager(testInstance, store, &stubGitHubClient{userForksError: decodingFailure}, nil)

	_, listError := manager.ListForks(context.Background(), "user")
	var decodingError githubcli.ResponseDecodingError
	require.ErrorAs(testInstance, listError, &decodingError)
	var managerError forks.Error
	require.ErrorAs(testInstance, listError, &managerError)
}

func TestManagerForkStatuses(testInstance *testing.T) {
	store, basePath := newTestStore(testInstance)
	require.NoError(testInstance, store.SaveForkInfo("gem1", storage.ForkInfo{
		Name:      "gem1",
		ForkURL:   testUserForkURLConstant,
		RootURL:   storage.NullableString(testOriginalRootURLConstant),
		UpdatedAt: "2024-01-01",
		Owner:     "user",
	}))
	require.NoError(testInstance, store.SaveForkInfo("gem2", storage.ForkInfo{
		Name:      "gem2",
		URL:       "https://github.com/user/gem2",
		RootURL:   storage.NullableString("https://github.com/original/gem2"),
		UpdatedAt: "2024-01-02",
	}))
	require.NoError(testInstance, os.MkdirAll(filepath.Join(basePath, storage.DirectoryName, "orphan"), 0o755))

	client := &stubGitHubClient{
		repositoryInfos: map[string]githubcli.RepositoryInfo{
			"original/gem1": {URL: testOriginalRootURLConstant, DefaultBranch: "trunk"},
		},
		comparison: githubcli.CommitComparison{AheadBy: 2, BehindBy: 5},
	}
	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	manager := newTestManager(testInstance, store, client, zap.New(observerCore))

	statuses, statusError := manager.ForkStatuses(context.Background())
	require.NoError(testInstance, statusError)
	require.Len(testInstance, statuses, 2)

	statusByName := map[string]forks.ForkStatus{}
	for _, status := range statuses {
		statusByName[status.Name] = status
	}

	gem1Status := statusByName["gem1"]
	require.Equal(testInstance, testUserForkURLConstant, gem1Status.ForkURL)
	require.NotNil(testInstance, gem1Status.AheadBy)
	require.NotNil(testInstance, gem1Status.BehindBy)
	require.Equal(testInstance, 2, *gem1Status.AheadBy)
	require.Equal(testInstance, 5, *gem1Status.BehindBy)

	gem2Status := statusByName["gem2"]
	require.Equal(testInstance, "https://github.com/user/gem2", gem2Status.ForkURL)
	require.Nil(testInstance, gem2Status.AheadBy)
	require.Nil(testInstance, gem2Status.BehindBy)

	require.Equal(testInstance, []compareCall{{owner: "user", repository: "gem1", base: "original:trunk", head: "trunk"}}, client.compareCalls)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Skipping tracked repository without a readable fork record").Len())
}

func TestManagerForkStatusesFallsBackToConfiguredBranch(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)
	require.NoError(testInstance, store.SaveForkInfo("gem1", storage.ForkInfo{
		Name:    "gem1",
		ForkURL: testUserForkURLConstant,
		RootURL: storage.NullableString(testOriginalRootURLConstant),
		Owner:   "user",
	}))
	client := &stubGitHubClient{}

	manager, creationError := forks.NewManager(store, client, nil, forks.ManagerConfiguration{FallbackBranch: "develop"})
	require.NoError(testInstance, creationError)

	statuses, statusError := manager.ForkStatuses(context.Background())
	require.NoError(testInstance, statusError)
	require.Len(testInstance, statuses, 1)
	require.Equal(testInstance, 0, *statuses[0].AheadBy)
	require.Equal(testInstance, []compareCall{{owner: "user", repository: "gem1", base: "original:develop", head: "develop"}}, client.compareCalls)
}

func TestManagerForkStatusesSkipsMalformedRecords(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)
	directoryPath, directoryError := store.DirectoryFor("broken")
	require.NoError(testInstance, directoryError)
	require.NoError(testInstance, os.WriteFile(filepath.Join(directoryPath, "fork_info.json"), []byte("{"), 0o644))

	manager := newTestManager(testInstance, store, &stubGitHubClient{}, nil)
	statuses, statusError := manager.ForkStatuses(context.Background())
	require.NoError(testInstance, statusError)
	require.Empty(testInstance, statuses)
}

func TestManagerFindPeersExcludesOwnFork(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)
	require.NoError(testInstance, store.SaveForkInfo("gem1", storage.ForkInfo{
		Name:    "gem1",
		ForkURL: testUserForkURLConstant,
		URL:     testUserForkURLConstant,
		RootURL: storage.NullableString(testOriginalRootURLConstant),
	}))
	require.NoError(testInstance, store.SaveForkInfo("rootless", storage.ForkInfo{Name: "rootless", URL: "https://github.com/user/rootless"}))

	client := &stubGitHubClient{repositoryForks: map[string][]githubcli.RepositoryFork{
		"original/gem1": {
			{Owner: "user1", Name: "gem1", URL: "https://github.com/user1/gem1"},
			{Owner: "user2", Name: "gem1", URL: "https://github.com/user2/gem1"},
			{Owner: "user", Name: "gem1", URL: testUserForkURLConstant},
		},
	}}
	manager := newTestManager(testInstance, store, client, nil)

	reports, peersError := manager.FindPeers(context.Background())
	require.NoError(testInstance, peersError)
	require.Len(testInstance, reports, 1)
	require.Equal(testInstance, "gem1", reports[0].Name)
	require.Equal(testInstance, testOriginalRootURLConstant, reports[0].RootURL)
	require.Len(testInstance, reports[0].Peers, 2)
	for _, peer := range reports[0].Peers {
		require.NotEqual(testInstance, "user", peer.Owner)
	}

	storedPeers, loadError := store.LoadPeers("gem1")
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, reports[0].Peers, storedPeers)
}

func TestManagerListPullRequestsAggregatesForkAndRoot(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)
	require.NoError(testInstance, store.SaveForkInfo("gem1", storage.ForkInfo{Name: "gem1", Owner: "user", RootURL: storage.NullableString(testOriginalRootURLConstant)}))
	require.NoError(testInstance, store.SaveForkInfo("gem2", storage.ForkInfo{Name: "gem2", RootURL: storage.NullableString("https://github.com/original/gem2")}))

	client := &stubGitHubClient{pullRequests: map[string][]githubcli.PullRequest{
		"user/gem1":     {{Number: 1, Title: "Fork PR", Author: "user", State: "open", CreatedAt: "2024-01-01"}},
		"original/gem1": {{Number: 1, Title: "Root PR", Author: "maintainer", State: "open", CreatedAt: "2024-01-02"}},
		"original/gem2": {{Number: 9, Title: "Other", Author: "maintainer", State: "open", CreatedAt: "2024-01-03"}},
	}}
	manager := newTestManager(testInstance, store, client, nil)

	reports, pullRequestsError := manager.ListPullRequests(context.Background())
	require.NoError(testInstance, pullRequestsError)
	require.Len(testInstance, reports, 2)

	reportByName := map[string]forks.PullRequestReport{}
	for _, report := range reports {
		reportByName[report.Name] = report
	}
	require.Equal(testInstance, []storage.PullRequest{
		{Number: 1, Title: "Fork PR", Author: "user", State: "open", CreatedAt: "2024-01-01"},
		{Number: 1, Title: "Root PR", Author: "maintainer", State: "open", CreatedAt: "2024-01-02"},
	}, reportByName["gem1"].PullRequests)
	require.Len(testInstance, reportByName["gem2"].PullRequests, 1)
	require.NotContains(testInstance, client.pullRequestCalls, "/gem2")

	storedPullRequests, loadError := store.LoadPullRequests("gem1")
	require.NoError(testInstance, loadError)
	require.Len(testInstance, storedPullRequests, 2)
}

func TestManagerMostActiveForksOrdersAndDeduplicates(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)
	require.NoError(testInstance, store.SaveForkInfo("gem1", storage.ForkInfo{Name: "gem1", RootURL: storage.NullableString(testOriginalRootURLConstant)}))
	require.NoError(testInstance, store.SaveForkInfo("gem1-copy", storage.ForkInfo{Name: "gem1", RootURL: storage.NullableString(testOriginalRootURLConstant)}))

	client := &stubGitHubClient{
		repositoryForks: map[string][]githubcli.RepositoryFork{
			"original/gem1": {
				{Owner: "user1", Name: "gem1", URL: "https://github.com/user1/gem1", UpdatedAt: "2024-01-01"},
				{Owner: "user2", Name: "gem1", URL: "https://github.com/user2/gem1", UpdatedAt: "2024-01-03"},
			},
		},
		repositoryInfos: map[string]githubcli.RepositoryInfo{
			"original/gem1": {URL: testOriginalRootURLConstant, UpdatedAt: "2024-01-02"},
		},
	}
	manager := newTestManager(testInstance, store, client, nil)

	activeForks, activeError := manager.MostActiveForks(context.Background())
	require.NoError(testInstance, activeError)
	require.Len(testInstance, activeForks, 3)

	updatedAt := make([]string, 0, len(activeForks))
	for _, activeFork := range activeForks {
		updatedAt = append(updatedAt, activeFork.UpdatedAt)
		require.Nil(testInstance, activeFork.RootURL)
	}
	require.Equal(testInstance, []string{"2024-01-03", "2024-01-02", "2024-01-01"}, updatedAt)
	require.Equal(testInstance, forks.ActiveFork{Name: "gem1", URL: testOriginalRootURLConstant, Owner: "original", UpdatedAt: "2024-01-02"}, activeForks[1])
}

func TestManagerMostActiveForksOmitsUnavailableRoot(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)
	require.NoError(testInstance, store.SaveForkInfo("gem1", storage.ForkInfo{Name: "gem1", RootURL: storage.NullableString(testOriginalRootURLConstant)}))

	client := &stubGitHubClient{repositoryForks: map[string][]githubcli.RepositoryFork{
		"original/gem1": {{Owner: "user1", Name: "gem1", URL: "https://github.com/user1/gem1", UpdatedAt: "2024-01-01"}},
	}}
	observerCore, observedLogs := observer.New(zapcore.WarnLevel)
	manager := newTestManager(testInstance, store, client, zap.New(observerCore))

	activeForks, activeError := manager.MostActiveForks(context.Background())
	require.NoError(testInstance, activeError)
	require.Len(testInstance, activeForks, 1)
	require.Equal(testInstance, "https://github.com/user1/gem1", activeForks[0].URL)
	require.Equal(testInstance, 1, observedLogs.Len())
}

func TestManagerSurfacesStorageErrors(testInstance *testing.T) {
	store, basePath := newTestStore(testInstance)
	rootPath := filepath.Join(basePath, storage.DirectoryName)
	require.NoError(testInstance, os.WriteFile(rootPath, []byte("not a directory"), 0o644))

	manager := newTestManager(testInstance, store, &stubGitHubClient{}, nil)
	_, statusError := manager.ForkStatuses(context.Background())

	var storageError storage.Error
	require.ErrorAs(testInstance, statusError, &storageError)
	var managerError forks.Error
	require.ErrorAs(testInstance, statusError, &managerError)
	require.Contains(testInstance, statusError.Error(), fmt.Sprintf("storage %s failed", storage.OperationEnsureDirectory))
}
