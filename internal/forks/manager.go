package forks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/forker/internal/githubcli"
	"github.com/temirov/forker/internal/storage"
)

const (
	defaultFallbackBranchConstant      = "main"
	compareBaseTemplateConstant        = "%s:%s"
	forkOperationNameConstant          = "fork repository"
	listOperationNameConstant          = "list forks"
	statusOperationNameConstant        = "fork status"
	peersOperationNameConstant         = "find peers"
	pullRequestsOperationNameConstant  = "list pull requests"
	activeOperationNameConstant        = "most active forks"
	logFieldRepositoryNameConstant     = "repository"
	logFieldRootURLConstant            = "root_url"
	skippedRecordLogMessageConstant    = "Skipping tracked repository without a readable fork record"
	unparseableRootLogMessageConstant  = "Skipping root lookups for an unparseable root URL"
	rootInfoUnavailableLogMessage      = "Root repository details unavailable; omitting it from the ranking"
	defaultBranchUnavailableLogMessage = "Root default branch unavailable; using the fallback branch"
	logFieldFallbackBranchConstant     = "fallback_branch"
)

// ManagerConfiguration tunes the behaviour of Manager.
type ManagerConfiguration struct {
	FallbackBranch string
}

// Manager orchestrates fork workflows over a ForkStore and a GitHubClient.
type Manager struct {
	store          ForkStore
	client         GitHubClient
	logger         *zap.Logger
	fallbackBranch string
}

type trackedFork struct {
	name string
	info storage.ForkInfo
}

// NewManager constructs a Manager. A nil logger discards diagnostics.
func NewManager(store ForkStore, client GitHubClient, logger *zap.Logger, configuration ManagerConfiguration) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreNotConfigured
	}
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fallbackBranch := strings.TrimSpace(configuration.FallbackBranch)
	if len(fallbackBranch) == 0 {
		fallbackBranch = defaultFallbackBranchConstant
	}
	return &Manager{store: store, client: client, logger: logger, fallbackBranch: fallbackBranch}, nil
}

// ForkRepository forks repositoryURL into account and records the new fork.
func (manager *Manager) ForkRepository(executionContext context.Context, repositoryURL string, account string) (storage.ForkInfo, error) {
	forkedRepository, forkError := manager.client.ForkRepository(executionContext, repositoryURL, account)
	if forkError != nil {
		return storage.ForkInfo{}, wrapError(forkOperationNameConstant, forkError)
	}

	forkInfo := storage.ForkInfo{
		Name:        forkedRepository.Name,
		ForkURL:     forkedRepository.ForkURL,
		OriginalURL: forkedRepository.OriginalURL,
		RootURL:     storage.NullableString(forkedRepository.RootURL),
		Owner:       forkedRepository.Owner,
		CreatedAt:   forkedRepository.CreatedAt,
	}
	if saveError := manager.store.SaveForkInfo(forkInfo.Name, forkInfo); saveError != nil {
		return storage.ForkInfo{}, wrapError(forkOperationNameConstant, saveError)
	}
	return forkInfo, nil
}

// ListForks lists the forks owned by account and records each of them.
func (manager *Manager) ListForks(executionContext context.Context, account string) ([]storage.ForkInfo, error) {
	userForks, listError := manager.client.ListUserForks(executionContext, account)
	if listError != nil {
		return nil, wrapError(listOperationNameConstant, listError)
	}

	forkInfos := make([]storage.ForkInfo, 0, len(userForks))
	for _, userFork := range userForks {
		forkInfo := storage.ForkInfo{
			Name:        userFork.Name,
			URL:         userFork.URL,
			Description: storage.NullableString(userFork.Description),
			UpdatedAt:   userFork.UpdatedAt,
			RootURL:     storage.NullableString(userFork.RootURL),
		}
		if saveError := manager.store.SaveForkInfo(forkInfo.Name, forkInfo); saveError != nil {
			return nil, wrapError(listOperationNameConstant, saveError)
		}
		forkInfos = append(forkInfos, forkInfo)
	}
	return forkInfos, nil
}

// ForkStatuses reports every tracked fork and, when owner, name and root are known, its divergence from the root.
func (manager *Manager) ForkStatuses(executionContext context.Context) ([]ForkStatus, error) {
	trackedForks, trackedError := manager.loadTrackedForks()
	if trackedError != nil {
		return nil, wrapError(statusOperationNameConstant, trackedError)
	}

	statuses := make([]ForkStatus, 0, len(trackedForks))
	for _, tracked := range trackedForks {
		status := ForkStatus{
			Name:      tracked.name,
			ForkURL:   tracked.info.ResolvedForkURL(),
			RootURL:   tracked.info.RootRepositoryURL(),
			UpdatedAt: tracked.info.UpdatedAt,
		}

		if len(tracked.info.Owner) > 0 && len(tracked.info.Name) > 0 && len(tracked.info.RootRepositoryURL()) > 0 {
			if rootReference, parsed := manager.parseRoot(tracked); parsed {
				branch := manager.resolveComparisonBranch(executionContext, rootReference)
				comparison := manager.client.CompareCommits(
					executionContext,
					tracked.info.Owner,
					tracked.info.Name,
					fmt.Sprintf(compareBaseTemplateConstant, rootReference.Owner, branch),
					branch,
				)
				aheadBy := comparison.AheadBy
				behindBy := comparison.BehindBy
				status.AheadBy = &aheadBy
				status.BehindBy = &behindBy
			}
		}

		statuses = append(statuses, status)
	}
	return statuses, nil
}

// FindPeers lists, for every tracked fork with a known root, the other forks of that root and records them.
func (manager *Manager) FindPeers(executionContext context.Context) ([]PeerReport, error) {
	trackedForks, trackedError := manager.loadTrackedForks()
	if trackedError != nil {
		return nil, wrapError(peersOperationNameConstant, trackedError)
	}

	reports := make([]PeerReport, 0, len(trackedForks))
	for _, tracked := range trackedForks {
		if len(tracked.info.RootRepositoryURL()) == 0 {
			continue
		}
		rootReference, parsed := manager.parseRoot(tracked)
		if !parsed {
			continue
		}

		ownURL := tracked.info.ResolvedForkURL()
		peers := []storage.Peer{}
		for _, rootFork := range manager.client.ListForks(executionContext, rootReference.Owner, rootReference.Repository) {
			if rootFork.URL == ownURL {
				continue
			}
			peers = append(peers, storage.Peer{Owner: rootFork.Owner, Name: rootFork.Name, URL: rootFork.URL, UpdatedAt: rootFork.UpdatedAt})
		}

		if saveError := manager.store.SavePeers(tracked.name, peers); saveError != nil {
			return nil, wrapError(peersOperationNameConstant, saveError)
		}
		reports = append(reports, PeerReport{Name: tracked.name, RootURL: tracked.info.RootRepositoryURL(), Peers: peers})
	}
	return reports, nil
}

// ListPullRequests gathers the pull requests of every tracked fork followed by those of its root and records them.
func (manager *Manager) ListPullRequests(executionContext context.Context) ([]PullRequestReport, error) {
	trackedForks, trackedError := manager.loadTrackedForks()
	if trackedError != nil {
		return nil, wrapError(pullRequestsOperationNameConstant, trackedError)
	}

	reports := make([]PullRequestReport, 0, len(trackedForks))
	for _, tracked := range trackedForks {
		pullRequests := []storage.PullRequest{}
		if len(tracked.info.Owner) > 0 && len(tracked.info.Name) > 0 {
			pullRequests = appendPullRequests(pullRequests, manager.client.ListPullRequests(executionContext, tracked.info.Owner, tracked.info.Name))
		}
		if len(tracked.info.RootRepositoryURL()) > 0 {
			if rootReference, parsed := manager.parseRoot(tracked); parsed {
				pullRequests = appendPullRequests(pullRequests, manager.client.ListPullRequests(executionContext, rootReference.Owner, rootReference.Repository))
			}
		}

		if saveError := manager.store.SavePullRequests(tracked.name, pullRequests); saveError != nil {
			return nil, wrapError(pullRequestsOperationNameConstant, saveError)
		}
		reports = append(reports, PullRequestReport{Name: tracked.name, PullRequests: pullRequests})
	}
	return reports, nil
}

// MostActiveForks ranks every fork of every tracked root, plus the roots themselves, by most recent update.
// Entries sharing a URL are reported once.
func (manager *Manager) MostActiveForks(executionContext context.Context) ([]ActiveFork, error) {
	trackedForks, trackedError := manager.loadTrackedForks()
	if trackedError != nil {
		return nil, wrapError(activeOperationNameConstant, trackedError)
	}

	candidates := make([]githubcli.RepositoryFork, 0)
	for _, tracked := range trackedForks {
		if len(tracked.info.RootRepositoryURL()) == 0 {
			continue
		}
		rootReference, parsed := manager.parseRoot(tracked)
		if !parsed {
			continue
		}

		candidates = append(candidates, manager.client.ListForks(executionContext, rootReference.Owner, rootReference.Repository)...)

		rootInfo, infoError := manager.client.GetRepositoryInfo(executionContext, rootReference.FullName())
		if infoError != nil {
			manager.logger.Warn(rootInfoUnavailableLogMessage,
				zap.String(logFieldRepositoryNameConstant, tracked.name),
				zap.String(logFieldRootURLConstant, tracked.info.RootRepositoryURL()),
				zap.Error(infoError),
			)
			continue
		}
		candidates = append(candidates, githubcli.RepositoryFork{
			Owner:     rootReference.Owner,
			Name:      rootReference.Repository,
			URL:       rootInfo.URL,
			UpdatedAt: rootInfo.UpdatedAt,
		})
	}

	sort.SliceStable(candidates, func(leftIndex int, rightIndex int) bool {
		return candidates[leftIndex].UpdatedAt < candidates[rightIndex].UpdatedAt
	})
	for leftIndex, rightIndex := 0, len(candidates)-1; leftIndex < rightIndex; leftIndex, rightIndex = leftIndex+1, rightIndex-1 {
		candidates[leftIndex], candidates[rightIndex] = candidates[rightIndex], candidates[leftIndex]
	}

	seenURLs := make(map[string]struct{}, len(candidates))
	activeForks := make([]ActiveFork, 0, len(candidates))
	for _, candidate := range candidates {
		if _, seen := seenURLs[candidate.URL]; seen {
			continue
		}
		seenURLs[candidate.URL] = struct{}{}
		activeForks = append(activeForks, ActiveFork{
			Name:      candidate.Name,
			URL:       candidate.URL,
			Owner:     candidate.Owner,
			UpdatedAt: candidate.UpdatedAt,
		})
	}
	return activeForks, nil
}

// loadTrackedForks pairs every tracked repository name with its fork record, skipping names whose record is absent or unreadable.
func (manager *Manager) loadTrackedForks() ([]trackedFork, error) {
	trackedNames, listError := manager.store.ListTracked()
	if listError != nil {
		return nil, listError
	}

	trackedForks := make([]trackedFork, 0, len(trackedNames))
	for _, trackedName := range trackedNames {
		forkInfo, found, loadError := manager.store.LoadForkInfo(trackedName)
		if loadError != nil || !found {
			fields := []zap.Field{zap.String(logFieldRepositoryNameConstant, trackedName)}
			if loadError != nil {
				fields = append(fields, zap.Error(loadError))
			}
			manager.logger.Warn(skippedRecordLogMessageConstant, fields...)
			continue
		}
		trackedForks = append(trackedForks, trackedFork{name: trackedName, info: forkInfo})
	}
	return trackedForks, nil
}

func (manager *Manager) parseRoot(tracked trackedFork) (githubcli.RepositoryReference, bool) {
	rootReference, parseError := githubcli.ParseRepositoryURL(tracked.info.RootRepositoryURL())
	if parseError != nil {
		manager.logger.Warn(unparseableRootLogMessageConstant,
			zap.String(logFieldRepositoryNameConstant, tracked.name),
			zap.String(logFieldRootURLConstant, tracked.info.RootRepositoryURL()),
			zap.Error(parseError),
		)
		return githubcli.RepositoryReference{}, false
	}
	return rootReference, true
}

// resolveComparisonBranch returns the root's default branch, or the fallback branch when it cannot be determined.
func (manager *Manager) resolveComparisonBranch(executionContext context.Context, rootReference githubcli.RepositoryReference) string {
	rootInfo, infoError := manager.client.GetRepositoryInfo(executionContext, rootReference.FullName())
	if infoError == nil && len(strings.TrimSpace(rootInfo.DefaultBranch)) > 0 {
		return strings.TrimSpace(rootInfo.DefaultBranch)
	}
	fields := []zap.Field{
		zap.String(logFieldRepositoryNameConstant, rootReference.FullName()),
		zap.String(logFieldFallbackBranchConstant, manager.fallbackBranch),
	}
	if infoError != nil {
		fields = append(fields, zap.Error(infoError))
	}
	manager.logger.Debug(defaultBranchUnavailableLogMessage, fields...)
	return manager.fallbackBranch
}

func appendPullRequests(pullRequests []storage.PullRequest, fetched []githubcli.PullRequest) []storage.PullRequest {
	for _, pullRequest := range fetched {
		pullRequests = append(pullRequests, storage.PullRequest{
			Number:    pullRequest.Number,
			Title:     pullRequest.Title,
			Author:    pullRequest.Author,
			State:     pullRequest.State,
			CreatedAt: pullRequest.CreatedAt,
		})
	}
	return pullRequests
}
