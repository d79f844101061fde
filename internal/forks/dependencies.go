package forks

import (
	"go.uber.org/zap"

	"github.com/temirov/forker/internal/execshell"
	"github.com/temirov/forker/internal/githubcli"
	"github.com/temirov/forker/internal/storage"
	"github.com/temirov/forker/internal/ui"
	pathutils "github.com/temirov/forker/internal/utils/path"
)

// ResolveGitHubExecutor returns the provided executor or constructs a shell-backed default bound to
// the located gh executable. Console logging routes command lifecycle events through the console logger.
func ResolveGitHubExecutor(existing githubcli.GitHubCommandExecutor, locator githubcli.ExecutableLocator, logger *zap.Logger, humanReadableLogging bool) (githubcli.GitHubCommandExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	executablePath, locateError := githubcli.LocateGitHubCLI(locator)
	if locateError != nil {
		return nil, locateError
	}

	commandRunner := execshell.NewOSCommandRunner(
		map[execshell.CommandName]string{execshell.CommandGitHub: executablePath},
		execshell.NonInteractiveGitHubEnvironment(),
	)

	var observer execshell.CommandEventObserver
	if humanReadableLogging {
		observer = ui.NewConsoleCommandEventLogger(logger)
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, observer)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveGitHubClient returns the provided client or creates a GitHub CLI-backed implementation.
func ResolveGitHubClient(existing GitHubClient, executor githubcli.GitHubCommandExecutor, logger *zap.Logger, configuration GitHubConfiguration) (GitHubClient, error) {
	if existing != nil {
		return existing, nil
	}
	client, creationError := githubcli.NewClient(executor, logger, githubcli.Configuration{
		ForkListLimit:    configuration.ForkListLimit,
		PullRequestLimit: configuration.PullRequestLimit,
	})
	if creationError != nil {
		return nil, creationError
	}
	return client, nil
}

// ResolveForkStore returns the provided store or opens the storage root under the configured base path.
func ResolveForkStore(existing ForkStore, configuration StorageConfiguration) (ForkStore, error) {
	if existing != nil {
		return existing, nil
	}

	basePath, resolveError := pathutils.NewResolver().Resolve(configuration.BasePath)
	if resolveError != nil {
		return nil, resolveError
	}
	store, storeError := storage.NewStore(basePath, nil)
	if storeError != nil {
		return nil, storeError
	}
	return store, nil
}
