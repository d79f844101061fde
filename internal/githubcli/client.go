package githubcli

import (
	"context"
	"time"

	gh "github.com/cli/go-gh/v2"
	"github.com/cli/safeexec"
	"go.uber.org/zap"

	"github.com/temirov/forker/internal/execshell"
)

const (
	defaultForkListLimitConstant    = 100
	defaultPullRequestLimitConstant = 50
)

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ExecutableLocator resolves the absolute path of the gh executable.
type ExecutableLocator func() (string, error)

// Configuration tunes the limits and clock used by Client.
type Configuration struct {
	ForkListLimit    int
	PullRequestLimit int
	Clock            func() time.Time
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor         GitHubCommandExecutor
	logger           *zap.Logger
	forkListLimit    int
	pullRequestLimit int
	clock            func() time.Time
}

// LocateGitHubCLI resolves gh through locator, which defaults to gh.Path and so honours GH_PATH.
// The resolved path must name an existing executable; otherwise ToolNotFoundError is reported.
func LocateGitHubCLI(locator ExecutableLocator) (string, error) {
	if locator == nil {
		locator = gh.Path
	}
	executablePath, lookupError := locator()
	if lookupError != nil || len(executablePath) == 0 {
		return "", ToolNotFoundError{Cause: lookupError}
	}
	verifiedPath, verificationError := safeexec.LookPath(executablePath)
	if verificationError != nil {
		return "", ToolNotFoundError{Cause: verificationError}
	}
	return verifiedPath, nil
}

// NewClient constructs a GitHub CLI client. A nil logger discards diagnostics; zero limits select defaults.
func NewClient(executor GitHubCommandExecutor, logger *zap.Logger, configuration Configuration) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	forkListLimit := configuration.ForkListLimit
	if forkListLimit <= 0 {
		forkListLimit = defaultForkListLimitConstant
	}
	pullRequestLimit := configuration.PullRequestLimit
	if pullRequestLimit <= 0 {
		pullRequestLimit = defaultPullRequestLimitConstant
	}
	clock := configuration.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Client{
		executor:         executor,
		logger:           logger,
		forkListLimit:    forkListLimit,
		pullRequestLimit: pullRequestLimit,
		clock:            clock,
	}, nil
}
