package forks

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/forker/internal/githubcli"
	"github.com/temirov/forker/internal/utils"
)

const (
	listCommandUseConstant              = "list"
	listCommandShortDescriptionConstant = "List the forks owned by an account and record them"
	listCommandLongDescriptionConstant  = "list queries GitHub for every fork owned by the account, stores a fork record per repository under .forker and prints them."
	listCommandExampleConstant          = "forker list --account octocat"
	forkCommandUseConstant              = "fork"
	forkCommandShortDescriptionConstant = "Fork a repository into an account and start tracking it"
	forkCommandLongDescriptionConstant  = "fork creates a fork of the repository without cloning it, resolves the root of its fork network and stores the fork record under .forker."
	forkCommandExampleConstant          = "forker fork --url https://github.com/rails/rails --account octocat"
	statusCommandUseConstant            = "status"
	statusCommandShortDescription       = "Show how far each tracked fork diverges from its root"
	peersCommandUseConstant             = "peers"
	peersCommandShortDescription        = "Show the other forks of each tracked fork's root"
	pullRequestsCommandUseConstant      = "prs"
	pullRequestsCommandShortDescription = "Show open pull requests on each tracked fork and its root"
	activeCommandUseConstant            = "active"
	activeCommandShortDescription       = "Rank the forks of every tracked root by recent activity"
	accountFlagNameConstant             = "account"
	accountFlagUsageConstant            = "GitHub user or organization that owns the forks"
	urlFlagNameConstant                 = "url"
	urlFlagUsageConstant                = "Repository to fork (https, ssh or owner/name)"
	logFieldAccountConstant             = "account"
	logFieldRepositoryURLConstant       = "repository_url"
	logFieldCountConstant               = "count"
	forkListRecordedLogMessage          = "Recorded forks for account"
	forkRecordedLogMessage              = "Recorded new fork"
	commandPreparedLogMessage           = "Prepared fork command"
	logFieldCommandConstant             = "command"
	logFieldConfigurationFileConstant   = "config_file"
	logFieldExecutionIdentifierConstant = "execution_id"
)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the fork tracking commands.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	GitHubExecutor               githubcli.GitHubCommandExecutor
	ExecutableLocator            githubcli.ExecutableLocator
	GitHubClient                 GitHubClient
	Store                        ForkStore
}

// Build constructs the list, fork, status, peers, prs and active commands.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	listCommand := &cobra.Command{
		Use:     listCommandUseConstant,
		Short:   listCommandShortDescriptionConstant,
		Long:    listCommandLongDescriptionConstant,
		Example: listCommandExampleConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.runList,
	}
	listCommand.Flags().String(accountFlagNameConstant, "", accountFlagUsageConstant)
	if requiredError := listCommand.MarkFlagRequired(accountFlagNameConstant); requiredError != nil {
		return nil, requiredError
	}

	forkCommand := &cobra.Command{
		Use:     forkCommandUseConstant,
		Short:   forkCommandShortDescriptionConstant,
		Long:    forkCommandLongDescriptionConstant,
		Example: forkCommandExampleConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.runFork,
	}
	forkCommand.Flags().String(urlFlagNameConstant, "", urlFlagUsageConstant)
	forkCommand.Flags().String(accountFlagNameConstant, "", accountFlagUsageConstant)
	for _, requiredFlagName := range []string{urlFlagNameConstant, accountFlagNameConstant} {
		if requiredError := forkCommand.MarkFlagRequired(requiredFlagName); requiredError != nil {
			return nil, requiredError
		}
	}

	statusCommand := &cobra.Command{Use: statusCommandUseConstant, Short: statusCommandShortDescription, Args: cobra.NoArgs, RunE: builder.runStatus}
	peersCommand := &cobra.Command{Use: peersCommandUseConstant, Short: peersCommandShortDescription, Args: cobra.NoArgs, RunE: builder.runPeers}
	pullRequestsCommand := &cobra.Command{Use: pullRequestsCommandUseConstant, Short: pullRequestsCommandShortDescription, Args: cobra.NoArgs, RunE: builder.runPullRequests}
	activeCommand := &cobra.Command{Use: activeCommandUseConstant, Short: activeCommandShortDescription, Args: cobra.NoArgs, RunE: builder.runActive}

	return []*cobra.Command{listCommand, forkCommand, statusCommand, peersCommand, pullRequestsCommand, activeCommand}, nil
}

func (builder *CommandBuilder) runList(command *cobra.Command, arguments []string) error {
	account := builder.trimmedFlag(command, accountFlagNameConstant)
	manager, reporter, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}

	forkInfos, listError := manager.ListForks(command.Context(), account)
	if listError != nil {
		return listError
	}
	builder.resolveLogger(command).Debug(forkListRecordedLogMessage, zap.String(logFieldAccountConstant, account), zap.Int(logFieldCountConstant, len(forkInfos)))
	return reporter.RenderForkList(account, forkInfos)
}

func (builder *CommandBuilder) runFork(command *cobra.Command, arguments []string) error {
	repositoryURL := builder.trimmedFlag(command, urlFlagNameConstant)
	account := builder.trimmedFlag(command, accountFlagNameConstant)
	manager, reporter, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}

	forkInfo, forkError := manager.ForkRepository(command.Context(), repositoryURL, account)
	if forkError != nil {
		return forkError
	}
	builder.resolveLogger(command).Debug(forkRecordedLogMessage, zap.String(logFieldRepositoryURLConstant, repositoryURL), zap.String(logFieldAccountConstant, account))
	return reporter.RenderForkResult(forkInfo)
}

func (builder *CommandBuilder) runStatus(command *cobra.Command, arguments []string) error {
	manager, reporter, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}
	statuses, statusError := manager.ForkStatuses(command.Context())
	if statusError != nil {
		return statusError
	}
	return reporter.RenderStatuses(statuses)
}

func (builder *CommandBuilder) runPeers(command *cobra.Command, arguments []string) error {
	manager, reporter, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}
	peerReports, peersError := manager.FindPeers(command.Context())
	if peersError != nil {
		return peersError
	}
	return reporter.RenderPeers(peerReports)
}

func (builder *CommandBuilder) runPullRequests(command *cobra.Command, arguments []string) error {
	manager, reporter, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}
	pullRequestReports, pullRequestsError := manager.ListPullRequests(command.Context())
	if pullRequestsError != nil {
		return pullRequestsError
	}
	return reporter.RenderPullRequests(pullRequestReports)
}

func (builder *CommandBuilder) runActive(command *cobra.Command, arguments []string) error {
	manager, reporter, prepareError := builder.prepare(command)
	if prepareError != nil {
		return prepareError
	}
	activeForks, activeError := manager.MostActiveForks(command.Context())
	if activeError != nil {
		return activeError
	}
	return reporter.RenderActiveForks(activeForks)
}

// prepare wires the manager and reporter for a single invocation. The GitHub CLI is located
// before any storage access so a missing gh fails every command the same way.
func (builder *CommandBuilder) prepare(command *cobra.Command) (*Manager, *Reporter, error) {
	configuration := builder.resolveConfiguration()
	logger := builder.resolveLogger(command)

	preparedFields := []zap.Field{zap.String(logFieldCommandConstant, command.CommandPath())}
	if configurationFilePath, available := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context()); available && len(configurationFilePath) > 0 {
		preparedFields = append(preparedFields, zap.String(logFieldConfigurationFileConstant, configurationFilePath))
	}
	logger.Debug(commandPreparedLogMessage, preparedFields...)

	client := builder.GitHubClient
	if client == nil {
		executor, executorError := ResolveGitHubExecutor(builder.GitHubExecutor, builder.ExecutableLocator, logger, builder.humanReadableLogging())
		if executorError != nil {
			return nil, nil, executorError
		}
		resolvedClient, clientError := ResolveGitHubClient(nil, executor, logger, configuration.GitHub)
		if clientError != nil {
			return nil, nil, clientError
		}
		client = resolvedClient
	}

	store, storeError := ResolveForkStore(builder.Store, configuration.Storage)
	if storeError != nil {
		return nil, nil, storeError
	}

	manager, managerError := NewManager(store, client, logger, ManagerConfiguration{FallbackBranch: configuration.GitHub.FallbackBranch})
	if managerError != nil {
		return nil, nil, managerError
	}

	reporter, reporterError := NewReporter(command.OutOrStdout(), OutputFormat(configuration.Output.Format), configuration.Output.Color)
	if reporterError != nil {
		return nil, nil, reporterError
	}

	return manager, reporter, nil
}

func (builder *CommandBuilder) trimmedFlag(command *cobra.Command, flagName string) string {
	value, _ := command.Flags().GetString(flagName)
	return strings.TrimSpace(value)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

// resolveLogger returns the provided logger tagged with the execution identifier carried by the command context.
func (builder *CommandBuilder) resolveLogger(command *cobra.Command) *zap.Logger {
	logger := zap.NewNop()
	if builder.LoggerProvider != nil {
		if providedLogger := builder.LoggerProvider(); providedLogger != nil {
			logger = providedLogger
		}
	}
	if command == nil {
		return logger
	}
	if executionIdentifier, available := utils.NewCommandContextAccessor().ExecutionIdentifier(command.Context()); available && len(executionIdentifier) > 0 {
		logger = logger.With(zap.String(logFieldExecutionIdentifierConstant, executionIdentifier))
	}
	return logger
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}
