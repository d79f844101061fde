package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	githubRepoSubcommandNameConstant        = "repo"
	githubRepoForkSubcommandNameConstant    = "fork"
	githubRepoListSubcommandNameConstant    = "list"
	githubRepoViewSubcommandNameConstant    = "view"
	githubPullRequestSubcommandNameConstant = "pr"
	githubAPICommandNameConstant            = "api"
	githubRepoFlagConstant                  = "--repo"
	githubReposEndpointPrefixConstant       = "repos/"
	githubForksEndpointSegmentConstant      = "/forks"
	githubCompareEndpointSegmentConstant    = "/compare/"
)

const (
	githubRepoForkStartTemplateConstant            = "Forking %s"
	githubRepoForkSuccessTemplateConstant          = "Forked %s"
	githubRepoForkFailureTemplateConstant          = "Failed to fork %s (exit code %d%s)"
	githubRepoForkExecutionFailureTemplateConstant = "Unable to fork %s: %s"
	githubRepoListStartTemplateConstant            = "Listing forks owned by %s"
	githubRepoListSuccessTemplateConstant          = "Listed forks owned by %s"
	githubRepoListFailureTemplateConstant          = "Failed to list forks owned by %s (exit code %d%s)"
	githubRepoListExecutionFailureTemplateConstant = "Unable to list forks owned by %s: %s"
	githubRepoViewStartTemplateConstant            = "Retrieving repository details for %s"
	githubRepoViewSuccessTemplateConstant          = "Retrieved repository details for %s"
	githubRepoViewFailureTemplateConstant          = "Failed to retrieve repository details for %s (exit code %d%s)"
	githubRepoViewExecutionFailureTemplateConstant = "Unable to retrieve repository details for %s: %s"
	githubPullRequestListStartTemplateConstant     = "Listing pull requests for %s"
	githubPullRequestListSuccessTemplateConstant   = "Listed pull requests for %s"
	githubPullRequestListFailureTemplateConstant   = "Failed to list pull requests for %s (exit code %d%s)"
	githubPullRequestListExecutionFailureTemplate  = "Unable to list pull requests for %s: %s"
	githubForksStartTemplateConstant               = "Listing forks of %s"
	githubForksSuccessTemplateConstant             = "Listed forks of %s"
	githubForksFailureTemplateConstant             = "Failed to list forks of %s (exit code %d%s)"
	githubForksExecutionFailureTemplateConstant    = "Unable to list forks of %s: %s"
	githubCompareStartTemplateConstant             = "Comparing %s in %s"
	githubCompareSuccessTemplateConstant           = "Compared %s in %s"
	githubCompareFailureTemplateConstant           = "Failed to compare %s in %s (exit code %d%s)"
	githubCompareExecutionFailureTemplateConstant  = "Unable to compare %s in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGitHub || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	arguments := command.Details.Arguments
	switch strings.TrimSpace(arguments[0]) {
	case githubRepoSubcommandNameConstant:
		return formatter.describeGitHubRepoMessage(command, result, failure, stage)
	case githubPullRequestSubcommandNameConstant:
		repository := formatter.ensureValue(findFlagValue(arguments, githubRepoFlagConstant))
		return formatter.selectTemplate(stage, result, failure, repository, stageTemplates{
			start:            githubPullRequestListStartTemplateConstant,
			success:          githubPullRequestListSuccessTemplateConstant,
			failure:          githubPullRequestListFailureTemplateConstant,
			executionFailure: githubPullRequestListExecutionFailureTemplate,
		})
	case githubAPICommandNameConstant:
		return formatter.describeGitHubAPIMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitHubRepoMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	target := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))

	switch formatter.argumentAtIndex(arguments, 1) {
	case githubRepoForkSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure, target, stageTemplates{
			start:            githubRepoForkStartTemplateConstant,
			success:          githubRepoForkSuccessTemplateConstant,
			failure:          githubRepoForkFailureTemplateConstant,
			executionFailure: githubRepoForkExecutionFailureTemplateConstant,
		})
	case githubRepoListSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure, target, stageTemplates{
			start:            githubRepoListStartTemplateConstant,
			success:          githubRepoListSuccessTemplateConstant,
			failure:          githubRepoListFailureTemplateConstant,
			executionFailure: githubRepoListExecutionFailureTemplateConstant,
		})
	case githubRepoViewSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure, target, stageTemplates{
			start:            githubRepoViewStartTemplateConstant,
			success:          githubRepoViewSuccessTemplateConstant,
			failure:          githubRepoViewFailureTemplateConstant,
			executionFailure: githubRepoViewExecutionFailureTemplateConstant,
		})
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitHubAPIMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	endpoint := strings.TrimSpace(formatter.argumentAtIndex(command.Details.Arguments, 1))

	if strings.HasSuffix(endpoint, githubForksEndpointSegmentConstant) {
		repository := formatter.extractRepositoryFromEndpoint(strings.TrimSuffix(endpoint, githubForksEndpointSegmentConstant))
		return formatter.selectTemplate(stage, result, failure, repository, stageTemplates{
			start:            githubForksStartTemplateConstant,
			success:          githubForksSuccessTemplateConstant,
			failure:          githubForksFailureTemplateConstant,
			executionFailure: githubForksExecutionFailureTemplateConstant,
		})
	}

	compareIndex := strings.Index(endpoint, githubCompareEndpointSegmentConstant)
	if compareIndex == -1 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	repository := formatter.extractRepositoryFromEndpoint(endpoint[:compareIndex])
	comparison := formatter.ensureValue(endpoint[compareIndex+len(githubCompareEndpointSegmentConstant):])
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(githubCompareStartTemplateConstant, comparison, repository)
	case messageStageSuccess:
		return fmt.Sprintf(githubCompareSuccessTemplateConstant, comparison, repository)
	case messageStageFailure:
		return fmt.Sprintf(githubCompareFailureTemplateConstant, comparison, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(githubCompareExecutionFailureTemplateConstant, comparison, repository, formatter.describeFailure(failure))
	}
}

type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

func (formatter CommandMessageFormatter) selectTemplate(stage messageStage, result ExecutionResult, failure error, subject string, templates stageTemplates) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, subject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(templates.executionFailure, subject, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := describeCommand(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmed := strings.TrimSpace(standardError)
	if len(trimmed) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmed)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[index])
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) extractRepositoryFromEndpoint(endpoint string) string {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(endpoint), githubReposEndpointPrefixConstant), "/")
	return formatter.ensureValue(trimmed)
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
