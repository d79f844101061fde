package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const environmentAssignmentSeparatorConstant = "="

// Environment variables that keep the GitHub CLI non-interactive when driven by forker.
const (
	GitHubPromptDisabledEnvironmentName   = "GH_PROMPT_DISABLED"
	GitHubUpdateNotifierEnvironmentName   = "GH_NO_UPDATE_NOTIFIER"
	environmentFlagEnabledConstant        = "1"
	defaultEnvironmentCapacityPadConstant = 2
)

// NonInteractiveGitHubEnvironment returns the environment forker applies to every gh invocation.
func NonInteractiveGitHubEnvironment() map[string]string {
	return map[string]string{
		GitHubPromptDisabledEnvironmentName: environmentFlagEnabledConstant,
		GitHubUpdateNotifierEnvironmentName: environmentFlagEnabledConstant,
	}
}

// OSCommandRunner executes commands using os/exec.
type OSCommandRunner struct {
	executablePaths map[CommandName]string
	environment     map[string]string
}

// NewOSCommandRunner constructs a runner that invokes the supplied executable paths in place of the
// bare command names and layers environment over the process environment of every command.
func NewOSCommandRunner(executablePaths map[CommandName]string, environment map[string]string) *OSCommandRunner {
	duplicatedPaths := make(map[CommandName]string, len(executablePaths))
	for commandName, executablePath := range executablePaths {
		if trimmed := strings.TrimSpace(executablePath); len(trimmed) > 0 {
			duplicatedPaths[commandName] = trimmed
		}
	}
	duplicatedEnvironment := make(map[string]string, len(environment))
	for environmentName, environmentValue := range environment {
		duplicatedEnvironment[environmentName] = environmentValue
	}
	return &OSCommandRunner{executablePaths: duplicatedPaths, environment: duplicatedEnvironment}
}

// Run executes the command. A non-zero exit code is reported through the result, not the error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executable := exec.CommandContext(executionContext, runner.resolveExecutable(command.Name), command.Details.Arguments...)
	executable.Env = runner.mergedEnvironment(command.Details.EnvironmentVariables)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	runError := executable.Run()
	result := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}
	if runError == nil {
		return result, nil
	}

	exitError := &exec.ExitError{}
	if errors.As(runError, &exitError) {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	return ExecutionResult{}, runError
}

func (runner *OSCommandRunner) resolveExecutable(commandName CommandName) string {
	if runner != nil {
		if executablePath, configured := runner.executablePaths[commandName]; configured {
			return executablePath
		}
	}
	return string(commandName)
}

// mergedEnvironment appends runner and per-command overrides after os.Environ so later entries win.
func (runner *OSCommandRunner) mergedEnvironment(commandEnvironment map[string]string) []string {
	processEnvironment := os.Environ()
	merged := make([]string, 0, len(processEnvironment)+len(commandEnvironment)+defaultEnvironmentCapacityPadConstant)
	merged = append(merged, processEnvironment...)
	if runner != nil {
		merged = appendAssignments(merged, runner.environment)
	}
	return appendAssignments(merged, commandEnvironment)
}

func appendAssignments(assignments []string, environment map[string]string) []string {
	environmentNames := make([]string, 0, len(environment))
	for environmentName := range environment {
		environmentNames = append(environmentNames, environmentName)
	}
	sort.Strings(environmentNames)
	for _, environmentName := range environmentNames {
		assignments = append(assignments, environmentName+environmentAssignmentSeparatorConstant+environment[environmentName])
	}
	return assignments
}
