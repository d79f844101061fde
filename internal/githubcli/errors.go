package githubcli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/forker/internal/execshell"
)

const (
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	toolNotFoundMessageConstant             = "GitHub CLI (gh) is not installed. Please install it from https://cli.github.com/"
	invalidRepositoryURLTemplateConstant    = "Invalid GitHub repository URL: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	operationSummaryTemplateConstant        = "%s: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// Client operations.
const (
	OperationForkRepository    OperationName = OperationName("ForkRepository")
	OperationListUserForks     OperationName = OperationName("ListUserForks")
	OperationGetRepositoryInfo OperationName = OperationName("GetRepositoryInfo")
	OperationListForks         OperationName = OperationName("ListForks")
	OperationListPullRequests  OperationName = OperationName("ListPullRequests")
	OperationCompareCommits    OperationName = OperationName("CompareCommits")
)

var operationFailureSummaries = map[OperationName]string{
	OperationForkRepository:    "Failed to fork repository",
	OperationListUserForks:     "Failed to list forks",
	OperationGetRepositoryInfo: "Failed to get repository info",
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// ClientError marks every failure originating in the GitHub client.
type ClientError interface {
	error
	IsClientError() bool
}

// ToolNotFoundError indicates the gh executable could not be located.
type ToolNotFoundError struct {
	Cause error
}

// Error describes the missing tool.
func (ToolNotFoundError) Error() string {
	return toolNotFoundMessageConstant
}

// Unwrap exposes the lookup failure.
func (toolError ToolNotFoundError) Unwrap() error {
	return toolError.Cause
}

// IsClientError marks ToolNotFoundError as a client error.
func (ToolNotFoundError) IsClientError() bool {
	return true
}

// InvalidRepositoryURLError indicates a repository reference that could not be split into owner and name.
type InvalidRepositoryURLError struct {
	Input string
	Cause error
}

// Error describes the unparseable reference.
func (urlError InvalidRepositoryURLError) Error() string {
	return fmt.Sprintf(invalidRepositoryURLTemplateConstant, urlError.Input)
}

// Unwrap exposes the parser failure, when present.
func (urlError InvalidRepositoryURLError) Unwrap() error {
	return urlError.Cause
}

// IsClientError marks InvalidRepositoryURLError as a client error.
func (InvalidRepositoryURLError) IsClientError() bool {
	return true
}

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// IsClientError marks InvalidInputError as a client error.
func (InvalidInputError) IsClientError() bool {
	return true
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure, including the raw gh output when the command ran.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}

	causeMessage := operationError.Cause.Error()
	var failedError execshell.CommandFailedError
	if errors.As(operationError.Cause, &failedError) {
		causeMessage = failedError.RawOutput()
	}

	if summary, known := operationFailureSummaries[operationError.Operation]; known {
		return strings.TrimSpace(fmt.Sprintf(operationSummaryTemplateConstant, summary, causeMessage))
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, causeMessage)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// IsClientError marks OperationError as a client error.
func (OperationError) IsClientError() bool {
	return true
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// IsClientError marks ResponseDecodingError as a client error.
func (ResponseDecodingError) IsClientError() bool {
	return true
}
