package cli

import (
	"fmt"
	"io"
)

const (
	errorOutputTemplateConstant = "Error: %v\n"
	exitCodeSuccessConstant     = 0
	exitCodeFailureConstant     = 1
)

// Run executes forker with arguments, where arguments[0] is the program name. Reports and
// failures are written to standardOutput and diagnostics to standardError. The returned
// value is the process exit status.
func Run(arguments []string, standardInput io.Reader, standardOutput io.Writer, standardError io.Writer) int {
	application := NewApplicationWithStreams(ApplicationStreams{Output: standardOutput, Diagnostics: standardError})
	if standardInput != nil {
		application.rootCommand.SetIn(standardInput)
	}

	commandArguments := []string{}
	if len(arguments) > 1 {
		commandArguments = arguments[1:]
	}

	if executionError := application.ExecuteWithArguments(commandArguments); executionError != nil {
		fmt.Fprintf(standardOutput, errorOutputTemplateConstant, executionError)
		return exitCodeFailureConstant
	}
	return exitCodeSuccessConstant
}
