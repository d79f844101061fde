package pathutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	tildeSymbolConstant                   = "~"
	emptyPathMessageConstant              = "path is empty"
	homeDirectoryErrorTemplateConstant    = "unable to expand %q: %v"
	workingDirectoryErrorTemplateConstant = "unable to resolve %q against the working directory: %v"
)

// ErrEmptyPath indicates a blank path was supplied for resolution.
var ErrEmptyPath = errors.New(emptyPathMessageConstant)

// DirectoryProvider returns a directory such as the user's home or the process working directory.
type DirectoryProvider func() (string, error)

// ResolutionError reports a path that could not be made absolute.
type ResolutionError struct {
	Path    string
	Message string
	Cause   error
}

// Error describes the failure.
func (resolutionError ResolutionError) Error() string {
	return fmt.Sprintf(resolutionError.Message, resolutionError.Path, resolutionError.Cause)
}

// Unwrap exposes the provider failure.
func (resolutionError ResolutionError) Unwrap() error {
	return resolutionError.Cause
}

// Resolver turns user supplied directories such as "~/forks" or "$WORKSPACE/forks" into absolute paths.
type Resolver struct {
	homeDirectory    DirectoryProvider
	workingDirectory DirectoryProvider
	lookupVariable   func(string) (string, bool)
}

// NewResolver constructs a Resolver backed by the operating system.
func NewResolver() *Resolver {
	return NewResolverWithProviders(os.UserHomeDir, os.Getwd, os.LookupEnv)
}

// NewResolverWithProviders constructs a Resolver with custom lookups. Nil arguments fall back to the
// operating system.
func NewResolverWithProviders(homeDirectory DirectoryProvider, workingDirectory DirectoryProvider, lookupVariable func(string) (string, bool)) *Resolver {
	if homeDirectory == nil {
		homeDirectory = os.UserHomeDir
	}
	if workingDirectory == nil {
		workingDirectory = os.Getwd
	}
	if lookupVariable == nil {
		lookupVariable = os.LookupEnv
	}
	return &Resolver{homeDirectory: homeDirectory, workingDirectory: workingDirectory, lookupVariable: lookupVariable}
}

// Resolve expands environment references and a leading "~" or "~/", then anchors relative results at
// the working directory. Unset variables expand to an empty string; "~user" forms are left untouched.
func (resolver *Resolver) Resolve(candidatePath string) (string, error) {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return "", ErrEmptyPath
	}

	expandedPath := os.Expand(trimmedPath, func(variableName string) string {
		value, _ := resolver.lookupVariable(variableName)
		return value
	})

	if expandedPath == tildeSymbolConstant || strings.HasPrefix(expandedPath, tildeSymbolConstant+"/") || strings.HasPrefix(expandedPath, tildeSymbolConstant+string(filepath.Separator)) {
		homeDirectory, homeError := resolver.homeDirectory()
		if homeError != nil {
			return "", ResolutionError{Path: candidatePath, Message: homeDirectoryErrorTemplateConstant, Cause: homeError}
		}
		expandedPath = filepath.Join(homeDirectory, expandedPath[len(tildeSymbolConstant):])
	}

	if filepath.IsAbs(expandedPath) {
		return filepath.Clean(expandedPath), nil
	}

	workingDirectory, workingError := resolver.workingDirectory()
	if workingError != nil {
		return "", ResolutionError{Path: candidatePath, Message: workingDirectoryErrorTemplateConstant, Cause: workingError}
	}
	return filepath.Join(workingDirectory, expandedPath), nil
}
