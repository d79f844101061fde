package forks

import "errors"

const (
	storeNotConfiguredMessageConstant  = "fork store not configured"
	clientNotConfiguredMessageConstant = "github client not configured"
)

var (
	// ErrStoreNotConfigured indicates the manager was constructed without a store.
	ErrStoreNotConfigured = errors.New(storeNotConfiguredMessageConstant)
	// ErrClientNotConfigured indicates the manager was constructed without a GitHub client.
	ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)
)

// Error wraps every failure surfaced by the manager. Client and storage
// failures remain reachable through errors.As.
type Error struct {
	Operation string
	Cause     error
}

// Error returns the cause message so command output stays free of internal operation names.
func (managerError Error) Error() string {
	if managerError.Cause == nil {
		return managerError.Operation
	}
	return managerError.Cause.Error()
}

// Unwrap exposes the underlying cause.
func (managerError Error) Unwrap() error {
	return managerError.Cause
}

func wrapError(operation string, cause error) error {
	if cause == nil {
		return nil
	}
	var existing Error
	if errors.As(cause, &existing) {
		return cause
	}
	return Error{Operation: operation, Cause: cause}
}
