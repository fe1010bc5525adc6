package tui

import wcerrors "github.com/mrz1836/wipecert/internal/errors"

// ActionableError wraps an error with an actionable suggestion.
//
// Example usage:
//
//	err := NewActionableError("signing key not found", "Run: wipecert keys show")
//	output.Error(err)
//	// Outputs: ✗ signing key not found
//	//          ▸ Try: wipecert keys show
type ActionableError struct {
	// Message is the primary error message.
	Message string

	// Suggestion provides actionable guidance for resolving the error.
	Suggestion string

	// Context provides optional additional information about the error.
	// When present, it is appended to the message in parentheses.
	Context string

	// cause is the underlying error, if any.
	cause error
}

// NewActionableError creates a new ActionableError with message and suggestion.
func NewActionableError(msg, suggestion string) *ActionableError {
	return &ActionableError{
		Message:    msg,
		Suggestion: suggestion,
	}
}

// AsActionable converts err into an ActionableError using the user-facing
// message table in internal/errors. The original error stays reachable via
// errors.Is and errors.As. Returns nil for a nil error.
func AsActionable(err error) *ActionableError {
	if err == nil {
		return nil
	}
	msg, action := wcerrors.Actionable(err)
	ae := &ActionableError{Message: msg, Suggestion: action, cause: err}
	if raw := err.Error(); raw != msg {
		ae.Context = raw
	}
	return ae
}

// Error implements the error interface.
// Returns the message with context if provided, e.g., "file not found (/path/to/file)".
func (e *ActionableError) Error() string {
	if e.Context != "" {
		return e.Message + " (" + e.Context + ")"
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ActionableError) Unwrap() error {
	return e.cause
}

// WithContext adds optional context to the error.
// Returns the same error for method chaining.
func (e *ActionableError) WithContext(ctx string) *ActionableError {
	e.Context = ctx
	return e
}
