package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a workflow failure for the API surface.
type ErrorCode string

const (
	ErrCodeValidation  ErrorCode = "validation"
	ErrCodeFieldError  ErrorCode = "field_error"  // Provider named a specific field
	ErrCodeManualSetup ErrorCode = "manual_setup" // Finish on the provider's hosted page
	ErrCodeMismatch    ErrorCode = "account_mismatch"
	ErrCodeTransient   ErrorCode = "transient" // Safe to retry
	ErrCodeTerminal    ErrorCode = "terminal"  // Requires explicit reset
	ErrCodeForbidden   ErrorCode = "forbidden"
	ErrCodeNotFound    ErrorCode = "not_found"
	ErrCodeInternal    ErrorCode = "internal"
)

// WorkflowError is the sanitized error the workflow exposes. The raw
// provider or database text never leaves the server; it is logged against
// Ref so support can correlate.
type WorkflowError struct {
	Code    ErrorCode
	Field   string // Offending field, when known
	Step    Step   // Wizard step to re-open, StepIdle when unmappable
	Message string // Sanitized, user-presentable
	Ref     string // Truncated correlation reference
}

func (e *WorkflowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError builds a pre-network validation failure tagged with
// the wizard step owning the field.
func NewValidationError(field, message string) *WorkflowError {
	step, ok := StepForField(field)
	if !ok {
		step = StepIdle
	}
	return &WorkflowError{
		Code:    ErrCodeValidation,
		Field:   field,
		Step:    step,
		Message: message,
	}
}

// AsWorkflowError unwraps err into a WorkflowError if it is one.
func AsWorkflowError(err error) (*WorkflowError, bool) {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr, true
	}
	return nil, false
}
