package activation

import (
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/ports"
	"context"
	"errors"

	"github.com/google/uuid"
)

// providerError unwraps err into the structured provider error contract.
func providerError(err error) (*ports.ProviderError, bool) {
	var provErr *ports.ProviderError
	if errors.As(err, &provErr) {
		return provErr, true
	}
	return nil, false
}

// newRef mints a short correlation reference. The raw error is logged
// against it; clients only ever see the reference.
func newRef() string {
	return uuid.NewString()[:8]
}

// translateProviderErr converts a provider failure into the sanitized
// workflow error the API surface exposes. Raw provider text stays in the
// server log, keyed by the correlation reference.
func (s *Service) translateProviderErr(ctx context.Context, err error, op string) error {
	ref := newRef()
	provErr, ok := providerError(err)
	if !ok {
		s.log.Error().Err(err).Str("operation", op).Str("ref", ref).Msg("Unclassified provider failure")
		return &domain.WorkflowError{
			Code:    domain.ErrCodeInternal,
			Message: "something went wrong, contact support with the reference id",
			Ref:     ref,
		}
	}

	s.log.Error().
		Str("operation", op).
		Str("kind", string(provErr.Kind)).
		Str("field", provErr.Field).
		Str("ref", ref).
		Str("description", provErr.Description).
		Msg("Provider call failed")

	switch provErr.Kind {
	case ports.KindValidation:
		step, known := domain.StepForField(provErr.Field)
		if !known {
			step = domain.StepIdle
		}
		return &domain.WorkflowError{
			Code:    domain.ErrCodeFieldError,
			Field:   provErr.Field,
			Step:    step,
			Message: "the provider rejected one of the submitted fields, please correct it",
			Ref:     ref,
		}

	case ports.KindNetwork:
		return &domain.WorkflowError{
			Code:    domain.ErrCodeTransient,
			Message: "could not reach the verification provider, please try again",
			Ref:     ref,
		}

	default:
		return &domain.WorkflowError{
			Code:    domain.ErrCodeInternal,
			Message: "something went wrong, contact support with the reference id",
			Ref:     ref,
		}
	}
}

// internalErr wraps storage and other non-provider failures.
func (s *Service) internalErr(ctx context.Context, err error, op string) error {
	ref := newRef()
	s.log.Error().Err(err).Str("operation", op).Str("ref", ref).Msg("Workflow step failed")
	return &domain.WorkflowError{
		Code:    domain.ErrCodeInternal,
		Message: "something went wrong, contact support with the reference id",
		Ref:     ref,
	}
}
