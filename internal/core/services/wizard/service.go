package wizard

import (
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/ports"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Prefill carries previously stored values back to the client so a user
// resuming after a NEEDS_INFO outcome is not asked to re-enter data that
// was not the cause of the failure. Bank details never appear here.
type Prefill struct {
	Phone       string `json:"phone,omitempty"`
	Street1     string `json:"street1,omitempty"`
	Street2     string `json:"street2,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	TaxID       string `json:"tax_id,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"` // YYYY-MM-DD
}

// State is the wizard's answer to "where am I and what do you already
// know about me".
type State struct {
	Step      domain.Step   `json:"step"`
	Completed []domain.Step `json:"completed"`
	Prefill   Prefill       `json:"prefill"`
}

// Service drives the sequential collection wizard. All durable state lives
// in the field store; the current step is always derived, never stored, so
// there are no dialog flags to drift out of sync.
type Service struct {
	fields ports.KycFieldRepository
	log    zerolog.Logger
}

// New creates the wizard service.
func New(fields ports.KycFieldRepository, baseLogger *zerolog.Logger) *Service {
	return &Service{
		fields: fields,
		log:    baseLogger.With().Str("component", "wizard_service").Logger(),
	}
}

// State computes the next step for a user and the prefill for every field
// already collected.
func (s *Service) State(ctx context.Context, userID uuid.UUID) (*State, error) {
	fields, err := s.fields.GetByUserID(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to load kyc fields")
		return nil, &domain.WorkflowError{Code: domain.ErrCodeInternal, Message: "could not load your saved details"}
	}
	if fields == nil {
		fields = &domain.KycFields{UserID: userID}
	}

	state := &State{Step: NextStep(fields)}
	if fields.HasPhone() {
		state.Completed = append(state.Completed, domain.StepPhone)
		state.Prefill.Phone = *fields.Phone
	}
	if fields.HasAddress() {
		state.Completed = append(state.Completed, domain.StepAddress)
		state.Prefill.Street1 = deref(fields.Street1)
		state.Prefill.Street2 = deref(fields.Street2)
		state.Prefill.City = deref(fields.City)
		state.Prefill.State = deref(fields.State)
		state.Prefill.PostalCode = deref(fields.PostalCode)
	}
	if fields.HasTaxIdentity() {
		state.Completed = append(state.Completed, domain.StepTaxID)
		state.Prefill.TaxID = *fields.TaxID
		state.Prefill.DateOfBirth = fields.DateOfBirth.Format("2006-01-02")
	}
	return state, nil
}

// NextStep is the strict collection order: the first incomplete required
// step wins. Documents are optional, so a fully filled store lands on the
// bank step (which is never persisted and therefore never "complete").
func NextStep(fields *domain.KycFields) domain.Step {
	switch {
	case !fields.HasPhone():
		return domain.StepPhone
	case !fields.HasAddress():
		return domain.StepAddress
	case !fields.HasTaxIdentity():
		return domain.StepTaxID
	default:
		return domain.StepBank
	}
}

// EntryStep resolves where the wizard re-opens after a workflow error.
// A failure that cannot be mapped to a known field restarts from step one.
func EntryStep(err error) domain.Step {
	wfErr, ok := domain.AsWorkflowError(err)
	if !ok || wfErr.Step == "" || wfErr.Step == domain.StepIdle {
		return domain.StepPhone
	}
	return wfErr.Step
}

// SubmitPhone validates and persists the phone step.
func (s *Service) SubmitPhone(ctx context.Context, userID uuid.UUID, phone string) error {
	if err := domain.ValidatePhone(phone); err != nil {
		return err
	}
	return s.save(ctx, &domain.KycFields{UserID: userID, Phone: &phone})
}

// SubmitAddress validates and persists the address step.
func (s *Service) SubmitAddress(ctx context.Context, userID uuid.UUID, street1, street2, city, state, postalCode string) error {
	if err := domain.ValidateAddress(street1, city, state, postalCode); err != nil {
		return err
	}
	fields := &domain.KycFields{
		UserID:     userID,
		Street1:    &street1,
		City:       &city,
		State:      &state,
		PostalCode: &postalCode,
	}
	if street2 != "" {
		fields.Street2 = &street2
	}
	return s.save(ctx, fields)
}

// SubmitTaxIdentity validates and persists the tax id + date of birth step.
func (s *Service) SubmitTaxIdentity(ctx context.Context, userID uuid.UUID, taxID string, dateOfBirth time.Time) error {
	if err := domain.ValidateTaxID(taxID); err != nil {
		return err
	}
	if err := domain.ValidateDateOfBirth(dateOfBirth, time.Now()); err != nil {
		return err
	}
	return s.save(ctx, &domain.KycFields{UserID: userID, TaxID: &taxID, DateOfBirth: &dateOfBirth})
}

func (s *Service) save(ctx context.Context, fields *domain.KycFields) error {
	if err := s.fields.Upsert(ctx, fields); err != nil {
		s.log.Error().Err(err).Str("user_id", fields.UserID.String()).Msg("Failed to persist wizard step")
		return &domain.WorkflowError{Code: domain.ErrCodeInternal, Message: "could not save your details, please try again"}
	}
	return nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
