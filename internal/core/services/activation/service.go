package activation

import (
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/ports"
	"SabhaPay/internal/shared/metrics"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Caller is the authenticated identity invoking the workflow, as handed
// over by the upstream gateway.
type Caller struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// SubmitResult is the orchestrator's answer for one activation attempt.
type SubmitResult struct {
	Status        domain.KycStatus
	Message       string
	ManualSetup   bool
	OnboardingURL string
}

// Service runs the KYC & payout account activation workflow. It is
// stateless between invocations; all progress lives in the linked account
// record so any attempt can resume a partially completed one.
type Service struct {
	communities ports.CommunityRepository
	accounts    ports.LinkedAccountRepository
	fields      ports.KycFieldRepository
	provider    ports.VerificationProvider
	bus         ports.EventBus
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// New creates the activation service.
func New(
	communities ports.CommunityRepository,
	accounts ports.LinkedAccountRepository,
	fields ports.KycFieldRepository,
	provider ports.VerificationProvider,
	bus ports.EventBus,
	m *metrics.Metrics,
	baseLogger *zerolog.Logger,
) *Service {
	return &Service{
		communities: communities,
		accounts:    accounts,
		fields:      fields,
		provider:    provider,
		bus:         bus,
		metrics:     m,
		log:         baseLogger.With().Str("component", "activation_service").Logger(),
	}
}

// SubmitActivation runs one activation attempt end to end: structural
// validation, idempotent account resolution, stakeholder resolution,
// settlement product configuration, status mapping, atomic persistence.
// Bank details live only for the duration of this call.
func (s *Service) SubmitActivation(
	ctx context.Context,
	communityID uuid.UUID,
	caller Caller,
	bank domain.BankDetails,
	confirmBeneficiary string,
	docs []domain.Document,
) (*SubmitResult, error) {
	log := s.log.With().Str("community_id", communityID.String()).Logger()

	community, err := s.mustOwn(ctx, communityID, caller.ID)
	if err != nil {
		return nil, err
	}

	// Everything below validates before the first network call. A failure
	// here leaves no partial state anywhere.
	fields, err := s.completeFields(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateBankDetails(bank, confirmBeneficiary); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := domain.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}

	// Step 1: idempotent account resolution.
	record, err := s.accounts.GetByCommunityID(ctx, communityID)
	if err != nil {
		return nil, s.internalErr(ctx, err, "load linked account")
	}

	resume := false
	if record != nil {
		switch {
		case record.Status.IsTerminalSuccess():
			// Nothing to do; never contact the provider again.
			return &SubmitResult{Status: record.Status, Message: "payout account is already active"}, nil

		case record.Status.IsInFlight():
			// An IN_PROGRESS record with no settlement product is a
			// pipeline that died mid-flight; without the product the
			// provider will never advance it, so pick up where it
			// stopped. Everything else mid-flight is the provider's
			// turn and resubmitting would be pointless.
			if record.Status != domain.KycInProgress || record.ProductID != nil {
				return &SubmitResult{Status: record.Status, Message: "verification is in progress, check back shortly"}, nil
			}
			log.Info().Str("account_id", record.AccountID).Msg("Resuming abandoned activation pipeline")
			resume = true

		case record.Status.IsTerminalFailure():
			// Failed attempts are restarted, never retried in place.
			log.Info().Str("status", string(record.Status)).Msg("Discarding terminally failed linked account")
			if err := s.accounts.Delete(ctx, communityID, domain.KycNotStarted); err != nil {
				return nil, s.internalErr(ctx, err, "discard failed linked account")
			}
			record = nil
		}
	}

	attempt := 1
	if record != nil {
		attempt = record.Attempt + 1
		if resume {
			// Same attempt: the idempotency keys make re-running the
			// steps that already happened safe on the provider side.
			attempt = record.Attempt
		}
	}

	if record == nil {
		record, err = s.createAccount(ctx, communityID, caller, fields, bank, community.KycStatus, attempt)
		if err != nil {
			return nil, err
		}
	} else {
		record.Attempt = attempt
		record.MaskedAccount = bank.Masked()
		record.ErrorReason = ""
		record.MissingFields = nil
		record.RequirementErrors = nil
		record.Status = domain.KycInProgress
		if err := s.persist(ctx, record, community.KycStatus, "submit"); err != nil {
			return nil, err
		}
	}

	// Step 2: stakeholder resolution. List before create so a crash
	// between account and stakeholder creation resumes cleanly.
	if record.StakeholderID == nil {
		result, err := s.resolveStakeholder(ctx, record, caller, fields)
		if result != nil || err != nil {
			return result, err
		}
	}

	// Step 3: settlement product configuration.
	product, result, err := s.configureProduct(ctx, record, bank)
	if result != nil || err != nil {
		return result, err
	}

	// Supporting documents ride along on the same attempt; a locked form
	// is non-fatal here too.
	for i, doc := range docs {
		key := s.idemKey("upload_document", communityID, attempt) + fmt.Sprintf("-%d", i)
		if err := s.provider.UploadDocument(ctx, record.AccountID, "individual_proof_of_identification", doc, key); err != nil {
			if provErr, ok := providerError(err); ok && provErr.Kind == ports.KindLocked {
				log.Info().Msg("Activation form locked, document will be requested on review")
				continue
			}
			return nil, s.translateProviderErr(ctx, err, "upload_document")
		}
	}

	// Step 4 + 5: map provider status and persist atomically.
	status := mapProductStatus(product.ActivationStatus)
	record.Status = status
	record.MissingFields = missingFields(product)
	record.RequirementErrors = requirementErrors(product)
	record.ErrorReason = ""
	record.OnboardingURL = ""
	if status == domain.KycNeedsInfo {
		record.OnboardingURL = product.OnboardingURL
		record.ErrorReason = "the provider needs more information"
	}

	// The record was last persisted as IN_PROGRESS above; that is the
	// transition's starting point regardless of where the community began.
	if err := s.persist(ctx, record, domain.KycInProgress, "submit"); err != nil {
		return nil, err
	}

	result = &SubmitResult{Status: status, OnboardingURL: record.OnboardingURL}
	switch status {
	case domain.KycActivated:
		result.Message = "payout account activated"
	case domain.KycNeedsInfo:
		result.Message = "more information is needed to finish activation"
	default:
		result.Message = "details submitted, verification is in progress"
	}
	log.Info().Str("status", string(status)).Int("attempt", attempt).Msg("Activation attempt completed")
	return result, nil
}

// createAccount creates (or adopts) the provider account and persists the
// first version of the linked account record. prior is the community's
// status before this attempt so the published transition reports where the
// community actually came from.
func (s *Service) createAccount(
	ctx context.Context,
	communityID uuid.UUID,
	caller Caller,
	fields *domain.KycFields,
	bank domain.BankDetails,
	prior domain.KycStatus,
	attempt int,
) (*domain.LinkedAccountRecord, error) {
	log := s.log.With().Str("community_id", communityID.String()).Logger()

	req := ports.AccountRequest{
		Email:       caller.Email,
		Phone:       *fields.Phone,
		LegalName:   caller.Name,
		ContactName: caller.Name,
		Street1:     *fields.Street1,
		City:        *fields.City,
		State:       *fields.State,
		PostalCode:  *fields.PostalCode,
		TaxID:       *fields.TaxID,
	}
	if fields.Street2 != nil {
		req.Street2 = *fields.Street2
	}

	var accountID string
	account, err := s.provider.CreateAccount(ctx, req, s.idemKey("create_account", communityID, attempt))
	switch {
	case err == nil:
		accountID = account.ID

	default:
		provErr, ok := providerError(err)
		if !ok || provErr.Kind != ports.KindConflict || provErr.ExistingAccountID == "" {
			return nil, s.translateProviderErr(ctx, err, "create_account")
		}
		// An account already exists for this identity. Adopt it instead of
		// failing; this is what makes activation safe to retry after any
		// partial completion.
		accountID = provErr.ExistingAccountID
		log.Info().Str("account_id", accountID).Msg("Adopting existing provider account from conflict payload")
	}

	record := &domain.LinkedAccountRecord{
		CommunityID:   communityID,
		AccountID:     accountID,
		Status:        domain.KycInProgress,
		MaskedAccount: bank.Masked(),
		Environment:   s.provider.Environment(),
		Attempt:       attempt,
	}
	if err := s.persist(ctx, record, prior, "submit"); err != nil {
		return nil, err
	}
	return record, nil
}

// resolveStakeholder attaches the owning person to the account. A non-nil
// SubmitResult means the caller must finish on the provider's hosted page.
func (s *Service) resolveStakeholder(
	ctx context.Context,
	record *domain.LinkedAccountRecord,
	caller Caller,
	fields *domain.KycFields,
) (*SubmitResult, error) {
	existing, err := s.provider.ListStakeholders(ctx, record.AccountID)
	if err != nil {
		if result, handled := s.manualSetup(ctx, record, err); handled {
			return result, nil
		}
		return nil, s.translateProviderErr(ctx, err, "list_stakeholders")
	}

	if len(existing) > 0 {
		record.StakeholderID = &existing[0].ID
	} else {
		req := ports.StakeholderRequest{
			Name:        caller.Name,
			Email:       caller.Email,
			Phone:       *fields.Phone,
			TaxID:       *fields.TaxID,
			DateOfBirth: fields.DateOfBirth.Format("2006-01-02"),
		}
		stakeholder, err := s.provider.CreateStakeholder(ctx, record.AccountID, req, s.idemKey("create_stakeholder", record.CommunityID, record.Attempt))
		if err != nil {
			if result, handled := s.manualSetup(ctx, record, err); handled {
				return result, nil
			}
			return nil, s.translateProviderErr(ctx, err, "create_stakeholder")
		}
		record.StakeholderID = &stakeholder.ID
	}

	if err := s.persist(ctx, record, record.Status, "submit"); err != nil {
		return nil, err
	}
	return nil, nil
}

// configureProduct requests the settlement product, applies the bank
// details and re-reads the product to verify they actually persisted.
// A non-nil SubmitResult short-circuits the pipeline (manual setup).
func (s *Service) configureProduct(
	ctx context.Context,
	record *domain.LinkedAccountRecord,
	bank domain.BankDetails,
) (*ports.Product, *SubmitResult, error) {
	log := s.log.With().Str("community_id", record.CommunityID.String()).Logger()

	if record.ProductID == nil {
		product, err := s.provider.RequestProduct(ctx, record.AccountID, s.idemKey("request_product", record.CommunityID, record.Attempt))
		if err != nil {
			if result, handled := s.manualSetup(ctx, record, err); handled {
				return nil, result, nil
			}
			return nil, nil, s.translateProviderErr(ctx, err, "request_product")
		}
		record.ProductID = &product.ID
		if err := s.persist(ctx, record, record.Status, "submit"); err != nil {
			return nil, nil, err
		}
	}

	settlement := ports.SettlementRequest{
		AccountNumber:   bank.AccountNumber,
		RoutingCode:     bank.RoutingCode,
		BeneficiaryName: bank.BeneficiaryName,
	}
	formLocked := false
	_, err := s.provider.UpdateProduct(ctx, record.AccountID, *record.ProductID, settlement, s.idemKey("update_product", record.CommunityID, record.Attempt))
	if err != nil {
		provErr, ok := providerError(err)
		switch {
		case ok && provErr.Kind == ports.KindLocked:
			// Under review: the settlement fields will apply once the
			// provider finishes. Not fatal.
			formLocked = true
			log.Info().Msg("Activation form locked, settlement details deferred to review")

		case ok && provErr.Kind == ports.KindAccessDenied:
			if result, handled := s.manualSetup(ctx, record, err); handled {
				return nil, result, nil
			}
			return nil, nil, s.translateProviderErr(ctx, err, "update_product")

		default:
			return nil, nil, s.translateProviderErr(ctx, err, "update_product")
		}
	}

	// A PATCH acknowledgement is not proof of persistence; re-read and
	// check the fields are really there.
	product, err := s.provider.FetchProduct(ctx, record.AccountID, *record.ProductID)
	if err != nil {
		return nil, nil, s.translateProviderErr(ctx, err, "fetch_product")
	}

	if !formLocked && !settlementApplied(product, bank) {
		log.Warn().Msg("Settlement details missing after patch, asking for remediation")
		product.ActivationStatus = ports.ProviderStatusNeedsClarification
		if !containsField(product.RequirementsDue, "settlements.account_number") {
			product.RequirementsDue = append(product.RequirementsDue, ports.Requirement{
				FieldReference: "settlements.account_number",
				ReasonCode:     "field_missing",
			})
		}
	}

	return product, nil, nil
}

// manualSetup handles the provider denying programmatic account access:
// not a failure, the user finishes on the provider's hosted page.
func (s *Service) manualSetup(ctx context.Context, record *domain.LinkedAccountRecord, err error) (*SubmitResult, bool) {
	provErr, ok := providerError(err)
	if !ok || provErr.Kind != ports.KindAccessDenied {
		return nil, false
	}

	prior := record.Status
	record.Status = domain.KycPending
	// The one PENDING state that carries a reason: the activation card
	// renders it next to the hosted onboarding link.
	record.ErrorReason = "the provider requires manual account setup"
	record.OnboardingURL = s.provider.OnboardingURL(record.AccountID)
	if persistErr := s.persist(ctx, record, prior, "submit"); persistErr != nil {
		s.log.Error().Err(persistErr).Msg("Failed to persist manual-setup state")
	}

	return &SubmitResult{
		Status:        domain.KycPending,
		Message:       "finish setting up your payout account with the provider",
		ManualSetup:   true,
		OnboardingURL: record.OnboardingURL,
	}, true
}

// completeFields loads the caller's field store entry and verifies the
// orchestrator's preconditions before any network call.
func (s *Service) completeFields(ctx context.Context, userID uuid.UUID) (*domain.KycFields, error) {
	fields, err := s.fields.GetByUserID(ctx, userID)
	if err != nil {
		return nil, s.internalErr(ctx, err, "load kyc fields")
	}
	if fields == nil || !fields.HasPhone() {
		return nil, domain.NewValidationError("phone", "phone number is required before activation")
	}
	if !fields.HasAddress() {
		return nil, domain.NewValidationError("street1", "a complete address is required before activation")
	}
	if !fields.HasTaxIdentity() {
		return nil, domain.NewValidationError("tax_id", "tax id and date of birth are required before activation")
	}

	// Stored values are re-checked structurally: the wizard validates on
	// entry, but the orchestrator remains the authoritative contract.
	if err := domain.ValidatePhone(*fields.Phone); err != nil {
		return nil, err
	}
	if err := domain.ValidateAddress(*fields.Street1, *fields.City, *fields.State, *fields.PostalCode); err != nil {
		return nil, err
	}
	if err := domain.ValidateTaxID(*fields.TaxID); err != nil {
		return nil, err
	}
	if err := domain.ValidateDateOfBirth(*fields.DateOfBirth, time.Now()); err != nil {
		return nil, err
	}
	return fields, nil
}

// mustOwn checks that the community exists and the caller owns it.
func (s *Service) mustOwn(ctx context.Context, communityID, callerID uuid.UUID) (*domain.Community, error) {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, s.internalErr(ctx, err, "load community")
	}
	if community == nil {
		return nil, &domain.WorkflowError{Code: domain.ErrCodeNotFound, Message: "community not found"}
	}
	if community.OwnerID != callerID {
		return nil, &domain.WorkflowError{Code: domain.ErrCodeForbidden, Message: "only the community owner can manage payouts"}
	}
	return community, nil
}

// persist writes the record (and the community status, atomically inside
// the repository), publishes the transition and counts the outcome.
func (s *Service) persist(ctx context.Context, record *domain.LinkedAccountRecord, previous domain.KycStatus, reason string) error {
	if err := s.accounts.Upsert(ctx, record); err != nil {
		return s.internalErr(ctx, err, "persist linked account")
	}
	if record.Status != previous {
		s.bus.Publish(ctx, domain.TopicKycStatusChanged, domain.StatusChangedEvent{
			CommunityID: record.CommunityID,
			From:        previous,
			To:          record.Status,
			Reason:      reason,
		})
		if s.metrics != nil {
			s.metrics.ActivationOutcomes.WithLabelValues(string(record.Status)).Inc()
		}
	}
	return nil
}

// idemKey derives the per-operation idempotency token. The attempt suffix
// distinguishes deliberate resubmissions from network-level retries.
func (s *Service) idemKey(op string, communityID uuid.UUID, attempt int) string {
	return fmt.Sprintf("%s-%s-%d", op, communityID, attempt)
}
