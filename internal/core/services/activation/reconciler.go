package activation

import (
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/ports"
	"context"

	"github.com/google/uuid"
)

// Action tells the UI what to render on the activation card.
type Action string

const (
	ActionProceed Action = "proceed" // Collect fields / fix problems / reset
	ActionWait    Action = "wait"    // Verification in flight, offer refresh
	ActionSuccess Action = "success" // Payouts active
)

// StatusCheck is the read-only view the UI builds its action card from.
type StatusCheck struct {
	Action        Action
	Status        domain.KycStatus
	MissingFields []string
	OnboardingURL string
}

// RefreshResult is the reconciler's answer after re-querying the provider.
type RefreshResult struct {
	Status            domain.KycStatus
	MissingFields     []string
	RequirementErrors []domain.RequirementError
	AccountMismatch   bool
}

// ResetResult acknowledges a completed reset.
type ResetResult struct {
	Success bool
	Message string
}

// CheckActivationStatus reads the stored state without contacting the
// provider. Polling the provider is the refresh operation's job.
func (s *Service) CheckActivationStatus(ctx context.Context, communityID, callerID uuid.UUID) (*StatusCheck, error) {
	if _, err := s.mustOwn(ctx, communityID, callerID); err != nil {
		return nil, err
	}

	record, err := s.accounts.GetByCommunityID(ctx, communityID)
	if err != nil {
		return nil, s.internalErr(ctx, err, "load linked account")
	}
	if record == nil {
		return &StatusCheck{Action: ActionProceed, Status: domain.KycNotStarted}, nil
	}

	check := &StatusCheck{
		Status:        record.Status,
		MissingFields: record.MissingFields,
		OnboardingURL: record.OnboardingURL,
	}
	switch {
	case record.Status.IsTerminalSuccess():
		check.Action = ActionSuccess
	case record.Status.IsInFlight():
		check.Action = ActionWait
	default:
		// NEEDS_INFO, REJECTED, FAILED: the user has something to do.
		check.Action = ActionProceed
	}
	return check, nil
}

// RefreshStatus re-queries the provider for the linked account and product
// and resolves any divergence between our state and theirs.
func (s *Service) RefreshStatus(ctx context.Context, communityID, callerID uuid.UUID) (*RefreshResult, error) {
	log := s.log.With().Str("community_id", communityID.String()).Logger()

	community, err := s.mustOwn(ctx, communityID, callerID)
	if err != nil {
		return nil, err
	}

	record, err := s.accounts.GetByCommunityID(ctx, communityID)
	if err != nil {
		return nil, s.internalErr(ctx, err, "load linked account")
	}
	if record == nil {
		return nil, &domain.WorkflowError{Code: domain.ErrCodeNotFound, Message: "activation has not been started for this community"}
	}

	// Environment mismatch check #1: the account was created against a
	// different credential set than the one currently configured.
	if record.Environment != "" && record.Environment != s.provider.Environment() {
		log.Warn().
			Str("record_env", record.Environment).
			Str("current_env", s.provider.Environment()).
			Msg("Linked account belongs to a different provider environment")
		return s.flagMismatch(ctx, record)
	}

	account, err := s.provider.FetchAccount(ctx, record.AccountID)
	if err != nil {
		provErr, ok := providerError(err)
		// Mismatch check #2: the currently configured credentials cannot
		// see the stored account at all.
		if ok && (provErr.Kind == ports.KindNotFound || provErr.Kind == ports.KindAuth) {
			log.Warn().Str("kind", string(provErr.Kind)).Msg("Stored account is invisible to current credentials")
			return s.flagMismatch(ctx, record)
		}
		return nil, s.translateProviderErr(ctx, err, "fetch_account")
	}

	status := mapAccountStatus(account.Status)
	record.MissingFields = nil
	record.RequirementErrors = nil

	if record.ProductID != nil {
		product, err := s.provider.FetchProduct(ctx, record.AccountID, *record.ProductID)
		if err != nil {
			return nil, s.translateProviderErr(ctx, err, "fetch_product")
		}
		// The product is the authoritative view once it exists.
		status = mapProductStatus(product.ActivationStatus)
		record.MissingFields = missingFields(product)
		record.RequirementErrors = requirementErrors(product)
		if status == domain.KycNeedsInfo {
			record.OnboardingURL = product.OnboardingURL
		}
	}

	record.AccountMismatch = false
	record.Status = status
	if status.IsTerminalFailure() {
		record.ErrorReason = "the provider declined the verification"
	} else if status != domain.KycNeedsInfo {
		record.ErrorReason = ""
		record.OnboardingURL = ""
	}

	if err := s.persist(ctx, record, community.KycStatus, "refresh"); err != nil {
		return nil, err
	}

	return &RefreshResult{
		Status:            record.Status,
		MissingFields:     record.MissingFields,
		RequirementErrors: record.RequirementErrors,
	}, nil
}

// flagMismatch persists the distinguishing mismatch flag so the UI offers
// a full reset instead of a routine refresh.
func (s *Service) flagMismatch(ctx context.Context, record *domain.LinkedAccountRecord) (*RefreshResult, error) {
	record.AccountMismatch = true
	record.ErrorReason = "the linked account belongs to a different provider environment"
	if err := s.persist(ctx, record, record.Status, "refresh"); err != nil {
		return nil, err
	}
	return &RefreshResult{
		Status:          record.Status,
		AccountMismatch: true,
	}, nil
}

// ResetActivation deletes the linked account record and the identity
// fields, clearing the path for a fresh orchestrator run. This is the only
// recovery from REJECTED, FAILED and environment-mismatch states.
func (s *Service) ResetActivation(ctx context.Context, communityID, callerID uuid.UUID) (*ResetResult, error) {
	community, err := s.mustOwn(ctx, communityID, callerID)
	if err != nil {
		return nil, err
	}

	record, err := s.accounts.GetByCommunityID(ctx, communityID)
	if err != nil {
		return nil, s.internalErr(ctx, err, "load linked account")
	}
	if record == nil {
		return nil, &domain.WorkflowError{Code: domain.ErrCodeNotFound, Message: "there is nothing to reset"}
	}
	if !record.Status.IsTerminalFailure() && !record.AccountMismatch {
		return nil, &domain.WorkflowError{
			Code:    domain.ErrCodeValidation,
			Message: "reset is only available after a failed or mismatched verification",
		}
	}

	if err := s.accounts.Delete(ctx, communityID, domain.KycNotStarted); err != nil {
		return nil, s.internalErr(ctx, err, "delete linked account")
	}
	if err := s.fields.ClearIdentity(ctx, callerID); err != nil {
		return nil, s.internalErr(ctx, err, "clear identity fields")
	}

	s.bus.Publish(ctx, domain.TopicKycStatusChanged, domain.StatusChangedEvent{
		CommunityID: communityID,
		From:        community.KycStatus,
		To:          domain.KycNotStarted,
		Reason:      "reset",
	})
	s.log.Info().Str("community_id", communityID.String()).Msg("Activation reset completed")

	return &ResetResult{Success: true, Message: "activation has been reset, you can start over"}, nil
}

// CanCreatePaidEvents is the gate the event-creation flow consults.
func (s *Service) CanCreatePaidEvents(ctx context.Context, communityID uuid.UUID) (bool, error) {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return false, s.internalErr(ctx, err, "load community")
	}
	if community == nil {
		return false, nil
	}
	return community.CanCreatePaidEvents(), nil
}
