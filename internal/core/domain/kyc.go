package domain

import (
	"time"

	"github.com/google/uuid"
)

// KycStatus is a custom type for our ENUM. Written only by the activation
// orchestrator and the status reconciler; everything else just reads it.
type KycStatus string

const (
	KycNotStarted KycStatus = "NOT_STARTED"
	KycInProgress KycStatus = "IN_PROGRESS"
	KycPending    KycStatus = "PENDING"
	KycVerified   KycStatus = "VERIFIED"
	KycActivated  KycStatus = "ACTIVATED"
	KycNeedsInfo  KycStatus = "NEEDS_INFO"
	KycRejected   KycStatus = "REJECTED"
	KycFailed     KycStatus = "FAILED"
)

// IsTerminalSuccess reports whether the provider is done and happy.
func (s KycStatus) IsTerminalSuccess() bool {
	return s == KycActivated
}

// IsTerminalFailure reports whether the only way forward is a full reset.
func (s KycStatus) IsTerminalFailure() bool {
	return s == KycRejected || s == KycFailed
}

// IsInFlight reports whether the provider is still working on the account
// and a resubmission would be pointless.
func (s KycStatus) IsInFlight() bool {
	return s == KycInProgress || s == KycPending || s == KycVerified
}

// RequirementError is one structured entry from the provider's
// "currently due" list, already mapped onto our field vocabulary.
type RequirementError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// LinkedAccountRecord mirrors the external verification account for one
// community. At most one record exists per community; it is upserted on
// every activation attempt and deleted only by an explicit reset.
type LinkedAccountRecord struct {
	CommunityID       uuid.UUID
	AccountID         string
	StakeholderID     *string // Nullable until stakeholder step completes
	ProductID         *string // Nullable until product step completes
	Status            KycStatus
	MaskedAccount     string // Last 4 digits only, never the full number
	ErrorReason       string
	OnboardingURL     string
	Environment       string // Provider environment the account was created in
	Attempt           int
	MissingFields     []string
	RequirementErrors []RequirementError
	AccountMismatch   bool
	LastUpdated       time.Time
}
