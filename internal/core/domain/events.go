package domain

import "github.com/google/uuid"

// TopicKycStatusChanged is published whenever the orchestrator or the
// reconciler moves a community to a different KYC status.
const TopicKycStatusChanged = "kyc.status_changed"

// StatusChangedEvent is the payload for TopicKycStatusChanged.
type StatusChangedEvent struct {
	CommunityID uuid.UUID
	From        KycStatus
	To          KycStatus
	Reason      string // e.g. "submit", "refresh", "reset"
}
