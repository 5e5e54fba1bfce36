package domain

import (
	"time"

	"github.com/google/uuid"
)

// Community represents a community that can host events. The KYC status is
// the single source of truth for whether the community may sell paid tickets.
type Community struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	KycStatus KycStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanCreatePaidEvents reports whether paid-event creation is unlocked.
// Only a fully activated payout account unlocks it.
func (c *Community) CanCreatePaidEvents() bool {
	return c.KycStatus == KycActivated
}
