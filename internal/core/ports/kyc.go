package ports

import (
	"SabhaPay/internal/core/domain"
	"context"

	"github.com/google/uuid"
)

// LinkedAccountRepository defines persistence for the external account
// mirror. Upsert and Delete also write the community's kyc_status in the
// same transaction; a record and its community status must never diverge.
type LinkedAccountRepository interface {
	// GetByCommunityID finds the record for a community, or nil when the
	// community has never started activation.
	GetByCommunityID(ctx context.Context, communityID uuid.UUID) (*domain.LinkedAccountRecord, error)

	// Upsert writes the record keyed on community id and updates the
	// community's kyc_status to record.Status atomically.
	Upsert(ctx context.Context, record *domain.LinkedAccountRecord) error

	// Delete removes the record and resets the community's kyc_status to
	// the given status (normally NOT_STARTED) atomically.
	Delete(ctx context.Context, communityID uuid.UUID, resetTo domain.KycStatus) error
}

// KycFieldRepository defines persistence for the per-user identity fields
// collected by the wizard. Callers enforce that a user only touches their
// own row.
type KycFieldRepository interface {
	// GetByUserID finds the field set for a user, or nil when the user has
	// not completed any wizard step yet.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.KycFields, error)

	// Upsert writes the field set keyed on user id. Nil fields in the
	// incoming struct leave the stored values untouched.
	Upsert(ctx context.Context, fields *domain.KycFields) error

	// ClearIdentity removes the tax id and date of birth for a user,
	// keeping phone and address. Used by the activation reset.
	ClearIdentity(ctx context.Context, userID uuid.UUID) error
}
