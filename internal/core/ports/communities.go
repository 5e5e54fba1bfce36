package ports

import (
	"SabhaPay/internal/core/domain"
	"context"

	"github.com/google/uuid"
)

// CommunityRepository defines persistence for communities. The KYC status
// column is only ever written through the linked-account upsert/delete so
// the two always move together.
type CommunityRepository interface {
	// GetByID finds a community, or returns nil when it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Community, error)

	// Create saves a new community.
	Create(ctx context.Context, community *domain.Community) error
}
