package postgres

import (
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/ports"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var _ ports.CommunityRepository = (*communityRepository)(nil) // Ensure compliance

type communityRepository struct {
	db  *DB
	log zerolog.Logger
}

// NewCommunityRepository creates a new repository for community operations.
func NewCommunityRepository(db *DB, baseLogger *zerolog.Logger) ports.CommunityRepository {
	return &communityRepository{
		db:  db,
		log: baseLogger.With().Str("component", "community_repo").Logger(),
	}
}

// Create saves a new community. New communities always start with
// kyc_status NOT_STARTED regardless of the struct value.
func (r *communityRepository) Create(ctx context.Context, community *domain.Community) error {
	query := `
		INSERT INTO communities (id, owner_id, name, kyc_status)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.pool.Exec(ctx, query,
		community.ID,
		community.OwnerID,
		community.Name,
		domain.KycNotStarted,
	)
	if err != nil {
		r.log.Error().Err(err).Str("community_id", community.ID.String()).Msg("Failed to insert new community")
	}
	return err
}

// GetByID finds a community by id, returning nil when it does not exist.
func (r *communityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Community, error) {
	query := `
		SELECT id, owner_id, name, kyc_status, created_at, updated_at
		FROM communities
		WHERE id = $1
	`
	var c domain.Community
	err := r.db.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.KycStatus,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("community_id", id.String()).Msg("Failed to scan community row")
		return nil, err
	}
	return &c, nil
}
