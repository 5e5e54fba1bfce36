package postgres

import (
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/ports"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var _ ports.LinkedAccountRepository = (*linkedAccountRepository)(nil) // Ensure compliance

type linkedAccountRepository struct {
	db  *DB
	log zerolog.Logger
}

// NewLinkedAccountRepository creates a new repository for the external
// account mirror.
func NewLinkedAccountRepository(db *DB, baseLogger *zerolog.Logger) ports.LinkedAccountRepository {
	return &linkedAccountRepository{
		db:  db,
		log: baseLogger.With().Str("component", "linked_account_repo").Logger(),
	}
}

// Upsert writes the record keyed on community id and moves the community's
// kyc_status in the same transaction. The ON CONFLICT clause is what makes
// two racing activation attempts collapse onto a single row.
func (r *linkedAccountRepository) Upsert(ctx context.Context, record *domain.LinkedAccountRecord) error {
	reqErrs, err := json.Marshal(record.RequirementErrors)
	if err != nil {
		return fmt.Errorf("could not marshal requirement errors: %w", err)
	}

	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to begin upsert transaction")
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO linked_accounts (
			community_id, account_id, stakeholder_id, product_id, status,
			masked_account, error_reason, onboarding_url, environment,
			attempt, missing_fields, requirement_errors, account_mismatch,
			last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (community_id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			stakeholder_id = EXCLUDED.stakeholder_id,
			product_id = EXCLUDED.product_id,
			status = EXCLUDED.status,
			masked_account = EXCLUDED.masked_account,
			error_reason = EXCLUDED.error_reason,
			onboarding_url = EXCLUDED.onboarding_url,
			environment = EXCLUDED.environment,
			attempt = EXCLUDED.attempt,
			missing_fields = EXCLUDED.missing_fields,
			requirement_errors = EXCLUDED.requirement_errors,
			account_mismatch = EXCLUDED.account_mismatch,
			last_updated = now()
	`
	_, err = tx.Exec(ctx, query,
		record.CommunityID,
		record.AccountID,
		record.StakeholderID,
		record.ProductID,
		record.Status,
		record.MaskedAccount,
		record.ErrorReason,
		record.OnboardingURL,
		record.Environment,
		record.Attempt,
		record.MissingFields,
		reqErrs,
		record.AccountMismatch,
	)
	if err != nil {
		r.log.Error().Err(err).Str("community_id", record.CommunityID.String()).Msg("Failed to upsert linked account")
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE communities SET kyc_status = $1, updated_at = now() WHERE id = $2`,
		record.Status, record.CommunityID,
	)
	if err != nil {
		r.log.Error().Err(err).Str("community_id", record.CommunityID.String()).Msg("Failed to update community kyc_status")
		return err
	}

	return tx.Commit(ctx)
}

// Delete removes the record and resets the community's kyc_status in the
// same transaction.
func (r *linkedAccountRepository) Delete(ctx context.Context, communityID uuid.UUID, resetTo domain.KycStatus) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to begin delete transaction")
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM linked_accounts WHERE community_id = $1`, communityID); err != nil {
		r.log.Error().Err(err).Str("community_id", communityID.String()).Msg("Failed to delete linked account")
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE communities SET kyc_status = $1, updated_at = now() WHERE id = $2`,
		resetTo, communityID,
	); err != nil {
		r.log.Error().Err(err).Str("community_id", communityID.String()).Msg("Failed to reset community kyc_status")
		return err
	}

	return tx.Commit(ctx)
}

// GetByCommunityID finds the record for a community, or nil when none exists.
func (r *linkedAccountRepository) GetByCommunityID(ctx context.Context, communityID uuid.UUID) (*domain.LinkedAccountRecord, error) {
	query := `
		SELECT community_id, account_id, stakeholder_id, product_id, status,
			   masked_account, error_reason, onboarding_url, environment,
			   attempt, missing_fields, requirement_errors, account_mismatch,
			   last_updated
		FROM linked_accounts
		WHERE community_id = $1
	`
	var rec domain.LinkedAccountRecord
	var reqErrs []byte

	err := r.db.pool.QueryRow(ctx, query, communityID).Scan(
		&rec.CommunityID,
		&rec.AccountID,
		&rec.StakeholderID,
		&rec.ProductID,
		&rec.Status,
		&rec.MaskedAccount,
		&rec.ErrorReason,
		&rec.OnboardingURL,
		&rec.Environment,
		&rec.Attempt,
		&rec.MissingFields,
		&reqErrs,
		&rec.AccountMismatch,
		&rec.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("community_id", communityID.String()).Msg("Failed to scan linked account row")
		return nil, err
	}

	if len(reqErrs) > 0 {
		if err := json.Unmarshal(reqErrs, &rec.RequirementErrors); err != nil {
			r.log.Error().Err(err).Str("community_id", communityID.String()).Msg("Failed to decode requirement errors")
			return nil, err
		}
	}
	return &rec, nil
}
