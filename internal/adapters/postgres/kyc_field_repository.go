package postgres

import (
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/ports"
	"context"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var _ ports.KycFieldRepository = (*kycFieldRepository)(nil) // Ensure compliance

type kycFieldRepository struct {
	db     *DB
	secSvc ports.SecurityPort // Phone and tax id are encrypted at rest
	log    zerolog.Logger
}

// NewKycFieldRepository creates a new repository for the per-user identity
// field store.
func NewKycFieldRepository(db *DB, secSvc ports.SecurityPort, baseLogger *zerolog.Logger) ports.KycFieldRepository {
	return &kycFieldRepository{
		db:     db,
		secSvc: secSvc,
		log:    baseLogger.With().Str("component", "kyc_field_repo").Logger(),
	}
}

// encryptField encrypts an optional value and base64-encodes it for the
// text column. Nil passes through as nil.
func (r *kycFieldRepository) encryptField(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	encBytes, err := r.secSvc.Encrypt([]byte(*value))
	if err != nil {
		return nil, err
	}
	encStr := base64.StdEncoding.EncodeToString(encBytes)
	return &encStr, nil
}

// decryptField is the inverse of encryptField.
func (r *kycFieldRepository) decryptField(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	decBytes, err := base64.StdEncoding.DecodeString(*value)
	if err != nil {
		return nil, err
	}
	dec, err := r.secSvc.Decrypt(decBytes)
	if err != nil {
		return nil, err
	}
	decStr := string(dec)
	return &decStr, nil
}

// Upsert writes the field set keyed on user id. COALESCE keeps existing
// values when the incoming struct leaves a field nil, which is how one
// wizard step persists without clobbering the others.
func (r *kycFieldRepository) Upsert(ctx context.Context, fields *domain.KycFields) error {
	encPhone, err := r.encryptField(fields.Phone)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encrypt phone")
		return err
	}
	encTaxID, err := r.encryptField(fields.TaxID)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encrypt tax id")
		return err
	}

	query := `
		INSERT INTO kyc_fields (
			user_id, phone, street1, street2, city, state, postal_code,
			tax_id, date_of_birth, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (user_id) DO UPDATE SET
			phone = COALESCE(EXCLUDED.phone, kyc_fields.phone),
			street1 = COALESCE(EXCLUDED.street1, kyc_fields.street1),
			street2 = COALESCE(EXCLUDED.street2, kyc_fields.street2),
			city = COALESCE(EXCLUDED.city, kyc_fields.city),
			state = COALESCE(EXCLUDED.state, kyc_fields.state),
			postal_code = COALESCE(EXCLUDED.postal_code, kyc_fields.postal_code),
			tax_id = COALESCE(EXCLUDED.tax_id, kyc_fields.tax_id),
			date_of_birth = COALESCE(EXCLUDED.date_of_birth, kyc_fields.date_of_birth),
			updated_at = now()
	`
	_, err = r.db.pool.Exec(ctx, query,
		fields.UserID,
		encPhone,
		fields.Street1,
		fields.Street2,
		fields.City,
		fields.State,
		fields.PostalCode,
		encTaxID,
		fields.DateOfBirth,
	)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", fields.UserID.String()).Msg("Failed to upsert kyc fields")
	}
	return err
}

// GetByUserID finds the field set for a user, or nil when the user has not
// completed any step yet.
func (r *kycFieldRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.KycFields, error) {
	query := `
		SELECT user_id, phone, street1, street2, city, state, postal_code,
			   tax_id, date_of_birth, updated_at
		FROM kyc_fields
		WHERE user_id = $1
	`
	var f domain.KycFields
	var encPhone, encTaxID *string

	err := r.db.pool.QueryRow(ctx, query, userID).Scan(
		&f.UserID,
		&encPhone,
		&f.Street1,
		&f.Street2,
		&f.City,
		&f.State,
		&f.PostalCode,
		&encTaxID,
		&f.DateOfBirth,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to scan kyc fields row")
		return nil, err
	}

	if f.Phone, err = r.decryptField(encPhone); err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to decrypt phone (tampered?)")
		return nil, err
	}
	if f.TaxID, err = r.decryptField(encTaxID); err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to decrypt tax id (tampered?)")
		return nil, err
	}
	return &f, nil
}

// ClearIdentity removes the tax id and date of birth for a user, keeping
// phone and address. Called by the activation reset.
func (r *kycFieldRepository) ClearIdentity(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE kyc_fields
		SET tax_id = NULL, date_of_birth = NULL, updated_at = now()
		WHERE user_id = $1
	`
	_, err := r.db.pool.Exec(ctx, query, userID)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to clear identity fields")
	}
	return err
}
