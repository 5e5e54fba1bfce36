package domain

import (
	"time"

	"github.com/google/uuid"
)

// KycFields holds the identity data collected by the wizard, one row per
// user, independent of any specific activation attempt. Phone and tax id
// are encrypted at rest by the repository.
type KycFields struct {
	UserID      uuid.UUID
	Phone       *string // Encrypted
	Street1     *string
	Street2     *string
	City        *string
	State       *string
	PostalCode  *string
	TaxID       *string // Encrypted
	DateOfBirth *time.Time
	UpdatedAt   time.Time
}

// HasPhone reports whether the phone step has been completed.
func (f *KycFields) HasPhone() bool {
	return f.Phone != nil && *f.Phone != ""
}

// HasAddress reports whether all required address fields are present.
// Street2 is optional.
func (f *KycFields) HasAddress() bool {
	return f.Street1 != nil && *f.Street1 != "" &&
		f.City != nil && *f.City != "" &&
		f.State != nil && *f.State != "" &&
		f.PostalCode != nil && *f.PostalCode != ""
}

// HasTaxIdentity reports whether the tax id + date of birth step is done.
func (f *KycFields) HasTaxIdentity() bool {
	return f.TaxID != nil && *f.TaxID != "" && f.DateOfBirth != nil
}

// Complete reports whether the orchestrator has everything it needs
// (documents and bank details are per-attempt, not stored here).
func (f *KycFields) Complete() bool {
	return f.HasPhone() && f.HasAddress() && f.HasTaxIdentity()
}

// BankDetails is collected for a single activation attempt and held in
// memory only. It is forwarded to the provider and then discarded; the
// platform keeps nothing but the masked identifier.
type BankDetails struct {
	AccountNumber   string
	RoutingCode     string
	BeneficiaryName string
}

// Masked returns the last 4 digits of the account number, the only form
// that is ever persisted or logged.
func (b BankDetails) Masked() string {
	if len(b.AccountNumber) <= 4 {
		return b.AccountNumber
	}
	return b.AccountNumber[len(b.AccountNumber)-4:]
}

// Document is one supporting document uploaded alongside an activation
// attempt and forwarded to the provider.
type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}

const (
	// MaxDocumentSize is the provider's upload cap.
	MaxDocumentSize = 2 << 20
)

// AllowedDocumentTypes is the provider's MIME allow-list for uploads.
var AllowedDocumentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}
