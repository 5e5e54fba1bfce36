package ports

import (
	"SabhaPay/internal/core/domain"
	"context"
	"fmt"
)

// Provider status vocabulary. These are the raw strings the provider
// reports; the activation service maps them onto domain.KycStatus.
const (
	ProviderStatusCreated            = "created"
	ProviderStatusRequested          = "requested"
	ProviderStatusNeedsClarification = "needs_clarification"
	ProviderStatusUnderReview        = "under_review"
	ProviderStatusActivated          = "activated"
	ProviderStatusSuspended          = "suspended"
	ProviderStatusRejected           = "rejected"
)

// ErrorKind classifies a provider failure at the adapter boundary.
// String matching against provider text happens only inside the adapter;
// everything above it switches on these kinds.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"    // Provider rejected a named field
	KindConflict     ErrorKind = "conflict"      // Account already exists for this identity
	KindAccessDenied ErrorKind = "access_denied" // Cannot manage the account programmatically
	KindLocked       ErrorKind = "locked"        // Activation form under review, writes frozen
	KindNotFound     ErrorKind = "not_found"
	KindAuth         ErrorKind = "auth"          // Credentials rejected
	KindNetwork      ErrorKind = "network"       // Timeout / connection class, retryable
	KindUnknown      ErrorKind = "unknown"
)

// ProviderError is the structured error contract every provider call
// returns. Description carries the raw provider text for server-side
// logging only; it must never reach a client.
type ProviderError struct {
	Kind              ErrorKind
	Field             string // Offending field for KindValidation, provider vocabulary
	ExistingAccountID string // Set for KindConflict when the payload names the existing account
	Description       string
	HTTPStatus        int
}

func (e *ProviderError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("provider %s error on %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("provider %s error", e.Kind)
}

// Retryable reports whether a client-side retry can succeed without
// changing the submission.
func (e *ProviderError) Retryable() bool {
	return e.Kind == KindNetwork
}

// AccountRequest is the identity payload for account creation.
type AccountRequest struct {
	Email       string
	Phone       string
	LegalName   string
	ContactName string
	Street1     string
	Street2     string
	City        string
	State       string
	PostalCode  string
	TaxID       string
}

// Account is the provider's verification account.
type Account struct {
	ID     string
	Status string
}

// StakeholderRequest is the payload for stakeholder creation.
type StakeholderRequest struct {
	Name        string
	Email       string
	Phone       string
	TaxID       string
	DateOfBirth string // YYYY-MM-DD
}

// Stakeholder is one natural person attached to an account.
type Stakeholder struct {
	ID    string
	Name  string
	Email string
}

// SettlementRequest carries the bank details applied to a product.
type SettlementRequest struct {
	AccountNumber   string
	RoutingCode     string
	BeneficiaryName string
}

// Requirement is one entry from the product's "currently due" list.
type Requirement struct {
	FieldReference string
	ReasonCode     string
	Description    string
}

// Settlement is the provider's view of the applied bank details. The
// provider echoes the account number back in full; only the masked form
// may be persisted or logged on our side.
type Settlement struct {
	AccountNumber   string
	RoutingCode     string
	BeneficiaryName string
}

// Product is the settlement product on an account.
type Product struct {
	ID               string
	ActivationStatus string
	RequirementsDue  []Requirement
	Settlement       *Settlement
	OnboardingURL    string
}

// VerificationProvider is the outbound port to the identity-verification
// and settlement provider. Every write takes an idempotency key so a
// network-level retry of the same attempt is safe.
type VerificationProvider interface {
	// Environment labels the credential set in use (e.g. "test", "live").
	Environment() string

	// OnboardingURL is the provider's hosted remediation page for an
	// account, handed to users when the workflow cannot finish
	// programmatically.
	OnboardingURL(accountID string) string

	CreateAccount(ctx context.Context, req AccountRequest, idemKey string) (*Account, error)
	FetchAccount(ctx context.Context, accountID string) (*Account, error)

	ListStakeholders(ctx context.Context, accountID string) ([]Stakeholder, error)
	CreateStakeholder(ctx context.Context, accountID string, req StakeholderRequest, idemKey string) (*Stakeholder, error)

	RequestProduct(ctx context.Context, accountID string, idemKey string) (*Product, error)
	FetchProduct(ctx context.Context, accountID, productID string) (*Product, error)
	UpdateProduct(ctx context.Context, accountID, productID string, settlement SettlementRequest, idemKey string) (*Product, error)

	UploadDocument(ctx context.Context, accountID, docType string, doc domain.Document, idemKey string) error
}
