package domain

import (
	"regexp"
	"time"
)

// Validation patterns. These are the authoritative contracts the
// orchestrator relies on; the UI enforces the same rules for fast feedback.
var (
	phoneRegex       = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	postalCodeRegex  = regexp.MustCompile(`^[0-9]{6}$`)
	taxIDRegex       = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	accountNumRegex  = regexp.MustCompile(`^[0-9]{9,18}$`)
	routingCodeRegex = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	beneficiaryRegex = regexp.MustCompile(`^[A-Za-z ]+$`)
)

const (
	minBeneficiaryLen = 4
	maxBeneficiaryLen = 120
	minAgeYears       = 18
)

// ValidatePhone checks the 10-digit national subscriber number.
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return NewValidationError("phone", "enter a valid 10-digit mobile number")
	}
	return nil
}

// ValidateAddress checks the required address fields. street2 is optional.
func ValidateAddress(street1, city, state, postalCode string) error {
	if street1 == "" {
		return NewValidationError("street1", "street address is required")
	}
	if city == "" {
		return NewValidationError("city", "city is required")
	}
	if state == "" {
		return NewValidationError("state", "state is required")
	}
	if !postalCodeRegex.MatchString(postalCode) {
		return NewValidationError("postal_code", "enter a valid 6-digit postal code")
	}
	return nil
}

// ValidateTaxID checks the PAN-style alphanumeric pattern.
func ValidateTaxID(taxID string) error {
	if !taxIDRegex.MatchString(taxID) {
		return NewValidationError("tax_id", "enter a valid tax id (format: AAAAA9999A)")
	}
	return nil
}

// ValidateDateOfBirth enforces the legal minimum age.
func ValidateDateOfBirth(dob time.Time, now time.Time) error {
	cutoff := now.AddDate(-minAgeYears, 0, 0)
	if dob.After(cutoff) {
		return NewValidationError("date_of_birth", "you must be at least 18 years old")
	}
	return nil
}

// ValidateBankDetails checks the settlement fields before any network call.
// confirmName is the second beneficiary-name entry and must match exactly.
func ValidateBankDetails(bank BankDetails, confirmName string) error {
	if !accountNumRegex.MatchString(bank.AccountNumber) {
		return NewValidationError("account_number", "account number must be 9 to 18 digits")
	}
	if !routingCodeRegex.MatchString(bank.RoutingCode) {
		return NewValidationError("routing_code", "enter a valid routing code (format: AAAA0XXXXXX)")
	}
	name := bank.BeneficiaryName
	if len(name) < minBeneficiaryLen || len(name) > maxBeneficiaryLen || !beneficiaryRegex.MatchString(name) {
		return NewValidationError("beneficiary_name", "beneficiary name must be 4-120 letters and spaces")
	}
	if confirmName != name {
		return NewValidationError("beneficiary_name", "beneficiary name confirmation does not match")
	}
	return nil
}

// ValidateDocument checks one supporting document against the provider's
// upload constraints.
func ValidateDocument(doc Document) error {
	if len(doc.Data) == 0 {
		return NewValidationError("document", "document is empty")
	}
	if len(doc.Data) > MaxDocumentSize {
		return NewValidationError("document", "document exceeds the 2MB limit")
	}
	if !AllowedDocumentTypes[doc.ContentType] {
		return NewValidationError("document", "document must be a JPEG, PNG or PDF")
	}
	return nil
}
