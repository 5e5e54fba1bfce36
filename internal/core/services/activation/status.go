package activation

import (
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/ports"
	"strings"
)

// productStatusMap is the fixed translation table from the provider's
// product activation vocabulary to the internal enum.
var productStatusMap = map[string]domain.KycStatus{
	ports.ProviderStatusRequested:          domain.KycNeedsInfo,
	ports.ProviderStatusNeedsClarification: domain.KycNeedsInfo,
	ports.ProviderStatusUnderReview:        domain.KycPending,
	ports.ProviderStatusActivated:          domain.KycActivated,
	ports.ProviderStatusRejected:           domain.KycRejected,
	ports.ProviderStatusSuspended:          domain.KycFailed,
}

// accountStatusMap translates the account-level vocabulary, used by the
// reconciler when no product exists yet.
var accountStatusMap = map[string]domain.KycStatus{
	ports.ProviderStatusCreated:            domain.KycInProgress,
	ports.ProviderStatusActivated:          domain.KycVerified,
	ports.ProviderStatusUnderReview:        domain.KycPending,
	ports.ProviderStatusNeedsClarification: domain.KycNeedsInfo,
	ports.ProviderStatusSuspended:          domain.KycFailed,
	ports.ProviderStatusRejected:           domain.KycRejected,
}

// mapProductStatus normalizes a product activation status. Unknown
// vocabulary lands on PENDING: the provider is doing something we do not
// recognize, so the safe reading is "still in flight".
func mapProductStatus(status string) domain.KycStatus {
	if mapped, ok := productStatusMap[strings.ToLower(status)]; ok {
		return mapped
	}
	return domain.KycPending
}

// mapAccountStatus normalizes an account-level status the same way.
func mapAccountStatus(status string) domain.KycStatus {
	if mapped, ok := accountStatusMap[strings.ToLower(status)]; ok {
		return mapped
	}
	return domain.KycPending
}

// missingFields extracts the provider's "currently due" field references.
func missingFields(product *ports.Product) []string {
	if len(product.RequirementsDue) == 0 {
		return nil
	}
	fields := make([]string, 0, len(product.RequirementsDue))
	for _, req := range product.RequirementsDue {
		fields = append(fields, req.FieldReference)
	}
	return fields
}

// requirementErrors turns the due list into the structured form the UI
// renders per field.
func requirementErrors(product *ports.Product) []domain.RequirementError {
	if len(product.RequirementsDue) == 0 {
		return nil
	}
	reqErrs := make([]domain.RequirementError, 0, len(product.RequirementsDue))
	for _, req := range product.RequirementsDue {
		reason := req.ReasonCode
		if reason == "" {
			reason = req.Description
		}
		reqErrs = append(reqErrs, domain.RequirementError{
			Field:  req.FieldReference,
			Reason: reason,
		})
	}
	return reqErrs
}

// settlementApplied verifies the bank fields actually stuck on the product
// after the patch. Comparison is on the masked suffix plus routing code so
// the full account number never has to be kept around.
func settlementApplied(product *ports.Product, bank domain.BankDetails) bool {
	if product.Settlement == nil {
		return false
	}
	applied := domain.BankDetails{AccountNumber: product.Settlement.AccountNumber}
	return applied.Masked() == bank.Masked() &&
		product.Settlement.RoutingCode == bank.RoutingCode
}

// containsField reports whether the due list already names a field.
func containsField(reqs []ports.Requirement, field string) bool {
	for _, req := range reqs {
		if req.FieldReference == field {
			return true
		}
	}
	return false
}
