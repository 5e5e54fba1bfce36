package domain

// Step is a custom type for the collection wizard's state machine ENUM.
// The wizard is driven purely by these values, never by per-dialog flags.
type Step string

const (
	StepIdle      Step = "idle"
	StepPhone     Step = "phone"
	StepAddress   Step = "address"
	StepTaxID     Step = "tax_id"
	StepDocuments Step = "documents"
	StepBank      Step = "bank"
)

// WizardOrder is the strict collection order for an initial fill.
// Documents are optional and can be skipped.
var WizardOrder = []Step{StepPhone, StepAddress, StepTaxID, StepDocuments, StepBank}

// fieldSteps maps every field name the workflow or the provider can report
// onto the wizard step that owns it. This is the single table used both for
// local validation errors and for provider-reported field errors.
var fieldSteps = map[string]Step{
	"phone": StepPhone,

	"street1":     StepAddress,
	"street2":     StepAddress,
	"city":        StepAddress,
	"state":       StepAddress,
	"postal_code": StepAddress,

	"tax_id":         StepTaxID,
	"pan":            StepTaxID,
	"legal_info.pan": StepTaxID,
	"date_of_birth":  StepTaxID,
	"dob":            StepTaxID,

	"document":     StepDocuments,
	"kyc.document": StepDocuments,

	"account_number":               StepBank,
	"ifsc_code":                    StepBank,
	"routing_code":                 StepBank,
	"beneficiary_name":             StepBank,
	"settlements.account_number":   StepBank,
	"settlements.ifsc_code":        StepBank,
	"settlements.beneficiary_name": StepBank,
}

// StepForField resolves a field name to its owning wizard step. Unknown
// fields return false; callers restart from step one in that case.
func StepForField(field string) (Step, bool) {
	step, ok := fieldSteps[field]
	return step, ok
}
