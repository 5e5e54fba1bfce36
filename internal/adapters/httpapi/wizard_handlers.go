package httpapi

import (
	"SabhaPay/internal/core/domain"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// The wizard endpoints cover the stored steps (phone, address, tax
// identity). Documents and bank details are per-attempt and go through
// the activation submit endpoint instead; storing them here would violate
// the no-persisted-bank-details rule.

type phonePayload struct {
	Phone string `json:"phone"`
}

type addressPayload struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

type taxIdentityPayload struct {
	TaxID       string `json:"tax_id"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
}

func (h *Handler) handleWizardState(w http.ResponseWriter, r *http.Request) {
	state, err := h.wizard.State(r.Context(), CallerID(r.Context()))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handleWizardStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := CallerID(ctx)

	var err error
	switch domain.Step(chi.URLParam(r, "step")) {
	case domain.StepPhone:
		var payload phonePayload
		if decodeErr := json.NewDecoder(r.Body).Decode(&payload); decodeErr != nil {
			writeErrorJSON(w, http.StatusBadRequest, "bad_request", "invalid request body", "")
			return
		}
		err = h.wizard.SubmitPhone(ctx, userID, payload.Phone)

	case domain.StepAddress:
		var payload addressPayload
		if decodeErr := json.NewDecoder(r.Body).Decode(&payload); decodeErr != nil {
			writeErrorJSON(w, http.StatusBadRequest, "bad_request", "invalid request body", "")
			return
		}
		err = h.wizard.SubmitAddress(ctx, userID, payload.Street1, payload.Street2, payload.City, payload.State, payload.PostalCode)

	case domain.StepTaxID:
		var payload taxIdentityPayload
		if decodeErr := json.NewDecoder(r.Body).Decode(&payload); decodeErr != nil {
			writeErrorJSON(w, http.StatusBadRequest, "bad_request", "invalid request body", "")
			return
		}
		dob, parseErr := time.Parse("2006-01-02", payload.DateOfBirth)
		if parseErr != nil {
			writeWorkflowError(w, domain.NewValidationError("date_of_birth", "date of birth must be YYYY-MM-DD"))
			return
		}
		err = h.wizard.SubmitTaxIdentity(ctx, userID, payload.TaxID, dob)

	default:
		writeErrorJSON(w, http.StatusNotFound, "not_found", "unknown wizard step", "")
		return
	}

	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	// Hand back the refreshed state so the client knows where to go next.
	state, err := h.wizard.State(ctx, userID)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
