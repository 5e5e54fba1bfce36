package httpapi

import (
	"SabhaPay/internal/core/domain"
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Step    string `json:"step,omitempty"`
	Message string `json:"message"`
	Ref     string `json:"ref,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorJSON(w http.ResponseWriter, status int, code, message, ref string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message, Ref: ref}})
}

// writeWorkflowError renders a sanitized workflow error. Anything else
// degrades to a generic 500; raw error text never reaches the client.
func writeWorkflowError(w http.ResponseWriter, err error) {
	wfErr, ok := domain.AsWorkflowError(err)
	if !ok {
		writeErrorJSON(w, http.StatusInternalServerError, string(domain.ErrCodeInternal), "something went wrong", "")
		return
	}

	status := http.StatusInternalServerError
	switch wfErr.Code {
	case domain.ErrCodeValidation, domain.ErrCodeFieldError:
		status = http.StatusUnprocessableEntity
	case domain.ErrCodeForbidden:
		status = http.StatusForbidden
	case domain.ErrCodeNotFound:
		status = http.StatusNotFound
	case domain.ErrCodeTransient:
		status = http.StatusServiceUnavailable
	case domain.ErrCodeMismatch:
		status = http.StatusConflict
	}

	step := ""
	if wfErr.Step != "" && wfErr.Step != domain.StepIdle {
		step = string(wfErr.Step)
	}
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    string(wfErr.Code),
		Field:   wfErr.Field,
		Step:    step,
		Message: wfErr.Message,
		Ref:     wfErr.Ref,
	}})
}
