package httpapi

import (
	"SabhaPay/internal/core/domain"
	"SabhaPay/internal/core/services/activation"
	"SabhaPay/internal/core/services/wizard"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ActivationService defines the workflow operations the handlers need.
type ActivationService interface {
	CheckActivationStatus(ctx context.Context, communityID, callerID uuid.UUID) (*activation.StatusCheck, error)
	SubmitActivation(ctx context.Context, communityID uuid.UUID, caller activation.Caller, bank domain.BankDetails, confirmBeneficiary string, docs []domain.Document) (*activation.SubmitResult, error)
	RefreshStatus(ctx context.Context, communityID, callerID uuid.UUID) (*activation.RefreshResult, error)
	ResetActivation(ctx context.Context, communityID, callerID uuid.UUID) (*activation.ResetResult, error)
}

// WizardService defines the collection wizard operations.
type WizardService interface {
	State(ctx context.Context, userID uuid.UUID) (*wizard.State, error)
	SubmitPhone(ctx context.Context, userID uuid.UUID, phone string) error
	SubmitAddress(ctx context.Context, userID uuid.UUID, street1, street2, city, state, postalCode string) error
	SubmitTaxIdentity(ctx context.Context, userID uuid.UUID, taxID string, dateOfBirth time.Time) error
}

// Pinger is what the health endpoint needs from the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler exposes the activation workflow over HTTP.
type Handler struct {
	activation ActivationService
	wizard     WizardService
	db         Pinger
	log        zerolog.Logger
}

// NewHandler creates the API handler.
func NewHandler(activationSvc ActivationService, wizardSvc WizardService, db Pinger, baseLogger *zerolog.Logger) *Handler {
	return &Handler{
		activation: activationSvc,
		wizard:     wizardSvc,
		db:         db,
		log:        baseLogger.With().Str("component", "http_handler").Logger(),
	}
}

// Register mounts all routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(Identity(h.log))

		r.Route("/v1/communities/{communityID}/activation", func(r chi.Router) {
			r.Get("/", h.handleCheckStatus)
			r.Post("/", h.handleSubmit)
			r.Post("/refresh", h.handleRefresh)
			r.Post("/reset", h.handleReset)
		})

		r.Route("/v1/kyc/wizard", func(r chi.Router) {
			r.Get("/", h.handleWizardState)
			r.Post("/{step}", h.handleWizardStep)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Health check failed")
		writeErrorJSON(w, http.StatusServiceUnavailable, "unhealthy", "database unreachable", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func communityID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "communityID"))
	return id, err == nil
}

func (h *Handler) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := communityID(r)
	if !ok {
		writeErrorJSON(w, http.StatusBadRequest, "bad_request", "invalid community id", "")
		return
	}

	check, err := h.activation.CheckActivationStatus(r.Context(), id, CallerID(r.Context()))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"action":         check.Action,
		"status":         check.Status,
		"missing_fields": check.MissingFields,
		"onboarding_url": check.OnboardingURL,
	})
}

type submitPayload struct {
	AccountNumber          string `json:"account_number"`
	RoutingCode            string `json:"routing_code"`
	BeneficiaryName        string `json:"beneficiary_name"`
	ConfirmBeneficiaryName string `json:"confirm_beneficiary_name"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := communityID(r)
	if !ok {
		writeErrorJSON(w, http.StatusBadRequest, "bad_request", "invalid community id", "")
		return
	}

	payload, docs, err := h.decodeSubmit(r)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	caller := activation.Caller{
		ID:    CallerID(r.Context()),
		Email: CallerEmail(r.Context()),
		Name:  CallerName(r.Context()),
	}
	bank := domain.BankDetails{
		AccountNumber:   payload.AccountNumber,
		RoutingCode:     payload.RoutingCode,
		BeneficiaryName: payload.BeneficiaryName,
	}

	result, err := h.activation.SubmitActivation(r.Context(), id, caller, bank, payload.ConfirmBeneficiaryName, docs)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        result.Status == domain.KycActivated,
		"status":         result.Status,
		"message":        result.Message,
		"manual_setup":   result.ManualSetup,
		"onboarding_url": result.OnboardingURL,
	})
}

// decodeSubmit accepts either a plain JSON body or a multipart form with a
// "payload" JSON part plus document files.
func (h *Handler) decodeSubmit(r *http.Request) (*submitPayload, []domain.Document, error) {
	badBody := &domain.WorkflowError{Code: domain.ErrCodeValidation, Message: "invalid request body"}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil, badBody
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		var payload submitPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, nil, badBody
		}
		return &payload, nil, nil
	}

	// Documents ride along as multipart files; cap a little above the
	// per-document limit so oversize uploads fail our validation, not an
	// opaque form parse.
	if err := r.ParseMultipartForm(4 * domain.MaxDocumentSize); err != nil {
		return nil, nil, badBody
	}

	var payload submitPayload
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &payload); err != nil {
		return nil, nil, badBody
	}

	var docs []domain.Document
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["documents"] {
			file, err := header.Open()
			if err != nil {
				return nil, nil, badBody
			}
			data, err := io.ReadAll(io.LimitReader(file, domain.MaxDocumentSize+1))
			file.Close()
			if err != nil {
				return nil, nil, badBody
			}
			docs = append(docs, domain.Document{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}
	return &payload, docs, nil
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id, ok := communityID(r)
	if !ok {
		writeErrorJSON(w, http.StatusBadRequest, "bad_request", "invalid community id", "")
		return
	}

	result, err := h.activation.RefreshStatus(r.Context(), id, CallerID(r.Context()))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":             result.Status,
		"missing_fields":     result.MissingFields,
		"requirement_errors": result.RequirementErrors,
		"account_mismatch":   result.AccountMismatch,
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	id, ok := communityID(r)
	if !ok {
		writeErrorJSON(w, http.StatusBadRequest, "bad_request", "invalid community id", "")
		return
	}

	result, err := h.activation.ResetActivation(r.Context(), id, CallerID(r.Context()))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": result.Success,
		"message": result.Message,
	})
}
