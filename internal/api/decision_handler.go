package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/api/shared"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/platform/logger"
)

// DecisionResolver accepts an asynchronous authorization decision for a
// pending signal.
type DecisionResolver interface {
	Resolve(decision *domain.AuthorizationDecision) error
}

// DecisionHandler handles the asynchronous decision callbacks posted by
// the authority
type DecisionHandler struct {
	resolver  DecisionResolver
	validator *validator.Validate
}

// NewDecisionHandler creates a new DecisionHandler
func NewDecisionHandler(resolver DecisionResolver) *DecisionHandler {
	return &DecisionHandler{
		resolver:  resolver,
		validator: validator.New(),
	}
}

// Resolve handles POST /api/authority/decisions requests
func (h *DecisionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req DecisionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	nonce, err := uuid.Parse(req.Nonce)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid nonce")
		return
	}

	decidedAt := req.DecidedAt
	if decidedAt.IsZero() {
		decidedAt = time.Now().UTC()
	}

	err = h.resolver.Resolve(&domain.AuthorizationDecision{
		Outcome:      domain.DecisionOutcome(req.Outcome),
		Nonce:        nonce,
		OpaqueReason: req.OpaqueReason,
		DecidedAt:    decidedAt,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("decision accepted", "nonce", nonce, "outcome", req.Outcome)
	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
}
