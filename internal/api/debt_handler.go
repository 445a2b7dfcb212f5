package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/api/shared"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/service"
)

// DebtHandler handles karmic-debt HTTP requests
type DebtHandler struct {
	debtService service.DebtService
	validator   *validator.Validate
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(debtService service.DebtService) *DebtHandler {
	return &DebtHandler{
		debtService: debtService,
		validator:   validator.New(),
	}
}

// Create handles POST /api/debts requests
func (h *DebtHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDebtRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	debtorID, err := uuid.Parse(req.DebtorID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid debtor ID")
		return
	}
	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid receiver ID")
		return
	}

	edge, err := h.debtService.Create(
		r.Context(),
		debtorID,
		receiverID,
		domain.Severity(req.Severity),
		req.Amount,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, edge)
}

// Repay handles POST /api/debts/{id}/repay requests
func (h *DebtHandler) Repay(w http.ResponseWriter, r *http.Request) {
	edgeID, ok := edgeIDFromURL(w, r)
	if !ok {
		return
	}

	var req RepayDebtRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	edge, err := h.debtService.Repay(r.Context(), edgeID, req.Amount)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, edge)
}

// Transfer handles POST /api/debts/{id}/transfer requests
func (h *DebtHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	edgeID, ok := edgeIDFromURL(w, r)
	if !ok {
		return
	}

	var req TransferDebtRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	newDebtorID, err := uuid.Parse(req.NewDebtorID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid new debtor ID")
		return
	}

	result, err := h.debtService.Transfer(r.Context(), edgeID, newDebtorID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// edgeIDFromURL parses the {id} URL parameter, writing a 400 response and
// returning false when it is malformed.
func edgeIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid debt edge ID")
		return uuid.Nil, false
	}
	return id, true
}
