package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yashikart/gurukul-backend--sub000/internal/api/shared"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain/reward"
	"github.com/yashikart/gurukul-backend--sub000/internal/platform/logger"
	"github.com/yashikart/gurukul-backend--sub000/internal/service"
)

// KarmaHandler handles karma evaluation HTTP requests
type KarmaHandler struct {
	karmaService service.KarmaService
	validator    *validator.Validate
}

// NewKarmaHandler creates a new KarmaHandler
func NewKarmaHandler(karmaService service.KarmaService) *KarmaHandler {
	return &KarmaHandler{
		karmaService: karmaService,
		validator:    validator.New(),
	}
}

// Evaluate handles POST /api/karma/evaluate requests
func (h *KarmaHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req EvaluateKarmaRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid subject ID")
		return
	}

	result, err := h.karmaService.Evaluate(r.Context(), service.EvaluateRequest{
		SubjectID: subjectID,
		Action:    reward.Action(req.Action),
		Intensity: req.Intensity,
		Context:   domain.SignalContext(req.Context),
		History:   historyToRecords(req.History),
	})
	if err != nil {
		status := MapErrorToStatusCode(err)
		shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("evaluation served",
		"subject_id", subjectID,
		"applied", result.Applied,
		"outcome", result.Outcome)
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
