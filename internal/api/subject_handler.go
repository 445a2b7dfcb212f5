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

// SubjectHandler handles subject genesis, lookup and lifecycle requests
type SubjectHandler struct {
	subjectService   service.SubjectService
	lifecycleService service.LifecycleService
	networkService   service.NetworkService
	validator        *validator.Validate
}

// NewSubjectHandler creates a new SubjectHandler
func NewSubjectHandler(
	subjectService service.SubjectService,
	lifecycleService service.LifecycleService,
	networkService service.NetworkService,
) *SubjectHandler {
	return &SubjectHandler{
		subjectService:   subjectService,
		lifecycleService: lifecycleService,
		networkService:   networkService,
		validator:        validator.New(),
	}
}

// Create handles POST /api/subjects requests
func (h *SubjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSubjectRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	profile, err := h.subjectService.Create(r.Context(), domain.Role(req.Role))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, profile)
}

// Get handles GET /api/subjects/{id} requests
func (h *SubjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDFromURL(w, r)
	if !ok {
		return
	}

	profile, err := h.subjectService.Get(r.Context(), subjectID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, profile)
}

// DeathCheck handles GET /api/subjects/{id}/death-check requests
func (h *SubjectHandler) DeathCheck(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDFromURL(w, r)
	if !ok {
		return
	}

	check, err := h.lifecycleService.CheckDeathThreshold(r.Context(), subjectID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, check)
}

// ProcessDeath handles POST /api/subjects/{id}/death requests
func (h *SubjectHandler) ProcessDeath(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDFromURL(w, r)
	if !ok {
		return
	}

	record, err := h.lifecycleService.ProcessDeath(r.Context(), subjectID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, record)
}

// Rebirth handles POST /api/subjects/{id}/rebirth requests
func (h *SubjectHandler) Rebirth(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDFromURL(w, r)
	if !ok {
		return
	}

	result, err := h.lifecycleService.Rebirth(r.Context(), subjectID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// Network handles GET /api/subjects/{id}/network requests
func (h *SubjectHandler) Network(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDFromURL(w, r)
	if !ok {
		return
	}

	view, err := h.networkService.NetworkSummary(r.Context(), subjectID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// subjectIDFromURL parses the {id} URL parameter, writing a 400 response
// and returning false when it is malformed.
func subjectIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid subject ID")
		return uuid.Nil, false
	}
	return id, true
}
