package api

import (
	"net/http"

	"github.com/yashikart/gurukul-backend--sub000/internal/api/shared"
	"github.com/yashikart/gurukul-backend--sub000/internal/gate"
)

// HealthHandler reports process liveness and the authority link state
type HealthHandler struct {
	client   gate.AuthorityClient
	safeMode func() bool
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(client gate.AuthorityClient, safeMode func() bool) *HealthHandler {
	return &HealthHandler{
		client:   client,
		safeMode: safeMode,
	}
}

// Health handles GET /health requests. The process itself answering is the
// liveness signal; the authority state is advisory and never fails the
// check, since local reads stay available in SAFE_MODE.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	healthy := h.client.CheckHealth(r.Context()) == nil

	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:           "ok",
		AuthorityHealthy: healthy,
		SafeMode:         h.safeMode(),
	})
}
