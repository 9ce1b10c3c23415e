package handlers

import (
	"context"
	"net/http"

	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/catalog"
	"github.com/NSYSU-OpenDev/NSYSUSelectorHelperAI/utils"
)

// HealthChecker verifies a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db    HealthChecker
	store *catalog.Store
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db HealthChecker, store *catalog.Store) *HealthHandler {
	return &HealthHandler{db: db, store: store}
}

// HandleHealthz handles GET /healthz (liveness)
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReadyz handles GET /readyz (readiness). The service is ready once the
// database answers and a catalog snapshot is loaded.
func (h *HealthHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		_ = utils.WriteServiceUnavailable(w, "database unavailable")
		return
	}

	snap := h.store.Snapshot()
	if snap == nil || len(snap.Courses) == 0 {
		_ = utils.WriteServiceUnavailable(w, "catalog not loaded")
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ready",
		"courses": len(snap.Courses),
	})
}
