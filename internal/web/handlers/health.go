package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/kozaktomas/face-enroll/internal/database"
)

// HealthHandler reports API and identity store status.
type HealthHandler struct {
	store database.IdentityReader // nil when no store is configured
	now   func() time.Time
}

// NewHealthHandler creates a new health handler. store may be nil.
func NewHealthHandler(store database.IdentityReader) *HealthHandler {
	return &HealthHandler{store: store, now: time.Now}
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	DatabaseStatus string `json:"database_status"`
	Timestamp      string `json:"timestamp"`
}

// Health handles GET /api/health. It always answers 200 while the process serves requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "not configured"
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		status = "connected"
		if err := h.store.Ping(ctx); err != nil {
			status = "disconnected"
		}
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Success:        true,
		Message:        "API is running",
		DatabaseStatus: status,
		Timestamp:      h.now().Format(time.RFC3339),
	})
}
