package health

import (
	"context"
	"net/http"
	"time"

	"github.com/Lelo88/inventory-api-golang/internal/httpx"
)

// Pinger es lo que necesita /ready de cada dependencia.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler encapsula endpoints de health.
type Handler struct {
	store  Pinger
	drafts Pinger
}

// New crea un handler de health. drafts puede ser nil (sin store de borradores).
func New(store Pinger, drafts Pinger) *Handler {
	return &Handler{store: store, drafts: drafts}
}

// Health indica si el proceso está vivo.
// NO chequea dependencias; eso es /ready.
func (handler *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready verifica que el store de items (y el de borradores, si hay) respondan.
func (handler *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if handler.store == nil {
		httpx.Fail(w, r, http.StatusServiceUnavailable, "not_ready", "item store not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := handler.store.Ping(ctx); err != nil {
		httpx.Fail(w, r, http.StatusServiceUnavailable, "not_ready", "item store is not reachable")
		return
	}

	checks := map[string]string{"store": "ok", "drafts": "skipped"}
	if handler.drafts != nil {
		if err := handler.drafts.Ping(ctx); err != nil {
			httpx.Fail(w, r, http.StatusServiceUnavailable, "not_ready", "draft store is not reachable")
			return
		}
		checks["drafts"] = "ok"
	}

	httpx.OK(w, r, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": checks,
	})
}
