package entry

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lelo88/inventory-api-golang/internal/httpx"
	"github.com/Lelo88/inventory-api-golang/internal/items"
)

// SessionAPI es lo que el handler necesita del manager.
type SessionAPI interface {
	Open(ctx context.Context) (View, error)
	OpenEdit(ctx context.Context, itemID int64) (View, error)
	Get(ctx context.Context, sessionID string) (View, error)
	Update(ctx context.Context, sessionID string, update FieldUpdate) (View, error)
	Commit(ctx context.Context, sessionID string) (CommitResult, error)
	Cancel(ctx context.Context, sessionID string) error
}

// Handler HTTP para sesiones de carga/edición.
type Handler struct {
	sessions SessionAPI
}

// NewHandler crea un handler de sesiones.
func NewHandler(sessions SessionAPI) *Handler {
	return &Handler{sessions: sessions}
}

type openRequest struct {
	ItemID *int64 `json:"item_id,omitempty"`
}

// Open maneja POST /entries. Sin body (o sin item_id) abre un alta;
// con item_id abre la edición de ese item.
func (handler *Handler) Open(writer http.ResponseWriter, request *http.Request) {
	var body openRequest
	if err := httpx.DecodeJSON(request, &body); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	var (
		view View
		err  error
	)
	if body.ItemID == nil {
		view, err = handler.sessions.Open(request.Context())
	} else {
		if *body.ItemID < 1 {
			httpx.Fail(writer, request, http.StatusBadRequest, "invalid_id", "item_id must be a positive integer")
			return
		}
		view, err = handler.sessions.OpenEdit(request.Context(), *body.ItemID)
	}
	if err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusCreated, view)
}

// Get maneja GET /entries/{sessionID}.
func (handler *Handler) Get(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.sessions.Get(request.Context(), chi.URLParam(request, "sessionID"))
	if err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, view)
}

// Update maneja PATCH /entries/{sessionID}.
func (handler *Handler) Update(writer http.ResponseWriter, request *http.Request) {
	var update FieldUpdate
	if err := httpx.DecodeJSON(request, &update); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	view, err := handler.sessions.Update(request.Context(), chi.URLParam(request, "sessionID"), update)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, view)
}

// Commit maneja POST /entries/{sessionID}/commit.
// Un borrador inválido no es un error: 200 con committed=false.
func (handler *Handler) Commit(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.sessions.Commit(request.Context(), chi.URLParam(request, "sessionID"))
	if err != nil {
		writeError(writer, request, err)
		return
	}

	if !result.Committed {
		httpx.OK(writer, request, http.StatusOK, map[string]any{
			"committed": false,
			"entry":     result.View,
		})
		return
	}

	httpx.OK(writer, request, http.StatusCreated, map[string]any{
		"committed": true,
		"item": map[string]any{
			"id":              result.Item.ID,
			"name":            result.Item.Name,
			"price":           result.Item.Price,
			"quantity":        result.Item.Quantity,
			"formatted_price": result.Item.FormattedPrice(),
		},
	})
}

// Cancel maneja DELETE /entries/{sessionID}.
func (handler *Handler) Cancel(writer http.ResponseWriter, request *http.Request) {
	if err := handler.sessions.Cancel(request.Context(), chi.URLParam(request, "sessionID")); err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.NoContent(writer)
}

func writeError(writer http.ResponseWriter, request *http.Request, err error) {
	switch {
	case errors.Is(err, ErrorSessionNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, "session_not_found", "entry session not found")
	case errors.Is(err, items.ErrorNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, "not_found", "item not found")
	case errors.Is(err, ErrorCommitInProgress):
		httpx.Fail(writer, request, http.StatusConflict, "commit_in_progress", "entry is being saved")
	case errors.Is(err, ErrorNotEditing):
		httpx.Fail(writer, request, http.StatusConflict, "not_editing", "entry session is not editable")
	default:
		httpx.Fail(writer, request, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
