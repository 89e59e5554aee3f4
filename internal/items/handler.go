package items

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Lelo88/inventory-api-golang/internal/httpx"
)

// ServiceAPI define lo que el handler necesita.
// Permite testear handlers con stubs sin tocar DB.
type ServiceAPI interface {
	Create(ctx context.Context, details Details) (Item, error)
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id int64) (Item, error)
	Update(ctx context.Context, id int64, details Details) (Item, error)
	Delete(ctx context.Context, id int64) error
	Sell(ctx context.Context, id int64) (Item, error)
}

// Handler HTTP para items.
// Solo traduce HTTP <-> dominio (service).
type Handler struct {
	service ServiceAPI
}

// NewHandler crea un handler de items.
func NewHandler(service ServiceAPI) *Handler {
	return &Handler{service: service}
}

// Create maneja POST /items.
// El body es el borrador del formulario (todos los campos como texto).
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	var details Details
	if err := httpx.DecodeJSON(request, &details); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	item, err := handler.service.Create(request.Context(), details)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusCreated, newItemView(item))
}

// List maneja GET /items.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	list, err := handler.service.List(request.Context())
	if err != nil {
		writeError(writer, request, err)
		return
	}

	views := make([]itemView, 0, len(list))
	for _, item := range list {
		views = append(views, newItemView(item))
	}

	httpx.OK(writer, request, http.StatusOK, map[string]any{
		"items": views,
		"total": len(views),
	})
}

// GetByID maneja GET /items/{id}.
func (handler *Handler) GetByID(writer http.ResponseWriter, request *http.Request) {
	id, ok := itemIDParam(writer, request)
	if !ok {
		return
	}

	item, err := handler.service.Get(request.Context(), id)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, newItemView(item))
}

// Update maneja PUT /items/{id}.
func (handler *Handler) Update(writer http.ResponseWriter, request *http.Request) {
	id, ok := itemIDParam(writer, request)
	if !ok {
		return
	}

	var details Details
	if err := httpx.DecodeJSON(request, &details); err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	item, err := handler.service.Update(request.Context(), id, details)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, newItemView(item))
}

// Delete maneja DELETE /items/{id}.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request) {
	id, ok := itemIDParam(writer, request)
	if !ok {
		return
	}

	if err := handler.service.Delete(request.Context(), id); err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.NoContent(writer)
}

// Sell maneja POST /items/{id}/sell.
func (handler *Handler) Sell(writer http.ResponseWriter, request *http.Request) {
	id, ok := itemIDParam(writer, request)
	if !ok {
		return
	}

	item, err := handler.service.Sell(request.Context(), id)
	if err != nil {
		writeError(writer, request, err)
		return
	}

	httpx.OK(writer, request, http.StatusOK, newItemView(item))
}

// ParseID valida que el id sea un entero positivo (los ids los genera el store).
func ParseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if id < 1 {
		return 0, ErrorInvalidInput
	}
	return id, nil
}

func itemIDParam(writer http.ResponseWriter, request *http.Request) (int64, bool) {
	id, err := ParseID(chi.URLParam(request, "id"))
	if err != nil {
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func writeError(writer http.ResponseWriter, request *http.Request, err error) {
	switch {
	case errors.Is(err, ErrorInvalidInput):
		httpx.Fail(writer, request, http.StatusBadRequest, "invalid_input", "invalid input data")
	case errors.Is(err, ErrorNotFound):
		httpx.Fail(writer, request, http.StatusNotFound, "not_found", "item not found")
	case errors.Is(err, ErrorOutOfStock):
		httpx.Fail(writer, request, http.StatusConflict, "out_of_stock", "item is out of stock")
	default:
		// No filtramos detalles internos.
		httpx.Fail(writer, request, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
