package items

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Errores de dominio (no HTTP). El handler los traduce a status codes.
var (
	ErrorInvalidInput = errors.New("invalid input")
	ErrorNotFound     = errors.New("item not found")
	ErrorOutOfStock   = errors.New("item out of stock")
)

// RepositoryAPI es el contrato de persistencia de items.
// Lo implementan el repositorio Postgres y los stores locales (memoria/archivo).
type RepositoryAPI interface {
	Insert(ctx context.Context, item Item) (Item, error)
	GetByID(ctx context.Context, id int64) (Item, error)
	List(ctx context.Context) ([]Item, error)
	Update(ctx context.Context, item Item) (Item, error)
	Delete(ctx context.Context, id int64) error
	// Decrement descuenta una unidad de forma atómica.
	// Sin stock devuelve ErrorOutOfStock; si no existe, ErrorNotFound.
	Decrement(ctx context.Context, id int64) (Item, error)
}

// Service contiene reglas de negocio de items.
type Service struct {
	repository RepositoryAPI
	tracer     trace.Tracer
}

// NewService crea un service de items.
func NewService(repository RepositoryAPI) *Service {
	return &Service{
		repository: repository,
		tracer:     otel.Tracer("github.com/Lelo88/inventory-api-golang/internal/items"),
	}
}

// Create valida el borrador y lo persiste como item nuevo.
// La validación es la misma del formulario: presencia, no formato.
func (service *Service) Create(ctx context.Context, details Details) (Item, error) {
	ctx, span := service.tracer.Start(ctx, "items.Create")
	defer span.End()

	if !ValidateInput(details) {
		return Item{}, ErrorInvalidInput
	}

	// El id lo asigna el store.
	details.ID = 0
	item, err := service.repository.Insert(ctx, details.ToItem())
	if err != nil {
		recordError(span, err)
		return Item{}, err
	}

	span.SetAttributes(attribute.Int64("item.id", item.ID))
	return item, nil
}

// List devuelve todos los items ordenados por nombre.
func (service *Service) List(ctx context.Context) ([]Item, error) {
	ctx, span := service.tracer.Start(ctx, "items.List")
	defer span.End()

	list, err := service.repository.List(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("items.count", len(list)))
	return list, nil
}

// Get obtiene un item por ID.
func (service *Service) Get(ctx context.Context, id int64) (Item, error) {
	ctx, span := service.tracer.Start(ctx, "items.Get", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	item, err := service.repository.GetByID(ctx, id)
	if err != nil {
		recordError(span, err)
		return Item{}, err
	}
	return item, nil
}

// Update valida el borrador y reemplaza el item indicado.
func (service *Service) Update(ctx context.Context, id int64, details Details) (Item, error) {
	ctx, span := service.tracer.Start(ctx, "items.Update", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	if !ValidateInput(details) {
		return Item{}, ErrorInvalidInput
	}

	details.ID = id
	item, err := service.repository.Update(ctx, details.ToItem())
	if err != nil {
		recordError(span, err)
		return Item{}, err
	}
	return item, nil
}

// Delete elimina un item por ID.
func (service *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := service.tracer.Start(ctx, "items.Delete", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	if err := service.repository.Delete(ctx, id); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// Sell descuenta una unidad del stock.
// Con cantidad 0 devuelve ErrorOutOfStock y el item queda igual.
func (service *Service) Sell(ctx context.Context, id int64) (Item, error) {
	ctx, span := service.tracer.Start(ctx, "items.Sell", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	item, err := service.repository.Decrement(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrorOutOfStock) {
			recordError(span, err)
		}
		return Item{}, err
	}

	span.SetAttributes(attribute.Int("item.quantity", item.Quantity))
	return item, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
