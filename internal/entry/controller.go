// Package entry implementa la sesión de carga/edición de un item:
// el borrador, su validez y el guardado explícito.
package entry

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Lelo88/inventory-api-golang/internal/items"
)

// Errores de uso del controller. Un borrador inválido NO es un error.
var (
	ErrorNotEditing       = errors.New("entry session is not editing")
	ErrorCommitInProgress = errors.New("entry commit already in progress")
)

// State es el estado de la sesión.
type State int

const (
	StateIdle State = iota
	StateEditing
	StateCommitting
	StateDone
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateCommitting:
		return "committing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Field identifica un campo editable del borrador.
type Field int

const (
	FieldName Field = iota
	FieldPrice
	FieldQuantity
)

// Snapshot es una lectura consistente de la sesión.
type Snapshot struct {
	State   State
	UIState items.UIState
}

// Persister guarda el item convertido. Es la única llamada que bloquea.
type Persister interface {
	Persist(ctx context.Context, item items.Item) (items.Item, error)
}

// PersistFunc adapta una función a Persister.
type PersistFunc func(ctx context.Context, item items.Item) (items.Item, error)

func (fn PersistFunc) Persist(ctx context.Context, item items.Item) (items.Item, error) {
	return fn(ctx, item)
}

// Inserter es lo que necesita el flujo de alta.
type Inserter interface {
	Insert(ctx context.Context, item items.Item) (items.Item, error)
}

// Updater es lo que necesita el flujo de edición.
type Updater interface {
	Update(ctx context.Context, item items.Item) (items.Item, error)
}

// InsertWith persiste con Insert (item nuevo, id asignado por el store).
func InsertWith(inserter Inserter) Persister {
	return PersistFunc(inserter.Insert)
}

// UpdateWith persiste con Update (item existente).
func UpdateWith(updater Updater) Persister {
	return PersistFunc(updater.Update)
}

// Controller es la máquina de estados Idle → Editing → Committing → Done.
// Una instancia por sesión; no se comparte entre sesiones.
type Controller struct {
	mu        sync.Mutex
	state     State
	uiState   items.UIState
	persister Persister
	result    items.Item

	listeners map[int]func(Snapshot)
	nextID    int

	tracer trace.Tracer
}

// NewController crea un controller en Idle.
func NewController(persister Persister) *Controller {
	return &Controller{
		state:     StateIdle,
		persister: persister,
		listeners: make(map[int]func(Snapshot)),
		tracer:    otel.Tracer("github.com/Lelo88/inventory-api-golang/internal/entry"),
	}
}

// Start abre el flujo de alta con un borrador vacío.
func (controller *Controller) Start() Snapshot {
	return controller.populate(items.Details{})
}

// Load abre el flujo de edición con el borrador hidratado desde el item.
func (controller *Controller) Load(item items.Item) Snapshot {
	return controller.populate(item.ToDetails())
}

// Restore retoma una sesión desde un borrador guardado.
func (controller *Controller) Restore(details items.Details) Snapshot {
	return controller.populate(details)
}

func (controller *Controller) populate(details items.Details) Snapshot {
	controller.mu.Lock()
	if controller.state != StateIdle {
		snapshot := controller.snapshotLocked()
		controller.mu.Unlock()
		return snapshot
	}
	controller.state = StateEditing
	controller.uiState = newUIState(details)
	snapshot := controller.snapshotLocked()
	controller.mu.Unlock()

	controller.notify(snapshot)
	return snapshot
}

// Update reemplaza un campo y recalcula la validez.
// Fuera de Editing no hace nada y devuelve el estado actual.
func (controller *Controller) Update(field Field, value string) Snapshot {
	controller.mu.Lock()
	if controller.state != StateEditing {
		snapshot := controller.snapshotLocked()
		controller.mu.Unlock()
		return snapshot
	}

	details := controller.uiState.Details
	switch field {
	case FieldName:
		details.Name = value
	case FieldPrice:
		details.Price = value
	case FieldQuantity:
		details.Quantity = value
	}
	controller.uiState = newUIState(details)
	snapshot := controller.snapshotLocked()
	controller.mu.Unlock()

	controller.notify(snapshot)
	return snapshot
}

// UpdateDetails reemplaza nombre, precio y cantidad de una vez.
// El ID del borrador es el de la sesión y no se pisa.
func (controller *Controller) UpdateDetails(details items.Details) Snapshot {
	controller.mu.Lock()
	if controller.state != StateEditing {
		snapshot := controller.snapshotLocked()
		controller.mu.Unlock()
		return snapshot
	}

	details.ID = controller.uiState.Details.ID
	controller.uiState = newUIState(details)
	snapshot := controller.snapshotLocked()
	controller.mu.Unlock()

	controller.notify(snapshot)
	return snapshot
}

// Commit guarda el borrador si es válido.
//
// Con borrador inválido devuelve (false, nil) sin cambiar de estado ni llamar
// al persister. Con borrador válido convierte con ToItem, llama al persister
// una sola vez y pasa a Done. Si el persister falla, el error se devuelve tal
// cual y la sesión vuelve a Editing.
func (controller *Controller) Commit(ctx context.Context) (bool, error) {
	controller.mu.Lock()
	switch controller.state {
	case StateEditing:
	case StateCommitting:
		controller.mu.Unlock()
		return false, ErrorCommitInProgress
	default:
		controller.mu.Unlock()
		return false, ErrorNotEditing
	}

	// Re-validación: el flag pudo quedar viejo del lado de la UI.
	details := controller.uiState.Details
	if !items.ValidateInput(details) {
		controller.mu.Unlock()
		return false, nil
	}

	controller.state = StateCommitting
	committing := controller.snapshotLocked()
	controller.mu.Unlock()
	controller.notify(committing)

	ctx, span := controller.tracer.Start(ctx, "entry.Commit", trace.WithAttributes(attribute.Int64("item.id", details.ID)))
	defer span.End()

	// Sin lock mientras persiste.
	saved, err := controller.persister.Persist(ctx, details.ToItem())

	controller.mu.Lock()
	if err != nil {
		controller.state = StateEditing
	} else {
		controller.state = StateDone
		controller.result = saved
	}
	snapshot := controller.snapshotLocked()
	controller.mu.Unlock()
	controller.notify(snapshot)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return true, nil
}

// State devuelve el estado actual (lectura tipo pull).
func (controller *Controller) State() Snapshot {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.snapshotLocked()
}

// Result devuelve el item persistido; solo está disponible en Done.
func (controller *Controller) Result() (items.Item, bool) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	if controller.state != StateDone {
		return items.Item{}, false
	}
	return controller.result, true
}

// Subscribe registra un observador que recibe cada cambio de estado.
// Devuelve la función para darse de baja.
func (controller *Controller) Subscribe(listener func(Snapshot)) func() {
	controller.mu.Lock()
	id := controller.nextID
	controller.nextID++
	controller.listeners[id] = listener
	controller.mu.Unlock()

	return func() {
		controller.mu.Lock()
		delete(controller.listeners, id)
		controller.mu.Unlock()
	}
}

func (controller *Controller) snapshotLocked() Snapshot {
	return Snapshot{State: controller.state, UIState: controller.uiState}
}

// notify se llama sin lock para que un observador pueda leer State().
func (controller *Controller) notify(snapshot Snapshot) {
	controller.mu.Lock()
	listeners := make([]func(Snapshot), 0, len(controller.listeners))
	for _, listener := range controller.listeners {
		listeners = append(listeners, listener)
	}
	controller.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
}

func newUIState(details items.Details) items.UIState {
	return items.UIState{Details: details, IsEntryValid: items.ValidateInput(details)}
}
