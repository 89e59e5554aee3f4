package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lelo88/inventory-api-golang/internal/drafts"
	"github.com/Lelo88/inventory-api-golang/internal/items"
)

// ErrorSessionNotFound indica que la sesión no existe (o su borrador expiró).
var ErrorSessionNotFound = errors.New("entry session not found")

// Mode indica cómo se abrió la sesión.
type Mode string

const (
	ModeNew  Mode = "new"
	ModeEdit Mode = "edit"
)

// Repository es lo que el manager necesita del catálogo.
type Repository interface {
	Inserter
	Updater
	GetByID(ctx context.Context, id int64) (items.Item, error)
}

// View es la foto de una sesión tal como la ve la capa de presentación.
type View struct {
	SessionID string `json:"session_id"`
	Mode      Mode   `json:"mode"`
	State     string `json:"state"`
	items.UIState
}

// FieldUpdate trae solo los campos que cambian.
type FieldUpdate struct {
	Name     *string `json:"name,omitempty"`
	Price    *string `json:"price,omitempty"`
	Quantity *string `json:"quantity,omitempty"`
}

// CommitResult es el resultado de Commit en el manager.
// Con Committed=false, Item es cero y View muestra el borrador inválido.
type CommitResult struct {
	Committed bool
	Item      items.Item
	View      View
}

// DefaultSessionTTL se usa cuando el store de borradores no expira.
const DefaultSessionTTL = 30 * time.Minute

type session struct {
	id         string
	mode       Mode
	controller *Controller

	// touched lo protege Manager.mu.
	touched time.Time

	// mu ordena las escrituras del borrador contra el cierre de la sesión.
	mu     sync.Mutex
	closed bool
}

// Manager guarda las sesiones abiertas, una por controller.
// Cada mutación se copia al store de borradores para poder restaurarla.
// Una sesión sin mutaciones durante el TTL del borrador se descarta.
type Manager struct {
	repository Repository
	drafts     drafts.Store
	logger     *slog.Logger
	ttl        time.Duration

	mu       sync.Mutex
	sessions map[string]*session

	newID func() string
	now   func() time.Time
}

// NewManager arma el manager con sus dependencias explícitas.
func NewManager(repository Repository, draftStore drafts.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := DefaultSessionTTL
	if draftStore.TTL() > 0 {
		ttl = draftStore.TTL()
	}
	return &Manager{
		repository: repository,
		drafts:     draftStore,
		logger:     logger,
		ttl:        ttl,
		sessions:   make(map[string]*session),
		newID:      func() string { return uuid.NewString() },
		now:        time.Now,
	}
}

// Open abre una sesión de alta con el borrador vacío.
func (manager *Manager) Open(ctx context.Context) (View, error) {
	current := manager.register(ModeNew)
	current.controller.Start()
	manager.saveDraft(ctx, current)

	manager.logger.InfoContext(ctx, "entry session opened", "session_id", current.id, "mode", current.mode)
	return current.view(), nil
}

// OpenEdit abre una sesión de edición hidratada con el item actual.
func (manager *Manager) OpenEdit(ctx context.Context, itemID int64) (View, error) {
	item, err := manager.repository.GetByID(ctx, itemID)
	if err != nil {
		return View{}, err
	}

	current := manager.register(ModeEdit)
	current.controller.Load(item)
	manager.saveDraft(ctx, current)

	manager.logger.InfoContext(ctx, "entry session opened", "session_id", current.id, "mode", current.mode, "item_id", itemID)
	return current.view(), nil
}

// Get devuelve la sesión; si no está en memoria intenta restaurarla del borrador.
func (manager *Manager) Get(ctx context.Context, sessionID string) (View, error) {
	current, err := manager.lookup(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return current.view(), nil
}

// Update aplica los campos presentes en el orden nombre, precio, cantidad.
func (manager *Manager) Update(ctx context.Context, sessionID string, update FieldUpdate) (View, error) {
	current, err := manager.lookup(ctx, sessionID)
	if err != nil {
		return View{}, err
	}

	if update.Name != nil {
		current.controller.Update(FieldName, *update.Name)
	}
	if update.Price != nil {
		current.controller.Update(FieldPrice, *update.Price)
	}
	if update.Quantity != nil {
		current.controller.Update(FieldQuantity, *update.Quantity)
	}

	manager.saveDraft(ctx, current)
	return current.view(), nil
}

// Commit guarda el borrador. Si se guardó, la sesión y su borrador se descartan.
func (manager *Manager) Commit(ctx context.Context, sessionID string) (CommitResult, error) {
	current, err := manager.lookup(ctx, sessionID)
	if err != nil {
		return CommitResult{}, err
	}

	committed, err := current.controller.Commit(ctx)
	if err != nil {
		manager.logger.WarnContext(ctx, "entry commit failed", "session_id", sessionID, "error", err)
		return CommitResult{}, err
	}
	if !committed {
		return CommitResult{View: current.view()}, nil
	}

	item, _ := current.controller.Result()
	view := current.view()
	manager.forget(ctx, sessionID)

	manager.logger.InfoContext(ctx, "entry committed", "session_id", sessionID, "mode", current.mode, "item_id", item.ID)
	return CommitResult{Committed: true, Item: item, View: view}, nil
}

// Cancel descarta la sesión y su borrador.
func (manager *Manager) Cancel(ctx context.Context, sessionID string) error {
	manager.mu.Lock()
	_, inMemory := manager.sessions[sessionID]
	manager.mu.Unlock()

	if !inMemory {
		if _, err := manager.drafts.Load(ctx, sessionID); err != nil {
			if errors.Is(err, drafts.ErrorNotFound) {
				return ErrorSessionNotFound
			}
			return fmt.Errorf("failed to load draft: %w", err)
		}
	}

	manager.forget(ctx, sessionID)
	manager.logger.InfoContext(ctx, "entry session canceled", "session_id", sessionID)
	return nil
}

func (manager *Manager) register(mode Mode) *session {
	now := manager.now()
	current := &session{
		id:         manager.newID(),
		mode:       mode,
		controller: NewController(manager.persisterFor(mode)),
		touched:    now,
	}

	manager.mu.Lock()
	expired := manager.sweepLocked(now)
	manager.sessions[current.id] = current
	manager.mu.Unlock()

	for _, stale := range expired {
		stale.close()
		manager.logger.Info("entry session expired", "session_id", stale.id)
	}
	return current
}

// sweepLocked saca del mapa las sesiones vencidas y las devuelve para cerrarlas.
func (manager *Manager) sweepLocked(now time.Time) []*session {
	var expired []*session
	for id, current := range manager.sessions {
		if manager.expiredLocked(current, now) {
			delete(manager.sessions, id)
			expired = append(expired, current)
		}
	}
	return expired
}

// Una sesión guardándose no vence aunque el persister tarde más que el TTL.
func (manager *Manager) expiredLocked(current *session, now time.Time) bool {
	if now.Sub(current.touched) <= manager.ttl {
		return false
	}
	return current.controller.State().State != StateCommitting
}

func (manager *Manager) persisterFor(mode Mode) Persister {
	if mode == ModeEdit {
		return UpdateWith(manager.repository)
	}
	return InsertWith(manager.repository)
}

func (manager *Manager) lookup(ctx context.Context, sessionID string) (*session, error) {
	now := manager.now()

	manager.mu.Lock()
	current, ok := manager.sessions[sessionID]
	expired := ok && manager.expiredLocked(current, now)
	if expired {
		delete(manager.sessions, sessionID)
	}
	manager.mu.Unlock()

	if ok && !expired {
		return current, nil
	}
	if expired {
		current.close()
		manager.logger.InfoContext(ctx, "entry session expired", "session_id", sessionID)
	}

	// El borrador puede seguir vivo si otra instancia lo renovó.
	record, err := manager.drafts.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, drafts.ErrorNotFound) {
			return nil, ErrorSessionNotFound
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	mode := Mode(record.Mode)
	if mode != ModeEdit {
		mode = ModeNew
	}
	restored := &session{
		id:         sessionID,
		mode:       mode,
		controller: NewController(manager.persisterFor(mode)),
		touched:    now,
	}
	restored.controller.Restore(record.Details)

	manager.mu.Lock()
	defer manager.mu.Unlock()
	// Otra request pudo restaurarla mientras leíamos el borrador.
	if existing, ok := manager.sessions[sessionID]; ok {
		return existing, nil
	}
	manager.sessions[sessionID] = restored

	manager.logger.InfoContext(ctx, "entry session restored", "session_id", sessionID, "mode", mode)
	return restored, nil
}

// forget cierra la sesión y borra su borrador bajo el lock de la sesión, así
// un saveDraft concurrente no puede volver a escribirlo. La sesión sale del
// mapa recién después del borrado: hasta ahí lookup la encuentra cerrada y
// no restaura el borrador viejo.
func (manager *Manager) forget(ctx context.Context, sessionID string) {
	manager.mu.Lock()
	current := manager.sessions[sessionID]
	manager.mu.Unlock()

	if current != nil {
		current.mu.Lock()
		current.closed = true
	}
	if err := manager.drafts.Delete(ctx, sessionID); err != nil {
		manager.logger.WarnContext(ctx, "draft delete failed", "session_id", sessionID, "error", err)
	}
	if current != nil {
		current.mu.Unlock()
	}

	manager.mu.Lock()
	if manager.sessions[sessionID] == current {
		delete(manager.sessions, sessionID)
	}
	manager.mu.Unlock()
}

// saveDraft copia el borrador solo mientras la sesión está abierta y editando.
// No corta el flujo si el store de borradores falla: la sesión en memoria
// sigue siendo válida, solo se pierde la restauración.
func (manager *Manager) saveDraft(ctx context.Context, current *session) {
	current.mu.Lock()
	defer current.mu.Unlock()
	if current.closed {
		return
	}

	snapshot := current.controller.State()
	if snapshot.State != StateEditing {
		return
	}

	manager.mu.Lock()
	current.touched = manager.now()
	manager.mu.Unlock()

	record := drafts.Record{
		SessionID: current.id,
		Mode:      string(current.mode),
		Details:   snapshot.UIState.Details,
	}
	if err := manager.drafts.Save(ctx, record); err != nil {
		manager.logger.WarnContext(ctx, "draft save failed", "session_id", current.id, "error", err)
	}
}

func (current *session) close() {
	current.mu.Lock()
	current.closed = true
	current.mu.Unlock()
}

func (current *session) view() View {
	snapshot := current.controller.State()
	return View{
		SessionID: current.id,
		Mode:      current.mode,
		State:     snapshot.State.String(),
		UIState:   snapshot.UIState,
	}
}
