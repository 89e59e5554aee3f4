package drafts

import (
	"context"
	"sync"
	"time"
)

// MemoryStore guarda borradores en memoria del proceso.
// Sirve para desarrollo y tests; no sobrevive a un reinicio.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore crea un store en memoria. ttl <= 0 significa sin expiración.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		ttl:     ttl,
		now:     time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (store *MemoryStore) Save(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record.UpdatedAt = store.now()

	store.mu.Lock()
	defer store.mu.Unlock()
	store.pruneLocked(record.UpdatedAt)
	store.records[record.SessionID] = record
	return nil
}

// pruneLocked descarta borradores vencidos que nadie volvió a leer.
func (store *MemoryStore) pruneLocked(now time.Time) {
	if store.ttl <= 0 {
		return
	}
	for id, record := range store.records {
		if now.Sub(record.UpdatedAt) > store.ttl {
			delete(store.records, id)
		}
	}
}

func (store *MemoryStore) Load(ctx context.Context, sessionID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	store.mu.RLock()
	record, ok := store.records[sessionID]
	store.mu.RUnlock()
	if !ok {
		return Record{}, ErrorNotFound
	}

	if store.ttl > 0 && store.now().Sub(record.UpdatedAt) > store.ttl {
		store.mu.Lock()
		delete(store.records, sessionID)
		store.mu.Unlock()
		return Record{}, ErrorNotFound
	}

	return record, nil
}

func (store *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.records, sessionID)
	return nil
}

func (store *MemoryStore) TTL() time.Duration {
	return store.ttl
}

// Ping siempre responde; solo respeta la cancelación del contexto.
func (store *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
