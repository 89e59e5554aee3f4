package store

import (
	"context"
	"sync"

	"github.com/Lelo88/inventory-api-golang/internal/items"
)

// MemoryStore es un repositorio de items en memoria, thread-safe.
type MemoryStore struct {
	mu    sync.RWMutex
	table table
}

// NewMemoryStore crea un store vacío.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{table: newTable()}
}

var _ items.RepositoryAPI = (*MemoryStore)(nil)

func (store *MemoryStore) Insert(ctx context.Context, item items.Item) (items.Item, error) {
	if err := ctx.Err(); err != nil {
		return items.Item{}, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	return store.table.insert(item), nil
}

func (store *MemoryStore) GetByID(ctx context.Context, id int64) (items.Item, error) {
	if err := ctx.Err(); err != nil {
		return items.Item{}, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	item, ok := store.table.get(id)
	if !ok {
		return items.Item{}, items.ErrorNotFound
	}
	return item, nil
}

func (store *MemoryStore) List(ctx context.Context) ([]items.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.table.list(), nil
}

func (store *MemoryStore) Update(ctx context.Context, item items.Item) (items.Item, error) {
	if err := ctx.Err(); err != nil {
		return items.Item{}, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if !store.table.update(item) {
		return items.Item{}, items.ErrorNotFound
	}
	return item, nil
}

func (store *MemoryStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if !store.table.remove(id) {
		return items.ErrorNotFound
	}
	return nil
}

func (store *MemoryStore) Decrement(ctx context.Context, id int64) (items.Item, error) {
	if err := ctx.Err(); err != nil {
		return items.Item{}, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	return store.table.decrement(id)
}

// Ping existe para el readiness check; en memoria siempre está listo.
func (store *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
