package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Lelo88/inventory-api-golang/internal/items"
)

// fileContents es el formato en disco. next_id evita reutilizar ids borrados.
type fileContents struct {
	NextID int64        `json:"next_id"`
	Items  []items.Item `json:"items"`
}

// FileStore guarda los items en un archivo JSON.
// Cada escritura reescribe el archivo completo vía archivo temporal + rename.
type FileStore struct {
	mu    sync.RWMutex
	table table
	path  string
}

var _ items.RepositoryAPI = (*FileStore)(nil)

// NewFileStore abre el store en path. Si el archivo no existe arranca vacío.
func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{table: newTable(), path: path}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (store *FileStore) load() error {
	payload, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read store file: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}

	var contents fileContents
	if err := json.Unmarshal(payload, &contents); err != nil {
		return fmt.Errorf("failed to decode store file: %w", err)
	}

	for _, item := range contents.Items {
		store.table.rows[item.ID] = item
		if item.ID > store.table.nextID {
			store.table.nextID = item.ID
		}
	}
	if contents.NextID > store.table.nextID {
		store.table.nextID = contents.NextID
	}
	return nil
}

func (store *FileStore) save() error {
	dir := filepath.Dir(store.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store dir: %w", err)
	}

	payload, err := json.MarshalIndent(fileContents{
		NextID: store.table.nextID,
		Items:  store.table.list(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(store.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), store.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// mutate aplica el cambio y persiste; si no se pudo escribir, lo deshace.
func (store *FileStore) mutate(change func(*table) error) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	previous := store.table.clone()
	if err := change(&store.table); err != nil {
		return err
	}
	if err := store.save(); err != nil {
		store.table = previous
		return err
	}
	return nil
}

func (store *FileStore) Insert(ctx context.Context, item items.Item) (items.Item, error) {
	if err := ctx.Err(); err != nil {
		return items.Item{}, err
	}

	var saved items.Item
	err := store.mutate(func(t *table) error {
		saved = t.insert(item)
		return nil
	})
	if err != nil {
		return items.Item{}, err
	}
	return saved, nil
}

func (store *FileStore) GetByID(ctx context.Context, id int64) (items.Item, error) {
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

func (store *FileStore) List(ctx context.Context) ([]items.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.table.list(), nil
}

func (store *FileStore) Update(ctx context.Context, item items.Item) (items.Item, error) {
	if err := ctx.Err(); err != nil {
		return items.Item{}, err
	}

	err := store.mutate(func(t *table) error {
		if !t.update(item) {
			return items.ErrorNotFound
		}
		return nil
	})
	if err != nil {
		return items.Item{}, err
	}
	return item, nil
}

func (store *FileStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return store.mutate(func(t *table) error {
		if !t.remove(id) {
			return items.ErrorNotFound
		}
		return nil
	})
}

func (store *FileStore) Decrement(ctx context.Context, id int64) (items.Item, error) {
	if err := ctx.Err(); err != nil {
		return items.Item{}, err
	}

	var updated items.Item
	err := store.mutate(func(t *table) error {
		var err error
		updated, err = t.decrement(id)
		return err
	})
	if err != nil {
		return items.Item{}, err
	}
	return updated, nil
}

// Ping verifica que el directorio del archivo sea accesible.
func (store *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Dir(store.path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
