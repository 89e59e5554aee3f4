package store

import (
	"context"
	"fmt"

	"github.com/Lelo88/inventory-api-golang/internal/items"
)

// Store es un repositorio local con readiness check.
type Store interface {
	items.RepositoryAPI
	Ping(ctx context.Context) error
}

// NewStore construye un store local por tipo: "memory" o "file".
// Para "file" path es obligatorio; para "memory" se ignora.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "memory", "mem":
		return NewMemoryStore(), nil
	case "file":
		if path == "" {
			return nil, fmt.Errorf("file path required for file store")
		}
		return NewFileStore(path)
	default:
		return nil, fmt.Errorf("unknown store kind: %s", kind)
	}
}
