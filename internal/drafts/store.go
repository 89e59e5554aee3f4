// Package drafts guarda borradores de sesiones de carga/edición para poder
// restaurarlos si el proceso se reinicia o la sesión se retoma más tarde.
package drafts

import (
	"context"
	"errors"
	"time"

	"github.com/Lelo88/inventory-api-golang/internal/items"
)

// ErrorNotFound indica que no hay borrador para esa sesión (o que expiró).
var ErrorNotFound = errors.New("draft not found")

// Record es lo que se persiste de una sesión: el borrador y cómo se abrió.
// La validez no se guarda; se recalcula al restaurar.
type Record struct {
	SessionID string        `json:"session_id"`
	Mode      string        `json:"mode"`
	Details   items.Details `json:"item_details"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store es el contrato del almacenamiento de borradores.
type Store interface {
	Save(ctx context.Context, record Record) error
	Load(ctx context.Context, sessionID string) (Record, error)
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
	// TTL es la vida de un borrador desde su último Save; 0 es sin expiración.
	TTL() time.Duration
}

// NewStore elige Redis si hay URL; si no, memoria.
func NewStore(ctx context.Context, redisURL string, ttl time.Duration) (Store, error) {
	if redisURL == "" {
		return NewMemoryStore(ttl), nil
	}
	return NewRedisStore(ctx, redisURL, ttl)
}
