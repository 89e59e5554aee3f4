// Package store tiene implementaciones locales del repositorio de items
// (memoria y archivo JSON) para correr sin PostgreSQL.
package store

import (
	"sort"

	"github.com/Lelo88/inventory-api-golang/internal/items"
)

// table es el estado compartido por los stores locales.
// No es thread-safe: el lock lo pone cada store.
type table struct {
	rows   map[int64]items.Item
	nextID int64
}

func newTable() table {
	return table{rows: make(map[int64]items.Item)}
}

// insert asigna el próximo id. Los ids borrados no se reutilizan.
func (t *table) insert(item items.Item) items.Item {
	t.nextID++
	item.ID = t.nextID
	t.rows[item.ID] = item
	return item
}

func (t *table) get(id int64) (items.Item, bool) {
	item, ok := t.rows[id]
	return item, ok
}

// list ordena por nombre y luego por id, igual que el repositorio SQL.
func (t *table) list() []items.Item {
	out := make([]items.Item, 0, len(t.rows))
	for _, item := range t.rows {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (t *table) update(item items.Item) bool {
	if _, ok := t.rows[item.ID]; !ok {
		return false
	}
	t.rows[item.ID] = item
	return true
}

// decrement valida stock y descuenta en el mismo paso.
func (t *table) decrement(id int64) (items.Item, error) {
	item, ok := t.rows[id]
	if !ok {
		return items.Item{}, items.ErrorNotFound
	}
	if item.Quantity <= 0 {
		return items.Item{}, items.ErrorOutOfStock
	}
	item.Quantity--
	t.rows[id] = item
	return item, nil
}

func (t *table) remove(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

func (t *table) clone() table {
	copied := table{rows: make(map[int64]items.Item, len(t.rows)), nextID: t.nextID}
	for id, item := range t.rows {
		copied.rows[id] = item
	}
	return copied
}
