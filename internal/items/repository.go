package items

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// DB es lo mínimo que el repositorio necesita de pgx.
// *pgxpool.Pool lo cumple; en tests se usa un fake.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository accede a la tabla items.
// Contiene SQL y mapeo DB → modelo.
type Repository struct {
	database DB
}

// NewRepository crea un repositorio de items.
func NewRepository(database DB) *Repository {
	return &Repository{database: database}
}

var _ RepositoryAPI = (*Repository)(nil)

// Insert crea un item y devuelve el registro persistido.
// El id lo genera la DB (RETURNING); el ID del item de entrada se ignora.
func (repository *Repository) Insert(ctx context.Context, item Item) (Item, error) {
	const query = `
		INSERT INTO items (name, price, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, name, price, quantity;
	`

	var created Item
	err := repository.database.QueryRow(ctx, query, item.Name, item.Price, item.Quantity).
		Scan(&created.ID, &created.Name, &created.Price, &created.Quantity)
	if err != nil {
		return Item{}, err
	}

	return created, nil
}

// GetByID busca un item por id.
func (repository *Repository) GetByID(ctx context.Context, id int64) (Item, error) {
	const query = `
		SELECT id, name, price, quantity
		FROM items
		WHERE id = $1;
	`

	var item Item
	err := repository.database.QueryRow(ctx, query, id).
		Scan(&item.ID, &item.Name, &item.Price, &item.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrorNotFound
		}
		return Item{}, err
	}

	return item, nil
}

// List devuelve todos los items ordenados por nombre (pantalla principal).
func (repository *Repository) List(ctx context.Context) ([]Item, error) {
	const query = `
		SELECT id, name, price, quantity
		FROM items
		ORDER BY name ASC, id ASC;
	`

	rows, err := repository.database.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// Update reemplaza nombre, precio y cantidad del item con ese id.
func (repository *Repository) Update(ctx context.Context, item Item) (Item, error) {
	const query = `
		UPDATE items
		SET name = $1, price = $2, quantity = $3
		WHERE id = $4
		RETURNING id, name, price, quantity;
	`

	var updated Item
	err := repository.database.QueryRow(ctx, query, item.Name, item.Price, item.Quantity, item.ID).
		Scan(&updated.ID, &updated.Name, &updated.Price, &updated.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrorNotFound
		}
		return Item{}, err
	}

	return updated, nil
}

// Decrement resta una unidad en una sola sentencia; la condición quantity > 0
// evita vender de más con requests concurrentes.
// Sin fila afectada consulta el item para distinguir "no existe" de "sin stock".
func (repository *Repository) Decrement(ctx context.Context, id int64) (Item, error) {
	const query = `
		UPDATE items
		SET quantity = quantity - 1
		WHERE id = $1 AND quantity > 0
		RETURNING id, name, price, quantity;
	`

	var updated Item
	err := repository.database.QueryRow(ctx, query, id).
		Scan(&updated.ID, &updated.Name, &updated.Price, &updated.Quantity)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Item{}, err
	}

	if _, err := repository.GetByID(ctx, id); err != nil {
		return Item{}, err
	}
	return Item{}, ErrorOutOfStock
}

// Delete elimina un item. Usamos RETURNING para distinguir "no existe".
func (repository *Repository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM items WHERE id = $1 RETURNING id;`

	var deletedID int64
	err := repository.database.QueryRow(ctx, query, id).Scan(&deletedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrorNotFound
		}
		return err
	}

	return nil
}
