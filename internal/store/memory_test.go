package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lelo88/inventory-api-golang/internal/items"
)

// exerciseRepository corre el mismo contrato contra cualquier store local.
func exerciseRepository(t *testing.T, repository items.RepositoryAPI) {
	t.Helper()
	ctx := context.Background()

	first, err := repository.Insert(ctx, items.Item{Name: "Widget", Price: 10, Quantity: 5})
	require.NoError(t, err)
	require.Equal(t, int64(1), first.ID)

	second, err := repository.Insert(ctx, items.Item{Name: "Bolt", Price: 0.5, Quantity: 100})
	require.NoError(t, err)
	require.Equal(t, int64(2), second.ID)

	got, err := repository.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first, got)

	list, err := repository.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []items.Item{second, first}, list)

	first.Quantity = 4
	updated, err := repository.Update(ctx, first)
	require.NoError(t, err)
	require.Equal(t, 4, updated.Quantity)

	_, err = repository.Update(ctx, items.Item{ID: 99, Name: "Ghost"})
	require.ErrorIs(t, err, items.ErrorNotFound)

	require.NoError(t, repository.Delete(ctx, second.ID))
	require.ErrorIs(t, repository.Delete(ctx, second.ID), items.ErrorNotFound)

	_, err = repository.GetByID(ctx, second.ID)
	require.ErrorIs(t, err, items.ErrorNotFound)

	// Los ids no se reutilizan.
	third, err := repository.Insert(ctx, items.Item{Name: "Nut"})
	require.NoError(t, err)
	require.Equal(t, int64(3), third.ID)

	sold, err := repository.Decrement(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, 3, sold.Quantity)
	require.Equal(t, first.Name, sold.Name)

	_, err = repository.Decrement(ctx, third.ID)
	require.ErrorIs(t, err, items.ErrorOutOfStock)

	_, err = repository.Decrement(ctx, second.ID)
	require.ErrorIs(t, err, items.ErrorNotFound)
}

// exerciseConcurrentSell vende en paralelo más unidades de las que hay.
func exerciseConcurrentSell(t *testing.T, repository items.RepositoryAPI) {
	t.Helper()
	ctx := context.Background()
	const stock, buyers = 3, 20

	item, err := repository.Insert(ctx, items.Item{Name: "Widget", Price: 10, Quantity: stock})
	require.NoError(t, err)

	service := items.NewService(repository)
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		sold       int
		outOfStock int
	)
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Sell(ctx, item.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sold++
			case errors.Is(err, items.ErrorOutOfStock):
				outOfStock++
			default:
				t.Errorf("unexpected sell error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, stock, sold)
	require.Equal(t, buyers-stock, outOfStock)

	final, err := repository.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.Zero(t, final.Quantity)
}

func TestMemoryStore_Contract(t *testing.T) {
	exerciseRepository(t, NewMemoryStore())
}

func TestMemoryStore_ConcurrentSellNeverOversells(t *testing.T) {
	exerciseConcurrentSell(t, NewMemoryStore())
}

func TestMemoryStore_EmptyListIsNotNil(t *testing.T) {
	list, err := NewMemoryStore().List(context.Background())

	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestMemoryStore_ListOrdersByNameThenID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, name := range []string{"b", "a", "b", "a"} {
		_, err := store.Insert(ctx, items.Item{Name: name})
		require.NoError(t, err)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)

	ids := make([]int64, 0, len(list))
	for _, item := range list {
		ids = append(ids, item.ID)
	}
	require.Equal(t, []int64{2, 4, 1, 3}, ids)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Insert(ctx, items.Item{Name: "x"})
	require.ErrorIs(t, err, context.Canceled)
	_, err = store.List(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, store.Ping(ctx), context.Canceled)
}

func TestNewStore(t *testing.T) {
	memory, err := NewStore("memory", "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, memory)

	_, err = NewStore("file", "")
	require.Error(t, err)

	_, err = NewStore("sqlite", "x")
	require.EqualError(t, err, "unknown store kind: sqlite")
}
