package items

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// fakeRepo implementa RepositoryAPI para testing.
type fakeRepo struct {
	insertCalled bool
	insertItem   Item
	insertErr    error

	getCalled bool
	getID     int64
	getItem   Item
	getErr    error

	listCalled bool
	listItems  []Item
	listErr    error

	updateCalled bool
	updateItem   Item
	updateErr    error

	deleteCalled bool
	deleteID     int64
	deleteErr    error

	decrementCalled bool
	decrementID     int64
	decrementItem   Item
	decrementErr    error
}

func (fakerepo *fakeRepo) Insert(ctx context.Context, item Item) (Item, error) {
	fakerepo.insertCalled = true
	fakerepo.insertItem = item
	if fakerepo.insertErr != nil {
		return Item{}, fakerepo.insertErr
	}
	item.ID = 42
	return item, nil
}

func (fakerepo *fakeRepo) GetByID(ctx context.Context, id int64) (Item, error) {
	fakerepo.getCalled = true
	fakerepo.getID = id
	if fakerepo.getErr != nil {
		return Item{}, fakerepo.getErr
	}
	return fakerepo.getItem, nil
}

func (fakerepo *fakeRepo) List(ctx context.Context) ([]Item, error) {
	fakerepo.listCalled = true
	if fakerepo.listErr != nil {
		return nil, fakerepo.listErr
	}
	return fakerepo.listItems, nil
}

func (fakerepo *fakeRepo) Update(ctx context.Context, item Item) (Item, error) {
	fakerepo.updateCalled = true
	fakerepo.updateItem = item
	if fakerepo.updateErr != nil {
		return Item{}, fakerepo.updateErr
	}
	return item, nil
}

func (fakerepo *fakeRepo) Delete(ctx context.Context, id int64) error {
	fakerepo.deleteCalled = true
	fakerepo.deleteID = id
	return fakerepo.deleteErr
}

func (fakerepo *fakeRepo) Decrement(ctx context.Context, id int64) (Item, error) {
	fakerepo.decrementCalled = true
	fakerepo.decrementID = id
	if fakerepo.decrementErr != nil {
		return Item{}, fakerepo.decrementErr
	}
	return fakerepo.decrementItem, nil
}

func TestService_Create(t *testing.T) {
	t.Run("blank field is rejected without touching the repo", func(t *testing.T) {
		repository := &fakeRepo{}
		service := NewService(repository)

		_, err := service.Create(context.Background(), Details{Name: "", Price: "10.00", Quantity: "5"})

		require.ErrorIs(t, err, ErrorInvalidInput)
		require.False(t, repository.insertCalled, "repo.Insert should not be called on invalid input")
	})

	t.Run("valid draft is converted and inserted", func(t *testing.T) {
		repository := &fakeRepo{}
		service := NewService(repository)

		item, err := service.Create(context.Background(), Details{ID: 99, Name: "Widget", Price: "10.00", Quantity: "5"})

		require.NoError(t, err)
		require.True(t, repository.insertCalled)
		require.Equal(t, Item{ID: 0, Name: "Widget", Price: 10.0, Quantity: 5}, repository.insertItem, "id must be assigned by the store")
		require.Equal(t, int64(42), item.ID)
	})

	t.Run("non numeric price is stored as zero", func(t *testing.T) {
		repository := &fakeRepo{}
		service := NewService(repository)

		_, err := service.Create(context.Background(), Details{Name: "Widget", Price: "abc", Quantity: "5"})

		require.NoError(t, err)
		require.Equal(t, 0.0, repository.insertItem.Price)
		require.Equal(t, 5, repository.insertItem.Quantity)
	})

	t.Run("repo error is returned", func(t *testing.T) {
		errDB := errors.New("db down")
		repository := &fakeRepo{insertErr: errDB}
		service := NewService(repository)

		_, err := service.Create(context.Background(), Details{Name: "Widget", Price: "1", Quantity: "1"})

		require.ErrorIs(t, err, errDB)
		require.True(t, err == errDB, "expected same error instance")
	})
}

func TestService_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		expected := []Item{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
		repository := &fakeRepo{listItems: expected}
		service := NewService(repository)

		list, err := service.List(context.Background())

		require.NoError(t, err)
		require.Equal(t, expected, list)
		require.True(t, repository.listCalled)
	})

	t.Run("repo error", func(t *testing.T) {
		repository := &fakeRepo{listErr: errors.New("list failed")}
		service := NewService(repository)

		list, err := service.List(context.Background())

		require.ErrorIs(t, err, repository.listErr)
		require.Nil(t, list)
	})
}

func TestService_Get(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		repository := &fakeRepo{getErr: ErrorNotFound}
		service := NewService(repository)

		item, err := service.Get(context.Background(), 5)

		require.ErrorIs(t, err, ErrorNotFound)
		require.Equal(t, Item{}, item)
		require.Equal(t, int64(5), repository.getID)
	})

	t.Run("success", func(t *testing.T) {
		expected := Item{ID: 5, Name: "ok", Price: 1, Quantity: 2}
		repository := &fakeRepo{getItem: expected}
		service := NewService(repository)

		item, err := service.Get(context.Background(), 5)

		require.NoError(t, err)
		require.Equal(t, expected, item)
	})
}

func TestService_Update(t *testing.T) {
	t.Run("blank field is rejected", func(t *testing.T) {
		repository := &fakeRepo{}
		service := NewService(repository)

		_, err := service.Update(context.Background(), 3, Details{Name: "x", Price: "", Quantity: "1"})

		require.ErrorIs(t, err, ErrorInvalidInput)
		require.False(t, repository.updateCalled)
	})

	t.Run("path id wins over draft id", func(t *testing.T) {
		repository := &fakeRepo{}
		service := NewService(repository)

		item, err := service.Update(context.Background(), 3, Details{ID: 8, Name: "x", Price: "2.5", Quantity: "4"})

		require.NoError(t, err)
		require.Equal(t, Item{ID: 3, Name: "x", Price: 2.5, Quantity: 4}, repository.updateItem)
		require.Equal(t, int64(3), item.ID)
	})

	t.Run("not found is returned", func(t *testing.T) {
		repository := &fakeRepo{updateErr: ErrorNotFound}
		service := NewService(repository)

		_, err := service.Update(context.Background(), 3, Details{Name: "x", Price: "1", Quantity: "1"})

		require.ErrorIs(t, err, ErrorNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repository := &fakeRepo{}
		service := NewService(repository)

		err := service.Delete(context.Background(), 9)

		require.NoError(t, err)
		require.True(t, repository.deleteCalled)
		require.Equal(t, int64(9), repository.deleteID)
	})

	t.Run("repo error is returned", func(t *testing.T) {
		errorFromDatabase := errors.New("delete failed")
		repository := &fakeRepo{deleteErr: errorFromDatabase}
		service := NewService(repository)

		err := service.Delete(context.Background(), 9)

		require.True(t, err == errorFromDatabase, "expected same error instance")
	})
}

func TestService_Sell(t *testing.T) {
	t.Run("decrements through the store", func(t *testing.T) {
		repository := &fakeRepo{decrementItem: Item{ID: 1, Name: "a", Price: 2, Quantity: 2}}
		service := NewService(repository)

		item, err := service.Sell(context.Background(), 1)

		require.NoError(t, err)
		require.Equal(t, 2, item.Quantity)
		require.Equal(t, int64(1), repository.decrementID)
		require.False(t, repository.getCalled)
		require.False(t, repository.updateCalled)
	})

	t.Run("out of stock", func(t *testing.T) {
		repository := &fakeRepo{decrementErr: ErrorOutOfStock}
		service := NewService(repository)

		_, err := service.Sell(context.Background(), 1)

		require.ErrorIs(t, err, ErrorOutOfStock)
		require.False(t, repository.updateCalled)
	})

	t.Run("missing item", func(t *testing.T) {
		repository := &fakeRepo{decrementErr: ErrorNotFound}
		service := NewService(repository)

		_, err := service.Sell(context.Background(), 1)

		require.ErrorIs(t, err, ErrorNotFound)
		require.False(t, repository.updateCalled)
	})
}

func TestService_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	defer otel.SetTracerProvider(original)

	repository := &fakeRepo{getErr: errors.New("db failed")}
	service := NewService(repository)

	_, err := service.Get(context.Background(), 12)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "items.Get", spans[0].Name())
	require.Equal(t, codes.Error, spans[0].Status().Code)
}
