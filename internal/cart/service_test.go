package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/signal"
)

type fakeBackend struct {
	values map[string]string
	getErr error
	setErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{values: map[string]string{}}
}

func (f *fakeBackend) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	val, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return val, nil
}

func (f *fakeBackend) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value.(string)
	return nil
}

func (f *fakeBackend) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeBackend) CartKey(ownerID string) string {
	return "fc:cart:" + ownerID
}

func newTestService(t *testing.T) (Service, *fakeBackend, *signal.Hub) {
	t.Helper()
	backend := newFakeBackend()
	hub := signal.NewHub()
	logg := logger.New(logger.Options{ServiceName: "cart-test", Level: zerolog.ErrorLevel})
	svc, err := NewService(backend, hub, logg)
	require.NoError(t, err)
	return svc, backend, hub
}

func TestLoadEmptyCart(t *testing.T) {
	svc, _, _ := newTestService(t)

	lines, err := svc.Load(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestAddMergesByProduct(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	product := uuid.New()

	lines, err := svc.Add(context.Background(), owner, Line{ProductID: product, Name: "Rose Bouquet", UnitPriceCents: 129900, Qty: 1})
	require.NoError(t, err)
	require.Len(t, lines, 1)

	lines, err = svc.Add(context.Background(), owner, Line{ProductID: product, Name: "Rose Bouquet", UnitPriceCents: 129900, Qty: 2})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Qty)

	count, err := svc.Count(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestAddDefaultsQtyToOne(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()

	lines, err := svc.Add(context.Background(), owner, Line{ProductID: uuid.New(), Name: "Tulips"})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Qty)
}

func TestAddWithoutProductKeysByName(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()

	lines, err := svc.Add(context.Background(), owner, Line{Name: "Hand-tied Posy", UnitPriceCents: 5000})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.NotEqual(t, uuid.Nil, lines[0].ID)
	assert.Equal(t, 1, lines[0].Qty)

	generated := lines[0].ID
	lines, err = svc.Add(context.Background(), owner, Line{Name: "Hand-tied Posy", UnitPriceCents: 5000})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, generated, lines[0].ID)
	assert.Equal(t, 2, lines[0].Qty)

	lines, err = svc.Add(context.Background(), owner, Line{Name: "Dried Wreath", UnitPriceCents: 8000})
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestAddRequiresProductOrName(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Add(context.Background(), uuid.New(), Line{UnitPriceCents: 5000, Qty: 1})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAddAssignsProductIDAsLineID(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	product := uuid.New()

	lines, err := svc.Add(context.Background(), owner, Line{ProductID: product, Name: "Peonies", Qty: 1})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, product, lines[0].ID)
}

func TestUpdateQtySetsQuantity(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	product := uuid.New()

	_, err := svc.Add(context.Background(), owner, Line{ProductID: product, Name: "Sunflowers", Qty: 1})
	require.NoError(t, err)

	lines, err := svc.UpdateQty(context.Background(), owner, product, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, lines[0].Qty)
}

func TestUpdateQtyRejectsNonPositive(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	product := uuid.New()

	_, err := svc.Add(context.Background(), owner, Line{ProductID: product, Name: "Sunflowers", Qty: 2})
	require.NoError(t, err)

	_, err = svc.UpdateQty(context.Background(), owner, product, 0)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// the line is untouched, removal stays an explicit call
	lines, err := svc.Load(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Qty)
}

func TestUpdateQtyMatchesByLineID(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()

	lines, err := svc.Add(context.Background(), owner, Line{Name: "Hand-tied Posy", Qty: 1})
	require.NoError(t, err)

	lines, err = svc.UpdateQty(context.Background(), owner, lines[0].ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, lines[0].Qty)
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	product := uuid.New()
	kept := uuid.New()

	_, err := svc.Add(context.Background(), owner, Line{ProductID: product, Name: "Roses", Qty: 2})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), owner, Line{ProductID: kept, Name: "Lilies", Qty: 1})
	require.NoError(t, err)

	first, err := svc.Remove(context.Background(), owner, product)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.Remove(context.Background(), owner, product)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCartRoundTripsThroughStore(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()

	added, err := svc.Add(context.Background(), owner, Line{
		ProductID:      uuid.New(),
		Name:           "Red Roses",
		ImageURL:       "https://cdn.example.com/roses.jpg",
		UnitPriceCents: 150000,
		Qty:            2,
	})
	require.NoError(t, err)
	added, err = svc.Add(context.Background(), owner, Line{Name: "Hand-tied Posy", UnitPriceCents: 5000, Qty: 1})
	require.NoError(t, err)

	loaded, err := svc.Load(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, added, loaded)
}

func TestUpdateQtyUnknownLine(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.UpdateQty(context.Background(), uuid.New(), uuid.New(), 2)
	assert.Error(t, err)
}

func TestPruneKeepsUnpurchasedLines(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()
	bought := uuid.New()
	kept := uuid.New()

	_, err := svc.Add(context.Background(), owner, Line{ProductID: bought, Name: "Roses", Qty: 2})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), owner, Line{ProductID: kept, Name: "Lilies", Qty: 1})
	require.NoError(t, err)

	lines, err := svc.Prune(context.Background(), owner, []uuid.UUID{bought})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, kept, lines[0].ProductID)
}

func TestClearEmptiesCart(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := uuid.New()

	_, err := svc.Add(context.Background(), owner, Line{ProductID: uuid.New(), Name: "Roses", Qty: 2})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), owner))

	lines, err := svc.Load(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCorruptPayloadTreatedAsEmpty(t *testing.T) {
	svc, backend, _ := newTestService(t)
	owner := uuid.New()
	backend.values[backend.CartKey(owner.String())] = "{{{not json"

	lines, err := svc.Load(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// a write after corruption starts from the empty state
	lines, err = svc.Add(context.Background(), owner, Line{ProductID: uuid.New(), Name: "Orchids", Qty: 1})
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestWritesPublishChangeSignal(t *testing.T) {
	svc, _, hub := newTestService(t)
	owner := uuid.New()

	ch, cancel := hub.Subscribe(signal.TopicCart, owner.String())
	defer cancel()

	_, err := svc.Add(context.Background(), owner, Line{ProductID: uuid.New(), Name: "Daisies", Qty: 1})
	require.NoError(t, err)

	select {
	case event := <-ch:
		assert.Equal(t, owner.String(), event.OwnerID)
	case <-time.After(time.Second):
		t.Fatal("expected a cart change signal")
	}
}

func TestBackendFailureSurfacesDependencyError(t *testing.T) {
	svc, backend, _ := newTestService(t)
	backend.getErr = errors.New("redis down")

	_, err := svc.Load(context.Background(), uuid.New())
	assert.Error(t, err)
}
