package integration

import (
	"context"
	"testing"

	"doorstep-cart/internal/cart"
	"doorstep-cart/internal/model"
	"doorstep-cart/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresKV(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	ctx := context.Background()

	kv, err := store.NewPostgres(ctx, db.Pool, zerolog.Nop())
	require.NoError(t, err)

	t.Run("AbsentKey", func(t *testing.T) {
		CleanupDB(t, db.Pool)

		_, ok, err := kv.Get(ctx, store.KeyOrders)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("PutGetOverwrite", func(t *testing.T) {
		CleanupDB(t, db.Pool)

		require.NoError(t, kv.Put(ctx, store.KeyOrders, []byte(`{"v":1}`)))
		data, ok, err := kv.Get(ctx, store.KeyOrders)
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"v":1}`, string(data))

		require.NoError(t, kv.Put(ctx, store.KeyOrders, []byte(`{"v":2}`)))
		data, _, err = kv.Get(ctx, store.KeyOrders)
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(data))
	})

	t.Run("Delete", func(t *testing.T) {
		CleanupDB(t, db.Pool)

		require.NoError(t, kv.Put(ctx, store.KeyGuestCart, []byte(`{}`)))
		require.NoError(t, kv.Delete(ctx, store.KeyGuestCart))

		_, ok, err := kv.Get(ctx, store.KeyGuestCart)
		require.NoError(t, err)
		assert.False(t, ok)

		// Deleting again is a no-op.
		assert.NoError(t, kv.Delete(ctx, store.KeyGuestCart))
	})
}

func TestCartEngineOverPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	ctx := context.Background()
	logger := zerolog.Nop()

	kv, err := store.NewPostgres(ctx, db.Pool, logger)
	require.NoError(t, err)
	snapshots := store.NewSnapshotStore(kv, logger)

	engine := cart.New(ctx, snapshots, cart.Config{}, logger)
	order, err := engine.AddOrUpdateItem(ctx, model.MenuItem{
		ID:           "m1",
		RestaurantID: "r1",
		Name:         "Jollof Rice",
		Price:        "10.00",
		IsAvailable:  true,
	}, 2)
	require.NoError(t, err)

	// A fresh engine over the same database restores the draft.
	restored := cart.New(ctx, store.NewSnapshotStore(kv, logger), cart.Config{}, logger)
	orders := restored.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
	assert.Equal(t, "20.00", orders[0].Total)

	// Placing the order prunes it from the database snapshot.
	require.NoError(t, restored.UpdateOrderStatus(ctx, order.ID, model.StatusPlaced))

	snap, err := snapshots.LoadOrders(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.Orders)
}

func TestGuestCartOverPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	ctx := context.Background()
	logger := zerolog.Nop()

	kv, err := store.NewPostgres(ctx, db.Pool, logger)
	require.NoError(t, err)

	guest := cart.NewGuest(ctx, store.NewSnapshotStore(kv, logger), cart.Config{}, logger)
	ok, err := guest.AddItem(ctx, model.MenuItem{
		ID:           "m1",
		RestaurantID: "r1",
		Name:         "Suya",
		Price:        "7.50",
		IsAvailable:  true,
	}, 1)
	require.NoError(t, err)
	require.True(t, ok)

	restored := cart.NewGuest(ctx, store.NewSnapshotStore(kv, logger), cart.Config{}, logger)
	restoredCart := restored.Cart()
	assert.Equal(t, "r1", restoredCart.RestaurantID)
	require.Len(t, restoredCart.Items, 1)
	assert.Equal(t, "m1", restoredCart.Items[0].ID)
}
