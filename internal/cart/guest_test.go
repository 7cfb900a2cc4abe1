package cart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"doorstep-cart/internal/model"
	"doorstep-cart/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuestEngine(t *testing.T) (GuestEngine, store.KV) {
	t.Helper()
	kv, snapshots := newTestStore(t)
	return NewGuest(context.Background(), snapshots, Config{}, zerolog.Nop()), kv
}

func TestGuestEngine_AddBindsRestaurant(t *testing.T) {
	guest, _ := newTestGuestEngine(t)
	ctx := context.Background()

	ok, err := guest.AddItem(ctx, menuItem("m1", "r1", "10.00"), 2)
	require.NoError(t, err)
	assert.True(t, ok)

	cart := guest.Cart()
	assert.Equal(t, "r1", cart.RestaurantID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestGuestEngine_AddConflictSignalsFalse(t *testing.T) {
	guest, _ := newTestGuestEngine(t)
	ctx := context.Background()

	_, err := guest.AddItem(ctx, menuItem("m1", "r1", "10.00"), 1)
	require.NoError(t, err)

	// A different restaurant is reported as an ordinary false so the caller
	// can prompt the customer, not as an error.
	ok, err := guest.AddItem(ctx, menuItem("m2", "r2", "5.00"), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	cart := guest.Cart()
	assert.Equal(t, "r1", cart.RestaurantID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "m1", cart.Items[0].ID)
}

func TestGuestEngine_AddMergesQuantities(t *testing.T) {
	guest, _ := newTestGuestEngine(t)
	ctx := context.Background()

	_, err := guest.AddItem(ctx, menuItem("m1", "r1", "10.00"), 1)
	require.NoError(t, err)
	_, err = guest.AddItem(ctx, menuItem("m1", "r1", "10.00"), 2)
	require.NoError(t, err)

	cart := guest.Cart()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestGuestEngine_AddRejectsInvalidInput(t *testing.T) {
	guest, _ := newTestGuestEngine(t)
	ctx := context.Background()

	_, err := guest.AddItem(ctx, menuItem("m1", "r1", "10.00"), 0)
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)

	unavailable := menuItem("m1", "r1", "10.00")
	unavailable.IsAvailable = false
	_, err = guest.AddItem(ctx, unavailable, 1)
	assert.ErrorIs(t, err, model.ErrItemUnavailable)

	assert.True(t, guest.Cart().IsEmpty())
}

func TestGuestEngine_DecreaseRemovesAtZero(t *testing.T) {
	guest, _ := newTestGuestEngine(t)
	ctx := context.Background()

	_, err := guest.AddItem(ctx, menuItem("m1", "r1", "10.00"), 2)
	require.NoError(t, err)

	require.NoError(t, guest.DecreaseItemQuantity(ctx, "m1"))
	require.Len(t, guest.Cart().Items, 1)
	assert.Equal(t, 1, guest.Cart().Items[0].Quantity)

	require.NoError(t, guest.DecreaseItemQuantity(ctx, "m1"))
	assert.True(t, guest.Cart().IsEmpty())
}

func TestGuestEngine_LastRemovalResetsBinding(t *testing.T) {
	guest, _ := newTestGuestEngine(t)
	ctx := context.Background()

	_, err := guest.AddItem(ctx, menuItem("m1", "r1", "10.00"), 1)
	require.NoError(t, err)
	require.NoError(t, guest.RemoveItem(ctx, "m1"))

	assert.Empty(t, guest.Cart().RestaurantID)

	// With the binding gone any restaurant may be added again.
	ok, err := guest.AddItem(ctx, menuItem("m9", "r2", "5.00"), 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "r2", guest.Cart().RestaurantID)
}

func TestGuestEngine_UnknownItemMutationsAreNoops(t *testing.T) {
	guest, _ := newTestGuestEngine(t)
	ctx := context.Background()

	_, err := guest.AddItem(ctx, menuItem("m1", "r1", "10.00"), 1)
	require.NoError(t, err)

	assert.NoError(t, guest.IncreaseItemQuantity(ctx, "missing"))
	assert.NoError(t, guest.DecreaseItemQuantity(ctx, "missing"))
	assert.NoError(t, guest.RemoveItem(ctx, "missing"))

	require.Len(t, guest.Cart().Items, 1)
	assert.Equal(t, 1, guest.Cart().Items[0].Quantity)
}

func TestGuestEngine_Clear(t *testing.T) {
	guest, _ := newTestGuestEngine(t)
	ctx := context.Background()

	_, err := guest.AddItem(ctx, menuItem("m1", "r1", "10.00"), 1)
	require.NoError(t, err)

	require.NoError(t, guest.Clear(ctx))
	assert.True(t, guest.Cart().IsEmpty())
	assert.Empty(t, guest.Cart().RestaurantID)
}

func TestGuestEngine_RestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, snapshots := newTestStore(t)

	first := NewGuest(ctx, snapshots, Config{}, zerolog.Nop())
	_, err := first.AddItem(ctx, menuItem("m1", "r1", "10.00"), 2)
	require.NoError(t, err)

	second := NewGuest(ctx, store.NewSnapshotStore(kv, zerolog.Nop()), Config{}, zerolog.Nop())
	assert.Equal(t, first.Cart(), second.Cart())
}

func TestGuestEngine_RestoreExpiry(t *testing.T) {
	tests := []struct {
		name      string
		age       time.Duration
		wantEmpty bool
	}{
		{name: "Fresh snapshot restored", age: 1 * time.Hour, wantEmpty: false},
		{name: "Expired snapshot discarded", age: 25 * time.Hour, wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv, snapshots := newTestStore(t)

			snap := store.GuestSnapshot{
				Timestamp: time.Now().Add(-tt.age).UnixMilli(),
				Cart: model.GuestCart{
					RestaurantID: "r1",
					Items:        []model.OrderItem{{MenuItem: menuItem("m1", "r1", "10.00"), Quantity: 1}},
				},
			}
			data, err := json.Marshal(snap)
			require.NoError(t, err)
			require.NoError(t, kv.Put(ctx, store.KeyGuestCart, data))

			guest := NewGuest(ctx, snapshots, Config{}, zerolog.Nop())
			assert.Equal(t, tt.wantEmpty, guest.Cart().IsEmpty())
		})
	}
}

func TestGuestEngine_RestoreCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	kv, snapshots := newTestStore(t)

	require.NoError(t, kv.Put(ctx, store.KeyGuestCart, []byte("{not json")))

	guest := NewGuest(ctx, snapshots, Config{}, zerolog.Nop())
	assert.True(t, guest.Cart().IsEmpty())
}
