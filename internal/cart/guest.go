package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"doorstep-cart/internal/model"
	"doorstep-cart/internal/store"

	"github.com/rs/zerolog"
)

// guestEngine implements GuestEngine backed by the snapshot store.
type guestEngine struct {
	mu        sync.Mutex
	cart      model.GuestCart
	snapshots *store.SnapshotStore
	logger    zerolog.Logger
}

// NewGuest creates a guest cart engine, restoring any unexpired snapshot.
func NewGuest(ctx context.Context, snapshots *store.SnapshotStore, cfg Config, logger zerolog.Logger) GuestEngine {
	g := &guestEngine{
		snapshots: snapshots,
		logger:    logger.With().Str("component", "guest-cart-engine").Logger(),
	}
	g.restore(ctx, cfg.expiry())
	return g
}

func (g *guestEngine) restore(ctx context.Context, expiry time.Duration) {
	snap, err := g.snapshots.LoadGuestCart(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("discarding unreadable guest cart snapshot, starting empty")
		return
	}
	if snap == nil {
		return
	}

	if age := snap.Age(time.Now()); age > expiry {
		g.logger.Info().
			Dur("age", age).
			Dur("expiry", expiry).
			Msg("guest cart snapshot expired, starting empty")
		return
	}

	g.cart = snap.Cart
	if g.cart.IsEmpty() {
		// An empty snapshot must not keep an old restaurant binding alive.
		g.cart.RestaurantID = ""
	}
	g.logger.Info().Int("item_count", len(g.cart.Items)).Msg("guest cart snapshot restored")
}

// AddItem adds a menu item to the guest cart. A false return is the
// cross-restaurant conflict signal, not an error.
func (g *guestEngine) AddItem(ctx context.Context, item model.MenuItem, quantity int) (bool, error) {
	if quantity < 1 {
		return false, model.ErrInvalidQuantity
	}
	if !item.IsAvailable {
		return false, model.ErrItemUnavailable
	}
	if _, err := model.ParsePrice(item.Price); err != nil {
		return false, fmt.Errorf("menu item %s: %w", item.ID, err)
	}

	g.mu.Lock()

	if g.cart.RestaurantID != "" && g.cart.RestaurantID != item.RestaurantID {
		g.mu.Unlock()
		return false, nil
	}

	g.cart.RestaurantID = item.RestaurantID
	if existing := g.findItem(item.ID); existing != nil {
		existing.Quantity += quantity
	} else {
		g.cart.Items = append(g.cart.Items, model.OrderItem{MenuItem: item, Quantity: quantity})
	}

	g.persistLocked(ctx)
	g.mu.Unlock()

	g.logger.Debug().
		Str("menu_item_id", item.ID).
		Int("quantity", quantity).
		Msg("item added to guest cart")
	return true, nil
}

// IncreaseItemQuantity bumps an item quantity by 1.
func (g *guestEngine) IncreaseItemQuantity(ctx context.Context, itemID string) error {
	return g.adjustQuantity(ctx, itemID, +1)
}

// DecreaseItemQuantity lowers an item quantity by 1, removing it at zero.
func (g *guestEngine) DecreaseItemQuantity(ctx context.Context, itemID string) error {
	return g.adjustQuantity(ctx, itemID, -1)
}

func (g *guestEngine) adjustQuantity(ctx context.Context, itemID string, delta int) error {
	g.mu.Lock()

	item := g.findItem(itemID)
	if item == nil {
		g.mu.Unlock()
		return nil
	}

	item.Quantity += delta
	if item.Quantity < 1 {
		g.removeItemLocked(itemID)
	}

	g.persistLocked(ctx)
	g.mu.Unlock()
	return nil
}

// RemoveItem removes an item unconditionally.
func (g *guestEngine) RemoveItem(ctx context.Context, itemID string) error {
	g.mu.Lock()

	if g.findItem(itemID) == nil {
		g.mu.Unlock()
		return nil
	}

	g.removeItemLocked(itemID)
	g.persistLocked(ctx)
	g.mu.Unlock()
	return nil
}

// removeItemLocked deletes an item; when the last item goes the restaurant
// binding is reset so a future add can target any restaurant.
func (g *guestEngine) removeItemLocked(itemID string) {
	items := g.cart.Items[:0]
	for _, item := range g.cart.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	g.cart.Items = items

	if len(g.cart.Items) == 0 {
		g.cart = model.GuestCart{}
	}
}

// Clear resets the cart.
func (g *guestEngine) Clear(ctx context.Context) error {
	g.mu.Lock()
	g.cart = model.GuestCart{}
	g.persistLocked(ctx)
	g.mu.Unlock()

	g.logger.Info().Msg("guest cart cleared")
	return nil
}

// Cart returns a copy of the current guest cart.
func (g *guestEngine) Cart() model.GuestCart {
	g.mu.Lock()
	defer g.mu.Unlock()

	cart := g.cart
	cart.Items = make([]model.OrderItem, len(g.cart.Items))
	copy(cart.Items, g.cart.Items)
	return cart
}

func (g *guestEngine) persistLocked(ctx context.Context) {
	if err := g.snapshots.SaveGuestCart(ctx, g.cart); err != nil {
		g.logger.Error().Err(err).Msg("failed to persist guest cart snapshot")
	}
}

func (g *guestEngine) findItem(itemID string) *model.OrderItem {
	for i := range g.cart.Items {
		if g.cart.Items[i].ID == itemID {
			return &g.cart.Items[i]
		}
	}
	return nil
}
