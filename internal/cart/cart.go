package cart

import (
	"context"
	"time"

	"doorstep-cart/internal/model"
)

// DefaultExpiry is how long a persisted snapshot stays restorable. Snapshots
// older than this are discarded on startup so stale carts vanish silently.
const DefaultExpiry = 24 * time.Hour

// Config holds cart engine configuration.
type Config struct {
	// Expiry is the snapshot expiry window. Zero means DefaultExpiry.
	Expiry time.Duration
}

func (c Config) expiry() time.Duration {
	if c.Expiry <= 0 {
		return DefaultExpiry
	}
	return c.Expiry
}

// Engine owns the authenticated session's order drafts: at most one
// unsubmitted order per restaurant (and, given the conflict policy on
// cross-restaurant adds, at most one unsubmitted order overall). Every
// mutation recomputes the affected order's total and writes through to the
// snapshot store before returning.
type Engine interface {
	// AddOrUpdateItem adds a menu item to the unsubmitted order for its
	// restaurant, creating the order if needed, or bumps the quantity when
	// the item is already present. Adding from a different restaurant while
	// another draft exists fails with model.ErrRestaurantConflict; the
	// caller must resolve the conflict explicitly.
	AddOrUpdateItem(ctx context.Context, item model.MenuItem, quantity int) (model.Order, error)

	// IncreaseOrderItemQuantity bumps the item quantity by 1. Unknown ids
	// are a safe no-op since double-clicks and stale views are expected.
	IncreaseOrderItemQuantity(ctx context.Context, orderID model.DraftID, itemID string) error

	// DecreaseOrderItemQuantity lowers the item quantity by 1. Decrementing
	// from quantity 1 removes the item, and removing the last item removes
	// the whole order. Unknown ids are a safe no-op.
	DecreaseOrderItemQuantity(ctx context.Context, orderID model.DraftID, itemID string) error

	// RemoveOrderItem removes the item unconditionally; an order left with
	// no items is removed rather than kept as an empty shell. Unknown ids
	// are a safe no-op.
	RemoveOrderItem(ctx context.Context, orderID model.DraftID, itemID string) error

	// UpdateOrderStatus moves an order along its lifecycle without touching
	// items or total. This is the only mutation allowed once an order has
	// left the unsubmitted state; invalid transitions are rejected.
	UpdateOrderStatus(ctx context.Context, orderID model.DraftID, status model.Status) error

	// RemoveUnsubmittedOrder hard-deletes a draft, used when the customer
	// abandons a cart. Unknown ids are a safe no-op.
	RemoveUnsubmittedOrder(ctx context.Context, orderID model.DraftID) error

	// PromoteGuestCart merges a guest cart into the session's drafts after
	// login. The cross-restaurant conflict policy applies.
	PromoteGuestCart(ctx context.Context, cart model.GuestCart) (model.Order, error)

	// ClearUserOrders wipes the whole collection, used on logout.
	ClearUserOrders(ctx context.Context) error

	// Orders returns a copy of the current collection.
	Orders() []model.Order

	// Order returns a copy of a single order by draft id.
	Order(orderID model.DraftID) (model.Order, bool)

	// Subscribe registers a listener invoked with a copy of the collection
	// after every mutation. The returned function unsubscribes it.
	Subscribe(fn func([]model.Order)) func()
}

// GuestEngine owns the unauthenticated session's cart: a single list of
// items bound to one restaurant at a time.
type GuestEngine interface {
	// AddItem adds a menu item to the guest cart. It returns false without
	// mutating anything when the cart is already bound to a different
	// restaurant; that conflict is the caller's to resolve.
	AddItem(ctx context.Context, item model.MenuItem, quantity int) (bool, error)

	// IncreaseItemQuantity bumps the item quantity by 1. Unknown ids are a
	// safe no-op.
	IncreaseItemQuantity(ctx context.Context, itemID string) error

	// DecreaseItemQuantity lowers the item quantity by 1, removing the item
	// at zero. Removing the last item unbinds the restaurant.
	DecreaseItemQuantity(ctx context.Context, itemID string) error

	// RemoveItem removes the item unconditionally. Unknown ids are a safe
	// no-op.
	RemoveItem(ctx context.Context, itemID string) error

	// Clear resets the cart, called after the promoted cart has been handed
	// to the authenticated engine so it is not duplicated.
	Clear(ctx context.Context) error

	// Cart returns a copy of the current guest cart.
	Cart() model.GuestCart
}
