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

// engine implements Engine backed by a snapshot store.
type engine struct {
	mu        sync.Mutex
	orders    []model.Order
	snapshots *store.SnapshotStore
	logger    zerolog.Logger

	subs    map[int]func([]model.Order)
	nextSub int
}

// New creates a cart engine, restoring any unexpired snapshot from the
// store. A missing, expired or unreadable snapshot yields an empty engine;
// losing a cart is preferred over refusing to start the session.
func New(ctx context.Context, snapshots *store.SnapshotStore, cfg Config, logger zerolog.Logger) Engine {
	e := &engine{
		snapshots: snapshots,
		logger:    logger.With().Str("component", "cart-engine").Logger(),
		subs:      make(map[int]func([]model.Order)),
	}
	e.restore(ctx, cfg.expiry())
	return e
}

// restore seeds the in-memory collection from the persisted snapshot.
func (e *engine) restore(ctx context.Context, expiry time.Duration) {
	snap, err := e.snapshots.LoadOrders(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("discarding unreadable order snapshot, starting empty")
		return
	}
	if snap == nil {
		return
	}

	if age := snap.Age(time.Now()); age > expiry {
		e.logger.Info().
			Dur("age", age).
			Dur("expiry", expiry).
			Msg("order snapshot expired, starting empty")
		return
	}

	restored := make([]model.Order, 0, len(snap.Orders))
	for _, order := range snap.Orders {
		// A placed order must not resurrect as a mutable cart, whatever a
		// stale snapshot says.
		if order.Status != model.StatusUnsubmitted {
			continue
		}
		if err := order.RecomputeTotal(); err != nil {
			e.logger.Warn().
				Err(err).
				Str("order_id", string(order.ID)).
				Msg("dropping snapshot order with unparseable prices")
			continue
		}
		restored = append(restored, order)
	}

	e.orders = restored
	e.logger.Info().Int("order_count", len(restored)).Msg("order snapshot restored")
}

// AddOrUpdateItem adds a menu item to the draft for its restaurant.
func (e *engine) AddOrUpdateItem(ctx context.Context, item model.MenuItem, quantity int) (model.Order, error) {
	if quantity < 1 {
		return model.Order{}, model.ErrInvalidQuantity
	}
	if !item.IsAvailable {
		return model.Order{}, model.ErrItemUnavailable
	}
	if _, err := model.ParsePrice(item.Price); err != nil {
		return model.Order{}, fmt.Errorf("menu item %s: %w", item.ID, err)
	}

	e.mu.Lock()

	idx := e.findUnsubmitted()
	if idx >= 0 && e.orders[idx].RestaurantID != item.RestaurantID {
		e.mu.Unlock()
		return model.Order{}, model.ErrRestaurantConflict
	}

	var order *model.Order
	if idx >= 0 {
		order = &e.orders[idx]
		if existing := order.Item(item.ID); existing != nil {
			existing.Quantity += quantity
		} else {
			order.Items = append(order.Items, model.OrderItem{MenuItem: item, Quantity: quantity})
		}
	} else {
		e.orders = append(e.orders, model.Order{
			ID:           model.NewDraftID(),
			RestaurantID: item.RestaurantID,
			Items:        []model.OrderItem{{MenuItem: item, Quantity: quantity}},
			Status:       model.StatusUnsubmitted,
		})
		order = &e.orders[len(e.orders)-1]
	}

	if err := order.RecomputeTotal(); err != nil {
		// Unreachable after the parse check above, but never persist a
		// total we could not compute.
		e.mu.Unlock()
		return model.Order{}, err
	}

	result := cloneOrder(*order)
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()

	e.logger.Debug().
		Str("order_id", string(result.ID)).
		Str("menu_item_id", item.ID).
		Int("quantity", quantity).
		Msg("item added to cart")

	return result, nil
}

// IncreaseOrderItemQuantity bumps an item quantity by 1.
func (e *engine) IncreaseOrderItemQuantity(ctx context.Context, orderID model.DraftID, itemID string) error {
	return e.adjustQuantity(ctx, orderID, itemID, +1)
}

// DecreaseOrderItemQuantity lowers an item quantity by 1, removing the item
// at zero and the order when its last item goes.
func (e *engine) DecreaseOrderItemQuantity(ctx context.Context, orderID model.DraftID, itemID string) error {
	return e.adjustQuantity(ctx, orderID, itemID, -1)
}

func (e *engine) adjustQuantity(ctx context.Context, orderID model.DraftID, itemID string, delta int) error {
	e.mu.Lock()

	idx := e.findOrder(orderID)
	if idx < 0 || e.orders[idx].Status != model.StatusUnsubmitted {
		e.mu.Unlock()
		return nil
	}

	order := &e.orders[idx]
	item := order.Item(itemID)
	if item == nil {
		e.mu.Unlock()
		return nil
	}

	item.Quantity += delta
	if item.Quantity < 1 {
		e.removeItemLocked(idx, itemID)
	} else if err := order.RecomputeTotal(); err != nil {
		e.mu.Unlock()
		return err
	}

	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()
	return nil
}

// RemoveOrderItem removes an item unconditionally.
func (e *engine) RemoveOrderItem(ctx context.Context, orderID model.DraftID, itemID string) error {
	e.mu.Lock()

	idx := e.findOrder(orderID)
	if idx < 0 || e.orders[idx].Status != model.StatusUnsubmitted || e.orders[idx].Item(itemID) == nil {
		e.mu.Unlock()
		return nil
	}

	e.removeItemLocked(idx, itemID)
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()
	return nil
}

// removeItemLocked deletes an item from the order at idx, pruning the order
// itself when it would be left empty. Caller holds the lock.
func (e *engine) removeItemLocked(idx int, itemID string) {
	order := &e.orders[idx]

	items := order.Items[:0]
	for _, item := range order.Items {
		if item.ID != itemID {
			items = append(items, item)
		}
	}
	order.Items = items

	if len(order.Items) == 0 {
		e.orders = append(e.orders[:idx], e.orders[idx+1:]...)
		return
	}

	if err := order.RecomputeTotal(); err != nil {
		e.logger.Error().
			Err(err).
			Str("order_id", string(order.ID)).
			Msg("failed to recompute total after item removal")
	}
}

// UpdateOrderStatus moves an order along its lifecycle. The engine itself
// only ever drives unsubmitted -> Order Placed; later transitions arrive
// from server-pushed state.
func (e *engine) UpdateOrderStatus(ctx context.Context, orderID model.DraftID, status model.Status) error {
	e.mu.Lock()

	idx := e.findOrder(orderID)
	if idx < 0 {
		e.mu.Unlock()
		return model.ErrOrderNotFound
	}

	current := e.orders[idx].Status
	if !current.CanTransition(status) {
		e.mu.Unlock()
		e.logger.Warn().
			Str("order_id", string(orderID)).
			Str("from", string(current)).
			Str("to", string(status)).
			Msg("rejected invalid status transition")
		return fmt.Errorf("invalid status transition from %q to %q", current, status)
	}

	e.orders[idx].Status = status
	// Persisting after the transition drops the order from the snapshot,
	// since only unsubmitted drafts are ever written.
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()

	e.logger.Info().
		Str("order_id", string(orderID)).
		Str("status", string(status)).
		Msg("order status updated")
	return nil
}

// RemoveUnsubmittedOrder hard-deletes a draft.
func (e *engine) RemoveUnsubmittedOrder(ctx context.Context, orderID model.DraftID) error {
	e.mu.Lock()

	idx := e.findOrder(orderID)
	if idx < 0 || e.orders[idx].Status != model.StatusUnsubmitted {
		e.mu.Unlock()
		return nil
	}

	e.orders = append(e.orders[:idx], e.orders[idx+1:]...)
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()

	e.logger.Info().Str("order_id", string(orderID)).Msg("unsubmitted order removed")
	return nil
}

// PromoteGuestCart merges a guest cart into the session's drafts.
func (e *engine) PromoteGuestCart(ctx context.Context, cart model.GuestCart) (model.Order, error) {
	if cart.IsEmpty() {
		return model.Order{}, fmt.Errorf("guest cart is empty")
	}

	e.mu.Lock()

	idx := e.findUnsubmitted()
	if idx >= 0 && e.orders[idx].RestaurantID != cart.RestaurantID {
		e.mu.Unlock()
		return model.Order{}, model.ErrRestaurantConflict
	}

	var order *model.Order
	if idx >= 0 {
		order = &e.orders[idx]
	} else {
		e.orders = append(e.orders, model.Order{
			ID:           model.NewDraftID(),
			RestaurantID: cart.RestaurantID,
			Status:       model.StatusUnsubmitted,
		})
		order = &e.orders[len(e.orders)-1]
	}

	for _, item := range cart.Items {
		if existing := order.Item(item.ID); existing != nil {
			existing.Quantity += item.Quantity
		} else {
			order.Items = append(order.Items, item)
		}
	}

	if err := order.RecomputeTotal(); err != nil {
		e.mu.Unlock()
		return model.Order{}, fmt.Errorf("promoting guest cart: %w", err)
	}

	result := cloneOrder(*order)
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()

	e.logger.Info().
		Str("order_id", string(result.ID)).
		Int("item_count", len(result.Items)).
		Msg("guest cart promoted")
	return result, nil
}

// ClearUserOrders wipes the collection, used on logout.
func (e *engine) ClearUserOrders(ctx context.Context) error {
	e.mu.Lock()
	e.orders = nil
	e.persistLocked(ctx)
	e.mu.Unlock()
	e.notify()

	e.logger.Info().Msg("user orders cleared")
	return nil
}

// Orders returns a copy of the current collection.
func (e *engine) Orders() []model.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneOrders(e.orders)
}

// Order returns a copy of a single order by draft id.
func (e *engine) Order(orderID model.DraftID) (model.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.findOrder(orderID)
	if idx < 0 {
		return model.Order{}, false
	}
	return cloneOrder(e.orders[idx]), true
}

// Subscribe registers a change listener.
func (e *engine) Subscribe(fn func([]model.Order)) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// notify invokes subscribers with a copy of the collection, outside the
// lock so a listener can call back into the engine.
func (e *engine) notify() {
	e.mu.Lock()
	if len(e.subs) == 0 {
		e.mu.Unlock()
		return
	}
	snapshot := cloneOrders(e.orders)
	listeners := make([]func([]model.Order), 0, len(e.subs))
	for _, fn := range e.subs {
		listeners = append(listeners, fn)
	}
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(cloneOrders(snapshot))
	}
}

// persistLocked writes the unsubmitted subset through to the store. A
// failed write is logged and the session carries on; losing a snapshot is
// preferred over failing the mutation the customer just made.
func (e *engine) persistLocked(ctx context.Context) {
	unsubmitted := make([]model.Order, 0, len(e.orders))
	for _, order := range e.orders {
		if order.Status == model.StatusUnsubmitted {
			unsubmitted = append(unsubmitted, cloneOrder(order))
		}
	}

	if err := e.snapshots.SaveOrders(ctx, unsubmitted); err != nil {
		e.logger.Error().Err(err).Msg("failed to persist order snapshot")
	}
}

// findUnsubmitted returns the index of the unsubmitted draft, or -1.
func (e *engine) findUnsubmitted() int {
	for i := range e.orders {
		if e.orders[i].Status == model.StatusUnsubmitted {
			return i
		}
	}
	return -1
}

// findOrder returns the index of the order with the given id, or -1.
func (e *engine) findOrder(orderID model.DraftID) int {
	for i := range e.orders {
		if e.orders[i].ID == orderID {
			return i
		}
	}
	return -1
}

// cloneOrder deep-copies an order so callers never share item slices with
// the engine's internal state.
func cloneOrder(o model.Order) model.Order {
	items := make([]model.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

// cloneOrders deep-copies an order slice.
func cloneOrders(orders []model.Order) []model.Order {
	out := make([]model.Order, len(orders))
	for i, o := range orders {
		out[i] = cloneOrder(o)
	}
	return out
}
