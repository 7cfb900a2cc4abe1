package model

import (
	"github.com/google/uuid"
)

// DraftID is a client-generated identifier for a locally held order draft.
// It has no server correlation until checkout succeeds; the server's order
// id is a separate value and must never be conflated with this one.
type DraftID string

// NewDraftID generates a fresh local draft identifier.
func NewDraftID() DraftID {
	return DraftID(uuid.NewString())
}

// OrderType distinguishes delivery orders from pickup orders.
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// OrderItem is a menu item plus the quantity the customer selected.
// Quantity is always >= 1; an item whose quantity would reach 0 is removed
// from its parent order instead of being stored at zero.
type OrderItem struct {
	MenuItem
	Quantity int `json:"quantity"`
}

// Order is a single-restaurant order aggregate. While Status is
// StatusUnsubmitted the order is a locally mutable cart draft; after the
// first transition away it is read-only from the cart engine's perspective.
type Order struct {
	ID           DraftID     `json:"id"`
	RestaurantID string      `json:"restaurantId"`
	Items        []OrderItem `json:"items"`
	Status       Status      `json:"status"`
	Total        string      `json:"total"`
}

// Item returns a pointer to the order item with the given menu-item id,
// or nil when absent.
func (o *Order) Item(itemID string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// RecomputeTotal recalculates the order total from scratch over all items.
// Totals are never patched incrementally; a full recompute after every
// mutation keeps the stored value from drifting.
func (o *Order) RecomputeTotal() error {
	total, err := ItemsTotal(o.Items)
	if err != nil {
		return err
	}
	o.Total = total
	return nil
}

// GuestCart is the pre-authentication cart: a degenerate single-order
// structure bound to one restaurant. An empty RestaurantID means the cart
// is unbound and the next added item may target any restaurant.
type GuestCart struct {
	RestaurantID string      `json:"restaurantId"`
	Items        []OrderItem `json:"items"`
}

// IsEmpty reports whether the guest cart holds no items.
func (c GuestCart) IsEmpty() bool {
	return len(c.Items) == 0
}
