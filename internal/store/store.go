package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"doorstep-cart/internal/model"

	"github.com/rs/zerolog"
)

// Durable store keys. These mirror the browser local-storage keys the web
// client uses, so a snapshot written by either side is recognisable.
const (
	KeyOrders          = "doorstepOrders"
	KeyGuestCart       = "doorstepGuestCart"
	KeySelectedAddress = "doorstepSelectedAddress"
)

// KV is a durable key-value store. Implementations exist for the local
// file system, PostgreSQL, S3 and in-memory (tests).
type KV interface {
	// Get retrieves the value for a key. The boolean reports whether the
	// key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores the value for a key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// OrderSnapshot is the persisted form of the unsubmitted-order working set.
// Timestamp is epoch milliseconds of the write and drives the expiry check
// on restore.
type OrderSnapshot struct {
	Timestamp int64         `json:"timestamp"`
	Orders    []model.Order `json:"orders"`
}

// Age returns how long ago the snapshot was written.
func (s *OrderSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(s.Timestamp))
}

// GuestSnapshot is the persisted form of the guest cart.
type GuestSnapshot struct {
	Timestamp int64           `json:"timestamp"`
	Cart      model.GuestCart `json:"cart"`
}

// Age returns how long ago the snapshot was written.
func (s *GuestSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(s.Timestamp))
}

// SnapshotStore serialises cart state to and from a KV backend. Every save
// re-serialises the full payload and stamps the write time; there is no
// incremental patching.
type SnapshotStore struct {
	kv     KV
	logger zerolog.Logger
	now    func() time.Time
}

// NewSnapshotStore creates a snapshot store over the given KV backend.
func NewSnapshotStore(kv KV, logger zerolog.Logger) *SnapshotStore {
	return &SnapshotStore{
		kv:     kv,
		logger: logger.With().Str("component", "snapshot-store").Logger(),
		now:    time.Now,
	}
}

// SaveOrders writes the given orders as the current snapshot. Callers are
// expected to pass only unsubmitted orders; the filter lives in the cart
// engine so the persistence layer stays policy-free.
func (s *SnapshotStore) SaveOrders(ctx context.Context, orders []model.Order) error {
	snap := OrderSnapshot{
		Timestamp: s.now().UnixMilli(),
		Orders:    orders,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to serialise order snapshot: %w", err)
	}

	if err := s.kv.Put(ctx, KeyOrders, data); err != nil {
		return fmt.Errorf("failed to persist order snapshot: %w", err)
	}

	s.logger.Debug().Int("order_count", len(orders)).Msg("order snapshot written")
	return nil
}

// LoadOrders reads the persisted order snapshot. It returns nil without
// error when no snapshot exists.
func (s *SnapshotStore) LoadOrders(ctx context.Context) (*OrderSnapshot, error) {
	data, ok, err := s.kv.Get(ctx, KeyOrders)
	if err != nil {
		return nil, fmt.Errorf("failed to read order snapshot: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var snap OrderSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse order snapshot: %w", err)
	}
	return &snap, nil
}

// SaveGuestCart writes the guest cart as the current snapshot.
func (s *SnapshotStore) SaveGuestCart(ctx context.Context, cart model.GuestCart) error {
	snap := GuestSnapshot{
		Timestamp: s.now().UnixMilli(),
		Cart:      cart,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to serialise guest cart snapshot: %w", err)
	}

	if err := s.kv.Put(ctx, KeyGuestCart, data); err != nil {
		return fmt.Errorf("failed to persist guest cart snapshot: %w", err)
	}

	s.logger.Debug().Int("item_count", len(cart.Items)).Msg("guest cart snapshot written")
	return nil
}

// LoadGuestCart reads the persisted guest cart snapshot. It returns nil
// without error when no snapshot exists.
func (s *SnapshotStore) LoadGuestCart(ctx context.Context) (*GuestSnapshot, error) {
	data, ok, err := s.kv.Get(ctx, KeyGuestCart)
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart snapshot: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var snap GuestSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse guest cart snapshot: %w", err)
	}
	return &snap, nil
}

// SaveSelectedAddress records the customer's chosen delivery address id.
func (s *SnapshotStore) SaveSelectedAddress(ctx context.Context, addressID string) error {
	if err := s.kv.Put(ctx, KeySelectedAddress, []byte(addressID)); err != nil {
		return fmt.Errorf("failed to persist selected address: %w", err)
	}
	return nil
}

// LoadSelectedAddress reads the stored delivery address id, or "" when none
// has been selected.
func (s *SnapshotStore) LoadSelectedAddress(ctx context.Context) (string, error) {
	data, ok, err := s.kv.Get(ctx, KeySelectedAddress)
	if err != nil {
		return "", fmt.Errorf("failed to read selected address: %w", err)
	}
	if !ok {
		return "", nil
	}
	return string(data), nil
}
