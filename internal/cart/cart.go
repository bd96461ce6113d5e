// Package cart holds the ordered list of cart lines and mirrors every
// change into persisted storage.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/storage"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidQuantity rejects additions of less than one unit
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Store is the cart of one session. It is not safe for concurrent use;
// each request builds its own from storage.
type Store struct {
	kv    storage.Store
	items []models.CartItem
}

// Load hydrates a Store from the persisted snapshot. A missing snapshot
// yields an empty cart.
func Load(ctx context.Context, kv storage.Store) (*Store, error) {
	items, err := LoadItems(ctx, kv)
	if err != nil {
		return nil, err
	}
	return &Store{kv: kv, items: items}, nil
}

// LoadItems reads the persisted cart lines
func LoadItems(ctx context.Context, kv storage.Store) ([]models.CartItem, error) {
	var items []models.CartItem
	if _, err := storage.GetJSON(ctx, kv, storage.KeyCart, &items); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return items, nil
}

// Persist overwrites the cart snapshot and its precomputed total
func Persist(ctx context.Context, kv storage.Store, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	if err := storage.SetJSON(ctx, kv, storage.KeyCart, items); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	total := strconv.FormatFloat(models.CartTotal(items), 'f', -1, 64)
	if err := kv.Set(ctx, storage.KeyTotal, total); err != nil {
		return fmt.Errorf("persist total: %w", err)
	}
	return nil
}

// Items returns a copy of the cart lines in insertion order
func (s *Store) Items() []models.CartItem {
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of lines
func (s *Store) Len() int {
	return len(s.items)
}

// Total is recomputed from the lines on every call
func (s *Store) Total() float64 {
	return models.CartTotal(s.items)
}

// Add increments the line for item.ID by qty, appending a new line if absent
func (s *Store) Add(ctx context.Context, item models.CartItem, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	if i := s.index(item.ID); i >= 0 {
		s.items[i].Quantity += qty
	} else {
		item.Quantity = qty
		s.items = append(s.items, item)
	}

	log.WithFields(log.Fields{"item_id": item.ID, "qty": qty}).Debug("Cart item added")
	return s.flush(ctx, "add")
}

// Remove drops the line for id. Removing an absent id still rewrites the snapshot.
func (s *Store) Remove(ctx context.Context, id string) error {
	next := s.items[:0:0]
	for _, it := range s.items {
		if it.ID != id {
			next = append(next, it)
		}
	}
	s.items = next
	return s.flush(ctx, "remove")
}

// SetQuantity clamps qty to [0, item.Qty] using the catalog snapshot the
// caller holds. Zero removes the line; a positive quantity for an item not
// yet in the cart appends it.
func (s *Store) SetQuantity(ctx context.Context, item models.CatalogItem, qty int) (int, error) {
	if qty < 0 {
		qty = 0
	}
	if qty > item.Qty {
		qty = item.Qty
	}

	i := s.index(item.ID)
	switch {
	case qty == 0:
		if i < 0 {
			return 0, nil
		}
		return 0, s.Remove(ctx, item.ID)
	case i >= 0:
		s.items[i].Quantity = qty
	default:
		s.items = append(s.items, models.CartItem{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Category: item.Category,
			Quantity: qty,
		})
	}
	return qty, s.flush(ctx, "set_quantity")
}

// Replace swaps in a whole new list of lines. Lines with quantity below 1
// are dropped.
func (s *Store) Replace(ctx context.Context, items []models.CartItem) error {
	next := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		if it.Quantity >= 1 {
			next = append(next, it)
		}
	}
	s.items = next
	return s.flush(ctx, "replace")
}

func (s *Store) index(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) flush(ctx context.Context, op string) error {
	metrics.CartMutations.WithLabelValues(op).Inc()
	return Persist(ctx, s.kv, s.items)
}
