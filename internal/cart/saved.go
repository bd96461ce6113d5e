package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/storage"
)

// MaxSavedOrders caps the saved list; older entries fall off the end
const MaxSavedOrders = 50

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrSavedOrderNotFound = errors.New("saved order not found")
)

// SavedOrders returns the saved cart snapshots, newest first
func (s *Store) SavedOrders(ctx context.Context) ([]models.SavedOrder, error) {
	var saved []models.SavedOrder
	if _, err := storage.GetJSON(ctx, s.kv, storage.KeySavedOrders, &saved); err != nil {
		return nil, fmt.Errorf("load saved orders: %w", err)
	}
	return saved, nil
}

// SaveCurrent records the current cart at the head of the saved list
func (s *Store) SaveCurrent(ctx context.Context, now time.Time) (models.SavedOrder, error) {
	if s.Len() == 0 {
		return models.SavedOrder{}, ErrEmptyCart
	}

	saved, err := s.SavedOrders(ctx)
	if err != nil {
		return models.SavedOrder{}, err
	}

	order := models.SavedOrder{
		ID:        "ORD-" + strconv.FormatInt(now.UnixMilli(), 10),
		CreatedAt: now.UTC(),
		Items:     s.Items(),
		Total:     s.Total(),
	}

	next := append([]models.SavedOrder{order}, saved...)
	if len(next) > MaxSavedOrders {
		next = next[:MaxSavedOrders]
	}
	if err := storage.SetJSON(ctx, s.kv, storage.KeySavedOrders, next); err != nil {
		return models.SavedOrder{}, err
	}
	return order, nil
}

// ClearSaved drops every saved order. The current cart is untouched.
func (s *Store) ClearSaved(ctx context.Context) error {
	if err := s.kv.Remove(ctx, storage.KeySavedOrders); err != nil {
		return fmt.Errorf("clear saved orders: %w", err)
	}
	metrics.CartMutations.WithLabelValues("clear_saved").Inc()
	return nil
}

// LoadSaved replaces the cart with the lines of a saved order
func (s *Store) LoadSaved(ctx context.Context, id string) (models.SavedOrder, error) {
	saved, err := s.SavedOrders(ctx)
	if err != nil {
		return models.SavedOrder{}, err
	}
	for _, o := range saved {
		if o.ID == id {
			return o, s.Replace(ctx, o.Items)
		}
	}
	return models.SavedOrder{}, ErrSavedOrderNotFound
}
