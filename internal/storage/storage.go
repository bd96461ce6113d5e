// Package storage is the persisted key-value namespace behind the checkout
// flow. Values are JSON strings; writes replace the whole value.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known keys
const (
	KeyCart        = "shoppingCart"
	KeyTotal       = "totalAmount"
	KeyPayment     = "paymentInfo"
	KeyShipping    = "shippingInfo"
	KeyOrder       = "currentOrder"
	KeySavedOrders = "savedOrders"
	// KeyPendingOrder holds the idempotency key of an order not yet confirmed
	KeyPendingOrder = "pendingOrderKey"
)

// CheckoutKeys are cleared when a new order is started
var CheckoutKeys = []string{KeyCart, KeyTotal, KeyPayment, KeyShipping, KeyOrder, KeyPendingOrder}

var (
	// ErrNotFound is returned by Get for a missing key
	ErrNotFound = errors.New("key not found")
	// ErrCorrupt marks a stored value that is not valid JSON for its type
	ErrCorrupt = errors.New("corrupt stored value")
)

// Store is an opaque get/set/remove key-value store
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// GetJSON decodes the value at key into v. It reports false with a nil
// error when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("%w: unmarshal %s failed: %w", ErrCorrupt, key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// Namespaced prefixes every key, giving each session its own namespace
type Namespaced struct {
	inner  Store
	prefix string
}

// NewNamespaced wraps inner so keys become "<namespace>:<key>"
func NewNamespaced(inner Store, namespace string) *Namespaced {
	return &Namespaced{inner: inner, prefix: namespace + ":"}
}

func (n *Namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *Namespaced) Remove(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = n.prefix + k
	}
	return n.inner.Remove(ctx, prefixed...)
}
