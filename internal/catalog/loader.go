// Package catalog loads the inventory listing and normalizes it into
// catalog items.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashendes/storefront/internal/envelope"
	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/patterns"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

// ErrLoadFailed is the single failure reported for any fetch or parse problem
var ErrLoadFailed = errors.New("failed to load inventory")

type listing struct {
	Items []map[string]interface{} `json:"items"`
	Error interface{}              `json:"error"`
}

// Loader fetches the inventory listing
type Loader struct {
	client  *resty.Client
	baseURL string
	breaker *patterns.CircuitBreakerWrapper
}

// Option configures a Loader
type Option func(*Loader)

// WithBreaker routes fetches through cb
func WithBreaker(cb *patterns.CircuitBreakerWrapper) Option {
	return func(l *Loader) { l.breaker = cb }
}

func NewLoader(client *resty.Client, baseURL string, opts ...Option) *Loader {
	l := &Loader{client: client, baseURL: baseURL}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches and normalizes the listing. Every failure is reported as
// ErrLoadFailed with the cause attached; there is no partial result.
func (l *Loader) Load(ctx context.Context) ([]models.CatalogItem, error) {
	start := time.Now()

	result, err := l.breaker.Execute(func() (interface{}, error) {
		return l.fetch(ctx)
	})
	if err != nil {
		metrics.ObserveUpstream("catalog", "error", start)
		log.WithError(err).Error("Failed to load inventory")
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	metrics.ObserveUpstream("catalog", "ok", start)
	return result.([]models.CatalogItem), nil
}

func (l *Loader) fetch(ctx context.Context) ([]models.CatalogItem, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(l.baseURL + "/inventory")
	if err != nil {
		return nil, fmt.Errorf("HTTP error: %w", err)
	}

	env, err := envelope.Decode(resp.Body(), "items")
	if err != nil {
		return nil, fmt.Errorf("inventory status %d: %w", resp.StatusCode(), err)
	}

	var payload listing
	if err := env.Into(&payload); err != nil {
		return nil, err
	}
	if payload.Items == nil {
		if payload.Error != nil {
			return nil, fmt.Errorf("inventory API error: %v", payload.Error)
		}
		return nil, fmt.Errorf("items not found in %s response (status %d)", env.Shape, resp.StatusCode())
	}

	items := Normalize(payload.Items)
	log.WithFields(log.Fields{
		"items": len(items),
		"shape": env.Shape.String(),
	}).Debug("Inventory loaded")
	return items, nil
}
