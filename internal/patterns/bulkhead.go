package patterns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashendes/storefront/internal/metrics"
)

// ErrBulkheadFull is returned when no slot could be acquired
var ErrBulkheadFull = errors.New("bulkhead full")

// Bulkhead limits concurrent executions. With a zero wait a full bulkhead
// rejects immediately.
type Bulkhead struct {
	semaphore chan struct{}
	wait      time.Duration
	name      string
	service   string
}

// NewBulkhead creates a new bulkhead with specified capacity
func NewBulkhead(size int, wait time.Duration, name, service string) *Bulkhead {
	if size < 1 {
		size = 1
	}
	return &Bulkhead{
		semaphore: make(chan struct{}, size),
		wait:      wait,
		name:      name,
		service:   service,
	}
}

// Execute runs fn within the bulkhead's resource limits
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.acquire(ctx); err != nil {
		metrics.BulkheadRejectedRequests.WithLabelValues(b.service, b.name).Inc()
		return err
	}

	metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Inc()
	defer func() {
		<-b.semaphore
		metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Dec()
	}()

	return fn()
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if b.wait <= 0 {
		select {
		case b.semaphore <- struct{}{}:
			return nil
		default:
			return fmt.Errorf("bulkhead %s: %w", b.name, ErrBulkheadFull)
		}
	}

	timer := time.NewTimer(b.wait)
	defer timer.Stop()

	select {
	case b.semaphore <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("bulkhead %s: timeout acquiring resource: %w", b.name, ErrBulkheadFull)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetName returns the bulkhead name
func (b *Bulkhead) GetName() string {
	return b.name
}
