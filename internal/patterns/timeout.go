package patterns

import (
	"context"
	"time"
)

// WithTimeout bounds ctx by duration; a zero duration leaves ctx unbounded
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, duration)
}

// DefaultTimeout is the default timeout for outbound HTTP requests
const DefaultTimeout = 10 * time.Second

// ServiceCallTimeout bounds calls between the stand-in services
const ServiceCallTimeout = 3 * time.Second
