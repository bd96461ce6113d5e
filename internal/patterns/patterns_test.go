package patterns

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkhead_RejectsWhenFullWithoutWait(t *testing.T) {
	b := NewBulkhead(1, 0, "submit", "test")

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = b.Execute(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := b.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrBulkheadFull)

	close(release)
	wg.Wait()

	assert.NoError(t, b.Execute(context.Background(), func() error { return nil }))
}

func TestBulkhead_PropagatesError(t *testing.T) {
	b := NewBulkhead(2, time.Second, "inventory", "test")
	boom := errors.New("boom")

	err := b.Execute(context.Background(), func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "inventory", b.GetName())
}

func TestBulkhead_WaitHonorsContext(t *testing.T) {
	b := NewBulkhead(1, time.Minute, "slow", "test")
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Execute(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("Catalog", "test")
	boom := errors.New("upstream down")

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, boom })
		require.ErrorIs(t, err, boom)
	}

	assert.Equal(t, 1, cb.GetStateValue())
	assert.Equal(t, "open", cb.GetState())

	_, err := cb.Execute(func() (interface{}, error) { return "never", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "circuit breaker Catalog is open")
}

func TestCircuitBreaker_NilRunsThrough(t *testing.T) {
	var cb *CircuitBreakerWrapper

	result, err := cb.Execute(func() (interface{}, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, result)
	assert.Equal(t, "disabled", cb.GetState())
}

func TestWithTimeout_ZeroIsUnbounded(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()

	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline)

	ctx2, cancel2 := WithTimeout(context.Background(), time.Second)
	defer cancel2()
	_, hasDeadline = ctx2.Deadline()
	assert.True(t, hasDeadline)
}
