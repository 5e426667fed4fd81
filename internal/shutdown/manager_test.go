package shutdown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pill-counter/internal/logger"
)

func TestShutdownReverseOrder(t *testing.T) {
	m := NewManager(context.Background(), logger.NoOp{})

	var order []int
	for i := range 3 {
		m.Register(Func(func() { order = append(order, i) }))
	}

	m.Shutdown()
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.ErrorIs(t, m.Context().Err(), context.Canceled)

	select {
	case <-m.Done():
	default:
		t.Fatal("Done must be closed after Shutdown")
	}

	m.Shutdown()
	assert.Len(t, order, 3, "second Shutdown is a no-op")
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager(context.Background(), nil)
	m.SetTimeout(10 * time.Millisecond)

	block := make(chan struct{})
	defer close(block)
	var ran bool
	m.Register(Func(func() { ran = true }))
	m.Register(Func(func() { <-block }))

	start := time.Now()
	m.Shutdown()
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, ran, "later components still run after a timeout")
}

func TestParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	m := NewManager(parent, nil)
	cancel()
	assert.ErrorIs(t, m.Context().Err(), context.Canceled)
}
