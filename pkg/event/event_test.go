package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFireAndUnsubscribe(t *testing.T) {
	b := NewBus(4)
	var got []interface{}
	off := b.Listen("greet", func(_ context.Context, p interface{}) { got = append(got, p) })

	b.Fire(context.Background(), "greet", "hello")
	b.Fire(context.Background(), "other", "ignored")
	assert.Equal(t, []interface{}{"hello"}, got)

	off()
	off()
	assert.Zero(t, b.ListenerCount("greet"))
	b.Fire(context.Background(), "greet", "again")
	assert.Len(t, got, 1)
}

func TestRunDeliversQueuedEvents(t *testing.T) {
	b := NewBus(8)
	var wg sync.WaitGroup
	wg.Add(2)
	received := make(chan OrderStatusChanged, 2)
	b.Listen(OrderStatus, func(_ context.Context, p interface{}) {
		received <- p.(OrderStatusChanged)
		wg.Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	b.FireAsync(OrderStatus, OrderStatusChanged{OrderID: 1, Status: "PENDING"})
	b.FireAsync(OrderStatus, OrderStatusChanged{OrderID: 1, Status: "PAID"})
	wg.Wait()

	assert.Equal(t, "PENDING", (<-received).Status)
	assert.Equal(t, "PAID", (<-received).Status)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestFullQueueDrops(t *testing.T) {
	b := NewBus(1)
	b.FireAsync("x", 1)
	b.FireAsync("x", 2)
	assert.Len(t, b.queue, 1)

	var nilBus *Bus
	nilBus.FireAsync("x", 1)
	nilBus.Fire(context.Background(), "x", 1)
}
