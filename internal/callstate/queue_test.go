package callstate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()

	q.Enqueue(Event{State: CallRinging, Number: "1"})
	q.Enqueue(Event{State: CallOffhook})
	q.Enqueue(Event{State: CallIdle})
	assert.Equal(t, 3, q.Len())

	for _, want := range []CallState{CallRinging, CallOffhook, CallIdle} {
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, e.State)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestEventQueue_SignalCoalesces(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{State: CallIdle})
	q.Enqueue(Event{State: CallIdle})

	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("second signal should have been coalesced")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestEventQueue_Close(t *testing.T) {
	q := newEventQueue()
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(Event{State: CallIdle}))
	_, ok := <-q.Wait()
	assert.False(t, ok, "signal channel is closed")
}

func TestEventQueue_ConcurrentEnqueue(t *testing.T) {
	q := newEventQueue()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(Event{State: CallIdle})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, q.Len())
}
