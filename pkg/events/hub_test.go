package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("user-1")
	defer cancel()

	hub.Publish(Event{Type: "new_message", UserID: "user-1", Payload: "hello"})

	select {
	case ev := <-ch:
		assert.Equal(t, "new_message", ev.Type)
		assert.Equal(t, "hello", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishIsPerUser(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("user-1")
	defer cancel()

	hub.Publish(Event{Type: "new_message", UserID: "user-2", Payload: "not yours"})

	select {
	case <-ch:
		t.Fatal("event leaked across users")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelUnsubscribes(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("user-1")
	cancel()

	// Publishing after cancel must not block or panic
	hub.Publish(Event{Type: "new_message", UserID: "user-1", Payload: "late"})

	select {
	case _, ok := <-ch:
		require.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestPublishDoesNotBlockOnSlowConsumer(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe("user-1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(Event{Type: "new_message", UserID: "user-1", Payload: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a consumer that never reads")
	}
}
