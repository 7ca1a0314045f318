package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_BroadcastDeliversToAllSubscribers(t *testing.T) {
	h := newHub[int]()
	a := h.Subscribe(1)
	b := h.Subscribe(1)

	h.Broadcast(42)

	assert.Equal(t, 42, <-a.ch)
	assert.Equal(t, 42, <-b.ch)
}

func TestHub_BroadcastSkipsFullSubscriberWithoutBlocking(t *testing.T) {
	h := newHub[int]()
	slow := h.Subscribe(1)
	h.Broadcast(1) // fills slow's buffer of 1

	done := make(chan struct{})
	go func() {
		h.Broadcast(2) // must not block even though slow's buffer is full
		close(done)
	}()
	<-done

	assert.Equal(t, 1, <-slow.ch)
}

func TestHub_UnsubscribeClosesChannelAndStopsDelivery(t *testing.T) {
	h := newHub[int]()
	sub := h.Subscribe(1)
	h.Unsubscribe(sub)

	assert.Equal(t, 0, h.SubscriberCount())
	_, ok := <-sub.ch
	assert.False(t, ok)
}
