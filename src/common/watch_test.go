package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchSubscribeAndPublish(t *testing.T) {
	reg := NewWatchRegistry()
	topic := ProductTopic("p1")

	ch, cancel := reg.Subscribe(topic)
	defer cancel()

	reg.Publish(topic)
	select {
	case ev := <-ch:
		assert.Equal(t, topic, ev.Topic)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

func TestWatchTeardownAtZeroSubscribers(t *testing.T) {
	reg := NewWatchRegistry()
	topic := ReservationsTopic("p1")

	_, cancel1 := reg.Subscribe(topic)
	_, cancel2 := reg.Subscribe(topic)
	assert.Equal(t, 2, reg.Subscribers(topic))

	cancel1()
	assert.Equal(t, 1, reg.Subscribers(topic))

	cancel2()
	assert.Equal(t, 0, reg.Subscribers(topic))

	// cancel is safe to call twice
	cancel2()
	assert.Equal(t, 0, reg.Subscribers(topic))
}

func TestWatchPublishSkipsSlowConsumers(t *testing.T) {
	reg := NewWatchRegistry()
	topic := PickupsTopic("p1")

	ch, cancel := reg.Subscribe(topic)
	defer cancel()

	// Overfill the buffer; publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			reg.Publish(topic)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow consumer")
	}

	assert.NotEmpty(t, ch)
}

func TestWatchPublishWithoutSubscribers(t *testing.T) {
	reg := NewWatchRegistry()
	reg.Publish(ProductTopic("nobody"))
	assert.Equal(t, 0, reg.Subscribers(ProductTopic("nobody")))
}
