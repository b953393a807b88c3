package common

import (
	"fmt"
	"log"
	"sync"
	"time"
	"wurst/src/lib"
)

// WatchRegistry is a shared subscription fan-out: one entry per topic,
// reference-counted by active subscribers and torn down when the last one
// cancels. Mutations publish a change notification; subscribers re-read
// whatever view they serve.

type WatchEvent struct {
	Topic string    `json:"topic"`
	At    time.Time `json:"at"`
}

type watchEntry struct {
	subs map[uint64]chan WatchEvent
}

type WatchRegistry struct {
	mu      sync.Mutex
	nextSub uint64
	entries map[string]*watchEntry
}

func NewWatchRegistry() *WatchRegistry {
	return &WatchRegistry{entries: make(map[string]*watchEntry)}
}

var watchRegistry *WatchRegistry
var watchRegistryOnce sync.Once

func GetWatchRegistry() *WatchRegistry {
	watchRegistryOnce.Do(func() {
		watchRegistry = NewWatchRegistry()
	})
	return watchRegistry
}

// Subscribe registers a listener on a topic. The returned cancel func must
// be called; it drops the subscription and removes the topic entry when no
// subscribers remain.
func (r *WatchRegistry) Subscribe(topic string) (<-chan WatchEvent, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[topic]
	if !ok {
		entry = &watchEntry{subs: make(map[uint64]chan WatchEvent)}
		r.entries[topic] = entry
	}
	r.nextSub++
	id := r.nextSub
	ch := make(chan WatchEvent, 8)
	entry.subs[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		entry, ok := r.entries[topic]
		if !ok {
			return
		}
		if sub, ok := entry.subs[id]; ok {
			delete(entry.subs, id)
			close(sub)
		}
		if len(entry.subs) == 0 {
			delete(r.entries, topic)
		}
	}
	return ch, cancel
}

// Publish notifies every subscriber of a topic. Slow consumers are skipped
// rather than blocking the mutation path.
func (r *WatchRegistry) Publish(topic string) {
	ev := WatchEvent{Topic: topic, At: time.Now()}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[topic]
	if !ok {
		return
	}
	for _, sub := range entry.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}

// Subscribers reports the active subscriber count for a topic.
func (r *WatchRegistry) Subscribers(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[topic]
	if !ok {
		return 0
	}
	return len(entry.subs)
}

func ProductTopic(productID string) string {
	return fmt.Sprintf("product:%s", productID)
}

func ReservationsTopic(productID string) string {
	return fmt.Sprintf("product:%s:reservations", productID)
}

func PickupsTopic(productID string) string {
	return fmt.Sprintf("product:%s:pickups", productID)
}

const AllReservationsTopic = "reservations:all"

// PublishProductEvent fans a product change out to every related topic and
// mirrors it to pusher for browser clients, best-effort.
func PublishProductEvent(productID string) {
	reg := GetWatchRegistry()
	reg.Publish(ProductTopic(productID))
	reg.Publish(ReservationsTopic(productID))
	reg.Publish(PickupsTopic(productID))
	reg.Publish(AllReservationsTopic)

	if client := lib.GetPusherClient(); client != nil {
		go func() {
			err := client.Trigger("inventory", "product.updated", map[string]string{"product_id": productID})
			if err != nil {
				log.Printf("Error triggering pusher event: %s\n", err.Error())
			}
		}()
	}
}
