// Package hub implements a typed publish/subscribe hub for snapshots.
//
// Subscribers receive snapshots over a buffered channel. Publishing never
// blocks: a subscriber whose buffer is full is dropped and its channel
// closed, so one slow consumer cannot delay the others or the scheduler.
package hub

import "github.com/driftworks/stackpulse/pkg/types"

// subscriberBuffer leaves room for a burst of updates; a consumer that
// falls this far behind is considered dead.
const subscriberBuffer = 8

// Subscriber is one live consumer of published snapshots.
type Subscriber struct {
	ch chan *types.Snapshot
}

// C returns the receive channel. It is closed when the subscriber is
// dropped or unsubscribed.
func (s *Subscriber) C() <-chan *types.Snapshot {
	return s.ch
}

// Hub fans out snapshots to the current subscriber set. All registry
// mutations go through the run loop, so there is a single writer.
type Hub struct {
	subscribe   chan *Subscriber
	unsubscribe chan *Subscriber
	publish     chan *types.Snapshot
	done        chan struct{}
}

// New creates a hub and starts its run loop.
func New() *Hub {
	h := &Hub{
		subscribe:   make(chan *Subscriber),
		unsubscribe: make(chan *Subscriber),
		publish:     make(chan *types.Snapshot),
		done:        make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	subscribers := make(map[*Subscriber]struct{})

	for {
		select {
		case sub := <-h.subscribe:
			subscribers[sub] = struct{}{}

		case sub := <-h.unsubscribe:
			if _, ok := subscribers[sub]; ok {
				delete(subscribers, sub)
				close(sub.ch)
			}

		case snap := <-h.publish:
			for sub := range subscribers {
				select {
				case sub.ch <- snap:
				default:
					// Buffer full: drop the subscriber rather than block.
					delete(subscribers, sub)
					close(sub.ch)
				}
			}

		case <-h.done:
			for sub := range subscribers {
				delete(subscribers, sub)
				close(sub.ch)
			}
			return
		}
	}
}

// Subscribe registers a new subscriber. The caller should pair it with
// Unsubscribe when the consumer goes away.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan *types.Snapshot, subscriberBuffer)}
	select {
	case h.subscribe <- sub:
	case <-h.done:
		close(sub.ch)
	}
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. Safe to call
// for a subscriber that was already dropped.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unsubscribe <- sub:
	case <-h.done:
	}
}

// Publish fans the snapshot out to every current subscriber.
func (h *Hub) Publish(snap *types.Snapshot) {
	select {
	case h.publish <- snap:
	case <-h.done:
	}
}

// Close shuts the hub down and closes all subscriber channels.
func (h *Hub) Close() {
	close(h.done)
}
