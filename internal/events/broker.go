// SPDX-License-Identifier: MIT

// Package events provides the in-process pub/sub broker behind the SSE
// endpoint. Every connected client gets its own buffered channel; Broadcast
// delivers to all of them without ever blocking the publisher.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/ManuGH/memed/internal/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	subscriberBuffer = 64
	dropLogEvery     = 100
)

var (
	subscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "memed_sse_subscribers",
		Help: "Number of currently connected SSE subscribers",
	})

	broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memed_sse_broadcasts_total",
		Help: "Number of messages broadcast to SSE subscribers",
	})

	DroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memed_sse_dropped_total",
		Help: "Number of messages dropped because a subscriber was too slow",
	})
)

var dropCount atomic.Uint64

// Subscriber is a single SSE client registration. C yields broadcast frames;
// Close must be called when the connection ends.
type Subscriber interface {
	C() <-chan string
	Close()
}

// Broker fan-outs messages to all active subscribers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]chan string
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]chan string)}
}

// Subscribe registers a new subscriber. Subscribing to a closed broker
// returns a subscriber whose channel is already closed.
func (b *Broker) Subscribe() Subscriber {
	id := uuid.New().String()
	ch := make(chan string, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs[id] = ch
		subscribersGauge.Inc()
	}
	b.mu.Unlock()

	return &subscriber{b: b, id: id, ch: ch}
}

// Broadcast pushes msg into every subscriber's channel. A subscriber whose
// buffer is full loses the message rather than stalling the publisher; drops
// are counted and rate-logged.
func (b *Broker) Broadcast(msg string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	broadcastsTotal.Inc()
	for id, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			DroppedTotal.Inc()
			count := dropCount.Add(1)
			if count%dropLogEvery == 1 {
				logger := log.WithComponent("events")
				logger.Warn().
					Str(log.FieldSubscriberID, id).
					Uint64("dropped", count).
					Msg("slow SSE subscriber, dropping message")
			}
		}
	}
}

// SubscriberCount reports the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts the broker down and closes all subscriber channels so SSE
// handlers unblock during shutdown.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
		subscribersGauge.Dec()
	}
	return nil
}

type subscriber struct {
	b    *Broker
	id   string
	ch   chan string
	once sync.Once
}

func (s *subscriber) C() <-chan string {
	return s.ch
}

func (s *subscriber) Close() {
	s.once.Do(func() {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.subs[s.id]; ok {
			delete(s.b.subs, s.id)
			close(s.ch)
			subscribersGauge.Dec()
		}
	})
}
