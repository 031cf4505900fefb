package events

import (
	"log/slog"
	"sync"

	"customsflow/internal/logging"
)

// Publisher is the narrow surface components depend on.
type Publisher interface {
	Publish(Event)
}

// Bus fans events out to subscribers.
type Bus struct {
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[int64]*Subscription
	nextID int64
	seq    int64
	closed bool
}

// NewBus constructs an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger: logging.NewComponentLogger(logger, "events"),
		subs:   make(map[int64]*Subscription),
	}
}

// Publish stamps the event with the next sequence number and queues it for
// every interested subscriber. Events published after Close are dropped.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.logger.Debug("event dropped after bus close",
			logging.String(logging.FieldEventType, string(ev.Kind)),
			logging.String(logging.FieldDeclarationID, ev.DeclarationID),
		)
		return
	}
	b.seq++
	ev.Seq = b.seq
	for _, sub := range b.subs {
		if sub.wants(ev.Kind) {
			sub.push(ev)
		}
	}
}

// Subscribe registers a subscriber for the given kinds, or every kind when
// none are listed. Subscribing to a closed bus returns a closed subscription.
func (b *Bus) Subscribe(kinds ...Kind) *Subscription {
	sub := newSubscription(kinds)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.shutdown()
		return sub
	}
	b.nextID++
	sub.id = b.nextID
	sub.bus = b
	b.subs[sub.id] = sub
	b.mu.Unlock()

	go sub.pump()
	return sub
}

// Close shuts down every subscription. Buffered events already queued are
// still delivered before each subscriber channel closes.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[int64]*Subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.drainAndStop()
	}
}

func (b *Bus) remove(id int64) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}
