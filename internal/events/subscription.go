package events

import "sync"

// Subscription delivers events on a channel in publish order.
type Subscription struct {
	id    int64
	bus   *Bus
	kinds map[Kind]struct{}

	mu       sync.Mutex
	buf      []Event
	draining bool
	signal   chan struct{}
	done     chan struct{}
	out      chan Event
	stopOnce sync.Once
}

func newSubscription(kinds []Kind) *Subscription {
	sub := &Subscription{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan Event),
	}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]struct{}, len(kinds))
		for _, kind := range kinds {
			sub.kinds[kind] = struct{}{}
		}
	}
	return sub
}

// Events returns the delivery channel. It closes when the subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Close detaches the subscription and discards undelivered events.
func (s *Subscription) Close() {
	if s.bus != nil {
		s.bus.remove(s.id)
	}
	s.shutdown()
}

func (s *Subscription) wants(kind Kind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[kind]
	return ok
}

func (s *Subscription) push(ev Event) {
	s.mu.Lock()
	s.buf = append(s.buf, ev)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// drainAndStop lets the pump flush what is buffered and then exit.
func (s *Subscription) drainAndStop() {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) shutdown() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.bus == nil {
			close(s.out)
		}
	})
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		batch := s.buf
		s.buf = nil
		draining := s.draining
		s.mu.Unlock()

		for _, ev := range batch {
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
		if draining && len(batch) == 0 {
			return
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-s.signal:
		case <-s.done:
			return
		}
	}
}
