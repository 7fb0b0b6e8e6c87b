package eventbus

import (
	"sync"
	"time"
)

// Well-known event types published by the pipeline.
const (
	TypeJournalRotated   = "journal.rotated"
	TypeJournalTruncated = "journal.truncated"
	TypeAnnounceQueued   = "announce.queued"
	TypeAnnounceSpoken   = "announce.spoken"
	TypeAnnounceFailed   = "announce.failed"
	TypeAnnounceOverflow = "announce.overflow"
	TypeSessionFlushed   = "session.flushed"
	TypeWriterStarted    = "writer.started"
	TypeWriterStopped    = "writer.stopped"
)

// Event is a lightweight, in-memory signal used to decouple components.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Slow subscribers lose events (bounded backpressure); Dropped() reports
//     how many were lost per subscription.
//
// Data should be small and ideally JSON-serializable.
type Event struct {
	Type string
	Time time.Time
	Data any
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) *Subscription
}

// Subscription is a bounded receiver of bus events.
type Subscription struct {
	bus *memBus
	id  uint64
	ch  chan Event

	mu      sync.Mutex
	dropped uint64
	closed  bool
}

// Events returns the receive channel. It is closed by Close().
func (s *Subscription) Events() <-chan Event { return s.ch }

// Dropped reports how many events were lost because the buffer was full.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscription) Close() {
	s.bus.mu.Lock()
	if _, ok := s.bus.subs[s.id]; ok {
		delete(s.bus.subs, s.id)
	}
	s.bus.mu.Unlock()

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
}

func (s *Subscription) offer(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
	default:
		s.dropped++
	}
}

// New returns a simple in-memory fanout bus.
// It does not own any background goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]*Subscription{}}
}

type memBus struct {
	mu   sync.RWMutex
	seq  uint64
	subs map[uint64]*Subscription
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Snapshot subscribers so Publish never holds the bus lock while sending.
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		s.offer(e)
	}
}

func (b *memBus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 8
	}
	b.mu.Lock()
	b.seq++
	s := &Subscription{bus: b, id: b.seq, ch: make(chan Event, buffer)}
	b.subs[s.id] = s
	b.mu.Unlock()
	return s
}
