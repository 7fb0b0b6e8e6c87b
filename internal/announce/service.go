// Package announce serializes notifications for notable finds.
//
// Announcements flow through a bounded FIFO queue drained by exactly one
// consumer goroutine, so overlapping finds never interleave their speech
// output and a slow TTS backend can never stall journal ingestion.
package announce

import (
	"context"
	"sync"
	"time"

	"prospector/internal/eventbus"
	logx "prospector/pkg/logx"
)

type Service struct {
	mu sync.Mutex

	cfg   Config
	sinks []Sink
	log   logx.Logger
	bus   eventbus.Bus

	queue     chan Announcement
	accepting bool
	done      chan struct{}

	// Overflow episode tracking: one warning per episode, not per drop.
	overflowing bool
	dropped     int

	hmu     sync.Mutex
	history []HistoryItem
}

// HistoryItem records a delivered announcement for status output.
type HistoryItem struct {
	At   time.Time
	Text string
}

const historyMax = 50

func NewService(cfg Config, sinks []Sink, log logx.Logger, bus eventbus.Bus) *Service {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, sinks: sinks, log: log, bus: bus}
}

// Start launches the single consumer goroutine. Idempotent.
//
// Delivery is detached from ctx: canceling the start context must not kill
// an utterance mid-speech or fail pending deliveries. Stop's close-and-drain
// is the only shutdown path.
func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.queue != nil {
		s.mu.Unlock()
		return
	}
	s.queue = make(chan Announcement, s.cfg.QueueSize)
	s.accepting = true
	s.done = make(chan struct{})
	q := s.queue
	done := s.done
	s.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		s.consume(runCtx, q)
	}()
}

// Stop blocks new enqueues, then waits for the consumer to drain the queue
// or ctx to expire. The in-flight sink call always finishes.
func (s *Service) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	q := s.queue
	done := s.done
	if q == nil {
		s.mu.Unlock()
		return
	}
	s.accepting = false
	s.queue = nil
	s.mu.Unlock()

	close(q)
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Enqueue adds an announcement without ever blocking the caller.
//
// When the queue is full, the oldest pending announcement is dropped in
// favor of the new one: under a burst the most recent finds are the ones
// still worth hearing about.
func (s *Service) Enqueue(a Announcement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepting || s.queue == nil {
		return
	}

	select {
	case s.queue <- a:
		s.noteEnqueuedLocked()
		return
	default:
	}

	// Full: drop the head, then retry once.
	select {
	case old := <-s.queue:
		s.noteDroppedLocked(old)
	default:
	}
	select {
	case s.queue <- a:
	default:
		s.noteDroppedLocked(a)
	}
}

// noteEnqueuedLocked closes an overflow episode on the first clean enqueue.
func (s *Service) noteEnqueuedLocked() {
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeAnnounceQueued})
	}
	if s.overflowing {
		s.log.Info("announcement queue recovered", logx.Int("dropped", s.dropped))
		s.overflowing = false
		s.dropped = 0
	}
}

func (s *Service) noteDroppedLocked(a Announcement) {
	s.dropped++
	if !s.overflowing {
		s.overflowing = true
		s.log.Warn("announcement queue overflow; dropping oldest",
			logx.Int("capacity", s.cfg.QueueSize),
		)
		if s.bus != nil {
			s.bus.Publish(eventbus.Event{Type: eventbus.TypeAnnounceOverflow, Data: a.Material})
		}
	}
}

// consume drains the queue until it is closed. It never watches a context:
// racing a cancel signal against pending items would make the drain lossy.
func (s *Service) consume(ctx context.Context, q <-chan Announcement) {
	for a := range q {
		s.deliver(ctx, a)
	}
}

// deliver hands one announcement to every sink, in order, synchronously.
// A failing sink is logged and never stops the loop or the other sinks.
func (s *Service) deliver(ctx context.Context, a Announcement) {
	s.mu.Lock()
	sinks := s.sinks
	bus := s.bus
	s.mu.Unlock()

	delivered := false
	for _, sink := range sinks {
		if err := sink.Announce(ctx, a); err != nil {
			s.log.Error("announcement delivery failed",
				logx.String("sink", sink.Name()),
				logx.String("material", a.Material),
				logx.Err(err),
			)
			if bus != nil {
				bus.Publish(eventbus.Event{Type: eventbus.TypeAnnounceFailed, Data: sink.Name()})
			}
			continue
		}
		delivered = true
	}

	if delivered {
		s.appendHistory(a)
		if bus != nil {
			bus.Publish(eventbus.Event{Type: eventbus.TypeAnnounceSpoken, Data: a.Text})
		}
	}
}

func (s *Service) appendHistory(a Announcement) {
	s.hmu.Lock()
	s.history = append(s.history, HistoryItem{At: time.Now(), Text: a.Text})
	if len(s.history) > historyMax {
		s.history = s.history[len(s.history)-historyMax:]
	}
	s.hmu.Unlock()
}

// History returns recently delivered announcements, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}
