// Package monitor drives the prospecting pipeline: it polls the journal,
// parses new events, classifies them, and feeds announcements and stats.
package monitor

import (
	"context"
	"time"

	"prospector/internal/announce"
	"prospector/internal/classify"
	"prospector/internal/eventbus"
	"prospector/internal/journal"
	"prospector/internal/stats"
	"prospector/internal/storage"
	logx "prospector/pkg/logx"
)

// Announcer is the queue side the pipeline sees. Enqueue never blocks.
type Announcer interface {
	Enqueue(a announce.Announcement)
}

// SessionFlusher closes the running stats session at a journal boundary.
type SessionFlusher interface {
	FlushSession(ctx context.Context, reason string) stats.Summary
}

// Config controls the poll loop.
type Config struct {
	PollInterval    time.Duration
	ResetOnRotation bool
}

// Service owns one poll loop. All pipeline stages run synchronously inside
// a tick, in arrival order, so classification and stats always observe
// events in the order the journal recorded them.
type Service struct {
	cfg        Config
	tailer     *journal.Tailer
	parser     *journal.Parser
	classifier *classify.Classifier
	announcer  Announcer
	agg        *stats.Aggregator
	flusher    SessionFlusher
	store      storage.Store
	log        logx.Logger
	bus        eventbus.Bus
}

func New(
	cfg Config,
	tailer *journal.Tailer,
	parser *journal.Parser,
	classifier *classify.Classifier,
	announcer Announcer,
	agg *stats.Aggregator,
	flusher SessionFlusher,
	store storage.Store,
	log logx.Logger,
	bus eventbus.Bus,
) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:        cfg,
		tailer:     tailer,
		parser:     parser,
		classifier: classifier,
		announcer:  announcer,
		agg:        agg,
		flusher:    flusher,
		store:      store,
		log:        log,
		bus:        bus,
	}
}

// Run polls until ctx is canceled. It always returns nil: a bad tick is
// logged and the next tick retries.
func (s *Service) Run(ctx context.Context) error {
	t := time.NewTicker(s.cfg.PollInterval)
	defer t.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one poll-parse-classify pass.
func (s *Service) Tick(ctx context.Context) {
	res := s.tailer.Poll(ctx)

	if res.Rotated && s.cfg.ResetOnRotation && s.flusher != nil {
		s.flusher.FlushSession(ctx, "journal rotated")
	}

	for _, line := range res.Lines {
		select {
		case <-ctx.Done():
			return
		default:
		}
		ev, ok := s.parser.Parse(line)
		if !ok {
			continue
		}
		s.handle(ctx, ev)
	}
}

func (s *Service) handle(ctx context.Context, ev *journal.ProspectEvent) {
	notable := ""
	if ann, ok := s.classifier.Classify(ev); ok {
		notable = ann.Material
		s.announcer.Enqueue(ann)
		s.log.Info("notable asteroid",
			logx.String("material", ann.Material),
			logx.Float64("proportion", ann.Proportion),
			logx.Bool("motherlode", ann.Motherlode),
		)
	}

	readings := make([]stats.Reading, 0, len(ev.Materials))
	for _, m := range ev.Materials {
		readings = append(readings, stats.Reading{
			Name:       m.Name,
			Proportion: m.Proportion,
			Motherlode: ev.Motherlode == m.Name,
		})
	}
	s.agg.Record(readings, notable)

	if s.store != nil {
		for _, m := range ev.Materials {
			err := s.store.AppendSighting(ctx, storage.Sighting{
				At:         ev.Timestamp,
				Material:   m.Name,
				Proportion: m.Proportion,
				Remaining:  ev.Remaining,
				Motherlode: ev.Motherlode == m.Name,
				Announced:  m.Name == notable,
			})
			if err != nil {
				s.log.Error("sighting write failed", logx.String("material", m.Name), logx.Err(err))
			}
		}
	}
}
