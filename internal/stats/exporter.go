package stats

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"prospector/internal/eventbus"
	logx "prospector/pkg/logx"
)

// SummarySink persists session summaries. The storage layer implements it;
// a nil sink turns the exporter into a pure in-memory flusher.
type SummarySink interface {
	PutSessionSummary(ctx context.Context, s Summary) error
}

// ExporterConfig controls periodic summary export.
type ExporterConfig struct {
	// Schedule is a cron expression, HH:MM, or Go duration. Empty disables
	// periodic export; session-boundary flushes still happen.
	Schedule string
}

// Exporter periodically persists a snapshot of the running session and
// writes the final summary when a session ends.
type Exporter struct {
	mu   sync.Mutex
	cfg  ExporterConfig
	agg  *Aggregator
	sink SummarySink
	log  logx.Logger
	bus  eventbus.Bus

	c      *cron.Cron
	cancel context.CancelFunc
	done   chan struct{}
}

func NewExporter(cfg ExporterConfig, agg *Aggregator, sink SummarySink, log logx.Logger, bus eventbus.Bus) *Exporter {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Exporter{cfg: cfg, agg: agg, sink: sink, log: log, bus: bus}
}

// Start begins periodic export per the configured schedule. Idempotent.
// An invalid schedule is reported and periodic export stays off.
func (e *Exporter) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done != nil {
		return
	}
	e.done = make(chan struct{})

	if e.cfg.Schedule == "" {
		close(e.done)
		return
	}
	spec, err := ParseSchedule(e.cfg.Schedule)
	if err != nil {
		e.log.Error("stats export disabled", logx.Err(err))
		close(e.done)
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	switch spec.Kind {
	case SpecCron:
		parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		c := cron.New(cron.WithParser(parser))
		_, err := c.AddFunc(spec.Cron, func() { e.export(runCtx) })
		if err != nil {
			e.log.Error("stats export disabled", logx.String("schedule", spec.Cron), logx.Err(err))
			cancel()
			close(e.done)
			return
		}
		c.Start()
		e.c = c
		close(e.done)
		e.log.Info("stats export scheduled", logx.String("cron", spec.Cron))
	case SpecInterval:
		done := e.done
		go func() {
			defer close(done)
			t := time.NewTicker(spec.Every)
			defer t.Stop()
			for {
				select {
				case <-runCtx.Done():
					return
				case <-t.C:
					e.export(runCtx)
				}
			}
		}()
		e.log.Info("stats export scheduled", logx.Duration("every", spec.Every))
	}
}

// Stop halts periodic export and writes one last snapshot of the running
// session so a shutdown never silently discards counters.
func (e *Exporter) Stop(ctx context.Context) {
	e.mu.Lock()
	c := e.c
	cancel := e.cancel
	done := e.done
	e.c = nil
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()

	if done == nil {
		return
	}
	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	if cancel != nil {
		cancel()
	}
	select {
	case <-done:
	case <-ctx.Done():
	}

	e.export(ctx)
}

// FlushSession closes the current session: the aggregator is reset, the
// final summary is persisted, and a session.flushed event is published.
func (e *Exporter) FlushSession(ctx context.Context, reason string) Summary {
	sum := e.agg.Reset()
	e.put(ctx, sum)
	e.log.Info("session flushed",
		logx.String("reason", reason),
		logx.Int("prospected", sum.Prospected),
		logx.Int("announced", sum.Announced),
	)
	if e.bus != nil {
		e.bus.Publish(eventbus.Event{Type: eventbus.TypeSessionFlushed, Data: reason})
	}
	return sum
}

// export persists a snapshot without resetting the session.
func (e *Exporter) export(ctx context.Context) {
	e.put(ctx, e.agg.Snapshot())
}

func (e *Exporter) put(ctx context.Context, sum Summary) {
	if e.sink == nil {
		return
	}
	if err := e.sink.PutSessionSummary(ctx, sum); err != nil {
		e.log.Error("stats export failed", logx.Err(err))
	}
}
