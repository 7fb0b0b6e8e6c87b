package monitor

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"prospector/internal/eventbus"
	logx "prospector/pkg/logx"
)

// ProcessWatcher reports whether the journal-writing game process is up.
//
// The pipeline does not depend on it; it exists for status output and for
// log context ("no new lines" reads differently when the game is closed).
type ProcessWatcher struct {
	name     string
	interval time.Duration
	log      logx.Logger
	bus      eventbus.Bus

	running atomic.Bool
	seeded  atomic.Bool
}

const defaultProcessInterval = 15 * time.Second

func NewProcessWatcher(name string, interval time.Duration, log logx.Logger, bus eventbus.Bus) *ProcessWatcher {
	if interval <= 0 {
		interval = defaultProcessInterval
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &ProcessWatcher{name: strings.TrimSpace(name), interval: interval, log: log, bus: bus}
}

// Running reports the last observed state.
func (w *ProcessWatcher) Running() bool { return w.running.Load() }

// Run probes until ctx is canceled. It always returns nil; probe errors
// are treated as "not found" and retried on the next tick.
func (w *ProcessWatcher) Run(ctx context.Context) error {
	if w.name == "" {
		<-ctx.Done()
		return nil
	}

	t := time.NewTicker(w.interval)
	defer t.Stop()

	w.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.probe(ctx)
		}
	}
}

func (w *ProcessWatcher) probe(ctx context.Context) {
	found := w.find(ctx)
	prev := w.running.Swap(found)
	if w.seeded.Swap(true) && prev == found {
		return
	}

	if found {
		w.log.Info("journal writer detected", logx.String("process", w.name))
		if w.bus != nil {
			w.bus.Publish(eventbus.Event{Type: eventbus.TypeWriterStarted, Data: w.name})
		}
		return
	}
	w.log.Info("journal writer not running", logx.String("process", w.name))
	if w.bus != nil {
		w.bus.Publish(eventbus.Event{Type: eventbus.TypeWriterStopped, Data: w.name})
	}
}

func (w *ProcessWatcher) find(ctx context.Context) bool {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		w.log.Debug("process scan failed", logx.Err(err))
		return false
	}
	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.EqualFold(n, w.name) {
			return true
		}
	}
	return false
}
