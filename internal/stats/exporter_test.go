package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"prospector/internal/eventbus"
	logx "prospector/pkg/logx"
)

type memSink struct {
	mu   sync.Mutex
	puts []Summary
}

func (m *memSink) PutSessionSummary(_ context.Context, s Summary) error {
	m.mu.Lock()
	m.puts = append(m.puts, s)
	m.mu.Unlock()
	return nil
}

func (m *memSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.puts)
}

func TestFlushSessionPersistsAndResets(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	agg.Record([]Reading{{Name: "Platinum", Proportion: 72.3}}, "Platinum")

	sink := &memSink{}
	bus := eventbus.New()
	sub := bus.Subscribe(8)
	defer sub.Close()

	e := NewExporter(ExporterConfig{}, agg, sink, logx.Nop(), bus)
	sum := e.FlushSession(context.Background(), "journal rotated")

	if sum.Prospected != 1 {
		t.Fatalf("flushed summary prospected = %d, want 1", sum.Prospected)
	}
	if sink.count() != 1 {
		t.Fatalf("sink writes = %d, want 1", sink.count())
	}
	if agg.Snapshot().Prospected != 0 {
		t.Fatal("aggregator not reset after flush")
	}

	select {
	case ev := <-sub.Events():
		if ev.Type != eventbus.TypeSessionFlushed {
			t.Fatalf("event type = %q", ev.Type)
		}
	default:
		t.Fatal("no session.flushed event published")
	}
}

func TestExporterIntervalWritesSnapshots(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	agg.Record([]Reading{{Name: "Gold", Proportion: 30}}, "")

	sink := &memSink{}
	e := NewExporter(ExporterConfig{Schedule: "10ms"}, agg, sink, logx.Nop(), nil)
	e.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	e.Stop(ctx)

	if sink.count() == 0 {
		t.Fatal("no periodic snapshot written")
	}
	// Periodic export snapshots without resetting.
	if agg.Snapshot().Prospected != 1 {
		t.Fatal("periodic export must not reset the session")
	}
}

func TestExporterStopWritesFinalSnapshot(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	agg.Record([]Reading{{Name: "Silver", Proportion: 25}}, "")

	sink := &memSink{}
	e := NewExporter(ExporterConfig{}, agg, sink, logx.Nop(), nil)
	e.Start(context.Background())
	e.Stop(context.Background())

	if sink.count() != 1 {
		t.Fatalf("sink writes = %d, want the shutdown snapshot", sink.count())
	}
}

func TestExporterBadScheduleIsNonFatal(t *testing.T) {
	t.Parallel()
	e := NewExporter(ExporterConfig{Schedule: "not-a-schedule"}, NewAggregator(), nil, logx.Nop(), nil)
	e.Start(context.Background())
	e.Stop(context.Background())
}
