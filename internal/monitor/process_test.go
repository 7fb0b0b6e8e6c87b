package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"prospector/internal/eventbus"
	logx "prospector/pkg/logx"
)

func TestProcessWatcherEmptyNameIdles(t *testing.T) {
	t.Parallel()
	w := NewProcessWatcher("", time.Millisecond, logx.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if w.Running() {
		t.Fatal("Running() = true with no process configured")
	}
}

func TestProcessWatcherFindsOwnProcess(t *testing.T) {
	t.Parallel()
	exe, err := os.Executable()
	if err != nil {
		t.Skipf("os.Executable: %v", err)
	}

	bus := eventbus.New()
	sub := bus.Subscribe(8)
	defer sub.Close()

	w := NewProcessWatcher(filepath.Base(exe), time.Hour, logx.Nop(), bus)
	w.probe(context.Background())

	if !w.Running() {
		t.Skip("test process not visible via process scan")
	}
	select {
	case ev := <-sub.Events():
		if ev.Type != eventbus.TypeWriterStarted {
			t.Fatalf("event = %q, want writer.started", ev.Type)
		}
	default:
		t.Fatal("no writer.started event published")
	}

	// Unchanged state stays quiet.
	w.probe(context.Background())
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %q on unchanged state", ev.Type)
	default:
	}
}
