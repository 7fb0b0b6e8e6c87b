package eventbus

import (
	"testing"
	"time"
)

func TestPublishDelivers(t *testing.T) {
	t.Parallel()
	b := New()
	sub := b.Subscribe(4)
	defer sub.Close()

	b.Publish(Event{Type: TypeJournalRotated, Data: "journal.two.log"})

	select {
	case e := <-sub.Events():
		if e.Type != TypeJournalRotated {
			t.Fatalf("Type = %q, want %q", e.Type, TypeJournalRotated)
		}
		if e.Time.IsZero() {
			t.Fatal("expected Publish to stamp Time")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSlowSubscriberDrops(t *testing.T) {
	t.Parallel()
	b := New()
	sub := b.Subscribe(1)
	defer sub.Close()

	b.Publish(Event{Type: TypeAnnounceQueued})
	b.Publish(Event{Type: TypeAnnounceQueued})
	b.Publish(Event{Type: TypeAnnounceQueued})

	if got := sub.Dropped(); got != 2 {
		t.Fatalf("Dropped = %d, want 2", got)
	}
}

func TestPublishAfterCloseIsSafe(t *testing.T) {
	t.Parallel()
	b := New()
	sub := b.Subscribe(1)
	sub.Close()

	// Must not panic or block.
	b.Publish(Event{Type: TypeSessionFlushed})

	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected closed channel")
	}
}
