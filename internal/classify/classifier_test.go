package classify

import (
	"testing"
	"time"

	"prospector/internal/journal"
)

func event(materials ...journal.MaterialReading) *journal.ProspectEvent {
	return &journal.ProspectEvent{
		Timestamp: time.Date(2026, 8, 27, 18, 0, 0, 0, time.UTC),
		Materials: materials,
		Remaining: 100,
	}
}

func TestClassifyHighestQualifyingWins(t *testing.T) {
	t.Parallel()
	c := New(Config{Thresholds: map[string]float64{"Platinum": 50, "Painite": 50}})

	ev := event(
		journal.MaterialReading{Name: "Painite", Proportion: 60},
		journal.MaterialReading{Name: "Platinum", Proportion: 80},
	)
	ann, ok := c.Classify(ev)
	if !ok {
		t.Fatal("expected announcement")
	}
	if ann.Material != "Platinum" || ann.Proportion != 80 {
		t.Fatalf("got %s at %v, want Platinum at 80", ann.Material, ann.Proportion)
	}
	if ann.Text != "Platinum asteroid found with 80 percent content" {
		t.Fatalf("Text = %q", ann.Text)
	}
}

func TestClassifyTieBreakFirstEncountered(t *testing.T) {
	t.Parallel()
	c := New(Config{Thresholds: map[string]float64{"Gold": 40, "Silver": 40}})

	ev := event(
		journal.MaterialReading{Name: "Silver", Proportion: 55},
		journal.MaterialReading{Name: "Gold", Proportion: 55},
	)
	ann, ok := c.Classify(ev)
	if !ok || ann.Material != "Silver" {
		t.Fatalf("got %q, want Silver (first encountered)", ann.Material)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	t.Parallel()
	c := New(Config{Thresholds: map[string]float64{"Platinum": 50}})
	ev := event(journal.MaterialReading{Name: "Platinum", Proportion: 72.3})

	first, ok := c.Classify(ev)
	if !ok {
		t.Fatal("expected announcement")
	}
	for i := 0; i < 10; i++ {
		again, ok := c.Classify(ev)
		if !ok || again != first {
			t.Fatalf("classification not deterministic: %+v vs %+v", again, first)
		}
	}
	if first.Text != "Platinum asteroid found with 72 percent content" {
		t.Fatalf("Text = %q", first.Text)
	}
}

func TestClassifyNoneCases(t *testing.T) {
	t.Parallel()
	c := New(Config{Thresholds: map[string]float64{"Platinum": 50}})

	tests := []struct {
		name string
		ev   *journal.ProspectEvent
	}{
		{
			name: "below threshold",
			ev:   event(journal.MaterialReading{Name: "Platinum", Proportion: 49.9}),
		},
		{
			name: "unconfigured material",
			ev:   event(journal.MaterialReading{Name: "Bertrandite", Proportion: 99}),
		},
		{
			name: "no materials",
			ev:   event(),
		},
		{name: "nil event"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, ok := c.Classify(tt.ev); ok {
				t.Fatal("expected no announcement")
			}
		})
	}
}

func TestClassifyThresholdIsInclusive(t *testing.T) {
	t.Parallel()
	c := New(Config{Thresholds: map[string]float64{"Platinum": 50}})
	ev := event(journal.MaterialReading{Name: "Platinum", Proportion: 50})
	if _, ok := c.Classify(ev); !ok {
		t.Fatal("meeting the threshold exactly should qualify")
	}
}

func TestClassifyMinRemainingGate(t *testing.T) {
	t.Parallel()
	c := New(Config{Thresholds: map[string]float64{"Platinum": 50}, MinRemaining: 100})

	ev := event(journal.MaterialReading{Name: "Platinum", Proportion: 80})
	ev.Remaining = 62.5
	if _, ok := c.Classify(ev); ok {
		t.Fatal("partially mined asteroid should not announce")
	}

	ev.Remaining = 100
	if _, ok := c.Classify(ev); !ok {
		t.Fatal("pristine asteroid should announce")
	}
}

func TestClassifyMotherlodeFlag(t *testing.T) {
	t.Parallel()
	c := New(Config{Thresholds: map[string]float64{"Platinum": 50}})
	ev := event(journal.MaterialReading{Name: "Platinum", Proportion: 80})
	ev.Motherlode = "Platinum"

	ann, ok := c.Classify(ev)
	if !ok || !ann.Motherlode {
		t.Fatalf("Motherlode = %v, want true", ann.Motherlode)
	}
}

func TestApplySwapsThresholds(t *testing.T) {
	t.Parallel()
	c := New(Config{Thresholds: map[string]float64{"Platinum": 50}})
	ev := event(journal.MaterialReading{Name: "Platinum", Proportion: 60})

	if _, ok := c.Classify(ev); !ok {
		t.Fatal("expected announcement before Apply")
	}
	c.Apply(Config{Thresholds: map[string]float64{"Platinum": 70}})
	if _, ok := c.Classify(ev); ok {
		t.Fatal("expected no announcement after raising threshold")
	}
}
