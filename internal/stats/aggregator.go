// Package stats keeps per-session mining counters and exports summaries.
package stats

import (
	"sync"
	"time"
)

// MaterialStats accumulates counters for one material name.
type MaterialStats struct {
	Found         int     `json:"found"`
	Notable       int     `json:"notable"`
	MaxProportion float64 `json:"max_proportion"`
	SumProportion float64 `json:"sum_proportion"`
	Motherlodes   int     `json:"motherlodes"`
}

// Average returns the mean proportion across all sightings.
func (m MaterialStats) Average() float64 {
	if m.Found == 0 {
		return 0
	}
	return m.SumProportion / float64(m.Found)
}

// Summary is an immutable snapshot of one mining session.
type Summary struct {
	SessionStart time.Time                `json:"session_start"`
	GeneratedAt  time.Time                `json:"generated_at"`
	Prospected   int                      `json:"prospected"`
	Announced    int                      `json:"announced"`
	Materials    map[string]MaterialStats `json:"materials"`
}

// Reading is one material sighting fed into the aggregator.
type Reading struct {
	Name       string
	Proportion float64
	Motherlode bool
}

// Aggregator counts prospecting results for the current session.
//
// All fields live behind one mutex: callers are the poll loop and the
// exporter, and contention is negligible at journal event rates.
type Aggregator struct {
	mu         sync.Mutex
	start      time.Time
	prospected int
	announced  int
	materials  map[string]MaterialStats
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		start:     time.Now().UTC(),
		materials: map[string]MaterialStats{},
	}
}

// Record counts one prospected asteroid. Every material reading is counted,
// not only the ones above a threshold; notable names the material that
// triggered an announcement, or "" when nothing qualified.
func (a *Aggregator) Record(readings []Reading, notable string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.prospected++
	if notable != "" {
		a.announced++
	}
	for _, r := range readings {
		ms := a.materials[r.Name]
		ms.Found++
		ms.SumProportion += r.Proportion
		if r.Proportion > ms.MaxProportion {
			ms.MaxProportion = r.Proportion
		}
		if r.Motherlode {
			ms.Motherlodes++
		}
		if r.Name == notable {
			ms.Notable++
		}
		a.materials[r.Name] = ms
	}
}

// Snapshot returns a deep copy of the current session counters.
func (a *Aggregator) Snapshot() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summaryLocked()
}

// Reset returns the final summary of the closing session and starts a
// fresh one. Snapshot-then-zero happens under one lock so no sighting can
// land in between and be lost from both sessions.
func (a *Aggregator) Reset() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.summaryLocked()
	a.start = time.Now().UTC()
	a.prospected = 0
	a.announced = 0
	a.materials = map[string]MaterialStats{}
	return out
}

func (a *Aggregator) summaryLocked() Summary {
	mats := make(map[string]MaterialStats, len(a.materials))
	for k, v := range a.materials {
		mats[k] = v
	}
	return Summary{
		SessionStart: a.start,
		GeneratedAt:  time.Now().UTC(),
		Prospected:   a.prospected,
		Announced:    a.announced,
		Materials:    mats,
	}
}
