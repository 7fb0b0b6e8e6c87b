// Package classify decides which prospected asteroids are worth announcing.
package classify

import (
	"fmt"
	"math"
	"sync"

	"prospector/internal/announce"
	"prospector/internal/journal"
)

type Config struct {
	// Thresholds maps material name to minimum qualifying percentage.
	// Materials without an entry never qualify.
	Thresholds map[string]float64
	// MinRemaining gates announcements on the asteroid's remaining content;
	// 0 disables the gate.
	MinRemaining float64
}

// Classifier is safe for concurrent use; Apply swaps thresholds on config
// reload without disturbing in-flight classification.
type Classifier struct {
	mu  sync.RWMutex
	cfg Config
}

func New(cfg Config) *Classifier {
	c := &Classifier{}
	c.Apply(cfg)
	return c
}

func (c *Classifier) Apply(cfg Config) {
	// Copy the map so a caller mutating its config can't race us.
	th := make(map[string]float64, len(cfg.Thresholds))
	for k, v := range cfg.Thresholds {
		th[k] = v
	}
	cfg.Thresholds = th

	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

// Classify returns the announcement for ev, or ok=false when nothing
// qualifies. Deterministic: the highest-percentage qualifying material wins,
// first-encountered wins ties.
//
// Classification never mutates ev and has no side effects; recording the
// event into statistics is the caller's job and happens for every event,
// notable or not.
func (c *Classifier) Classify(ev *journal.ProspectEvent) (announce.Announcement, bool) {
	c.mu.RLock()
	cfg := c.cfg
	c.mu.RUnlock()

	if ev == nil {
		return announce.Announcement{}, false
	}
	if cfg.MinRemaining > 0 && ev.Remaining < cfg.MinRemaining {
		return announce.Announcement{}, false
	}

	var (
		best  journal.MaterialReading
		found bool
	)
	for _, m := range ev.Materials {
		min, configured := cfg.Thresholds[m.Name]
		if !configured || m.Proportion < min {
			continue
		}
		if !found || m.Proportion > best.Proportion {
			best = m
			found = true
		}
	}
	if !found {
		return announce.Announcement{}, false
	}

	return announce.Announcement{
		Text:       renderText(best),
		Material:   best.Name,
		Proportion: best.Proportion,
		Motherlode: ev.Motherlode == best.Name,
		At:         ev.Timestamp,
	}, true
}

func renderText(m journal.MaterialReading) string {
	return fmt.Sprintf("%s asteroid found with %d percent content", m.Name, int(math.Round(m.Proportion)))
}
