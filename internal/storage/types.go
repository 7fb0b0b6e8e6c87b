package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": CSV sighting log + JSON session summaries
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Sighting records one material reading from a prospected asteroid.
// Keep it compact and schema-stable.
type Sighting struct {
	At         time.Time
	Material   string
	Proportion float64
	Remaining  float64
	Motherlode bool
	Announced  bool
}
