package journal

import "time"

// MaterialReading is one material entry from a prospector scan.
type MaterialReading struct {
	Name       string
	Proportion float64
}

// ProspectEvent is a parsed ProspectedAsteroid journal record.
//
// Materials keeps the record's order; names are unique (the first reading
// wins if the game ever repeats one). Immutable once parsed.
type ProspectEvent struct {
	Timestamp time.Time
	Materials []MaterialReading
	// Remaining is the asteroid's remaining content percentage. The game
	// omits it for pristine rocks; absent means 100.
	Remaining float64
	// Content is the localised content class ("Material Content: High", ...).
	Content string
	// Motherlode is the core material name, empty for non-core asteroids.
	Motherlode string
}

// Proportion returns the reading for the named material.
func (e *ProspectEvent) Proportion(name string) (float64, bool) {
	for _, m := range e.Materials {
		if m.Name == name {
			return m.Proportion, true
		}
	}
	return 0, false
}

// Line is one complete journal line plus the cursor position it was read
// under. Transient; consumed immediately by the parser.
type Line struct {
	Text string
	// File is the journal file the line came from.
	File string
	// Offset is the byte offset immediately after the line's terminator.
	Offset int64
}

// PollResult is what one tailer poll produced.
type PollResult struct {
	Lines []Line
	// Rotated is true when this poll re-based onto a newer journal file.
	// Lines (if any) are from the new file only.
	Rotated bool
	// File is the currently tailed journal, empty if none found yet.
	File string
}
