package announce

import (
	"context"
	"time"
)

// Announcement is one notable find, rendered and ready to deliver.
// Immutable; placed on the queue once and consumed exactly once.
type Announcement struct {
	// Text is the rendered sentence handed to every sink.
	Text string
	// Material and Proportion identify the find the text was built from.
	Material   string
	Proportion float64
	Motherlode bool
	At         time.Time
}

// Sink delivers one announcement. Implementations are called from the
// single queue consumer, one announcement at a time, and may block for the
// duration of delivery (speech synthesis, network send).
type Sink interface {
	Name() string
	Announce(ctx context.Context, a Announcement) error
}

// Config controls the announcement queue.
type Config struct {
	// QueueSize bounds pending announcements. When a burst exceeds it the
	// oldest pending entries are dropped. <= 0 uses DefaultQueueSize.
	QueueSize int
}

const DefaultQueueSize = 16
