package journal

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"prospector/internal/eventbus"
	logx "prospector/pkg/logx"
)

// Cursor tracks the tailer's position in the active journal file.
//
// Offset never decreases for one file; switching files resets it to 0.
// Offset always points just past the last complete line consumed, so an
// unterminated tail is re-read on the next poll rather than buffered.
type Cursor struct {
	Path   string
	Offset int64
}

// Tailer incrementally reads the newest journal file matching a pattern.
//
// It owns the cursor exclusively and performs no filesystem writes. A poll
// that finds the directory or file missing, or the file locked by its
// writer, reports no lines; the condition is retried on the next poll.
//
// Rotation policy: always follow the newest matching file and abandon the
// old one, even if it has unread trailing bytes. Journals here are
// append-then-abandon; the game never returns to an old file.
type Tailer struct {
	dir     string
	pattern string

	cur Cursor

	log logx.Logger
	bus eventbus.Bus
}

func NewTailer(dir, pattern string, log logx.Logger, bus eventbus.Bus) *Tailer {
	if pattern == "" {
		pattern = "Journal*.log"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Tailer{dir: dir, pattern: pattern, log: log, bus: bus}
}

// Cursor returns a copy of the current cursor.
func (t *Tailer) Cursor() Cursor { return t.cur }

// Poll reads newly appended complete lines from the active journal.
func (t *Tailer) Poll(ctx context.Context) PollResult {
	res := PollResult{File: t.cur.Path}
	if ctx.Err() != nil {
		return res
	}

	newest, ok := t.newestJournal()
	if !ok {
		// Directory absent or no matching files yet. Routine during game
		// startup; retried next poll.
		return res
	}

	if newest != t.cur.Path {
		if t.cur.Path != "" {
			res.Rotated = true
			t.log.Info("journal rotated",
				logx.String("from", filepath.Base(t.cur.Path)),
				logx.String("to", filepath.Base(newest)),
				logx.Int64("abandoned_offset", t.cur.Offset),
			)
			if t.bus != nil {
				t.bus.Publish(eventbus.Event{Type: eventbus.TypeJournalRotated, Data: newest})
			}
		} else {
			t.log.Info("journal found", logx.String("file", filepath.Base(newest)))
		}
		t.cur = Cursor{Path: newest}
	}
	res.File = t.cur.Path

	lines, err := t.readNew(ctx)
	if err != nil {
		// Transient: locked or concurrently replaced. Never surfaced.
		t.log.Debug("journal read failed; will retry", logx.Err(err), logx.String("file", t.cur.Path))
		return res
	}
	res.Lines = lines
	return res
}

// newestJournal returns the matching file with the latest mtime,
// breaking ties by name so a fresh rotation wins.
func (t *Tailer) newestJournal() (string, bool) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return "", false
	}

	var (
		bestPath string
		bestTime time.Time
		bestName string
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if matched, err := filepath.Match(t.pattern, name); err != nil || !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		mt := info.ModTime()
		if bestPath == "" || mt.After(bestTime) || (mt.Equal(bestTime) && name > bestName) {
			bestPath = filepath.Join(t.dir, name)
			bestTime = mt
			bestName = name
		}
	}
	if bestPath == "" {
		return "", false
	}
	return bestPath, true
}

// readNew reads from the cursor offset to end of file, returning complete
// lines and advancing the offset past each one. An unterminated final line
// stays in the file for the next poll.
func (t *Tailer) readNew(ctx context.Context) ([]Line, error) {
	f, err := os.Open(t.cur.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()

	if size < t.cur.Offset {
		// Shrank under us: truncated or replaced in place. Re-read from the
		// start rather than losing the stream.
		t.log.Warn("journal truncated; rewinding",
			logx.String("file", filepath.Base(t.cur.Path)),
			logx.Int64("offset", t.cur.Offset),
			logx.Int64("size", size),
		)
		if t.bus != nil {
			t.bus.Publish(eventbus.Event{Type: eventbus.TypeJournalTruncated, Data: t.cur.Path})
		}
		t.cur.Offset = 0
	}
	if size == t.cur.Offset {
		return nil, nil
	}

	if _, err := f.Seek(t.cur.Offset, io.SeekStart); err != nil {
		return nil, err
	}

	var lines []Line
	r := bufio.NewReader(f)
	for ctx.Err() == nil {
		raw, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return lines, err
		}
		if len(raw) == 0 || raw[len(raw)-1] != '\n' {
			// Partial write in progress; picked up next poll.
			break
		}

		t.cur.Offset += int64(len(raw))
		text := string(bytes.TrimRight(raw, "\r\n"))
		if text != "" {
			lines = append(lines, Line{Text: text, File: t.cur.Path, Offset: t.cur.Offset})
		}
		if err == io.EOF {
			break
		}
	}
	return lines, nil
}
