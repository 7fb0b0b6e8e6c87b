package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"prospector/internal/stats"
	logx "prospector/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.sightings.csv   (append-only material sighting log)
//   - <prefix>.sessions.jsonl  (append-only, one summary per session)
//   - <prefix>.summary.json    (latest summary, atomically replaced)
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	sightings   *os.File
	csvw        *csv.Writer
	sessionFile *os.File
	summaryPath string
}

var csvHeader = []string{"timestamp", "material", "proportion", "remaining", "motherlode", "announced"}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	sf, err := os.OpenFile(prefix+".sightings.csv", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	st, err := sf.Stat()
	if err != nil {
		_ = sf.Close()
		return nil, err
	}
	w := csv.NewWriter(sf)
	if st.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			_ = sf.Close()
			return nil, err
		}
		w.Flush()
	}

	jf, err := os.OpenFile(prefix+".sessions.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		_ = sf.Close()
		return nil, err
	}

	return &fileStore{
		log:         log,
		sightings:   sf,
		csvw:        w,
		sessionFile: jf,
		summaryPath: prefix + ".summary.json",
	}, nil
}

func (f *fileStore) AppendSighting(_ context.Context, s Sighting) error {
	if f == nil {
		return ErrDisabled
	}
	if s.At.IsZero() {
		s.At = time.Now().UTC()
	}
	rec := []string{
		s.At.UTC().Format(time.RFC3339),
		s.Material,
		strconv.FormatFloat(s.Proportion, 'f', 2, 64),
		strconv.FormatFloat(s.Remaining, 'f', 2, 64),
		strconv.FormatBool(s.Motherlode),
		strconv.FormatBool(s.Announced),
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.csvw.Write(rec); err != nil {
		return err
	}
	f.csvw.Flush()
	return f.csvw.Error()
}

func (f *fileStore) PutSessionSummary(_ context.Context, sum stats.Summary) error {
	if f == nil {
		return ErrDisabled
	}
	line, err := json.Marshal(sum)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.sessionFile.Write(append(line, '\n')); err != nil {
		return err
	}
	return f.writeSummaryLocked(line)
}

// writeSummaryLocked replaces the latest-summary file atomically so a
// crash mid-write never leaves a truncated JSON document behind.
func (f *fileStore) writeSummaryLocked(line []byte) error {
	tmp := f.summaryPath + ".tmp"
	if err := os.WriteFile(tmp, append(line, '\n'), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.summaryPath)
}

func (f *fileStore) Close() error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.csvw.Flush()
	err := f.csvw.Error()
	if cerr := f.sightings.Close(); err == nil {
		err = cerr
	}
	if cerr := f.sessionFile.Close(); err == nil {
		err = cerr
	}
	return err
}
