package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"prospector/internal/stats"
	logx "prospector/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", "NONE", " none "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = %v, %v; want nil, nil", driver, st, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileStoreAppendSighting(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "mining.db")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}

	at := time.Date(2026, 8, 27, 18, 0, 0, 0, time.UTC)
	if err := st.AppendSighting(context.Background(), Sighting{
		At: at, Material: "Platinum", Proportion: 72.3, Remaining: 100, Announced: true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := st.AppendSighting(context.Background(), Sighting{
		At: at, Material: "Iron", Proportion: 3.1, Remaining: 100,
	}); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "mining.sightings.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][1] != "material" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][1] != "Platinum" || rows[1][2] != "72.30" || rows[1][5] != "true" {
		t.Fatalf("first row = %v", rows[1])
	}
}

func TestFileStoreAppendsAcrossReopens(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := Config{Driver: "file", Path: filepath.Join(dir, "mining.db")}

	for i := 0; i < 2; i++ {
		st, err := Open(cfg, logx.Nop())
		if err != nil {
			t.Fatal(err)
		}
		if err := st.AppendSighting(context.Background(), Sighting{Material: "Gold", Proportion: 20}); err != nil {
			t.Fatal(err)
		}
		if err := st.Close(); err != nil {
			t.Fatal(err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "mining.sightings.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// Header written once, then one row per run.
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
}

func TestFileStoreSessionSummary(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "mining.db")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	sum := stats.Summary{
		SessionStart: time.Date(2026, 8, 27, 17, 0, 0, 0, time.UTC),
		GeneratedAt:  time.Date(2026, 8, 27, 18, 0, 0, 0, time.UTC),
		Prospected:   5,
		Announced:    2,
		Materials: map[string]stats.MaterialStats{
			"Platinum": {Found: 3, Notable: 2, MaxProportion: 72.3, SumProportion: 150},
		},
	}
	if err := st.PutSessionSummary(context.Background(), sum); err != nil {
		t.Fatal(err)
	}
	if err := st.PutSessionSummary(context.Background(), sum); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "mining.summary.json"))
	if err != nil {
		t.Fatal(err)
	}
	var got stats.Summary
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Prospected != 5 || got.Materials["Platinum"].Found != 3 {
		t.Fatalf("summary = %+v", got)
	}

	jl, err := os.ReadFile(filepath.Join(dir, "mining.sessions.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	lines := 0
	for _, c := range jl {
		if c == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("session log lines = %d, want 2", lines)
	}
}
