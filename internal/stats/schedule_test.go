package stats

import (
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in    string
		kind  SpecKind
		cron  string
		every time.Duration
		err   bool
	}{
		{in: "*/5 * * * *", kind: SpecCron, cron: "*/5 * * * *"},
		{in: "@hourly", kind: SpecCron, cron: "@hourly"},
		{in: "cron:0 * * * *", kind: SpecCron, cron: "0 * * * *"},
		{in: "10m", kind: SpecInterval, every: 10 * time.Minute},
		{in: "1h30m", kind: SpecInterval, every: 90 * time.Minute},
		{in: "00:30", kind: SpecInterval, every: 30 * time.Minute},
		{in: "interval:02:00", kind: SpecInterval, every: 2 * time.Hour},
		{in: "", err: true},
		{in: "cron:", err: true},
		{in: "00:99", err: true},
		{in: "-5m", err: true},
		{in: "soon", err: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSchedule(tt.in)
			if tt.err {
				if err == nil {
					t.Fatalf("ParseSchedule(%q) = %+v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSchedule(%q): %v", tt.in, err)
			}
			if got.Kind != tt.kind || got.Cron != tt.cron || got.Every != tt.every {
				t.Fatalf("ParseSchedule(%q) = %+v", tt.in, got)
			}
		})
	}
}
