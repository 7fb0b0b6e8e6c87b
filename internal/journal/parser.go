package journal

import (
	"encoding/json"
	"time"

	"golang.org/x/time/rate"

	logx "prospector/pkg/logx"
)

const prospectedEvent = "ProspectedAsteroid"

// journalRecord mirrors the fields we read from a raw journal line. The
// game emits many other event kinds and fields; everything unknown is
// ignored rather than rejected.
type journalRecord struct {
	Timestamp          string           `json:"timestamp"`
	Event              string           `json:"event"`
	Materials          []materialRecord `json:"Materials"`
	MotherlodeMaterial string           `json:"MotherlodeMaterial"`
	ContentLocalised   string           `json:"Content_Localised"`
	Remaining          *float64         `json:"Remaining"`
}

type materialRecord struct {
	Name       string  `json:"Name"`
	Proportion float64 `json:"Proportion"`
}

// Parser converts raw journal lines into ProspectEvents.
//
// Malformed lines and unrelated event kinds are expected and routine: both
// yield (nil, false) with no error surfaced. Malformed-line diagnostics are
// rate limited so a corrupt journal can't flood the log.
type Parser struct {
	log     logx.Logger
	badLine *rate.Limiter
}

func NewParser(log logx.Logger) *Parser {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Parser{
		log:     log,
		badLine: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Parse decodes one line. ok is false for anything that is not a
// well-formed ProspectedAsteroid record.
func (p *Parser) Parse(line Line) (ev *ProspectEvent, ok bool) {
	var rec journalRecord
	if err := json.Unmarshal([]byte(line.Text), &rec); err != nil {
		if p.badLine.Allow() {
			p.log.Debug("malformed journal line dropped",
				logx.Err(err),
				logx.String("text", truncateLine(line.Text, 120)),
			)
		}
		return nil, false
	}
	if rec.Event != prospectedEvent {
		return nil, false
	}

	ev = &ProspectEvent{
		Timestamp:  parseTimestamp(rec.Timestamp),
		Content:    rec.ContentLocalised,
		Motherlode: rec.MotherlodeMaterial,
		Remaining:  100,
	}
	if rec.Remaining != nil {
		ev.Remaining = *rec.Remaining
	}

	if len(rec.Materials) > 0 {
		ev.Materials = make([]MaterialReading, 0, len(rec.Materials))
		seen := make(map[string]struct{}, len(rec.Materials))
		for _, m := range rec.Materials {
			if m.Name == "" {
				continue
			}
			if _, dup := seen[m.Name]; dup {
				continue
			}
			seen[m.Name] = struct{}{}
			ev.Materials = append(ev.Materials, MaterialReading{Name: m.Name, Proportion: m.Proportion})
		}
	}
	return ev, true
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

func truncateLine(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
