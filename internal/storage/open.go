package storage

import (
	"context"
	"errors"
	"strings"

	"prospector/internal/stats"
	logx "prospector/pkg/logx"
)

// Store is the minimal persistence API used by the pipeline.
type Store interface {
	AppendSighting(ctx context.Context, s Sighting) error
	PutSessionSummary(ctx context.Context, sum stats.Summary) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
