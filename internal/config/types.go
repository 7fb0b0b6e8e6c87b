package config

import (
	"fmt"
	"sort"
	"strings"
)

// Config is the full on-disk configuration.
//
// JSON is the native format; YAML files are accepted by coercion (see yaml.go).
// Duration-like fields are kept as strings here and parsed where they are
// consumed, so a config file can say "500ms" or "2s" uniformly.
type Config struct {
	Journal  JournalConfig  `json:"journal"`
	Announce AnnounceConfig `json:"announce"`
	Stats    StatsConfig    `json:"stats,omitempty"`
	Storage  StorageConfig  `json:"storage,omitempty"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
	Process  ProcessConfig  `json:"process,omitempty"`
	Debug    DebugConfig    `json:"debug,omitempty"`
}

type JournalConfig struct {
	// Dir is the directory the game writes journal files into.
	Dir string `json:"dir"`
	// Pattern is a filepath.Match pattern selecting journal files.
	Pattern string `json:"pattern,omitempty"`
	// PollInterval is how often the tailer checks for appended lines.
	PollInterval string `json:"poll_interval,omitempty"`
}

type AnnounceConfig struct {
	// Thresholds maps material name to the minimum percentage that makes a
	// prospected asteroid worth announcing. Materials without an entry are
	// never announced.
	Thresholds map[string]float64 `json:"thresholds"`
	// MinRemaining suppresses announcements for asteroids already mined below
	// this percentage. 0 disables the gate; the game reports 100 for pristine
	// rocks.
	MinRemaining float64 `json:"min_remaining,omitempty"`
	// QueueSize bounds the pending-announcement queue. Oldest entries are
	// dropped when a burst exceeds it.
	QueueSize int `json:"queue_size,omitempty"`

	Speech   SpeechConfig   `json:"speech"`
	Telegram TelegramConfig `json:"telegram,omitempty"`
}

type SpeechConfig struct {
	Enabled bool `json:"enabled"`
	// Command is the TTS program; the announcement text is appended as the
	// final argument (e.g. "espeak-ng", "say", "spd-say").
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	// Timeout bounds one speech invocation.
	Timeout string `json:"timeout,omitempty"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  int64  `json:"chat_id,omitempty"`
}

type StatsConfig struct {
	// FlushSchedule is a cron expression or interval string; empty disables
	// periodic export (the final flush on shutdown always happens).
	FlushSchedule string `json:"flush_schedule,omitempty"`
	// ResetOnRotation starts a fresh statistics session when the journal
	// rotates to a newer file.
	ResetOnRotation bool `json:"reset_on_rotation,omitempty"`
}

// StorageConfig selects the stats persistence backend.
// Driver: "" or "none" disables storage, "file" writes CSV + JSON next to
// Path, "sqlite" uses a SQLite database (requires the sqlite build tag).
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`
	Console bool          `json:"console,omitempty"`
	File    LogFileConfig `json:"file,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

type ProcessConfig struct {
	// Name is the executable name of the journal writer (the game). When set,
	// the monitor logs when it appears or disappears.
	Name string `json:"name,omitempty"`
	// CheckInterval is how often the process probe runs.
	CheckInterval string `json:"check_interval,omitempty"`
}

// DebugConfig controls the local pprof/health HTTP server.
// Binding to a non-loopback address requires Token or AllowInsecure.
type DebugConfig struct {
	Enabled       bool   `json:"enabled,omitempty"`
	Addr          string `json:"addr,omitempty"`
	Token         string `json:"token,omitempty"`
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
}

// Validate rejects configs the pipeline refuses to run with.
// It is called before start and before committing a hot reload.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(c.Journal.Dir) == "" {
		return fmt.Errorf("journal.dir is required")
	}
	// Unset means the default; an explicit value must be positive rather
	// than silently falling back.
	if raw := strings.TrimSpace(c.Journal.PollInterval); raw != "" {
		d, err := ParseDurationField("journal.poll_interval", c.Journal.PollInterval)
		if err != nil {
			return err
		}
		if d <= 0 {
			return fmt.Errorf("journal.poll_interval: %q must be > 0", raw)
		}
	}
	if len(c.Announce.Thresholds) == 0 {
		return fmt.Errorf("announce.thresholds must configure at least one material")
	}
	// Deterministic error order for tests and operators.
	names := make([]string, 0, len(c.Announce.Thresholds))
	for name := range c.Announce.Thresholds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := c.Announce.Thresholds[name]
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("announce.thresholds: empty material name")
		}
		if v < 0 || v > 100 {
			return fmt.Errorf("announce.thresholds[%s]: %v out of range [0,100]", name, v)
		}
	}
	if c.Announce.MinRemaining < 0 || c.Announce.MinRemaining > 100 {
		return fmt.Errorf("announce.min_remaining: %v out of range [0,100]", c.Announce.MinRemaining)
	}
	if c.Announce.QueueSize < 0 {
		return fmt.Errorf("announce.queue_size must be >= 0")
	}
	if c.Announce.Speech.Enabled && strings.TrimSpace(c.Announce.Speech.Command) == "" {
		return fmt.Errorf("announce.speech.command is required when speech is enabled")
	}
	if _, err := ParseDurationField("announce.speech.timeout", c.Announce.Speech.Timeout); err != nil {
		return err
	}
	if c.Announce.Telegram.Enabled {
		if strings.TrimSpace(c.Announce.Telegram.Token) == "" {
			return fmt.Errorf("announce.telegram.token is required when telegram is enabled")
		}
		if c.Announce.Telegram.ChatID == 0 {
			return fmt.Errorf("announce.telegram.chat_id is required when telegram is enabled")
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "none", "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("process.check_interval", c.Process.CheckInterval); err != nil {
		return err
	}
	return nil
}
