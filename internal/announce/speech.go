package announce

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	logx "prospector/pkg/logx"
)

// SpeechSink speaks announcements by spawning a TTS command (espeak-ng,
// say, spd-say, ...) with the announcement text as the final argument.
//
// The call is synchronous and blocking by design: the queue consumer is the
// only caller, so one utterance finishes before the next begins.
type SpeechSink struct {
	command string
	args    []string
	timeout time.Duration
	log     logx.Logger
}

const defaultSpeechTimeout = 30 * time.Second

func NewSpeechSink(command string, args []string, timeout time.Duration, log logx.Logger) *SpeechSink {
	if timeout <= 0 {
		timeout = defaultSpeechTimeout
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &SpeechSink{
		command: command,
		args:    append([]string(nil), args...),
		timeout: timeout,
		log:     log,
	}
}

func (s *SpeechSink) Name() string { return "speech" }

func (s *SpeechSink) Announce(ctx context.Context, a Announcement) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(append([]string(nil), s.args...), a.Text)
	cmd := exec.CommandContext(ctx, s.command, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", s.command, err, msg)
		}
		return fmt.Errorf("%s: %w", s.command, err)
	}
	s.log.Debug("spoke announcement", logx.String("text", a.Text))
	return nil
}
