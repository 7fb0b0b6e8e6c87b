package announce

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"

	logx "prospector/pkg/logx"
)

// TelegramSink pushes announcement text to a chat, for pilots who want
// finds on their phone as well as over the speakers.
type TelegramSink struct {
	bot    *tele.Bot
	chatID int64
	log    logx.Logger
}

func NewTelegramSink(token string, chatID int64, log logx.Logger) (*TelegramSink, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat_id is empty")
	}
	b, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &TelegramSink{bot: b, chatID: chatID, log: log}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Announce(ctx context.Context, a Announcement) error {
	_ = ctx // telebot manages its own request deadlines
	chat := &tele.Chat{ID: s.chatID}
	_, err := s.bot.Send(chat, a.Text, &tele.SendOptions{DisableWebPagePreview: true})
	if err == nil {
		s.log.Debug("announcement pushed to telegram", logx.String("material", a.Material))
	}
	return err
}
