package notify

import (
	"fmt"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier: короткие сообщения пользователю (в чат или лог).
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Telegram: пассивный нотифайер в один чат.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64

	mu sync.Mutex
}

func NewTelegram(bot *tgbot.BotAPI, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// SendPhoto: PNG в чат (SCREENSHOT).
func (t *Telegram) SendPhoto(name string, data []byte, caption string) error {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return fmt.Errorf("telegram: no chat configured")
	}
	photo := tgbot.NewPhoto(t.chatID, tgbot.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.bot.Send(photo)
	return err
}

// Log: пишет в лог, когда чата нет.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log { return &Log{log: log} }

func (l *Log) Send(msg string)                  { l.log.Info("[NOTIFY] " + msg) }
func (l *Log) Sendf(format string, args ...any) { l.Send(fmt.Sprintf(format, args...)) }

// Multi: рассылка в несколько нотифайеров.
type Multi []Notifier

func (m Multi) Send(msg string) {
	for _, n := range m {
		if n != nil {
			n.Send(msg)
		}
	}
}

func (m Multi) Sendf(format string, args ...any) { m.Send(fmt.Sprintf(format, args...)) }
