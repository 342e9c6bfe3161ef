package service

import (
	"context"
	"sync"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"macro_trader/internal/models"
	"macro_trader/internal/modules/config"
	"macro_trader/internal/notify"
	"macro_trader/internal/runner"
	"macro_trader/internal/signal"
)

// Trader: то, что бот умеет делать с торговой страницей.
type Trader interface {
	HandleSignal(ctx context.Context, sig models.Signal) (string, error)
	Lock() *runner.TradeLock
	State() *runner.State
}

// Screenshotter: снимок вкладки для SCREENSHOT.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// PhotoSender: отправка картинки в чат.
type PhotoSender interface {
	SendPhoto(name string, data []byte, caption string) error
}

// Incoming: текстовое сообщение из разрешённого чата.
type Incoming struct {
	ID     int
	ChatID int64
	Text   string
}

// Telegram: приём сигналов и команд из одного чата.
type Telegram struct {
	bot    *tgbot.BotAPI // nil — telegram выключен
	cfg    config.TelegramConfig
	parser *signal.Parser
	trader Trader
	reply  notify.Notifier
	photos PhotoSender
	shots  Screenshotter
	log    *zap.Logger

	seen *dedupe
	wg   sync.WaitGroup
	now  func() time.Time

	mu      sync.Mutex
	polling bool
	cancel  context.CancelFunc
}

type Options struct {
	Photos PhotoSender
	Shots  Screenshotter
	Now    func() time.Time
}

func NewTelegram(
	bot *tgbot.BotAPI,
	cfg config.TelegramConfig,
	trader Trader,
	reply notify.Notifier,
	log *zap.Logger,
	opts Options,
) *Telegram {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Telegram{
		bot:    bot,
		cfg:    cfg,
		parser: signal.NewParser(cfg.Trigger),
		trader: trader,
		reply:  reply,
		photos: opts.Photos,
		shots:  opts.Shots,
		log:    log,
		seen:   newDedupe(),
		now:    opts.Now,
	}
}

func (t *Telegram) Polling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.polling
}

// Start: long polling getUpdates в фоне.
func (t *Telegram) Start(parent context.Context) {
	if t.bot == nil {
		t.log.Info("[TG] disabled")
		return
	}
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	t.polling = true
	t.cancel = cancel
	t.mu.Unlock()

	u := tgbot.NewUpdate(0)
	u.Timeout = t.cfg.PollTimeout
	updates := t.bot.GetUpdatesChan(u)
	t.log.Info("[TG] polling started", zap.String("trigger", t.parser.Trigger()), zap.Int64("chat_id", t.cfg.ChatID))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()
}

func (t *Telegram) Stop() {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	wasPolling := t.polling
	t.polling = false
	t.mu.Unlock()

	if wasPolling {
		t.bot.StopReceivingUpdates()
	}
	t.wg.Wait()
}

// Wait: дождаться запущенных сделок.
func (t *Telegram) Wait() { t.wg.Wait() }

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	if msg.Chat.ID != t.cfg.ChatID {
		t.log.Debug("[TG] foreign chat ignored", zap.Int64("chat_id", msg.Chat.ID))
		return
	}
	t.Handle(ctx, Incoming{ID: msg.MessageID, ChatID: msg.Chat.ID, Text: msg.Text})
}
