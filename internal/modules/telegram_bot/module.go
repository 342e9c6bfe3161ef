package telegram

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	browser "macro_trader/internal/modules/browser/service"
	"macro_trader/internal/modules/config"
	"macro_trader/internal/modules/telegram_bot/service"
	"macro_trader/internal/notify"
	"macro_trader/internal/runner"
)

// NewBotAPI: nil, если telegram выключен.
func NewBotAPI(cfg config.TelegramConfig) (*tgbot.BotAPI, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	b, err := tgbot.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return b, nil
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			NewBotAPI,
			func(b *tgbot.BotAPI, cfg config.TelegramConfig) *notify.Telegram {
				return notify.NewTelegram(b, cfg.ChatID)
			},
			// лог всегда, чат — если настроен
			func(tg *notify.Telegram, log *zap.Logger) notify.Notifier {
				return notify.Multi{notify.NewLog(log), tg}
			},
			func(
				b *tgbot.BotAPI,
				cfg config.TelegramConfig,
				orch *runner.Orchestrator,
				n notify.Notifier,
				tg *notify.Telegram,
				host *browser.Host,
				log *zap.Logger,
			) *service.Telegram {
				return service.NewTelegram(b, cfg, orch, n, log, service.Options{Photos: tg, Shots: host})
			},
		),
		fx.Invoke(
			func(lc fx.Lifecycle, ctx context.Context, t *service.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(context.Context) error {
						t.Start(ctx)
						return nil
					},
					OnStop: func(context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
