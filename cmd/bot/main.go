package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"macro_trader/internal/modules/browser"
	"macro_trader/internal/modules/config"
	"macro_trader/internal/modules/control"
	"macro_trader/internal/modules/health"
	"macro_trader/internal/modules/macro_store"
	"macro_trader/internal/modules/okx_websocket"
	"macro_trader/internal/modules/postgres"
	telegram "macro_trader/internal/modules/telegram_bot"
	"macro_trader/internal/runner"
	"macro_trader/internal/strategy"
	"macro_trader/pkg/logger"
	"macro_trader/pkg/tracing"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(cfg.Service.Name)
	return logger.Init(cfg.Log.Level)
}

func initTracing(lc fx.Lifecycle, cfg config.TracingConfig, svc config.ServiceConfig, log *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	tracing.SetServiceName(svc.Name)
	_, closer, err := tracing.InitTracer(tracing.Config{Host: cfg.Host, Port: cfg.Port, SampleRate: cfg.SampleRate})
	if err != nil {
		return err
	}
	log.Info("[TRACE] jaeger", zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return ctx
			},
			newLogger,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(initTracing),
		config.Module(),
		postgres.Module(),
		macro_store.Module(),
		strategy.Module(),
		browser.Module(),
		okx_websocket.Module(),
		runner.Module(),
		control.Module(),
		telegram.Module(),
		// health последним: /readyz поднимается, когда всё остальное стартовало
		health.Module(),
	)
	if err := app.Err(); err != nil {
		log.Fatal(err)
	}
	app.Run()
}
