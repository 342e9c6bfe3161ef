package okx_websocket

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"macro_trader/internal/modules/config"
	health "macro_trader/internal/modules/health/service"
	"macro_trader/internal/modules/okx_websocket/service"
	"macro_trader/internal/runner"
)

// Module: цена из OKX, если price.source=okx_ws. Иначе runner читает цену со страницы.
func Module() fx.Option {
	return fx.Module("okx_websocket",
		fx.Provide(
			func(cfg config.PriceConfig, st *health.State, log *zap.Logger) *service.Client {
				return service.NewClient(cfg, st, log)
			},
			func(cfg config.PriceConfig, c *service.Client) runner.PriceFeed {
				if cfg.Source != "okx_ws" {
					return nil
				}
				return c
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg config.PriceConfig, c *service.Client) {
			if cfg.Source != "okx_ws" {
				return
			}
			streamCtx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					c.Start(streamCtx)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					cancel()
					c.Wait()
					return nil
				},
			})
		}),
	)
}
