package browser

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"macro_trader/internal/dom"
	"macro_trader/internal/modules/browser/service"
	"macro_trader/internal/modules/config"
	health "macro_trader/internal/modules/health/service"
	"macro_trader/internal/notify"
	"macro_trader/internal/recorder"
	"macro_trader/internal/runner"
)

func Module() fx.Option {
	return fx.Module("browser",
		fx.Provide(
			func(cfg config.BrowserConfig, out *notify.Outbox, log *zap.Logger) *service.Host {
				return service.NewHost(cfg, out, log)
			},
			func(h *service.Host) runner.Pages { return h.Page() },
			func(h *service.Host) dom.Page { return h.Page() },
			func(h *service.Host) recorder.Indicator { return h },
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg config.BrowserConfig, h *service.Host, st *health.State, log *zap.Logger) {
			if !cfg.Enabled {
				log.Warn("[BROWSER] disabled, replay and recording will fail")
				return
			}
			st.WantBrowser()
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if err := h.Start(ctx); err != nil {
						return err
					}
					st.SetBrowserUp(true)
					return nil
				},
				OnStop: func(context.Context) error {
					st.SetBrowserUp(false)
					h.Stop()
					return nil
				},
			})
		}),
	)
}
