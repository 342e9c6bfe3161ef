package control

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"macro_trader/internal/dom"
	browser "macro_trader/internal/modules/browser/service"
	"macro_trader/internal/modules/config"
	"macro_trader/internal/modules/control/service"
	store "macro_trader/internal/modules/macro_store/service"
	"macro_trader/internal/notify"
	"macro_trader/internal/recorder"
	"macro_trader/internal/runner"
)

func Module() fx.Option {
	return fx.Module("control",
		fx.Provide(
			func(log *zap.Logger) *notify.Outbox { return notify.NewOutbox(log, 0) },
			func(page dom.Page, st *store.Store, ind recorder.Indicator, out *notify.Outbox, log *zap.Logger) *recorder.Session {
				return recorder.NewSession(page, st, ind, out, log, recorder.Options{})
			},
			func(page dom.Page, out *notify.Outbox, log *zap.Logger) *recorder.Selection {
				return recorder.NewSelection(page, out, log)
			},
			func(
				ctx context.Context,
				orch *runner.Orchestrator,
				rec *recorder.Session,
				sel *recorder.Selection,
				st *store.Store,
				market *runner.Extractor,
				out *notify.Outbox,
				host *browser.Host,
				log *zap.Logger,
			) *service.API {
				return service.New(ctx, service.Deps{
					Trader:   orch,
					Recorder: rec,
					Selector: sel,
					Store:    st,
					Market:   market,
					Events:   out,
					Page:     host.Page(),
				}, log)
			},
		),
		fx.Invoke(RunHTTP),
	)
}

func RunHTTP(lc fx.Lifecycle, cfg config.ServiceConfig, api *service.API, rec *recorder.Session, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.ControlAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.ControlAddr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("[API] serve", zap.Error(err))
				}
			}()
			log.Info("[API] listening", zap.String("addr", cfg.ControlAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := srv.Shutdown(ctx)
			// незаконченная запись сохраняется при остановке
			if _, stopErr := rec.Stop(ctx); stopErr != nil {
				log.Warn("[REC] stop on shutdown", zap.Error(stopErr))
			}
			api.Wait()
			return err
		},
	})
}
