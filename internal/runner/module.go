package runner

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"macro_trader/internal/modules/config"
	store "macro_trader/internal/modules/macro_store/service"
	"macro_trader/internal/notify"
	"macro_trader/internal/replay"
	"macro_trader/internal/strategy"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func(cfg config.TradingConfig) *TradeLock {
				return NewTradeLock(cfg.MinTradeInterval, cfg.MaxExecutionTime, nil)
			},
			func(cfg config.TradingConfig) *State {
				return NewState(strategy.NewSplitEntry(cfg), strategy.NewExitState(cfg))
			},
			func(pages Pages, st *store.Store, feed PriceFeed, log *zap.Logger) *Extractor {
				return NewExtractor(pages, st, feed, log)
			},
			func(
				cfg config.TradingConfig,
				lock *TradeLock,
				state *State,
				st *store.Store,
				pages Pages,
				market *Extractor,
				engine strategy.Engine,
				n notify.Notifier,
				log *zap.Logger,
			) *Orchestrator {
				return NewOrchestrator(cfg, Deps{
					Lock:     lock,
					State:    state,
					Store:    st,
					Pages:    pages,
					Market:   market,
					Resolver: replay.NewResolver(log),
					Executor: replay.NewExecutor(log),
					Engine:   engine,
					Notifier: n,
				}, log)
			},
			func(o *Orchestrator, cfg config.TradingConfig, log *zap.Logger) *ExitWorker {
				return NewExitWorker(o, cfg.ExitGrace, log)
			},
			NewWatchdog,
			NewScheduler,
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			cfg config.TradingConfig,
			s *Scheduler,
			w *ExitWorker,
			wd *Watchdog,
		) error {
			if err := s.AddJob(cfg.ExitSchedule, exitJob(w)); err != nil {
				return fmt.Errorf("exit schedule %q: %w", cfg.ExitSchedule, err)
			}
			if err := s.AddJob(cfg.WatchdogSchedule, wd); err != nil {
				return fmt.Errorf("watchdog schedule %q: %w", cfg.WatchdogSchedule, err)
			}
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					s.Start()
					return nil
				},
				OnStop: func(_ context.Context) error {
					s.Stop()
					return nil
				},
			})
			return nil
		}),
	)
}
