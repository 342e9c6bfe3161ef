package macro_store

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"macro_trader/internal/modules/config"
	"macro_trader/internal/modules/macro_store/service"
	"macro_trader/internal/modules/postgres"
)

// NewKV: драйвер по storage.driver.
func NewKV(ctx context.Context, cfg config.StorageConfig, pg *postgres.Connector) (service.KV, error) {
	switch cfg.Driver {
	case "", "file":
		return service.NewFile(cfg.Path), nil
	case "sqlite":
		path := cfg.Path
		if path == "" || path == service.DefaultFilePath {
			path = "data/macros.db"
		}
		return service.NewSQLite(path)
	case "postgres":
		tm, err := pg.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("macro_store: %w", err)
		}
		return service.NewPostgres(ctx, tm)
	}
	return nil, fmt.Errorf("macro_store: unknown driver %q", cfg.Driver)
}

func Module() fx.Option {
	return fx.Module("macro_store",
		fx.Provide(
			NewKV,
			func(kv service.KV, log *zap.Logger) *service.Store {
				return service.New(kv, log)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, s *service.Store, cfg config.StorageConfig, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					log.Info("[STORE] ready", zap.String("driver", cfg.Driver))
					return nil
				},
				OnStop: func(context.Context) error {
					return s.Close()
				},
			})
		}),
	)
}
