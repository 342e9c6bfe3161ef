package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"macro_trader/internal/modules/config"
	"macro_trader/pkg/db"
)

// Connector открывает пул по первому запросу: без storage.driver=postgres
// база не нужна и не трогается.
type Connector struct {
	dsn string

	mu sync.Mutex
	tm *db.PgTxManager
}

func NewConnector(cfg config.StorageConfig) *Connector {
	return &Connector{dsn: cfg.DSN}
}

func (c *Connector) Open(ctx context.Context) (*db.PgTxManager, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tm != nil {
		return c.tm, nil
	}
	pool, err := db.NewPool(ctx, db.PoolConfig{
		DSN:            c.dsn,
		MaxConns:       4,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	c.tm = db.NewPgTxManager(pool)
	return c.tm, nil
}

func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tm != nil {
		c.tm.Close()
		c.tm = nil
	}
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(NewConnector),
		fx.Invoke(func(lc fx.Lifecycle, c *Connector) {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					c.Close()
					return nil
				},
			})
		}),
	)
}
