package service

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"macro_trader/pkg/db"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS macro_records (
	key        text PRIMARY KEY,
	value      jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

const pgUpsert = `INSERT INTO macro_records (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// Postgres: записи в таблице macro_records.
type Postgres struct {
	db db.TxManager
}

func NewPostgres(ctx context.Context, tm db.TxManager) (*Postgres, error) {
	if _, err := tm.Conn().Exec(ctx, pgSchema); err != nil {
		return nil, errors.Wrap(err, "pg: migrate macro_records")
	}
	return &Postgres{db: tm}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (value []byte, err error) {
	defer func() {
		if err != nil && !stderrors.Is(err, ErrNotFound) {
			err = errors.Wrapf(err, "pg.Get %s", key)
		}
	}()
	err = p.db.Conn().QueryRow(ctx, `SELECT value FROM macro_records WHERE key = $1`, key).Scan(&value)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return value, err
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	_, err := p.db.Conn().Exec(ctx, pgUpsert, key, value)
	return errors.Wrapf(err, "pg.Put %s", key)
}

func (p *Postgres) PutMany(ctx context.Context, records map[string][]byte) error {
	err := p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		for k, v := range records {
			if _, err := tx.Exec(ctxTx, pgUpsert, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "pg.PutMany")
}

func (p *Postgres) All(ctx context.Context) (out map[string][]byte, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.All")
		}
	}()
	out = make(map[string][]byte)
	err = p.db.RunReadOnly(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctxTx, `SELECT key, value FROM macro_records`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				k string
				v []byte
			)
			if err := rows.Scan(&k, &v); err != nil {
				return err
			}
			out[k] = v
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	_, err := p.db.Conn().Exec(ctx, `DELETE FROM macro_records`)
	return errors.Wrap(err, "pg.Clear")
}

// Close: пулом владеет модуль postgres.
func (p *Postgres) Close() error { return nil }
