package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS macro_records (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const sqliteUpsert = `INSERT INTO macro_records (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SQLite: та же таблица macro_records в локальном файле.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite: path ":memory:" — база в памяти (тесты).
func NewSQLite(path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "sqlite: mkdir")
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: open")
	}
	// одна запись за раз; для :memory: ещё и одна база на соединение
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "sqlite: migrate macro_records")
	}
	return &SQLite{conn: conn}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM macro_records WHERE key = ?`, key).Scan(&v)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite.Get %s", key)
	}
	return []byte(v), nil
}

func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.conn.ExecContext(ctx, sqliteUpsert, key, string(value))
	return errors.Wrapf(err, "sqlite.Put %s", key)
}

func (s *SQLite) PutMany(ctx context.Context, records map[string][]byte) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sqlite.PutMany: begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = errors.Wrap(tx.Commit(), "sqlite.PutMany: commit")
	}()

	for k, v := range records {
		if _, err = tx.ExecContext(ctx, sqliteUpsert, k, string(v)); err != nil {
			return errors.Wrapf(err, "sqlite.PutMany %s", k)
		}
	}
	return nil
}

func (s *SQLite) All(ctx context.Context) (map[string][]byte, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT key, value FROM macro_records`)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite.All")
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.Wrap(err, "sqlite.All: scan")
		}
		out[k] = []byte(v)
	}
	return out, errors.Wrap(rows.Err(), "sqlite.All")
}

func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM macro_records`)
	return errors.Wrap(err, "sqlite.Clear")
}

func (s *SQLite) Close() error { return s.conn.Close() }
