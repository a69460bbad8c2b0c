// Package loader applies pipeline output to a live PostgreSQL table.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sqlimport/internal/core"
	"github.com/JonMunkholm/sqlimport/internal/logging"
)

// ErrNothingToLoad is returned for a result with no rows or no columns.
var ErrNothingToLoad = errors.New("nothing to load")

// TxBeginner starts transactions. *pgxpool.Pool and *pgx.Conn satisfy it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens and pings a pool.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// DatabaseName returns the path component of a connection URL, or "" when
// it cannot be parsed.
func DatabaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// Loader copies emitted rows into the table the result was built for.
type Loader struct {
	db TxBeginner
	// Schema is an optional Postgres schema qualifier for the target table.
	Schema string
}

func New(db TxBeginner) *Loader {
	return &Loader{db: db}
}

// Load inserts every emitted row of res in one transaction and returns the
// number of rows copied. Rows excluded by the pipeline are not retried.
// A conversion failure on any row aborts the whole load.
func (l *Loader) Load(ctx context.Context, res *core.PipelineResult) (int64, error) {
	if res == nil || len(res.Rows) == 0 || len(res.Columns) == 0 {
		return 0, ErrNothingToLoad
	}

	types := make([]core.TypeInfo, len(res.Columns))
	for i, c := range res.Columns {
		types[i] = c.Field.Type()
	}
	rows := make([][]any, len(res.Rows))
	for i, r := range res.Rows {
		if i%1000 == 0 && ctx.Err() != nil {
			return 0, ctx.Err()
		}
		values, err := core.ToPgRow(r.Cells, types)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", r.Index, err)
		}
		rows[i] = values
	}

	logger := logging.WithFields(ctx, "run_id", res.RunID, "table", res.Table)
	start := time.Now()

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	n, err := tx.CopyFrom(ctx, l.identifier(res.Table), res.FieldNames(), pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", res.Table, err)
	}

	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	logger.Info("rows loaded", "rows", n, "duration", time.Since(start))
	return n, nil
}

func (l *Loader) identifier(table string) pgx.Identifier {
	if l.Schema != "" {
		return pgx.Identifier{l.Schema, table}
	}
	return pgx.Identifier{table}
}
