package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the candle cache table. Kept inline (no external migration
// tool) since this service owns a single table.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists candles (
			symbol text not null,
			timeframe text not null,
			ts bigint not null,
			open double precision not null,
			high double precision not null,
			low double precision not null,
			close double precision not null,
			volume double precision not null default 0,
			primary key (symbol, timeframe, ts)
		);`,
		`create index if not exists candles_symbol_timeframe_ts_idx on candles(symbol, timeframe, ts desc);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
