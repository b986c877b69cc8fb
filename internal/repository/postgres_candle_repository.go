package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"backtest-backend/internal/domain"
)

// PostgresCandleRepository is the write-through candle cache. Chart reloads
// read from here instead of re-issuing the paginated fetch; candle rows are
// immutable once written, so conflicts simply keep the first copy.
type PostgresCandleRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresCandleRepository(pool *pgxpool.Pool) *PostgresCandleRepository {
	return &PostgresCandleRepository{pool: pool}
}

func (r *PostgresCandleRepository) SaveCandles(ctx context.Context, symbol, timeframe string, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(`
			insert into candles(symbol, timeframe, ts, open, high, low, close, volume)
			values ($1,$2,$3,$4,$5,$6,$7,$8)
			on conflict (symbol, timeframe, ts) do nothing
		`, symbol, timeframe, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range candles {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadRange returns the cached candles for [from, to] ascending; zero bounds
// mean unbounded on that side.
func (r *PostgresCandleRepository) LoadRange(ctx context.Context, symbol, timeframe string, from, to int64) ([]domain.Candle, error) {
	if to == 0 {
		to = int64(1) << 62
	}
	rows, err := r.pool.Query(ctx, `
		select ts, open, high, low, close, volume
		from candles
		where symbol = $1 and timeframe = $2 and ts >= $3 and ts <= $4
		order by ts asc
	`, symbol, timeframe, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Candle
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ domain.CandleCache = (*PostgresCandleRepository)(nil)
