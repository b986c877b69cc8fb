package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"backtest-backend/internal/domain"
)

const (
	// windowLimit is the chunk size of one paginated request.
	windowLimit = 1000

	// DefaultWindows is how many backward windows a history load issues.
	DefaultWindows = 4
)

// historyFloor is the instrument inception date (Binance BTCUSDT listing).
// Windows that would start before it are never issued; that data cannot exist.
var historyFloor = time.Date(2017, 8, 17, 0, 0, 0, 0, time.UTC)

// CandleService loads and merges paginated historical candles. It issues N
// fixed-size windows walking backward from now, plus one unscoped fallback
// request, all concurrently, and tolerates partial failure.
type CandleService struct {
	source  domain.CandleSource
	cache   domain.CandleCache // optional, may be nil
	windows int
	nowFn   func() time.Time
}

func NewCandleService(source domain.CandleSource, cache domain.CandleCache, windows int) *CandleService {
	if windows <= 0 {
		windows = DefaultWindows
	}
	return &CandleService{
		source:  source,
		cache:   cache,
		windows: windows,
		nowFn:   time.Now,
	}
}

type windowResult struct {
	candles []domain.Candle
	err     error
}

// LoadHistory fetches, deduplicates and sorts the candle history for a symbol
// and timeframe. A window that fails or comes back empty is logged and skipped;
// only zero successful windows is fatal.
func (s *CandleService) LoadHistory(ctx context.Context, symbol, timeframe string) ([]domain.Candle, error) {
	queries := s.buildQueries(symbol, timeframe)

	results := make([]windowResult, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q domain.CandleQuery) {
			defer wg.Done()
			candles, err := s.source.FetchWindow(ctx, q)
			results[i] = windowResult{candles: candles, err: err}
		}(i, q)
	}
	wg.Wait()

	// Merge in window order so the first occurrence of a timestamp wins
	// deterministically across overlapping windows.
	merged := make(map[int64]domain.Candle)
	succeeded := 0
	var firstErr error
	for i, res := range results {
		if res.err != nil {
			log.Printf("candles: %s %s window %d/%d failed: %v", symbol, timeframe, i+1, len(results), res.err)
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		succeeded++
		for _, cdl := range res.candles {
			if _, seen := merged[cdl.Timestamp]; !seen {
				merged[cdl.Timestamp] = cdl
			}
		}
	}

	if succeeded == 0 {
		if firstErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, firstErr)
		}
		return nil, domain.ErrDataUnavailable
	}
	if succeeded < len(results) {
		log.Printf("candles: %s %s proceeding with %d/%d windows", symbol, timeframe, succeeded, len(results))
	}

	out := make([]domain.Candle, 0, len(merged))
	for _, cdl := range merged {
		out = append(out, cdl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })

	if s.cache != nil && len(out) > 0 {
		if err := s.cache.SaveCandles(ctx, symbol, timeframe, out); err != nil {
			log.Printf("candles: %s %s cache write failed: %v", symbol, timeframe, err)
		}
	}

	return out, nil
}

// CachedRange serves a candle range from the cache, falling back to a live
// load when the cache is empty or absent.
func (s *CandleService) CachedRange(ctx context.Context, symbol, timeframe string, from, to int64) ([]domain.Candle, error) {
	if s.cache != nil {
		candles, err := s.cache.LoadRange(ctx, symbol, timeframe, from, to)
		if err != nil {
			log.Printf("candles: %s %s cache read failed: %v", symbol, timeframe, err)
		} else if len(candles) > 0 {
			return candles, nil
		}
	}
	return s.LoadHistory(ctx, symbol, timeframe)
}

// buildQueries lays out the backward windows plus the unscoped fallback.
// Window i covers [now-(i+1)*chunk, now-i*chunk); iteration stops once a
// window would start before the instrument inception floor.
func (s *CandleService) buildQueries(symbol, timeframe string) []domain.CandleQuery {
	chunk := domain.TimeframeDuration(timeframe) * windowLimit
	now := s.nowFn()

	queries := make([]domain.CandleQuery, 0, s.windows+1)
	for i := 0; i < s.windows; i++ {
		end := now.Add(-time.Duration(i) * chunk)
		start := end.Add(-chunk)
		if start.Before(historyFloor) {
			break
		}
		queries = append(queries, domain.CandleQuery{
			Symbol:    symbol,
			Timeframe: timeframe,
			Limit:     windowLimit,
			StartTime: start.UnixMilli(),
			EndTime:   end.UnixMilli(),
		})
	}
	// Unscoped fallback: whatever the endpoint considers most recent.
	queries = append(queries, domain.CandleQuery{
		Symbol:    symbol,
		Timeframe: timeframe,
		Limit:     windowLimit,
	})
	return queries
}
