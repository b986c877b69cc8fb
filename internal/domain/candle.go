package domain

import (
	"math"
	"time"
)

// msThreshold separates second and millisecond epoch timestamps. Anything above
// it cannot be a plausible second-resolution time and is treated as milliseconds.
const msThreshold = 1_000_000_000_000

// CanonicalSeconds converts an epoch timestamp of unknown resolution to seconds.
func CanonicalSeconds(ts int64) int64 {
	if ts > msThreshold {
		return ts / 1000
	}
	return ts
}

// Candle is a single OHLCV record. Timestamp is always epoch seconds once a
// candle has entered the system.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Valid reports whether the candle can be rendered: positive prices and a
// positive, canonical timestamp.
func (c Candle) Valid() bool {
	if c.Timestamp <= 0 {
		return false
	}
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return c.Volume >= 0
}

// CandleQuery describes one request to the market-data endpoint.
// StartTime/EndTime are epoch milliseconds; zero means unset.
type CandleQuery struct {
	Symbol    string
	Timeframe string
	Limit     int
	StartTime int64
	EndTime   int64
}

// TimeframeDuration maps a timeframe label to its bucket length.
// Unknown labels fall back to one hour.
func TimeframeDuration(tf string) time.Duration {
	switch tf {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return time.Hour
	}
}
