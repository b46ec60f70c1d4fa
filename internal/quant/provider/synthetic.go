// Package provider ships a deterministic, dependency-free
// implementation of engine.MarketDataProvider so the module is a
// runnable, testable binary without a live market-data subscription.
//
// Grounded on the teacher's data.Store.generateSampleData fallback:
// the teacher's Store transparently synthesizes OHLCV bars when no
// backing file is present; SyntheticProvider generalizes that
// fallback-when-missing behavior into the engine's sole always-present
// MarketDataProvider implementation. A production deployment swaps
// this out for a real client behind the same interface.
package provider

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	"github.com/atlas-desktop/quant-engine/internal/quant/apperr"
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
)

// SyntheticProvider deterministically derives an OHLCV walk from the
// ticker symbol's hash, so repeated calls for the same (ticker, period,
// interval) are reproducible without external state.
type SyntheticProvider struct{}

// NewSyntheticProvider constructs a SyntheticProvider.
func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{}
}

var periodBarCounts = map[engine.Period]int{
	"1d": 78, "5d": 130, "1mo": 22, "3mo": 66, "6mo": 130,
	"1y": 252, "2y": 504, "5y": 1260, "10y": 2520, "ytd": 150, "max": 504,
}

var intervalSeconds = map[engine.Interval]int64{
	"1m": 60, "2m": 120, "5m": 300, "15m": 900, "30m": 1800,
	"60m": 3600, "90m": 5400, "1h": 3600, "1d": 86400, "5d": 432000,
	"1wk": 604800, "1mo": 2629800, "3mo": 7889400,
}

// GetHistory synthesizes an ascending-time OHLCV series. An empty
// ticker yields an empty series, matching the "unknown ticker" clause
// of the consumed interface's contract.
func (p *SyntheticProvider) GetHistory(ctx context.Context, ticker string, period engine.Period, interval engine.Interval) ([]engine.Bar, error) {
	if ctx.Err() != nil {
		return nil, apperr.DataUnavailablef(true, "provider call canceled: %v", ctx.Err())
	}
	if ticker == "" {
		return nil, nil
	}

	count, ok := periodBarCounts[period]
	if !ok {
		return nil, apperr.InvalidParamsf("unknown period %q", period)
	}
	step, ok := intervalSeconds[interval]
	if !ok {
		return nil, apperr.InvalidParamsf("unknown interval %q", interval)
	}

	seed := hashSeed(ticker)
	basePrice := 50 + float64(seed%200)
	now := time.Now().Unix() / step * step

	bars := make([]engine.Bar, count)
	price := basePrice
	state := seed
	for i := 0; i < count; i++ {
		state = nextState(state)
		drift := (float64(state%2001)-1000)/1000*0.02 + 0.0005
		open := price
		price = math.Max(price*(1+drift), 0.01)
		high := math.Max(open, price) * (1 + 0.003*float64(state%7))
		low := math.Min(open, price) * (1 - 0.003*float64((state>>3)%7))
		volume := 100000 + float64(state%500000)

		bars[i] = engine.Bar{
			Timestamp: now - step*int64(count-1-i),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     price,
			Volume:    volume,
		}
	}
	return bars, nil
}

// GetQuote synthesizes a live-looking snapshot jittered around the
// ticker's synthetic base price (the starting price of GetHistory's
// walk), which is also reported as the previous close.
func (p *SyntheticProvider) GetQuote(ctx context.Context, ticker string) (engine.Quote, error) {
	if ctx.Err() != nil {
		return engine.Quote{}, apperr.DataUnavailablef(true, "provider call canceled: %v", ctx.Err())
	}
	if ticker == "" {
		return engine.Quote{}, apperr.DataUnavailablef(false, "unknown ticker %q", ticker)
	}
	seed := hashSeed(ticker)
	state := nextState(seed + uint64(time.Now().Unix()/5))
	basePrice := 50 + float64(seed%200)
	jitter := (float64(state%2001) - 1000) / 1000 * 0.01
	price := basePrice * (1 + jitter)
	previousClose := basePrice

	return engine.Quote{
		Price:         price,
		PreviousClose: previousClose,
		DayHigh:       price * 1.01,
		DayLow:        price * 0.99,
		Volume:        100000 + float64(state%500000),
		Timestamp:     time.Now().Unix(),
	}, nil
}

func hashSeed(ticker string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ticker))
	return h.Sum64()
}

// nextState is a small xorshift64 step, enough to drive a
// deterministic-but-non-repeating-looking walk without pulling in a
// math/rand dependency whose seeding would undercut determinism.
func nextState(x uint64) uint64 {
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	return x
}
