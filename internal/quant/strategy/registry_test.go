package strategy

import (
	"testing"

	"github.com/atlas-desktop/quant-engine/internal/quant/apperr"
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
)

func barsFromCloses(closes []float64) []engine.Bar {
	bars := make([]engine.Bar, len(closes))
	for i, c := range closes {
		bars[i] = engine.Bar{
			Timestamp: int64(i) * 86400,
			Open:      c, High: c, Low: c, Close: c,
			Volume: 1000,
		}
	}
	return bars
}

func runEntry(t *testing.T, e Entry, bars []engine.Bar, overrides map[string]float64) []engine.Signal {
	t.Helper()
	params, err := ValidateParams(e, overrides)
	if err != nil {
		t.Fatalf("ValidateParams: %v", err)
	}
	ind, err := e.Indicators(bars, params)
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	signals, err := e.Signals(bars, ind, params)
	if err != nil {
		t.Fatalf("Signals: %v", err)
	}
	return signals
}

func TestRegistryHasTwentyStrategies(t *testing.T) {
	r := NewRegistry()
	if got := len(r.List()); got != 20 {
		t.Fatalf("registry has %d strategies, want 20", got)
	}
}

func TestUnknownStrategyError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("not_a_real_strategy")
	if err == nil {
		t.Fatal("expected an error for an unregistered strategy key")
	}
	if apperr.KindOf(err) != apperr.UnknownStrategy {
		t.Fatalf("KindOf(err) = %v, want UnknownStrategy", apperr.KindOf(err))
	}
}

func TestValidateParamsRejectsUnknownKey(t *testing.T) {
	r := NewRegistry()
	e, _ := r.Get("ma_crossover")
	_, err := ValidateParams(e, map[string]float64{"bogus": 1})
	if apperr.KindOf(err) != apperr.InvalidParams {
		t.Fatalf("expected InvalidParams for an unknown parameter key, got %v", err)
	}
}

func TestValidateParamsRejectsSlowNotGreaterThanFast(t *testing.T) {
	r := NewRegistry()
	e, _ := r.Get("ma_crossover")
	_, err := ValidateParams(e, map[string]float64{"fast": 10, "slow": 10})
	if apperr.KindOf(err) != apperr.InvalidParams {
		t.Fatalf("expected InvalidParams when slow <= fast, got %v", err)
	}
}

// Seed scenario 1: ma_crossover, fast:3 slow:5, on the given series the
// SMA(3)/SMA(5) pair crosses below once (a SELL) then above once (a BUY);
// no signal fires where slow's leading NaN hole prevents a prior-bar
// comparison.
func TestMACrossoverSeedScenario(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 10, 9, 8, 7, 6, 10, 12, 14, 16, 18}
	bars := barsFromCloses(closes)

	r := NewRegistry()
	e, _ := r.Get("ma_crossover")
	signals := runEntry(t, e, bars, map[string]float64{"fast": 3, "slow": 5})

	if len(signals) != 2 {
		t.Fatalf("got %d signals, want 2 (one SELL cross-down, one BUY cross-up): %+v", len(signals), signals)
	}
	if signals[0].Side != engine.Sell {
		t.Errorf("first signal side = %v, want SELL", signals[0].Side)
	}
	if signals[1].Side != engine.Buy {
		t.Errorf("second signal side = %v, want BUY", signals[1].Side)
	}
	if signals[0].Timestamp >= signals[1].Timestamp {
		t.Errorf("signals must be in ascending time order")
	}
}

// Seed scenario 2: rsi_strategy, default params, a series driven deep
// oversold then monotonically recovered produces exactly one BUY at the
// bar RSI first crosses back up through the oversold threshold.
func TestRSIStrategySeedScenario(t *testing.T) {
	closes := make([]float64, 0, 35)
	for i := 0; i < 15; i++ {
		closes = append(closes, 100) // flat seed region
	}
	for c := 95.0; c >= 50; c -= 5 {
		closes = append(closes, c) // monotonic decline into oversold
	}
	for c := 55.0; c <= 100; c += 5 {
		closes = append(closes, c) // monotonic recovery
	}
	bars := barsFromCloses(closes)

	r := NewRegistry()
	e, _ := r.Get("rsi_strategy")
	signals := runEntry(t, e, bars, nil)

	if len(signals) != 1 {
		t.Fatalf("got %d signals, want exactly 1 BUY at the recovery bar: %+v", len(signals), signals)
	}
	if signals[0].Side != engine.Buy {
		t.Fatalf("signal side = %v, want BUY", signals[0].Side)
	}
	if signals[0].Price != closes[27] {
		t.Errorf("BUY fired at price %v, want close[27]=%v", signals[0].Price, closes[27])
	}
}

// Universal invariant (spec): BUY count minus SELL count is in {-1,0,1}
// for every strategy over a non-empty bar series.
func TestBuySellAlternationInvariant(t *testing.T) {
	closes := make([]float64, 60)
	v := 100.0
	for i := range closes {
		if i%7 < 3 {
			v += 1.5
		} else {
			v -= 1.2
		}
		closes[i] = v
	}
	bars := barsFromCloses(closes)

	r := NewRegistry()
	for _, d := range r.List() {
		e, _ := r.Get(d.Key)
		signals := runEntry(t, e, bars, nil)
		buys, sells := 0, 0
		for _, s := range signals {
			if s.Side == engine.Buy {
				buys++
			} else {
				sells++
			}
		}
		diff := buys - sells
		if diff < -1 || diff > 1 {
			t.Errorf("%s: buys-sells = %d, want in {-1,0,1}", d.Key, diff)
		}
	}
}

// Boundary: a series shorter than every strategy's minimum lookback
// produces no signals for any strategy.
func TestShortSeriesProducesNoSignals(t *testing.T) {
	bars := barsFromCloses([]float64{100, 101})

	r := NewRegistry()
	for _, d := range r.List() {
		e, _ := r.Get(d.Key)
		signals := runEntry(t, e, bars, nil)
		if len(signals) != 0 {
			t.Errorf("%s: got %d signals on a too-short series, want 0", d.Key, len(signals))
		}
	}
}

// Boundary: an all-identical-OHLCV series produces no signals and no
// division-by-zero artifacts for any strategy.
func TestFlatSeriesProducesNoSignals(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	bars := barsFromCloses(closes)

	r := NewRegistry()
	for _, d := range r.List() {
		e, _ := r.Get(d.Key)
		signals := runEntry(t, e, bars, nil)
		if len(signals) != 0 {
			t.Errorf("%s: got %d signals on a flat series, want 0", d.Key, len(signals))
		}
	}
}
