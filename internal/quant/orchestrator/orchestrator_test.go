package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-desktop/quant-engine/internal/quant/apperr"
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/strategy"
)

type fakeProvider struct {
	bars []engine.Bar
	err  error
}

func (f *fakeProvider) GetHistory(ctx context.Context, ticker string, period engine.Period, interval engine.Interval) ([]engine.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func (f *fakeProvider) GetQuote(ctx context.Context, ticker string) (engine.Quote, error) {
	return engine.Quote{}, nil
}

// slowProvider blocks until ctx is done, the way a real MarketDataProvider
// stuck on a slow upstream would, to exercise the orchestrator's own
// provider-timeout enforcement rather than the provider's.
type slowProvider struct{}

func (slowProvider) GetHistory(ctx context.Context, ticker string, period engine.Period, interval engine.Interval) ([]engine.Bar, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) GetQuote(ctx context.Context, ticker string) (engine.Quote, error) {
	<-ctx.Done()
	return engine.Quote{}, ctx.Err()
}

func closesToBars(closes []float64) []engine.Bar {
	bars := make([]engine.Bar, len(closes))
	for i, c := range closes {
		bars[i] = engine.Bar{Timestamp: int64(i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func newTestOrchestrator(bars []engine.Bar) *Orchestrator {
	return New(strategy.NewRegistry(), &fakeProvider{bars: bars}, zap.NewNop(), 10*time.Second)
}

func TestRunUnknownStrategyReturns400Kind(t *testing.T) {
	o := newTestOrchestrator(closesToBars([]float64{1, 2, 3}))
	_, err := o.Run(context.Background(), Request{Ticker: "AAPL", Strategy: "not_a_strategy"})
	if err == nil {
		t.Fatal("expected an error for an unknown strategy")
	}
	if apperr.KindOf(err) != apperr.UnknownStrategy {
		t.Errorf("KindOf(err) = %v, want UnknownStrategy", apperr.KindOf(err))
	}
}

func TestRunMissingTickerIsInvalidParams(t *testing.T) {
	o := newTestOrchestrator(closesToBars([]float64{1, 2, 3}))
	_, err := o.Run(context.Background(), Request{Strategy: "ma_crossover"})
	if apperr.KindOf(err) != apperr.InvalidParams {
		t.Errorf("KindOf(err) = %v, want InvalidParams", apperr.KindOf(err))
	}
}

func TestRunProviderFailureIsDataUnavailable(t *testing.T) {
	o := New(strategy.NewRegistry(), &fakeProvider{err: errors.New("upstream down")}, zap.NewNop(), 10*time.Second)
	_, err := o.Run(context.Background(), Request{Ticker: "AAPL", Strategy: "ma_crossover"})
	if apperr.KindOf(err) != apperr.DataUnavailable {
		t.Errorf("KindOf(err) = %v, want DataUnavailable", apperr.KindOf(err))
	}
}

func TestRunAbortsSlowProviderCallAtConfiguredTimeout(t *testing.T) {
	o := New(strategy.NewRegistry(), slowProvider{}, zap.NewNop(), 20*time.Millisecond)

	start := time.Now()
	_, err := o.Run(context.Background(), Request{Ticker: "AAPL", Strategy: "ma_crossover"})
	elapsed := time.Since(start)

	if apperr.KindOf(err) != apperr.DataUnavailable {
		t.Fatalf("KindOf(err) = %v, want DataUnavailable", apperr.KindOf(err))
	}
	if elapsed > time.Second {
		t.Errorf("Run took %v to abort a stalled provider call, want it bounded by the configured timeout", elapsed)
	}
}

func TestRunEmptyHistoryIsDataUnavailable(t *testing.T) {
	o := newTestOrchestrator(nil)
	_, err := o.Run(context.Background(), Request{Ticker: "AAPL", Strategy: "ma_crossover"})
	if apperr.KindOf(err) != apperr.DataUnavailable {
		t.Errorf("KindOf(err) = %v, want DataUnavailable for an empty bar series", apperr.KindOf(err))
	}
}

func TestRunProducesSanitizedResult(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 10, 9, 8, 7, 6, 10, 12, 14, 16, 18}
	o := newTestOrchestrator(closesToBars(closes))

	result, err := o.Run(context.Background(), Request{Ticker: "AAPL", Strategy: "ma_crossover", Params: map[string]float64{"fast": 3, "slow": 5}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Signals) != 2 {
		t.Fatalf("got %d signals, want 2", len(result.Signals))
	}
	for name, channel := range result.IndicatorData {
		if len(channel) != len(closes) {
			t.Errorf("indicator channel %q length = %d, want %d", name, len(channel), len(closes))
		}
	}
}

func TestBacktestSharesOrchestratorPipeline(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 10, 9, 8, 7, 6, 10, 12, 14, 16, 18}
	o := newTestOrchestrator(closesToBars(closes))

	result, err := o.Backtest(context.Background(), Request{Ticker: "AAPL", Strategy: "ma_crossover", Params: map[string]float64{"fast": 3, "slow": 5}}, 10000, 1.0)
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if result.InitialCapital != 10000 {
		t.Errorf("InitialCapital = %v, want 10000", result.InitialCapital)
	}
	if len(result.EquityCurve) != len(closes) {
		t.Errorf("EquityCurve length = %d, want %d", len(result.EquityCurve), len(closes))
	}
}
