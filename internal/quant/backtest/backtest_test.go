package backtest

import (
	"testing"

	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
)

func closesToBars(closes []float64) []engine.Bar {
	bars := make([]engine.Bar, len(closes))
	for i, c := range closes {
		bars[i] = engine.Bar{Timestamp: int64(i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func TestZeroSignalsYieldFlatEquity(t *testing.T) {
	bars := closesToBars([]float64{100, 101, 99, 102, 103})
	result := Run(bars, nil, 10000, 1.0, "1d")

	if result.FinalValue != 10000 {
		t.Errorf("FinalValue = %v, want 10000 (initial capital, unchanged with no signals)", result.FinalValue)
	}
	if result.TotalReturnPct != 0 {
		t.Errorf("TotalReturnPct = %v, want 0", result.TotalReturnPct)
	}
	if len(result.TradeLog) != 0 {
		t.Errorf("TradeLog length = %d, want 0", len(result.TradeLog))
	}
	for _, p := range result.EquityCurve {
		if p.Value != 10000 {
			t.Errorf("equity point %+v, want flat at 10000", p)
		}
	}
}

func TestBuySellRealizesPnLAndUpdatesCash(t *testing.T) {
	bars := closesToBars([]float64{100, 110, 120, 100})
	signals := []engine.Signal{
		{Timestamp: 0, Side: engine.Buy, Price: 100},
		{Timestamp: 2, Side: engine.Sell, Price: 120},
	}
	result := Run(bars, signals, 1000, 1.0, "1d")

	// BUY at 100 with size_fraction 1.0: quantity = floor(1000/100) = 10,
	// cash = 1000 - 10*100 = 0. SELL at 120: proceeds = 10*120 = 1200,
	// cash = 1200. Holdings close out, no trailing position.
	if len(result.TradeLog) != 1 {
		t.Fatalf("TradeLog length = %d, want 1 closed trade", len(result.TradeLog))
	}
	trade := result.TradeLog[0]
	if trade.PnL != 200 {
		t.Errorf("trade PnL = %v, want 200 ((120-100)*10)", trade.PnL)
	}
	if result.FinalValue != 1200 {
		t.Errorf("FinalValue = %v, want 1200 (final bar close 100 unused, position closed mid-series)", result.FinalValue)
	}
}

func TestTrailingOpenPositionClosedAtLastCloseInTradeLog(t *testing.T) {
	bars := closesToBars([]float64{100, 110, 120})
	signals := []engine.Signal{
		{Timestamp: 0, Side: engine.Buy, Price: 100},
	}
	result := Run(bars, signals, 1000, 1.0, "1d")

	if len(result.TradeLog) != 1 {
		t.Fatalf("TradeLog length = %d, want 1 (trailing position marked closed at last close)", len(result.TradeLog))
	}
	// quantity = floor(1000/100) = 10; last close = 120; PnL = (120-100)*10 = 200.
	if result.TradeLog[0].PnL != 200 {
		t.Errorf("trailing trade PnL = %v, want 200", result.TradeLog[0].PnL)
	}
	if result.FinalValue != 1200 {
		t.Errorf("FinalValue = %v, want 1200 (10 units marked at last close of 120)", result.FinalValue)
	}
}

func TestTotalTradesMatchesClosedTradeLogCount(t *testing.T) {
	bars := closesToBars([]float64{100, 110, 120, 90, 95})
	signals := []engine.Signal{
		{Timestamp: 0, Side: engine.Buy, Price: 100},
		{Timestamp: 2, Side: engine.Sell, Price: 120},
		{Timestamp: 3, Side: engine.Buy, Price: 90},
	}
	result := Run(bars, signals, 1000, 1.0, "1d")

	if result.Metrics.TotalTrades != len(result.TradeLog) {
		t.Errorf("Metrics.TotalTrades = %d, TradeLog length = %d, want equal on identical inputs", result.Metrics.TotalTrades, len(result.TradeLog))
	}
}
