package metrics

import (
	"testing"

	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
)

func bar(ts int64, close float64) engine.Bar {
	return engine.Bar{Timestamp: ts, Open: close, High: close, Low: close, Close: close, Volume: 1000}
}

func TestComputeZeroSignalsYieldsNullRatios(t *testing.T) {
	bars := []engine.Bar{bar(0, 100), bar(86400, 101), bar(172800, 102)}
	m := Compute(bars, nil, "1d")

	if m.TotalTrades != 0 {
		t.Errorf("TotalTrades = %d, want 0", m.TotalTrades)
	}
	if m.WinRate != nil {
		t.Errorf("WinRate = %v, want nil", *m.WinRate)
	}
	if m.ProfitFactor != nil {
		t.Errorf("ProfitFactor = %v, want nil", *m.ProfitFactor)
	}
	if m.Sharpe != nil {
		t.Errorf("Sharpe = %v, want nil on a zero-trade run", *m.Sharpe)
	}
	if m.RiskLabel != "Low" {
		t.Errorf("RiskLabel = %q, want Low", m.RiskLabel)
	}
}

func TestZeroPnLTradeCountsAsNeitherWinNorLoss(t *testing.T) {
	trades := []pairedTrade{
		{entryPrice: 100, exitPrice: 100}, // zero PnL
		{entryPrice: 100, exitPrice: 110}, // win
	}
	winRate, _, _, _, wins, losses := tradeStats(trades)
	if wins != 1 || losses != 0 {
		t.Fatalf("wins=%d losses=%d, want wins=1 losses=0 (zero-PnL trade excluded)", wins, losses)
	}
	if winRate != 1.0 {
		t.Errorf("winRate = %v, want 1.0 (denominator excludes the zero-PnL trade)", winRate)
	}
}

func TestProfitFactorCapsAtSentinelWhenNoLosses(t *testing.T) {
	trades := []pairedTrade{
		{entryPrice: 100, exitPrice: 200},
		{entryPrice: 100, exitPrice: 150},
	}
	_, profitFactor, _, _, _, _ := tradeStats(trades)
	if profitFactor != profitFactorCap {
		t.Errorf("profitFactor = %v, want cap sentinel %v", profitFactor, profitFactorCap)
	}
}

func TestTotalTradesMatchesPairedTradeCount(t *testing.T) {
	bars := []engine.Bar{
		bar(0, 10), bar(1, 11), bar(2, 12), bar(3, 9), bar(4, 8), bar(5, 13),
	}
	signals := []engine.Signal{
		{Timestamp: 0, Side: engine.Buy, Price: 10},
		{Timestamp: 2, Side: engine.Sell, Price: 12},
		{Timestamp: 3, Side: engine.Buy, Price: 9},
	}
	m := Compute(bars, signals, "1d")
	if m.TotalTrades != 2 {
		t.Fatalf("TotalTrades = %d, want 2 (one closed pair, one trailing open position)", m.TotalTrades)
	}
}

func TestRiskLabelThresholds(t *testing.T) {
	if got := computeRiskLabel(0.03, 12); got != "Low" {
		t.Errorf("computeRiskLabel(0.03,12) = %q, want Low", got)
	}
	if got := computeRiskLabel(0.03, 3); got != "Moderate" {
		t.Errorf("computeRiskLabel(0.03,3) = %q, want Moderate (trade count below 10)", got)
	}
	if got := computeRiskLabel(0.10, 12); got != "Moderate" {
		t.Errorf("computeRiskLabel(0.10,12) = %q, want Moderate", got)
	}
	if got := computeRiskLabel(0.20, 12); got != "High" {
		t.Errorf("computeRiskLabel(0.20,12) = %q, want High", got)
	}
}
