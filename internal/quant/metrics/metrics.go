// Package metrics derives performance metrics from a strategy's
// signal sequence and the underlying price series: Sharpe ratio, max
// drawdown, win rate, profit factor, and the engine's confidence/
// risk-label/verdict summary fields.
//
// Grounded on the teacher's backtester.MetricsCalculator (trade
// pairing, Sharpe, drawdown, win rate, profit factor), generalized
// from portfolio trades to signal-derived trades: a trade opens on a
// BUY signal and closes on the next SELL (or is left open at the end
// of the series, valued at the last close).
package metrics

import (
	"fmt"
	"math"

	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
)

// profitFactorCap is the finite sentinel profit factor is capped at
// when there are wins and zero losses (spec calls this the "+Inf
// sentinel, serialized as a high finite cap").
const profitFactorCap = 999.0

// IntervalBarsPerYear is the canonical interval -> annualization-bars
// mapping for the Sharpe ratio, per the engine's documented table.
var IntervalBarsPerYear = map[engine.Interval]float64{
	"1d":  252,
	"1wk": 52,
	"1mo": 12,
	"60m": 252 * 7,
	"1h":  252 * 7,
	"15m": 252 * 26,
	"5m":  252 * 78,
	"1m":  252 * 390,
}

// pairedTrade is one open-to-close (or still-open) position derived
// from an alternating BUY/SELL signal sequence.
type pairedTrade struct {
	entryPrice float64
	exitPrice  float64
	open       bool
}

// Compute derives Metrics from a strategy's finalized signal sequence
// and the bar closes it was evaluated against.
func Compute(bars []engine.Bar, signals []engine.Signal, interval engine.Interval) engine.Metrics {
	trades := pairTrades(signals, bars)
	if len(trades) == 0 {
		return zeroTradeMetrics()
	}

	sharpe := computeSharpe(bars, signals, interval)
	maxDD := computeMaxDrawdown(bars, signals)
	winRate, profitFactor, avgWin, avgLoss, wins, losses := tradeStats(trades)

	confidence := computeConfidence(len(trades), winRate, profitFactor)
	riskLabel := computeRiskLabel(maxDD, len(trades))
	verdict := computeVerdict(sharpe, confidence)
	suggestedPct := computeSuggestedPositionPct(confidence, riskLabel)

	m := engine.Metrics{
		Sharpe:               ptr(sharpe),
		MaxDrawdownPct:       ptr(maxDD * 100),
		TotalTrades:          len(trades),
		RiskLabel:            riskLabel,
		Confidence:           confidence,
		Verdict:              verdict,
		SuggestedPositionPct: suggestedPct,
		Disclaimer:           disclaimer,
	}
	if wins+losses > 0 {
		m.WinRate = ptr(winRate)
	}
	if wins > 0 || losses > 0 {
		m.ProfitFactor = ptr(profitFactor)
	}
	if wins > 0 {
		m.AvgWin = ptr(avgWin)
	}
	if losses > 0 {
		m.AvgLoss = ptr(avgLoss)
	}
	return m
}

const disclaimer = "For informational purposes only. Not investment advice."

func zeroTradeMetrics() engine.Metrics {
	return engine.Metrics{
		TotalTrades: 0,
		RiskLabel:   "Low",
		Confidence:  0,
		Verdict:     "Insufficient trade activity to form a verdict.",
		Disclaimer:  disclaimer,
	}
}

func ptr(f float64) *float64 { return &f }

// pairTrades walks the alternating signal sequence pairing each BUY
// with its following SELL; a trailing unmatched BUY is left open,
// valued at the series' last close.
func pairTrades(signals []engine.Signal, bars []engine.Bar) []pairedTrade {
	var trades []pairedTrade
	var open *engine.Signal
	for i := range signals {
		s := signals[i]
		switch s.Side {
		case engine.Buy:
			if open == nil {
				cp := s
				open = &cp
			}
		case engine.Sell:
			if open != nil {
				trades = append(trades, pairedTrade{entryPrice: open.Price, exitPrice: s.Price})
				open = nil
			}
		}
	}
	if open != nil && len(bars) > 0 {
		trades = append(trades, pairedTrade{entryPrice: open.Price, exitPrice: bars[len(bars)-1].Close, open: true})
	}
	return trades
}

func tradeStats(trades []pairedTrade) (winRate, profitFactor, avgWin, avgLoss float64, wins, losses int) {
	var sumWin, sumLoss float64
	for _, t := range trades {
		pnl := t.exitPrice - t.entryPrice
		switch {
		case pnl > 0:
			wins++
			sumWin += pnl
		case pnl < 0:
			losses++
			sumLoss += -pnl
		}
		// pnl == 0: counts as neither a win nor a loss.
	}
	if wins+losses > 0 {
		winRate = float64(wins) / float64(wins+losses)
	}
	switch {
	case sumLoss == 0 && sumWin == 0:
		profitFactor = 0
	case sumLoss == 0:
		profitFactor = profitFactorCap
	default:
		profitFactor = sumWin / sumLoss
		if profitFactor > profitFactorCap {
			profitFactor = profitFactorCap
		}
	}
	if wins > 0 {
		avgWin = sumWin / float64(wins)
	}
	if losses > 0 {
		avgLoss = sumLoss / float64(losses)
	}
	return
}

// computeSharpe computes mean(per-bar strategy return)/stdev(per-bar
// strategy return) * sqrt(annualization), where per-bar return is the
// close-to-close return on bars the strategy is long, zero otherwise.
func computeSharpe(bars []engine.Bar, signals []engine.Signal, interval engine.Interval) float64 {
	if len(bars) < 2 {
		return 0
	}
	longMask := buildLongMask(bars, signals)

	var returns []float64
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close == 0 {
			continue
		}
		ret := (bars[i].Close - bars[i-1].Close) / bars[i-1].Close
		if longMask[i] {
			returns = append(returns, ret)
		} else {
			returns = append(returns, 0)
		}
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	stdev := math.Sqrt(variance)
	if stdev == 0 {
		return 0
	}

	annualization := IntervalBarsPerYear[interval]
	if annualization == 0 {
		annualization = 252
	}
	return mean / stdev * math.Sqrt(annualization)
}

// buildLongMask marks bar index i as "long" if a BUY signal has fired
// at or before bar i without a subsequent SELL.
func buildLongMask(bars []engine.Bar, signals []engine.Signal) []bool {
	mask := make([]bool, len(bars))
	sigByTime := make(map[int64]engine.SignalSide, len(signals))
	for _, s := range signals {
		sigByTime[s.Timestamp] = s.Side
	}
	long := false
	for i, b := range bars {
		if side, ok := sigByTime[b.Timestamp]; ok {
			long = side == engine.Buy
		}
		mask[i] = long
	}
	return mask
}

// computeMaxDrawdown walks a synthetic equity path (1.0 scaled,
// compounding per-bar long returns) and returns the max (peak-current)/peak.
func computeMaxDrawdown(bars []engine.Bar, signals []engine.Signal) float64 {
	if len(bars) == 0 {
		return 0
	}
	longMask := buildLongMask(bars, signals)
	equity := 1.0
	peak := 1.0
	maxDD := 0.0
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close == 0 {
			continue
		}
		ret := (bars[i].Close - bars[i-1].Close) / bars[i-1].Close
		if longMask[i] {
			equity *= 1 + ret
		}
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// computeConfidence blends sample size, win rate, and profit factor
// into a deterministic [0,1] score.
func computeConfidence(tradeCount int, winRate, profitFactor float64) float64 {
	sampleScore := math.Min(float64(tradeCount)/20.0, 1.0)

	winScore := 0.5
	if winRate > 0.5 {
		winScore = 0.5 + math.Min((winRate-0.5)*2, 0.5)
	} else {
		winScore = winRate
	}

	pfScore := 0.5
	if profitFactor > 1 {
		pfScore = math.Min(0.5+(profitFactor-1)/4, 1.0)
	} else {
		pfScore = profitFactor * 0.5
	}

	confidence := 0.4*sampleScore + 0.3*winScore + 0.3*pfScore
	return math.Max(0, math.Min(confidence, 1.0))
}

func computeRiskLabel(maxDrawdown float64, tradeCount int) string {
	switch {
	case maxDrawdown <= 0.05 && tradeCount >= 10:
		return "Low"
	case maxDrawdown <= 0.15:
		return "Moderate"
	default:
		return "High"
	}
}

func computeVerdict(sharpe, confidence float64) string {
	tone := "mixed"
	switch {
	case sharpe > 0.5:
		tone = "favorable"
	case sharpe < -0.2:
		tone = "unfavorable"
	}
	conviction := "low"
	switch {
	case confidence >= 0.7:
		conviction = "high"
	case confidence >= 0.4:
		conviction = "moderate"
	}
	return fmt.Sprintf("Historical signal quality is %s with %s conviction.", tone, conviction)
}

func computeSuggestedPositionPct(confidence float64, riskLabel string) float64 {
	base := confidence * 20 // scales [0,1] confidence to at most a 20% suggested allocation
	switch riskLabel {
	case "High":
		base *= 0.5
	case "Moderate":
		base *= 0.75
	}
	return math.Round(base*10) / 10
}
