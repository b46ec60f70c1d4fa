// Package backtest simulates a capital-constrained, single-asset replay
// of a strategy's signal sequence over its bar series, producing an
// equity curve and a per-trade log.
//
// Grounded on the teacher's Portfolio/fixed-fractional sizing
// (internal/backtester/portfolio.go), simplified to a single-asset,
// bar-close-only capital walk: no slippage model, no commission, one
// position at a time. Cash and holdings are shopspring/decimal, the
// same money-like-quantity treatment the teacher's Portfolio and
// MetricsCalculator give cash/PnL, since repeated floor-division and
// subtraction over many bars must not accumulate float64 error in a
// reported final capital figure.
package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/metrics"
)

// Run simulates the capital walk described in the engine's backtest
// contract: on BUY with cash > 0, buy floor(sizeFraction*cash/close)
// units; on SELL with holdings > 0, liquidate entirely and realize PnL.
func Run(bars []engine.Bar, signals []engine.Signal, initialCapital, sizeFraction float64, interval engine.Interval) engine.BacktestResult {
	cash := decimal.NewFromFloat(initialCapital)
	holdings := decimal.Zero
	var entryPrice decimal.Decimal

	equityCurve := make([]engine.EquityPoint, len(bars))
	var tradeLog []engine.TradeRecord

	sigByTime := make(map[int64]engine.Signal, len(signals))
	for _, s := range signals {
		sigByTime[s.Timestamp] = s
	}

	for i, bar := range bars {
		closePrice := decimal.NewFromFloat(bar.Close)

		if sig, ok := sigByTime[bar.Timestamp]; ok {
			switch sig.Side {
			case engine.Buy:
				if cash.IsPositive() && closePrice.IsPositive() {
					budget := cash.Mul(decimal.NewFromFloat(sizeFraction))
					quantity := budget.Div(closePrice).Floor()
					if quantity.IsPositive() {
						cost := quantity.Mul(closePrice)
						cash = cash.Sub(cost)
						holdings = holdings.Add(quantity)
						entryPrice = closePrice
					}
				}
			case engine.Sell:
				if holdings.IsPositive() {
					pnl := closePrice.Sub(entryPrice).Mul(holdings)
					proceeds := holdings.Mul(closePrice)
					cash = cash.Add(proceeds)
					tradeLog = append(tradeLog, engine.TradeRecord{
						Timestamp: bar.Timestamp,
						Side:      engine.Sell,
						Price:     bar.Close,
						Quantity:  holdings.InexactFloat64(),
						PnL:       pnl.InexactFloat64(),
					})
					holdings = decimal.Zero
					entryPrice = decimal.Zero
				}
			}
		}

		markValue := cash.Add(holdings.Mul(closePrice))
		equityCurve[i] = engine.EquityPoint{Time: bar.Timestamp, Value: markValue.InexactFloat64()}
	}

	finalValue := cash
	if holdings.IsPositive() && len(bars) > 0 {
		lastBar := bars[len(bars)-1]
		lastClose := decimal.NewFromFloat(lastBar.Close)
		finalValue = cash.Add(holdings.Mul(lastClose))

		pnl := lastClose.Sub(entryPrice).Mul(holdings)
		tradeLog = append(tradeLog, engine.TradeRecord{
			Timestamp: lastBar.Timestamp,
			Side:      engine.Sell,
			Price:     lastBar.Close,
			Quantity:  holdings.InexactFloat64(),
			PnL:       pnl.InexactFloat64(),
		})
	}

	totalReturnPct := 0.0
	if initialCapital != 0 {
		totalReturnPct = finalValue.Sub(decimal.NewFromFloat(initialCapital)).Div(decimal.NewFromFloat(initialCapital)).InexactFloat64() * 100
	}

	return engine.BacktestResult{
		Metrics:        metrics.Compute(bars, signals, interval),
		InitialCapital: initialCapital,
		FinalValue:     finalValue.InexactFloat64(),
		TotalReturnPct: totalReturnPct,
		EquityCurve:    equityCurve,
		TradeLog:       tradeLog,
	}
}

