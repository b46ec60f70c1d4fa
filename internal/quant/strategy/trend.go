package strategy

import (
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/indicators"
)

func trendEntries() []Entry {
	return []Entry{
		maCrossoverEntry(),
		emaStrategyEntry(),
		macdSignalEntry(),
		superTrendEntry(),
		donchianBreakoutEntry(),
	}
}

func maCrossoverEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "ma_crossover",
			DisplayName: "Moving Average Crossover",
			Category:    engine.CategoryTrend,
			Description: "Buys when the fast SMA crosses above the slow SMA, sells on the reverse cross.",
			DefaultParams: map[string]float64{
				"fast": 10, "slow": 30,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"fast": {Kind: KindInt, Min: 1, Max: 200},
			"slow": {Kind: KindInt, Min: 2, Max: 400},
		},
		PrimaryChannel: "fast_ma", SecondaryChannel: "slow_ma", CustomScript: true,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, _, _, closes, _ := columns(bars)
			return engine.IndicatorSeries{
				"fast_ma": indicators.SMA(closes, int(p["fast"])),
				"slow_ma": indicators.SMA(closes, int(p["slow"])),
			}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			fast, slow := ind["fast_ma"], ind["slow_ma"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := range bars {
				if crossesAbove(fast, slow, i) {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if crossesBelow(fast, slow, i) {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			fast, _ := lastFinite(ind["fast_ma"])
			slow, _ := lastFinite(ind["slow_ma"])
			trend := "NEUTRAL"
			if fast > slow {
				trend = "BULLISH"
			} else if fast < slow {
				trend = "BEARISH"
			}
			return engine.StrategyOutput{Type: engine.OutputTrend, Payload: engine.TrendOutput{
				Direction: trend, FastValue: fast, SlowValue: slow,
			}}
		},
	}
}

func emaStrategyEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "ema_strategy",
			DisplayName: "EMA Crossover",
			Category:    engine.CategoryTrend,
			Description: "Exponential-moving-average crossover, more responsive than the SMA variant.",
			DefaultParams: map[string]float64{
				"fast": 12, "slow": 26,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"fast": {Kind: KindInt, Min: 1, Max: 200},
			"slow": {Kind: KindInt, Min: 2, Max: 400},
		},
		PrimaryChannel: "fast_ema", SecondaryChannel: "slow_ema", CustomScript: true,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, _, _, closes, _ := columns(bars)
			return engine.IndicatorSeries{
				"fast_ema": indicators.EMA(closes, int(p["fast"])),
				"slow_ema": indicators.EMA(closes, int(p["slow"])),
			}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			fast, slow := ind["fast_ema"], ind["slow_ema"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := range bars {
				if crossesAbove(fast, slow, i) {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if crossesBelow(fast, slow, i) {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			fast, _ := lastFinite(ind["fast_ema"])
			slow, _ := lastFinite(ind["slow_ema"])
			trend := "NEUTRAL"
			if fast > slow {
				trend = "BULLISH"
			} else if fast < slow {
				trend = "BEARISH"
			}
			return engine.StrategyOutput{Type: engine.OutputTrend, Payload: engine.TrendOutput{
				Direction: trend, FastValue: fast, SlowValue: slow,
			}}
		},
	}
}

func macdSignalEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "macd_signal",
			DisplayName: "MACD Signal Cross",
			Category:    engine.CategoryTrend,
			Description: "Buys when the MACD line crosses above its signal line, sells on the reverse cross.",
			DefaultParams: map[string]float64{
				"fast_period": 12, "slow_period": 26, "signal_period": 9,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"fast_period":   {Kind: KindInt, Min: 1, Max: 200},
			"slow_period":   {Kind: KindInt, Min: 2, Max: 400},
			"signal_period": {Kind: KindInt, Min: 1, Max: 100},
		},
		PrimaryChannel: "macd", SecondaryChannel: "signal", CustomScript: true,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, _, _, closes, _ := columns(bars)
			macd, sig, hist := indicators.MACD(closes, int(p["fast_period"]), int(p["slow_period"]), int(p["signal_period"]))
			return engine.IndicatorSeries{"macd": macd, "signal": sig, "histogram": hist}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			macd, sig := ind["macd"], ind["signal"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := range bars {
				if crossesAbove(macd, sig, i) {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if crossesBelow(macd, sig, i) {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			hist, _ := lastFinite(ind["histogram"])
			trend := "NEUTRAL"
			if hist > 0 {
				trend = "BULLISH"
			} else if hist < 0 {
				trend = "BEARISH"
			}
			macd, _ := lastFinite(ind["macd"])
			sig, _ := lastFinite(ind["signal"])
			return engine.StrategyOutput{Type: engine.OutputTrend, Payload: engine.TrendOutput{
				Direction: trend, FastValue: macd, SlowValue: sig,
			}}
		},
	}
}

func superTrendEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "supertrend",
			DisplayName: "SuperTrend",
			Category:    engine.CategoryTrend,
			Description: "ATR-banded trend-flip indicator: buys on a flip to bullish, sells on a flip to bearish.",
			DefaultParams: map[string]float64{
				"period": 10, "multiplier": 3,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period":     {Kind: KindInt, Min: 1, Max: 200},
			"multiplier": {Kind: KindFloat, Min: 0.1, Max: 20},
		},
		PrimaryChannel: "supertrend", SecondaryChannel: "direction", CustomScript: true,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, highs, lows, closes, _ := columns(bars)
			line, dir := indicators.SuperTrend(highs, lows, closes, int(p["period"]), p["multiplier"])
			dirF := make([]float64, len(dir))
			for i, d := range dir {
				dirF[i] = float64(d)
			}
			return engine.IndicatorSeries{"supertrend": line, "direction": dirF}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			dir := ind["direction"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := 1; i < len(dir); i++ {
				if dir[i-1] == 0 || dir[i] == 0 {
					continue // direction not yet defined; no flip to report
				}
				if dir[i-1] < 0 && dir[i] > 0 {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if dir[i-1] > 0 && dir[i] < 0 {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			dir, _ := lastFinite(ind["direction"])
			line, _ := lastFinite(ind["supertrend"])
			trend := "NEUTRAL"
			if dir > 0 {
				trend = "BULLISH"
			} else if dir < 0 {
				trend = "BEARISH"
			}
			return engine.StrategyOutput{Type: engine.OutputTrend, Payload: engine.TrendOutput{
				Direction: trend, FastValue: line, SlowValue: dir,
			}}
		},
	}
}

func donchianBreakoutEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "donchian_breakout",
			DisplayName: "Donchian Channel Breakout",
			Category:    engine.CategoryTrend,
			Description: "Buys on a breakout above the prior n-bar high channel, sells on a breakdown below the low channel.",
			DefaultParams: map[string]float64{
				"period": 20,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period": {Kind: KindInt, Min: 2, Max: 400},
		},
		PrimaryChannel: "upper", SecondaryChannel: "lower", CustomScript: true,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, highs, lows, _, _ := columns(bars)
			upper, lower := indicators.Donchian(highs, lows, int(p["period"]))
			return engine.IndicatorSeries{"upper": upper, "lower": lower}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			upper, lower := ind["upper"], ind["lower"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := range bars {
				if nanF(upper[i]) || nanF(lower[i]) {
					continue
				}
				if closes[i] > upper[i] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if closes[i] < lower[i] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			upper, _ := lastFinite(ind["upper"])
			lower, _ := lastFinite(ind["lower"])
			_, _, _, closes, _ := columns(bars)
			last, _ := lastFinite(closes)
			trend := "NEUTRAL"
			if last > upper {
				trend = "BULLISH"
			} else if last < lower {
				trend = "BEARISH"
			}
			return engine.StrategyOutput{Type: engine.OutputTrend, Payload: engine.TrendOutput{
				Direction: trend, FastValue: upper, SlowValue: lower,
			}}
		},
	}
}
