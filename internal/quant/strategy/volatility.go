package strategy

import (
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/indicators"
)

func volatilityEntries() []Entry {
	return []Entry{
		atrBreakoutEntry(),
		keltnerChannelEntry(),
	}
}

func volatilityOutput(current, median engine.FloatSlice) engine.StrategyOutput {
	cur, _ := lastFinite(current)
	med, _ := lastFinite(median)
	regime := "NORMAL"
	ratio := 1.0
	if med > 0 {
		ratio = cur / med
	}
	if ratio >= 1.5 {
		regime = "HIGH"
	} else if ratio <= 0.7 {
		regime = "LOW"
	}
	prob := clamp((ratio-0.5)/1.5, 0, 1)
	return engine.StrategyOutput{Type: engine.OutputVolatility, Payload: engine.VolatilityOutput{
		Regime: regime, CurrentATR: cur, MedianATR: med, BreakoutProb: prob,
	}}
}

func atrBreakoutEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "atr_breakout",
			DisplayName: "ATR Volatility Breakout",
			Category:    engine.CategoryVolatility,
			Description: "Buys when price advances more than a multiple of ATR above the prior close, sells on the mirrored decline.",
			DefaultParams: map[string]float64{
				"period": 14, "multiplier": 1.5,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period":     {Kind: KindInt, Min: 2, Max: 200},
			"multiplier": {Kind: KindFloat, Min: 0.1, Max: 20},
		},
		PrimaryChannel: "atr", SecondaryChannel: "atr_median", CustomScript: true,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, highs, lows, closes, _ := columns(bars)
			atr := indicators.ATR(highs, lows, closes, int(p["period"]))
			return engine.IndicatorSeries{"atr": atr, "atr_median": indicators.SMA(atr, int(p["period"]))}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			atr := ind["atr"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := 1; i < len(closes); i++ {
				if nanF(atr[i]) {
					continue
				}
				move := closes[i] - closes[i-1]
				if move > p["multiplier"]*atr[i] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if -move > p["multiplier"]*atr[i] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			return volatilityOutput(ind["atr"], ind["atr_median"])
		},
	}
}

func keltnerChannelEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "keltner_channel",
			DisplayName: "Keltner Channel Breakout",
			Category:    engine.CategoryVolatility,
			Description: "Buys on a close above the upper Keltner band, sells on a close below the lower band.",
			DefaultParams: map[string]float64{
				"period": 20, "multiplier": 2,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period":     {Kind: KindInt, Min: 2, Max: 400},
			"multiplier": {Kind: KindFloat, Min: 0.1, Max: 20},
		},
		PrimaryChannel: "upper", SecondaryChannel: "lower", CustomScript: true,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, highs, lows, closes, _ := columns(bars)
			mid, upper, lower := indicators.Keltner(highs, lows, closes, int(p["period"]), p["multiplier"])
			return engine.IndicatorSeries{"mid": mid, "upper": upper, "lower": lower}, nil
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
			_, highs, lows, closes, _ := columns(bars)
			atr := indicators.ATR(highs, lows, closes, int(p["period"]))
			return volatilityOutput(atr, indicators.SMA(atr, int(p["period"])))
		},
	}
}
