package strategy

import (
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/indicators"
)

func momentumEntries() []Entry {
	return []Entry{
		rsiStrategyEntry(),
		stochasticEntry(),
		rocStrategyEntry(),
		cciStrategyEntry(),
	}
}

func momentumOutput(value, oversold, overbought float64) engine.StrategyOutput {
	zone := "NEUTRAL"
	if value <= oversold {
		zone = "OVERSOLD"
	} else if value >= overbought {
		zone = "OVERBOUGHT"
	}
	return engine.StrategyOutput{Type: engine.OutputMomentum, Payload: engine.MomentumOutput{
		Zone: zone, RSIValue: value,
	}}
}

func rsiStrategyEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "rsi_strategy",
			DisplayName: "RSI Reversal",
			Category:    engine.CategoryMomentum,
			Description: "Buys when RSI exits an oversold zone, sells when it exits an overbought zone.",
			DefaultParams: map[string]float64{
				"period": 14, "oversold": 30, "overbought": 70,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period":     {Kind: KindInt, Min: 2, Max: 200},
			"oversold":   {Kind: KindFloat, Min: 0, Max: 50},
			"overbought": {Kind: KindFloat, Min: 50, Max: 100},
		},
		PrimaryChannel: "rsi", CustomScript: false,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, _, _, closes, _ := columns(bars)
			return engine.IndicatorSeries{"rsi": indicators.RSI(closes, int(p["period"]))}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			rsi := ind["rsi"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := 1; i < len(rsi); i++ {
				if nanF(rsi[i-1]) || nanF(rsi[i]) {
					continue
				}
				if rsi[i-1] <= p["oversold"] && rsi[i] > p["oversold"] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if rsi[i-1] >= p["overbought"] && rsi[i] < p["overbought"] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			v, _ := lastFinite(ind["rsi"])
			return momentumOutput(v, p["oversold"], p["overbought"])
		},
	}
}

func stochasticEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "stochastic",
			DisplayName: "Stochastic Oscillator",
			Category:    engine.CategoryMomentum,
			Description: "Buys when %K crosses above %D below the oversold line, sells on the mirrored overbought cross.",
			DefaultParams: map[string]float64{
				"k_period": 14, "d_period": 3, "oversold": 20, "overbought": 80,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"k_period":   {Kind: KindInt, Min: 1, Max: 200},
			"d_period":   {Kind: KindInt, Min: 1, Max: 100},
			"oversold":   {Kind: KindFloat, Min: 0, Max: 50},
			"overbought": {Kind: KindFloat, Min: 50, Max: 100},
		},
		PrimaryChannel: "percent_k", SecondaryChannel: "percent_d", CustomScript: true,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, highs, lows, closes, _ := columns(bars)
			k, d := indicators.Stochastic(highs, lows, closes, int(p["k_period"]), int(p["d_period"]))
			return engine.IndicatorSeries{"percent_k": k, "percent_d": d}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			k, d := ind["percent_k"], ind["percent_d"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := range bars {
				if crossesAbove(k, d, i) && k[i] < p["oversold"] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if crossesBelow(k, d, i) && k[i] > p["overbought"] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			v, _ := lastFinite(ind["percent_k"])
			return momentumOutput(v, p["oversold"], p["overbought"])
		},
	}
}

func rocStrategyEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "roc_strategy",
			DisplayName: "Rate of Change Momentum",
			Category:    engine.CategoryMomentum,
			Description: "Buys when the rate-of-change crosses above a positive threshold, sells on the mirrored negative threshold.",
			DefaultParams: map[string]float64{
				"period": 12, "threshold": 2,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period":    {Kind: KindInt, Min: 1, Max: 200},
			"threshold": {Kind: KindFloat, Min: 0, Max: 100},
		},
		PrimaryChannel: "roc", CustomScript: false,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, _, _, closes, _ := columns(bars)
			return engine.IndicatorSeries{"roc": indicators.ROC(closes, int(p["period"]))}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			roc := ind["roc"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := 1; i < len(roc); i++ {
				if nanF(roc[i-1]) || nanF(roc[i]) {
					continue
				}
				if roc[i-1] <= p["threshold"] && roc[i] > p["threshold"] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if roc[i-1] >= -p["threshold"] && roc[i] < -p["threshold"] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			v, _ := lastFinite(ind["roc"])
			return momentumOutput(v, -p["threshold"], p["threshold"])
		},
	}
}

func cciStrategyEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "cci_strategy",
			DisplayName: "Commodity Channel Index",
			Category:    engine.CategoryMomentum,
			Description: "Buys when CCI crosses above -100 from below, sells when it crosses below +100 from above.",
			DefaultParams: map[string]float64{
				"period": 20,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period": {Kind: KindInt, Min: 2, Max: 200},
		},
		PrimaryChannel: "cci", CustomScript: false,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, highs, lows, closes, _ := columns(bars)
			return engine.IndicatorSeries{"cci": indicators.CCI(highs, lows, closes, int(p["period"]))}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			cci := ind["cci"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := 1; i < len(cci); i++ {
				if nanF(cci[i-1]) || nanF(cci[i]) {
					continue
				}
				if cci[i-1] <= -100 && cci[i] > -100 {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if cci[i-1] >= 100 && cci[i] < 100 {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			v, _ := lastFinite(ind["cci"])
			return momentumOutput(v, -100, 100)
		},
	}
}
