package strategy

import (
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/indicators"
)

func meanReversionEntries() []Entry {
	return []Entry{
		bollingerReversionEntry(),
		zscoreReversionEntry(),
		vwapReversionEntry(),
	}
}

func bollingerReversionEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "bollinger_reversion",
			DisplayName: "Bollinger Band Reversion",
			Category:    engine.CategoryMeanReversion,
			Description: "Buys when price re-enters the band from below the lower band, sells on re-entry from above the upper band.",
			DefaultParams: map[string]float64{
				"period": 20, "std_dev": 2,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period":  {Kind: KindInt, Min: 2, Max: 400},
			"std_dev": {Kind: KindFloat, Min: 0.1, Max: 10},
		},
		PrimaryChannel: "upper", SecondaryChannel: "lower", CustomScript: true,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, _, _, closes, _ := columns(bars)
			mid, upper, lower := indicators.Bollinger(closes, int(p["period"]), p["std_dev"])
			return engine.IndicatorSeries{"mid": mid, "upper": upper, "lower": lower}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			upper, lower := ind["upper"], ind["lower"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := 1; i < len(closes); i++ {
				if nanF(upper[i]) || nanF(lower[i]) || nanF(upper[i-1]) || nanF(lower[i-1]) {
					continue
				}
				if closes[i-1] < lower[i-1] && closes[i] >= lower[i] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if closes[i-1] > upper[i-1] && closes[i] <= upper[i] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			return bandOutput(bars, ind["mid"], ind["upper"], ind["lower"])
		},
	}
}

func bandOutput(bars []engine.Bar, mid, upper, lower engine.FloatSlice) engine.StrategyOutput {
	_, _, _, closes, _ := columns(bars)
	m, _ := lastFinite(mid)
	u, _ := lastFinite(upper)
	l, _ := lastFinite(lower)
	last, _ := lastFinite(closes)
	width := u - l
	dist := 0.0
	pos := 0.5
	if width > 0 {
		dist = (last - m) / (width / 2)
		pos = (last - l) / width
	}
	bandwidthPct := 0.0
	if m != 0 {
		bandwidthPct = width / m * 100
	}
	return engine.StrategyOutput{Type: engine.OutputMeanReversion, Payload: engine.MeanReversionOutput{
		DistanceFromMean: clamp(dist, -1, 1),
		BandwidthPct:     bandwidthPct,
		Position:         clamp(pos, 0, 1),
	}}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func zscoreReversionEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "zscore_reversion",
			DisplayName: "Z-Score Mean Reversion",
			Category:    engine.CategoryMeanReversion,
			Description: "Buys when the price z-score recovers above -threshold, sells when it falls back below +threshold.",
			DefaultParams: map[string]float64{
				"period": 20, "threshold": 2,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period":    {Kind: KindInt, Min: 2, Max: 400},
			"threshold": {Kind: KindFloat, Min: 0.1, Max: 10},
		},
		PrimaryChannel: "zscore", CustomScript: false,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, _, _, closes, _ := columns(bars)
			return engine.IndicatorSeries{"zscore": indicators.ZScore(closes, int(p["period"]))}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			z := ind["zscore"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := 1; i < len(z); i++ {
				if nanF(z[i-1]) || nanF(z[i]) {
					continue
				}
				if z[i-1] <= -p["threshold"] && z[i] > -p["threshold"] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if z[i-1] >= p["threshold"] && z[i] < p["threshold"] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			z, _ := lastFinite(ind["zscore"])
			return engine.StrategyOutput{Type: engine.OutputMeanReversion, Payload: engine.MeanReversionOutput{
				DistanceFromMean: clamp(z/p["threshold"], -1, 1),
				BandwidthPct:     0,
				Position:         clamp((z+p["threshold"])/(2*p["threshold"]), 0, 1),
			}}
		},
	}
}

func vwapReversionEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "vwap_reversion",
			DisplayName: "VWAP Reversion",
			Category:    engine.CategoryMeanReversion,
			Description: "Buys when price crosses back above VWAP from below, sells on the reverse cross.",
			DefaultParams: map[string]float64{},
		},
		ParamSpecs: map[string]ParamSpec{},
		PrimaryChannel: "vwap", CustomScript: false,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, highs, lows, closes, volumes := columns(bars)
			return engine.IndicatorSeries{"vwap": indicators.VWAP(highs, lows, closes, volumes)}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			vwap := ind["vwap"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := 1; i < len(closes); i++ {
				if nanF(vwap[i-1]) || nanF(vwap[i]) {
					continue
				}
				if closes[i-1] < vwap[i-1] && closes[i] > vwap[i] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if closes[i-1] > vwap[i-1] && closes[i] < vwap[i] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			v, _ := lastFinite(ind["vwap"])
			_, _, _, closes, _ := columns(bars)
			last, _ := lastFinite(closes)
			dist := 0.0
			if v != 0 {
				dist = clamp((last-v)/v, -1, 1)
			}
			return engine.StrategyOutput{Type: engine.OutputMeanReversion, Payload: engine.MeanReversionOutput{
				DistanceFromMean: dist,
				Position:         clamp(0.5+dist/2, 0, 1),
			}}
		},
	}
}
