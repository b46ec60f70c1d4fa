package strategy

import (
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/indicators"
)

func mlProxyEntries() []Entry {
	return []Entry{
		lstmProxyEntry(),
		gbmProxyEntry(),
	}
}

// mlProxyWeights orders the four shared features: RSI, MACD histogram,
// ROC, volume ratio.
type mlProxyWeights struct {
	rsi, macdHist, roc, volumeRatio float64
}

// lstmProxyEntry approximates a sequence-model prediction with a
// composite score blending normalized RSI, MACD-hist, ROC, and volume
// ratio in equal weight — four engineered features in place of a
// learned embedding, each reported under Features for transparency.
func lstmProxyEntry() Entry {
	weights := mlProxyWeights{rsi: 0.25, macdHist: 0.25, roc: 0.25, volumeRatio: 0.25}
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "lstm_proxy",
			DisplayName: "Sequence Model Proxy (LSTM-style)",
			Category:    engine.CategoryMLProxy,
			Description: "Equal-weighted composite score over normalized RSI, MACD histogram, ROC, and volume ratio approximating a sequence model's directional call.",
			DefaultParams: map[string]float64{
				"rsi_period": 14, "macd_fast": 12, "macd_slow": 26, "macd_signal": 9,
				"roc_period": 12, "volume_period": 20, "threshold": 0.3,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"rsi_period":    {Kind: KindInt, Min: 2, Max: 200},
			"macd_fast":     {Kind: KindInt, Min: 1, Max: 200},
			"macd_slow":     {Kind: KindInt, Min: 2, Max: 400},
			"macd_signal":   {Kind: KindInt, Min: 1, Max: 100},
			"roc_period":    {Kind: KindInt, Min: 1, Max: 200},
			"volume_period": {Kind: KindInt, Min: 2, Max: 400},
			"threshold":     {Kind: KindFloat, Min: 0.01, Max: 1},
		},
		CustomScript: false,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			ind, score := mlCompositeIndicators(bars, p, weights)
			ind["score"] = score
			return ind, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			return scoreSignals(bars, ind["score"], p["threshold"])
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			return mlOutput(ind["score"], p["threshold"], map[string]engine.FloatSlice{
				"rsi": ind["rsi"], "macd_hist": ind["macd_hist"], "roc": ind["roc"], "volume_ratio": ind["volume_ratio"],
			})
		},
	}
}

// gbmProxyEntry approximates a gradient-boosted ensemble with the same
// framework as lstm_proxy — normalized RSI, MACD-hist, ROC, and volume
// ratio — reweighted to favor the two momentum features, the way a
// boosted ensemble would learn different per-feature weights from the
// same feature set.
func gbmProxyEntry() Entry {
	weights := mlProxyWeights{rsi: 0.15, macdHist: 0.35, roc: 0.35, volumeRatio: 0.15}
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "gbm_proxy",
			DisplayName: "Gradient Boosting Proxy",
			Category:    engine.CategoryMLProxy,
			Description: "Momentum-weighted composite score over the same RSI/MACD-hist/ROC/volume-ratio features as the sequence model proxy, approximating a boosted-ensemble directional vote.",
			DefaultParams: map[string]float64{
				"rsi_period": 14, "macd_fast": 12, "macd_slow": 26, "macd_signal": 9,
				"roc_period": 12, "volume_period": 20, "threshold": 0.3,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"rsi_period":    {Kind: KindInt, Min: 2, Max: 200},
			"macd_fast":     {Kind: KindInt, Min: 1, Max: 200},
			"macd_slow":     {Kind: KindInt, Min: 2, Max: 400},
			"macd_signal":   {Kind: KindInt, Min: 1, Max: 100},
			"roc_period":    {Kind: KindInt, Min: 1, Max: 200},
			"volume_period": {Kind: KindInt, Min: 2, Max: 400},
			"threshold":     {Kind: KindFloat, Min: 0.01, Max: 1},
		},
		CustomScript: false,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			ind, score := mlCompositeIndicators(bars, p, weights)
			ind["score"] = score
			return ind, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			return scoreSignals(bars, ind["score"], p["threshold"])
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			return mlOutput(ind["score"], p["threshold"], map[string]engine.FloatSlice{
				"rsi": ind["rsi"], "macd_hist": ind["macd_hist"], "roc": ind["roc"], "volume_ratio": ind["volume_ratio"],
			})
		},
	}
}

// mlCompositeIndicators computes the four features shared by both
// ML-proxy strategies and blends them into a single [-1,1] score per
// the given weights. Each feature is skipped (rather than zeroed) on a
// bar where it is not yet defined (leading indicator NaN holes), with
// the weighted sum renormalized over the features actually present.
func mlCompositeIndicators(bars []engine.Bar, p Params, w mlProxyWeights) (engine.IndicatorSeries, engine.FloatSlice) {
	_, highs, lows, closes, volumes := columns(bars)
	rsi := indicators.RSI(closes, int(p["rsi_period"]))
	_, _, hist := indicators.MACD(closes, int(p["macd_fast"]), int(p["macd_slow"]), int(p["macd_signal"]))
	roc := indicators.ROC(closes, int(p["roc_period"]))
	volRatio := volumeRatio(volumes, int(p["volume_period"]))
	_ = highs
	_ = lows

	score := make([]float64, len(closes))
	for i := range closes {
		var sum, weight float64
		if !nanF(rsi[i]) {
			sum += w.rsi * clamp((rsi[i]-50)/50, -1, 1)
			weight += w.rsi
		}
		if !nanF(hist[i]) && closes[i] != 0 {
			sum += w.macdHist * clamp(hist[i]/closes[i]*50, -1, 1)
			weight += w.macdHist
		}
		if !nanF(roc[i]) {
			sum += w.roc * clamp(roc[i]*10, -1, 1)
			weight += w.roc
		}
		if !nanF(volRatio[i]) {
			sum += w.volumeRatio * clamp(volRatio[i]-1, -1, 1)
			weight += w.volumeRatio
		}
		if weight == 0 {
			score[i] = float64FromNaN()
			continue
		}
		score[i] = sum / weight
	}

	return engine.IndicatorSeries{
		"rsi": rsi, "macd_hist": hist, "roc": roc, "volume_ratio": volRatio,
	}, score
}

// volumeRatio reports each bar's volume relative to its trailing
// average: > 1 above average, < 1 below, NaN where the average is not
// yet defined or is zero.
func volumeRatio(volumes []float64, n int) []float64 {
	avg := indicators.SMA(volumes, n)
	out := make([]float64, len(volumes))
	for i := range volumes {
		if i >= len(avg) || nanF(avg[i]) || avg[i] == 0 {
			out[i] = float64FromNaN()
			continue
		}
		out[i] = volumes[i] / avg[i]
	}
	return out
}

func scoreSignals(bars []engine.Bar, score engine.FloatSlice, threshold float64) ([]engine.Signal, error) {
	ts := timestamps(bars)
	_, _, _, closes, _ := columns(bars)
	var raw []engine.Signal
	for i := 1; i < len(score); i++ {
		if nanF(score[i-1]) || nanF(score[i]) {
			continue
		}
		if score[i-1] <= threshold && score[i] > threshold {
			raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
		} else if score[i-1] >= -threshold && score[i] < -threshold {
			raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
		}
	}
	return Finalize(raw), nil
}

func mlOutput(score engine.FloatSlice, threshold float64, features map[string]engine.FloatSlice) engine.StrategyOutput {
	v, _ := lastFinite(score)
	prediction := "FLAT"
	if v > threshold {
		prediction = "LONG"
	} else if v < -threshold {
		prediction = "SHORT"
	}
	feat := make(map[string]float64, len(features))
	for name, series := range features {
		if val, ok := lastFinite(series); ok {
			feat[name] = val
		}
	}
	return engine.StrategyOutput{Type: engine.OutputML, Payload: engine.MLOutput{
		Prediction:      prediction,
		ConfidenceScore: clamp((abs(v)-threshold)/(1-threshold+1e-9), 0, 1),
		Features:        feat,
	}}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
