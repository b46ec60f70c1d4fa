package strategy

import "github.com/atlas-desktop/quant-engine/internal/quant/engine"

// columns extracts the parallel OHLCV arrays the indicators package
// operates on from a bar slice.
func columns(bars []engine.Bar) (opens, highs, lows, closes, volumes []float64) {
	n := len(bars)
	opens = make([]float64, n)
	highs = make([]float64, n)
	lows = make([]float64, n)
	closes = make([]float64, n)
	volumes = make([]float64, n)
	for i, b := range bars {
		opens[i] = b.Open
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
		volumes[i] = b.Volume
	}
	return
}

func timestamps(bars []engine.Bar) []int64 {
	out := make([]int64, len(bars))
	for i, b := range bars {
		out[i] = b.Timestamp
	}
	return out
}

func lastFinite(series []float64) (float64, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		if !nanF(series[i]) {
			return series[i], true
		}
	}
	return 0, false
}
