package indicators

import "math"

// RSI computes the Relative Strength Index using Wilder's smoothing.
// The seed average gain/loss over the first n observations is a simple
// moving average of the per-bar gains/losses; thereafter each average is
// Wilder-smoothed. Values are in [0,100].
func RSI(closes []float64, n int) []float64 {
	out := nanFill(len(closes))
	if n < 1 || len(closes) < n+1 {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= n; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)
	out[n] = rsiFromAvgs(avgGain, avgLoss)

	for i := n + 1; i < len(closes); i++ {
		avgGain = (avgGain*float64(n-1) + gains[i]) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + losses[i]) / float64(n)
		out[i] = rsiFromAvgs(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvgs(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ATR computes the Average True Range using Wilder's smoothing, seeded
// by a simple moving average of the first n true-range observations.
func ATR(highs, lows, closes []float64, n int) []float64 {
	out := nanFill(len(closes))
	if n < 1 || len(closes) < n+1 {
		return out
	}

	tr := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var sum float64
	for i := 1; i <= n; i++ {
		sum += tr[i]
	}
	avg := sum / float64(n)
	out[n] = avg

	for i := n + 1; i < len(closes); i++ {
		avg = (avg*float64(n-1) + tr[i]) / float64(n)
		out[i] = avg
	}
	return out
}
