package indicators

// Stochastic computes %K = (close - low_k)/(high_k - low_k) * 100 over a
// k-bar lookback, and %D = SMA(d) of %K. When high_k == low_k the bar is
// left as a hole rather than dividing by zero.
func Stochastic(highs, lows, closes []float64, k, d int) (pctK, pctD []float64) {
	pctK = nanFill(len(closes))
	if k < 1 || len(closes) < k {
		pctD = nanFill(len(closes))
		return
	}
	for i := k - 1; i < len(closes); i++ {
		hi := highs[i-k+1]
		lo := lows[i-k+1]
		for j := i - k + 2; j <= i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		if hi == lo {
			continue
		}
		pctK[i] = (closes[i] - lo) / (hi - lo) * 100
	}
	pctD = SMA(pctK, d)
	return
}

// CCI computes the Commodity Channel Index over n bars using the typical
// price (H+L+C)/3 and a constant of 0.015.
func CCI(highs, lows, closes []float64, n int) []float64 {
	out := nanFill(len(closes))
	if n < 1 || len(closes) < n {
		return out
	}
	typical := make([]float64, len(closes))
	for i := range closes {
		typical[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	for i := n - 1; i < len(closes); i++ {
		window := typical[i-n+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(n)
		meanDev := 0.0
		for _, v := range window {
			d := v - mean
			if d < 0 {
				d = -d
			}
			meanDev += d
		}
		meanDev /= float64(n)
		if meanDev == 0 {
			continue
		}
		out[i] = (typical[i] - mean) / (0.015 * meanDev)
	}
	return out
}
