package indicators

// Bollinger computes Bollinger Bands: mid = SMA(n), upper/lower = mid +/- k*stdev(n).
func Bollinger(closes []float64, n int, k float64) (mid, upper, lower []float64) {
	mid = SMA(closes, n)
	sd := StdDev(closes, n)
	upper = nanFill(len(closes))
	lower = nanFill(len(closes))
	for i := range closes {
		if nan(mid[i]) || nan(sd[i]) {
			continue
		}
		upper[i] = mid[i] + k*sd[i]
		lower[i] = mid[i] - k*sd[i]
	}
	return
}

// Donchian computes the n-bar rolling highest-high and lowest-low
// channel, evaluated over the PRIOR n bars (excludes the current bar),
// matching the breakout strategy's "breaches upper channel of prior n
// bars" semantics.
func Donchian(highs, lows []float64, n int) (upper, lower []float64) {
	upper = nanFill(len(highs))
	lower = nanFill(len(highs))
	if n < 1 {
		return
	}
	for i := n; i < len(highs); i++ {
		hi := highs[i-n]
		lo := lows[i-n]
		for j := i - n + 1; j < i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		upper[i] = hi
		lower[i] = lo
	}
	return
}

// Keltner computes Keltner Channels: mid = EMA(n) of close,
// upper/lower = mid +/- mult*ATR(n).
func Keltner(highs, lows, closes []float64, n int, mult float64) (mid, upper, lower []float64) {
	mid = EMA(closes, n)
	atr := ATR(highs, lows, closes, n)
	upper = nanFill(len(closes))
	lower = nanFill(len(closes))
	for i := range closes {
		if nan(mid[i]) || nan(atr[i]) {
			continue
		}
		upper[i] = mid[i] + mult*atr[i]
		lower[i] = mid[i] - mult*atr[i]
	}
	return
}
