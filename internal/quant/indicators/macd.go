package indicators

// MACD computes the MACD line (EMA(fast) - EMA(slow)), its signal line
// (EMA(signal) of the MACD line), and the histogram (macd - signal).
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	macd = nanFill(len(closes))
	for i := range closes {
		if !nan(fastEMA[i]) && !nan(slowEMA[i]) {
			macd[i] = fastEMA[i] - slowEMA[i]
		}
	}

	// EMA over the MACD line must skip leading NaNs: build a compacted
	// view, run EMA, then scatter back to full length.
	firstValid := -1
	for i, v := range macd {
		if !nan(v) {
			firstValid = i
			break
		}
	}
	sig = nanFill(len(closes))
	hist = nanFill(len(closes))
	if firstValid == -1 || len(macd)-firstValid < signal {
		return
	}
	compact := macd[firstValid:]
	sigCompact := EMA(compact, signal)
	for i, v := range sigCompact {
		if nan(v) {
			continue
		}
		sig[firstValid+i] = v
		hist[firstValid+i] = macd[firstValid+i] - v
	}
	return
}

func nan(f float64) bool {
	return f != f
}
