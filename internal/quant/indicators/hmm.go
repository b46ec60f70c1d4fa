package indicators

// RegimeLabel is the 2-state market-regime classification HMMRegime
// emits per bar.
type RegimeLabel string

const (
	RegimeBullish RegimeLabel = "BULLISH"
	RegimeBearish RegimeLabel = "BEARISH"
)

// HMMRegime approximates a 2-state hidden Markov regime classifier with
// a rolling mean of signed returns over n bars: a positive rolling mean
// is classified BULLISH, non-positive BEARISH. Leading bars without n
// prior returns are left unclassified (empty string).
func HMMRegime(closes []float64, n int) []RegimeLabel {
	out := make([]RegimeLabel, len(closes))
	if n < 1 || len(closes) < n+1 {
		return out
	}

	returns := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns[i] = (closes[i] - closes[i-1]) / closes[i-1]
	}

	rollingMean := SMA(returns[1:], n)
	for i := 1; i < len(closes); i++ {
		m := rollingMean[i-1]
		if nan(m) {
			continue
		}
		if m > 0 {
			out[i] = RegimeBullish
		} else {
			out[i] = RegimeBearish
		}
	}
	return out
}
