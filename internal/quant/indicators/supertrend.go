package indicators

// SuperTrend computes the SuperTrend line and its direction (+1 bullish,
// -1 bearish) from an ATR-based envelope around the bar's median price.
// Bars before the ATR is defined have direction 0 and a NaN line.
func SuperTrend(highs, lows, closes []float64, n int, mult float64) (line []float64, direction []int) {
	atr := ATR(highs, lows, closes, n)
	line = nanFill(len(closes))
	direction = make([]int, len(closes))

	upperBand := nanFill(len(closes))
	lowerBand := nanFill(len(closes))
	for i := range closes {
		if nan(atr[i]) {
			continue
		}
		mid := (highs[i] + lows[i]) / 2
		upperBand[i] = mid + mult*atr[i]
		lowerBand[i] = mid - mult*atr[i]
	}

	dir := 1
	start := -1
	for i := range closes {
		if !nan(atr[i]) {
			start = i
			break
		}
	}
	if start == -1 {
		return
	}

	finalUpper := upperBand[start]
	finalLower := lowerBand[start]
	if closes[start] <= finalUpper {
		dir = -1
		line[start] = finalUpper
	} else {
		dir = 1
		line[start] = finalLower
	}
	direction[start] = dir

	for i := start + 1; i < len(closes); i++ {
		if nan(atr[i]) {
			continue
		}
		if upperBand[i] < finalUpper || closes[i-1] > finalUpper {
			finalUpper = upperBand[i]
		}
		if lowerBand[i] > finalLower || closes[i-1] < finalLower {
			finalLower = lowerBand[i]
		}

		switch {
		case dir == 1 && closes[i] < finalLower:
			dir = -1
		case dir == -1 && closes[i] > finalUpper:
			dir = 1
		}

		if dir == 1 {
			line[i] = finalLower
		} else {
			line[i] = finalUpper
		}
		direction[i] = dir
	}
	return
}
