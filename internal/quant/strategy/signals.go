package strategy

import "github.com/atlas-desktop/quant-engine/internal/quant/engine"

// Finalize enforces the catalog-wide signal invariants on a strategy's
// raw candidate signals: on a same-bar collision, BUY wins over SELL
// only when no long is currently open; when a long is already open, the
// later of the two events in evaluation (raw slice) order is suppressed
// instead. Consecutive signals of the same side collapse to the first,
// keeping the emitted sequence strictly alternating so open long/flat
// trade-pairing in the Metric Engine never sees two BUYs or two SELLs
// in a row.
func Finalize(raw []engine.Signal) []engine.Signal {
	out := make([]engine.Signal, 0, len(raw))
	openLong := false

	i := 0
	for i < len(raw) {
		j := i
		var buy, sell *engine.Signal
		buyIdx, sellIdx := -1, -1
		for j < len(raw) && raw[j].Timestamp == raw[i].Timestamp {
			s := raw[j]
			switch s.Side {
			case engine.Buy:
				if buy == nil {
					buy = &s
					buyIdx = j
				}
			case engine.Sell:
				if sell == nil {
					sell = &s
					sellIdx = j
				}
			}
			j++
		}

		var chosen *engine.Signal
		switch {
		case buy != nil && sell != nil:
			if !openLong {
				chosen = buy
			} else if buyIdx < sellIdx {
				chosen = buy
			} else {
				chosen = sell
			}
		case buy != nil:
			chosen = buy
		case sell != nil:
			chosen = sell
		}

		if chosen != nil {
			if len(out) == 0 || out[len(out)-1].Side != chosen.Side {
				out = append(out, *chosen)
				openLong = chosen.Side == engine.Buy
			}
		}
		i = j
	}
	return out
}

// crossesAbove reports whether series a crossed above series b between
// index i-1 and i (a was <= b, now a > b). Both series must have a valid
// (non-NaN) value at both indices.
func crossesAbove(a, b []float64, i int) bool {
	if i <= 0 || i >= len(a) || i >= len(b) {
		return false
	}
	if nanF(a[i-1]) || nanF(b[i-1]) || nanF(a[i]) || nanF(b[i]) {
		return false
	}
	return a[i-1] <= b[i-1] && a[i] > b[i]
}

// crossesBelow is the mirror of crossesAbove.
func crossesBelow(a, b []float64, i int) bool {
	if i <= 0 || i >= len(a) || i >= len(b) {
		return false
	}
	if nanF(a[i-1]) || nanF(b[i-1]) || nanF(a[i]) || nanF(b[i]) {
		return false
	}
	return a[i-1] >= b[i-1] && a[i] < b[i]
}

func nanF(f float64) bool { return f != f }
