package indicators

// OHLCV is the minimal bar shape the indicator kernel operates on. It
// mirrors engine.Bar's fields by value so this package stays free of any
// dependency on the engine package, consistent with the pack's
// array-oriented indicator idiom (indicators.Manager.Analyze takes plain
// opens/highs/lows/closes/volumes []float64 rather than a bar struct).
type OHLCV struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Columns splits a bar slice into parallel open/high/low/close/volume
// arrays for primitives that need more than one channel.
func Columns(bars []OHLCV) (opens, highs, lows, closes, volumes []float64) {
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
