package indicators

import (
	"math"
	"testing"
)

func TestSMALeadingHolesAndLength(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	out := SMA(values, 3)
	if len(out) != len(values) {
		t.Fatalf("SMA length = %d, want %d", len(out), len(values))
	}
	for i := 0; i < 2; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("SMA[%d] = %v, want NaN hole", i, out[i])
		}
	}
	if got, want := out[2], 2.0; got != want {
		t.Errorf("SMA[2] = %v, want %v", got, want)
	}
	if got, want := out[5], 5.0; got != want {
		t.Errorf("SMA[5] = %v, want %v", got, want)
	}
}

func TestSMAShorterThanLookback(t *testing.T) {
	out := SMA([]float64{1, 2}, 5)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("SMA[%d] = %v, want all-NaN for series shorter than lookback", i, v)
		}
	}
}

func TestEMASeededBySMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := EMA(values, 3)
	if out[2] != 2.0 {
		t.Errorf("EMA seed at index 2 = %v, want SMA(3) = 2.0", out[2])
	}
	mult := 2.0 / 4.0
	want := (values[3]-out[2])*mult + out[2]
	if out[3] != want {
		t.Errorf("EMA[3] = %v, want %v", out[3], want)
	}
}

func TestRSIBounded(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 9, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	out := RSI(closes, 5)
	for i, v := range out {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("RSI[%d] = %v, out of [0,100]", i, v)
		}
	}
}

func TestStochasticGuardsZeroRange(t *testing.T) {
	highs := make([]float64, 10)
	lows := make([]float64, 10)
	closes := make([]float64, 10)
	for i := range highs {
		highs[i], lows[i], closes[i] = 10, 10, 10
	}
	pctK, pctD := Stochastic(highs, lows, closes, 3, 3)
	for i, v := range pctK {
		if !math.IsNaN(v) {
			t.Errorf("pctK[%d] = %v on a flat series, want NaN (guarded, not a division artifact)", i, v)
		}
	}
	for _, v := range pctD {
		if !math.IsNaN(v) && math.IsInf(v, 0) {
			t.Errorf("pctD contains +/-Inf on a flat series")
		}
	}
}

func TestATRFlatSeriesNoDivisionArtifact(t *testing.T) {
	highs := make([]float64, 10)
	lows := make([]float64, 10)
	closes := make([]float64, 10)
	for i := range highs {
		highs[i], lows[i], closes[i] = 100, 100, 100
	}
	out := ATR(highs, lows, closes, 5)
	for i, v := range out {
		if math.IsInf(v, 0) {
			t.Errorf("ATR[%d] = Inf on a flat series, want finite (0) or NaN hole", i)
		}
	}
}

func TestMACDChannelsEqualLength(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30}
	macd, sig, hist := MACD(closes, 12, 26, 9)
	for _, ch := range [][]float64{macd, sig, hist} {
		if len(ch) != len(closes) {
			t.Fatalf("MACD channel length = %d, want %d", len(ch), len(closes))
		}
	}
}
