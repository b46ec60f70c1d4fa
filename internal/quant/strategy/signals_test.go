package strategy

import (
	"testing"

	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
)

func TestFinalizeBuyWinsSameBarCollisionWhenFlat(t *testing.T) {
	raw := []engine.Signal{
		{Timestamp: 100, Side: engine.Sell, Price: 10},
		{Timestamp: 100, Side: engine.Buy, Price: 10},
	}
	out := Finalize(raw)
	if len(out) != 1 || out[0].Side != engine.Buy {
		t.Fatalf("Finalize = %+v, want a single BUY (no open long, BUY wins the collision)", out)
	}
}

func TestFinalizeSuppressesLaterEventWhenLongAlreadyOpen(t *testing.T) {
	raw := []engine.Signal{
		{Timestamp: 0, Side: engine.Buy, Price: 10},
		// Same-bar collision while a long is already open: SELL was
		// evaluated before BUY in raw order, so SELL is kept and the
		// later BUY is suppressed.
		{Timestamp: 50, Side: engine.Sell, Price: 12},
		{Timestamp: 50, Side: engine.Buy, Price: 12},
	}
	out := Finalize(raw)
	if len(out) != 2 {
		t.Fatalf("Finalize = %+v, want 2 signals (opening BUY, then the earlier-evaluated SELL)", out)
	}
	if out[0].Side != engine.Buy || out[1].Side != engine.Sell {
		t.Errorf("Finalize sides = [%v %v], want [Buy Sell]", out[0].Side, out[1].Side)
	}
}

func TestFinalizeCollapsesConsecutiveSameSideSignals(t *testing.T) {
	raw := []engine.Signal{
		{Timestamp: 0, Side: engine.Buy, Price: 10},
		{Timestamp: 10, Side: engine.Buy, Price: 11},
		{Timestamp: 20, Side: engine.Sell, Price: 12},
	}
	out := Finalize(raw)
	if len(out) != 2 {
		t.Fatalf("Finalize = %+v, want 2 signals (second BUY collapsed)", out)
	}
	if out[0].Timestamp != 0 {
		t.Errorf("kept BUY timestamp = %d, want 0 (the first of the run)", out[0].Timestamp)
	}
}
