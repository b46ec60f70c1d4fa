package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-desktop/quant-engine/internal/quant/apperr"
	"github.com/atlas-desktop/quant-engine/internal/quant/strategy"
)

func drain(t *testing.T, events <-chan StepEvent) []StepEvent {
	t.Helper()
	var got []StepEvent
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for stream events")
		}
	}
}

// Seed scenario 4: ma_crossover, default params, any valid series ->
// exactly six events, titles in order, progress ending at 100.
func TestStreamMACrossoverEmitsSixEvents(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 10, 9, 8, 7, 6, 10, 12, 14, 16, 18}
	o := newTestOrchestrator(closesToBars(closes))

	events := drain(t, o.Stream(context.Background(), Request{Ticker: "AAPL", Strategy: "ma_crossover"}))

	if len(events) != 6 {
		t.Fatalf("got %d events, want 6: %+v", len(events), events)
	}
	wantTitlePrefixes := []string{"Loading", "Computing", "Computing", "Scanning", "Computing", "Analysis Complete"}
	for i, prefix := range wantTitlePrefixes {
		if !strings.HasPrefix(events[i].Title, prefix) {
			t.Errorf("event[%d].Title = %q, want prefix %q", i, events[i].Title, prefix)
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Step <= events[i-1].Step {
			t.Errorf("event steps not monotonic: event[%d].Step=%d, event[%d].Step=%d", i-1, events[i-1].Step, i, events[i].Step)
		}
		if events[i].Progress < events[i-1].Progress {
			t.Errorf("event progress not non-decreasing: event[%d].Progress=%d, event[%d].Progress=%d", i-1, events[i-1].Progress, i, events[i].Progress)
		}
	}
	last := events[len(events)-1]
	if !last.Final || last.Progress != 100 || last.Type != EventComplete {
		t.Errorf("final event = %+v, want Final=true Progress=100 Type=complete", last)
	}
	for i := 0; i < len(events)-1; i++ {
		if events[i].Final {
			t.Errorf("event[%d] is marked Final but is not the last event", i)
		}
	}
}

// Seed scenario 5: unknown strategy key -> one error event, no partial
// step events.
func TestStreamUnknownStrategyEmitsSingleErrorEvent(t *testing.T) {
	o := newTestOrchestrator(closesToBars([]float64{1, 2, 3}))

	events := drain(t, o.Stream(context.Background(), Request{Ticker: "AAPL", Strategy: "not_a_strategy"}))

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	if events[0].Type != EventError || !events[0].Final {
		t.Errorf("event = %+v, want Type=error Final=true", events[0])
	}
	if events[0].ErrorKind == "" {
		t.Error("ErrorKind is empty, want a populated error kind")
	}
}

func TestStreamCancellationStopsEventEmission(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 10, 9, 8, 7, 6, 10, 12, 14, 16, 18}
	o := newTestOrchestrator(closesToBars(closes))

	ctx, cancel := context.WithCancel(context.Background())
	events := o.Stream(ctx, Request{Ticker: "AAPL", Strategy: "ma_crossover"})

	first, ok := <-events
	if !ok {
		t.Fatal("expected at least one event before cancellation")
	}
	if first.Step != 1 {
		t.Fatalf("first event step = %d, want 1", first.Step)
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			// A second event may already have been in flight when cancel()
			// fired; draining to close confirms the stream still terminates.
			for range events {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close within the timeout after cancellation")
	}
}

// A stalled provider call during a stream is aborted at the configured
// timeout and reported as a single DataUnavailable error event, not left
// to block the stream forever.
func TestStreamAbortsSlowProviderCallAtConfiguredTimeout(t *testing.T) {
	o := New(strategy.NewRegistry(), slowProvider{}, zap.NewNop(), 20*time.Millisecond)

	events := drain(t, o.Stream(context.Background(), Request{Ticker: "AAPL", Strategy: "ma_crossover"}))

	if len(events) != 1 || events[0].Type != EventError {
		t.Fatalf("got %+v, want a single error event", events)
	}
	if apperr.Kind(events[0].ErrorKind) != apperr.DataUnavailable {
		t.Errorf("ErrorKind = %v, want DataUnavailable", events[0].ErrorKind)
	}
}

// Generic (non-CustomScript) strategies collapse into a four-step
// script; the terminal event still lands at progress 100.
func TestStreamGenericScriptEmitsFourEvents(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i%5)
	}
	o := newTestOrchestrator(closesToBars(closes))

	events := drain(t, o.Stream(context.Background(), Request{Ticker: "AAPL", Strategy: "rsi_strategy"}))

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4: %+v", len(events), events)
	}
	last := events[len(events)-1]
	if !last.Final || last.Progress != 100 {
		t.Errorf("final event = %+v, want Final=true Progress=100", last)
	}
}
