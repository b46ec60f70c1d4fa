package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/atlas-desktop/quant-engine/internal/quant/apperr"
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/metrics"
	"github.com/atlas-desktop/quant-engine/internal/quant/safety"
	"github.com/atlas-desktop/quant-engine/internal/quant/strategy"
)

// EventType names a stream event's role; exactly one "complete" or
// "error" event terminates a stream, always last.
type EventType string

const (
	EventStep     EventType = "step"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// StepEvent is one narrated progress record. Step/Progress are
// monotonic within a stream; Metrics/IndicatorData/OutputType/Output
// are populated only on the complete event, and ErrorKind/ErrorMessage
// only on the error event.
type StepEvent struct {
	TraceID  string    `json:"trace_id"`
	Type     EventType `json:"type"`
	Step     int       `json:"step"`
	Total    int       `json:"total"`
	Title    string    `json:"title"`
	Detail   string    `json:"detail"`
	Progress int       `json:"progress"`
	Final    bool      `json:"final"`

	Indicator engine.FloatSlice `json:"indicator,omitempty"`
	Signals   []engine.Signal   `json:"signals,omitempty"`

	Metrics       *engine.Metrics        `json:"metrics,omitempty"`
	IndicatorData engine.IndicatorSeries `json:"indicator_data,omitempty"`
	OutputType    engine.OutputType      `json:"output_type,omitempty"`
	Output        interface{}            `json:"output,omitempty"`

	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Stream runs the progressive execution path, sending step events on
// the returned channel and closing it after exactly one terminal
// event. The caller's ctx governs cancellation: the orchestrator checks
// it before emitting each event and aborts silently (no further
// events, channel closed) if it has been canceled.
func (o *Orchestrator) Stream(ctx context.Context, req Request) <-chan StepEvent {
	out := make(chan StepEvent)
	go o.runStream(ctx, req, out)
	return out
}

func (o *Orchestrator) runStream(ctx context.Context, req Request, out chan<- StepEvent) {
	defer close(out)

	traceID := uuid.New().String()

	entry, err := o.registry.Get(req.Strategy)
	if err != nil {
		o.emitError(ctx, out, traceID, err)
		return
	}
	params, err := strategy.ValidateParams(entry, req.Params)
	if err != nil {
		o.emitError(ctx, out, traceID, err)
		return
	}
	if req.Ticker == "" {
		o.emitError(ctx, out, traceID, apperr.InvalidParamsf("ticker is required"))
		return
	}

	if entry.CustomScript {
		o.runCanonicalScript(ctx, req, traceID, entry, params, out)
	} else {
		o.runGenericScript(ctx, req, traceID, entry, params, out)
	}
}

// send delivers an event if ctx is still live, reporting whether it
// was sent (false means the stream must stop immediately).
func (o *Orchestrator) send(ctx context.Context, out chan<- StepEvent, ev StepEvent) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (o *Orchestrator) emitError(ctx context.Context, out chan<- StepEvent, traceID string, err error) {
	if ctx.Err() != nil {
		return
	}
	o.send(ctx, out, StepEvent{
		TraceID:      traceID,
		Type:         EventError,
		Final:        true,
		ErrorKind:    string(apperr.KindOf(err)),
		ErrorMessage: err.Error(),
	})
}

// runCanonicalScript emits the six-step narration for strategies that
// declare two named indicator channels.
func (o *Orchestrator) runCanonicalScript(ctx context.Context, req Request, traceID string, entry strategy.Entry, params strategy.Params, out chan<- StepEvent) {
	const total = 6

	if !o.send(ctx, out, StepEvent{TraceID: traceID, Type: EventStep, Step: 1, Total: total, Title: "Loading Market Data", Progress: 10}) {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.providerTimeout)
	bars, err := o.provider.GetHistory(fetchCtx, req.Ticker, req.Period, req.Interval)
	cancel()
	if err != nil {
		o.emitError(ctx, out, traceID, apperr.Wrapf(apperr.DataUnavailable, err, "failed to load history for %q", req.Ticker))
		return
	}
	if len(bars) == 0 {
		o.emitError(ctx, out, traceID, apperr.DataUnavailablef(true, "no bars returned for ticker %q", req.Ticker))
		return
	}

	ind, err := entry.Indicators(bars, params)
	if err != nil {
		o.emitError(ctx, out, traceID, apperr.Wrapf(apperr.InternalComputation, err, "indicator computation failed for %q", entry.Descriptor.Key))
		return
	}

	primary := ind[entry.PrimaryChannel]
	if !o.send(ctx, out, StepEvent{
		TraceID: traceID,
		Type:    EventStep, Step: 2, Total: total,
		Title: "Computing primary indicator", Detail: entry.PrimaryChannel, Progress: 30,
		Indicator: primary,
	}) {
		return
	}

	secondary := ind[entry.SecondaryChannel]
	if !o.send(ctx, out, StepEvent{
		TraceID: traceID,
		Type:    EventStep, Step: 3, Total: total,
		Title: "Computing secondary indicator", Detail: entry.SecondaryChannel, Progress: 50,
		Indicator: secondary,
	}) {
		return
	}

	signals, err := entry.Signals(bars, ind, params)
	if err != nil {
		o.emitError(ctx, out, traceID, apperr.Wrapf(apperr.InternalComputation, err, "signal computation failed for %q", entry.Descriptor.Key))
		return
	}

	if !o.send(ctx, out, StepEvent{
		TraceID: traceID,
		Type:    EventStep, Step: 4, Total: total,
		Title: "Scanning for signal conditions", Progress: 70,
		Signals: signals,
	}) {
		return
	}

	m := metrics.Compute(bars, signals, req.Interval)
	if !o.send(ctx, out, StepEvent{TraceID: traceID, Type: EventStep, Step: 5, Total: total, Title: "Computing risk metrics", Progress: 90}) {
		return
	}

	output := entry.Output(bars, ind, signals, params)
	final := StepEvent{
		TraceID: traceID,
		Type:    EventComplete, Step: 6, Total: total,
		Title: "Analysis Complete", Progress: 100, Final: true,
		Signals: signals, Metrics: &m, IndicatorData: ind,
		OutputType: output.Type, Output: output.Payload,
	}
	o.send(ctx, out, *safety.Sanitize(&final).(*StepEvent))
}

// runGenericScript collapses indicator/signal computation into a
// single "Applying strategy" step for strategies without a clean
// two-channel split.
func (o *Orchestrator) runGenericScript(ctx context.Context, req Request, traceID string, entry strategy.Entry, params strategy.Params, out chan<- StepEvent) {
	const total = 4

	if !o.send(ctx, out, StepEvent{TraceID: traceID, Type: EventStep, Step: 1, Total: total, Title: "Loading Market Data", Progress: 10}) {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.providerTimeout)
	bars, err := o.provider.GetHistory(fetchCtx, req.Ticker, req.Period, req.Interval)
	cancel()
	if err != nil {
		o.emitError(ctx, out, traceID, apperr.Wrapf(apperr.DataUnavailable, err, "failed to load history for %q", req.Ticker))
		return
	}
	if len(bars) == 0 {
		o.emitError(ctx, out, traceID, apperr.DataUnavailablef(true, "no bars returned for ticker %q", req.Ticker))
		return
	}

	ind, err := entry.Indicators(bars, params)
	if err != nil {
		o.emitError(ctx, out, traceID, apperr.Wrapf(apperr.InternalComputation, err, "indicator computation failed for %q", entry.Descriptor.Key))
		return
	}
	signals, err := entry.Signals(bars, ind, params)
	if err != nil {
		o.emitError(ctx, out, traceID, apperr.Wrapf(apperr.InternalComputation, err, "signal computation failed for %q", entry.Descriptor.Key))
		return
	}

	if !o.send(ctx, out, StepEvent{
		TraceID: traceID,
		Type:    EventStep, Step: 2, Total: total,
		Title: "Applying strategy", Progress: 60, Signals: signals,
	}) {
		return
	}

	m := metrics.Compute(bars, signals, req.Interval)
	if !o.send(ctx, out, StepEvent{TraceID: traceID, Type: EventStep, Step: 3, Total: total, Title: "Computing risk metrics", Progress: 90}) {
		return
	}

	output := entry.Output(bars, ind, signals, params)
	final := StepEvent{
		TraceID: traceID,
		Type:    EventComplete, Step: 4, Total: total,
		Title: "Analysis Complete", Progress: 100, Final: true,
		Signals: signals, Metrics: &m, IndicatorData: ind,
		OutputType: output.Type, Output: output.Payload,
	}
	o.send(ctx, out, *safety.Sanitize(&final).(*StepEvent))
}
