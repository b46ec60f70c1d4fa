// Package orchestrator wires the Indicator Kernel, Strategy Registry,
// Metric Engine, and Backtest Engine into the engine's two synchronous
// execution paths (Run, Backtest) and its progressive stream path.
//
// Grounded on the teacher's orchestrator.Orchestrator
// (internal/orchestrator/orchestrator.go): a thin coordinating layer
// that owns no state beyond its collaborators, calling out to the
// registry/provider and assembling the response record.
package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-desktop/quant-engine/internal/quant/apperr"
	"github.com/atlas-desktop/quant-engine/internal/quant/backtest"
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/metrics"
	"github.com/atlas-desktop/quant-engine/internal/quant/safety"
	"github.com/atlas-desktop/quant-engine/internal/quant/strategy"
)

// Request is the validated input shared by Run and Backtest.
type Request struct {
	Ticker   string
	Strategy string
	Period   engine.Period
	Interval engine.Interval
	Params   map[string]float64
}

// RunResult is the synchronous run response record.
type RunResult struct {
	Ticker        string                 `json:"ticker"`
	Strategy      string                 `json:"strategy"`
	Signals       []engine.Signal        `json:"signals"`
	Metrics       engine.Metrics         `json:"metrics"`
	IndicatorData engine.IndicatorSeries `json:"indicator_data"`
	OutputType    engine.OutputType      `json:"output_type"`
	Output        interface{}            `json:"output"`
}

// Orchestrator executes the validate->resolve->fetch->indicators->
// signals->metrics->sanitize pipeline against a registry and provider.
type Orchestrator struct {
	registry        *strategy.Registry
	provider        engine.MarketDataProvider
	log             *zap.Logger
	providerTimeout time.Duration
}

// New constructs an Orchestrator. providerTimeout bounds every
// MarketDataProvider call (spec.md §5: "a provider call that exceeds a
// per-request deadline (default 10s) must be aborted with
// DataUnavailable").
func New(registry *strategy.Registry, provider engine.MarketDataProvider, log *zap.Logger, providerTimeout time.Duration) *Orchestrator {
	return &Orchestrator{registry: registry, provider: provider, log: log, providerTimeout: providerTimeout}
}

// resolved bundles everything computed before the signal stage, shared
// by Run, Backtest, and the Stream Orchestrator's canonical script.
type resolved struct {
	entry   strategy.Entry
	params  strategy.Params
	bars    []engine.Bar
	ind     engine.IndicatorSeries
	signals []engine.Signal
}

// prepare runs validate->resolve->fetch->indicators->signals, the
// portion of the pipeline every execution surface shares.
func (o *Orchestrator) prepare(ctx context.Context, req Request) (resolved, error) {
	entry, err := o.registry.Get(req.Strategy)
	if err != nil {
		return resolved{}, err
	}

	params, err := strategy.ValidateParams(entry, req.Params)
	if err != nil {
		return resolved{}, err
	}

	if req.Ticker == "" {
		return resolved{}, apperr.InvalidParamsf("ticker is required")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.providerTimeout)
	bars, err := o.provider.GetHistory(fetchCtx, req.Ticker, req.Period, req.Interval)
	cancel()
	if err != nil {
		return resolved{}, apperr.Wrapf(apperr.DataUnavailable, err, "failed to load history for %q", req.Ticker)
	}
	if len(bars) == 0 {
		return resolved{}, apperr.DataUnavailablef(true, "no bars returned for ticker %q", req.Ticker)
	}

	ind, err := entry.Indicators(bars, params)
	if err != nil {
		return resolved{}, apperr.Wrapf(apperr.InternalComputation, err, "indicator computation failed for %q", entry.Descriptor.Key)
	}

	signals, err := entry.Signals(bars, ind, params)
	if err != nil {
		return resolved{}, apperr.Wrapf(apperr.InternalComputation, err, "signal computation failed for %q", entry.Descriptor.Key)
	}

	return resolved{entry: entry, params: params, bars: bars, ind: ind, signals: signals}, nil
}

// Run executes the synchronous one-shot path.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*RunResult, error) {
	r, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	m := metrics.Compute(r.bars, r.signals, req.Interval)
	output := r.entry.Output(r.bars, r.ind, r.signals, r.params)

	result := &RunResult{
		Ticker:        req.Ticker,
		Strategy:      req.Strategy,
		Signals:       r.signals,
		Metrics:       m,
		IndicatorData: r.ind,
		OutputType:    output.Type,
		Output:        output.Payload,
	}
	return safety.Sanitize(result).(*RunResult), nil
}

// Backtest executes the synchronous capital-simulation path.
func (o *Orchestrator) Backtest(ctx context.Context, req Request, initialCapital, sizeFraction float64) (*engine.BacktestResult, error) {
	r, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	result := backtest.Run(r.bars, r.signals, initialCapital, sizeFraction, req.Interval)
	return safety.Sanitize(&result).(*engine.BacktestResult), nil
}
