// Package strategy implements the 20-strategy catalog: for each entry, a
// descriptor, default parameters, an indicator producer, a signal
// producer, and a category-output summarizer. The registry is built once
// at NewRegistry and is immutable thereafter, safe for concurrent reads
// by every request worker — the same shape as the teacher's
// StrategyRegistry, generalized from a factory-per-strategy-instance map
// to a stateless entry-per-strategy map (these strategies are pure
// functions over a bar slice, not stateful per-connection objects).
package strategy

import (
	"sort"

	"github.com/atlas-desktop/quant-engine/internal/quant/apperr"
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
)

// Params is a validated parameter map passed to indicator/signal/output
// functions.
type Params map[string]float64

// ParamKind constrains a parameter's accepted value shape.
type ParamKind string

const (
	KindInt   ParamKind = "int"
	KindFloat ParamKind = "float"
)

// ParamSpec describes one strategy parameter's validation domain.
type ParamSpec struct {
	Kind ParamKind
	Min  float64
	Max  float64
}

// IndicatorFunc computes the indicator channels a strategy exposes for
// UI overlay and internal signal evaluation.
type IndicatorFunc func(bars []engine.Bar, params Params) (engine.IndicatorSeries, error)

// SignalFunc derives BUY/SELL signals from bars and computed indicators.
type SignalFunc func(bars []engine.Bar, ind engine.IndicatorSeries, params Params) ([]engine.Signal, error)

// OutputFunc summarizes current market posture at the last bar for UI
// overlays, tagged by the strategy's category.
type OutputFunc func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, params Params) engine.StrategyOutput

// Entry is one registry tuple: metadata, defaults, and the three pure
// computation stages.
type Entry struct {
	Descriptor engine.StrategyDescriptor
	ParamSpecs map[string]ParamSpec
	Indicators IndicatorFunc
	Signals    SignalFunc
	Output     OutputFunc

	// PrimaryChannel/SecondaryChannel name the two indicator channels the
	// Stream Orchestrator narrates in its steps 2 and 3. CustomScript
	// false means the strategy has no clean two-channel split (composite
	// scoring strategies) and uses the generic fallback script instead.
	PrimaryChannel   string
	SecondaryChannel string
	CustomScript     bool
}

// Registry is the immutable, process-wide strategy catalog.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry builds the fixed catalog of 20 strategies.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Entry)}
	for _, e := range allEntries() {
		r.entries[e.Descriptor.Key] = e
	}
	return r
}

// Get looks up a strategy entry by key.
func (r *Registry) Get(key string) (Entry, error) {
	e, ok := r.entries[key]
	if !ok {
		return Entry{}, apperr.UnknownStrategyf(key)
	}
	return e, nil
}

// List returns every descriptor, sorted by key for a stable API response.
func (r *Registry) List() []engine.StrategyDescriptor {
	out := make([]engine.StrategyDescriptor, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ValidateParams merges user-supplied overrides onto an entry's
// defaults, rejecting unknown keys and out-of-domain values.
func ValidateParams(e Entry, overrides map[string]float64) (Params, error) {
	merged := make(Params, len(e.Descriptor.DefaultParams))
	for k, v := range e.Descriptor.DefaultParams {
		merged[k] = v
	}
	for k, v := range overrides {
		spec, ok := e.ParamSpecs[k]
		if !ok {
			return nil, apperr.InvalidParamsf("unknown parameter %q for strategy %q", k, e.Descriptor.Key)
		}
		if !safeFinite(v) {
			return nil, apperr.InvalidParamsf("parameter %q must be finite", k)
		}
		if spec.Kind == KindInt && v != float64(int64(v)) {
			return nil, apperr.InvalidParamsf("parameter %q must be an integer", k)
		}
		if v < spec.Min || v > spec.Max {
			return nil, apperr.InvalidParamsf("parameter %q=%v out of domain [%v,%v]", k, v, spec.Min, spec.Max)
		}
		merged[k] = v
	}
	if err := e.validateCrossParams(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func safeFinite(f float64) bool {
	return f == f && f+1 != f // rejects NaN and +/-Inf without importing math here
}

// validateCrossParams enforces relational invariants spec.md names
// explicitly (slow > fast where applicable).
func (e Entry) validateCrossParams(p Params) error {
	fast, hasFast := p["fast"]
	slow, hasSlow := p["slow"]
	if hasFast && hasSlow && slow <= fast {
		return apperr.InvalidParamsf("slow (%v) must be greater than fast (%v)", slow, fast)
	}
	fastP, hasFastP := p["fast_period"]
	slowP, hasSlowP := p["slow_period"]
	if hasFastP && hasSlowP && slowP <= fastP {
		return apperr.InvalidParamsf("slow_period (%v) must be greater than fast_period (%v)", slowP, fastP)
	}
	return nil
}
