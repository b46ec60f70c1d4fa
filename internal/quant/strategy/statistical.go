package strategy

import (
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/indicators"
)

func statisticalEntries() []Entry {
	return []Entry{
		kalmanFilterEntry(),
		hmmRegimeEntry(),
	}
}

func kalmanFilterEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "kalman_filter",
			DisplayName: "Kalman Filter Trend",
			Category:    engine.CategoryStatistical,
			Description: "Buys when price crosses above the Kalman-filtered estimate with positive velocity, sells on the mirrored case.",
			DefaultParams: map[string]float64{
				"lookback": 20,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"lookback": {Kind: KindInt, Min: 2, Max: 400},
		},
		PrimaryChannel: "estimate", SecondaryChannel: "velocity", CustomScript: true,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, _, _, closes, _ := columns(bars)
			estimate, velocity := indicators.Kalman1D(closes, int(p["lookback"]))
			return engine.IndicatorSeries{"estimate": estimate, "velocity": velocity}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			est, vel := ind["estimate"], ind["velocity"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := range bars {
				if nanF(est[i]) || nanF(vel[i]) {
					continue
				}
				if crossesAbove(closes, est, i) && vel[i] > 0 {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if crossesBelow(closes, est, i) && vel[i] < 0 {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			est, _ := lastFinite(ind["estimate"])
			vel, _ := lastFinite(ind["velocity"])
			state := "FLAT"
			if vel > 0 {
				state = "TRACKING_UP"
			} else if vel < 0 {
				state = "TRACKING_DOWN"
			}
			return engine.StrategyOutput{Type: engine.OutputStatistical, Payload: engine.StatisticalOutput{
				FilterState: state, EstimatedPrice: est, Velocity: vel, Gain: 0,
			}}
		},
	}
}

func hmmRegimeEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "hmm_regime",
			DisplayName: "Regime-Switching Filter",
			Category:    engine.CategoryStatistical,
			Description: "Buys on a transition into the bullish regime, sells on a transition into the bearish regime.",
			DefaultParams: map[string]float64{
				"period": 10,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period": {Kind: KindInt, Min: 2, Max: 400},
		},
		PrimaryChannel: "regime_score", CustomScript: false,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, _, _, closes, _ := columns(bars)
			labels := indicators.HMMRegime(closes, int(p["period"]))
			score := make([]float64, len(labels))
			for i, l := range labels {
				switch l {
				case indicators.RegimeBullish:
					score[i] = 1
				case indicators.RegimeBearish:
					score[i] = -1
				default:
					score[i] = float64FromNaN()
				}
			}
			return engine.IndicatorSeries{"regime_score": score}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			score := ind["regime_score"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := 1; i < len(score); i++ {
				if nanF(score[i-1]) || nanF(score[i]) {
					continue
				}
				if score[i-1] <= 0 && score[i] > 0 {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if score[i-1] >= 0 && score[i] < 0 {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			score, _ := lastFinite(ind["regime_score"])
			state := "NEUTRAL"
			if score > 0 {
				state = "BULLISH_REGIME"
			} else if score < 0 {
				state = "BEARISH_REGIME"
			}
			return engine.StrategyOutput{Type: engine.OutputStatistical, Payload: engine.StatisticalOutput{
				FilterState: state, EstimatedPrice: 0, Velocity: score, Gain: 0,
			}}
		},
	}
}

func float64FromNaN() float64 {
	var z float64
	return z / z
}
