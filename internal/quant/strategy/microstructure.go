package strategy

import (
	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
	"github.com/atlas-desktop/quant-engine/internal/quant/indicators"
)

func microstructureEntries() []Entry {
	return []Entry{
		volumeSpikeEntry(),
		orderImbalanceEntry(),
	}
}

func volumeSpikeEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "volume_spike",
			DisplayName: "Volume Spike Breakout",
			Category:    engine.CategoryMarketMicrostructure,
			Description: "Buys a volume spike on an up bar, sells a volume spike on a down bar.",
			DefaultParams: map[string]float64{
				"period": 20, "multiplier": 2,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period":     {Kind: KindInt, Min: 2, Max: 400},
			"multiplier": {Kind: KindFloat, Min: 1, Max: 20},
		},
		PrimaryChannel: "volume_sma", CustomScript: false,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, _, _, _, volumes := columns(bars)
			return engine.IndicatorSeries{"volume_sma": indicators.SMA(volumes, int(p["period"]))}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			_, _, _, closes, volumes := columns(bars)
			spikes := indicators.VolumeSpike(volumes, int(p["period"]), p["multiplier"])
			ts := timestamps(bars)
			var raw []engine.Signal
			for i := 1; i < len(bars); i++ {
				if !spikes[i] {
					continue
				}
				if closes[i] > closes[i-1] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if closes[i] < closes[i-1] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			net := "FLAT"
			if len(signals) > 0 {
				if signals[len(signals)-1].Side == engine.Buy {
					net = "LONG"
				} else {
					net = "SHORT"
				}
			}
			return engine.StrategyOutput{Type: engine.OutputGeneric, Payload: engine.GenericOutput{
				NetDirection: net, TotalSignals: len(signals),
			}}
		},
	}
}

func orderImbalanceEntry() Entry {
	return Entry{
		Descriptor: engine.StrategyDescriptor{
			Key:         "order_imbalance",
			DisplayName: "Order Flow Imbalance Proxy",
			Category:    engine.CategoryMarketMicrostructure,
			Description: "Approximates order-flow imbalance from intrabar close position within its range, weighted by volume relative to its average.",
			DefaultParams: map[string]float64{
				"period": 14, "threshold": 0.6,
			},
		},
		ParamSpecs: map[string]ParamSpec{
			"period":    {Kind: KindInt, Min: 2, Max: 200},
			"threshold": {Kind: KindFloat, Min: 0.01, Max: 1},
		},
		PrimaryChannel: "imbalance", CustomScript: false,
		Indicators: func(bars []engine.Bar, p Params) (engine.IndicatorSeries, error) {
			_, highs, lows, closes, volumes := columns(bars)
			volSMA := indicators.SMA(volumes, int(p["period"]))
			imbalance := make([]float64, len(bars))
			for i := range bars {
				rng := highs[i] - lows[i]
				posInRange := 0.0
				if rng > 0 {
					posInRange = (closes[i]-lows[i])/rng*2 - 1 // [-1,1]
				}
				volWeight := 1.0
				if i < len(volSMA) && !nanF(volSMA[i]) && volSMA[i] > 0 {
					volWeight = volumes[i] / volSMA[i]
				}
				imbalance[i] = posInRange * volWeight
			}
			return engine.IndicatorSeries{"imbalance": imbalance}, nil
		},
		Signals: func(bars []engine.Bar, ind engine.IndicatorSeries, p Params) ([]engine.Signal, error) {
			imb := ind["imbalance"]
			ts := timestamps(bars)
			_, _, _, closes, _ := columns(bars)
			var raw []engine.Signal
			for i := 1; i < len(imb); i++ {
				if imb[i-1] <= p["threshold"] && imb[i] > p["threshold"] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Buy, Price: closes[i]})
				} else if imb[i-1] >= -p["threshold"] && imb[i] < -p["threshold"] {
					raw = append(raw, engine.Signal{Timestamp: ts[i], Side: engine.Sell, Price: closes[i]})
				}
			}
			return Finalize(raw), nil
		},
		Output: func(bars []engine.Bar, ind engine.IndicatorSeries, signals []engine.Signal, p Params) engine.StrategyOutput {
			net := "FLAT"
			if len(signals) > 0 {
				if signals[len(signals)-1].Side == engine.Buy {
					net = "LONG"
				} else {
					net = "SHORT"
				}
			}
			return engine.StrategyOutput{Type: engine.OutputGeneric, Payload: engine.GenericOutput{
				NetDirection: net, TotalSignals: len(signals),
			}}
		},
	}
}
