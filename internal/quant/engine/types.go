// Package engine defines the quant engine's data model: bars, signals,
// indicator series, strategy descriptors, metrics, and the category-tagged
// strategy output used for UI overlays.
package engine

import (
	"context"
	"encoding/json"
	"math"
)

// Bar is one historical OHLCV observation. Timestamp is UTC seconds.
type Bar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// IndicatorSeries maps a named channel to a sequence of floats of the
// same length as the bar sequence it was computed from. Leading holes
// are represented internally as math.NaN() and sanitized to JSON null.
type IndicatorSeries map[string]FloatSlice

// FloatSlice is []float64 with a MarshalJSON that renders NaN/Inf
// entries as literal JSON null rather than failing to encode, so
// indicator holes survive the wire in place without shortening the
// channel's length.
type FloatSlice []float64

// MarshalJSON implements json.Marshaler.
func (s FloatSlice) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(s)*8+2)
	buf = append(buf, '[')
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, []byte("null")...)
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	buf = append(buf, ']')
	return buf, nil
}

// SignalSide is BUY or SELL.
type SignalSide string

const (
	Buy  SignalSide = "BUY"
	Sell SignalSide = "SELL"
)

// Signal is a discrete BUY/SELL recommendation anchored to a bar close.
type Signal struct {
	Timestamp int64      `json:"timestamp"`
	Side      SignalSide `json:"side"`
	Price     float64    `json:"price"`
}

// Category classifies a strategy for UI grouping and output summarizer
// selection.
type Category string

const (
	CategoryTrend                Category = "Trend"
	CategoryMomentum             Category = "Momentum"
	CategoryMeanReversion        Category = "MeanReversion"
	CategoryVolatility           Category = "Volatility"
	CategoryMarketMicrostructure Category = "MarketMicrostructure"
	CategoryStatistical          Category = "Statistical"
	CategoryMLProxy              Category = "MLProxy"
)

// StrategyDescriptor is the catalog entry exposed by GET /quant/strategies.
type StrategyDescriptor struct {
	Key           string             `json:"key"`
	DisplayName   string             `json:"display_name"`
	Category      Category           `json:"category"`
	Description   string             `json:"description"`
	DefaultParams map[string]float64 `json:"default_params"`
}

// Metrics is the performance-metrics record. Ratio fields are pointers so
// a zero-trade run can report them as JSON null per spec.
type Metrics struct {
	Sharpe               *float64 `json:"sharpe"`
	MaxDrawdownPct       *float64 `json:"max_drawdown_pct"`
	WinRate              *float64 `json:"win_rate"`
	TotalTrades          int      `json:"total_trades"`
	ProfitFactor         *float64 `json:"profit_factor"`
	AvgWin               *float64 `json:"avg_win"`
	AvgLoss              *float64 `json:"avg_loss"`
	RiskLabel            string   `json:"risk_label"`
	Confidence           float64  `json:"confidence"`
	Verdict              string   `json:"verdict"`
	SuggestedPositionPct float64  `json:"suggested_position_pct"`
	Disclaimer           string   `json:"disclaimer"`
}

// EquityPoint is one point on a backtest's equity curve.
type EquityPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// TradeRecord is one closed (or terminally-marked) trade from a backtest.
type TradeRecord struct {
	Timestamp int64      `json:"timestamp"`
	Side      SignalSide `json:"side"`
	Price     float64    `json:"price"`
	Quantity  float64    `json:"quantity"`
	PnL       float64    `json:"pnl"`
}

// BacktestResult is Metrics plus the capital-simulation outputs.
type BacktestResult struct {
	Metrics         Metrics       `json:"metrics"`
	InitialCapital  float64       `json:"initial_capital"`
	FinalValue      float64       `json:"final_value"`
	TotalReturnPct  float64       `json:"total_return_pct"`
	EquityCurve     []EquityPoint `json:"equity_curve"`
	TradeLog        []TradeRecord `json:"trade_log"`
}

// OutputType tags which CategoryPayload variant StrategyOutput carries.
type OutputType string

const (
	OutputTrend         OutputType = "trend"
	OutputMomentum      OutputType = "momentum"
	OutputMeanReversion OutputType = "mean_reversion"
	OutputVolatility    OutputType = "volatility"
	OutputML            OutputType = "ml"
	OutputStatistical   OutputType = "statistical"
	OutputGeneric       OutputType = "generic"
)

// StrategyOutput is a category-tagged summary of current market posture
// at the last bar, used for UI overlays.
type StrategyOutput struct {
	Type    OutputType  `json:"output_type"`
	Payload interface{} `json:"output"`
}

// TrendOutput summarizes a trend-category strategy's posture.
type TrendOutput struct {
	Direction   string  `json:"direction"` // BULLISH, BEARISH, NEUTRAL
	StrengthPct float64 `json:"strength_pct"`
	FastValue   float64 `json:"fast_value"`
	SlowValue   float64 `json:"slow_value"`
}

// MomentumOutput summarizes a momentum-category strategy's posture.
type MomentumOutput struct {
	Zone     string  `json:"zone"` // OVERSOLD, NEUTRAL, OVERBOUGHT
	RSIValue float64 `json:"rsi_value"`
}

// MeanReversionOutput summarizes a mean-reversion strategy's posture.
type MeanReversionOutput struct {
	DistanceFromMean float64 `json:"distance_from_mean"` // [-1,1]
	BandwidthPct     float64 `json:"bandwidth_pct"`
	Position         float64 `json:"position"` // [0,1]
}

// VolatilityOutput summarizes a volatility-category strategy's posture.
type VolatilityOutput struct {
	Regime        string  `json:"regime"` // LOW, NORMAL, HIGH
	CurrentATR    float64 `json:"current_atr"`
	MedianATR     float64 `json:"median_atr"`
	BreakoutProb  float64 `json:"breakout_prob"` // [0,1]
}

// MLOutput summarizes an ML-proxy strategy's posture.
type MLOutput struct {
	Prediction      string             `json:"prediction"` // LONG, SHORT, FLAT
	ConfidenceScore float64            `json:"confidence_score"`
	Features        map[string]float64 `json:"features"`
}

// StatisticalOutput summarizes a statistical-filter strategy's posture.
type StatisticalOutput struct {
	FilterState    string  `json:"filter_state"`
	EstimatedPrice float64 `json:"estimated_price"`
	Velocity       float64 `json:"velocity"`
	Gain           float64 `json:"gain"`
}

// GenericOutput is the fallback summary for strategies without a
// dedicated category payload.
type GenericOutput struct {
	NetDirection string `json:"net_direction"`
	TotalSignals int    `json:"total_signals"`
}

// Period is the history window requested from the provider.
type Period string

// Interval is the bar spacing requested from the provider.
type Interval string

// Quote is a live snapshot from the MarketDataProvider's quote endpoint.
type Quote struct {
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
	DayHigh       float64 `json:"day_high"`
	DayLow        float64 `json:"day_low"`
	Volume        float64 `json:"volume"`
	Timestamp     int64   `json:"timestamp"`
}

// MarketDataProvider is the external collaborator the engine consumes for
// historical bars and live quotes. It is expected to be safe for
// concurrent use; the engine does not serialize calls to it.
type MarketDataProvider interface {
	GetHistory(ctx context.Context, ticker string, period Period, interval Interval) ([]Bar, error)
	GetQuote(ctx context.Context, ticker string) (Quote, error)
}
