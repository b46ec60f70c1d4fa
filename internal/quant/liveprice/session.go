// Package liveprice implements the per-ticker duplex price fan-out:
// one goroutine per connected session pushes bounded-cadence price
// snapshots to the client and honors inbound pings and close.
//
// Grounded on the teacher's api.Hub/Client WebSocket pattern
// (internal/api/websocket.go), narrowed from a broadcast hub with a
// shared client table to one independent goroutine-per-session duplex
// loop: live-fan-out sessions have no cross-session state to
// synchronize, unlike the teacher's order/trade broadcast channels.
package liveprice

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atlas-desktop/quant-engine/internal/quant/engine"
)

// Conn is the minimal duplex-socket surface a Session needs; satisfied
// by *websocket.Conn.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// PriceUpdate is the wire record pushed at each tick.
type PriceUpdate struct {
	Type string `json:"type"`
	Data *struct {
		Price     float64 `json:"price"`
		Change    float64 `json:"change"`
		ChangePct float64 `json:"change_pct"`
		Volume    float64 `json:"volume"`
		High      float64 `json:"high"`
		Low       float64 `json:"low"`
		Timestamp int64   `json:"timestamp"`
	} `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type inboundMessage struct {
	Type string `json:"type"`
}

// Session runs one ticker's duplex fan-out until the client disconnects
// or ctx is canceled.
type Session struct {
	id              uuid.UUID
	ticker          string
	conn            Conn
	provider        engine.MarketDataProvider
	log             *zap.Logger
	limiter         *rate.Limiter
	cadence         time.Duration
	providerTimeout time.Duration
}

// NewSession constructs a Session for one connected client, tagged with
// a fresh session ID for log correlation across the session's lifetime.
// cadence is the configured target send interval (spec.md §4.7: "bounded
// cadence (target <= 1s)"); providerTimeout bounds each GetQuote call
// (spec.md §5).
func NewSession(ticker string, conn Conn, provider engine.MarketDataProvider, log *zap.Logger, cadence, providerTimeout time.Duration) *Session {
	return &Session{
		id:              uuid.New(),
		ticker:          ticker,
		conn:            conn,
		provider:        provider,
		log:             log,
		limiter:         rate.NewLimiter(rate.Every(cadence), 1),
		cadence:         cadence,
		providerTimeout: providerTimeout,
	}
}

// Run drives the session's read and write loops until either ends.
// It blocks until the session terminates.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := s.log.With(zap.String("session_id", s.id.String()), zap.String("ticker", s.ticker))
	log.Info("live price session started")
	defer log.Info("live price session ended")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.readLoop(cancel)
	}()

	s.writeLoop(ctx)
	<-done
}

// readLoop drains inbound frames (pings are acknowledged implicitly by
// not closing; anything else is ignored) until the connection errors
// or closes, at which point it cancels the write loop.
func (s *Session) readLoop(cancel context.CancelFunc) {
	defer cancel()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		// "ping" and any other inbound type are both no-ops: the session
		// does not require pings and does not close on client inactivity.
	}
}

// writeLoop pushes one price update per tick at the session's bounded
// cadence until ctx is canceled or a send fails.
func (s *Session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			if !s.tick(ctx) {
				return
			}
		}
	}
}

// tick fetches one quote and writes one frame, reporting whether the
// session should continue. The provider call is bounded by
// providerTimeout (spec.md §5); the write itself is bounded by a
// deadline of more than one tick's cadence, so a stalled send (the
// client not draining its socket) terminates the session rather than
// blocking the write loop indefinitely (spec.md §5).
func (s *Session) tick(ctx context.Context) bool {
	fetchCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	quote, err := s.provider.GetQuote(fetchCtx, s.ticker)
	cancel()

	var payload PriceUpdate
	if err != nil {
		payload = PriceUpdate{Type: "price_update", Error: err.Error()}
	} else {
		change := quote.Price - quote.PreviousClose
		changePct := 0.0
		if quote.PreviousClose != 0 {
			changePct = change / quote.PreviousClose * 100
		}
		payload = PriceUpdate{Type: "price_update"}
		payload.Data = &struct {
			Price     float64 `json:"price"`
			Change    float64 `json:"change"`
			ChangePct float64 `json:"change_pct"`
			Volume    float64 `json:"volume"`
			High      float64 `json:"high"`
			Low       float64 `json:"low"`
			Timestamp int64   `json:"timestamp"`
		}{
			Price: quote.Price, Change: change, ChangePct: changePct,
			Volume: quote.Volume, High: quote.DayHigh, Low: quote.DayLow,
			Timestamp: quote.Timestamp,
		}
	}

	body, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		s.log.Error("failed to marshal price update", zap.Error(marshalErr))
		return true
	}
	if deadlineErr := s.conn.SetWriteDeadline(time.Now().Add(2 * s.cadence)); deadlineErr != nil {
		return false
	}
	if writeErr := s.conn.WriteMessage(websocket.TextMessage, body); writeErr != nil {
		return false
	}
	return true
}
