package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/atlas-desktop/quant-engine/internal/quant/liveprice"
)

// upgrader is grounded on the teacher's api.Server upgrader
// (permissive CheckOrigin for a backend meant to sit behind its own
// gateway/CORS layer).
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleLiveWS upgrades the connection and runs one liveprice.Session
// for the duration of the connection, narrowed from the teacher's
// Hub/Client broadcast model since a fan-out session has no state to
// share across connections.
func (s *Server) handleLiveWS(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("ticker", ticker), zap.Error(err))
		return
	}
	defer conn.Close()

	liveSessionsActive.Inc()
	defer liveSessionsActive.Dec()

	session := liveprice.NewSession(ticker, conn, s.provider, s.logger, s.cfg.LiveFanOutCadence, s.cfg.ProviderTimeout)
	session.Run(r.Context())
}
