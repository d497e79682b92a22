package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/chorequest/internal/auth"
)

// HandleWebSocket returns an HTTP handler that upgrades an authenticated
// request to a WebSocket and runs it as a client of the request's session.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := auth.Session(r.Context())
		if session == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		logger.Debug("websocket connected", "session_id", session.ID())
		client := NewClient(hub, conn, session)
		client.Run(r.Context())
		logger.Debug("websocket disconnected", "session_id", session.ID())
	}
}
