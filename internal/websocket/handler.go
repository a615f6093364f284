package websocket

import (
	"encoding/json"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/berrybridge/internal/claims"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients. Connections are tagged with the caller's user ID,
// so only callers whose token signature was checked may subscribe.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := claims.FromContext(r.Context())
		if !ok || !user.Verified || user.ID == "" {
			hub.logger.Warn("refusing live feed for unverified caller", "user_id", user.ID)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "live feed requires a verified token"})
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // native mobile clients send no Origin
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, user.ID)
		client.Run(r.Context())
	}
}
