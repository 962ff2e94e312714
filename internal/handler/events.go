package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"phototriage/internal/logger"
	hub "phototriage/internal/service/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket. With no CheckOrigin set,
// browsers are only accepted from the server's own origin.
var Upgrader = websocket.Upgrader{}

// EventsWebsocketHandler streams attempt results to a viewer until it disconnects.
func EventsWebsocketHandler(h *hub.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		h.Register(connection)
		defer h.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected: %v", err)
				}
				return
			}
		}
	}
}
