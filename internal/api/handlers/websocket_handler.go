package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/guildvault/internal/services"
	ws "github.com/isdelr/guildvault/internal/websocket"
)

// WebSocketHandler upgrades HTTP connections to live dashboard streams.
type WebSocketHandler struct {
	hub       *ws.Hub
	dashboard services.DashboardServiceProvider
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler accepting connections
// from allowedOrigins. An empty list accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, dashboard services.DashboardServiceProvider, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{hub: hub, dashboard: dashboard}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return "http://"+r.Host == origin || "https://"+r.Host == origin
	}
}

// Serve handles the WebSocket connection request. The optional guild query
// parameter subscribes the client to that guild's details.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	guildID := r.URL.Query().Get("guild")
	client := ws.NewClient(h.hub, conn, guildID)

	// Queue the current state before registering so the client has data
	// before the next stats tick.
	client.Send <- ws.NewMessage(ws.ActionBotStats, h.dashboard.GetBotData())
	if guildID != "" {
		if details, err := h.dashboard.GetServerDetails(guildID); err == nil {
			client.Send <- ws.NewMessage(ws.ActionServerDetails, details)
		}
	}
	h.hub.Join(client)

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleIncomingWSMessage)
		h.hub.Leave(client)
	}()
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		return
	}

	var reply []byte
	switch msg.Action {
	case "ping":
		reply = ws.NewMessage(ws.ActionPong, nil)
	case "refresh":
		reply = ws.NewMessage(ws.ActionBotStats, h.dashboard.GetBotData())
	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		reply = ws.NewErrorMessage("Unknown action: " + msg.Action)
	}
	h.hub.Reply(client, reply)
}
