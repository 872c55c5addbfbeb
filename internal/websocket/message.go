package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Actions sent to clients.
const (
	ActionBotStats      = "bot_stats"
	ActionServerDetails = "server_details"
	ActionError         = "error"
	ActionPong          = "pong"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewMessage encodes a message. Encoding failures are logged and yield nil.
func NewMessage(action string, payload interface{}) []byte {
	data, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket message")
		return nil
	}
	return data
}

// NewErrorMessage encodes an error message for a client.
func NewErrorMessage(msg string) []byte {
	return NewMessage(ActionError, map[string]string{"message": msg})
}
