package models

import "time"

// Event represents a loggable action taken by the bot or an operator.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "backup.create", "backup.restore"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	GuildID   *string   `json:"guildId,omitempty"` // Nullable for bot-wide events
	CreatedAt time.Time `json:"createdAt"`
}
