package services

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/isdelr/guildvault/internal/models"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(eventType, level, message string, guildID *string) error
	GetRecentEvents(limit int) ([]models.Event, error)
	GetEventsForGuild(guildID string, limit int) ([]models.Event, error)
}

// EventService provides business logic for event management.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(eventType, level, message string, guildID *string) error {
	event := models.Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		Level:   level,
		Message: message,
		GuildID: guildID,
	}

	_, err := s.db.Exec("INSERT INTO events (id, type, level, message, guild_id) VALUES (?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.GuildID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events from the database.
func (s *EventService) GetRecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query(`
		SELECT id, type, level, message, guild_id, created_at
		FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetEventsForGuild retrieves the most recent events of one guild.
func (s *EventService) GetEventsForGuild(guildID string, limit int) ([]models.Event, error) {
	rows, err := s.db.Query(`
		SELECT id, type, level, message, guild_id, created_at
		FROM events WHERE guild_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		var guildID sql.NullString
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &guildID, &event.CreatedAt); err != nil {
			return nil, err
		}
		if guildID.Valid {
			event.GuildID = &guildID.String
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
