package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/guildvault/internal/models"
	"github.com/isdelr/guildvault/internal/services"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 200
)

// EventHandler handles HTTP requests related to recorded events.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent handles the request to get recent events, optionally of one guild.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := strconv.Atoi(query.Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultEventLimit
	}
	limit = min(limit, maxEventLimit)

	var events []models.Event
	if guildID := query.Get("guild"); guildID != "" {
		events, err = h.service.GetEventsForGuild(guildID, limit)
	} else {
		events, err = h.service.GetRecentEvents(limit)
	}
	if err != nil {
		writeError(w, err, "Failed to retrieve events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
