package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/guildvault/internal/services"
)

// ServerHandler serves the read-only dashboard data of the bot's guilds.
type ServerHandler struct {
	service services.DashboardServiceProvider
}

// NewServerHandler creates a new ServerHandler.
func NewServerHandler(service services.DashboardServiceProvider) *ServerHandler {
	return &ServerHandler{service: service}
}

// GetBotStats handles the request for the dashboard overview.
func (h *ServerHandler) GetBotStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.GetBotData())
}

// Get handles the request for the details of one guild.
func (h *ServerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	details, err := h.service.GetServerDetails(id)
	if err != nil {
		writeError(w, err, "Failed to retrieve server")
		return
	}
	writeJSON(w, http.StatusOK, details)
}
