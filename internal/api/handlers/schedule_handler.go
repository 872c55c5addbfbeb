package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/guildvault/internal/models"
	"github.com/isdelr/guildvault/internal/services"
)

// ScheduleHandler handles HTTP requests related to backup schedules.
type ScheduleHandler struct {
	service services.ScheduleServiceProvider
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(service services.ScheduleServiceProvider) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// GetAllForServer handles the request to get all schedules of a guild.
func (h *ScheduleHandler) GetAllForServer(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "id")
	schedules, err := h.service.GetSchedulesForGuild(guildID)
	if err != nil {
		writeError(w, err, "Failed to retrieve schedules")
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

// Create handles the request to create a new schedule.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "id")
	var schedule models.Schedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	schedule.ID = ""
	schedule.GuildID = guildID

	newSchedule, err := h.service.CreateSchedule(schedule)
	if err != nil {
		writeError(w, err, "Failed to create schedule")
		return
	}
	writeJSON(w, http.StatusCreated, newSchedule)
}

// Update handles the request to update an existing schedule.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	scheduleID, ok := h.ownedSchedule(w, r)
	if !ok {
		return
	}
	var schedule models.Schedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updatedSchedule, err := h.service.UpdateSchedule(scheduleID, schedule)
	if err != nil {
		writeError(w, err, "Failed to update schedule")
		return
	}
	writeJSON(w, http.StatusOK, updatedSchedule)
}

// Delete handles the request to delete a schedule.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scheduleID, ok := h.ownedSchedule(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSchedule(scheduleID); err != nil {
		writeError(w, err, "Failed to delete schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedSchedule resolves the schedule id of the request and checks that it
// belongs to the guild in the URL.
func (h *ScheduleHandler) ownedSchedule(w http.ResponseWriter, r *http.Request) (string, bool) {
	guildID := chi.URLParam(r, "id")
	scheduleID := chi.URLParam(r, "scheduleId")
	existing, err := h.service.GetScheduleByID(scheduleID)
	if err == nil && existing.GuildID != guildID {
		err = fmt.Errorf("%w: schedule %s", services.ErrNotFound, scheduleID)
	}
	if err != nil {
		writeError(w, err, "Failed to find schedule")
		return "", false
	}
	return scheduleID, true
}
