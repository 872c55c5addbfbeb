package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/guildvault/internal/services"
)

// BackupHandler handles HTTP requests related to backups.
type BackupHandler struct {
	service services.BackupServiceProvider
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(service services.BackupServiceProvider) *BackupHandler {
	return &BackupHandler{service: service}
}

// CreateBackupPayload is the optional JSON body for creating a backup.
type CreateBackupPayload struct {
	Label string `json:"label"`
}

// GetAllForServer handles the request to list the backups of a guild.
func (h *BackupHandler) GetAllForServer(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "id")
	backups, err := h.service.ListBackups(guildID)
	if err != nil {
		writeError(w, err, "Failed to retrieve backups")
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

// Create handles the request to back up a guild now.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "id")
	var payload CreateBackupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.service.CreateBackup(r.Context(), guildID, payload.Label)
	if err != nil {
		writeError(w, err, "Failed to create backup")
		return
	}
	log.Info().Str("guild_id", guildID).Str("filename", summary.Filename).Msg("Backup created from dashboard")
	writeJSON(w, http.StatusCreated, summary)
}

// Restore handles the request to restore a backup into its guild.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "id")
	filename := filenameParam(r)

	report, err := h.service.RestoreBackup(r.Context(), guildID, filename)
	if err != nil {
		writeError(w, err, "Failed to restore backup")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Delete handles the request to delete one backup.
func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "id")
	filename := filenameParam(r)
	if err := h.service.DeleteBackup(guildID, filename); err != nil {
		writeError(w, err, "Failed to delete backup")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll handles the request to delete every backup of a guild.
func (h *BackupHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "id")
	deleted, err := h.service.DeleteAllBackups(guildID)
	if err != nil {
		writeError(w, err, "Failed to delete backups")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// filenameParam returns the decoded filename path parameter. chi routes on
// RawPath when it is set and then yields the escaped form.
func filenameParam(r *http.Request) string {
	raw := chi.URLParam(r, "filename")
	if r.URL.RawPath == "" {
		return raw
	}
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
