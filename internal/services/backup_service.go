package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/isdelr/guildvault/internal/directory"
	"github.com/isdelr/guildvault/internal/models"
	"github.com/isdelr/guildvault/internal/storage"
	"github.com/rs/zerolog/log"
)

// DirectoryFactory returns the directory of one guild.
type DirectoryFactory func(guildID string) directory.Directory

// BackupServiceProvider defines the interface for backup services.
type BackupServiceProvider interface {
	CreateBackup(ctx context.Context, guildID, label string) (models.BackupSummary, error)
	ListBackups(guildID string) ([]models.BackupFile, error)
	LoadBackup(guildID, filename string) (models.BackupRecord, error)
	RestoreBackup(ctx context.Context, guildID, filename string) (models.RestoreReport, error)
	DeleteBackup(guildID, filename string) error
	DeleteAllBackups(guildID string) (int, error)
	CountBackups(guildID string) int
}

// BackupService provides business logic for backup management.
type BackupService struct {
	store        *storage.FileStore
	directories  DirectoryFactory
	eventService EventServiceProvider
	snapshots    *SnapshotBuilder
	reconciler   *Reconciler

	mu      sync.Mutex
	running map[string]bool
}

// NewBackupService creates a new BackupService.
func NewBackupService(store *storage.FileStore, directories DirectoryFactory, eventService EventServiceProvider) *BackupService {
	return &BackupService{
		store:        store,
		directories:  directories,
		eventService: eventService,
		snapshots:    NewSnapshotBuilder(),
		reconciler:   NewReconciler(NameKey{}),
		running:      make(map[string]bool),
	}
}

// CreateBackup snapshots the guild and writes the record to the store.
func (s *BackupService) CreateBackup(ctx context.Context, guildID, label string) (models.BackupSummary, error) {
	if err := s.acquire(guildID); err != nil {
		return models.BackupSummary{}, err
	}
	defer s.release(guildID)

	record, err := s.snapshots.Build(ctx, s.directories(guildID))
	if err != nil {
		return models.BackupSummary{}, fmt.Errorf("snapshot guild %s: %w", guildID, err)
	}
	data, err := encodeRecord(record)
	if err != nil {
		return models.BackupSummary{}, err
	}

	filename := storage.Filename(label, record.ServerInfo.Name, record.ServerInfo.BackupDate.Time)
	if err := s.store.Write(guildID, filename, data); err != nil {
		return models.BackupSummary{}, storeError(err)
	}

	summary := models.BackupSummary{
		Filename:   filename,
		GuildID:    guildID,
		GuildName:  record.ServerInfo.Name,
		Size:       int64(len(data)),
		Categories: len(record.Categories),
		Channels:   len(record.Channels),
		Roles:      len(record.Roles),
		Emojis:     len(record.Emojis),
	}
	log.Info().Str("guild_id", guildID).Str("filename", filename).Int64("size", summary.Size).Msg("Backup created")
	s.recordEvent("backup.create", "info", fmt.Sprintf("Backup '%s' created.", filename), guildID)
	return summary, nil
}

// ListBackups returns the guild's backups, most recent name first.
func (s *BackupService) ListBackups(guildID string) ([]models.BackupFile, error) {
	files, err := s.store.List(guildID)
	if err != nil {
		return nil, storeError(err)
	}
	return files, nil
}

// CountBackups returns the number of stored backups of a guild.
func (s *BackupService) CountBackups(guildID string) int {
	return s.store.Count(guildID)
}

// LoadBackup reads and decodes one backup file.
func (s *BackupService) LoadBackup(guildID, filename string) (models.BackupRecord, error) {
	data, err := s.store.Read(guildID, filename)
	if err != nil {
		return models.BackupRecord{}, storeError(err)
	}
	var record models.BackupRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return models.BackupRecord{}, fmt.Errorf("decode backup %s: %w", filename, err)
	}
	return record, nil
}

// RestoreBackup recreates the missing parts of a backup in the guild.
// Once the backup has been loaded the restore runs to the end even if ctx is
// cancelled.
func (s *BackupService) RestoreBackup(ctx context.Context, guildID, filename string) (models.RestoreReport, error) {
	if err := s.acquire(guildID); err != nil {
		return models.RestoreReport{}, err
	}
	defer s.release(guildID)

	record, err := s.LoadBackup(guildID, filename)
	if err != nil {
		return models.RestoreReport{}, err
	}

	report, err := s.reconciler.Restore(context.WithoutCancel(ctx), s.directories(guildID), record)
	if err != nil {
		s.recordEvent("backup.restore", "error", fmt.Sprintf("Restore of '%s' failed: %v", filename, err), guildID)
		return models.RestoreReport{}, fmt.Errorf("restore %s: %w", filename, err)
	}

	level := "info"
	if len(report.Errors) > 0 {
		level = "warn"
	}
	msg := fmt.Sprintf("Restored '%s': %d roles, %d categories, %d channels created, %d errors.",
		filename, report.Restored.Roles, report.Restored.Categories, report.Restored.Channels, len(report.Errors))
	log.Info().
		Str("guild_id", guildID).
		Str("filename", filename).
		Int("roles", report.Restored.Roles).
		Int("categories", report.Restored.Categories).
		Int("channels", report.Restored.Channels).
		Int("errors", len(report.Errors)).
		Msg("Backup restored")
	s.recordEvent("backup.restore", level, msg, guildID)
	return report, nil
}

// DeleteBackup removes one backup file.
func (s *BackupService) DeleteBackup(guildID, filename string) error {
	if err := s.acquire(guildID); err != nil {
		return err
	}
	defer s.release(guildID)

	if err := s.store.Delete(guildID, filename); err != nil {
		return storeError(err)
	}
	s.recordEvent("backup.delete", "warn", fmt.Sprintf("Backup '%s' was deleted.", filename), guildID)
	return nil
}

// DeleteAllBackups removes every backup of a guild and returns how many were removed.
func (s *BackupService) DeleteAllBackups(guildID string) (int, error) {
	if err := s.acquire(guildID); err != nil {
		return 0, err
	}
	defer s.release(guildID)

	deleted, err := s.store.DeleteAll(guildID)
	if deleted > 0 {
		s.recordEvent("backup.purge", "warn", fmt.Sprintf("%d backups were deleted.", deleted), guildID)
	}
	if err != nil {
		return deleted, storeError(err)
	}
	return deleted, nil
}

func (s *BackupService) acquire(guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[guildID] {
		return ErrOperationInProgress
	}
	s.running[guildID] = true
	return nil
}

func (s *BackupService) release(guildID string) {
	s.mu.Lock()
	delete(s.running, guildID)
	s.mu.Unlock()
}

func (s *BackupService) recordEvent(eventType, level, message, guildID string) {
	if err := s.eventService.CreateEvent(eventType, level, message, &guildID); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}

// encodeRecord renders a record with a 2-space indent, leaving non-ASCII and
// HTML characters as they are.
func encodeRecord(record models.BackupRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return buf.Bytes(), nil
}

// storeError maps storage errors to the service's sentinel errors.
func storeError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, storage.ErrInvalidName):
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	default:
		return err
	}
}
