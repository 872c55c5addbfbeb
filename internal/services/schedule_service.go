package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/guildvault/internal/models"
	"github.com/robfig/cron/v3"
)

// ScheduleServiceProvider defines the interface for schedule services.
type ScheduleServiceProvider interface {
	CreateSchedule(schedule models.Schedule) (models.Schedule, error)
	GetSchedulesForGuild(guildID string) ([]models.Schedule, error)
	GetScheduleByID(scheduleID string) (models.Schedule, error)
	GetAllActiveSchedules() ([]models.Schedule, error)
	UpdateSchedule(scheduleID string, schedule models.Schedule) (models.Schedule, error)
	DeleteSchedule(scheduleID string) error
	UpdateScheduleRunTimes(scheduleID string, lastRun time.Time, nextRun time.Time) error
}

// ScheduleService provides business logic for schedule management.
type ScheduleService struct {
	db           *sql.DB
	eventService EventServiceProvider
	now          func() time.Time
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(db *sql.DB, eventService EventServiceProvider) *ScheduleService {
	return &ScheduleService{
		db:           db,
		eventService: eventService,
		now:          time.Now,
	}
}

const scheduleColumns = "id, guild_id, label, cron_expression, is_active, last_run_at, next_run_at, created_at"

// ParseCron validates a standard 5-field cron expression.
func ParseCron(expr string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid cron expression %q: %v", ErrBadRequest, expr, err)
	}
	return schedule, nil
}

// CreateSchedule creates a new schedule and saves it to the database.
func (s *ScheduleService) CreateSchedule(schedule models.Schedule) (models.Schedule, error) {
	if schedule.GuildID == "" {
		return models.Schedule{}, fmt.Errorf("%w: guild id is required", ErrBadRequest)
	}
	cronSchedule, err := ParseCron(schedule.CronExpression)
	if err != nil {
		return models.Schedule{}, err
	}

	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	nextRun := cronSchedule.Next(s.now())
	schedule.NextRunAt = &nextRun

	_, err = s.db.Exec(`
		INSERT INTO schedules (id, guild_id, label, cron_expression, is_active, next_run_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		schedule.ID, schedule.GuildID, schedule.Label, schedule.CronExpression, schedule.IsActive, schedule.NextRunAt)
	if err != nil {
		return models.Schedule{}, fmt.Errorf("insert schedule: %w", err)
	}

	s.eventService.CreateEvent("schedule.create", "info", fmt.Sprintf("Backup schedule '%s' created.", schedule.CronExpression), &schedule.GuildID)
	return s.GetScheduleByID(schedule.ID)
}

// GetSchedulesForGuild retrieves all schedules of a guild.
func (s *ScheduleService) GetSchedulesForGuild(guildID string) ([]models.Schedule, error) {
	rows, err := s.db.Query("SELECT "+scheduleColumns+" FROM schedules WHERE guild_id = ? ORDER BY created_at DESC, rowid DESC", guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanSchedules(rows)
}

// GetScheduleByID retrieves a single schedule by its ID.
func (s *ScheduleService) GetScheduleByID(scheduleID string) (models.Schedule, error) {
	row := s.db.QueryRow("SELECT "+scheduleColumns+" FROM schedules WHERE id = ?", scheduleID)
	return s.scanSchedule(row)
}

// GetAllActiveSchedules retrieves all active schedules from the database.
func (s *ScheduleService) GetAllActiveSchedules() ([]models.Schedule, error) {
	rows, err := s.db.Query("SELECT " + scheduleColumns + " FROM schedules WHERE is_active = TRUE")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanSchedules(rows)
}

// UpdateSchedule updates the label, expression and active flag of a schedule.
func (s *ScheduleService) UpdateSchedule(scheduleID string, schedule models.Schedule) (models.Schedule, error) {
	cronSchedule, err := ParseCron(schedule.CronExpression)
	if err != nil {
		return models.Schedule{}, err
	}

	existing, err := s.GetScheduleByID(scheduleID)
	if err != nil {
		return models.Schedule{}, err
	}

	nextRun := cronSchedule.Next(s.now())
	_, err = s.db.Exec(`
		UPDATE schedules
		SET label = ?, cron_expression = ?, is_active = ?, next_run_at = ?
		WHERE id = ?`,
		schedule.Label, schedule.CronExpression, schedule.IsActive, nextRun, scheduleID)
	if err != nil {
		return models.Schedule{}, fmt.Errorf("update schedule: %w", err)
	}

	s.eventService.CreateEvent("schedule.update", "info", fmt.Sprintf("Backup schedule '%s' updated.", schedule.CronExpression), &existing.GuildID)
	return s.GetScheduleByID(scheduleID)
}

// DeleteSchedule removes a schedule from the database.
func (s *ScheduleService) DeleteSchedule(scheduleID string) error {
	schedule, err := s.GetScheduleByID(scheduleID)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec("DELETE FROM schedules WHERE id = ?", scheduleID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	s.eventService.CreateEvent("schedule.delete", "warn", fmt.Sprintf("Backup schedule '%s' was deleted.", schedule.CronExpression), &schedule.GuildID)
	return nil
}

// UpdateScheduleRunTimes updates the last and next run times for a schedule after it executes.
func (s *ScheduleService) UpdateScheduleRunTimes(scheduleID string, lastRun time.Time, nextRun time.Time) error {
	_, err := s.db.Exec("UPDATE schedules SET last_run_at = ?, next_run_at = ? WHERE id = ?", lastRun, nextRun, scheduleID)
	return err
}

func (s *ScheduleService) scanSchedules(rows *sql.Rows) ([]models.Schedule, error) {
	schedules := []models.Schedule{}
	for rows.Next() {
		schedule, err := s.scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

func (s *ScheduleService) scanSchedule(scanner interface{ Scan(...any) error }) (models.Schedule, error) {
	var schedule models.Schedule
	err := scanner.Scan(
		&schedule.ID,
		&schedule.GuildID,
		&schedule.Label,
		&schedule.CronExpression,
		&schedule.IsActive,
		&schedule.LastRunAt,
		&schedule.NextRunAt,
		&schedule.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Schedule{}, fmt.Errorf("%w: schedule", ErrNotFound)
		}
		return models.Schedule{}, err
	}
	return schedule, nil
}
