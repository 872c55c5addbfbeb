package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/guildvault/internal/models"
	"github.com/isdelr/guildvault/internal/services"
	"github.com/rs/zerolog/log"
)

const (
	scheduledLabel = "scheduled"
	backupTimeout  = 5 * time.Minute
)

// Scheduler checks for and executes scheduled backups.
type Scheduler struct {
	scheduleSvc services.ScheduleServiceProvider
	backupSvc   services.BackupServiceProvider
	eventSvc    services.EventServiceProvider
	interval    time.Duration
	done        chan struct{}
	running     sync.WaitGroup
	now         func() time.Time
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(scheduleSvc services.ScheduleServiceProvider, backupSvc services.BackupServiceProvider, eventSvc services.EventServiceProvider) *Scheduler {
	return &Scheduler{
		scheduleSvc: scheduleSvc,
		backupSvc:   backupSvc,
		eventSvc:    eventSvc,
		interval:    time.Minute,
		done:        make(chan struct{}),
		now:         time.Now,
	}
}

// Run starts the scheduler's ticking loop.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting background scheduler...")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run once immediately on start
	s.checkAndRunSchedules()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping background scheduler.")
			return
		case <-ticker.C:
			s.checkAndRunSchedules()
		}
	}
}

// Stop halts the scheduler and waits for backups it started.
func (s *Scheduler) Stop() {
	close(s.done)
	s.running.Wait()
}

// checkAndRunSchedules queries for due schedules and starts their backups.
func (s *Scheduler) checkAndRunSchedules() {
	schedules, err := s.scheduleSvc.GetAllActiveSchedules()
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to retrieve active schedules")
		return
	}

	now := s.now()
	for _, schedule := range schedules {
		cronSchedule, err := services.ParseCron(schedule.CronExpression)
		if err != nil {
			log.Warn().Err(err).Str("schedule_id", schedule.ID).Msg("Scheduler: Invalid cron expression")
			continue
		}

		// If NextRunAt is in the past, it's time to run
		if schedule.NextRunAt == nil || !now.After(*schedule.NextRunAt) {
			continue
		}

		s.running.Add(1)
		go func(schedule models.Schedule) {
			defer s.running.Done()
			s.executeTask(schedule)
		}(schedule)

		if err := s.scheduleSvc.UpdateScheduleRunTimes(schedule.ID, now, cronSchedule.Next(now)); err != nil {
			log.Error().Err(err).Str("schedule_id", schedule.ID).Msg("Scheduler: Failed to update run times")
		}
	}
}

// executeTask creates the backup of a due schedule.
func (s *Scheduler) executeTask(schedule models.Schedule) {
	label := schedule.Label
	if label == "" {
		label = scheduledLabel
	}
	log.Info().Str("schedule_id", schedule.ID).Str("guild_id", schedule.GuildID).Msg("Scheduler: Creating scheduled backup")

	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	summary, err := s.backupSvc.CreateBackup(ctx, schedule.GuildID, label)
	if err != nil {
		log.Error().Err(err).Str("schedule_id", schedule.ID).Msg("Scheduler: Scheduled backup failed")
		msg := fmt.Sprintf("Scheduled backup '%s' failed: %v", schedule.CronExpression, err)
		s.eventSvc.CreateEvent("schedule.execute.fail", "error", msg, &schedule.GuildID)
		return
	}
	msg := fmt.Sprintf("Scheduled backup '%s' written to %s.", schedule.CronExpression, summary.Filename)
	s.eventSvc.CreateEvent("schedule.execute.success", "info", msg, &schedule.GuildID)
}
