package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/isdelr/guildvault/internal/models"
	"github.com/isdelr/guildvault/internal/services"
	"github.com/isdelr/guildvault/internal/websocket"
)

type fakeEvents struct {
	mu     sync.Mutex
	events []models.Event
}

func (f *fakeEvents) CreateEvent(eventType, level, message string, guildID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, models.Event{Type: eventType, Level: level, Message: message, GuildID: guildID})
	return nil
}

func (f *fakeEvents) GetRecentEvents(int) ([]models.Event, error)           { return f.events, nil }
func (f *fakeEvents) GetEventsForGuild(string, int) ([]models.Event, error) { return f.events, nil }

type fakeSchedules struct {
	services.ScheduleServiceProvider
	active  []models.Schedule
	updated map[string][2]time.Time
}

func (f *fakeSchedules) GetAllActiveSchedules() ([]models.Schedule, error) { return f.active, nil }

func (f *fakeSchedules) UpdateScheduleRunTimes(id string, last, next time.Time) error {
	f.updated[id] = [2]time.Time{last, next}
	return nil
}

type fakeBackups struct {
	services.BackupServiceProvider
	mu      sync.Mutex
	created []string
	err     error
}

func (f *fakeBackups) CreateBackup(_ context.Context, guildID, label string) (models.BackupSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, guildID+"/"+label)
	return models.BackupSummary{Filename: label + "_x.json"}, f.err
}

func TestSchedulerRunsDueSchedules(t *testing.T) {
	c := qt.New(t)
	now := time.Date(2026, 10, 19, 4, 0, 30, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	schedules := &fakeSchedules{
		updated: map[string][2]time.Time{},
		active: []models.Schedule{
			{ID: "due", GuildID: "100", Label: "nightly", CronExpression: "0 4 * * *", NextRunAt: &past},
			{ID: "due-unlabelled", GuildID: "200", CronExpression: "0 4 * * *", NextRunAt: &past},
			{ID: "later", GuildID: "300", CronExpression: "0 5 * * *", NextRunAt: &future},
			{ID: "broken", GuildID: "400", CronExpression: "whenever", NextRunAt: &past},
		},
	}
	backups := &fakeBackups{}
	events := &fakeEvents{}
	s := NewScheduler(schedules, backups, events)
	s.now = func() time.Time { return now }

	s.checkAndRunSchedules()
	s.running.Wait()

	c.Assert(backups.created, qt.ContentEquals, []string{"100/nightly", "200/scheduled"})
	c.Assert(schedules.updated, qt.HasLen, 2)
	c.Assert(schedules.updated["due"][0], qt.Equals, now)
	c.Assert(schedules.updated["due"][1], qt.Equals, time.Date(2026, 10, 20, 4, 0, 0, 0, time.UTC))
	c.Assert(events.events, qt.HasLen, 2)
	c.Assert(events.events[0].Type, qt.Equals, "schedule.execute.success")
}

func TestSchedulerRecordsFailure(t *testing.T) {
	c := qt.New(t)
	now := time.Now()
	past := now.Add(-time.Minute)
	schedules := &fakeSchedules{
		updated: map[string][2]time.Time{},
		active:  []models.Schedule{{ID: "due", GuildID: "100", CronExpression: "* * * * *", NextRunAt: &past}},
	}
	events := &fakeEvents{}
	s := NewScheduler(schedules, &fakeBackups{err: services.ErrOperationInProgress}, events)

	s.checkAndRunSchedules()
	s.running.Wait()

	c.Assert(events.events, qt.HasLen, 1)
	c.Assert(events.events[0].Type, qt.Equals, "schedule.execute.fail")
	c.Assert(events.events[0].Level, qt.Equals, "error")
}

type fakeDashboard struct {
	data    models.BotData
	details map[string]models.ServerDetails
}

func (f *fakeDashboard) GetBotData() models.BotData { return f.data }

func (f *fakeDashboard) GetServerDetails(id string) (models.ServerDetails, error) {
	d, ok := f.details[id]
	if !ok {
		return models.ServerDetails{}, errors.New("gone")
	}
	return d, nil
}

type recordingHub struct {
	all   [][]byte
	guild map[string][][]byte
}

func (h *recordingHub) Publish(message []byte) { h.all = append(h.all, message) }

func (h *recordingHub) BroadcastTo(guildID string, message []byte) {
	h.guild[guildID] = append(h.guild[guildID], message)
}

func TestStatUpdaterPushStats(t *testing.T) {
	c := qt.New(t)
	dash := &fakeDashboard{
		data: models.BotData{
			BotOnline: true,
			Servers:   []models.ServerOverview{{ID: "100", Name: "Café"}, {ID: "200", Name: "Left"}},
			Process:   &models.ProcessStats{CPUPercent: 95},
		},
		details: map[string]models.ServerDetails{"100": {ID: "100", Name: "Café"}},
	}
	hub := &recordingHub{guild: map[string][][]byte{}}
	events := &fakeEvents{}
	su := NewStatUpdater(dash, hub, events, time.Second)

	su.pushStats()
	c.Assert(hub.all, qt.HasLen, 1)
	var msg websocket.Message
	c.Assert(json.Unmarshal(hub.all[0], &msg), qt.IsNil)
	c.Assert(msg.Action, qt.Equals, websocket.ActionBotStats)
	c.Assert(hub.guild["100"], qt.HasLen, 1)
	c.Assert(hub.guild["200"], qt.HasLen, 0)
	c.Assert(events.events, qt.HasLen, 1)
	c.Assert(events.events[0].Type, qt.Equals, "system.alert.cpu")

	// The alert is not repeated within the cooldown.
	su.pushStats()
	c.Assert(events.events, qt.HasLen, 1)
	su.now = func() time.Time { return time.Now().Add(alertCooldown + time.Minute) }
	su.pushStats()
	c.Assert(events.events, qt.HasLen, 2)
}
