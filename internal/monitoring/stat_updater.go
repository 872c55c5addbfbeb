package monitoring

import (
	"fmt"
	"time"

	"github.com/isdelr/guildvault/internal/services"
	"github.com/isdelr/guildvault/internal/websocket"
	"github.com/rs/zerolog/log"
)

// Broadcaster delivers encoded messages to dashboard clients.
type Broadcaster interface {
	Publish(message []byte)
	BroadcastTo(guildID string, message []byte)
}

const (
	highCPUThreshold = 90.0
	alertCooldown    = 15 * time.Minute
)

// StatUpdater periodically pushes dashboard data to websocket clients.
type StatUpdater struct {
	dashboard    services.DashboardServiceProvider
	hub          Broadcaster
	eventSvc     services.EventServiceProvider
	interval     time.Duration
	done         chan struct{}
	lastCPUAlert time.Time
	now          func() time.Time
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(dashboard services.DashboardServiceProvider, hub Broadcaster, eventSvc services.EventServiceProvider, interval time.Duration) *StatUpdater {
	return &StatUpdater{
		dashboard: dashboard,
		hub:       hub,
		eventSvc:  eventSvc,
		interval:  interval,
		done:      make(chan struct{}),
		now:       time.Now,
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Dur("interval", su.interval).Msg("Starting background stat updater...")
	ticker := time.NewTicker(su.interval)
	defer ticker.Stop()

	// Run once immediately on start
	su.pushStats()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-ticker.C:
			su.pushStats()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	close(su.done)
}

// pushStats sends the overview to everyone and each guild's details to its followers.
func (su *StatUpdater) pushStats() {
	data := su.dashboard.GetBotData()
	if msg := websocket.NewMessage(websocket.ActionBotStats, data); msg != nil {
		su.hub.Publish(msg)
	}

	for _, server := range data.Servers {
		details, err := su.dashboard.GetServerDetails(server.ID)
		if err != nil {
			log.Warn().Err(err).Str("guild_id", server.ID).Msg("StatUpdater: Failed to build server details")
			continue
		}
		if msg := websocket.NewMessage(websocket.ActionServerDetails, details); msg != nil {
			su.hub.BroadcastTo(server.ID, msg)
		}
	}

	if data.Process != nil {
		su.checkAndAlertForHighCPU(data.Process.CPUPercent)
	}
}

func (su *StatUpdater) checkAndAlertForHighCPU(cpu float64) {
	if cpu <= highCPUThreshold {
		return
	}
	now := su.now()
	// If an alert was sent recently, do nothing.
	if !su.lastCPUAlert.IsZero() && now.Sub(su.lastCPUAlert) < alertCooldown {
		return
	}
	msg := fmt.Sprintf("High CPU usage (%.1f%%) detected in the bot process.", cpu)
	if err := su.eventSvc.CreateEvent("system.alert.cpu", "warn", msg, nil); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Failed to record CPU alert")
	}
	su.lastCPUAlert = now
}
