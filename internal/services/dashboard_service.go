package services

import (
	"fmt"
	"time"

	"github.com/isdelr/guildvault/internal/models"
	"github.com/rs/zerolog/log"
)

// BotStatus is the live view of the connected bot.
type BotStatus interface {
	Ready() bool
	StartedAt() time.Time
	Guilds() []models.GuildSummary
	Guild(guildID string) (models.GuildSummary, bool)
}

// ProcessSampler reports resource usage of the running process.
type ProcessSampler func() (*models.ProcessStats, error)

// DashboardServiceProvider defines the interface for the dashboard service.
type DashboardServiceProvider interface {
	GetBotData() models.BotData
	GetServerDetails(guildID string) (models.ServerDetails, error)
}

// DashboardService assembles the read-only dashboard views.
type DashboardService struct {
	bot     BotStatus
	backups BackupServiceProvider
	sampler ProcessSampler
	now     func() time.Time
}

// NewDashboardService creates a new DashboardService. sampler may be nil.
func NewDashboardService(bot BotStatus, backups BackupServiceProvider, sampler ProcessSampler) *DashboardService {
	return &DashboardService{bot: bot, backups: backups, sampler: sampler, now: time.Now}
}

const unknownOwner = "Unknown"

// GetBotData returns the overview of every guild the bot is in.
func (s *DashboardService) GetBotData() models.BotData {
	if !s.bot.Ready() {
		return models.BotData{
			BotOnline: false,
			Servers:   []models.ServerOverview{},
			Uptime:    "0 seconds",
		}
	}

	data := models.BotData{
		BotOnline: true,
		Servers:   []models.ServerOverview{},
		Uptime:    FormatUptime(s.now().Sub(s.bot.StartedAt())),
	}
	for _, g := range s.bot.Guilds() {
		backups := s.backups.CountBackups(g.ID)
		data.Servers = append(data.Servers, models.ServerOverview{
			ID:           g.ID,
			Name:         g.Name,
			Description:  g.Description,
			MemberCount:  g.MemberCount,
			ChannelCount: g.ChannelCount,
			OwnerName:    ownerName(g),
			BackupCount:  backups,
			IconURL:      optional(g.IconURL),
		})
		data.TotalMembers += g.MemberCount
		data.TotalChannels += g.ChannelCount
		data.TotalBackups += backups
	}
	data.TotalServers = len(data.Servers)

	if s.sampler != nil {
		stats, err := s.sampler()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to sample process stats")
		} else {
			data.Process = stats
		}
	}
	return data
}

// GetServerDetails returns the detailed view of one guild.
func (s *DashboardService) GetServerDetails(guildID string) (models.ServerDetails, error) {
	g, ok := s.bot.Guild(guildID)
	if !ok {
		return models.ServerDetails{}, fmt.Errorf("%w: server %s", ErrNotFound, guildID)
	}
	backups, err := s.backups.ListBackups(guildID)
	if err != nil {
		return models.ServerDetails{}, err
	}
	return models.ServerDetails{
		ID:                g.ID,
		Name:              g.Name,
		Description:       g.Description,
		MemberCount:       g.MemberCount,
		ChannelCount:      g.ChannelCount,
		RoleCount:         g.RoleCount,
		EmojiCount:        g.EmojiCount,
		Owner:             models.OwnerInfo{ID: g.OwnerID, Name: ownerName(g)},
		VerificationLevel: g.VerificationLevel,
		Backups:           backups,
	}, nil
}

// FormatUptime renders d as "1d 2h 3m 4s", leaving out leading zero units.
func FormatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func ownerName(g models.GuildSummary) string {
	if g.OwnerName == "" {
		return unknownOwner
	}
	return g.OwnerName
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
