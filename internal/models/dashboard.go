package models

import "time"

// GuildSummary is the live state of a guild as seen by the connected bot.
type GuildSummary struct {
	ID                string
	Name              string
	Description       string
	MemberCount       int
	ChannelCount      int
	RoleCount         int
	EmojiCount        int
	OwnerID           string
	OwnerName         string
	IconURL           string
	VerificationLevel string
}

// BotData is the payload of the dashboard overview.
type BotData struct {
	BotOnline     bool             `json:"bot_online"`
	Servers       []ServerOverview `json:"servers"`
	TotalServers  int              `json:"total_servers"`
	TotalMembers  int              `json:"total_members"`
	TotalChannels int              `json:"total_channels"`
	TotalBackups  int              `json:"total_backups"`
	Uptime        string           `json:"uptime"`
	Process       *ProcessStats    `json:"process,omitempty"`
}

// ServerOverview is one guild row of the dashboard overview.
type ServerOverview struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	MemberCount  int     `json:"member_count"`
	ChannelCount int     `json:"channel_count"`
	OwnerName    string  `json:"owner_name"`
	BackupCount  int     `json:"backup_count"`
	InviteURL    *string `json:"invite_url"`
	IconURL      *string `json:"icon_url"`
}

// ServerDetails is the detailed view of a single guild.
type ServerDetails struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	MemberCount       int          `json:"member_count"`
	ChannelCount      int          `json:"channel_count"`
	RoleCount         int          `json:"role_count"`
	EmojiCount        int          `json:"emoji_count"`
	Owner             OwnerInfo    `json:"owner"`
	VerificationLevel string       `json:"verification_level"`
	Backups           []BackupFile `json:"backups"`
}

// OwnerInfo identifies a guild owner.
type OwnerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProcessStats holds resource usage of the bot process.
type ProcessStats struct {
	CPUPercent float64   `json:"cpuPercent"`
	MemoryRSS  uint64    `json:"memoryRss"`
	Goroutines int       `json:"goroutines"`
	SampledAt  time.Time `json:"sampledAt"`
}
