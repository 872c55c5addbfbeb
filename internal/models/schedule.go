package models

import "time"

// Schedule is an automated backup of one guild, run on a cron expression.
type Schedule struct {
	ID             string     `json:"id"`
	GuildID        string     `json:"guildId"`
	Label          string     `json:"label"`          // Prefix of the backup filename
	CronExpression string     `json:"cronExpression"` // e.g., "0 4 * * *" for 4 AM daily
	IsActive       bool       `json:"isActive"`
	LastRunAt      *time.Time `json:"lastRunAt"`
	NextRunAt      *time.Time `json:"nextRunAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}
