package models

import "time"

// Target types of a permission overwrite.
const (
	TargetRole   = "role"
	TargetMember = "member"
)

// Channel type tags recorded in a backup. Anything other than text and voice
// is kept with its common fields only.
const (
	ChannelTypeText       = "text"
	ChannelTypeVoice      = "voice"
	ChannelTypeNews       = "news"
	ChannelTypeStageVoice = "stage_voice"
	ChannelTypeForum      = "forum"
	ChannelTypeMedia      = "media"
	ChannelTypeUnknown    = "unknown"
)

// EveryoneRoleName is the reserved name of the implicit role every member has.
const EveryoneRoleName = "@everyone"

// BackupRecord is a complete point-in-time copy of a guild's structure.
// It is written once and never modified afterwards.
type BackupRecord struct {
	ServerInfo ServerInfo       `json:"server_info"`
	Channels   []ChannelRecord  `json:"channels"`
	Categories []CategoryRecord `json:"categories"`
	Roles      []RoleRecord     `json:"roles"`
	Emojis     []EmojiRecord    `json:"emojis"`
}

// ServerInfo describes the guild a backup was taken from. A guild without a
// description is written as null.
type ServerInfo struct {
	Name              string    `json:"name"`
	ID                string    `json:"id"`
	Description       *string   `json:"description"`
	OwnerID           string    `json:"owner_id"`
	VerificationLevel string    `json:"verification_level"`
	BackupDate        Timestamp `json:"backup_date"`
}

// CategoryRecord is a channel category.
type CategoryRecord struct {
	Name       string                `json:"name"`
	ID         string                `json:"id"`
	Position   int                   `json:"position"`
	Overwrites []PermissionOverwrite `json:"overwrites"`
}

// ChannelRecord is a non-category channel. TextSettings is set only for text
// channels and VoiceSettings only for voice channels; both are flattened into
// the JSON object.
type ChannelRecord struct {
	Name       string                `json:"name"`
	ID         string                `json:"id"`
	Type       string                `json:"type"`
	Position   int                   `json:"position"`
	CategoryID *string               `json:"category_id"`
	Overwrites []PermissionOverwrite `json:"overwrites"`
	*TextSettings
	*VoiceSettings
}

// TextSettings holds the fields specific to text channels. A channel without
// a topic is written as null.
type TextSettings struct {
	Topic         *string `json:"topic"`
	SlowmodeDelay int     `json:"slowmode_delay"`
	NSFW          bool    `json:"nsfw"`
}

// VoiceSettings holds the fields specific to voice channels.
type VoiceSettings struct {
	Bitrate   int `json:"bitrate"`
	UserLimit int `json:"user_limit"`
}

// PermissionOverwrite is a per-channel permission exception for one role or member.
// Allow and Deny are disjoint on the platform side.
type PermissionOverwrite struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Allow      int64  `json:"allow"`
	Deny       int64  `json:"deny"`
}

// RoleRecord is a guild role.
type RoleRecord struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Color       int    `json:"color"`
	Hoist       bool   `json:"hoist"`
	Mentionable bool   `json:"mentionable"`
	Permissions int64  `json:"permissions"`
	Position    int    `json:"position"`
}

// EmojiRecord is a custom guild emoji.
type EmojiRecord struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	Animated bool   `json:"animated"`
	URL      string `json:"url"`
}

// BackupFile describes a stored backup file.
type BackupFile struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
}

// BackupSummary is returned after a backup has been written.
type BackupSummary struct {
	Filename   string `json:"filename"`
	GuildID    string `json:"guildId"`
	GuildName  string `json:"guildName"`
	Size       int64  `json:"size"`
	Categories int    `json:"categories"`
	Channels   int    `json:"channels"`
	Roles      int    `json:"roles"`
	Emojis     int    `json:"emojis"`
}

// OptionalString returns nil for an empty string and a pointer to s otherwise.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue returns the string p points to, or "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
