// Package directory describes the capability the backup core needs from the
// chat platform: enumerate one guild's structure and create new entities in it.
package directory

import "context"

// ChannelKind classifies a channel by its platform type tag.
type ChannelKind string

const (
	KindText       ChannelKind = "text"
	KindVoice      ChannelKind = "voice"
	KindCategory   ChannelKind = "category"
	KindNews       ChannelKind = "news"
	KindStageVoice ChannelKind = "stage_voice"
	KindForum      ChannelKind = "forum"
	KindMedia      ChannelKind = "media"
	KindUnknown    ChannelKind = "unknown"
)

// TargetKind says whether an overwrite applies to a role or a member.
type TargetKind string

const (
	TargetRole   TargetKind = "role"
	TargetMember TargetKind = "member"
)

// Overwrite is a permission exception on a channel or category.
type Overwrite struct {
	TargetKind TargetKind
	TargetID   string
	Allow      int64
	Deny       int64
}

// GuildInfo holds the top-level guild attributes.
type GuildInfo struct {
	ID                string
	Name              string
	Description       string
	OwnerID           string
	VerificationLevel string
}

// Category is a channel category.
type Category struct {
	ID         string
	Name       string
	Position   int
	Overwrites []Overwrite
}

// Channel is any guild channel. Topic, SlowmodeDelay and NSFW are meaningful
// for text channels, Bitrate and UserLimit for voice channels.
type Channel struct {
	ID            string
	Name          string
	Kind          ChannelKind
	Position      int
	ParentID      string
	Topic         string
	SlowmodeDelay int
	NSFW          bool
	Bitrate       int
	UserLimit     int
	Overwrites    []Overwrite
}

// Role is a guild role.
type Role struct {
	ID          string
	Name        string
	Color       int
	Hoist       bool
	Mentionable bool
	Permissions int64
	Position    int
}

// Emoji is a custom guild emoji.
type Emoji struct {
	ID       string
	Name     string
	Animated bool
	URL      string
}

// Member is a guild member.
type Member struct {
	ID          string
	DisplayName string
}

// RoleParams are the attributes of a role to create.
type RoleParams struct {
	Name        string
	Color       int
	Hoist       bool
	Mentionable bool
	Permissions int64
}

// CategoryParams are the attributes of a category to create.
type CategoryParams struct {
	Name       string
	Overwrites []Overwrite
}

// TextChannelParams are the attributes of a text channel to create.
// An empty ParentID creates the channel outside any category.
type TextChannelParams struct {
	Name          string
	ParentID      string
	Topic         string
	SlowmodeDelay int
	NSFW          bool
	Overwrites    []Overwrite
}

// VoiceChannelParams are the attributes of a voice channel to create.
type VoiceChannelParams struct {
	Name       string
	ParentID   string
	Bitrate    int
	UserLimit  int
	Overwrites []Overwrite
}

// Reader enumerates the structure of a single guild. Every call may block on
// the network.
type Reader interface {
	Guild(ctx context.Context) (GuildInfo, error)
	Categories(ctx context.Context) ([]Category, error)
	// Channels lists every channel of the guild, categories included.
	Channels(ctx context.Context) ([]Channel, error)
	Roles(ctx context.Context) ([]Role, error)
	Emojis(ctx context.Context) ([]Emoji, error)
	Members(ctx context.Context) ([]Member, error)
}

// Writer creates entities in a single guild. The platform assigns the ids of
// created entities.
type Writer interface {
	CreateRole(ctx context.Context, params RoleParams) (Role, error)
	CreateCategory(ctx context.Context, params CategoryParams) (Category, error)
	CreateTextChannel(ctx context.Context, params TextChannelParams) (Channel, error)
	CreateVoiceChannel(ctx context.Context, params VoiceChannelParams) (Channel, error)
}

// Directory is the full read/write capability for one guild.
type Directory interface {
	Reader
	Writer
}
