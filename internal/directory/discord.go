package directory

import (
	"context"
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"
)

// memberPageSize is the largest page the members endpoint accepts.
const memberPageSize = 1000

const channelTypeGuildMedia discordgo.ChannelType = 16

// RESTClient is the subset of *discordgo.Session used by Discord.
type RESTClient interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildEmojis(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Emoji, error)
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildRoleCreate(guildID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Discord is a Directory backed by the Discord REST API.
type Discord struct {
	client  RESTClient
	guildID string
}

// NewDiscord returns the Directory of one guild.
func NewDiscord(client RESTClient, guildID string) *Discord {
	return &Discord{client: client, guildID: guildID}
}

// Guild returns the guild's top-level attributes.
func (d *Discord) Guild(ctx context.Context) (GuildInfo, error) {
	g, err := d.client.Guild(d.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return GuildInfo{}, fmt.Errorf("fetch guild %s: %w", d.guildID, err)
	}
	return GuildInfo{
		ID:                g.ID,
		Name:              g.Name,
		Description:       g.Description,
		OwnerID:           g.OwnerID,
		VerificationLevel: VerificationLevelName(g.VerificationLevel),
	}, nil
}

// Categories returns the guild's categories ordered by position.
func (d *Discord) Categories(ctx context.Context) ([]Category, error) {
	raw, err := d.client.GuildChannels(d.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list channels of guild %s: %w", d.guildID, err)
	}
	var cats []*discordgo.Channel
	for _, ch := range raw {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			cats = append(cats, ch)
		}
	}
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Position != cats[j].Position {
			return cats[i].Position < cats[j].Position
		}
		return cats[i].ID < cats[j].ID
	})

	out := make([]Category, 0, len(cats))
	for _, ch := range cats {
		out = append(out, Category{
			ID:         ch.ID,
			Name:       ch.Name,
			Position:   ch.Position,
			Overwrites: fromDiscordOverwrites(ch.PermissionOverwrites),
		})
	}
	return out, nil
}

// Channels returns every channel in the order the API reports them.
func (d *Discord) Channels(ctx context.Context) ([]Channel, error) {
	raw, err := d.client.GuildChannels(d.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list channels of guild %s: %w", d.guildID, err)
	}
	out := make([]Channel, 0, len(raw))
	for _, ch := range raw {
		out = append(out, fromDiscordChannel(ch))
	}
	return out, nil
}

// Roles returns the guild's roles, the everyone role included.
func (d *Discord) Roles(ctx context.Context) ([]Role, error) {
	raw, err := d.client.GuildRoles(d.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list roles of guild %s: %w", d.guildID, err)
	}
	out := make([]Role, 0, len(raw))
	for _, r := range raw {
		out = append(out, fromDiscordRole(r))
	}
	return out, nil
}

// Emojis returns the guild's custom emoji.
func (d *Discord) Emojis(ctx context.Context) ([]Emoji, error) {
	raw, err := d.client.GuildEmojis(d.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list emojis of guild %s: %w", d.guildID, err)
	}
	out := make([]Emoji, 0, len(raw))
	for _, e := range raw {
		url := discordgo.EndpointEmoji(e.ID)
		if e.Animated {
			url = discordgo.EndpointEmojiAnimated(e.ID)
		}
		out = append(out, Emoji{ID: e.ID, Name: e.Name, Animated: e.Animated, URL: url})
	}
	return out, nil
}

// Members pages through every member of the guild.
func (d *Discord) Members(ctx context.Context) ([]Member, error) {
	var out []Member
	after := ""
	for {
		page, err := d.client.GuildMembers(d.guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list members of guild %s: %w", d.guildID, err)
		}
		for _, m := range page {
			if m.User == nil {
				continue
			}
			out = append(out, Member{ID: m.User.ID, DisplayName: m.DisplayName()})
			after = m.User.ID
		}
		if len(page) < memberPageSize {
			return out, nil
		}
	}
}

// CreateRole creates a role.
func (d *Discord) CreateRole(ctx context.Context, params RoleParams) (Role, error) {
	r, err := d.client.GuildRoleCreate(d.guildID, &discordgo.RoleParams{
		Name:        params.Name,
		Color:       &params.Color,
		Hoist:       &params.Hoist,
		Mentionable: &params.Mentionable,
		Permissions: &params.Permissions,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return Role{}, err
	}
	return fromDiscordRole(r), nil
}

// CreateCategory creates a category with the given overwrites.
func (d *Discord) CreateCategory(ctx context.Context, params CategoryParams) (Category, error) {
	ch, err := d.client.GuildChannelCreateComplex(d.guildID, discordgo.GuildChannelCreateData{
		Name:                 params.Name,
		Type:                 discordgo.ChannelTypeGuildCategory,
		PermissionOverwrites: toDiscordOverwrites(params.Overwrites),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return Category{}, err
	}
	return Category{
		ID:         ch.ID,
		Name:       ch.Name,
		Position:   ch.Position,
		Overwrites: fromDiscordOverwrites(ch.PermissionOverwrites),
	}, nil
}

// CreateTextChannel creates a text channel.
func (d *Discord) CreateTextChannel(ctx context.Context, params TextChannelParams) (Channel, error) {
	ch, err := d.client.GuildChannelCreateComplex(d.guildID, discordgo.GuildChannelCreateData{
		Name:                 params.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                params.Topic,
		RateLimitPerUser:     params.SlowmodeDelay,
		NSFW:                 params.NSFW,
		ParentID:             params.ParentID,
		PermissionOverwrites: toDiscordOverwrites(params.Overwrites),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return Channel{}, err
	}
	return fromDiscordChannel(ch), nil
}

// CreateVoiceChannel creates a voice channel.
func (d *Discord) CreateVoiceChannel(ctx context.Context, params VoiceChannelParams) (Channel, error) {
	ch, err := d.client.GuildChannelCreateComplex(d.guildID, discordgo.GuildChannelCreateData{
		Name:                 params.Name,
		Type:                 discordgo.ChannelTypeGuildVoice,
		Bitrate:              params.Bitrate,
		UserLimit:            params.UserLimit,
		ParentID:             params.ParentID,
		PermissionOverwrites: toDiscordOverwrites(params.Overwrites),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return Channel{}, err
	}
	return fromDiscordChannel(ch), nil
}

// KindOf maps a Discord channel type to a ChannelKind.
func KindOf(t discordgo.ChannelType) ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return KindText
	case discordgo.ChannelTypeGuildVoice:
		return KindVoice
	case discordgo.ChannelTypeGuildCategory:
		return KindCategory
	case discordgo.ChannelTypeGuildNews:
		return KindNews
	case discordgo.ChannelTypeGuildStageVoice:
		return KindStageVoice
	case discordgo.ChannelTypeGuildForum:
		return KindForum
	case channelTypeGuildMedia:
		return KindMedia
	default:
		return KindUnknown
	}
}

// VerificationLevelName returns the lowercase name of a verification level.
func VerificationLevelName(level discordgo.VerificationLevel) string {
	switch level {
	case discordgo.VerificationLevelNone:
		return "none"
	case discordgo.VerificationLevelLow:
		return "low"
	case discordgo.VerificationLevelMedium:
		return "medium"
	case discordgo.VerificationLevelHigh:
		return "high"
	case discordgo.VerificationLevelVeryHigh:
		return "highest"
	default:
		return fmt.Sprintf("unknown(%d)", level)
	}
}

func fromDiscordChannel(ch *discordgo.Channel) Channel {
	return Channel{
		ID:            ch.ID,
		Name:          ch.Name,
		Kind:          KindOf(ch.Type),
		Position:      ch.Position,
		ParentID:      ch.ParentID,
		Topic:         ch.Topic,
		SlowmodeDelay: ch.RateLimitPerUser,
		NSFW:          ch.NSFW,
		Bitrate:       ch.Bitrate,
		UserLimit:     ch.UserLimit,
		Overwrites:    fromDiscordOverwrites(ch.PermissionOverwrites),
	}
}

func fromDiscordRole(r *discordgo.Role) Role {
	return Role{
		ID:          r.ID,
		Name:        r.Name,
		Color:       r.Color,
		Hoist:       r.Hoist,
		Mentionable: r.Mentionable,
		Permissions: r.Permissions,
		Position:    r.Position,
	}
}

func fromDiscordOverwrites(in []*discordgo.PermissionOverwrite) []Overwrite {
	out := make([]Overwrite, 0, len(in))
	for _, po := range in {
		kind := TargetRole
		if po.Type == discordgo.PermissionOverwriteTypeMember {
			kind = TargetMember
		}
		out = append(out, Overwrite{TargetKind: kind, TargetID: po.ID, Allow: po.Allow, Deny: po.Deny})
	}
	return out
}

func toDiscordOverwrites(in []Overwrite) []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, 0, len(in))
	for _, ow := range in {
		t := discordgo.PermissionOverwriteTypeRole
		if ow.TargetKind == TargetMember {
			t = discordgo.PermissionOverwriteTypeMember
		}
		out = append(out, &discordgo.PermissionOverwrite{ID: ow.TargetID, Type: t, Allow: ow.Allow, Deny: ow.Deny})
	}
	return out
}
