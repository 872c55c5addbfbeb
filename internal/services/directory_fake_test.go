package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/isdelr/guildvault/internal/directory"
)

// fakeGuild is an in-memory directory.Directory. Created entities are
// appended to its lists so a later snapshot sees them.
type fakeGuild struct {
	info       directory.GuildInfo
	categories []directory.Category
	channels   []directory.Channel
	roles      []directory.Role
	emojis     []directory.Emoji
	members    []directory.Member

	// failCreate makes the create call for the named entity fail.
	failCreate map[string]error
	// readErr makes every read call fail.
	readErr error

	calls  []string
	nextID int

	createdText  []directory.TextChannelParams
	createdVoice []directory.VoiceChannelParams
	createdCats  []directory.CategoryParams
}

func (f *fakeGuild) newID() string {
	f.nextID++
	return fmt.Sprintf("new-%d", f.nextID)
}

func (f *fakeGuild) Guild(context.Context) (directory.GuildInfo, error) {
	return f.info, f.readErr
}

func (f *fakeGuild) Categories(context.Context) ([]directory.Category, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]directory.Category(nil), f.categories...), nil
}

func (f *fakeGuild) Channels(context.Context) ([]directory.Channel, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]directory.Channel, 0, len(f.categories)+len(f.channels))
	for _, c := range f.categories {
		out = append(out, directory.Channel{ID: c.ID, Name: c.Name, Kind: directory.KindCategory, Position: c.Position, Overwrites: c.Overwrites})
	}
	return append(out, f.channels...), nil
}

func (f *fakeGuild) Roles(context.Context) ([]directory.Role, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]directory.Role(nil), f.roles...), nil
}

func (f *fakeGuild) Emojis(context.Context) ([]directory.Emoji, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]directory.Emoji(nil), f.emojis...), nil
}

func (f *fakeGuild) Members(context.Context) ([]directory.Member, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]directory.Member(nil), f.members...), nil
}

func (f *fakeGuild) CreateRole(_ context.Context, p directory.RoleParams) (directory.Role, error) {
	f.calls = append(f.calls, "role:"+p.Name)
	if err := f.failCreate[p.Name]; err != nil {
		return directory.Role{}, err
	}
	r := directory.Role{ID: f.newID(), Name: p.Name, Color: p.Color, Hoist: p.Hoist, Mentionable: p.Mentionable, Permissions: p.Permissions, Position: len(f.roles)}
	f.roles = append(f.roles, r)
	return r, nil
}

func (f *fakeGuild) CreateCategory(_ context.Context, p directory.CategoryParams) (directory.Category, error) {
	f.calls = append(f.calls, "category:"+p.Name)
	if err := f.failCreate[p.Name]; err != nil {
		return directory.Category{}, err
	}
	f.createdCats = append(f.createdCats, p)
	c := directory.Category{ID: f.newID(), Name: p.Name, Position: len(f.categories), Overwrites: p.Overwrites}
	f.categories = append(f.categories, c)
	return c, nil
}

func (f *fakeGuild) CreateTextChannel(_ context.Context, p directory.TextChannelParams) (directory.Channel, error) {
	f.calls = append(f.calls, "text:"+p.Name)
	if err := f.failCreate[p.Name]; err != nil {
		return directory.Channel{}, err
	}
	f.createdText = append(f.createdText, p)
	ch := directory.Channel{ID: f.newID(), Name: p.Name, Kind: directory.KindText, ParentID: p.ParentID, Topic: p.Topic, SlowmodeDelay: p.SlowmodeDelay, NSFW: p.NSFW, Overwrites: p.Overwrites}
	f.channels = append(f.channels, ch)
	return ch, nil
}

func (f *fakeGuild) CreateVoiceChannel(_ context.Context, p directory.VoiceChannelParams) (directory.Channel, error) {
	f.calls = append(f.calls, "voice:"+p.Name)
	if err := f.failCreate[p.Name]; err != nil {
		return directory.Channel{}, err
	}
	f.createdVoice = append(f.createdVoice, p)
	ch := directory.Channel{ID: f.newID(), Name: p.Name, Kind: directory.KindVoice, ParentID: p.ParentID, Bitrate: p.Bitrate, UserLimit: p.UserLimit, Overwrites: p.Overwrites}
	f.channels = append(f.channels, ch)
	return ch, nil
}

var errRateLimited = errors.New("429 rate limited")

// sampleGuild is a small populated guild.
func sampleGuild() *fakeGuild {
	return &fakeGuild{
		info: directory.GuildInfo{ID: "100", Name: "Café Guild", Description: "a test guild", OwnerID: "900", VerificationLevel: "medium"},
		roles: []directory.Role{
			{ID: "100", Name: "@everyone", Permissions: 104324673},
			{ID: "201", Name: "Moderator", Color: 0x3498db, Hoist: true, Mentionable: true, Permissions: 8, Position: 2},
			{ID: "202", Name: "Member", Color: 0x2ecc71, Permissions: 1024, Position: 1},
		},
		members: []directory.Member{{ID: "900", DisplayName: "owner"}, {ID: "901", DisplayName: "alice"}},
		categories: []directory.Category{
			{ID: "300", Name: "General", Position: 0, Overwrites: []directory.Overwrite{
				{TargetKind: directory.TargetRole, TargetID: "100", Deny: 1024},
				{TargetKind: directory.TargetRole, TargetID: "202", Allow: 1024},
			}},
			{ID: "301", Name: "Voice", Position: 1},
		},
		channels: []directory.Channel{
			{ID: "400", Name: "chat", Kind: directory.KindText, Position: 0, ParentID: "300", Topic: "general chat", SlowmodeDelay: 30, NSFW: false,
				Overwrites: []directory.Overwrite{{TargetKind: directory.TargetMember, TargetID: "901", Allow: 2048}}},
			{ID: "401", Name: "lounge", Kind: directory.KindVoice, Position: 0, ParentID: "301", Bitrate: 96000, UserLimit: 10},
			{ID: "402", Name: "announcements", Kind: directory.KindNews, Position: 1, ParentID: "300"},
			{ID: "403", Name: "rules", Kind: directory.KindText, Position: 2},
		},
		emojis: []directory.Emoji{
			{ID: "500", Name: "wave", URL: "https://cdn.discordapp.com/emojis/500.png"},
			{ID: "501", Name: "party", Animated: true, URL: "https://cdn.discordapp.com/emojis/501.gif"},
		},
	}
}

// emptyGuild has only the everyone role and one member.
func emptyGuild() *fakeGuild {
	return &fakeGuild{
		info:    directory.GuildInfo{ID: "777", Name: "Fresh"},
		roles:   []directory.Role{{ID: "777", Name: "@everyone"}},
		members: []directory.Member{{ID: "900", DisplayName: "owner"}},
	}
}
