// Package bot connects to Discord, answers the backup slash commands and
// reports the live guild state shown on the dashboard.
package bot

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/isdelr/guildvault/internal/directory"
	"github.com/isdelr/guildvault/internal/models"
	"github.com/isdelr/guildvault/internal/services"
	"github.com/rs/zerolog/log"
)

// Intents the bot needs: guild structure and the member list for overwrites.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

// NewSession creates an unopened session for token.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = Intents
	return session, nil
}

// Bot answers slash commands on a Discord session.
type Bot struct {
	session  *discordgo.Session
	events   services.EventServiceProvider
	guildIDs []string
	commands *commandHandler

	ready     atomic.Bool
	startedAt atomic.Int64
}

// New creates a Bot. Commands are registered in guildIDs, or globally when empty.
func New(session *discordgo.Session, backups services.BackupServiceProvider, events services.EventServiceProvider, guildIDs []string) *Bot {
	b := &Bot{
		session:  session,
		events:   events,
		guildIDs: guildIDs,
		commands: &commandHandler{backups: backups, now: time.Now},
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onDisconnect)
	session.AddHandler(b.onResumed)
	session.AddHandler(b.onInteraction)
	return b
}

// DirectoryFor returns the REST directory of one guild on session.
func DirectoryFor(session *discordgo.Session) services.DirectoryFactory {
	return func(guildID string) directory.Directory {
		return directory.NewDiscord(session, guildID)
	}
}

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	b.ready.Store(false)
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.startedAt.Store(time.Now().UnixNano())
	b.ready.Store(true)
	log.Info().Str("user", r.User.String()).Int("guilds", len(r.Guilds)).Msg("Bot has logged in")

	scopes := b.guildIDs
	if len(scopes) == 0 {
		scopes = []string{""}
	}
	for _, guildID := range scopes {
		synced, err := s.ApplicationCommandBulkOverwrite(r.User.ID, guildID, Commands)
		if err != nil {
			log.Error().Err(err).Str("guild_id", guildID).Msg("Failed to sync commands")
			continue
		}
		log.Info().Str("guild_id", guildID).Int("commands", len(synced)).Msg("Synced commands")
	}
	if err := b.events.CreateEvent("bot.ready", "info", fmt.Sprintf("Bot %s connected.", r.User.Username), nil); err != nil {
		log.Warn().Err(err).Msg("Failed to record event")
	}
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	b.ready.Store(false)
	log.Warn().Msg("Disconnected from the gateway")
}

func (b *Bot) onResumed(_ *discordgo.Session, _ *discordgo.Resumed) {
	b.ready.Store(true)
	log.Info().Msg("Gateway session resumed")
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.commands.handle(s, i)
}

// Ready reports whether the gateway session is up.
func (b *Bot) Ready() bool {
	return b.ready.Load()
}

// StartedAt returns when the bot became ready.
func (b *Bot) StartedAt() time.Time {
	return time.Unix(0, b.startedAt.Load())
}

// Guilds returns every guild in the state cache ordered by name.
func (b *Bot) Guilds() []models.GuildSummary {
	state := b.session.State
	state.RLock()
	defer state.RUnlock()

	out := make([]models.GuildSummary, 0, len(state.Guilds))
	for _, g := range state.Guilds {
		out = append(out, summarize(g))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Guild returns one guild from the state cache.
func (b *Bot) Guild(guildID string) (models.GuildSummary, bool) {
	state := b.session.State
	state.RLock()
	defer state.RUnlock()

	for _, g := range state.Guilds {
		if g.ID == guildID {
			return summarize(g), true
		}
	}
	return models.GuildSummary{}, false
}

// summarize expects the state lock to be held.
func summarize(g *discordgo.Guild) models.GuildSummary {
	s := models.GuildSummary{
		ID:                g.ID,
		Name:              g.Name,
		Description:       g.Description,
		MemberCount:       g.MemberCount,
		ChannelCount:      len(g.Channels),
		RoleCount:         len(g.Roles),
		EmojiCount:        len(g.Emojis),
		OwnerID:           g.OwnerID,
		VerificationLevel: directory.VerificationLevelName(g.VerificationLevel),
	}
	if g.Icon != "" {
		s.IconURL = discordgo.EndpointGuildIcon(g.ID, g.Icon)
	}
	for _, m := range g.Members {
		if m.User != nil && m.User.ID == g.OwnerID {
			s.OwnerName = m.DisplayName()
			break
		}
	}
	return s
}
