package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/isdelr/guildvault/internal/services"
	"github.com/rs/zerolog/log"
)

// Command names.
const (
	cmdCreateBackup = "load-backup"
	cmdListBackups  = "list-backups"
	cmdDeleteAll    = "reset-file"
	cmdRestore      = "blackup"

	optBackupName     = "backup_name"
	optBackupFilename = "backup_filename"
)

const createTimeout = 2 * time.Minute

// Commands are the slash commands the bot registers.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        cmdCreateBackup,
		Description: "Create a backup of the server",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        optBackupName,
			Description: "Name for the backup file (optional)",
		}},
	},
	{
		Name:        cmdListBackups,
		Description: "List all available server backups",
	},
	{
		Name:        cmdDeleteAll,
		Description: "Remove all backup files",
	},
	{
		Name:        cmdRestore,
		Description: "Restore server from a backup file",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        optBackupFilename,
			Description: "Name of the backup file to restore from",
			Required:    true,
		}},
	},
}

// interactionClient is the subset of *discordgo.Session used to answer commands.
type interactionClient interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// commandHandler answers the bot's slash commands.
type commandHandler struct {
	backups services.BackupServiceProvider
	now     func() time.Time
}

func (h *commandHandler) handle(client interactionClient, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if i.GuildID == "" || i.Member == nil {
		h.reply(client, i, "❌ This command can only be used in a server.", true)
		return
	}

	switch data.Name {
	case cmdCreateBackup:
		h.createBackup(client, i, stringOption(data, optBackupName))
	case cmdListBackups:
		h.listBackups(client, i)
	case cmdDeleteAll:
		h.deleteAll(client, i)
	case cmdRestore:
		h.restore(client, i, stringOption(data, optBackupFilename))
	default:
		log.Warn().Str("command", data.Name).Msg("Unknown command received")
	}
}

// isAdmin reports whether the invoking member has the administrator permission.
func isAdmin(member *discordgo.Member) bool {
	return member != nil && member.Permissions&discordgo.PermissionAdministrator != 0
}

func (h *commandHandler) requireAdmin(client interactionClient, i *discordgo.InteractionCreate) bool {
	if isAdmin(i.Member) {
		return true
	}
	h.reply(client, i, "❌ You need administrator permissions to use this command!", true)
	return false
}

func (h *commandHandler) createBackup(client interactionClient, i *discordgo.InteractionCreate, label string) {
	if !h.requireAdmin(client, i) || !h.deferReply(client, i) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), createTimeout)
	defer cancel()
	summary, err := h.backups.CreateBackup(ctx, i.GuildID, label)
	if err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Backup command failed")
		h.followup(client, i, h.failureEmbed("❌ Backup Failed", "An error occurred while creating the backup", err))
		return
	}
	h.followup(client, i, backupCompleteEmbed(summary, i.Member, h.now()))
}

func (h *commandHandler) listBackups(client interactionClient, i *discordgo.InteractionCreate) {
	files, err := h.backups.ListBackups(i.GuildID)
	if err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Listing backups failed")
		h.respondEmbed(client, i, errorEmbed("❌ Listing Failed", err.Error()))
		return
	}
	if len(files) == 0 {
		h.reply(client, i, "📁 No backups found for this server.", true)
		return
	}
	h.respondEmbed(client, i, backupListEmbed(files))
}

func (h *commandHandler) deleteAll(client interactionClient, i *discordgo.InteractionCreate) {
	if !h.requireAdmin(client, i) || !h.deferReply(client, i) {
		return
	}

	deleted, err := h.backups.DeleteAllBackups(i.GuildID)
	if err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Int("deleted", deleted).Msg("Deleting backups failed")
		h.followup(client, i, h.failureEmbed("❌ Deletion Failed", "An error occurred while deleting backup files", err))
		return
	}
	if deleted == 0 {
		h.followupText(client, i, "📁 No backup files found - nothing to delete.")
		return
	}
	h.followup(client, i, deletedEmbed(deleted, i.Member, h.now()))
}

func (h *commandHandler) restore(client interactionClient, i *discordgo.InteractionCreate, filename string) {
	if !h.requireAdmin(client, i) || !h.deferReply(client, i) {
		return
	}

	report, err := h.backups.RestoreBackup(context.Background(), i.GuildID, filename)
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrBadRequest):
		h.followupText(client, i, "❌ Backup file not found! Use `/list-backups` to see available backups for this server.")
		return
	case err != nil:
		log.Error().Err(err).Str("guild_id", i.GuildID).Str("filename", filename).Msg("Restore command failed")
		h.followup(client, i, h.failureEmbed("❌ Restore Failed", "An error occurred while restoring the backup", err))
		return
	}
	h.followup(client, i, restoreEmbed(filename, report, i.Member, h.now()))
}

func (h *commandHandler) failureEmbed(title, prefix string, err error) *discordgo.MessageEmbed {
	if errors.Is(err, services.ErrOperationInProgress) {
		return errorEmbed("⏳ Busy", "Another backup operation is running for this server. Try again when it has finished.")
	}
	return errorEmbed(title, fmt.Sprintf("%s: %v", prefix, err))
}

func (h *commandHandler) reply(client interactionClient, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	h.respond(client, i, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseChannelMessageWithSource, Data: data})
}

func (h *commandHandler) respondEmbed(client interactionClient, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	h.respond(client, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
}

// deferReply acknowledges a slow command. The answer follows as a followup message.
func (h *commandHandler) deferReply(client interactionClient, i *discordgo.InteractionCreate) bool {
	return h.respond(client, i, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource})
}

func (h *commandHandler) respond(client interactionClient, i *discordgo.InteractionCreate, resp *discordgo.InteractionResponse) bool {
	if err := client.InteractionRespond(i.Interaction, resp); err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Failed to respond to interaction")
		return false
	}
	return true
}

func (h *commandHandler) followup(client interactionClient, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	h.sendFollowup(client, i, &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{embed}})
}

func (h *commandHandler) followupText(client interactionClient, i *discordgo.InteractionCreate, content string) {
	h.sendFollowup(client, i, &discordgo.WebhookParams{Content: content})
}

func (h *commandHandler) sendFollowup(client interactionClient, i *discordgo.InteractionCreate, params *discordgo.WebhookParams) {
	if _, err := client.FollowupMessageCreate(i.Interaction, true, params); err != nil {
		log.Error().Err(err).Str("guild_id", i.GuildID).Msg("Failed to send followup message")
	}
}

func stringOption(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}
