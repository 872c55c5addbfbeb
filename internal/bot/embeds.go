package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/isdelr/guildvault/internal/models"
)

const (
	colorGreen  = 0x2ecc71
	colorRed    = 0xe74c3c
	colorBlue   = 0x3498db
	colorOrange = 0xe67e22

	// listLimit is how many backups list-backups shows.
	listLimit = 10
	// errorLimit is how many restore errors are shown in the reply.
	errorLimit = 5
	// fieldValueLimit is the longest embed field value Discord accepts.
	fieldValueLimit = 1024
)

func requestedBy(member *discordgo.Member) *discordgo.MessageEmbedFooter {
	if member == nil || member.User == nil {
		return nil
	}
	return &discordgo.MessageEmbedFooter{
		Text:    "Requested by " + member.DisplayName(),
		IconURL: member.User.AvatarURL(""),
	}
}

func backupCompleteEmbed(summary models.BackupSummary, requester *discordgo.Member, now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ Server Backup Complete!",
		Description: fmt.Sprintf("Successfully backed up **%s**", summary.GuildName),
		Color:       colorGreen,
		Timestamp:   now.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "📊 Backup Stats",
				Value: fmt.Sprintf("**Categories:** %d\n**Channels:** %d\n**Roles:** %d\n**Emojis:** %d",
					summary.Categories, summary.Channels, summary.Roles, summary.Emojis),
			},
			{
				Name:  "📁 File",
				Value: fmt.Sprintf("`%s` (%s)", summary.Filename, humanize.Bytes(uint64(summary.Size))),
			},
		},
		Footer: requestedBy(requester),
	}
}

func backupListEmbed(files []models.BackupFile) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "📋 Available Backups",
		Description: fmt.Sprintf("Found %d backup file(s)", len(files)),
		Color:       colorBlue,
	}
	for i, f := range files {
		if i == listLimit {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Showing %d of %d backups", listLimit, len(files))}
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📄 " + f.Filename,
			Value: fmt.Sprintf("Size: %s bytes, created %s", humanize.Comma(f.Size), humanize.Time(f.Created)),
		})
	}
	return embed
}

func deletedEmbed(count int, requester *discordgo.Member, now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🗑️ Backup Files Deleted!",
		Description: fmt.Sprintf("Successfully deleted %d backup file(s)", count),
		Color:       colorOrange,
		Timestamp:   now.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{{
			Name:  "📊 Deletion Summary",
			Value: fmt.Sprintf("**Files Deleted:** %d", count),
		}},
		Footer: requestedBy(requester),
	}
}

func restoreEmbed(filename string, report models.RestoreReport, requester *discordgo.Member, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🔄 Server Restore Complete!",
		Description: fmt.Sprintf("Successfully restored from backup: `%s`", filename),
		Color:       colorGreen,
		Timestamp:   now.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{{
			Name: "📊 Restored Items",
			Value: fmt.Sprintf("**Roles:** %d\n**Categories:** %d\n**Channels:** %d",
				report.Restored.Roles, report.Restored.Categories, report.Restored.Channels),
		}},
		Footer: requestedBy(requester),
	}
	if len(report.Errors) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "⚠️ Errors",
			Value: "```" + truncate(report.ErrorSummary(errorLimit), fieldValueLimit-6) + "```",
		})
	}
	return embed
}

func errorEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colorRed,
	}
}

// truncate shortens s to at most max runes, ending with an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
