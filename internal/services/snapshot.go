package services

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/guildvault/internal/directory"
	"github.com/isdelr/guildvault/internal/models"
)

// SnapshotBuilder turns the live structure of a guild into a BackupRecord.
type SnapshotBuilder struct {
	now func() time.Time
}

// NewSnapshotBuilder creates a SnapshotBuilder stamping records with the current time.
func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{now: time.Now}
}

// Build reads the guild and returns its record. Entries keep the order the
// directory reports them in. The guild is never modified.
func (b *SnapshotBuilder) Build(ctx context.Context, guild directory.Reader) (models.BackupRecord, error) {
	info, err := guild.Guild(ctx)
	if err != nil {
		return models.BackupRecord{}, fmt.Errorf("read guild: %w", err)
	}
	categories, err := guild.Categories(ctx)
	if err != nil {
		return models.BackupRecord{}, fmt.Errorf("read categories: %w", err)
	}
	channels, err := guild.Channels(ctx)
	if err != nil {
		return models.BackupRecord{}, fmt.Errorf("read channels: %w", err)
	}
	roles, err := guild.Roles(ctx)
	if err != nil {
		return models.BackupRecord{}, fmt.Errorf("read roles: %w", err)
	}
	emojis, err := guild.Emojis(ctx)
	if err != nil {
		return models.BackupRecord{}, fmt.Errorf("read emojis: %w", err)
	}

	record := models.BackupRecord{
		ServerInfo: models.ServerInfo{
			Name:              info.Name,
			ID:                info.ID,
			Description:       models.OptionalString(info.Description),
			OwnerID:           info.OwnerID,
			VerificationLevel: info.VerificationLevel,
			BackupDate:        models.Timestamp{Time: b.now()},
		},
		Channels:   make([]models.ChannelRecord, 0, len(channels)),
		Categories: make([]models.CategoryRecord, 0, len(categories)),
		Roles:      make([]models.RoleRecord, 0, len(roles)),
		Emojis:     make([]models.EmojiRecord, 0, len(emojis)),
	}

	for _, cat := range categories {
		record.Categories = append(record.Categories, models.CategoryRecord{
			Name:       cat.Name,
			ID:         cat.ID,
			Position:   cat.Position,
			Overwrites: overwriteRecords(cat.Overwrites),
		})
	}

	for _, ch := range channels {
		if ch.Kind == directory.KindCategory {
			continue
		}
		record.Channels = append(record.Channels, channelRecord(ch))
	}

	for _, role := range roles {
		if role.Name == models.EveryoneRoleName {
			continue
		}
		record.Roles = append(record.Roles, models.RoleRecord{
			Name:        role.Name,
			ID:          role.ID,
			Color:       role.Color,
			Hoist:       role.Hoist,
			Mentionable: role.Mentionable,
			Permissions: role.Permissions,
			Position:    role.Position,
		})
	}

	for _, e := range emojis {
		record.Emojis = append(record.Emojis, models.EmojiRecord{
			Name:     e.Name,
			ID:       e.ID,
			Animated: e.Animated,
			URL:      e.URL,
		})
	}

	return record, nil
}

func channelRecord(ch directory.Channel) models.ChannelRecord {
	rec := models.ChannelRecord{
		Name:       ch.Name,
		ID:         ch.ID,
		Type:       string(ch.Kind),
		Position:   ch.Position,
		Overwrites: overwriteRecords(ch.Overwrites),
	}
	if ch.ParentID != "" {
		parent := ch.ParentID
		rec.CategoryID = &parent
	}
	switch ch.Kind {
	case directory.KindText:
		rec.TextSettings = &models.TextSettings{
			Topic:         models.OptionalString(ch.Topic),
			SlowmodeDelay: ch.SlowmodeDelay,
			NSFW:          ch.NSFW,
		}
	case directory.KindVoice:
		rec.VoiceSettings = &models.VoiceSettings{
			Bitrate:   ch.Bitrate,
			UserLimit: ch.UserLimit,
		}
	}
	return rec
}

func overwriteRecords(in []directory.Overwrite) []models.PermissionOverwrite {
	out := make([]models.PermissionOverwrite, 0, len(in))
	for _, ow := range in {
		target := models.TargetRole
		if ow.TargetKind == directory.TargetMember {
			target = models.TargetMember
		}
		out = append(out, models.PermissionOverwrite{
			TargetType: target,
			TargetID:   ow.TargetID,
			Allow:      ow.Allow,
			Deny:       ow.Deny,
		})
	}
	return out
}
