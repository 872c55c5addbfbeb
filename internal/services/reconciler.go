package services

import (
	"context"
	"fmt"

	"github.com/isdelr/guildvault/internal/directory"
	"github.com/isdelr/guildvault/internal/models"
)

// Defaults for voice channels recorded without voice settings.
const (
	defaultBitrate   = 64000
	defaultUserLimit = 0
)

// EntityKey decides which live entity an entry of a backup corresponds to.
// Two entities are the same when their keys are equal.
type EntityKey interface {
	Existing(name, id string) string
	Record(name, id string) string
}

// NameKey matches entities by exact, case-sensitive name. Record ids are
// ignored because the platform assigns new ids on creation.
type NameKey struct{}

func (NameKey) Existing(name, _ string) string { return name }
func (NameKey) Record(name, _ string) string   { return name }

// Reconciler recreates the missing parts of a backup in a guild.
type Reconciler struct {
	key EntityKey
}

// NewReconciler returns a Reconciler matching entities with key. A nil key
// means NameKey.
func NewReconciler(key EntityKey) *Reconciler {
	if key == nil {
		key = NameKey{}
	}
	return &Reconciler{key: key}
}

// restoreRun is the state of one Restore call.
type restoreRun struct {
	guild     directory.Directory
	key       EntityKey
	roles     map[string]directory.Role
	roleIDs   map[string]bool
	memberIDs map[string]bool
	cats      map[string]directory.Category
	channels  map[string]bool
	// parents maps record category ids to live categories.
	parents map[string]directory.Category
}

// Restore creates the roles, categories and channels of record that are
// missing from guild, in that order and one call at a time. A failing item is
// recorded in the report and the next item is attempted. An error is
// returned only when the current state of the guild cannot be read.
func (r *Reconciler) Restore(ctx context.Context, guild directory.Directory, record models.BackupRecord) (models.RestoreReport, error) {
	run, err := r.newRun(ctx, guild)
	if err != nil {
		return models.RestoreReport{}, err
	}

	report := models.NewRestoreReport()
	for _, role := range record.Roles {
		report.Add(run.restoreRole(ctx, role))
	}
	for _, cat := range record.Categories {
		report.Add(run.restoreCategory(ctx, cat))
	}
	for _, ch := range record.Channels {
		report.Add(run.restoreChannel(ctx, ch))
	}
	return report, nil
}

func (r *Reconciler) newRun(ctx context.Context, guild directory.Directory) (*restoreRun, error) {
	roles, err := guild.Roles(ctx)
	if err != nil {
		return nil, fmt.Errorf("read roles: %w", err)
	}
	members, err := guild.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("read members: %w", err)
	}
	categories, err := guild.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	channels, err := guild.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("read channels: %w", err)
	}

	run := &restoreRun{
		guild:     guild,
		key:       r.key,
		roles:     make(map[string]directory.Role, len(roles)),
		roleIDs:   make(map[string]bool, len(roles)),
		memberIDs: make(map[string]bool, len(members)),
		cats:      make(map[string]directory.Category, len(categories)),
		channels:  make(map[string]bool, len(channels)),
		parents:   make(map[string]directory.Category),
	}
	for _, role := range roles {
		run.addRole(role)
	}
	for _, m := range members {
		run.memberIDs[m.ID] = true
	}
	for _, cat := range categories {
		run.cats[r.key.Existing(cat.Name, cat.ID)] = cat
	}
	for _, ch := range channels {
		if ch.Kind == directory.KindCategory {
			continue
		}
		run.channels[r.key.Existing(ch.Name, ch.ID)] = true
	}
	return run, nil
}

func (run *restoreRun) addRole(role directory.Role) {
	run.roleIDs[role.ID] = true
	k := run.key.Existing(role.Name, role.ID)
	if _, ok := run.roles[k]; !ok {
		run.roles[k] = role
	}
}

func (run *restoreRun) restoreRole(ctx context.Context, rec models.RoleRecord) models.ItemResult {
	res := models.ItemResult{Kind: models.ItemRole, Name: rec.Name}
	if _, ok := run.roles[run.key.Record(rec.Name, rec.ID)]; ok {
		res.Outcome = models.OutcomeExisting
		return res
	}
	created, err := run.guild.CreateRole(ctx, directory.RoleParams{
		Name:        rec.Name,
		Color:       rec.Color,
		Hoist:       rec.Hoist,
		Mentionable: rec.Mentionable,
		Permissions: rec.Permissions,
	})
	if err != nil {
		return failed(res, err)
	}
	run.addRole(created)
	res.Outcome = models.OutcomeCreated
	return res
}

func (run *restoreRun) restoreCategory(ctx context.Context, rec models.CategoryRecord) models.ItemResult {
	res := models.ItemResult{Kind: models.ItemCategory, Name: rec.Name}
	k := run.key.Record(rec.Name, rec.ID)
	if existing, ok := run.cats[k]; ok {
		run.parents[rec.ID] = existing
		res.Outcome = models.OutcomeExisting
		return res
	}
	created, err := run.guild.CreateCategory(ctx, directory.CategoryParams{
		Name:       rec.Name,
		Overwrites: run.resolveOverwrites(rec.Overwrites),
	})
	if err != nil {
		return failed(res, err)
	}
	run.cats[k] = created
	run.parents[rec.ID] = created
	res.Outcome = models.OutcomeCreated
	return res
}

func (run *restoreRun) restoreChannel(ctx context.Context, rec models.ChannelRecord) models.ItemResult {
	res := models.ItemResult{Kind: models.ItemChannel, Name: rec.Name}
	k := run.key.Record(rec.Name, rec.ID)
	if run.channels[k] {
		res.Outcome = models.OutcomeExisting
		return res
	}

	var parentID string
	if rec.CategoryID != nil {
		if parent, ok := run.parents[*rec.CategoryID]; ok {
			parentID = parent.ID
		}
	}

	var err error
	switch rec.Type {
	case models.ChannelTypeText:
		params := directory.TextChannelParams{
			Name:       rec.Name,
			ParentID:   parentID,
			Overwrites: run.resolveOverwrites(rec.Overwrites),
		}
		if rec.TextSettings != nil {
			params.Topic = models.StringValue(rec.Topic)
			params.SlowmodeDelay = rec.SlowmodeDelay
			params.NSFW = rec.NSFW
		}
		_, err = run.guild.CreateTextChannel(ctx, params)
	case models.ChannelTypeVoice:
		params := directory.VoiceChannelParams{
			Name:       rec.Name,
			ParentID:   parentID,
			Bitrate:    defaultBitrate,
			UserLimit:  defaultUserLimit,
			Overwrites: run.resolveOverwrites(rec.Overwrites),
		}
		if rec.VoiceSettings != nil {
			params.Bitrate = rec.Bitrate
			params.UserLimit = rec.UserLimit
		}
		_, err = run.guild.CreateVoiceChannel(ctx, params)
	default:
		res.Outcome = models.OutcomeSkipped
		return res
	}
	if err != nil {
		return failed(res, err)
	}
	run.channels[k] = true
	res.Outcome = models.OutcomeCreated
	return res
}

// resolveOverwrites keeps the overwrites whose role or member exists in the
// guild. Role targets are matched by id, so overwrites of roles recreated by
// this restore do not resolve.
func (run *restoreRun) resolveOverwrites(in []models.PermissionOverwrite) []directory.Overwrite {
	out := make([]directory.Overwrite, 0, len(in))
	for _, ow := range in {
		var kind directory.TargetKind
		switch ow.TargetType {
		case models.TargetRole:
			if !run.roleIDs[ow.TargetID] {
				continue
			}
			kind = directory.TargetRole
		default:
			if !run.memberIDs[ow.TargetID] {
				continue
			}
			kind = directory.TargetMember
		}
		out = append(out, directory.Overwrite{
			TargetKind: kind,
			TargetID:   ow.TargetID,
			Allow:      ow.Allow,
			Deny:       ow.Deny,
		})
	}
	return out
}

func failed(res models.ItemResult, err error) models.ItemResult {
	res.Outcome = models.OutcomeFailed
	res.Error = err.Error()
	return res
}
