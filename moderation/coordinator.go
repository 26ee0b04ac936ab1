// Package moderation validates and enforces punitive actions, keeping the
// platform, the mod log and the notification side effects consistent.
package moderation

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"moderation-bot/model"
	"moderation-bot/utils/database/guilddb"
	"moderation-bot/utils/database/modlogdb"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
)

// Gateway is the slice of the platform session the coordinator needs.
// *discordgo.Session satisfies it.
type Gateway interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error
	GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error
	GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Request describes one moderation action to apply.
type Request struct {
	GuildID         string
	ExecutorID      string
	ExecutorIsAdmin bool
	TargetID        string
	Action          string
	ReasonCode      string
	ReasonDetail    string
	DurationMinutes int
}

// ReasonText resolves the stored reason string. The "other" code uses the
// mandatory free-text detail verbatim.
func (r Request) ReasonText() string {
	if r.ReasonCode == model.ReasonOther {
		return r.ReasonDetail
	}
	if r.ReasonDetail != "" {
		return r.ReasonCode + ": " + r.ReasonDetail
	}
	return r.ReasonCode
}

type Coordinator struct {
	gw  Gateway
	db  *sqlx.DB
	now func() time.Time
}

func NewCoordinator(gw Gateway, db *sqlx.DB) *Coordinator {
	return &Coordinator{gw: gw, db: db, now: time.Now}
}

// Apply runs precondition checks, invokes the platform enforcement
// primitive, appends the mod log record and fires the best-effort
// notifications. The record is written only after enforcement succeeded.
func (c *Coordinator) Apply(req Request) (*model.ModLog, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	if err := c.enforce(req); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, req.TargetID)
		}
		if isForbidden(err) {
			return nil, fmt.Errorf("%w: %v", ErrPermission, err)
		}
		return nil, fmt.Errorf("enforcement call failed: %w", err)
	}

	record := model.ModLog{
		GuildID:         req.GuildID,
		TargetID:        req.TargetID,
		ExecutorID:      req.ExecutorID,
		Action:          req.Action,
		Reason:          req.ReasonText(),
		DurationMinutes: int64(req.DurationMinutes),
		CreatedAt:       c.now().Unix(),
	}
	id, err := modlogdb.Add(c.db, record)
	if err != nil {
		// The action already happened on the platform; surface the
		// bookkeeping failure rather than pretending nothing ran.
		return nil, fmt.Errorf("action enforced but record not written: %w", err)
	}
	record.LogID = id

	c.notifyTarget(req)
	c.publishLogs(req, record)

	return &record, nil
}

func (c *Coordinator) validate(req Request) error {
	switch req.Action {
	case model.ActionBan, model.ActionKick, model.ActionTimeout, model.ActionUnban, model.ActionUntimeout:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrValidation, req.Action)
	}
	if req.TargetID == req.ExecutorID {
		return fmt.Errorf("%w: you cannot target yourself", ErrValidation)
	}
	if req.ReasonCode == model.ReasonOther && req.ReasonDetail == "" {
		return fmt.Errorf("%w: reason \"other\" requires a detail text", ErrValidation)
	}
	if req.Action == model.ActionTimeout {
		if req.DurationMinutes < model.TimeoutMinMinutes || req.DurationMinutes > model.TimeoutMaxMinutes {
			return fmt.Errorf("%w: timeout duration must be between %d and %d minutes",
				ErrValidation, model.TimeoutMinMinutes, model.TimeoutMaxMinutes)
		}
	}

	// A banned user is no longer a member; the remaining checks only
	// apply to actions against current members.
	if req.Action == model.ActionUnban {
		return nil
	}

	member, err := c.gw.GuildMember(req.GuildID, req.TargetID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: user %s is not a member of this guild", ErrNotFound, req.TargetID)
		}
		return fmt.Errorf("failed to resolve target member: %w", err)
	}
	if member.User != nil && member.User.Bot {
		return fmt.Errorf("%w: bots cannot be targeted", ErrValidation)
	}

	isAdmin, err := c.memberIsAdmin(req.GuildID, member)
	if err != nil {
		return err
	}
	if isAdmin && !req.ExecutorIsAdmin {
		return fmt.Errorf("%w: target holds administrator privilege", ErrValidation)
	}
	return nil
}

// memberIsAdmin checks both the platform administrator bit on the member's
// roles and the guild's configured admin role set.
func (c *Coordinator) memberIsAdmin(guildID string, member *discordgo.Member) (bool, error) {
	cfg, err := guilddb.GetGuildConfig(c.db, guildID)
	if err != nil {
		return false, err
	}
	var adminRoles []string
	if cfg != nil {
		adminRoles = cfg.AdminRoles()
	}

	roles, err := c.gw.GuildRoles(guildID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch guild roles: %w", err)
	}
	adminBit := make(map[string]bool, len(roles))
	for _, role := range roles {
		adminBit[role.ID] = role.Permissions&discordgo.PermissionAdministrator != 0
	}

	for _, roleID := range member.Roles {
		if adminBit[roleID] {
			return true, nil
		}
		for _, a := range adminRoles {
			if roleID == a {
				return true, nil
			}
		}
	}
	return false, nil
}

func (c *Coordinator) enforce(req Request) error {
	reason := req.ReasonText()
	switch req.Action {
	case model.ActionBan:
		return c.gw.GuildBanCreateWithReason(req.GuildID, req.TargetID, reason, 0)
	case model.ActionKick:
		return c.gw.GuildMemberDeleteWithReason(req.GuildID, req.TargetID, reason)
	case model.ActionTimeout:
		until := c.now().Add(time.Duration(req.DurationMinutes) * time.Minute)
		return c.gw.GuildMemberTimeout(req.GuildID, req.TargetID, &until)
	case model.ActionUnban:
		return c.gw.GuildBanDelete(req.GuildID, req.TargetID)
	case model.ActionUntimeout:
		return c.gw.GuildMemberTimeout(req.GuildID, req.TargetID, nil)
	}
	return fmt.Errorf("unknown action %q", req.Action)
}

// notifyTarget DMs the target about the action. Undeliverable DMs are
// expected and swallowed.
func (c *Coordinator) notifyTarget(req Request) {
	guildName := req.GuildID
	if guild, err := c.gw.Guild(req.GuildID); err == nil {
		guildName = guild.Name
	}

	embed := &discordgo.MessageEmbed{
		Title:       actionTitle(req.Action),
		Description: fmt.Sprintf("Server: **%s**\nReason: **%s**", guildName, req.ReasonText()),
		Color:       0xED4245,
	}
	if req.Action == model.ActionTimeout {
		embed.Description += fmt.Sprintf("\nDuration: **%d minutes**", req.DurationMinutes)
	}

	channel, err := c.gw.UserChannelCreate(req.TargetID)
	if err != nil {
		log.Printf("Could not open DM channel to user %s: %v", req.TargetID, err)
		return
	}
	if _, err := c.gw.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		log.Printf("Could not notify user %s about %s: %v", req.TargetID, req.Action, err)
	}
}

// publishLogs posts to the configured public and private log channels.
// Missing channels or permissions are tolerated silently.
func (c *Coordinator) publishLogs(req Request, record model.ModLog) {
	cfg, err := guilddb.GetGuildConfig(c.db, req.GuildID)
	if err != nil || cfg == nil {
		if err != nil {
			log.Printf("Could not load guild config for %s: %v", req.GuildID, err)
		}
		return
	}

	if cfg.PublicLogChannelID != "" {
		embed := &discordgo.MessageEmbed{
			Title:       actionTitle(req.Action),
			Description: fmt.Sprintf("<@%s> received a **%s**.", req.TargetID, req.Action),
			Color:       0x5865F2,
		}
		if _, err := c.gw.ChannelMessageSendEmbed(cfg.PublicLogChannelID, embed); err != nil {
			log.Printf("Could not publish to public log channel %s: %v", cfg.PublicLogChannelID, err)
		}
	}

	if cfg.PrivateLogChannelID != "" {
		embed := &discordgo.MessageEmbed{
			Title: fmt.Sprintf("%s (record #%d)", actionTitle(req.Action), record.LogID),
			Color: 0xED4245,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Target", Value: fmt.Sprintf("<@%s>", req.TargetID), Inline: true},
				{Name: "Executor", Value: fmt.Sprintf("<@%s>", req.ExecutorID), Inline: true},
				{Name: "Reason", Value: record.Reason, Inline: false},
			},
		}
		if req.Action == model.ActionTimeout {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: "Duration", Value: fmt.Sprintf("%d minutes", req.DurationMinutes), Inline: true,
			})
		}
		if _, err := c.gw.ChannelMessageSendEmbed(cfg.PrivateLogChannelID, embed); err != nil {
			log.Printf("Could not publish to private log channel %s: %v", cfg.PrivateLogChannelID, err)
		}
	}
}

func actionTitle(action string) string {
	switch action {
	case model.ActionBan:
		return "🔨 Ban"
	case model.ActionKick:
		return "🥾 Kick"
	case model.ActionTimeout:
		return "⏳ Timeout"
	case model.ActionUnban:
		return "🕊️ Unban"
	case model.ActionUntimeout:
		return "✅ Timeout lifted"
	}
	return action
}

func isForbidden(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusForbidden
	}
	return false
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
