// Package settings handles the guild configuration commands: log channel
// routing, staff role sets and reaction role bindings.
package settings

import (
	"fmt"
	"strings"

	"moderation-bot/bot"
	"moderation-bot/model"
	"moderation-bot/utils"
	"moderation-bot/utils/database/guilddb"
	"moderation-bot/utils/database/roledb"

	"github.com/bwmarrin/discordgo"
)

func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		opts[opt.Name] = opt
	}
	return opts
}

// HandleLogs runs /logs: routes a log stream to a channel, or emits a
// test entry into every configured stream.
func HandleLogs(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	perm, cfg := utils.GuildPermission(b.DB, i.GuildID, i.Member)
	if perm != utils.AdminPermission {
		utils.SendErrorResponse(s, i, "Only admins may configure log channels.")
		return
	}

	opts := optionMap(i.ApplicationCommandData())
	kind := opts["type"].StringValue()

	if kind == "debug" {
		sent := 0
		for name, channelID := range map[string]string{
			"public":  cfg.PublicLogChannelID,
			"private": cfg.PrivateLogChannelID,
			"report":  cfg.ReportLogChannelID,
		} {
			if channelID == "" {
				continue
			}
			err := utils.LogInfo(s, channelID, "Settings", "Debug",
				fmt.Sprintf("Test entry for the %s stream, requested by <@%s>.", name, i.Member.User.ID))
			utils.MustLog(err)
			sent++
		}
		utils.SendSimpleResponse(s, i, fmt.Sprintf("Sent test entries to %d configured stream(s).", sent))
		return
	}

	opt, ok := opts["channel"]
	if !ok {
		utils.SendErrorResponse(s, i, "A channel is required for this log type.")
		return
	}
	channelID := opt.ChannelValue(nil).ID

	if err := guilddb.EnsureGuild(b.DB, i.GuildID); err != nil {
		utils.SendErrorResponse(s, i, "Could not prepare the guild config: "+err.Error())
		return
	}
	if err := guilddb.SetLogChannel(b.DB, i.GuildID, kind, channelID); err != nil {
		utils.SendErrorResponse(s, i, "Could not save the log channel: "+err.Error())
		return
	}
	utils.SendSimpleResponse(s, i, fmt.Sprintf("The %s log stream now goes to <#%s>.", kind, channelID))
}

// HandleRoles runs /roles: registers a role into a staff role set.
func HandleRoles(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	perm, cfg := utils.GuildPermission(b.DB, i.GuildID, i.Member)
	if perm != utils.AdminPermission {
		utils.SendErrorResponse(s, i, "Only admins may configure staff roles.")
		return
	}

	opts := optionMap(i.ApplicationCommandData())
	kind := opts["kind"].StringValue()
	role := opts["role"].RoleValue(nil, i.GuildID)

	var current []string
	switch kind {
	case "admin":
		current = cfg.AdminRoles()
	case "moderator":
		current = cfg.ModeratorRoles()
	default:
		utils.SendErrorResponse(s, i, "Unknown role kind.")
		return
	}
	for _, id := range current {
		if id == role.ID {
			utils.SendErrorResponse(s, i, "That role is already registered.")
			return
		}
	}
	updated := strings.Join(append(current, role.ID), ",")

	if err := guilddb.EnsureGuild(b.DB, i.GuildID); err != nil {
		utils.SendErrorResponse(s, i, "Could not prepare the guild config: "+err.Error())
		return
	}
	var err error
	if kind == "admin" {
		err = guilddb.SetAdminRoles(b.DB, i.GuildID, updated)
	} else {
		err = guilddb.SetModeratorRoles(b.DB, i.GuildID, updated)
	}
	if err != nil {
		utils.SendErrorResponse(s, i, "Could not save the role set: "+err.Error())
		return
	}
	utils.SendSimpleResponse(s, i, fmt.Sprintf("<@&%s> registered as a %s role.", role.ID, kind))
}

// HandleReactionRoleAdd runs /reactionrole-add: binds an emoji on a
// message to a role and seeds the reaction.
func HandleReactionRoleAdd(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	perm, _ := utils.GuildPermission(b.DB, i.GuildID, i.Member)
	if perm != utils.AdminPermission {
		utils.SendErrorResponse(s, i, "Only admins may configure reaction roles.")
		return
	}

	opts := optionMap(i.ApplicationCommandData())
	messageID := opts["message_id"].StringValue()
	emoji := opts["emoji"].StringValue()
	role := opts["role"].RoleValue(nil, i.GuildID)
	channelID := i.ChannelID
	if opt, ok := opts["channel"]; ok {
		channelID = opt.ChannelValue(nil).ID
	}

	err := roledb.AddReactionRole(b.DB, model.ReactionRole{
		GuildID:   i.GuildID,
		ChannelID: channelID,
		MessageID: messageID,
		Emoji:     emoji,
		RoleID:    role.ID,
	})
	if err != nil {
		utils.SendErrorResponse(s, i, "Could not save the binding: "+err.Error())
		return
	}

	// Seed the reaction so members have something to click.
	if err := s.MessageReactionAdd(channelID, messageID, emoji); err != nil {
		utils.SendErrorResponse(s, i, "Binding saved, but the seed reaction failed: "+err.Error())
		return
	}
	utils.SendSimpleResponse(s, i, fmt.Sprintf("Reacting with %s on that message now grants <@&%s>.", emoji, role.ID))
}
