// Package punish handles the punitive and revert slash commands.
package punish

import (
	"errors"
	"fmt"

	"moderation-bot/bot"
	"moderation-bot/model"
	"moderation-bot/moderation"
	"moderation-bot/utils"
	"moderation-bot/utils/database/modlogdb"

	"github.com/bwmarrin/discordgo"
)

func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		opts[opt.Name] = opt
	}
	return opts
}

// Handle runs one of ban/kick/timeout/unban/untimeout.
func Handle(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	perm, cfg := utils.GuildPermission(b.DB, i.GuildID, i.Member)
	if perm == utils.GuestPermission {
		utils.SendErrorResponse(s, i, "You do not have permission to use this command.")
		return
	}

	data := i.ApplicationCommandData()
	opts := optionMap(data)

	req := moderation.Request{
		GuildID:         i.GuildID,
		ExecutorID:      i.Member.User.ID,
		ExecutorIsAdmin: perm == utils.AdminPermission,
	}
	switch data.Name {
	case "ban":
		req.Action = model.ActionBan
	case "kick":
		req.Action = model.ActionKick
	case "timeout":
		req.Action = model.ActionTimeout
	case "unban":
		req.Action = model.ActionUnban
	case "untimeout":
		req.Action = model.ActionUntimeout
	default:
		utils.SendErrorResponse(s, i, "Unknown moderation command.")
		return
	}

	if opt, ok := opts["user"]; ok {
		req.TargetID = opt.UserValue(nil).ID
	} else if opt, ok := opts["user_id"]; ok {
		req.TargetID = opt.StringValue()
	}
	if opt, ok := opts["minutes"]; ok {
		req.DurationMinutes = int(opt.IntValue())
	}
	if opt, ok := opts["reason"]; ok {
		req.ReasonCode = opt.StringValue()
	}
	if opt, ok := opts["detail"]; ok {
		req.ReasonDetail = opt.StringValue()
	}

	// Enforcement makes several REST calls; acknowledge first.
	if err := utils.DeferResponse(s, i, true); err != nil {
		return
	}

	record, err := b.Moderation.Apply(req)
	if err != nil {
		logErr := utils.LogError(s, cfg.PrivateLogChannelID, "Moderation", req.Action,
			fmt.Sprintf("<@%s> failed to apply %s to <@%s>: %v", req.ExecutorID, req.Action, req.TargetID, err))
		utils.MustLog(logErr)
		utils.SendFollowUpError(s, i.Interaction, userFacing(err))
		return
	}

	summary := fmt.Sprintf("✅ **%s** applied to <@%s> (record #%d).\nReason: %s",
		record.Action, record.TargetID, record.LogID, record.Reason)
	if record.DurationMinutes > 0 {
		summary += fmt.Sprintf("\nDuration: %d minute(s)", record.DurationMinutes)
	}
	utils.SendFollowUp(s, i.Interaction, summary)
}

// HandleRecord runs /record: a staff-only lookup of a member's newest
// moderation records.
func HandleRecord(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	_, cfg := utils.GuildPermission(b.DB, i.GuildID, i.Member)
	if !utils.IsStaff(i.Member, cfg.AdminRoles(), cfg.ModeratorRoles()) {
		utils.SendErrorResponse(s, i, "You do not have permission to use this command.")
		return
	}

	opts := optionMap(i.ApplicationCommandData())
	// Resolve through the session so the username is available for the
	// embed title.
	target := opts["user"].UserValue(s)

	records, err := modlogdb.RecentByTarget(b.DB, i.GuildID, target.ID, 10)
	if err != nil {
		utils.SendErrorResponse(s, i, "Could not load the records: "+err.Error())
		return
	}
	if len(records) == 0 {
		utils.SendSimpleResponse(s, i, fmt.Sprintf("<@%s> has no moderation records.", target.ID))
		return
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(records))
	for _, record := range records {
		value := fmt.Sprintf("Reason: %s\nBy: <@%s>", record.Reason, record.ExecutorID)
		if record.DurationMinutes > 0 {
			value += fmt.Sprintf("\nDuration: %d minute(s)", record.DurationMinutes)
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("#%d %s, <t:%d:f>", record.LogID, record.Action, record.CreatedAt),
			Value: value,
		})
	}
	utils.SendEmbedResponse(s, i, &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("📋 Records of %s", target.Username),
		Color:  0x5865F2,
		Fields: fields,
	})
}

func userFacing(err error) string {
	switch {
	case errors.Is(err, moderation.ErrValidation):
		return err.Error()
	case errors.Is(err, moderation.ErrNotFound):
		return "That user could not be found."
	case errors.Is(err, moderation.ErrPermission):
		return "This action is not allowed: the target outranks you or the bot."
	default:
		return "The action failed: " + err.Error()
	}
}
