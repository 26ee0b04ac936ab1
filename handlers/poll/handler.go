// Package poll handles the poll slash commands.
package poll

import (
	"errors"
	"fmt"

	"moderation-bot/bot"
	"moderation-bot/model"
	"moderation-bot/polls"
	"moderation-bot/utils"

	"github.com/bwmarrin/discordgo"
)

func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		opts[opt.Name] = opt
	}
	return opts
}

// HandleAdd runs /poll-add.
func HandleAdd(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	opts := optionMap(i.ApplicationCommandData())

	content := opts["content"].StringValue()
	options := make([]string, 0, len(model.PollMarkers))
	for _, name := range []string{"option1", "option2", "option3"} {
		if opt, ok := opts[name]; ok && opt.StringValue() != "" {
			options = append(options, opt.StringValue())
		}
	}
	visibility := model.PollPublic
	if opt, ok := opts["visibility"]; ok {
		visibility = opt.StringValue()
	}

	if err := utils.DeferResponse(s, i, true); err != nil {
		return
	}
	poll, err := b.Polls.Open(i.GuildID, i.ChannelID, i.Member.User.ID, content, options, visibility)
	if err != nil {
		if errors.Is(err, polls.ErrBadOptions) {
			utils.SendFollowUpError(s, i.Interaction, err.Error())
			return
		}
		utils.SendFollowUpError(s, i.Interaction, "Could not open the poll: "+err.Error())
		return
	}
	utils.SendFollowUp(s, i.Interaction,
		fmt.Sprintf("🗳️ Poll `%s` is open. Close it later with `/poll-close id:%s`.", poll.PollID, poll.PollID))
}

// HandleClose runs /poll-close.
func HandleClose(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	_, cfg := utils.GuildPermission(b.DB, i.GuildID, i.Member)
	isStaff := utils.IsStaff(i.Member, cfg.AdminRoles(), cfg.ModeratorRoles())

	var pollID string
	if opt, ok := optionMap(i.ApplicationCommandData())["id"]; ok {
		pollID = opt.StringValue()
	}

	if err := utils.DeferResponse(s, i, true); err != nil {
		return
	}
	poll, tallies, err := b.Polls.Close(i.GuildID, pollID, i.Member.User.ID, isStaff)
	if err != nil {
		switch {
		case errors.Is(err, polls.ErrNotFound):
			utils.SendFollowUpError(s, i.Interaction, "No matching open poll was found.")
		case errors.Is(err, polls.ErrClosed):
			utils.SendFollowUpError(s, i.Interaction, "That poll is already closed.")
		case errors.Is(err, polls.ErrNotAllowed):
			utils.SendFollowUpError(s, i.Interaction, "Only staff or the poll creator may close it.")
		default:
			utils.SendFollowUpError(s, i.Interaction, "Could not close the poll: "+err.Error())
		}
		return
	}

	total := 0
	for _, t := range tallies {
		total += t.Votes
	}
	utils.SendFollowUp(s, i.Interaction,
		fmt.Sprintf("🔒 Poll `%s` closed with %d vote(s). Results were published in <#%s>.",
			poll.PollID, total, poll.ChannelID))
}
