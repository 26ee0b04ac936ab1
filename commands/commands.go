// Package commands declares the application command surface registered
// with Discord.
package commands

import (
	"moderation-bot/model"

	"github.com/bwmarrin/discordgo"
)

var punishReasonChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Spam", Value: "spam"},
	{Name: "Inappropriate content", Value: "inappropriate"},
	{Name: "Rule violation", Value: "rule_violation"},
	{Name: "Trolling", Value: "trolling"},
	{Name: "Other (detail required)", Value: model.ReasonOther},
}

var revertReasonChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Issued by mistake", Value: "mistake"},
	{Name: "Appeal accepted", Value: "reformed"},
	{Name: "Sentence reduced", Value: "reduced"},
	{Name: "Other (detail required)", Value: model.ReasonOther},
}

func punishOptions(withDuration bool) []*discordgo.ApplicationCommandOption {
	opts := []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "The member to act on.",
			Required:    true,
		},
	}
	if withDuration {
		minMinutes := float64(model.TimeoutMinMinutes)
		opts = append(opts, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "minutes",
			Description: "Timeout duration in minutes (up to 28 days).",
			Required:    true,
			MinValue:    &minMinutes,
			MaxValue:    float64(model.TimeoutMaxMinutes),
		})
	}
	opts = append(opts,
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Why this action is taken.",
			Required:    true,
			Choices:     punishReasonChoices,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "detail",
			Description: "Free-form detail, required when reason is Other.",
			Required:    false,
		},
	)
	return opts
}

func revertOptions(byID bool) []*discordgo.ApplicationCommandOption {
	target := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: "The member to act on.",
		Required:    true,
	}
	if byID {
		// Banned users are no longer members, so the target is a raw id.
		target = &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "user_id",
			Description: "The id of the banned user.",
			Required:    true,
		}
	}
	return []*discordgo.ApplicationCommandOption{
		target,
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Why this action is reverted.",
			Required:    true,
			Choices:     revertReasonChoices,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "detail",
			Description: "Free-form detail, required when reason is Other.",
			Required:    false,
		},
	}
}

// Generate builds the global command set.
func Generate() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ban",
			Description: "Ban a member from the server.",
			Options:     punishOptions(false),
		},
		{
			Name:        "kick",
			Description: "Kick a member from the server.",
			Options:     punishOptions(false),
		},
		{
			Name:        "timeout",
			Description: "Time a member out.",
			Options:     punishOptions(true),
		},
		{
			Name:        "unban",
			Description: "Lift a ban.",
			Options:     revertOptions(true),
		},
		{
			Name:        "untimeout",
			Description: "Lift a timeout early.",
			Options:     revertOptions(false),
		},
		{
			Name:        "record",
			Description: "Show a member's recent moderation records.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The member to look up.",
					Required:    true,
				},
			},
		},
		{
			Name:        "ticket",
			Description: "Manage tickets.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "What to do.",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Open a ticket", Value: "add"},
						{Name: "Close this ticket", Value: "close"},
						{Name: "Delete this ticket", Value: "del"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "creator",
					Description: "Open the ticket on behalf of this member (staff only).",
					Required:    false,
				},
			},
		},
		{
			Name:        "ticket-panel",
			Description: "Manage ticket panels.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "What to do.",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Post a panel", Value: "add"},
						{Name: "Remove a panel", Value: "del"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Channel to post the panel in (defaults to here).",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message_id",
					Description: "Panel message id, for removal.",
					Required:    false,
				},
			},
		},
		{
			Name:        "logs",
			Description: "Configure the guild's log channels.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "type",
					Description: "Which log stream to configure.",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Public moderation log", Value: "public"},
						{Name: "Private audit log", Value: "private"},
						{Name: "Report inbox", Value: "report"},
						{Name: "Send a test entry", Value: "debug"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "The channel to route the stream to.",
					Required:    false,
				},
			},
		},
		{
			Name:        "roles",
			Description: "Configure the guild's staff roles.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "kind",
					Description: "Which role set to add to.",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Admin", Value: "admin"},
						{Name: "Moderator", Value: "moderator"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "The role to register.",
					Required:    true,
				},
			},
		},
		{
			Name:        "poll-add",
			Description: "Open a poll in this channel.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "content",
					Description: "The question being asked.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "option1",
					Description: "First option.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "option2",
					Description: "Second option.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "option3",
					Description: "Third option.",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "visibility",
					Description: "Whether results list who voted.",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Public (voters listed)", Value: model.PollPublic},
						{Name: "Private (counts only)", Value: model.PollPrivate},
					},
				},
			},
		},
		{
			Name:        "poll-close",
			Description: "Close a poll and publish the results.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "id",
					Description: "Poll id (defaults to your latest open poll).",
					Required:    false,
				},
			},
		},
		{
			Name:        "reactionrole-add",
			Description: "Bind a reaction on a message to a role.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message_id",
					Description: "The message carrying the reaction.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "emoji",
					Description: "The emoji to react with.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "The role to grant.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Channel of the message (defaults to here).",
					Required:    false,
				},
			},
		},
		{
			Name:        "report",
			Description: "Report a member to the staff team.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "target",
					Description: "The member being reported.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "content",
					Description: "What happened.",
					Required:    true,
				},
			},
		},
		{
			Name:        "stats",
			Description: "Show this guild's moderation statistics.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "period",
					Description: "Aggregation window.",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Weekly", Value: model.PeriodWeek},
						{Name: "Monthly", Value: model.PeriodMonth},
					},
				},
			},
		},
		{
			Name:        "stats-send",
			Description: "Schedule the periodic statistics digest.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "period",
					Description: "Delivery cadence.",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Weekly (Mondays)", Value: model.PeriodWeek},
						{Name: "Monthly (1st)", Value: model.PeriodMonth},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Where digests are delivered.",
					Required:    true,
				},
			},
		},
		{
			Name:        "about",
			Description: "Show bot and host runtime information.",
		},
	}
}
