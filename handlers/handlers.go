// Package handlers wires the gateway events and the slash command
// dispatch onto the domain services.
package handlers

import (
	"log"
	"time"

	"moderation-bot/bot"
	"moderation-bot/handlers/guildstats"
	"moderation-bot/handlers/poll"
	"moderation-bot/handlers/punish"
	"moderation-bot/handlers/settings"
	"moderation-bot/handlers/ticket"
	"moderation-bot/utils"
	"moderation-bot/utils/database/guilddb"
	"moderation-bot/utils/database/roledb"
	"moderation-bot/utils/database/statsdb"
	"moderation-bot/utils/database/ticketdb"

	"github.com/bwmarrin/discordgo"
)

func Register(b *bot.Bot) {
	b.CommandHandlers = commandHandlers(b)
	addHandlers(b)
}

func commandHandlers(b *bot.Bot) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	wrap := func(h func(*discordgo.Session, *discordgo.InteractionCreate, *bot.Bot)) func(*discordgo.Session, *discordgo.InteractionCreate) {
		return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if i.Member == nil {
				utils.SendErrorResponse(s, i, "This command only works inside a server.")
				return
			}
			h(s, i, b)
		}
	}

	moderationHandler := wrap(punish.Handle)
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"ban":              moderationHandler,
		"kick":             moderationHandler,
		"timeout":          moderationHandler,
		"unban":            moderationHandler,
		"untimeout":        moderationHandler,
		"record":           wrap(punish.HandleRecord),
		"ticket":           wrap(ticket.HandleCommand),
		"ticket-panel":     wrap(ticket.HandlePanelCommand),
		"logs":             wrap(settings.HandleLogs),
		"roles":            wrap(settings.HandleRoles),
		"reactionrole-add": wrap(settings.HandleReactionRoleAdd),
		"poll-add":         wrap(poll.HandleAdd),
		"poll-close":       wrap(poll.HandleClose),
		"report":           wrap(guildstats.HandleReport),
		"stats":            wrap(guildstats.HandleStats),
		"stats-send":       wrap(guildstats.HandleStatsSend),
		"about": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			handleAbout(s, i, b)
		},
	}
}

func addHandlers(b *bot.Bot) {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Gateway ready, serving %d guild(s).", len(r.Guilds))
		b.SignalReady()
	})

	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			if h, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
				h(s, i)
			}
		case discordgo.InteractionMessageComponent:
			handleComponent(s, i, b)
		}
	})

	b.Session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		if err := guilddb.EnsureGuild(b.DB, g.ID); err != nil {
			log.Printf("Could not register guild %s: %v", g.ID, err)
		}
	})

	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r.UserID == b.BotUserID {
			return
		}
		handleReactionAdd(s, r, b)
	})

	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
		if r.UserID == b.BotUserID {
			return
		}
		handleReactionRemove(s, r, b)
	})

	b.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.GuildID == "" || m.Author == nil || m.Author.Bot {
			return
		}
		day := statsdb.DayKey(time.Now())
		if err := statsdb.IncrementMessageCount(b.DB, m.GuildID, m.Author.ID, day); err != nil {
			log.Printf("Could not count message from %s in guild %s: %v", m.Author.ID, m.GuildID, err)
		}
	})

	b.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageDelete) {
		handleMessageDelete(s, m, b)
	})

	b.Session.AddHandler(func(s *discordgo.Session, c *discordgo.ChannelDelete) {
		handleChannelDelete(s, c, b)
	})
}

func handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	if i.Member == nil {
		return
	}
	customID := i.MessageComponentData().CustomID
	switch customID {
	case "ticket_create", "ticket_assign", "ticket_close", "ticket_transcript":
		ticket.HandleComponent(s, i, b, customID)
	}
}

func handleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd, b *bot.Bot) {
	emoji := r.Emoji.APIName()

	if err := b.Polls.HandleReactionAdd(r.ChannelID, r.MessageID, r.UserID, emoji); err != nil {
		log.Printf("Poll reaction add on message %s failed: %v", r.MessageID, err)
	}

	binding, err := roledb.GetReactionRole(b.DB, r.MessageID, emoji)
	if err != nil {
		log.Printf("Reaction role lookup for message %s failed: %v", r.MessageID, err)
		return
	}
	if binding == nil {
		return
	}
	if err := s.GuildMemberRoleAdd(r.GuildID, r.UserID, binding.RoleID); err != nil {
		log.Printf("Could not grant role %s to %s: %v", binding.RoleID, r.UserID, err)
	}
}

func handleReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove, b *bot.Bot) {
	emoji := r.Emoji.APIName()

	if err := b.Polls.HandleReactionRemove(r.MessageID, r.UserID, emoji); err != nil {
		log.Printf("Poll reaction remove on message %s failed: %v", r.MessageID, err)
	}

	binding, err := roledb.GetReactionRole(b.DB, r.MessageID, emoji)
	if err != nil || binding == nil {
		return
	}
	if err := s.GuildMemberRoleRemove(r.GuildID, r.UserID, binding.RoleID); err != nil {
		log.Printf("Could not revoke role %s from %s: %v", binding.RoleID, r.UserID, err)
	}
}

// handleMessageDelete detects out-of-band removal of tracked messages:
// a deleted ticket panel is logged to the private stream and its
// registration dropped, and reaction role bindings on the message are
// pruned.
func handleMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete, b *bot.Bot) {
	panel, err := ticketdb.GetPanel(b.DB, m.ID)
	if err != nil {
		log.Printf("Panel lookup for deleted message %s failed: %v", m.ID, err)
	}
	if panel != nil {
		cfg, err := guilddb.GetGuildConfig(b.DB, panel.GuildID)
		if err == nil && cfg != nil && cfg.PrivateLogChannelID != "" {
			err := utils.LogWarn(s, cfg.PrivateLogChannelID, "Tickets", "Panel deleted",
				"A ticket panel in <#"+panel.ChannelID+"> was deleted outside the bot.")
			utils.MustLog(err)
		}
		if _, err := ticketdb.RemovePanel(b.DB, m.ID); err != nil {
			log.Printf("Could not unregister deleted panel %s: %v", m.ID, err)
		}
	}

	if err := roledb.RemoveByMessage(b.DB, m.ID); err != nil {
		log.Printf("Could not prune reaction roles of deleted message %s: %v", m.ID, err)
	}
}

// handleChannelDelete drops panel registrations that went down with their
// channel; their message-delete events never arrive.
func handleChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete, b *bot.Bot) {
	panels, err := ticketdb.PanelsInChannel(b.DB, c.ID)
	if err != nil {
		log.Printf("Panel lookup for deleted channel %s failed: %v", c.ID, err)
		return
	}
	for _, panel := range panels {
		if _, err := ticketdb.RemovePanel(b.DB, panel.MessageID); err != nil {
			log.Printf("Could not unregister panel %s of deleted channel %s: %v", panel.MessageID, c.ID, err)
		}
	}
}
