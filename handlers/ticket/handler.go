// Package ticket handles the ticket slash commands, the panel commands
// and the ticket button components.
package ticket

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"moderation-bot/bot"
	"moderation-bot/tickets"
	"moderation-bot/utils"
	"moderation-bot/utils/database/ticketdb"

	"github.com/bwmarrin/discordgo"
)

func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		opts[opt.Name] = opt
	}
	return opts
}

// HandleCommand runs /ticket add|close|del.
func HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	_, cfg := utils.GuildPermission(b.DB, i.GuildID, i.Member)
	isStaff := utils.IsStaff(i.Member, cfg.AdminRoles(), cfg.ModeratorRoles())

	opts := optionMap(i.ApplicationCommandData())
	action := opts["action"].StringValue()

	switch action {
	case "add":
		creator := i.Member.User
		if opt, ok := opts["creator"]; ok {
			if !isStaff {
				utils.SendErrorResponse(s, i, "Only staff may open tickets for other members.")
				return
			}
			// Resolve through the session so the username is available
			// for the channel name.
			creator = opt.UserValue(s)
		}
		if err := utils.DeferResponse(s, i, true); err != nil {
			return
		}
		ticket, err := b.Tickets.Create(i.GuildID, creator.ID, creator.Username, cfg.StaffRoles())
		if err != nil {
			if errors.Is(err, ticketdb.ErrDuplicateOpen) {
				utils.SendFollowUpError(s, i.Interaction, "There is already an open ticket for this member.")
				return
			}
			utils.SendFollowUpError(s, i.Interaction, "Could not open the ticket: "+err.Error())
			return
		}
		utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("🎫 Ticket #%d opened: <#%s>", ticket.TicketID, ticket.ChannelID))

	case "close":
		closeTicket(s, i, b, i.Member.User.ID, isStaff)

	case "del":
		if !isStaff {
			utils.SendErrorResponse(s, i, "Only staff may delete tickets.")
			return
		}
		if err := utils.DeferResponse(s, i, true); err != nil {
			return
		}
		if err := b.Tickets.Delete(i.GuildID, i.ChannelID); err != nil {
			if errors.Is(err, tickets.ErrNotFound) {
				utils.SendFollowUpError(s, i.Interaction, "This channel is not a ticket.")
				return
			}
			utils.SendFollowUpError(s, i.Interaction, "Could not delete the ticket: "+err.Error())
			return
		}
		// The channel is gone along with the interaction; nothing to
		// follow up into.

	default:
		utils.SendErrorResponse(s, i, "Unknown ticket action.")
	}
}

func closeTicket(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, actorID string, actorIsStaff bool) {
	if err := utils.DeferResponse(s, i, true); err != nil {
		return
	}
	ticket, err := b.Tickets.Close(i.GuildID, i.ChannelID, actorID, actorIsStaff)
	if err != nil {
		switch {
		case errors.Is(err, tickets.ErrNotFound):
			utils.SendFollowUpError(s, i.Interaction, "This channel is not a ticket.")
		case errors.Is(err, tickets.ErrAlreadyClosed):
			utils.SendFollowUpError(s, i.Interaction, "This ticket is already closed.")
		case errors.Is(err, tickets.ErrNotAllowed):
			utils.SendFollowUpError(s, i.Interaction, "Only staff or the ticket creator may close it.")
		default:
			utils.SendFollowUpError(s, i.Interaction, "Could not close the ticket: "+err.Error())
		}
		return
	}
	utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("🔒 Ticket #%d closed.", ticket.TicketID))
}

// HandlePanelCommand runs /ticket-panel add|del.
func HandlePanelCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	perm, _ := utils.GuildPermission(b.DB, i.GuildID, i.Member)
	if perm != utils.AdminPermission {
		utils.SendErrorResponse(s, i, "Only admins may manage ticket panels.")
		return
	}

	opts := optionMap(i.ApplicationCommandData())
	channelID := i.ChannelID
	if opt, ok := opts["channel"]; ok {
		channelID = opt.ChannelValue(nil).ID
	}

	switch opts["action"].StringValue() {
	case "add":
		msg, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "🎫 Support",
				Description: "Press the button below to open a private ticket with the staff team.",
				Color:       0x5865F2,
			}},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Open a ticket", Style: discordgo.PrimaryButton, CustomID: "ticket_create"},
				}},
			},
		})
		if err != nil {
			utils.SendErrorResponse(s, i, "Could not post the panel: "+err.Error())
			return
		}
		err = ticketdb.AddPanel(b.DB, ticketdb.Panel{
			MessageID: msg.ID,
			GuildID:   i.GuildID,
			ChannelID: channelID,
			CreatedBy: i.Member.User.ID,
		})
		utils.MustLog(err)
		utils.SendSimpleResponse(s, i, fmt.Sprintf("Panel posted in <#%s>.", channelID))

	case "del":
		opt, ok := opts["message_id"]
		if !ok {
			utils.SendErrorResponse(s, i, "message_id is required to remove a panel.")
			return
		}
		messageID := opt.StringValue()
		removed, err := ticketdb.RemovePanel(b.DB, messageID)
		if err != nil {
			utils.SendErrorResponse(s, i, "Could not remove the panel: "+err.Error())
			return
		}
		if !removed {
			utils.SendErrorResponse(s, i, "That message is not a registered panel.")
			return
		}
		if err := s.ChannelMessageDelete(channelID, messageID); err != nil {
			utils.SendErrorResponse(s, i, "Panel unregistered, but the message could not be deleted: "+err.Error())
			return
		}
		utils.SendSimpleResponse(s, i, "Panel removed.")

	default:
		utils.SendErrorResponse(s, i, "Unknown panel action.")
	}
}

// HandleComponent routes the ticket button presses.
func HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, customID string) {
	_, cfg := utils.GuildPermission(b.DB, i.GuildID, i.Member)
	isStaff := utils.IsStaff(i.Member, cfg.AdminRoles(), cfg.ModeratorRoles())

	switch customID {
	case "ticket_create":
		if err := utils.DeferResponse(s, i, true); err != nil {
			return
		}
		ticket, err := b.Tickets.Create(i.GuildID, i.Member.User.ID, i.Member.User.Username, cfg.StaffRoles())
		if err != nil {
			if errors.Is(err, ticketdb.ErrDuplicateOpen) {
				utils.SendFollowUpError(s, i.Interaction, "You already have an open ticket.")
				return
			}
			utils.SendFollowUpError(s, i.Interaction, "Could not open your ticket: "+err.Error())
			return
		}
		utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("🎫 Your ticket is ready: <#%s>", ticket.ChannelID))

	case "ticket_assign":
		if !isStaff {
			utils.SendErrorResponse(s, i, "Only staff may take tickets.")
			return
		}
		if err := b.Tickets.Assign(i.GuildID, i.ChannelID, i.Member.User.ID); err != nil {
			utils.SendErrorResponse(s, i, "Could not assign the ticket: "+err.Error())
			return
		}
		utils.SendSimpleResponse(s, i, "Ticket assigned to you.")

	case "ticket_close":
		closeTicket(s, i, b, i.Member.User.ID, isStaff)

	case "ticket_transcript":
		sendTranscript(s, i, b, isStaff)
	}
}

func sendTranscript(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, isStaff bool) {
	ticket, err := ticketdb.GetByChannel(b.DB, i.GuildID, i.ChannelID)
	if err != nil || ticket == nil {
		utils.SendErrorResponse(s, i, "This channel is not a ticket.")
		return
	}
	if !isStaff && i.Member.User.ID != ticket.CreatorID {
		utils.SendErrorResponse(s, i, "Only staff or the ticket creator may read the transcript.")
		return
	}

	path := b.Tickets.TranscriptPath(i.ChannelID)
	file, err := os.Open(path)
	if err != nil {
		utils.SendErrorResponse(s, i, "No transcript has been exported for this ticket.")
		return
	}
	defer file.Close()

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("📄 Transcript of ticket #%d", ticket.TicketID),
			Files: []*discordgo.File{{
				Name:        filepath.Base(path),
				ContentType: "text/plain",
				Reader:      file,
			}},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	utils.MustLog(err)
}
