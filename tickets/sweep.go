package tickets

import (
	"fmt"
	"log"
	"time"

	"moderation-bot/utils/database/guilddb"
	"moderation-bot/utils/database/ticketdb"

	"github.com/bwmarrin/discordgo"
)

// A crash between the row insert and the channel bind leaves an OPEN row
// with no channel. Rows past this age cannot belong to an in-flight
// create and are safe to prune.
const stubGrace = time.Hour

// SweepExpired deletes the channels of tickets whose close timestamp has
// aged past the retention window, notifying the guild's private log
// channel first. It also prunes stranded channel-less OPEN rows so their
// creators can open tickets again. Individual failures are logged and
// skipped; the batch never aborts. Returns the number of tickets removed.
func (m *Manager) SweepExpired() int {
	removed := m.pruneStubs()

	cutoff := m.now().Add(-m.retention)
	expired, err := ticketdb.ClosedBefore(m.db, cutoff)
	if err != nil {
		log.Printf("Ticket sweep: could not query expired tickets: %v", err)
		return removed
	}

	for _, ticket := range expired {
		m.notifySweep(ticket.GuildID, ticket.ChannelID, ticket.CreatorID)

		if ticket.ChannelID != "" {
			if _, err := m.gw.ChannelDelete(ticket.ChannelID); err != nil && !isChannelGone(err) {
				log.Printf("Ticket sweep: could not delete channel %s for ticket %d: %v",
					ticket.ChannelID, ticket.TicketID, err)
				continue
			}
		}
		// Channel is gone (or never existed); prune the row so the
		// table does not accumulate orphans.
		if _, err := ticketdb.Remove(m.db, ticket.TicketID); err != nil {
			log.Printf("Ticket sweep: could not prune ticket row %d: %v", ticket.TicketID, err)
			continue
		}
		removed++
	}
	return removed
}

func (m *Manager) pruneStubs() int {
	stubs, err := ticketdb.OpenStubsBefore(m.db, m.now().Add(-stubGrace))
	if err != nil {
		log.Printf("Ticket sweep: could not query stranded rows: %v", err)
		return 0
	}
	pruned := 0
	for _, ticket := range stubs {
		if _, err := ticketdb.Remove(m.db, ticket.TicketID); err != nil {
			log.Printf("Ticket sweep: could not prune stranded ticket row %d: %v", ticket.TicketID, err)
			continue
		}
		log.Printf("Ticket sweep: pruned stranded ticket row %d of %s in guild %s",
			ticket.TicketID, ticket.CreatorID, ticket.GuildID)
		pruned++
	}
	return pruned
}

func (m *Manager) notifySweep(guildID, channelID, creatorID string) {
	cfg, err := guilddb.GetGuildConfig(m.db, guildID)
	if err != nil || cfg == nil || cfg.PrivateLogChannelID == "" {
		if err != nil {
			log.Printf("Ticket sweep: could not load guild config for %s: %v", guildID, err)
		}
		return
	}
	embed := &discordgo.MessageEmbed{
		Title: "🧹 Ticket auto-deleted",
		Description: fmt.Sprintf("Ticket channel <#%s> of <@%s> passed the retention window and was removed.",
			channelID, creatorID),
		Color: 0x99AAB5,
	}
	if _, err := m.gw.ChannelMessageSendEmbed(cfg.PrivateLogChannelID, embed); err != nil {
		log.Printf("Ticket sweep: could not notify log channel %s: %v", cfg.PrivateLogChannelID, err)
	}
}
