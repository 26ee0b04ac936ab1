// Package tickets owns the support ticket lifecycle: channel creation,
// assignment, close with transcript export, deletion and timed expiry.
package tickets

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"moderation-bot/model"
	"moderation-bot/utils/database/ticketdb"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound      = errors.New("no ticket is registered for this channel")
	ErrAlreadyClosed = errors.New("ticket is already closed")
	ErrNotAllowed    = errors.New("not allowed to manage this ticket")
)

// Gateway is the slice of the platform session the manager needs.
// *discordgo.Session satisfies it.
type Gateway interface {
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Manager struct {
	db            *sqlx.DB
	gw            Gateway
	botUserID     string
	retention     time.Duration
	transcriptDir string
	categoryName  string
	now           func() time.Time
}

func NewManager(gw Gateway, db *sqlx.DB, botUserID string, settings model.Settings) *Manager {
	return &Manager{
		db:            db,
		gw:            gw,
		botUserID:     botUserID,
		retention:     time.Duration(settings.TicketRetentionDays) * 24 * time.Hour,
		transcriptDir: settings.TranscriptDir,
		categoryName:  settings.TicketCategoryName,
		now:           time.Now,
	}
}

// Create opens a ticket for creator. The row is inserted before the
// channel so a creation race degrades into a duplicate error from the
// store, and a failed channel create is compensated by removing the row.
func (m *Manager) Create(guildID, creatorID, creatorName string, staffRoleIDs []string) (*model.Ticket, error) {
	ticketID, err := ticketdb.Insert(m.db, guildID, creatorID)
	if err != nil {
		return nil, err
	}

	channel, err := m.createTicketChannel(guildID, creatorID, creatorName, ticketID, staffRoleIDs)
	if err != nil {
		if _, removeErr := ticketdb.Remove(m.db, ticketID); removeErr != nil {
			log.Printf("Could not compensate ticket row %d after channel failure: %v", ticketID, removeErr)
		}
		return nil, fmt.Errorf("failed to create ticket channel: %w", err)
	}
	if err := ticketdb.SetChannel(m.db, ticketID, channel.ID); err != nil {
		// The row never learned its channel; neither half is usable.
		if _, delErr := m.gw.ChannelDelete(channel.ID); delErr != nil {
			log.Printf("Could not remove channel %s after bind failure: %v", channel.ID, delErr)
		}
		if _, removeErr := ticketdb.Remove(m.db, ticketID); removeErr != nil {
			log.Printf("Could not compensate ticket row %d after bind failure: %v", ticketID, removeErr)
		}
		return nil, err
	}

	m.postWelcome(channel.ID, ticketID, creatorID)

	return ticketdb.GetByChannel(m.db, guildID, channel.ID)
}

func (m *Manager) createTicketChannel(guildID, creatorID, creatorName string, ticketID int64, staffRoleIDs []string) (*discordgo.Channel, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			// @everyone shares its id with the guild
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    creatorID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles,
		},
		{
			ID:    m.botUserID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionManageChannels,
		},
	}
	for _, roleID := range staffRoleIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	}

	parentID, err := m.ensureCategory(guildID)
	if err != nil {
		log.Printf("Could not resolve ticket category for guild %s: %v", guildID, err)
	}

	name := fmt.Sprintf("ticket-%s-%d", sanitizeChannelName(creatorName), ticketID)
	return m.gw.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                fmt.Sprintf("Support ticket #%d", ticketID),
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
}

func (m *Manager) ensureCategory(guildID string) (string, error) {
	channels, err := m.gw.GuildChannels(guildID)
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && ch.Name == m.categoryName {
			return ch.ID, nil
		}
	}
	category, err := m.gw.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: m.categoryName,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		return "", err
	}
	return category.ID, nil
}

func sanitizeChannelName(name string) string {
	name = strings.ToLower(name)
	name = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			return r
		}
		return '-'
	}, name)
	return strings.Trim(name, "-")
}

func (m *Manager) postWelcome(channelID string, ticketID int64, creatorID string) {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎫 Ticket #%d", ticketID),
		Description: fmt.Sprintf("Welcome <@%s>. Describe your request; staff will respond here.", creatorID),
		Color:       0x57F287,
	}
	_, err := m.gw.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "👮 Assign to me", Style: discordgo.SuccessButton, CustomID: "ticket_assign"},
				discordgo.Button{Label: "🔒 Close", Style: discordgo.DangerButton, CustomID: "ticket_close"},
			}},
		},
	})
	if err != nil {
		log.Printf("Could not post welcome message to ticket channel %s: %v", channelID, err)
	}
}

// Assign announces staff ownership in the channel. Purely advisory; the
// persisted row does not change.
func (m *Manager) Assign(guildID, channelID, staffID string) error {
	ticket, err := ticketdb.GetByChannel(m.db, guildID, channelID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return ErrNotFound
	}
	if ticket.Status == model.TicketClosed {
		return ErrAlreadyClosed
	}
	_, err = m.gw.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("👮 <@%s> is now handling this ticket.", staffID),
		Color:       0x5865F2,
	})
	if err != nil {
		return fmt.Errorf("failed to announce assignment: %w", err)
	}
	return nil
}

// Close exports the transcript, marks the row CLOSED and posts the closure
// notice. Only staff or the original creator may close.
func (m *Manager) Close(guildID, channelID, actorID string, actorIsStaff bool) (*model.Ticket, error) {
	ticket, err := ticketdb.GetByChannel(m.db, guildID, channelID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrNotFound
	}
	if !actorIsStaff && actorID != ticket.CreatorID {
		return nil, ErrNotAllowed
	}
	if ticket.Status == model.TicketClosed {
		return nil, ErrAlreadyClosed
	}

	// Transcript first: the channel history must be captured before
	// anything announces the close.
	if _, err := m.ExportTranscript(channelID); err != nil {
		return nil, err
	}

	closedAt := m.now()
	changed, err := ticketdb.Close(m.db, ticket.TicketID, closedAt)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, ErrAlreadyClosed
	}
	ticket.Status = model.TicketClosed
	ticket.ClosedAt.Valid = true
	ticket.ClosedAt.Int64 = closedAt.Unix()

	retentionDays := int(m.retention.Hours() / 24)
	_, err = m.gw.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "🔒 Ticket closed",
			Description: fmt.Sprintf("Closed by <@%s>. This channel will be deleted automatically after %d days.",
				actorID, retentionDays),
			Color: 0x99AAB5,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "📄 Transcript", Style: discordgo.PrimaryButton, CustomID: "ticket_transcript"},
			}},
		},
	})
	if err != nil {
		log.Printf("Could not post closure notice to channel %s: %v", channelID, err)
	}

	return ticket, nil
}

// Delete removes the row and the channel. Staff only; enforced by the
// caller. The row delete is confirmed before the channel goes away.
func (m *Manager) Delete(guildID, channelID string) error {
	ticket, err := ticketdb.GetByChannel(m.db, guildID, channelID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return ErrNotFound
	}
	removed, err := ticketdb.Remove(m.db, ticket.TicketID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	if _, err := m.gw.ChannelDelete(channelID); err != nil {
		return fmt.Errorf("ticket row removed but channel delete failed: %w", err)
	}
	return nil
}

func isChannelGone(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
