// Package polls tracks open polls and their participant choices, recorded
// through the platform's reaction events.
package polls

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"moderation-bot/model"
	"moderation-bot/utils/database/polldb"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound   = errors.New("poll not found")
	ErrClosed     = errors.New("poll is already closed")
	ErrNotAllowed = errors.New("not allowed to manage this poll")
	ErrBadOptions = errors.New("polls need between 2 and 3 options")
)

// Gateway is the slice of the platform session the engine needs.
// *discordgo.Session satisfies it.
type Gateway interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error
	MessageReactionsRemoveAll(channelID, messageID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

type Engine struct {
	db         *sqlx.DB
	gw         Gateway
	botUserID  string
	maxOptions int
}

func NewEngine(gw Gateway, db *sqlx.DB, botUserID string, settings model.Settings) *Engine {
	maxOptions := settings.MaxPollOptions
	if maxOptions <= 0 || maxOptions > len(model.PollMarkers) {
		maxOptions = len(model.PollMarkers)
	}
	return &Engine{db: db, gw: gw, botUserID: botUserID, maxOptions: maxOptions}
}

// Open posts the poll message with one selectable marker per option and
// persists the poll row.
func (e *Engine) Open(guildID, channelID, creatorID, content string, options []string, visibility string) (*model.Poll, error) {
	if len(options) < 2 || len(options) > e.maxOptions {
		return nil, ErrBadOptions
	}
	if visibility != model.PollPublic && visibility != model.PollPrivate {
		visibility = model.PollPublic
	}

	pollID := uuid.NewString()[:8]

	embed := &discordgo.MessageEmbed{
		Title:       "📋 Poll",
		Description: content,
		Color:       0x5865F2,
		Footer:      &discordgo.MessageEmbedFooter{Text: "ID: " + pollID},
	}
	for i, opt := range options {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s Option %d", model.PollMarkers[i], i+1),
			Value: opt,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "📊 How to vote",
		Value: "Click a reaction to cast your vote.",
	})

	message, err := e.gw.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to post poll message: %w", err)
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode poll options: %w", err)
	}
	poll := model.Poll{
		PollID:      pollID,
		GuildID:     guildID,
		ChannelID:   channelID,
		MessageID:   message.ID,
		CreatorID:   creatorID,
		Content:     content,
		OptionsJSON: string(optionsJSON),
		Status:      model.PollOpen,
		Visibility:  visibility,
		CreatedAt:   time.Now().Unix(),
	}
	if err := polldb.Insert(e.db, poll); err != nil {
		// Without a row the message is a dead poll; take it down.
		if delErr := e.gw.ChannelMessageDelete(channelID, message.ID); delErr != nil {
			log.Printf("Could not remove orphaned poll message %s: %v", message.ID, delErr)
		}
		return nil, err
	}

	for i := range options {
		if err := e.gw.MessageReactionAdd(channelID, message.ID, model.PollMarkers[i]); err != nil {
			log.Printf("Could not seed reaction %s on poll %s: %v", model.PollMarkers[i], pollID, err)
		}
	}
	return &poll, nil
}

// HandleReactionAdd records a participant choice. Events against unknown
// messages are ignored; choices on a closed poll are reversed and the user
// is told why.
func (e *Engine) HandleReactionAdd(channelID, messageID, userID, emoji string) error {
	if userID == e.botUserID {
		return nil
	}
	poll, err := polldb.GetByMessage(e.db, messageID)
	if err != nil {
		return err
	}
	if poll == nil || !e.validMarker(poll, emoji) {
		return nil
	}
	if poll.Status == model.PollClosed {
		e.compensateClosedVote(poll, channelID, messageID, userID, emoji)
		return nil
	}
	return polldb.AddVote(e.db, model.PollVote{PollID: poll.PollID, UserID: userID, OptionMarker: emoji})
}

// HandleReactionRemove retracts a participant choice while the poll is
// open. Closed polls keep their tuples for historical tallying.
func (e *Engine) HandleReactionRemove(messageID, userID, emoji string) error {
	if userID == e.botUserID {
		return nil
	}
	poll, err := polldb.GetByMessage(e.db, messageID)
	if err != nil {
		return err
	}
	if poll == nil || poll.Status == model.PollClosed || !e.validMarker(poll, emoji) {
		return nil
	}
	return polldb.RemoveVote(e.db, model.PollVote{PollID: poll.PollID, UserID: userID, OptionMarker: emoji})
}

func (e *Engine) validMarker(poll *model.Poll, emoji string) bool {
	options, err := poll.Options()
	if err != nil {
		log.Printf("Poll %s has undecodable options: %v", poll.PollID, err)
		return false
	}
	for i := range options {
		if model.PollMarkers[i] == emoji {
			return true
		}
	}
	return false
}

func (e *Engine) compensateClosedVote(poll *model.Poll, channelID, messageID, userID, emoji string) {
	if err := e.gw.MessageReactionRemove(channelID, messageID, emoji, userID); err != nil {
		log.Printf("Could not reverse late vote on closed poll %s: %v", poll.PollID, err)
	}
	dm, err := e.gw.UserChannelCreate(userID)
	if err != nil {
		log.Printf("Could not open DM channel to user %s: %v", userID, err)
		return
	}
	notice := &discordgo.MessageEmbed{
		Title:       "🔒 Poll closed",
		Description: fmt.Sprintf("Poll `%s` has already been closed; your vote was not counted.", poll.PollID),
		Color:       0x99AAB5,
	}
	if _, err := e.gw.ChannelMessageSendEmbed(dm.ID, notice); err != nil {
		log.Printf("Could not notify user %s about closed poll: %v", userID, err)
	}
}
