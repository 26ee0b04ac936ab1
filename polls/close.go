package polls

import (
	"fmt"
	"log"
	"strings"

	"moderation-bot/model"
	"moderation-bot/utils/database/polldb"

	"github.com/bwmarrin/discordgo"
)

// Tally is the per-option result of a closed poll.
type Tally struct {
	Marker  string
	Option  string
	Votes   int
	Percent float64
	Voters  []string
}

// Resolve finds the poll to close: by id when given, otherwise the actor's
// newest open poll.
func (e *Engine) Resolve(guildID, pollID, actorID string) (*model.Poll, error) {
	if pollID != "" {
		poll, err := polldb.GetByID(e.db, guildID, pollID)
		if err != nil {
			return nil, err
		}
		if poll == nil {
			return nil, ErrNotFound
		}
		return poll, nil
	}
	poll, err := polldb.LatestOpenByCreator(e.db, guildID, actorID)
	if err != nil {
		return nil, err
	}
	if poll == nil {
		return nil, ErrNotFound
	}
	return poll, nil
}

// Close tallies the participant tuples, renders the results into the
// original message, strips the reactions and flips the poll to CLOSED.
func (e *Engine) Close(guildID, pollID, actorID string, actorIsStaff bool) (*model.Poll, []Tally, error) {
	poll, err := e.Resolve(guildID, pollID, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !actorIsStaff && poll.CreatorID != actorID {
		return nil, nil, ErrNotAllowed
	}
	if poll.Status == model.PollClosed {
		return nil, nil, ErrClosed
	}

	tallies, total, err := e.tally(poll)
	if err != nil {
		return nil, nil, err
	}

	changed, err := polldb.Close(e.db, poll.PollID)
	if err != nil {
		return nil, nil, err
	}
	if !changed {
		return nil, nil, ErrClosed
	}
	poll.Status = model.PollClosed

	e.publishResults(poll, tallies, total)
	return poll, tallies, nil
}

func (e *Engine) tally(poll *model.Poll) ([]Tally, int, error) {
	options, err := poll.Options()
	if err != nil {
		return nil, 0, err
	}
	votes, err := polldb.Votes(e.db, poll.PollID)
	if err != nil {
		return nil, 0, err
	}

	tallies := make([]Tally, len(options))
	for i, opt := range options {
		tallies[i] = Tally{Marker: model.PollMarkers[i], Option: opt}
	}
	total := 0
	for _, v := range votes {
		for i := range tallies {
			if tallies[i].Marker == v.OptionMarker {
				tallies[i].Votes++
				tallies[i].Voters = append(tallies[i].Voters, v.UserID)
				total++
			}
		}
	}
	for i := range tallies {
		if total > 0 {
			tallies[i].Percent = float64(tallies[i].Votes) / float64(total) * 100
		}
	}
	return tallies, total, nil
}

func (e *Engine) publishResults(poll *model.Poll, tallies []Tally, total int) {
	embed := &discordgo.MessageEmbed{
		Title:       "🔒 Poll closed",
		Description: poll.Content,
		Color:       0x99AAB5,
		Footer:      &discordgo.MessageEmbedFooter{Text: "ID: " + poll.PollID},
	}
	for _, t := range tallies {
		value := fmt.Sprintf("%d votes (%.1f%%)", t.Votes, t.Percent)
		if poll.Visibility == model.PollPublic && len(t.Voters) > 0 {
			mentions := make([]string, len(t.Voters))
			for i, id := range t.Voters {
				mentions[i] = "<@" + id + ">"
			}
			value += "\n" + strings.Join(mentions, " ")
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s %s", t.Marker, t.Option),
			Value: value,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "📊 Total votes",
		Value: fmt.Sprintf("%d", total),
	})

	if _, err := e.gw.ChannelMessageEditEmbed(poll.ChannelID, poll.MessageID, embed); err != nil {
		log.Printf("Could not edit poll message %s with results: %v", poll.MessageID, err)
	}
	if err := e.gw.MessageReactionsRemoveAll(poll.ChannelID, poll.MessageID); err != nil {
		log.Printf("Could not clear reactions on poll %s: %v", poll.PollID, err)
	}
}
