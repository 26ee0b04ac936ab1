package model

import (
	"encoding/json"
	"fmt"
)

// Poll statuses and visibility.
const (
	PollOpen   = "OPEN"
	PollClosed = "CLOSED"

	PollPublic  = "PUBLIC"
	PollPrivate = "PRIVATE"
)

// PollMarkers are the selectable reaction markers, one per option.
var PollMarkers = []string{"1️⃣", "2️⃣", "3️⃣"}

// Poll is one open or closed poll. Options are stored as a JSON array.
type Poll struct {
	PollID      string `db:"poll_id"`
	GuildID     string `db:"guild_id"`
	ChannelID   string `db:"channel_id"`
	MessageID   string `db:"message_id"`
	CreatorID   string `db:"creator_id"`
	Content     string `db:"content"`
	OptionsJSON string `db:"options"`
	Status      string `db:"status"`
	Visibility  string `db:"visibility"`
	CreatedAt   int64  `db:"created_at"`
}

func (p *Poll) Options() ([]string, error) {
	var opts []string
	if err := json.Unmarshal([]byte(p.OptionsJSON), &opts); err != nil {
		return nil, fmt.Errorf("failed to decode options for poll %s: %w", p.PollID, err)
	}
	return opts, nil
}

// PollVote is one participant choice. A user may hold several markers on the
// same poll at once; the primary key spans all three columns.
type PollVote struct {
	PollID       string `db:"poll_id"`
	UserID       string `db:"user_id"`
	OptionMarker string `db:"option_marker"`
}
