package model

import "database/sql"

// Ticket statuses.
const (
	TicketOpen   = "OPEN"
	TicketClosed = "CLOSED"
)

// Ticket is one support ticket and its owning channel. The channel is held
// as an opaque id and re-resolved through the gateway at time of use.
type Ticket struct {
	TicketID  int64         `db:"ticket_id"` // Primary Key, Auto-increment
	GuildID   string        `db:"guild_id"`
	ChannelID string        `db:"channel_id"`
	CreatorID string        `db:"creator_id"`
	Status    string        `db:"status"`
	CreatedAt int64         `db:"created_at"`
	ClosedAt  sql.NullInt64 `db:"closed_at"`
}
