package ticketdb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"moderation-bot/model"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicateOpen is returned when a creator already owns an open ticket
// in the guild. The partial unique index is the authority; near
// simultaneous creates race to it and the loser gets this error.
var ErrDuplicateOpen = errors.New("creator already has an open ticket")

// Insert creates an OPEN ticket row and returns its id. The channel id is
// patched in afterwards with SetChannel, once the channel exists.
func Insert(db *sqlx.DB, guildID, creatorID string) (int64, error) {
	query := `INSERT INTO tickets (guild_id, creator_id, status, created_at) VALUES (?, ?, ?, ?)`
	result, err := db.Exec(query, guildID, creatorID, model.TicketOpen, time.Now().Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateOpen
		}
		return 0, fmt.Errorf("failed to insert ticket: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	// sqlx may wrap the driver error in plain text on some paths.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// SetChannel records the owning channel of a freshly created ticket.
func SetChannel(db *sqlx.DB, ticketID int64, channelID string) error {
	if _, err := db.Exec(`UPDATE tickets SET channel_id = ? WHERE ticket_id = ?`, channelID, ticketID); err != nil {
		return fmt.Errorf("failed to set channel for ticket %d: %w", ticketID, err)
	}
	return nil
}

// Remove deletes a ticket row and reports whether a row actually existed.
func Remove(db *sqlx.DB, ticketID int64) (bool, error) {
	result, err := db.Exec(`DELETE FROM tickets WHERE ticket_id = ?`, ticketID)
	if err != nil {
		return false, fmt.Errorf("failed to delete ticket %d: %w", ticketID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected for ticket %d: %w", ticketID, err)
	}
	return affected > 0, nil
}

// GetByChannel resolves a ticket by its owning channel, nil when none.
func GetByChannel(db *sqlx.DB, guildID, channelID string) (*model.Ticket, error) {
	var t model.Ticket
	err := db.Get(&t, `SELECT * FROM tickets WHERE guild_id = ? AND channel_id = ?`, guildID, channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket by channel %s: %w", channelID, err)
	}
	return &t, nil
}

// GetOpenByCreator returns the creator's open ticket in the guild, nil when none.
func GetOpenByCreator(db *sqlx.DB, guildID, creatorID string) (*model.Ticket, error) {
	var t model.Ticket
	err := db.Get(&t, `SELECT * FROM tickets WHERE guild_id = ? AND creator_id = ? AND status = ?`,
		guildID, creatorID, model.TicketOpen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open ticket for creator %s: %w", creatorID, err)
	}
	return &t, nil
}

// Close marks an open ticket CLOSED and reports whether the transition
// happened. A second close finds no OPEN row and returns false.
func Close(db *sqlx.DB, ticketID int64, closedAt time.Time) (bool, error) {
	result, err := db.Exec(`UPDATE tickets SET status = ?, closed_at = ? WHERE ticket_id = ? AND status = ?`,
		model.TicketClosed, closedAt.Unix(), ticketID, model.TicketOpen)
	if err != nil {
		return false, fmt.Errorf("failed to close ticket %d: %w", ticketID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected for ticket %d: %w", ticketID, err)
	}
	return affected > 0, nil
}

// ClosedBefore returns all CLOSED tickets whose closed timestamp is at or
// before the cutoff. Used by the expiry sweep.
func ClosedBefore(db *sqlx.DB, cutoff time.Time) ([]model.Ticket, error) {
	var tickets []model.Ticket
	query := `SELECT * FROM tickets WHERE status = ? AND closed_at <= ?`
	if err := db.Select(&tickets, query, model.TicketClosed, cutoff.Unix()); err != nil {
		return nil, fmt.Errorf("failed to get expired tickets: %w", err)
	}
	return tickets, nil
}

// OpenStubsBefore returns OPEN tickets that never got a channel bound and
// are older than the cutoff. Such rows are left behind by a crash between
// the row insert and the channel bind; the expiry sweep prunes them so
// their creators are not locked out by the one-open-ticket index.
func OpenStubsBefore(db *sqlx.DB, cutoff time.Time) ([]model.Ticket, error) {
	var tickets []model.Ticket
	query := `SELECT * FROM tickets WHERE status = ? AND channel_id = '' AND created_at <= ?`
	if err := db.Select(&tickets, query, model.TicketOpen, cutoff.Unix()); err != nil {
		return nil, fmt.Errorf("failed to get stranded ticket rows: %w", err)
	}
	return tickets, nil
}

// CountCreatedSince counts tickets opened in a guild since the given time.
func CountCreatedSince(db *sqlx.DB, guildID string, since time.Time) (int, error) {
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM tickets WHERE guild_id = ? AND created_at >= ?`,
		guildID, since.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets for guild %s: %w", guildID, err)
	}
	return count, nil
}
