package polldb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moderation-bot/model"

	"github.com/jmoiron/sqlx"
)

// Insert persists a new poll row.
func Insert(db *sqlx.DB, poll model.Poll) error {
	if poll.CreatedAt == 0 {
		poll.CreatedAt = time.Now().Unix()
	}
	query := `INSERT INTO polls (poll_id, guild_id, channel_id, message_id, creator_id, content, options, status, visibility, created_at)
	          VALUES (:poll_id, :guild_id, :channel_id, :message_id, :creator_id, :content, :options, :status, :visibility, :created_at)`
	if _, err := db.NamedExec(query, poll); err != nil {
		return fmt.Errorf("failed to insert poll %s: %w", poll.PollID, err)
	}
	return nil
}

// GetByID returns a poll by id, nil when none.
func GetByID(db *sqlx.DB, guildID, pollID string) (*model.Poll, error) {
	var p model.Poll
	err := db.Get(&p, `SELECT * FROM polls WHERE guild_id = ? AND poll_id = ?`, guildID, pollID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll %s: %w", pollID, err)
	}
	return &p, nil
}

// GetByMessage resolves the poll a reaction event refers to, nil when the
// message is not a poll.
func GetByMessage(db *sqlx.DB, messageID string) (*model.Poll, error) {
	var p model.Poll
	err := db.Get(&p, `SELECT * FROM polls WHERE message_id = ?`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll by message %s: %w", messageID, err)
	}
	return &p, nil
}

// LatestOpenByCreator returns the creator's newest open poll in the guild.
func LatestOpenByCreator(db *sqlx.DB, guildID, creatorID string) (*model.Poll, error) {
	var p model.Poll
	query := `SELECT * FROM polls WHERE guild_id = ? AND creator_id = ? AND status = ? ORDER BY created_at DESC LIMIT 1`
	err := db.Get(&p, query, guildID, creatorID, model.PollOpen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open poll for creator %s: %w", creatorID, err)
	}
	return &p, nil
}

// Close flips a poll to CLOSED and reports whether it was still open.
func Close(db *sqlx.DB, pollID string) (bool, error) {
	result, err := db.Exec(`UPDATE polls SET status = ? WHERE poll_id = ? AND status = ?`,
		model.PollClosed, pollID, model.PollOpen)
	if err != nil {
		return false, fmt.Errorf("failed to close poll %s: %w", pollID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected for poll %s: %w", pollID, err)
	}
	return affected > 0, nil
}

// AddVote records a participant choice. Re-adding an existing choice is a
// no-op so replayed reaction events stay idempotent.
func AddVote(db *sqlx.DB, vote model.PollVote) error {
	query := `INSERT INTO poll_votes (poll_id, user_id, option_marker) VALUES (:poll_id, :user_id, :option_marker)
	          ON CONFLICT(poll_id, user_id, option_marker) DO NOTHING`
	if _, err := db.NamedExec(query, vote); err != nil {
		return fmt.Errorf("failed to add vote to poll %s: %w", vote.PollID, err)
	}
	return nil
}

// RemoveVote deletes a participant choice.
func RemoveVote(db *sqlx.DB, vote model.PollVote) error {
	query := `DELETE FROM poll_votes WHERE poll_id = ? AND user_id = ? AND option_marker = ?`
	if _, err := db.Exec(query, vote.PollID, vote.UserID, vote.OptionMarker); err != nil {
		return fmt.Errorf("failed to remove vote from poll %s: %w", vote.PollID, err)
	}
	return nil
}

// Votes returns all participant tuples of a poll.
func Votes(db *sqlx.DB, pollID string) ([]model.PollVote, error) {
	var votes []model.PollVote
	if err := db.Select(&votes, `SELECT * FROM poll_votes WHERE poll_id = ?`, pollID); err != nil {
		return nil, fmt.Errorf("failed to get votes for poll %s: %w", pollID, err)
	}
	return votes, nil
}
