package roledb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moderation-bot/model"

	"github.com/jmoiron/sqlx"
)

// AddReactionRole binds an emoji on a panel message to a role. A second
// bind of the same emoji on the same message replaces the role.
func AddReactionRole(db *sqlx.DB, rr model.ReactionRole) error {
	if rr.CreatedAt == 0 {
		rr.CreatedAt = time.Now().Unix()
	}
	query := `INSERT INTO reaction_roles (guild_id, channel_id, message_id, emoji, role_id, created_at)
	          VALUES (:guild_id, :channel_id, :message_id, :emoji, :role_id, :created_at)
	          ON CONFLICT(message_id, emoji) DO UPDATE SET role_id = excluded.role_id`
	if _, err := db.NamedExec(query, rr); err != nil {
		return fmt.Errorf("failed to add reaction role: %w", err)
	}
	return nil
}

// GetReactionRole resolves the role bound to an emoji on a message, nil
// when the message is not a reaction role panel.
func GetReactionRole(db *sqlx.DB, messageID, emoji string) (*model.ReactionRole, error) {
	var rr model.ReactionRole
	err := db.Get(&rr, `SELECT * FROM reaction_roles WHERE message_id = ? AND emoji = ?`, messageID, emoji)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reaction role for message %s: %w", messageID, err)
	}
	return &rr, nil
}

// RemoveByMessage drops every binding on a deleted panel message.
func RemoveByMessage(db *sqlx.DB, messageID string) error {
	if _, err := db.Exec(`DELETE FROM reaction_roles WHERE message_id = ?`, messageID); err != nil {
		return fmt.Errorf("failed to remove reaction roles for message %s: %w", messageID, err)
	}
	return nil
}
