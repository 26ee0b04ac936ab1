package ticketdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Panel is one posted ticket panel message. Tracked so out-of-band panel
// deletion can be detected from the bare message-delete event.
type Panel struct {
	MessageID string `db:"message_id"`
	GuildID   string `db:"guild_id"`
	ChannelID string `db:"channel_id"`
	CreatedBy string `db:"created_by"`
	CreatedAt int64  `db:"created_at"`
}

// AddPanel registers a posted panel message.
func AddPanel(db *sqlx.DB, panel Panel) error {
	if panel.CreatedAt == 0 {
		panel.CreatedAt = time.Now().Unix()
	}
	query := `INSERT INTO ticket_panels (message_id, guild_id, channel_id, created_by, created_at)
	          VALUES (:message_id, :guild_id, :channel_id, :created_by, :created_at)
	          ON CONFLICT(message_id) DO NOTHING`
	if _, err := db.NamedExec(query, panel); err != nil {
		return fmt.Errorf("failed to add ticket panel: %w", err)
	}
	return nil
}

// GetPanel resolves a panel by message id, nil when the message is not a
// panel.
func GetPanel(db *sqlx.DB, messageID string) (*Panel, error) {
	var p Panel
	err := db.Get(&p, `SELECT * FROM ticket_panels WHERE message_id = ?`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket panel %s: %w", messageID, err)
	}
	return &p, nil
}

// RemovePanel drops a panel registration and reports whether it existed.
func RemovePanel(db *sqlx.DB, messageID string) (bool, error) {
	result, err := db.Exec(`DELETE FROM ticket_panels WHERE message_id = ?`, messageID)
	if err != nil {
		return false, fmt.Errorf("failed to remove ticket panel %s: %w", messageID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected for panel %s: %w", messageID, err)
	}
	return affected > 0, nil
}

// PanelsInChannel lists the registered panels of one channel.
func PanelsInChannel(db *sqlx.DB, channelID string) ([]Panel, error) {
	var panels []Panel
	if err := db.Select(&panels, `SELECT * FROM ticket_panels WHERE channel_id = ?`, channelID); err != nil {
		return nil, fmt.Errorf("failed to list panels in channel %s: %w", channelID, err)
	}
	return panels, nil
}
