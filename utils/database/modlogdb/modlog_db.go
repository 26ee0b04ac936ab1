// Package modlogdb is the single writer of moderation records. Rows are
// append-only; nothing here updates or deletes.
package modlogdb

import (
	"fmt"
	"time"

	"moderation-bot/model"

	"github.com/jmoiron/sqlx"
)

// Add appends a moderation record and returns its id.
func Add(db *sqlx.DB, record model.ModLog) (int64, error) {
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}
	query := `INSERT INTO mod_logs (guild_id, target_id, executor_id, action, reason, duration_minutes, created_at)
	          VALUES (:guild_id, :target_id, :executor_id, :action, :reason, :duration_minutes, :created_at)`
	result, err := db.NamedExec(query, record)
	if err != nil {
		return 0, fmt.Errorf("failed to insert mod log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// CountsByAction returns per-action record counts for a guild, optionally
// restricted to records at or after since.
func CountsByAction(db *sqlx.DB, guildID string, since *time.Time) (map[string]int, error) {
	query := `SELECT action, COUNT(*) as count FROM mod_logs WHERE guild_id = ?`
	args := []interface{}{guildID}
	if since != nil {
		query += " AND created_at >= ?"
		args = append(args, since.Unix())
	}
	query += " GROUP BY action"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count mod logs for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan mod log count row: %w", err)
		}
		counts[action] = count
	}
	return counts, rows.Err()
}

// RecentByTarget returns the newest records for a user in a guild.
func RecentByTarget(db *sqlx.DB, guildID, targetID string, limit int) ([]model.ModLog, error) {
	var records []model.ModLog
	query := `SELECT * FROM mod_logs WHERE guild_id = ? AND target_id = ? ORDER BY created_at DESC LIMIT ?`
	if err := db.Select(&records, query, guildID, targetID, limit); err != nil {
		return nil, fmt.Errorf("failed to get mod logs for user %s in guild %s: %w", targetID, guildID, err)
	}
	return records, nil
}
