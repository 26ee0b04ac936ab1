package statsdb

import (
	"fmt"
	"time"

	"moderation-bot/model"

	"github.com/jmoiron/sqlx"
)

// UpsertSchedule sets or replaces a guild's digest schedule.
func UpsertSchedule(db *sqlx.DB, guildID, channelID, period string) error {
	query := `INSERT INTO stats_schedule (guild_id, channel_id, period) VALUES (?, ?, ?)
	          ON CONFLICT(guild_id) DO UPDATE SET channel_id = excluded.channel_id, period = excluded.period`
	if _, err := db.Exec(query, guildID, channelID, period); err != nil {
		return fmt.Errorf("failed to upsert stats schedule for guild %s: %w", guildID, err)
	}
	return nil
}

// ListSchedules returns every digest schedule.
func ListSchedules(db *sqlx.DB) ([]model.StatsSchedule, error) {
	var schedules []model.StatsSchedule
	if err := db.Select(&schedules, `SELECT * FROM stats_schedule`); err != nil {
		return nil, fmt.Errorf("failed to list stats schedules: %w", err)
	}
	return schedules, nil
}

// UpdateLastSent records a successful digest delivery.
func UpdateLastSent(db *sqlx.DB, guildID string, sentAt time.Time) error {
	if _, err := db.Exec(`UPDATE stats_schedule SET last_sent = ? WHERE guild_id = ?`, sentAt.Unix(), guildID); err != nil {
		return fmt.Errorf("failed to update last_sent for guild %s: %w", guildID, err)
	}
	return nil
}

// DayKey buckets a timestamp for the message activity counters.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// IncrementMessageCount bumps a member's daily message counter.
func IncrementMessageCount(db *sqlx.DB, guildID, userID, day string) error {
	query := `INSERT INTO user_stats (guild_id, user_id, day, message_count) VALUES (?, ?, ?, 1)
	          ON CONFLICT(guild_id, user_id, day) DO UPDATE SET message_count = message_count + 1`
	if _, err := db.Exec(query, guildID, userID, day); err != nil {
		return fmt.Errorf("failed to count message for user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// Activity is the aggregated message traffic of a window.
type Activity struct {
	Messages    int `db:"messages"`
	ActiveUsers int `db:"active_users"`
}

// ActivitySince sums a guild's message traffic from the given day key on.
func ActivitySince(db *sqlx.DB, guildID, sinceDay string) (Activity, error) {
	var activity Activity
	query := `SELECT COALESCE(SUM(message_count), 0) AS messages, COUNT(DISTINCT user_id) AS active_users
	          FROM user_stats WHERE guild_id = ? AND day >= ?`
	if err := db.Get(&activity, query, guildID, sinceDay); err != nil {
		return Activity{}, fmt.Errorf("failed to sum activity for guild %s: %w", guildID, err)
	}
	return activity, nil
}

// TopPoster is one entry of the most-active-members ranking.
type TopPoster struct {
	UserID   string `db:"user_id"`
	Messages int    `db:"messages"`
}

// TopPosters ranks a guild's most active members from the given day key on.
func TopPosters(db *sqlx.DB, guildID, sinceDay string, limit int) ([]TopPoster, error) {
	var posters []TopPoster
	query := `SELECT user_id, SUM(message_count) AS messages FROM user_stats
	          WHERE guild_id = ? AND day >= ?
	          GROUP BY user_id ORDER BY messages DESC LIMIT ?`
	if err := db.Select(&posters, query, guildID, sinceDay, limit); err != nil {
		return nil, fmt.Errorf("failed to rank posters for guild %s: %w", guildID, err)
	}
	return posters, nil
}

// AddReport stores a user report and returns its id.
func AddReport(db *sqlx.DB, report model.Report) (int64, error) {
	if report.CreatedAt == 0 {
		report.CreatedAt = time.Now().Unix()
	}
	query := `INSERT INTO reports (guild_id, reporter_id, target_type, target_id, content, created_at)
	          VALUES (:guild_id, :reporter_id, :target_type, :target_id, :content, :created_at)`
	result, err := db.NamedExec(query, report)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}
