package model

// Moderation action kinds as stored in the mod_logs table.
const (
	ActionBan       = "BAN"
	ActionKick      = "KICK"
	ActionTimeout   = "TIMEOUT"
	ActionUnban     = "UNBAN"
	ActionUntimeout = "UNTIMEOUT"
)

// Timeout duration bounds in minutes. 40320 is the platform maximum (28 days).
const (
	TimeoutMinMinutes = 1
	TimeoutMaxMinutes = 40320
)

// ReasonOther marks the free-text reason code; it requires a detail string.
const ReasonOther = "other"

// ModLog is an immutable moderation record. Rows are appended after a
// successful enforcement call and never updated or deleted.
type ModLog struct {
	LogID           int64  `db:"log_id"` // Primary Key, Auto-increment
	GuildID         string `db:"guild_id"`
	TargetID        string `db:"target_id"`
	ExecutorID      string `db:"executor_id"`
	Action          string `db:"action"`
	Reason          string `db:"reason"`
	DurationMinutes int64  `db:"duration_minutes"` // 0 for actions without a duration
	CreatedAt       int64  `db:"created_at"`
}

// Report is a user-filed report, forwarded to the report log channel.
type Report struct {
	ReportID   int64  `db:"report_id"` // Primary Key, Auto-increment
	GuildID    string `db:"guild_id"`
	ReporterID string `db:"reporter_id"`
	TargetType string `db:"target_type"` // "user" or "message"
	TargetID   string `db:"target_id"`
	Content    string `db:"content"`
	CreatedAt  int64  `db:"created_at"`
}
