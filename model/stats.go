package model

import "database/sql"

// Digest periods.
const (
	PeriodWeek  = "WEEK"
	PeriodMonth = "MONTH"
)

// StatsSchedule drives periodic digest delivery, one row per guild.
type StatsSchedule struct {
	GuildID   string        `db:"guild_id"`
	ChannelID string        `db:"channel_id"`
	Period    string        `db:"period"`
	LastSent  sql.NullInt64 `db:"last_sent"`
}

// ReactionRole maps an emoji on a panel message to a grantable role.
type ReactionRole struct {
	ID        int64  `db:"id"` // Primary Key, Auto-increment
	GuildID   string `db:"guild_id"`
	ChannelID string `db:"channel_id"`
	MessageID string `db:"message_id"`
	Emoji     string `db:"emoji"`
	RoleID    string `db:"role_id"`
	CreatedAt int64  `db:"created_at"`
}
