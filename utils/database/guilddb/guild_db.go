package guilddb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moderation-bot/model"

	"github.com/jmoiron/sqlx"
)

// EnsureGuild creates the config row for a guild on first sight. Existing
// rows are left untouched.
func EnsureGuild(db *sqlx.DB, guildID string) error {
	query := `INSERT INTO guild_configs (guild_id, created_at) VALUES (?, ?)
	          ON CONFLICT(guild_id) DO NOTHING`
	if _, err := db.Exec(query, guildID, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to ensure guild config for %s: %w", guildID, err)
	}
	return nil
}

// GetGuildConfig returns the config row for a guild, or nil when the guild
// has never been registered.
func GetGuildConfig(db *sqlx.DB, guildID string) (*model.GuildConfig, error) {
	var cfg model.GuildConfig
	err := db.Get(&cfg, "SELECT * FROM guild_configs WHERE guild_id = ?", guildID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config for %s: %w", guildID, err)
	}
	return &cfg, nil
}

var logColumns = map[string]string{
	"public":  "public_log_channel_id",
	"private": "private_log_channel_id",
	"report":  "report_log_channel_id",
}

// SetLogChannel stores the channel for one of the named log kinds
// (public, private, report), creating the guild row if needed.
func SetLogChannel(db *sqlx.DB, guildID, kind, channelID string) error {
	column, ok := logColumns[kind]
	if !ok {
		return fmt.Errorf("unknown log channel kind %q", kind)
	}
	query := fmt.Sprintf(`INSERT INTO guild_configs (guild_id, %s, created_at) VALUES (?, ?, ?)
	          ON CONFLICT(guild_id) DO UPDATE SET %s = excluded.%s`, column, column, column)
	if _, err := db.Exec(query, guildID, channelID, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to set %s log channel for guild %s: %w", kind, guildID, err)
	}
	return nil
}

// SetAdminRoles replaces the admin role set for a guild.
func SetAdminRoles(db *sqlx.DB, guildID, roleIDs string) error {
	query := `INSERT INTO guild_configs (guild_id, admin_role_ids, created_at) VALUES (?, ?, ?)
	          ON CONFLICT(guild_id) DO UPDATE SET admin_role_ids = excluded.admin_role_ids`
	if _, err := db.Exec(query, guildID, roleIDs, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to set admin roles for guild %s: %w", guildID, err)
	}
	return nil
}

// SetModeratorRoles replaces the moderator role set for a guild.
func SetModeratorRoles(db *sqlx.DB, guildID, roleIDs string) error {
	query := `INSERT INTO guild_configs (guild_id, moderator_role_ids, created_at) VALUES (?, ?, ?)
	          ON CONFLICT(guild_id) DO UPDATE SET moderator_role_ids = excluded.moderator_role_ids`
	if _, err := db.Exec(query, guildID, roleIDs, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to set moderator roles for guild %s: %w", guildID, err)
	}
	return nil
}
