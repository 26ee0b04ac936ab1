package utils

import (
	"log"

	"moderation-bot/model"
	"moderation-bot/utils/database/guilddb"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
)

// GuildPermission loads a guild's config row and resolves the member's
// permission level against it. A missing row degrades to an empty config
// so the administrator-bit check still applies.
func GuildPermission(db *sqlx.DB, guildID string, member *discordgo.Member) (string, *model.GuildConfig) {
	cfg, err := guilddb.GetGuildConfig(db, guildID)
	if err != nil {
		log.Printf("Could not load config for guild %s: %v", guildID, err)
	}
	if cfg == nil {
		cfg = &model.GuildConfig{GuildID: guildID}
	}
	return CheckPermission(member, cfg.AdminRoles(), cfg.ModeratorRoles()), cfg
}
