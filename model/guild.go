package model

import "strings"

// GuildConfig is one row per guild. Role id columns are comma separated
// lists, the same encoding the rest of the tables use for id sets.
type GuildConfig struct {
	GuildID             string `db:"guild_id"`
	AdminRoleIDs        string `db:"admin_role_ids"`
	ModeratorRoleIDs    string `db:"moderator_role_ids"`
	PublicLogChannelID  string `db:"public_log_channel_id"`
	PrivateLogChannelID string `db:"private_log_channel_id"`
	ReportLogChannelID  string `db:"report_log_channel_id"`
	CreatedAt           int64  `db:"created_at"`
}

func splitIDs(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (g *GuildConfig) AdminRoles() []string {
	return splitIDs(g.AdminRoleIDs)
}

func (g *GuildConfig) ModeratorRoles() []string {
	return splitIDs(g.ModeratorRoleIDs)
}

// StaffRoles is the union of admin and moderator roles.
func (g *GuildConfig) StaffRoles() []string {
	return append(g.AdminRoles(), g.ModeratorRoles()...)
}
