package utils

import "github.com/bwmarrin/discordgo"

// Permission levels, most privileged first.
const (
	AdminPermission     = "admin"
	ModeratorPermission = "moderator"
	GuestPermission     = "guest"
)

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func hasAnyRole(memberRoles, wanted []string) bool {
	for _, r := range memberRoles {
		if contains(wanted, r) {
			return true
		}
	}
	return false
}

// CheckPermission resolves a member's permission level from the guild's
// configured role sets. Members with the platform administrator bit are
// always admins regardless of configuration.
func CheckPermission(member *discordgo.Member, adminRoleIDs, moderatorRoleIDs []string) string {
	if member == nil {
		return GuestPermission
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return AdminPermission
	}
	if hasAnyRole(member.Roles, adminRoleIDs) {
		return AdminPermission
	}
	if hasAnyRole(member.Roles, moderatorRoleIDs) {
		return ModeratorPermission
	}
	return GuestPermission
}

// IsStaff reports whether the member holds admin or moderator standing.
func IsStaff(member *discordgo.Member, adminRoleIDs, moderatorRoleIDs []string) bool {
	return CheckPermission(member, adminRoleIDs, moderatorRoleIDs) != GuestPermission
}
