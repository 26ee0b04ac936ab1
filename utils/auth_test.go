package utils

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestCheckPermission(t *testing.T) {
	adminRoles := []string{"r-admin"}
	modRoles := []string{"r-mod"}

	assert.Equal(t, GuestPermission, CheckPermission(nil, adminRoles, modRoles))
	assert.Equal(t, GuestPermission,
		CheckPermission(&discordgo.Member{Roles: []string{"r-other"}}, adminRoles, modRoles))
	assert.Equal(t, ModeratorPermission,
		CheckPermission(&discordgo.Member{Roles: []string{"r-mod"}}, adminRoles, modRoles))
	assert.Equal(t, AdminPermission,
		CheckPermission(&discordgo.Member{Roles: []string{"r-admin", "r-mod"}}, adminRoles, modRoles))
}

func TestAdministratorBitOverridesConfig(t *testing.T) {
	member := &discordgo.Member{Permissions: discordgo.PermissionAdministrator}
	assert.Equal(t, AdminPermission, CheckPermission(member, nil, nil))
}

func TestIsStaff(t *testing.T) {
	modRoles := []string{"r-mod"}
	assert.True(t, IsStaff(&discordgo.Member{Roles: modRoles}, nil, modRoles))
	assert.False(t, IsStaff(&discordgo.Member{}, nil, modRoles))
}
