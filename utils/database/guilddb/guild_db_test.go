package guilddb

import (
	"testing"

	"moderation-bot/utils/database"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEnsureGuildIsIdempotent(t *testing.T) {
	db := testDB(t)

	require.NoError(t, EnsureGuild(db, "g1"))
	require.NoError(t, SetAdminRoles(db, "g1", "r1,r2"))
	// A second ensure must not reset existing configuration.
	require.NoError(t, EnsureGuild(db, "g1"))

	cfg, err := GetGuildConfig(db, "g1")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, []string{"r1", "r2"}, cfg.AdminRoles())
}

func TestGetGuildConfigUnknownGuild(t *testing.T) {
	db := testDB(t)

	cfg, err := GetGuildConfig(db, "nope")
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestSetLogChannel(t *testing.T) {
	db := testDB(t)

	require.NoError(t, SetLogChannel(db, "g1", "public", "c-pub"))
	require.NoError(t, SetLogChannel(db, "g1", "private", "c-priv"))
	require.NoError(t, SetLogChannel(db, "g1", "report", "c-rep"))

	cfg, err := GetGuildConfig(db, "g1")
	require.NoError(t, err)
	assert.Equal(t, "c-pub", cfg.PublicLogChannelID)
	assert.Equal(t, "c-priv", cfg.PrivateLogChannelID)
	assert.Equal(t, "c-rep", cfg.ReportLogChannelID)

	// Re-routing replaces, never duplicates.
	require.NoError(t, SetLogChannel(db, "g1", "public", "c-pub2"))
	cfg, err = GetGuildConfig(db, "g1")
	require.NoError(t, err)
	assert.Equal(t, "c-pub2", cfg.PublicLogChannelID)
	assert.Equal(t, "c-priv", cfg.PrivateLogChannelID)

	assert.Error(t, SetLogChannel(db, "g1", "audit", "c"))
}

func TestStaffRolesUnion(t *testing.T) {
	db := testDB(t)

	require.NoError(t, SetAdminRoles(db, "g1", "a1"))
	require.NoError(t, SetModeratorRoles(db, "g1", "m1, m2"))

	cfg, err := GetGuildConfig(db, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "m1", "m2"}, cfg.StaffRoles())
}
