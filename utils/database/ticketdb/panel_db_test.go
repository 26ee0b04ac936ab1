package ticketdb

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

func TestPanelLifecycle(t *testing.T) {
	db := testDB(t)

	panel := Panel{MessageID: "m1", GuildID: "g1", ChannelID: "c1", CreatedBy: "admin"}
	require.NoError(t, AddPanel(db, panel))
	// Re-registering the same message is a no-op.
	require.NoError(t, AddPanel(db, panel))

	got, err := GetPanel(db, "m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "c1", got.ChannelID)
	assert.NotZero(t, got.CreatedAt)

	removed, err := RemovePanel(db, "m1")
	require.NoError(t, err)
	assert.True(t, removed)

	got, err = GetPanel(db, "m1")
	require.NoError(t, err)
	assert.Nil(t, got)

	removed, err = RemovePanel(db, "m1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPanelsInChannel(t *testing.T) {
	db := testDB(t)

	require.NoError(t, AddPanel(db, Panel{MessageID: "m1", GuildID: "g1", ChannelID: "c1", CreatedBy: "admin"}))
	require.NoError(t, AddPanel(db, Panel{MessageID: "m2", GuildID: "g1", ChannelID: "c1", CreatedBy: "admin"}))
	require.NoError(t, AddPanel(db, Panel{MessageID: "m3", GuildID: "g1", ChannelID: "c2", CreatedBy: "admin"}))

	panels, err := PanelsInChannel(db, "c1")
	require.NoError(t, err)
	require.Len(t, panels, 2)

	panels, err = PanelsInChannel(db, "c3")
	require.NoError(t, err)
	assert.Empty(t, panels)
}
