package modlogdb

import (
	"testing"
	"time"

	"moderation-bot/model"
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

func addRecord(t *testing.T, db *sqlx.DB, action string, at time.Time) {
	t.Helper()
	_, err := Add(db, model.ModLog{
		GuildID:    "g1",
		TargetID:   "target",
		ExecutorID: "mod",
		Action:     action,
		Reason:     "spam",
		CreatedAt:  at.Unix(),
	})
	require.NoError(t, err)
}

func TestCountsByAction(t *testing.T) {
	db := testDB(t)
	now := time.Now()

	addRecord(t, db, model.ActionBan, now.AddDate(0, 0, -30))
	addRecord(t, db, model.ActionBan, now.AddDate(0, 0, -1))
	addRecord(t, db, model.ActionTimeout, now.AddDate(0, 0, -1))

	all, err := CountsByAction(db, "g1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, all[model.ActionBan])
	assert.Equal(t, 1, all[model.ActionTimeout])

	since := now.AddDate(0, 0, -7)
	recent, err := CountsByAction(db, "g1", &since)
	require.NoError(t, err)
	assert.Equal(t, 1, recent[model.ActionBan])
	assert.Equal(t, 1, recent[model.ActionTimeout])

	other, err := CountsByAction(db, "other-guild", nil)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRecentByTarget(t *testing.T) {
	db := testDB(t)
	now := time.Now()

	addRecord(t, db, model.ActionKick, now.AddDate(0, 0, -2))
	addRecord(t, db, model.ActionBan, now.AddDate(0, 0, -1))

	records, err := RecentByTarget(db, "g1", "target", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Newest first.
	assert.Equal(t, model.ActionBan, records[0].Action)
	assert.Equal(t, model.ActionKick, records[1].Action)
}
