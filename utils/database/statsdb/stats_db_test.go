package statsdb

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

func TestMessageActivityWindow(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	today := DayKey(now)
	lastMonth := DayKey(now.AddDate(0, 0, -20))

	for i := 0; i < 3; i++ {
		require.NoError(t, IncrementMessageCount(db, "g1", "alice", today))
	}
	require.NoError(t, IncrementMessageCount(db, "g1", "bob", today))
	require.NoError(t, IncrementMessageCount(db, "g1", "bob", lastMonth))
	require.NoError(t, IncrementMessageCount(db, "other-guild", "carol", today))

	weekly, err := ActivitySince(db, "g1", DayKey(now.AddDate(0, 0, -7)))
	require.NoError(t, err)
	assert.Equal(t, 4, weekly.Messages)
	assert.Equal(t, 2, weekly.ActiveUsers)

	monthly, err := ActivitySince(db, "g1", DayKey(now.AddDate(0, 0, -30)))
	require.NoError(t, err)
	assert.Equal(t, 5, monthly.Messages)
	assert.Equal(t, 2, monthly.ActiveUsers)

	quiet, err := ActivitySince(db, "silent-guild", DayKey(now.AddDate(0, 0, -7)))
	require.NoError(t, err)
	assert.Zero(t, quiet.Messages)
	assert.Zero(t, quiet.ActiveUsers)
}

func TestTopPosters(t *testing.T) {
	db := testDB(t)
	today := DayKey(time.Now())

	for i := 0; i < 2; i++ {
		require.NoError(t, IncrementMessageCount(db, "g1", "alice", today))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, IncrementMessageCount(db, "g1", "bob", today))
	}
	require.NoError(t, IncrementMessageCount(db, "g1", "carol", today))

	top, err := TopPosters(db, "g1", today, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "bob", top[0].UserID)
	assert.Equal(t, 5, top[0].Messages)
	assert.Equal(t, "alice", top[1].UserID)
	assert.Equal(t, 2, top[1].Messages)
}

func TestScheduleUpsert(t *testing.T) {
	db := testDB(t)

	require.NoError(t, UpsertSchedule(db, "g1", "c1", model.PeriodWeek))
	require.NoError(t, UpsertSchedule(db, "g1", "c2", model.PeriodMonth))

	schedules, err := ListSchedules(db)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, "c2", schedules[0].ChannelID)
	assert.Equal(t, model.PeriodMonth, schedules[0].Period)
	assert.False(t, schedules[0].LastSent.Valid)

	sentAt := time.Now()
	require.NoError(t, UpdateLastSent(db, "g1", sentAt))
	schedules, err = ListSchedules(db)
	require.NoError(t, err)
	assert.Equal(t, sentAt.Unix(), schedules[0].LastSent.Int64)
}
