package stats

import (
	"testing"
	"time"

	"moderation-bot/model"
	"moderation-bot/utils/database"
	"moderation-bot/utils/database/modlogdb"
	"moderation-bot/utils/database/statsdb"
	"moderation-bot/utils/database/ticketdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 was both a Monday and the first of the month.
var windowDay = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(from time.Time, days int) *time.Time {
	t := from.AddDate(0, 0, -days)
	return &t
}

func TestWeeklyDue(t *testing.T) {
	// Never sent: due at the first Monday.
	assert.True(t, Due(model.PeriodWeek, nil, windowDay))

	// Not a Monday: never due, regardless of elapsed time.
	tuesday := windowDay.AddDate(0, 0, 1)
	assert.False(t, Due(model.PeriodWeek, nil, tuesday))
	assert.False(t, Due(model.PeriodWeek, daysAgo(tuesday, 30), tuesday))

	// Sent earlier in the same window: not due again.
	assert.False(t, Due(model.PeriodWeek, daysAgo(windowDay, 3), windowDay))

	// A delivery that slipped past one Monday is caught on the next.
	assert.True(t, Due(model.PeriodWeek, daysAgo(windowDay, 10), windowDay))
	assert.True(t, Due(model.PeriodWeek, daysAgo(windowDay, 7), windowDay))
}

func TestMonthlyDue(t *testing.T) {
	assert.True(t, Due(model.PeriodMonth, nil, windowDay))

	secondOfMonth := windowDay.AddDate(0, 0, 1)
	assert.False(t, Due(model.PeriodMonth, nil, secondOfMonth))

	// Sent four weeks ago or more: due again on the first.
	assert.True(t, Due(model.PeriodMonth, daysAgo(windowDay, 31), windowDay))
	assert.True(t, Due(model.PeriodMonth, daysAgo(windowDay, 28), windowDay))

	// Sent mid-window: not due.
	assert.False(t, Due(model.PeriodMonth, daysAgo(windowDay, 14), windowDay))
}

func TestUnknownPeriodNeverDue(t *testing.T) {
	assert.False(t, Due("daily", nil, windowDay))
	assert.False(t, Due("", nil, windowDay))
}

func TestBuildDigest(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Now()
	for i := 0; i < 5; i++ {
		_, err := modlogdb.Add(db, model.ModLog{
			GuildID:    "g1",
			TargetID:   "target",
			ExecutorID: "mod",
			Action:     model.ActionBan,
			Reason:     "spam",
			CreatedAt:  now.AddDate(0, 0, -1).Unix(),
		})
		require.NoError(t, err)
	}
	_, err = ticketdb.Insert(db, "g1", "alice")
	require.NoError(t, err)

	day := statsdb.DayKey(now.AddDate(0, 0, -1))
	for i := 0; i < 4; i++ {
		require.NoError(t, statsdb.IncrementMessageCount(db, "g1", "alice", day))
	}
	require.NoError(t, statsdb.IncrementMessageCount(db, "g1", "bob", day))

	embed, err := BuildDigest(db, "g1", "Test Guild", model.PeriodWeek, now)
	require.NoError(t, err)
	assert.Contains(t, embed.Title, "Test Guild")
	require.Len(t, embed.Fields, 5)
	assert.Contains(t, embed.Fields[0].Value, "BAN: 5")
	assert.Equal(t, "1", embed.Fields[1].Value)
	// 5 bans score 25: caution.
	assert.Contains(t, embed.Fields[2].Value, "score: 25")
	assert.Contains(t, embed.Fields[2].Value, LevelLabel(LevelCaution))
	assert.Contains(t, embed.Fields[3].Value, "5 message(s) from 2 active member(s)")
	// Ranking is busiest first.
	assert.Contains(t, embed.Fields[4].Value, "1. <@alice>: 4 message(s)")
	assert.Contains(t, embed.Fields[4].Value, "2. <@bob>: 1 message(s)")
}
