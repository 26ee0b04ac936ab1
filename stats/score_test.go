package stats

import (
	"testing"

	"moderation-bot/model"

	"github.com/stretchr/testify/assert"
)

func TestScoreWeights(t *testing.T) {
	score := Score(Counts{Ban: 2, Timeout: 1})
	assert.Equal(t, 12, score)
	assert.Equal(t, LevelMild, LevelFor(score))

	assert.Equal(t, 0, Score(Counts{}))
	assert.Equal(t, 8, Score(Counts{Ban: 1, Timeout: 1, Kick: 1}))
}

func TestScoreReversalsSubtract(t *testing.T) {
	// A fully reverted history nets out to zero.
	assert.Equal(t, 0, Score(Counts{Ban: 1, Unban: 1, Timeout: 2, Untimeout: 2}))
	// More reversals than actions can push the score negative.
	assert.Equal(t, -5, Score(Counts{Unban: 1}))
	assert.Equal(t, LevelGood, LevelFor(-5))
}

func TestLevelBands(t *testing.T) {
	cases := []struct {
		score int
		level string
	}{
		{0, LevelGood},
		{5, LevelGood},
		{6, LevelMild},
		{15, LevelMild},
		{16, LevelCaution},
		{30, LevelCaution},
		{31, LevelSevere},
		{100, LevelSevere},
	}
	for _, c := range cases {
		assert.Equal(t, c.level, LevelFor(c.score), "score %d", c.score)
	}
}

func TestCountsFrom(t *testing.T) {
	counts := CountsFrom(map[string]int{
		model.ActionBan:     3,
		model.ActionTimeout: 2,
		model.ActionUnban:   1,
	})
	assert.Equal(t, 3, counts.Ban)
	assert.Equal(t, 2, counts.Timeout)
	assert.Equal(t, 1, counts.Unban)
	assert.Equal(t, 0, counts.Kick)
}

func TestTotalExcludesReversals(t *testing.T) {
	counts := Counts{Ban: 1, Kick: 1, Timeout: 1, Unban: 5, Untimeout: 5}
	assert.Equal(t, 3, counts.Total())
}
