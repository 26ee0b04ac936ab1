// Package stats aggregates moderation history into guild statistics, the
// derived security score and the periodic digest.
package stats

import "moderation-bot/model"

// Counts holds per-action moderation record counts.
type Counts struct {
	Ban       int
	Kick      int
	Timeout   int
	Unban     int
	Untimeout int
}

// CountsFrom maps the recorder's per-action query result.
func CountsFrom(byAction map[string]int) Counts {
	return Counts{
		Ban:       byAction[model.ActionBan],
		Kick:      byAction[model.ActionKick],
		Timeout:   byAction[model.ActionTimeout],
		Unban:     byAction[model.ActionUnban],
		Untimeout: byAction[model.ActionUntimeout],
	}
}

// Total is the number of punitive actions (reversals excluded).
func (c Counts) Total() int {
	return c.Ban + c.Timeout + c.Kick
}

// Score is the weighted security score. Pure function of the counts;
// recomputed on demand, never stored.
func Score(c Counts) int {
	return c.Ban*5 + c.Timeout*2 + c.Kick*1 - c.Unban*5 - c.Untimeout*2
}

// Security levels, ascending severity.
const (
	LevelGood    = "good"
	LevelMild    = "mild"
	LevelCaution = "caution"
	LevelSevere  = "severe"
)

// LevelFor bands a score into a named level.
func LevelFor(score int) string {
	switch {
	case score <= 5:
		return LevelGood
	case score <= 15:
		return LevelMild
	case score <= 30:
		return LevelCaution
	default:
		return LevelSevere
	}
}

// LevelLabel is the operator-facing rendering of a level.
func LevelLabel(level string) string {
	switch level {
	case LevelGood:
		return "🟢 Good"
	case LevelMild:
		return "🟡 Mild concern"
	case LevelCaution:
		return "🟠 Caution"
	default:
		return "🔴 Severe"
	}
}
