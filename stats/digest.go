package stats

import (
	"fmt"
	"strings"
	"time"

	"moderation-bot/model"
	"moderation-bot/utils/database/modlogdb"
	"moderation-bot/utils/database/statsdb"
	"moderation-bot/utils/database/ticketdb"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
)

// Elapsed-time floors. Due-ness is driven by time since last delivery, not
// by an exact wall-clock match, so downtime across a window boundary does
// not silently drop a digest.
const (
	weekElapsed  = 7 * 24 * time.Hour
	monthElapsed = 28 * 24 * time.Hour
)

// Due reports whether a digest should be delivered on this tick. The
// current tick must fall in the period's delivery window (Monday for
// weekly, the first of the month for monthly) and at least one full period
// must have elapsed since the last delivery. A never-sent schedule is due
// at its first window.
func Due(period string, lastSent *time.Time, now time.Time) bool {
	switch period {
	case model.PeriodWeek:
		if now.Weekday() != time.Monday {
			return false
		}
		return lastSent == nil || now.Sub(*lastSent) >= weekElapsed
	case model.PeriodMonth:
		if now.Day() != 1 {
			return false
		}
		return lastSent == nil || now.Sub(*lastSent) >= monthElapsed
	}
	return false
}

func periodWindow(period string, now time.Time) (time.Time, string) {
	if period == model.PeriodMonth {
		return now.AddDate(0, 0, -30), "Monthly"
	}
	return now.AddDate(0, 0, -7), "Weekly"
}

// BuildDigest renders the statistics digest embed for a guild.
func BuildDigest(db *sqlx.DB, guildID, guildName, period string, now time.Time) (*discordgo.MessageEmbed, error) {
	since, periodText := periodWindow(period, now)

	byAction, err := modlogdb.CountsByAction(db, guildID, &since)
	if err != nil {
		return nil, err
	}
	periodCounts := CountsFrom(byAction)

	allTime, err := modlogdb.CountsByAction(db, guildID, nil)
	if err != nil {
		return nil, err
	}
	score := Score(CountsFrom(allTime))

	ticketCount, err := ticketdb.CountCreatedSince(db, guildID, since)
	if err != nil {
		return nil, err
	}

	activity, err := statsdb.ActivitySince(db, guildID, statsdb.DayKey(since))
	if err != nil {
		return nil, err
	}
	topPosters, err := statsdb.TopPosters(db, guildID, statsdb.DayKey(since), 3)
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📊 %s statistics — %s", periodText, guildName),
		Description: fmt.Sprintf("%s to %s",
			since.Format("2006/01/02"), now.Format("2006/01/02")),
		Color:     0x5865F2,
		Timestamp: now.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "🚨 Moderation actions",
				Value: fmt.Sprintf("BAN: %d\nUNBAN: %d\nTIMEOUT: %d\nUNTIMEOUT: %d\nKICK: %d\nTotal punitive: %d",
					periodCounts.Ban, periodCounts.Unban, periodCounts.Timeout,
					periodCounts.Untimeout, periodCounts.Kick, periodCounts.Total()),
			},
			{
				Name:   "🎫 Tickets opened",
				Value:  fmt.Sprintf("%d", ticketCount),
				Inline: true,
			},
			{
				Name:   "🛡 Security level",
				Value:  fmt.Sprintf("%s\n(score: %d)", LevelLabel(LevelFor(score)), score),
				Inline: true,
			},
			{
				Name: "💬 Message activity",
				Value: fmt.Sprintf("%d message(s) from %d active member(s)",
					activity.Messages, activity.ActiveUsers),
			},
		},
	}
	if len(topPosters) > 0 {
		lines := make([]string, len(topPosters))
		for i, p := range topPosters {
			lines[i] = fmt.Sprintf("%d. <@%s>: %d message(s)", i+1, p.UserID, p.Messages)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🏆 Top posters",
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed, nil
}
