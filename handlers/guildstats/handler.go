// Package guildstats handles the statistics commands and member reports.
package guildstats

import (
	"fmt"
	"time"

	"moderation-bot/bot"
	"moderation-bot/model"
	"moderation-bot/stats"
	"moderation-bot/utils"
	"moderation-bot/utils/database/statsdb"

	"github.com/bwmarrin/discordgo"
)

func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		opts[opt.Name] = opt
	}
	return opts
}

// HandleStats runs /stats: the on-demand digest.
func HandleStats(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	perm, _ := utils.GuildPermission(b.DB, i.GuildID, i.Member)
	if perm == utils.GuestPermission {
		utils.SendErrorResponse(s, i, "You do not have permission to view guild statistics.")
		return
	}

	period := model.PeriodWeek
	if opt, ok := optionMap(i.ApplicationCommandData())["period"]; ok {
		period = opt.StringValue()
	}

	guildName := i.GuildID
	if guild, err := s.Guild(i.GuildID); err == nil {
		guildName = guild.Name
	}

	embed, err := stats.BuildDigest(b.DB, i.GuildID, guildName, period, time.Now())
	if err != nil {
		utils.SendErrorResponse(s, i, "Could not build the statistics: "+err.Error())
		return
	}
	utils.SendEmbedResponse(s, i, embed)
}

// HandleStatsSend runs /stats-send: schedules the periodic digest.
func HandleStatsSend(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	perm, _ := utils.GuildPermission(b.DB, i.GuildID, i.Member)
	if perm != utils.AdminPermission {
		utils.SendErrorResponse(s, i, "Only admins may schedule the digest.")
		return
	}

	opts := optionMap(i.ApplicationCommandData())
	period := opts["period"].StringValue()
	channelID := opts["channel"].ChannelValue(nil).ID

	if err := statsdb.UpsertSchedule(b.DB, i.GuildID, channelID, period); err != nil {
		utils.SendErrorResponse(s, i, "Could not save the schedule: "+err.Error())
		return
	}

	cadence := "every Monday"
	if period == model.PeriodMonth {
		cadence = "on the 1st of each month"
	}
	utils.SendSimpleResponse(s, i, fmt.Sprintf("📊 Digest scheduled %s in <#%s>.", cadence, channelID))
}

// HandleReport runs /report: files a member report into the report inbox.
func HandleReport(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	_, cfg := utils.GuildPermission(b.DB, i.GuildID, i.Member)

	opts := optionMap(i.ApplicationCommandData())
	target := opts["target"].UserValue(nil)
	content := opts["content"].StringValue()

	id, err := statsdb.AddReport(b.DB, model.Report{
		GuildID:    i.GuildID,
		ReporterID: i.Member.User.ID,
		TargetType: "user",
		TargetID:   target.ID,
		Content:    content,
	})
	if err != nil {
		utils.SendErrorResponse(s, i, "Could not file the report: "+err.Error())
		return
	}

	if cfg.ReportLogChannelID != "" {
		embed := &discordgo.MessageEmbed{
			Title: fmt.Sprintf("🚩 Report #%d", id),
			Description: fmt.Sprintf("**Target:** <@%s>\n**Reporter:** <@%s>\n**Detail:** %s",
				target.ID, i.Member.User.ID, content),
			Color:     0xED4245,
			Timestamp: time.Now().Format(time.RFC3339),
		}
		if _, err := s.ChannelMessageSendEmbed(cfg.ReportLogChannelID, embed); err != nil {
			utils.SendErrorResponse(s, i, "Report saved, but the report channel could not be notified.")
			return
		}
	}

	utils.SendSimpleResponse(s, i, "🚩 Your report has been filed. Thank you.")
}
