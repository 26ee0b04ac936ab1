package bot

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"moderation-bot/model"
	"moderation-bot/stats"
	"moderation-bot/tickets"
	"moderation-bot/utils/database/statsdb"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
)

// BotProvider defines the methods the scheduler needs from the Bot.
type BotProvider interface {
	GetSession() *discordgo.Session
	GetDB() *sqlx.DB
	GetConfig() *model.Config
	GetTickets() *tickets.Manager
	Ready() <-chan struct{}
}

// Scheduler drives the periodic maintenance tick: the ticket retention
// sweep and the statistics digest deliveries.
type Scheduler struct {
	bot     BotProvider
	done    chan struct{}
	wg      sync.WaitGroup
	ticking atomic.Bool
}

// NewScheduler creates a new scheduler.
func NewScheduler(bot BotProvider) *Scheduler {
	return &Scheduler{
		bot:  bot,
		done: make(chan struct{}),
	}
}

// Start begins the maintenance loop. The first tick runs as soon as the
// gateway is ready so a restart does not delay overdue work by a full
// interval.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop terminates the maintenance loop gracefully.
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	close(s.done)
	s.wg.Wait()
	log.Println("Scheduler stopped.")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	select {
	case <-s.bot.Ready():
	case <-s.done:
		return
	}

	interval := time.Duration(s.bot.GetConfig().Settings.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.tick()
	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.done:
			return
		}
	}
}

// tick runs one maintenance pass. A pass that outlasts the interval is
// not stacked; the overlapping tick is skipped.
func (s *Scheduler) tick() {
	if !s.ticking.CompareAndSwap(false, true) {
		log.Println("Previous maintenance tick still running, skipping.")
		return
	}
	defer s.ticking.Store(false)

	if removed := s.bot.GetTickets().SweepExpired(); removed > 0 {
		log.Printf("Ticket sweep removed %d expired ticket(s).", removed)
	}
	s.deliverDigests()
}

func (s *Scheduler) deliverDigests() {
	db := s.bot.GetDB()
	schedules, err := statsdb.ListSchedules(db)
	if err != nil {
		log.Printf("Digest delivery: could not list schedules: %v", err)
		return
	}

	now := time.Now()
	for _, schedule := range schedules {
		var lastSent *time.Time
		if schedule.LastSent.Valid {
			t := time.Unix(schedule.LastSent.Int64, 0)
			lastSent = &t
		}
		if !stats.Due(schedule.Period, lastSent, now) {
			continue
		}

		guildName := schedule.GuildID
		if guild, err := s.bot.GetSession().Guild(schedule.GuildID); err == nil {
			guildName = guild.Name
		}

		embed, err := stats.BuildDigest(db, schedule.GuildID, guildName, schedule.Period, now)
		if err != nil {
			log.Printf("Digest delivery: could not build digest for guild %s: %v", schedule.GuildID, err)
			continue
		}
		if _, err := s.bot.GetSession().ChannelMessageSendEmbed(schedule.ChannelID, embed); err != nil {
			log.Printf("Digest delivery: could not send digest to channel %s: %v", schedule.ChannelID, err)
			continue
		}
		// last_sent is only advanced after a confirmed send, so a failed
		// delivery is retried on the next tick inside the window.
		if err := statsdb.UpdateLastSent(db, schedule.GuildID, now); err != nil {
			log.Printf("Digest delivery: could not record delivery for guild %s: %v", schedule.GuildID, err)
		}
	}
}
